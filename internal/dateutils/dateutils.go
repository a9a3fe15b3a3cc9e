// Package dateutils provides the date handling shared by the ledger parsers
// and the renderer.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Date layouts used by ledger text and structured payloads.
const (
	DateLayoutLedger = "2006/01/02"
	DateLayoutISO    = "2006-01-02"
)

var ledgerDate = regexp.MustCompile(`^(\d{4})[/-](\d{2})[/-](\d{2})$`)

// IsLedgerDateToken reports whether s is shaped like YYYY/MM/DD or YYYY-MM-DD.
// It does not check that the date exists.
func IsLedgerDateToken(s string) bool {
	return ledgerDate.MatchString(s)
}

// ParseLedgerDate parses YYYY/MM/DD or YYYY-MM-DD as a calendar date in loc.
// Impossible dates such as 2024/02/30 are rejected.
func ParseLedgerDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	if !ledgerDate.MatchString(s) {
		return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
	}
	t, err := time.ParseInLocation(DateLayoutISO, strings.ReplaceAll(s, "/", "-"), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse date: %s: %w", s, err)
	}
	return t, nil
}

// LocalDate truncates now to midnight of its own calendar day, using the
// local year/month/day components rather than a UTC conversion.
func LocalDate(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// FormatLedger formats a date as YYYY/MM/DD.
func FormatLedger(date time.Time) string {
	return date.Format(DateLayoutLedger)
}

// ToISODate formats a date as YYYY-MM-DD.
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}

// NormalizeLedgerDate rewrites a YYYY-MM-DD date string to YYYY/MM/DD.
func NormalizeLedgerDate(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "-", "/")
}
