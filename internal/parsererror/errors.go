package parsererror

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Sentinel causes carried by ParseError so callers can use errors.Is.
var (
	ErrEmptyInput          = errors.New("empty input")
	ErrAmountNotFound      = errors.New("Amount not found")
	ErrDescriptionNotFound = errors.New("Description not found")
	ErrInvalidHeader       = errors.New("invalid ledger header")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrMissingPosting      = errors.New("missing posting")
)

// ParseError represents a hard failure while parsing user input.
// No partial result accompanies it.
type ParseError struct {
	Parser string
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: failed to parse %s: %v", e.Parser, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: failed to parse %s='%s': %v",
		e.Parser, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// FieldError is one field-scoped validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f FieldError) String() string {
	return f.Field + ": " + f.Message
}

// ValidationError collects the invariant violations of a payload or receipt.
type ValidationError struct {
	Subject string
	Errors  []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.String())
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Subject, strings.Join(parts, "; "))
}

// Add appends a field error.
func (e *ValidationError) Add(field, format string, args ...interface{}) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// HasField reports whether any error is scoped to field.
func (e *ValidationError) HasField(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// OrNil returns nil when no field errors were collected.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// BalanceError reports postings that do not sum to zero within tolerance.
type BalanceError struct {
	Difference decimal.Decimal
	Threshold  decimal.Decimal
	Reason     string
}

func (e *BalanceError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("out of balance: %s", e.Reason)
	}
	return fmt.Sprintf("out of balance by %s (threshold %s)",
		e.Difference.StringFixed(2), e.Threshold.String())
}

// MappingError is a soft failure of one account mapping stage. It is logged
// and never returned to users.
type MappingError struct {
	Description string
	Strategy    string
	Err         error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("account mapping failed for %q using %s: %v",
		e.Description, e.Strategy, e.Err)
}

func (e *MappingError) Unwrap() error {
	return e.Err
}

// SegmentationError is a soft failure of LLM-assisted receipt segmentation.
type SegmentationError struct {
	Strategy string
	Err      error
}

func (e *SegmentationError) Error() string {
	return fmt.Sprintf("segmentation via %s failed: %v", e.Strategy, e.Err)
}

func (e *SegmentationError) Unwrap() error {
	return e.Err
}
