package dateutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLedgerDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
		hasError bool
	}{
		{"slashes", "2024/03/15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"dashes", "2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"mixed", "2024/03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"leap day", "2024/02/29", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), false},
		{"impossible day", "2024/02/30", time.Time{}, true},
		{"swiss format", "15.03.2024", time.Time{}, true},
		{"short year", "24/03/15", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLedgerDate(tt.input, time.UTC)
			if tt.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "expected %v, got %v", tt.expected, got)
		})
	}
}

func TestLocalDate(t *testing.T) {
	bangkok := time.FixedZone("ICT", 7*3600)
	// 00:30 local is still the previous day in UTC.
	now := time.Date(2024, 6, 1, 0, 30, 0, 0, bangkok)

	got := LocalDate(now)
	assert.Equal(t, "2024/06/01", FormatLedger(got))
	assert.Equal(t, "2024-06-01", ToISODate(got))
}

func TestNormalizeLedgerDate(t *testing.T) {
	assert.Equal(t, "2024/01/05", NormalizeLedgerDate("2024-01-05"))
	assert.Equal(t, "2024/01/05", NormalizeLedgerDate(" 2024/01/05 "))
	assert.True(t, IsLedgerDateToken("2024-01-05"))
	assert.False(t, IsLedgerDateToken("2024-1-5"))
}
