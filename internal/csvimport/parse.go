package csvimport

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/itchyny/timefmt-go"
	"github.com/shopspring/decimal"
)

// genericLayouts are the day-first fallbacks tried after any explicit or bank
// specific format. Single-digit layout elements also accept two digits.
var genericLayouts = []string{
	"2006-1-2",
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2/1/06",
	"2006/1/2",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2/1/2006 15:04",
	"2/1/2006 15:04:05",
	time.RFC3339,
}

// ParseDate parses a date cell. The override format (strftime) is tried
// first, then the bank's known formats, then the generic day-first layouts.
// The result is midnight UTC.
func ParseDate(value, override string, format BankFormat) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty date")
	}

	var formats []string
	if override != "" {
		formats = append(formats, override)
	}
	formats = append(formats, DateFormats(format)...)
	for _, f := range formats {
		if t, err := parseStrftime(value, f); err == nil {
			return midnightUTC(t), nil
		}
	}

	for _, layout := range genericLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return midnightUTC(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

// parseStrftime parses value with a strftime format. Values that only parse
// by rolling over (month 13, 31 February) are rejected, as are years below
// 1000, which %Y accepts from a two-digit "24".
func parseStrftime(value, format string) (time.Time, error) {
	t, err := timefmt.Parse(value, format)
	if err != nil {
		return time.Time{}, err
	}
	if t.Year() < 1000 {
		return time.Time{}, fmt.Errorf("date %q has no four-digit year", value)
	}
	if !strings.EqualFold(stripLeadingZeros(timefmt.Format(t, format)), stripLeadingZeros(value)) {
		return time.Time{}, fmt.Errorf("date %q out of range for %q", value, format)
	}
	return t, nil
}

func midnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// stripLeadingZeros drops leading zeros from every digit run, so "03/04"
// and "3/4" compare equal.
func stripLeadingZeros(s string) string {
	var b strings.Builder
	leading := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isDigit(c) {
			leading = true
			b.WriteByte(c)
			continue
		}
		if leading && c == '0' && i+1 < len(s) && isDigit(s[i+1]) {
			continue
		}
		leading = false
		b.WriteByte(c)
	}
	return b.String()
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// ParseDecimal parses an amount cell. Currency symbols and spaces are
// dropped. A single comma with no dot after it is the decimal separator
// (European "1.234,56"); otherwise commas are thousands separators
// ("1,234.56", "1,234,567").
func ParseDecimal(value string) (decimal.Decimal, error) {
	s := strings.TrimSpace(value)
	s = strings.NewReplacer("€", "", " ", "", "\u00a0", "").Replace(s)
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return decimal.Zero, errors.New("empty amount")
	}

	switch commas := strings.Count(s, ","); {
	case commas == 0:
	case commas == 1 && strings.LastIndexByte(s, '.') < strings.IndexByte(s, ','):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	default:
		s = strings.ReplaceAll(s, ",", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return d, nil
}

// ParseAmount is ParseDecimal converted to float64.
func ParseAmount(value string) (float64, error) {
	d, err := ParseDecimal(value)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// CleanDescription trims the value and, when collapse is set, folds internal
// whitespace runs into single spaces.
func CleanDescription(value string, collapse bool) string {
	if collapse {
		return strings.Join(strings.Fields(value), " ")
	}
	return strings.TrimSpace(value)
}
