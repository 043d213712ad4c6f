package validation

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

var ErrInvalidTimestamp = errors.New("validation: invalid iso-8601 timestamp")

var (
	dateLayouts = []string{"2006-01-02", "20060102"}
	// Fractional seconds are accepted after "05" without being named in the layout.
	clockLayouts = []string{"15:04:05", "15:04", "15", "150405", "1504"}
	zoneLayouts  = []string{"-07:00", "-0700", "-07", "-07:00:00"}
)

// ParseTimestamp accepts the ISO-8601 forms a sensor agent emits: a date,
// optionally followed by a one-character separator, a clock time with
// optional fractional seconds, and an optional Z or numeric offset.
func ParseTimestamp(s string) (time.Time, error) {
	if len(s) < 8 {
		return time.Time{}, ErrInvalidTimestamp
	}
	dateLen := 10
	if s[4] != '-' {
		dateLen = 8
	}
	if len(s) < dateLen {
		return time.Time{}, ErrInvalidTimestamp
	}
	date, err := parseFirst(dateLayouts, s[:dateLen])
	if err != nil {
		return time.Time{}, ErrInvalidTimestamp
	}
	rest := s[dateLen:]
	if rest == "" {
		return date, nil
	}
	_, sepLen := utf8.DecodeRuneInString(rest)
	rest = rest[sepLen:]
	if rest == "" {
		return time.Time{}, ErrInvalidTimestamp
	}

	clockText, zoneText := splitZone(rest)
	// The "15" layout also takes a one-digit hour.
	if len(clockText) < 2 || !isDigit(clockText[0]) || !isDigit(clockText[1]) {
		return time.Time{}, ErrInvalidTimestamp
	}
	clock, err := parseFirst(clockLayouts, clockText)
	if err != nil {
		return time.Time{}, ErrInvalidTimestamp
	}
	loc := time.Local
	if zoneText != "" {
		if loc, err = parseZone(zoneText); err != nil {
			return time.Time{}, ErrInvalidTimestamp
		}
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), loc), nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func splitZone(s string) (string, string) {
	if strings.HasSuffix(s, "Z") {
		return s[:len(s)-1], "Z"
	}
	if i := strings.LastIndexAny(s, "+-"); i > 0 {
		return s[:i], s[i:]
	}
	return s, ""
}

func parseZone(s string) (*time.Location, error) {
	if s == "Z" {
		return time.UTC, nil
	}
	z, err := parseFirst(zoneLayouts, s)
	if err != nil {
		return nil, err
	}
	_, offset := z.Zone()
	return time.FixedZone("", offset), nil
}

func parseFirst(layouts []string, s string) (time.Time, error) {
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
