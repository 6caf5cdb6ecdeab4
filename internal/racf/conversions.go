package racf

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// sentinels are values the host prints for fields that are not set.
var sentinels = map[string]bool{
	"":               true,
	"NONE":           true,
	"N/A":            true,
	"UNKNOWN":        true,
	"NONE SPECIFIED": true,
}

// IsSentinel reports whether a raw value means "not set".
func IsSentinel(raw string) bool {
	return sentinels[strings.ToUpper(strings.TrimSpace(raw))]
}

// racfCentury resolves a two-digit year: 71-99 are 19xx, 00-70 are 20xx.
func racfCentury(yy int) int {
	if yy >= 71 {
		return 1900 + yy
	}
	return 2000 + yy
}

// ParseRACFDate decodes a yy.ddd Julian date. It returns nil for sentinels
// and for 00.000.
func ParseRACFDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if IsSentinel(raw) || raw == "00.000" {
		return nil, nil
	}

	yyStr, dddStr, ok := strings.Cut(raw, ".")
	if !ok || len(yyStr) != 2 || len(dddStr) != 3 {
		return nil, fmt.Errorf("invalid RACF date %q", raw)
	}
	yy, err := strconv.Atoi(yyStr)
	if err != nil {
		return nil, fmt.Errorf("invalid RACF date %q: %w", raw, err)
	}
	ddd, err := strconv.Atoi(dddStr)
	if err != nil || ddd < 1 || ddd > 366 {
		return nil, fmt.Errorf("invalid RACF date %q: day of year out of range", raw)
	}

	t := time.Date(racfCentury(yy), time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, ddd-1)
	return &t, nil
}

// ParseRACFTimestamp decodes yy.ddd/hh:mm:ss. A bare yy.ddd is accepted as
// midnight.
func ParseRACFTimestamp(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	datePart, timePart, hasTime := strings.Cut(raw, "/")

	day, err := ParseRACFDate(datePart)
	if err != nil || day == nil {
		return day, err
	}
	if !hasTime || IsSentinel(timePart) {
		return day, nil
	}

	clock, err := time.Parse("15:04:05", timePart)
	if err != nil {
		return nil, fmt.Errorf("invalid RACF timestamp %q: %w", raw, err)
	}
	t := day.Add(time.Duration(clock.Hour())*time.Hour +
		time.Duration(clock.Minute())*time.Minute +
		time.Duration(clock.Second())*time.Second)
	return &t, nil
}

// FormatRACFDate renders t as mm/dd/yy, the operand form of REVOKE and
// RESUME.
func FormatRACFDate(t time.Time) string {
	return t.Format("01/02/06")
}

// ParseInputDate accepts the date forms users write in configuration:
// RFC 3339 dates (2006-01-02), mm/dd/yy and yy.ddd.
func ParseInputDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"2006-01-02", "01/02/06"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	if t, err := ParseRACFDate(raw); err == nil && t != nil {
		return *t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", raw)
}

// FlagPresent reports whether flag is among the values of a list attribute
// such as ATTRIBUTES.
func FlagPresent(values []string, flag string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), flag) {
			return true
		}
	}
	return false
}

// UserEnabled derives the enabled state from the ATTRIBUTES list.
func UserEnabled(attributes []string) bool {
	return !FlagPresent(attributes, "REVOKED")
}

// PasswordExpired reports whether PASSDATE marks the password as expired.
// The host prints 00.000 for an expired password.
func PasswordExpired(passdate string) bool {
	return strings.TrimSpace(passdate) == "00.000"
}

// NormalizeValue returns "" for sentinels and the trimmed value otherwise.
func NormalizeValue(raw string) string {
	if IsSentinel(raw) {
		return ""
	}
	return strings.TrimSpace(raw)
}
