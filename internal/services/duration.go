package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// The compact duration grammar is a sequence of <integer><unit> tokens, e.g.
// "1y3m", "6m15d", "30d". Months and years use the system-wide fixed-day
// approximation (30/365 days) so purchase and upgrade paths agree on the
// arithmetic.
var durationToken = regexp.MustCompile(`(\d+)([ymwdh])`)

var unitHours = map[string]int{
	"y": 365 * 24,
	"m": 30 * 24,
	"w": 7 * 24,
	"d": 24,
	"h": 1,
}

// ParseDuration converts a compact duration expression into a time.Duration.
// Every token in the string contributes; "1y3m" is one year plus three
// months. Malformed input fails with an InvalidDurationFormat rejection
// rather than producing a zero expiry.
func ParseDuration(expr string) (time.Duration, error) {
	trimmed := strings.ToLower(strings.TrimSpace(expr))
	if trimmed == "" {
		return 0, NewRejection(KindInvalidDurationFormat, "duration is empty")
	}

	matches := durationToken.FindAllStringSubmatch(trimmed, -1)
	if len(matches) == 0 {
		return 0, NewRejection(KindInvalidDurationFormat, "duration "+strconv.Quote(expr)+" has no recognizable tokens")
	}

	// Reject strings with garbage between or around tokens ("1x2m", "1m!").
	consumed := 0
	for _, m := range matches {
		consumed += len(m[0])
	}
	if consumed != len(trimmed) {
		return 0, NewRejection(KindInvalidDurationFormat, "duration "+strconv.Quote(expr)+" contains unrecognized characters")
	}

	var total time.Duration
	for _, m := range matches {
		value, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, NewRejection(KindInvalidDurationFormat, "duration "+strconv.Quote(expr)+" has an invalid number")
		}
		total += time.Duration(value*unitHours[m[2]]) * time.Hour
	}

	if total <= 0 {
		return 0, NewRejection(KindInvalidDurationFormat, "duration "+strconv.Quote(expr)+" is not positive")
	}
	return total, nil
}

// ExpiryFrom computes the expiry instant for a duration expression offset
// from a reference instant.
func ExpiryFrom(ref time.Time, expr string) (time.Time, error) {
	d, err := ParseDuration(expr)
	if err != nil {
		return time.Time{}, err
	}
	return ref.Add(d), nil
}

// DurationDays reports the whole-day count a duration expression represents,
// used by the upgrade path to discount elapsed days.
func DurationDays(expr string) (int, error) {
	d, err := ParseDuration(expr)
	if err != nil {
		return 0, err
	}
	return int(d / (24 * time.Hour)), nil
}
