package utils

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseDuration safely parses a duration string like "5m", returning def on failure
func ParseDuration(d string, def time.Duration) time.Duration {
	if d == "" {
		return def
	}
	duration, err := time.ParseDuration(d)
	if err != nil || duration <= 0 {
		return def
	}
	return duration
}

// Spreadsheet exports write these for blank or broken cells
var sentinels = map[string]bool{
	"nan":  true,
	"none": true,
	"null": true,
	"nat":  true,
	"#n/a": true,
	"n/a":  true,
	"-":    true,
}

// IsSentinel reports whether s is a placeholder for "no value"
func IsSentinel(s string) bool {
	return sentinels[strings.ToLower(strings.TrimSpace(s))]
}

// NormalizeText trims s and maps sentinel placeholders to ""
func NormalizeText(s string) string {
	s = strings.TrimSpace(s)
	if IsSentinel(s) {
		return ""
	}
	return s
}

// ParseNumber parses a spreadsheet number such as "1,234.5".
// Anything else, including empty and sentinel cells, is (0, false).
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || IsSentinel(s) {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseDate parses a spreadsheet date cell.
//
// Accepted: yyyy-mm-dd, dd/mm/yyyy (or mm/dd/yyyy when monthFirst), two-digit
// years (20xx), '-' or '.' separators, and an optional HH:MM[:SS] suffix
// (12-hour AM/PM, fractional seconds and a trailing Z are tolerated). A clock
// that still cannot be read leaves the date at midnight.
// Years from 2400 on are Buddhist-era and shifted back by 543.
func ParseDate(s string, monthFirst bool) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || IsSentinel(s) {
		return time.Time{}, false
	}

	datePart, timePart := s, ""
	if i := strings.IndexAny(s, " T"); i > 0 {
		datePart, timePart = s[:i], strings.TrimSpace(s[i+1:])
	}

	parts := strings.FieldsFunc(datePart, func(r rune) bool {
		return r == '/' || r == '-' || r == '.'
	})
	if len(parts) != 3 {
		return time.Time{}, false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return time.Time{}, false
		}
		nums[i] = n
	}

	var year, month, day int
	switch {
	case len(parts[0]) == 4:
		year, month, day = nums[0], nums[1], nums[2]
	case monthFirst:
		month, day, year = nums[0], nums[1], nums[2]
	default:
		day, month, year = nums[0], nums[1], nums[2]
	}
	if len(parts[0]) != 4 && len(parts[2]) <= 2 {
		year += 2000
	}
	if year >= 2400 {
		year -= 543
	}

	hour, minute, sec := 0, 0, 0
	if timePart != "" {
		if h, m, sc, ok := parseClock(timePart); ok {
			hour, minute, sec = h, m, sc
		}
	}

	t := time.Date(year, time.Month(month), day, hour, minute, sec, 0, time.UTC)
	// time.Date normalizes 31/02 into March; reject instead
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func parseClock(s string) (h, m, sec int, ok bool) {
	s = strings.TrimSuffix(strings.TrimSuffix(strings.TrimSpace(s), "Z"), "z")

	meridiem := ""
	if n := len(s); n >= 2 {
		switch strings.ToUpper(s[n-2:]) {
		case "AM", "PM":
			meridiem = strings.ToUpper(s[n-2:])
			s = strings.TrimSpace(s[:n-2])
		}
	}
	// fractional seconds
	if i := strings.IndexByte(s, '.'); i > 0 {
		s = s[:i]
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, 0, false
	}
	vals := []int{0, 0, 0}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0, 0, 0, false
		}
		vals[i] = n
	}
	if vals[0] < 0 || vals[1] < 0 || vals[2] < 0 || vals[0] > 23 || vals[1] > 59 || vals[2] > 59 {
		return 0, 0, 0, false
	}
	if meridiem != "" {
		if vals[0] < 1 || vals[0] > 12 {
			return 0, 0, 0, false
		}
		vals[0] %= 12
		if meridiem == "PM" {
			vals[0] += 12
		}
	}
	return vals[0], vals[1], vals[2], true
}

// Day truncates t to midnight UTC
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
