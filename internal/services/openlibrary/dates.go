package openlibrary

import (
	"strconv"
	"strings"
	"time"
)

var monthsByName = map[string]time.Month{
	"january":   time.January,
	"february":  time.February,
	"march":     time.March,
	"april":     time.April,
	"may":       time.May,
	"june":      time.June,
	"july":      time.July,
	"august":    time.August,
	"september": time.September,
	"october":   time.October,
	"november":  time.November,
	"december":  time.December,
}

// ParsePublishDate normalizes the free-form publish_date strings the books
// API returns. Supported shapes are ISO dates ("1974-05-21"), bare years
// ("1974", resolved to January 1st), month-and-year ("May 1974", resolved to
// the 1st), and full dates with or without a comma ("May 21, 1974"). Month
// names are matched case-insensitively. Anything else yields nil rather
// than an error, since an unusable date just means the field has no
// external value to compare against.
func ParsePublishDate(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	if ts, err := time.Parse("2006-01-02", s); err == nil {
		ts = ts.UTC()
		return &ts
	}

	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))
	switch len(fields) {
	case 1:
		if year, ok := parseYear(fields[0]); ok {
			return date(year, time.January, 1)
		}
	case 2:
		month, ok := monthsByName[strings.ToLower(fields[0])]
		if !ok {
			return nil
		}
		if year, yok := parseYear(fields[1]); yok {
			return date(year, month, 1)
		}
	case 3:
		month, ok := monthsByName[strings.ToLower(fields[0])]
		if !ok {
			return nil
		}
		day, err := strconv.Atoi(fields[1])
		if err != nil || day < 1 || day > 31 {
			return nil
		}
		if year, yok := parseYear(fields[2]); yok {
			return date(year, month, day)
		}
	}
	return nil
}

func parseYear(field string) (int, bool) {
	if len(field) != 4 {
		return 0, false
	}
	year, err := strconv.Atoi(field)
	if err != nil || year <= 0 {
		return 0, false
	}
	return year, true
}

func date(year int, month time.Month, day int) *time.Time {
	ts := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range components ("February 30" becomes
	// March 2nd); an impossible calendar date is no date at all.
	if ts.Year() != year || ts.Month() != month || ts.Day() != day {
		return nil
	}
	return &ts
}
