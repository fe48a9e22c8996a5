package project

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/projmd/projmd/pkg/errors"
)

// relativeExpr matches dynamic relative dates like "3 weeks ago" or
// "2 months from now".
var relativeExpr = regexp.MustCompile(`^(\d+)\s+(day|days|week|weeks|month|months|year|years)\s+(ago|from now)$`)

// nonDigits collapses arbitrary separators in numeric dates ("01-02-2025",
// "01/02/2025", "01.02.2025") to a single form.
var nonDigits = regexp.MustCompile(`[^\d]+`)

// absoluteLayouts are tried for anything the numeric interpretation cannot
// handle, e.g. "2025-01-02T15:04:05Z" or "Jan 2, 2025".
var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// ParseFlexibleDate parses a user-supplied date string relative to now.
//
// Relative vocabulary: "today", "yesterday", "tomorrow", "last/next
// week|month|year", and "<N> day(s)|week(s)|month(s)|year(s) ago|from now".
//
// Numeric dates in ambiguous day/month/year form are resolved by trying
// day-month-year, month-day-year, and year-month-day interpretations in that
// priority order; the first that names a real calendar date wins. Anything
// else falls back to a set of common absolute layouts. An unparseable string
// yields an INVALID_DATE error, which callers treat as user input error.
func ParseFlexibleDate(input string, now time.Time) (time.Time, error) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch normalized {
	case "today":
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case "last week":
		return today.AddDate(0, 0, -7), nil
	case "next week":
		return today.AddDate(0, 0, 7), nil
	case "last month":
		return today.AddDate(0, -1, 0), nil
	case "next month":
		return today.AddDate(0, 1, 0), nil
	case "last year":
		return today.AddDate(-1, 0, 0), nil
	case "next year":
		return today.AddDate(1, 0, 0), nil
	}

	if m := relativeExpr.FindStringSubmatch(normalized); m != nil {
		amount, _ := strconv.Atoi(m[1])
		if m[3] == "ago" {
			amount = -amount
		}
		switch strings.TrimSuffix(m[2], "s") {
		case "day":
			return today.AddDate(0, 0, amount), nil
		case "week":
			return today.AddDate(0, 0, 7*amount), nil
		case "month":
			return today.AddDate(0, amount, 0), nil
		case "year":
			return today.AddDate(amount, 0, 0), nil
		}
	}

	if t, ok := parseNumericDate(normalized, now.Location()); ok {
		return t, nil
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, strings.TrimSpace(input), now.Location()); err == nil {
			return t, nil
		}
	}

	return time.Time{}, errors.New(errors.ErrCodeInvalidDate, "unable to parse date: %s", input)
}

// parseNumericDate resolves three-part numeric dates by trying D-M-Y, M-D-Y,
// and Y-M-D in priority order. Only interpretations naming a real calendar
// date are accepted; no field normalization happens.
func parseNumericDate(s string, loc *time.Location) (time.Time, bool) {
	fields := strings.Split(strings.Trim(nonDigits.ReplaceAllString(s, "/"), "/"), "/")
	if len(fields) != 3 {
		return time.Time{}, false
	}

	parts := make([]int, 3)
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return time.Time{}, false
		}
		parts[i] = n
	}

	interpretations := [][3]int{
		{parts[2], parts[1], parts[0]}, // day-month-year
		{parts[2], parts[0], parts[1]}, // month-day-year
		{parts[0], parts[1], parts[2]}, // year-month-day
	}
	for _, ymd := range interpretations {
		if t, ok := calendarDate(ymd[0], ymd[1], ymd[2], loc); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func calendarDate(year, month, day int, loc *time.Location) (time.Time, bool) {
	if year < 1 || month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	// time.Date normalizes out-of-range days (Feb 30 becomes Mar 2); a
	// changed field means the input was not a real calendar date.
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
