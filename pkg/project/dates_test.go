package project

import (
	"testing"
	"time"

	"github.com/projmd/projmd/pkg/errors"
)

// Fixed reference point for relative dates: Saturday, June 15, 2024.
var testNow = time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseFlexibleDateRelative(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"today", date(2024, 6, 15)},
		{"Today", date(2024, 6, 15)},
		{"  yesterday ", date(2024, 6, 14)},
		{"tomorrow", date(2024, 6, 16)},
		{"last week", date(2024, 6, 8)},
		{"next week", date(2024, 6, 22)},
		{"last month", date(2024, 5, 15)},
		{"next month", date(2024, 7, 15)},
		{"last year", date(2023, 6, 15)},
		{"next year", date(2025, 6, 15)},
		{"3 days ago", date(2024, 6, 12)},
		{"1 day ago", date(2024, 6, 14)},
		{"2 weeks ago", date(2024, 6, 1)},
		{"6 months ago", date(2023, 12, 15)},
		{"2 years ago", date(2022, 6, 15)},
		{"10 days from now", date(2024, 6, 25)},
		{"1 month from now", date(2024, 7, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFlexibleDate(tt.input, testNow)
			if err != nil {
				t.Fatalf("ParseFlexibleDate(%q) error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseFlexibleDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFlexibleDateNumeric(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		// Day-month-year has priority when the interpretation is valid.
		{"day first", "01/02/2025", date(2025, 2, 1)},
		{"day first with dashes", "01-02-2025", date(2025, 2, 1)},
		{"day first with dots", "01.02.2025", date(2025, 2, 1)},
		// Day over 12 forces the month-day-year reading.
		{"month day year", "01/13/2025", date(2025, 1, 13)},
		// A leading year only fits the year-month-day reading.
		{"year month day", "2025/01/02", date(2025, 1, 2)},
		{"iso dashes", "2025-01-02", date(2025, 1, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFlexibleDate(tt.input, testNow)
			if err != nil {
				t.Fatalf("ParseFlexibleDate(%q) error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseFlexibleDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFlexibleDateAbsoluteLayouts(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2025-01-02T15:04:05Z", time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)},
		{"Jan 2, 2025", date(2025, 1, 2)},
		{"January 2, 2025", date(2025, 1, 2)},
		{"2 Jan 2025", date(2025, 1, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFlexibleDate(tt.input, testNow)
			if err != nil {
				t.Fatalf("ParseFlexibleDate(%q) error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseFlexibleDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFlexibleDateRejectsInvalid(t *testing.T) {
	tests := []string{
		"",
		"not a date",
		"30/02/2025", // no reading names a real calendar date
		"99/99/9999",
		"5 fortnights ago",
		"1/2", // too few parts
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := ParseFlexibleDate(input, testNow)
			if err == nil {
				t.Fatalf("ParseFlexibleDate(%q) should fail", input)
			}
			if !errors.Is(err, errors.ErrCodeInvalidDate) {
				t.Errorf("error code = %q, want INVALID_DATE", errors.GetCode(err))
			}
		})
	}
}

func TestParseFlexibleDateNoFieldNormalization(t *testing.T) {
	// 31/04/2025 must not roll over to May 1: April has 30 days, and no
	// other reading fits either.
	if _, err := ParseFlexibleDate("31/04/2025", testNow); err == nil {
		t.Error("April 31 should not parse")
	}
}
