// Package epiweek implements the CDC/MMWR epidemiological week calendar.
//
// MMWR weeks start on Sunday, and week 1 of a year is the week containing
// January 4 of that year. The epidemiological year is therefore not always
// the calendar year of a date: 2023-12-31 is the first day of 2024 week 1,
// and 2022-01-01 falls in 2021 week 52.
package epiweek

import (
	"regexp"
	"time"

	"epidem/internal/errors"
)

// DateFormat is the only accepted date string layout
const DateFormat = "2006-01-02"

// daysPerWeek is fixed by the MMWR definition
const daysPerWeek = 7

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseDate parses a strict YYYY-MM-DD string into a UTC calendar date.
// Missing zero-padding, extra characters, and out-of-range month or day
// values are rejected with a FormatError; nothing is coerced.
func ParseDate(value string) (time.Time, error) {
	if !datePattern.MatchString(value) {
		return time.Time{}, errors.NewFormatError(value)
	}
	d, err := time.ParseInLocation(DateFormat, value, time.UTC)
	if err != nil {
		return time.Time{}, errors.NewFormatError(value)
	}
	return d, nil
}

// Week1Start returns the start date (a Sunday) of MMWR week 1 for the given
// calendar year: the Sunday on or before January 4.
func Week1Start(year int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	// time.Weekday counts Sunday as 0, so the offset back to Sunday is the
	// weekday value itself.
	return jan4.AddDate(0, 0, -int(jan4.Weekday()))
}

// WeekStart returns the start date (a Sunday) of the given epidemiological
// week. The week number is not range-checked; callers pass values produced
// by Calculate.
func WeekStart(epiYear, epiWeek int) time.Time {
	return Week1Start(epiYear).AddDate(0, 0, (epiWeek-1)*daysPerWeek)
}

// Calculate returns the MMWR epidemiological year and week for a date.
//
// The epidemiological year Y is the unique year satisfying
// Week1Start(Y) <= d < Week1Start(Y+1); the week number is
// floor(days-since-week-1-start / 7) + 1 and is always in [1, 53].
// There is no week 0.
func Calculate(d time.Time) (epiYear, epiWeek int) {
	d = truncateToDay(d)

	year := d.Year()
	start := Week1Start(year)
	next := Week1Start(year + 1)

	switch {
	case d.Before(start):
		// Early January before the Sunday that starts week 1: the date still
		// belongs to the previous epidemiological year.
		year--
		start = Week1Start(year)
	case !d.Before(next):
		// Late December on or after next year's week 1 start.
		year++
		start = next
	}

	days := int(d.Sub(start).Hours() / 24)
	return year, days/daysPerWeek + 1
}

// CalculateString parses a strict YYYY-MM-DD string and returns its MMWR
// epidemiological year and week.
func CalculateString(value string) (epiYear, epiWeek int, err error) {
	d, err := ParseDate(value)
	if err != nil {
		return 0, 0, err
	}
	epiYear, epiWeek = Calculate(d)
	return epiYear, epiWeek, nil
}

func truncateToDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
