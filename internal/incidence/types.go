// Package incidence aggregates line-list events into per-period,
// per-stratum counts and applies time-series transforms to the result.
//
// The package is split into two stages, each pure and independently
// testable:
//
//   - Aggregate buckets events into daily or MMWR-weekly periods per
//     stratum, optionally gap-filling zero-count periods inside each
//     stratum's own observed range.
//   - Transform applies rolling-window and cumulative transforms to
//     already-aggregated records, independently per stratum.
package incidence

import (
	"time"

	"epidem/internal/epiweek"
	"epidem/pkg/contracts/domain"
)

// Freq selects the time bucketing of the incidence series
type Freq string

const (
	// FreqDaily buckets events by calendar date
	FreqDaily Freq = "D"
	// FreqWeekly buckets events by CDC/MMWR epidemiological week
	FreqWeekly Freq = "W-MMWR"
)

// Valid reports whether the frequency is a recognized value
func (f Freq) Valid() bool {
	return f == FreqDaily || f == FreqWeekly
}

// Period identifies one time bucket of an incidence series. For FreqDaily
// the bucket is the calendar date; for FreqWeekly it is the
// (epi year, epi week) pair. Every calendar date maps to exactly one
// period under a given frequency, and the mapping is monotonic.
type Period struct {
	Freq    Freq
	Date    time.Time // set for FreqDaily
	EpiYear int       // set for FreqWeekly
	EpiWeek int
}

// DailyPeriod creates the period containing the given date under daily
// bucketing.
func DailyPeriod(d time.Time) Period {
	return Period{Freq: FreqDaily, Date: d}
}

// WeeklyPeriod creates the period for an MMWR epidemiological week
func WeeklyPeriod(epiYear, epiWeek int) Period {
	return Period{Freq: FreqWeekly, EpiYear: epiYear, EpiWeek: epiWeek}
}

// PeriodFor maps a date to its period under the given frequency
func PeriodFor(d time.Time, freq Freq) Period {
	if freq == FreqWeekly {
		year, week := epiweek.Calculate(d)
		return WeeklyPeriod(year, week)
	}
	return DailyPeriod(d)
}

// Before orders periods of the same frequency in time
func (p Period) Before(other Period) bool {
	if p.Freq == FreqWeekly {
		if p.EpiYear != other.EpiYear {
			return p.EpiYear < other.EpiYear
		}
		return p.EpiWeek < other.EpiWeek
	}
	return p.Date.Before(other.Date)
}

// Next returns the immediately following period
func (p Period) Next() Period {
	if p.Freq == FreqWeekly {
		start := epiweek.WeekStart(p.EpiYear, p.EpiWeek).AddDate(0, 0, 7)
		year, week := epiweek.Calculate(start)
		return WeeklyPeriod(year, week)
	}
	return DailyPeriod(p.Date.AddDate(0, 0, 1))
}

// Record is one aggregated incidence observation: the number of events
// observed for a stratum in a period. Aggregate produces whole-number
// counts; a rolling-mean transform introduces fractional values, so the
// count is carried as a float64.
type Record struct {
	Stratum domain.Stratum
	Period  Period
	Cases   float64
}
