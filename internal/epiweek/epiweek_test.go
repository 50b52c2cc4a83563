package epiweek

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "epidem/internal/errors"
)

func TestParseDate(t *testing.T) {
	t.Run("valid dates", func(t *testing.T) {
		tests := []struct {
			value string
			want  time.Time
		}{
			{"2024-01-01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
			{"2023-12-31", time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)},
			{"2024-02-29", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)}, // leap day
		}

		for _, tt := range tests {
			t.Run(tt.value, func(t *testing.T) {
				got, err := ParseDate(tt.value)
				require.NoError(t, err)
				assert.True(t, got.Equal(tt.want))
			})
		}
	})

	t.Run("invalid dates", func(t *testing.T) {
		values := []string{
			"",
			"2024/01/01",
			"2024-1-1",    // missing zero padding
			"24-01-01",    // two-digit year
			"2024-01-01 ", // trailing character
			"2024-13-01",  // month out of range
			"2023-02-29",  // not a leap year
			"2024-04-31",  // day out of range
			"not-a-date",
		}

		for _, value := range values {
			t.Run(value, func(t *testing.T) {
				_, err := ParseDate(value)
				require.Error(t, err)
				assert.True(t, apperrors.IsFormatError(err))
				assert.Contains(t, err.Error(), "YYYY-MM-DD")
			})
		}
	})
}

func TestWeek1Start(t *testing.T) {
	tests := []struct {
		year int
		want time.Time
	}{
		// Jan 4, 2024 is a Thursday; week 1 starts the preceding Sunday,
		// which is still in calendar 2023.
		{2024, time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)},
		// Jan 4, 2021 is a Monday.
		{2021, time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC)},
		// Jan 4, 2015 is a Sunday itself.
		{2015, time.Date(2015, 1, 4, 0, 0, 0, 0, time.UTC)},
		// Jan 4, 2022 is a Tuesday.
		{2022, time.Date(2022, 1, 2, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got := Week1Start(tt.year)
		assert.True(t, got.Equal(tt.want), "Week1Start(%d) = %s, want %s", tt.year, got, tt.want)
		assert.Equal(t, time.Sunday, got.Weekday())
	}
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		date     string
		wantYear int
		wantWeek int
	}{
		// Year-boundary cases: calendar year != epi year.
		{"2023-12-31", 2024, 1},
		{"2024-01-04", 2024, 1},
		{"2022-01-01", 2021, 52},
		{"2024-01-06", 2024, 1},
		{"2024-01-07", 2024, 2},
		// Mid-year sanity checks.
		{"2024-06-15", 2024, 24},
		{"2023-07-04", 2023, 27},
		// Week 53 occurs in years whose epi year spans 371 days.
		{"2026-01-02", 2025, 53},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			d, err := ParseDate(tt.date)
			require.NoError(t, err)

			year, week := Calculate(d)
			assert.Equal(t, tt.wantYear, year)
			assert.Equal(t, tt.wantWeek, week)
		})
	}
}

// TestCalculateProperties sweeps a decade of dates and checks the structural
// invariants of the mapping: week in [1, 53], never 0, and the returned epi
// year bounds the date between its week-1 starts.
func TestCalculateProperties(t *testing.T) {
	d := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2028, 1, 1, 0, 0, 0, 0, time.UTC)

	prevYear, prevWeek := Calculate(d)
	for d.Before(end) {
		year, week := Calculate(d)

		require.GreaterOrEqual(t, week, 1, "date %s", d)
		require.LessOrEqual(t, week, 53, "date %s", d)

		start := Week1Start(year)
		next := Week1Start(year + 1)
		require.False(t, d.Before(start), "date %s before week1Start(%d)", d, year)
		require.True(t, d.Before(next), "date %s not before week1Start(%d)", d, year+1)

		// Monotonic: later dates never map to earlier periods.
		require.False(t, year < prevYear || (year == prevYear && week < prevWeek),
			"mapping went backwards at %s", d)

		prevYear, prevWeek = year, week
		d = d.AddDate(0, 0, 1)
	}
}

func TestWeekStart(t *testing.T) {
	// WeekStart must invert Calculate for the first day of every week.
	d, err := ParseDate("2023-12-31")
	require.NoError(t, err)

	year, week := Calculate(d)
	assert.True(t, WeekStart(year, week).Equal(d))

	assert.True(t, WeekStart(2024, 2).Equal(time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)))
}

func TestCalculateString(t *testing.T) {
	year, week, err := CalculateString("2023-12-31")
	require.NoError(t, err)
	assert.Equal(t, 2024, year)
	assert.Equal(t, 1, week)

	_, _, err = CalculateString("31-12-2023")
	require.Error(t, err)
	assert.True(t, apperrors.IsFormatError(err))
}
