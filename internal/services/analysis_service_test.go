package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epidem/internal/config"
	apierrors "epidem/internal/errors"
	"epidem/internal/incidence"
	"epidem/internal/summary"
	"epidem/pkg/contracts/domain"
)

func newTestService(limits config.AnalysisConfig) *AnalysisService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAnalysisService(limits, logger)
}

func defaultLimits() config.AnalysisConfig {
	return config.AnalysisConfig{MaxRows: 100, MaxTopK: 10}
}

func TestAnalysisService_Epiweek(t *testing.T) {
	svc := newTestService(defaultLimits())

	result, err := svc.Epiweek(context.Background(), "2023-12-31")
	require.NoError(t, err)
	assert.Equal(t, &EpiweekResult{Date: "2023-12-31", EpiYear: 2024, EpiWeek: 1}, result)
}

func TestAnalysisService_Epiweek_InvalidDate(t *testing.T) {
	svc := newTestService(defaultLimits())

	result, err := svc.Epiweek(context.Background(), "31/12/2023")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, apierrors.IsFormatError(err))
}

func TestAnalysisService_Incidence(t *testing.T) {
	svc := newTestService(defaultLimits())

	columns := []string{"onset_date", "sex"}
	rows := []map[string]string{
		{"onset_date": "2024-01-01", "sex": "M"},
		{"onset_date": "2024-01-02", "sex": "M"},
		{"onset_date": "2024-01-08", "sex": "M"},
	}

	records, err := svc.Incidence(context.Background(), columns, rows, incidence.Options{
		DateColumn: "onset_date",
		Freq:       incidence.FreqWeekly,
		By:         []string{"sex"},
		FillGaps:   true,
	}, nil)
	require.NoError(t, err)

	expected := []incidence.Record{
		{Stratum: domain.Stratum{"M"}, Period: incidence.WeeklyPeriod(2024, 1), Cases: 2},
		{Stratum: domain.Stratum{"M"}, Period: incidence.WeeklyPeriod(2024, 2), Cases: 1},
	}
	assert.Equal(t, expected, records)
}

func TestAnalysisService_Incidence_WithTransform(t *testing.T) {
	svc := newTestService(defaultLimits())

	columns := []string{"onset_date"}
	rows := []map[string]string{
		{"onset_date": "2024-01-01"},
		{"onset_date": "2024-01-08"},
		{"onset_date": "2024-01-08"},
	}

	records, err := svc.Incidence(context.Background(), columns, rows,
		incidence.Options{DateColumn: "onset_date", Freq: incidence.FreqWeekly},
		&incidence.TransformOptions{Cumulative: true})
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, 1.0, records[0].Cases)
	assert.Equal(t, 3.0, records[1].Cases)
}

func TestAnalysisService_Incidence_RowLimit(t *testing.T) {
	svc := newTestService(config.AnalysisConfig{MaxRows: 2, MaxTopK: 10})

	columns := []string{"onset_date"}
	rows := []map[string]string{
		{"onset_date": "2024-01-01"},
		{"onset_date": "2024-01-02"},
		{"onset_date": "2024-01-03"},
	}

	records, err := svc.Incidence(context.Background(), columns, rows,
		incidence.Options{DateColumn: "onset_date"}, nil)
	assert.Nil(t, records)
	assert.ErrorIs(t, err, ErrTooManyRows)
}

func TestAnalysisService_Summarize(t *testing.T) {
	svc := newTestService(defaultLimits())

	columns := []string{"sex", "age"}
	rows := []map[string]string{
		{"sex": "M", "age": "10"},
		{"sex": "M", "age": "20"},
		{"sex": "F", "age": "30"},
	}

	result, err := svc.Summarize(context.Background(), columns, rows, summary.Options{
		By:          []string{"sex"},
		NumericCols: []string{"age"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Long)
	assert.Nil(t, result.Wide)

	first := result.Long[0]
	assert.Equal(t, domain.Stratum{"F"}, first.Stratum)
	assert.Equal(t, "n", first.Metric)
	assert.Equal(t, "1", first.Value)
}

func TestAnalysisService_Summarize_WideOutput(t *testing.T) {
	svc := newTestService(defaultLimits())

	columns := []string{"age"}
	rows := []map[string]string{
		{"age": "10"},
		{"age": "20"},
	}

	result, err := svc.Summarize(context.Background(), columns, rows, summary.Options{
		NumericCols: []string{"age"},
		Output:      summary.OutputWide,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Wide)
	assert.NotEmpty(t, result.Wide.Rows)
	assert.Contains(t, result.Wide.MetricColumns, "mean")
}

func TestAnalysisService_Summarize_TopKLimit(t *testing.T) {
	svc := newTestService(config.AnalysisConfig{MaxRows: 100, MaxTopK: 5})

	result, err := svc.Summarize(context.Background(), []string{"sex"}, nil, summary.Options{
		CategoricalCols: []string{"sex"},
		TopK:            6,
	})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrTopKTooLarge)
}
