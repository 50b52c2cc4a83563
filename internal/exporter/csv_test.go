package exporter

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epidem/internal/incidence"
	"epidem/internal/summary"
	"epidem/pkg/contracts/domain"
)

func TestWriteIncidenceCSV_Weekly(t *testing.T) {
	records := []incidence.Record{
		{Stratum: domain.Stratum{"F"}, Period: incidence.WeeklyPeriod(2024, 1), Cases: 2},
		{Stratum: domain.Stratum{"M"}, Period: incidence.WeeklyPeriod(2024, 2), Cases: 1.5},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteIncidenceCSV(&buf, records, []string{"sex"}, incidence.FreqWeekly))

	expected := "sex,epi_year,epi_week,cases\n" +
		"F,2024,1,2\n" +
		"M,2024,2,1.5\n"
	assert.Equal(t, expected, buf.String())
}

func TestWriteIncidenceCSV_Daily(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	records := []incidence.Record{
		{Stratum: domain.Stratum{}, Period: incidence.DailyPeriod(day), Cases: 3},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteIncidenceCSV(&buf, records, nil, incidence.FreqDaily))

	assert.Equal(t, "date,cases\n2024-03-01,3\n", buf.String())
}

func TestWriteSummaryLongCSV(t *testing.T) {
	records := []summary.Record{
		{Stratum: domain.Stratum{"M"}, Column: "_n", Metric: "n", Value: "2"},
		{Stratum: domain.Stratum{"M"}, Column: "age", Metric: "mean", Value: "15"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSummaryLongCSV(&buf, records, []string{"sex"}))

	expected := "sex,column,metric,value\n" +
		"M,_n,n,2\n" +
		"M,age,mean,15\n"
	assert.Equal(t, expected, buf.String())
}

func TestWriteSummaryWideCSV(t *testing.T) {
	records := []summary.Record{
		{Stratum: domain.Stratum{"M"}, Column: "age", Metric: "n", Value: "2"},
		{Stratum: domain.Stratum{"M"}, Column: "age", Metric: "mean", Value: "15"},
		{Stratum: domain.Stratum{"F"}, Column: "age", Metric: "n", Value: "1"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSummaryWideCSV(&buf, summary.Pivot(records, []string{"sex"})))

	expected := "sex,column,mean,n\n" +
		"M,age,15,2\n" +
		"F,age,,1\n"
	assert.Equal(t, expected, buf.String())
}
