// Package exporter renders analysis results as CSV for download. Column
// order mirrors the JSON responses: grouping columns first, then the
// period or metric fields.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"epidem/internal/epiweek"
	"epidem/internal/incidence"
	"epidem/internal/summary"
)

// WriteIncidenceCSV writes an incidence series as CSV. The by slice names
// the grouping columns in stratum order; freq selects the period columns.
func WriteIncidenceCSV(w io.Writer, records []incidence.Record, by []string, freq incidence.Freq) error {
	cw := csv.NewWriter(w)

	header := append([]string{}, by...)
	if freq == incidence.FreqDaily {
		header = append(header, "date")
	} else {
		header = append(header, "epi_year", "epi_week")
	}
	header = append(header, "cases")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, rec := range records {
		row := append([]string{}, rec.Stratum...)
		if freq == incidence.FreqDaily {
			row = append(row, rec.Period.Date.Format(epiweek.DateFormat))
		} else {
			row = append(row, strconv.Itoa(rec.Period.EpiYear), strconv.Itoa(rec.Period.EpiWeek))
		}
		row = append(row, strconv.FormatFloat(rec.Cases, 'g', -1, 64))
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSummaryLongCSV writes long-form summary records as CSV
func WriteSummaryLongCSV(w io.Writer, records []summary.Record, by []string) error {
	cw := csv.NewWriter(w)

	header := append(append([]string{}, by...), "column", "metric", "value")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, rec := range records {
		row := append(append([]string{}, rec.Stratum...), rec.Column, rec.Metric, rec.Value)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSummaryWideCSV writes a pivoted summary table as CSV. Metrics absent
// from a row are written as empty cells so the output stays rectangular.
func WriteSummaryWideCSV(w io.Writer, table *summary.WideTable) error {
	cw := csv.NewWriter(w)

	header := append(append([]string{}, table.By...), "column")
	header = append(header, table.MetricColumns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, wr := range table.Rows {
		row := append(append([]string{}, wr.Stratum...), wr.Column)
		for _, metric := range table.MetricColumns {
			row = append(row, wr.Metrics[metric])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
