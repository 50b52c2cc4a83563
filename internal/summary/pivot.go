package summary

import (
	"sort"

	"epidem/pkg/contracts/domain"
)

// WideRow is one pivoted summary row, keyed by (stratum, column)
type WideRow struct {
	Stratum domain.Stratum
	Column  string
	Metrics map[string]string
}

// WideTable is the pivoted form of a long summary: metrics become named
// columns, rows are keyed by stratum plus source column.
type WideTable struct {
	// By names the grouping columns the strata were built from
	By []string
	// MetricColumns lists the metric column names in ascending order;
	// the set is the union across all rows so the schema is rectangular
	MetricColumns []string
	Rows          []WideRow
}

// Pivot reshapes long summary records into wide form. It is a pure
// reshape: every (stratum, column, metric, value) tuple of the input is
// placed, none recomputed, none dropped.
func Pivot(records []Record, by []string) *WideTable {
	metricSet := make(map[string]struct{})
	index := make(map[string]*WideRow)
	var order []string

	for _, rec := range records {
		metricSet[rec.Metric] = struct{}{}

		key := rec.Stratum.Key() + "\x1e" + rec.Column
		row, ok := index[key]
		if !ok {
			row = &WideRow{
				Stratum: rec.Stratum.Clone(),
				Column:  rec.Column,
				Metrics: make(map[string]string),
			}
			index[key] = row
			order = append(order, key)
		}
		row.Metrics[rec.Metric] = rec.Value
	}

	metrics := make([]string, 0, len(metricSet))
	for m := range metricSet {
		metrics = append(metrics, m)
	}
	sort.Strings(metrics)

	rows := make([]WideRow, 0, len(order))
	for _, key := range order {
		rows = append(rows, *index[key])
	}

	return &WideTable{By: by, MetricColumns: metrics, Rows: rows}
}

// Unpivot restores the long form from a wide table. Pivot followed by
// Unpivot recovers exactly the original set of
// (stratum, column, metric, value) tuples.
func (w *WideTable) Unpivot() []Record {
	var out []Record
	for _, row := range w.Rows {
		for _, metric := range w.MetricColumns {
			value, ok := row.Metrics[metric]
			if !ok {
				continue
			}
			out = append(out, Record{
				Stratum: row.Stratum,
				Column:  row.Column,
				Metric:  metric,
				Value:   value,
			})
		}
	}
	return out
}
