package summary

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"epidem/internal/dataset"
)

// numericMetricNames is the stable metric schema for numeric columns
var numericMetricNames = []string{"count", "mean", "std", "min", "p25", "median", "p75", "max"}

// numericMetrics reports missingness and distribution statistics over the
// non-missing values of a column. Unparseable cells count as missing. With
// no non-missing values every statistic is emitted as missing, keeping the
// schema stable.
func numericMetrics(tbl *dataset.Table, grp group, col string) []Record {
	var values []float64
	missing := 0
	for _, r := range grp.rows {
		raw, _ := tbl.Value(r, col)
		raw = strings.TrimSpace(raw)
		if raw == "" {
			missing++
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) {
			missing++
			continue
		}
		values = append(values, v)
	}

	records := missingness(grp.stratum, col, missing, len(grp.rows))

	if len(values) == 0 {
		for _, metric := range numericMetricNames {
			records = append(records, Record{Stratum: grp.stratum, Column: col, Metric: metric, Value: ""})
		}
		return records
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	std := ""
	if len(values) >= 2 {
		std = formatFloat(round4(sampleStd(values)))
	}

	records = append(records,
		Record{Stratum: grp.stratum, Column: col, Metric: "count", Value: strconv.Itoa(len(values))},
		Record{Stratum: grp.stratum, Column: col, Metric: "mean", Value: formatFloat(round4(mean(values)))},
		Record{Stratum: grp.stratum, Column: col, Metric: "std", Value: std},
		Record{Stratum: grp.stratum, Column: col, Metric: "min", Value: formatFloat(sorted[0])},
		Record{Stratum: grp.stratum, Column: col, Metric: "p25", Value: formatFloat(percentile(sorted, 0.25))},
		Record{Stratum: grp.stratum, Column: col, Metric: "median", Value: formatFloat(percentile(sorted, 0.5))},
		Record{Stratum: grp.stratum, Column: col, Metric: "p75", Value: formatFloat(percentile(sorted, 0.75))},
		Record{Stratum: grp.stratum, Column: col, Metric: "max", Value: formatFloat(sorted[len(sorted)-1])},
	)
	return records
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStd is the sample standard deviation (n-1 divisor).
// Callers guarantee len(values) >= 2.
func sampleStd(values []float64) float64 {
	m := mean(values)
	ss := 0.0
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

// percentile computes the q-th quantile of pre-sorted values using linear
// interpolation between closest ranks.
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	frac := pos - float64(lo)
	if lo+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// formatFloat renders a float with the shortest representation that
// round-trips, so "1" stays "1" and "33.33" stays "33.33".
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
