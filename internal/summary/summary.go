// Package summary computes per-group descriptive statistics over a line
// list: group sizes, per-column missingness, date ranges, numeric
// distribution statistics and deterministic top-k categorical rankings.
//
// The canonical output is long (tidy) form, one record per
// (stratum, column, metric) with at most one record per tuple; Pivot
// reshapes it to wide form without recomputing anything.
//
// Documented statistical conventions:
//   - std is the sample standard deviation (n-1 divisor); it is reported
//     as missing for groups with fewer than two non-missing values.
//   - Percentiles use linear interpolation between closest ranks.
//   - missing_pct is a percentage rounded to two decimals, 0 when n is 0.
//   - mean and std are rounded to four decimals.
package summary

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"epidem/internal/dataset"
	"epidem/internal/epiweek"
	"epidem/internal/errors"
	"epidem/pkg/contracts/domain"
)

// MissingToken is the stable stand-in for missing categorical values.
// It participates in top-k ranking like any other value.
const MissingToken = "<NA>"

// sizeColumn is the pseudo-column carrying the group-size metric
const sizeColumn = "_n"

// Output selects the result shape
type Output string

const (
	// OutputLong is the canonical tidy form: one row per metric observation
	OutputLong Output = "long"
	// OutputWide pivots metrics into named columns
	OutputWide Output = "wide"
)

// Valid reports whether the output shape is recognized
func (o Output) Valid() bool {
	return o == OutputLong || o == OutputWide
}

// Options configures a summary computation. The defaults are deliberately
// conservative: with all three column lists empty, only the group-size
// metric n is emitted per stratum. No column is ever auto-inferred.
type Options struct {
	// By lists the grouping columns; empty means the whole input is one group
	By []string
	// DateCols are summarized with missingness and min/max after lenient parsing
	DateCols []string
	// NumericCols are summarized with missingness and distribution statistics
	NumericCols []string
	// CategoricalCols are summarized with missingness and top-k rankings
	CategoricalCols []string
	// TopK is the number of top categories to report; defaults to 3
	TopK int
	// Output selects long or wide shaping; defaults to OutputLong
	Output Output
}

// Record is one long-form summary observation. Values are strings so the
// schema stays stable across metric types; a missing result is the empty
// string.
type Record struct {
	Stratum domain.Stratum
	Column  string
	Metric  string
	Value   string
}

// Summarize computes descriptive statistics per stratum, returning the
// canonical long form sorted by stratum. A name in any column list that
// does not exist in the input fails with a ConfigurationError before any
// computation begins. Strata are computed concurrently; they are
// independent by construction and the output order is deterministic.
func Summarize(ctx context.Context, tbl *dataset.Table, opts Options) ([]Record, error) {
	if opts.TopK == 0 {
		opts.TopK = 3
	}
	if opts.Output == "" {
		opts.Output = OutputLong
	}

	if err := validate(tbl, opts); err != nil {
		return nil, err
	}

	groups := partition(tbl, opts.By)

	results := make([][]Record, len(groups))
	g, _ := errgroup.WithContext(ctx)
	for i := range groups {
		i := i
		g.Go(func() error {
			results[i] = summarizeGroup(tbl, groups[i], opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Record
	for _, recs := range results {
		out = append(out, recs...)
	}
	return out, nil
}

func validate(tbl *dataset.Table, opts Options) error {
	if opts.TopK < 1 {
		return errors.NewConfigurationError("top_k", "must be at least 1")
	}
	if !opts.Output.Valid() {
		return errors.NewConfigurationError("output", "unknown output shape "+string(opts.Output))
	}
	lists := []struct {
		field   string
		columns []string
	}{
		{"by", opts.By},
		{"date_cols", opts.DateCols},
		{"numeric_cols", opts.NumericCols},
		{"categorical_cols", opts.CategoricalCols},
	}
	for _, list := range lists {
		for _, col := range list.columns {
			if !tbl.HasColumn(col) {
				return errors.UnknownColumnError(list.field, col)
			}
		}
	}
	return nil
}

// group is one stratum and the input rows belonging to it
type group struct {
	stratum domain.Stratum
	rows    []int
}

// partition splits row indexes by stratum, sorted by stratum. With no
// grouping columns the whole input forms a single unnamed stratum.
func partition(tbl *dataset.Table, by []string) []group {
	if len(by) == 0 {
		rows := make([]int, tbl.NumRows())
		for i := range rows {
			rows[i] = i
		}
		return []group{{stratum: domain.Stratum{}, rows: rows}}
	}

	index := make(map[string]*group)
	for r := 0; r < tbl.NumRows(); r++ {
		stratum := make(domain.Stratum, len(by))
		for i, col := range by {
			v, _ := tbl.Value(r, col)
			stratum[i] = strings.TrimSpace(v)
		}
		key := stratum.Key()
		grp, ok := index[key]
		if !ok {
			grp = &group{stratum: stratum}
			index[key] = grp
		}
		grp.rows = append(grp.rows, r)
	}

	out := make([]group, 0, len(index))
	for _, grp := range index {
		out = append(out, *grp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].stratum.Compare(out[j].stratum) < 0
	})
	return out
}

func summarizeGroup(tbl *dataset.Table, grp group, opts Options) []Record {
	n := len(grp.rows)

	records := []Record{{
		Stratum: grp.stratum,
		Column:  sizeColumn,
		Metric:  "n",
		Value:   strconv.Itoa(n),
	}}

	for _, col := range opts.DateCols {
		records = append(records, dateMetrics(tbl, grp, col)...)
	}
	for _, col := range opts.NumericCols {
		records = append(records, numericMetrics(tbl, grp, col)...)
	}
	for _, col := range opts.CategoricalCols {
		records = append(records, categoricalMetrics(tbl, grp, col, opts.TopK)...)
	}

	return records
}

// dateMetrics reports missingness and the min/max of leniently parsed
// dates. Values that fail to parse count as missing and are excluded from
// min/max; when every value is missing, min and max are missing too.
func dateMetrics(tbl *dataset.Table, grp group, col string) []Record {
	missing := 0
	var lo, hi string
	for _, r := range grp.rows {
		raw, _ := tbl.Value(r, col)
		d, err := epiweek.ParseDate(strings.TrimSpace(raw))
		if err != nil {
			missing++
			continue
		}
		v := d.Format(epiweek.DateFormat)
		if lo == "" || v < lo {
			lo = v
		}
		if hi == "" || v > hi {
			hi = v
		}
	}

	return append(
		missingness(grp.stratum, col, missing, len(grp.rows)),
		Record{Stratum: grp.stratum, Column: col, Metric: "min", Value: lo},
		Record{Stratum: grp.stratum, Column: col, Metric: "max", Value: hi},
	)
}

// categoricalMetrics ranks distinct values (missing included under
// MissingToken) by descending count, breaking ties by ascending string
// value. Slots past the number of distinct values are emitted as missing
// so the schema stays stable across groups.
func categoricalMetrics(tbl *dataset.Table, grp group, col string, topK int) []Record {
	missing := 0
	counts := make(map[string]int)
	for _, r := range grp.rows {
		raw, _ := tbl.Value(r, col)
		v := strings.TrimSpace(raw)
		if v == "" {
			missing++
			v = MissingToken
		}
		counts[v]++
	}

	type entry struct {
		value string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for v, c := range counts {
		entries = append(entries, entry{v, c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].value < entries[j].value
	})

	records := missingness(grp.stratum, col, missing, len(grp.rows))
	for rank := 1; rank <= topK; rank++ {
		var value, count string
		if rank <= len(entries) {
			value = entries[rank-1].value
			count = strconv.Itoa(entries[rank-1].count)
		}
		records = append(records,
			Record{Stratum: grp.stratum, Column: col, Metric: "top_" + strconv.Itoa(rank), Value: value},
			Record{Stratum: grp.stratum, Column: col, Metric: "top_" + strconv.Itoa(rank) + "_n", Value: count},
		)
	}
	return records
}

func missingness(stratum domain.Stratum, col string, missing, n int) []Record {
	pct := 0.0
	if n > 0 {
		pct = round2(float64(missing) / float64(n) * 100)
	}
	return []Record{
		{Stratum: stratum, Column: col, Metric: "missing_n", Value: strconv.Itoa(missing)},
		{Stratum: stratum, Column: col, Metric: "missing_pct", Value: formatFloat(pct)},
	}
}
