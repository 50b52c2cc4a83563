package incidence

import (
	"epidem/internal/errors"
)

// RollingKind selects the rolling-window aggregation
type RollingKind string

const (
	// RollingSum sums the counts inside the window
	RollingSum RollingKind = "sum"
	// RollingMean averages the counts inside the window
	RollingMean RollingKind = "mean"
)

// TransformOptions configures the time-series transforms applied to an
// aggregated incidence series.
type TransformOptions struct {
	// Rolling is the trailing window size; 0 disables the rolling transform
	Rolling int
	// RollingKind selects sum or mean; defaults to RollingSum
	RollingKind RollingKind
	// Cumulative applies a running total per stratum
	Cumulative bool
}

// Transform applies rolling-window and cumulative transforms to aggregated
// incidence records, independently per stratum: no window or running total
// crosses a stratum boundary.
//
// Records must already be ordered by period within each stratum, as
// Aggregate produces them; Transform treats the existing order as the time
// axis and never re-sorts. The rolling window is trailing and includes
// partial windows at the start of each stratum (no padding), so a
// rolling sum with window 1 returns the series unchanged. When rolling and
// cumulative are both requested, rolling is applied first and the running
// total accumulates the rolled values.
func Transform(records []Record, opts TransformOptions) ([]Record, error) {
	if opts.Rolling < 0 {
		return nil, errors.NewConfigurationError("rolling", "window size must be non-negative")
	}
	if opts.RollingKind == "" {
		opts.RollingKind = RollingSum
	}
	if opts.RollingKind != RollingSum && opts.RollingKind != RollingMean {
		return nil, errors.NewConfigurationError("rolling_kind", "unknown rolling kind "+string(opts.RollingKind))
	}

	out := make([]Record, len(records))
	copy(out, records)

	if opts.Rolling == 0 && !opts.Cumulative {
		return out, nil
	}

	for _, idx := range partitionByStratum(out) {
		if opts.Rolling > 0 {
			applyRolling(out, idx, opts.Rolling, opts.RollingKind)
		}
		if opts.Cumulative {
			applyCumulative(out, idx)
		}
	}

	return out, nil
}

// partitionByStratum groups record indexes by stratum, in order of first
// appearance. Within a group, input order is preserved.
func partitionByStratum(records []Record) [][]int {
	var order []string
	groups := make(map[string][]int)
	for i, rec := range records {
		key := rec.Stratum.Key()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	out := make([][]int, len(order))
	for i, key := range order {
		out[i] = groups[key]
	}
	return out
}

func applyRolling(records []Record, idx []int, window int, kind RollingKind) {
	values := make([]float64, len(idx))
	for i, j := range idx {
		values[i] = records[j].Cases
	}

	for i, j := range idx {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		sum := 0.0
		for _, v := range values[lo : i+1] {
			sum += v
		}
		if kind == RollingMean {
			records[j].Cases = sum / float64(i+1-lo)
		} else {
			records[j].Cases = sum
		}
	}
}

func applyCumulative(records []Record, idx []int) {
	total := 0.0
	for _, j := range idx {
		total += records[j].Cases
		records[j].Cases = total
	}
}
