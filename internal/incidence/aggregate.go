package incidence

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"epidem/internal/dataset"
	"epidem/internal/epiweek"
	"epidem/internal/errors"
	"epidem/pkg/contracts/domain"
)

// Options configures an incidence aggregation
type Options struct {
	// DateColumn names the line-list column holding event dates
	DateColumn string
	// Freq selects daily or MMWR-weekly bucketing; defaults to FreqWeekly
	Freq Freq
	// By lists the stratification columns; empty means one stratum
	By []string
	// FillGaps inserts zero-count records for unobserved periods between
	// each stratum's own first and last observed period
	FillGaps bool
}

// Aggregate computes incidence counts from a line list.
//
// Rows whose date cell is missing or unparseable are excluded from the
// counts; they are missing data, not an error (use the summary engine's
// missingness metrics to quantify them). An unknown column reference or an
// invalid frequency aborts with a ConfigurationError and no partial output.
//
// The output is sorted by stratum, then by ascending period, with at most
// one record per (stratum, period) pair.
func Aggregate(ctx context.Context, tbl *dataset.Table, opts Options) ([]Record, error) {
	if opts.Freq == "" {
		opts.Freq = FreqWeekly
	}
	if !opts.Freq.Valid() {
		return nil, errors.NewConfigurationError("freq", "unknown frequency "+string(opts.Freq))
	}
	if opts.DateColumn == "" {
		return nil, errors.NewConfigurationError("date_column", "date column is required")
	}
	if !tbl.HasColumn(opts.DateColumn) {
		return nil, errors.UnknownColumnError("date_column", opts.DateColumn)
	}
	for _, col := range opts.By {
		if !tbl.HasColumn(col) {
			return nil, errors.UnknownColumnError("by", col)
		}
	}

	logger := slog.Default()

	type series struct {
		stratum domain.Stratum
		counts  map[Period]float64
	}
	byStratum := make(map[string]*series)

	skipped := 0
	for r := 0; r < tbl.NumRows(); r++ {
		raw, _ := tbl.Value(r, opts.DateColumn)
		d, err := epiweek.ParseDate(strings.TrimSpace(raw))
		if err != nil {
			skipped++
			continue
		}

		stratum := make(domain.Stratum, len(opts.By))
		for i, col := range opts.By {
			v, _ := tbl.Value(r, col)
			stratum[i] = strings.TrimSpace(v)
		}

		key := stratum.Key()
		s, ok := byStratum[key]
		if !ok {
			s = &series{stratum: stratum, counts: make(map[Period]float64)}
			byStratum[key] = s
		}
		s.counts[PeriodFor(d, opts.Freq)]++
	}

	if skipped > 0 {
		logger.WarnContext(ctx, "excluded rows with unparseable dates",
			slog.Int("skipped", skipped),
			slog.String("date_column", opts.DateColumn))
	}

	allSeries := make([]*series, 0, len(byStratum))
	for _, s := range byStratum {
		allSeries = append(allSeries, s)
	}
	sort.Slice(allSeries, func(i, j int) bool {
		return allSeries[i].stratum.Compare(allSeries[j].stratum) < 0
	})

	var out []Record
	for _, s := range allSeries {
		periods := make([]Period, 0, len(s.counts))
		for p := range s.counts {
			periods = append(periods, p)
		}
		sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })

		if opts.FillGaps && len(periods) > 0 {
			// Fill strictly within this stratum's own observed range; other
			// strata never widen it.
			out = append(out, fillSeries(s.stratum, periods, s.counts)...)
			continue
		}
		for _, p := range periods {
			out = append(out, Record{Stratum: s.stratum, Period: p, Cases: s.counts[p]})
		}
	}

	logger.InfoContext(ctx, "incidence aggregation complete",
		slog.String("freq", string(opts.Freq)),
		slog.Int("input_rows", tbl.NumRows()),
		slog.Int("strata", len(allSeries)),
		slog.Int("records", len(out)))

	return out, nil
}

// fillSeries walks from the stratum's first to last observed period,
// emitting zero-count records for every period with no events.
func fillSeries(stratum domain.Stratum, periods []Period, counts map[Period]float64) []Record {
	first, last := periods[0], periods[len(periods)-1]

	var out []Record
	for p := first; !last.Before(p); p = p.Next() {
		out = append(out, Record{Stratum: stratum, Period: p, Cases: counts[p]})
	}
	return out
}
