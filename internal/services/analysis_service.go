// Package services orchestrates the analysis engines behind the HTTP API:
// line-list assembly, epiweek calculation, incidence aggregation and
// transformation, and summary statistics.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"epidem/internal/config"
	"epidem/internal/dataset"
	"epidem/internal/epiweek"
	"epidem/internal/incidence"
	"epidem/internal/summary"
)

// ErrTooManyRows is returned when a request exceeds the configured
// line-list row cap.
var ErrTooManyRows = errors.New("line list exceeds the configured row limit")

// ErrTopKTooLarge is returned when a summary request exceeds the
// configured top-k cap.
var ErrTopKTooLarge = errors.New("top_k exceeds the configured limit")

// AnalysisService runs the analysis pipeline over request-supplied line
// lists. It is stateless; every call is independent.
type AnalysisService struct {
	logger *slog.Logger
	limits config.AnalysisConfig
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(limits config.AnalysisConfig, logger *slog.Logger) *AnalysisService {
	return &AnalysisService{
		logger: logger.With(slog.String("component", "analysis_service")),
		limits: limits,
	}
}

// EpiweekResult is the epiweek lookup response
type EpiweekResult struct {
	Date    string `json:"date"`
	EpiYear int    `json:"epi_year"`
	EpiWeek int    `json:"epi_week"`
}

// Epiweek computes the MMWR epidemiological week for a strict YYYY-MM-DD
// date string.
func (s *AnalysisService) Epiweek(ctx context.Context, date string) (*EpiweekResult, error) {
	year, week, err := epiweek.CalculateString(date)
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "epiweek computed",
		slog.String("date", date),
		slog.Int("epi_year", year),
		slog.Int("epi_week", week))

	return &EpiweekResult{Date: date, EpiYear: year, EpiWeek: week}, nil
}

// Incidence assembles a line list and runs the aggregate-then-transform
// pipeline. A nil transform skips the transform stage.
func (s *AnalysisService) Incidence(
	ctx context.Context,
	columns []string,
	rows []map[string]string,
	opts incidence.Options,
	transform *incidence.TransformOptions,
) ([]incidence.Record, error) {
	tbl, err := s.buildTable(columns, rows)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	records, err := incidence.Aggregate(ctx, tbl, opts)
	if err != nil {
		return nil, err
	}

	if transform != nil {
		records, err = incidence.Transform(records, *transform)
		if err != nil {
			return nil, err
		}
	}

	s.logger.InfoContext(ctx, "incidence pipeline complete",
		slog.Int("input_rows", len(rows)),
		slog.Int("records", len(records)),
		slog.Bool("transformed", transform != nil),
		slog.String("duration", time.Since(start).String()))

	return records, nil
}

// SummaryResult carries the summary in the requested shape: Long is always
// the canonical form; Wide is set only for wide output and is a pure
// reshape of Long.
type SummaryResult struct {
	Long []summary.Record
	Wide *summary.WideTable
}

// Summarize assembles a line list and computes descriptive statistics
func (s *AnalysisService) Summarize(
	ctx context.Context,
	columns []string,
	rows []map[string]string,
	opts summary.Options,
) (*SummaryResult, error) {
	if opts.TopK > s.limits.MaxTopK {
		return nil, fmt.Errorf("top_k %d: %w", opts.TopK, ErrTopKTooLarge)
	}

	tbl, err := s.buildTable(columns, rows)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	long, err := summary.Summarize(ctx, tbl, opts)
	if err != nil {
		return nil, err
	}

	result := &SummaryResult{Long: long}
	if opts.Output == summary.OutputWide {
		result.Wide = summary.Pivot(long, opts.By)
	}

	s.logger.InfoContext(ctx, "summary complete",
		slog.Int("input_rows", len(rows)),
		slog.Int("records", len(long)),
		slog.String("output", string(opts.Output)),
		slog.String("duration", time.Since(start).String()))

	return result, nil
}

func (s *AnalysisService) buildTable(columns []string, rows []map[string]string) (*dataset.Table, error) {
	if len(rows) > s.limits.MaxRows {
		return nil, fmt.Errorf("%d rows: %w", len(rows), ErrTooManyRows)
	}
	return dataset.FromRecords(columns, rows)
}
