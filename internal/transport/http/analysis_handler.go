// Package http implements the HTTP handlers for the epidemd API. Handlers
// stay thin: they parse and validate requests, delegate to the analysis
// service, and translate errors into RFC 7807 responses.
package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"epidem/internal/epiweek"
	apierrors "epidem/internal/errors"
	"epidem/internal/exporter"
	"epidem/internal/incidence"
	"epidem/internal/services"
	"epidem/internal/summary"
)

// AnalysisHandler handles epiweek and analysis requests
type AnalysisHandler struct {
	service      *services.AnalysisService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service *services.AnalysisService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalysisHandler {
	v := validator.New()

	// Report validation failures under the JSON field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &AnalysisHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "analysis_handler")),
		errorHandler: errorHandler,
		validate:     v,
	}
}

// Routes returns the analysis routes
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/epiweek", h.GetEpiweek)

	r.Route("/analysis", func(r chi.Router) {
		r.Post("/incidence", h.ComputeIncidence)
		r.Post("/summary", h.ComputeSummary)
	})

	return r
}

// GetEpiweek handles GET /api/epiweek?date=YYYY-MM-DD
func (h *AnalysisHandler) GetEpiweek(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("date", "date query parameter is required"))
		return
	}

	result, err := h.service.Epiweek(r.Context(), date)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

// transformSpec selects the optional post-aggregation transforms
type transformSpec struct {
	Rolling     int    `json:"rolling" validate:"gte=0"`
	RollingKind string `json:"rolling_kind" validate:"omitempty,oneof=sum mean"`
	Cumulative  bool   `json:"cumulative"`
}

// incidenceRequest is the body of POST /api/analysis/incidence
type incidenceRequest struct {
	Columns    []string            `json:"columns" validate:"required,min=1"`
	Rows       []map[string]string `json:"rows"`
	DateColumn string              `json:"date_col" validate:"required"`
	Freq       string              `json:"freq" validate:"omitempty,oneof=D W-MMWR"`
	By         []string            `json:"by"`
	FillGaps   bool                `json:"fill_gaps"`
	Transform  *transformSpec      `json:"transform"`
}

// ComputeIncidence handles POST /api/analysis/incidence
func (h *AnalysisHandler) ComputeIncidence(w http.ResponseWriter, r *http.Request) {
	var req incidenceRequest
	if !h.bind(w, r, &req) {
		return
	}

	opts := incidence.Options{
		DateColumn: req.DateColumn,
		Freq:       incidence.Freq(req.Freq),
		By:         req.By,
		FillGaps:   req.FillGaps,
	}

	var transform *incidence.TransformOptions
	if req.Transform != nil {
		transform = &incidence.TransformOptions{
			Rolling:     req.Transform.Rolling,
			RollingKind: incidence.RollingKind(req.Transform.RollingKind),
			Cumulative:  req.Transform.Cumulative,
		}
	}

	records, err := h.service.Incidence(r.Context(), req.Columns, req.Rows, opts, transform)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	freq := opts.Freq
	if freq == "" {
		freq = incidence.FreqWeekly
	}

	if wantsCSV(r) {
		w.Header().Set("Content-Type", "text/csv")
		if err := exporter.WriteIncidenceCSV(w, records, req.By, freq); err != nil {
			h.logger.ErrorContext(r.Context(), "csv export failed", slog.String("error", err.Error()))
		}
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":  "success",
		"freq":    string(freq),
		"columns": incidenceColumns(req.By, freq),
		"data":    incidenceRows(records, req.By),
		"count":   len(records),
	})
}

// summaryRequest is the body of POST /api/analysis/summary
type summaryRequest struct {
	Columns         []string            `json:"columns" validate:"required,min=1"`
	Rows            []map[string]string `json:"rows"`
	By              []string            `json:"by"`
	DateCols        []string            `json:"date_cols"`
	NumericCols     []string            `json:"numeric_cols"`
	CategoricalCols []string            `json:"categorical_cols"`
	TopK            int                 `json:"top_k" validate:"gte=0"`
	Output          string              `json:"output" validate:"omitempty,oneof=long wide"`
}

// ComputeSummary handles POST /api/analysis/summary
func (h *AnalysisHandler) ComputeSummary(w http.ResponseWriter, r *http.Request) {
	var req summaryRequest
	if !h.bind(w, r, &req) {
		return
	}

	opts := summary.Options{
		By:              req.By,
		DateCols:        req.DateCols,
		NumericCols:     req.NumericCols,
		CategoricalCols: req.CategoricalCols,
		TopK:            req.TopK,
		Output:          summary.Output(req.Output),
	}

	result, err := h.service.Summarize(r.Context(), req.Columns, req.Rows, opts)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if wantsCSV(r) {
		w.Header().Set("Content-Type", "text/csv")
		var exportErr error
		if result.Wide != nil {
			exportErr = exporter.WriteSummaryWideCSV(w, result.Wide)
		} else {
			exportErr = exporter.WriteSummaryLongCSV(w, result.Long, req.By)
		}
		if exportErr != nil {
			h.logger.ErrorContext(r.Context(), "csv export failed", slog.String("error", exportErr.Error()))
		}
		return
	}

	if result.Wide != nil {
		render.JSON(w, r, map[string]interface{}{
			"status":         "success",
			"output":         string(summary.OutputWide),
			"metric_columns": result.Wide.MetricColumns,
			"data":           wideRows(result.Wide),
			"count":          len(result.Wide.Rows),
		})
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"output": string(summary.OutputLong),
		"data":   longRows(result.Long, req.By),
		"count":  len(result.Long),
	})
}

// bind decodes and validates a JSON request body. On failure it writes
// the error response and returns false.
func (h *AnalysisHandler) bind(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := render.DecodeJSON(r.Body, req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return false
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make([]apierrors.ValidationError, 0, len(verrs))
			for _, fe := range verrs {
				details = append(details, apierrors.ValidationError{
					Field:   fe.Field(),
					Message: validationMessage(fe),
				})
			}
			h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusBadRequest,
				"VALIDATION_FAILED",
				"Request validation failed",
				details,
			))
			return false
		}
		h.errorHandler.HandleError(w, r, err)
		return false
	}

	return true
}

// handleServiceError maps service-level failures to API errors before
// falling back to the shared RFC 7807 mapping.
func (h *AnalysisHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrTooManyRows):
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusRequestEntityTooLarge,
			"PAYLOAD_TOO_LARGE",
			"Line list exceeds the configured row limit",
			err.Error(),
		))
	case errors.Is(err, services.ErrTopKTooLarge):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("top_k", err.Error()))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must contain at least %s items", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// wantsCSV reports whether the client asked for CSV output
func wantsCSV(r *http.Request) bool {
	return r.URL.Query().Get("format") == "csv"
}

// incidenceColumns lists the response columns in output order
func incidenceColumns(by []string, freq incidence.Freq) []string {
	columns := append([]string{}, by...)
	if freq == incidence.FreqDaily {
		columns = append(columns, "date")
	} else {
		columns = append(columns, "epi_year", "epi_week")
	}
	return append(columns, "cases")
}

// incidenceRows renders records as JSON objects keyed by the grouping
// column names plus the period fields.
func incidenceRows(records []incidence.Record, by []string) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		row := make(map[string]interface{}, len(by)+3)
		for i, col := range by {
			if i < len(rec.Stratum) {
				row[col] = rec.Stratum[i]
			}
		}
		if rec.Period.Freq == incidence.FreqDaily {
			row["date"] = rec.Period.Date.Format(epiweek.DateFormat)
		} else {
			row["epi_year"] = rec.Period.EpiYear
			row["epi_week"] = rec.Period.EpiWeek
		}
		row["cases"] = rec.Cases
		rows = append(rows, row)
	}
	return rows
}

func longRows(records []summary.Record, by []string) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		row := make(map[string]interface{}, len(by)+3)
		for i, col := range by {
			if i < len(rec.Stratum) {
				row[col] = rec.Stratum[i]
			}
		}
		row["column"] = rec.Column
		row["metric"] = rec.Metric
		row["value"] = rec.Value
		rows = append(rows, row)
	}
	return rows
}

func wideRows(table *summary.WideTable) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(table.Rows))
	for _, wr := range table.Rows {
		row := make(map[string]interface{}, len(table.By)+1+len(table.MetricColumns))
		for i, col := range table.By {
			if i < len(wr.Stratum) {
				row[col] = wr.Stratum[i]
			}
		}
		row["column"] = wr.Column
		for _, metric := range table.MetricColumns {
			if value, ok := wr.Metrics[metric]; ok {
				row[metric] = value
			} else {
				row[metric] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}
