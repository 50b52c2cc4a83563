package middleware

import (
	"fmt"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"epidem/internal/infrastructure"
)

// Observability instruments HTTP requests with OpenTelemetry spans and
// request count/duration metrics.
type Observability struct {
	tracer  trace.Tracer
	metrics *infrastructure.RequestMetrics
}

// NewObservability creates the observability middleware from initialized
// providers.
func NewObservability(providers *infrastructure.OTelProviders) (*Observability, error) {
	metrics, err := infrastructure.NewRequestMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("create request metrics: %w", err)
	}
	return &Observability{tracer: providers.Tracer, metrics: metrics}, nil
}

// Handler returns the middleware handler function
func (o *Observability) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		spanName := fmt.Sprintf("%s %s", r.Method, r.URL.Path)
		ctx, span := o.tracer.Start(ctx, spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(r.URL.Path),
			),
		)
		defer span.End()

		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(ctx))

		status := ww.Status()
		span.SetAttributes(semconv.HTTPResponseStatusCode(status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}

		attrs := metric.WithAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("http.route", r.URL.Path),
			attribute.Int("http.response.status_code", status),
		)
		o.metrics.Requests.Add(ctx, 1, attrs)
		o.metrics.Duration.Record(ctx, time.Since(start).Seconds(), attrs)
	})
}
