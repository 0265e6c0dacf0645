// Package metrics wires Prometheus exposition through the OpenTelemetry
// metrics SDK and holds the instrument sets used by the worker and the REST
// API.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Init initializes the Prometheus metrics exporter. It returns the
// MeterProvider and an HTTP handler for the /metrics endpoint.
func Init() (*sdkmetric.MeterProvider, http.Handler, error) {
	exporter, err := promexporter.New()
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)

	return provider, promhttp.Handler(), nil
}

// Outcome labels a finished scoring task.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeCanceled  Outcome = "canceled"
	OutcomeSkipped   Outcome = "skipped"
)

// TaskCounters counts worker task outcomes. A nil receiver records nothing,
// so the worker runs unchanged when metrics are disabled.
type TaskCounters struct {
	processed metric.Int64Counter
}

func NewTaskCounters(provider metric.MeterProvider) (*TaskCounters, error) {
	meter := provider.Meter("oasis/worker")
	processed, err := meter.Int64Counter(
		"oasis_tasks_total",
		metric.WithDescription("Scoring tasks handled by the worker, by outcome."),
	)
	if err != nil {
		return nil, err
	}
	return &TaskCounters{processed: processed}, nil
}

func (c *TaskCounters) Record(outcome Outcome) {
	if c == nil {
		return
	}
	c.processed.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("outcome", string(outcome))))
}

// RequestCounters counts REST API requests by response status.
type RequestCounters struct {
	requests metric.Int64Counter
}

func NewRequestCounters(provider metric.MeterProvider) (*RequestCounters, error) {
	meter := provider.Meter("oasis/api")
	requests, err := meter.Int64Counter(
		"oasis_api_requests_total",
		metric.WithDescription("REST API requests, by response status."),
	)
	if err != nil {
		return nil, err
	}
	return &RequestCounters{requests: requests}, nil
}

func (c *RequestCounters) Record(status int) {
	if c == nil {
		return
	}
	c.requests.Add(context.Background(), 1,
		metric.WithAttributes(attribute.Int("status", status)))
}
