package dbclient

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/helixdata/dbridge/v1/query"
)

const statusOK = "ok"

// InstrumentedClient decorates a Client with Prometheus metrics and
// OpenTelemetry spans. It implements Client itself, so it can be dropped in
// anywhere the plain client is used.
type InstrumentedClient struct {
	next    Client
	backend string
	tracer  trace.Tracer

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

// NewInstrumentedClient wraps next with per-operation observability.
// backend names the underlying provider and becomes a metric label.
// Metrics are registered on reg; registration panics on name collision,
// so wrap each client at most once per registry.
func NewInstrumentedClient(next Client, backend string, reg prometheus.Registerer) *InstrumentedClient {
	operationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_operations_total",
			Help: "Total number of database operations by kind and outcome",
		},
		[]string{"operation", "backend", "status"},
	)
	operationDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "backend"},
	)
	reg.MustRegister(operationsTotal, operationDuration)

	return &InstrumentedClient{
		next:              next,
		backend:           backend,
		tracer:            otel.Tracer("dbridge/dbclient"),
		operationsTotal:   operationsTotal,
		operationDuration: operationDuration,
	}
}

// Execute delegates to the wrapped client and records metrics and a span for
// the operation.
func (c *InstrumentedClient) Execute(ctx context.Context, d query.Descriptor) (*query.Result, error) {
	operation := d.Kind.String()

	ctx, span := c.tracer.Start(ctx, "db.execute", trace.WithAttributes(
		attribute.String("db.operation", operation),
		attribute.String("db.target", d.Target),
		attribute.String("db.backend", c.backend),
	))
	defer span.End()

	start := time.Now()
	res, err := c.next.Execute(ctx, d)
	c.operationDuration.WithLabelValues(operation, c.backend).Observe(time.Since(start).Seconds())

	status := statusOK
	if err != nil {
		status = query.KindOf(err).String()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("db.rows", res.Count))
	}
	c.operationsTotal.WithLabelValues(operation, c.backend, status).Inc()

	return res, err
}

func (c *InstrumentedClient) HealthCheck(ctx context.Context) error {
	return c.next.HealthCheck(ctx)
}

func (c *InstrumentedClient) GracefulShutdown() error {
	return c.next.GracefulShutdown()
}
