package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope for application metrics
const MeterName = "flowershop-backend"

// MetricOpts describes one instrument
type MetricOpts struct {
	Name        string
	Description string
	Unit        string
}

// Counter wraps a monotonic int64 counter
type Counter struct {
	counter metric.Int64Counter
}

// NewCounter creates a counter on the global meter
func NewCounter(opts MetricOpts) (*Counter, error) {
	c, err := otel.Meter(MeterName).Int64Counter(
		opts.Name,
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	)
	if err != nil {
		return nil, err
	}
	return &Counter{counter: c}, nil
}

// Add increments the counter
func (c *Counter) Add(ctx context.Context, value int64, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

// Histogram wraps a float64 histogram
type Histogram struct {
	histogram metric.Float64Histogram
}

// NewHistogram creates a histogram on the global meter
func NewHistogram(opts MetricOpts) (*Histogram, error) {
	h, err := otel.Meter(MeterName).Float64Histogram(
		opts.Name,
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	)
	if err != nil {
		return nil, err
	}
	return &Histogram{histogram: h}, nil
}

// Record records a measurement
func (h *Histogram) Record(ctx context.Context, value float64, attrs ...attribute.KeyValue) {
	h.histogram.Record(ctx, value, metric.WithAttributes(attrs...))
}

// UpDownCounter wraps a non-monotonic int64 counter
type UpDownCounter struct {
	counter metric.Int64UpDownCounter
}

// NewUpDownCounter creates an up/down counter on the global meter
func NewUpDownCounter(opts MetricOpts) (*UpDownCounter, error) {
	c, err := otel.Meter(MeterName).Int64UpDownCounter(
		opts.Name,
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	)
	if err != nil {
		return nil, err
	}
	return &UpDownCounter{counter: c}, nil
}

// Add adjusts the counter by value (may be negative)
func (c *UpDownCounter) Add(ctx context.Context, value int64, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, value, metric.WithAttributes(attrs...))
}
