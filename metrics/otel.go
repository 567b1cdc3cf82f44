package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OtelProvider adapts an OpenTelemetry Meter to Provider. Grounded on the
// itsneelabh-gomind resilience package's OTelMetricsCollector: each named
// instrument is created once (otel.metric instruments are themselves
// cheap to hold onto) and wrapped in a type satisfying this package's
// narrower Counter/UpDownCounter/Histogram interfaces, which have no
// context or attribute parameters of their own — those are captured at
// construction time via WithAttributes instead of passed per call.
type OtelProvider struct {
	meter metric.Meter
}

// NewOtelProvider wraps meter.
func NewOtelProvider(meter metric.Meter) *OtelProvider {
	return &OtelProvider{meter: meter}
}

// otel's Int64Counter/Int64UpDownCounter/Float64Histogram option types
// are distinct per-instrument-kind interfaces with no shared
// description/unit supertype, so each constructor below applies them
// inline rather than through a shared builder.

func (p *OtelProvider) Counter(name string, opts ...InstrumentOption) Counter {
	cfg := applyOptions(opts)
	var copts []metric.Int64CounterOption
	if cfg.Description != "" {
		copts = append(copts, metric.WithDescription(cfg.Description))
	}
	if cfg.Unit != "" {
		copts = append(copts, metric.WithUnit(cfg.Unit))
	}
	c, err := p.meter.Int64Counter(name, copts...)
	if err != nil {
		return noopCounter{}
	}
	return &otelCounter{counter: c, attrs: attributesOf(cfg)}
}

func (p *OtelProvider) UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter {
	cfg := applyOptions(opts)
	var copts []metric.Int64UpDownCounterOption
	if cfg.Description != "" {
		copts = append(copts, metric.WithDescription(cfg.Description))
	}
	if cfg.Unit != "" {
		copts = append(copts, metric.WithUnit(cfg.Unit))
	}
	c, err := p.meter.Int64UpDownCounter(name, copts...)
	if err != nil {
		return noopUpDownCounter{}
	}
	return &otelUpDownCounter{counter: c, attrs: attributesOf(cfg)}
}

func (p *OtelProvider) Histogram(name string, opts ...InstrumentOption) Histogram {
	cfg := applyOptions(opts)
	var hopts []metric.Float64HistogramOption
	if cfg.Description != "" {
		hopts = append(hopts, metric.WithDescription(cfg.Description))
	}
	if cfg.Unit != "" {
		hopts = append(hopts, metric.WithUnit(cfg.Unit))
	}
	h, err := p.meter.Float64Histogram(name, hopts...)
	if err != nil {
		return noopHistogram{}
	}
	return &otelHistogram{histogram: h, attrs: attributesOf(cfg)}
}

func attributesOf(cfg InstrumentConfig) attribute.Set {
	if len(cfg.Attributes) == 0 {
		return attribute.NewSet()
	}
	attrs := make([]attribute.KeyValue, 0, len(cfg.Attributes))
	for k, v := range cfg.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}
	return attribute.NewSet(attrs...)
}

type otelCounter struct {
	counter metric.Int64Counter
	attrs   attribute.Set
}

func (c *otelCounter) Add(n int64) {
	c.counter.Add(context.Background(), n, metric.WithAttributeSet(c.attrs))
}

type otelUpDownCounter struct {
	counter metric.Int64UpDownCounter
	attrs   attribute.Set
}

func (c *otelUpDownCounter) Add(n int64) {
	c.counter.Add(context.Background(), n, metric.WithAttributeSet(c.attrs))
}

type otelHistogram struct {
	histogram metric.Float64Histogram
	attrs     attribute.Set
}

func (h *otelHistogram) Record(v float64) {
	h.histogram.Record(context.Background(), v, metric.WithAttributeSet(h.attrs))
}
