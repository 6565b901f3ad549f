package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Observability holds the pipeline meter and tracer. A nil *Observability is
// valid and records nothing.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	stageDuration  otelmetric.Float64Histogram
	planDuration   otelmetric.Float64Histogram
}

// New wires an otel meter to the Prometheus registry and a tracer provider.
func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	mp := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(mp)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())))
	otel.SetTracerProvider(tp)

	o, err := build(mp.Meter(serviceName), tp.Tracer(serviceName))
	if err != nil {
		return nil, err
	}
	o.meterProvider = mp
	o.tracerProvider = tp
	return o, nil
}

// NewNoop records nothing; used by tests and the offline runner.
func NewNoop() *Observability {
	o, _ := build(metricnoop.NewMeterProvider().Meter("noop"), tracenoop.NewTracerProvider().Tracer("noop"))
	return o
}

func build(meter otelmetric.Meter, tracer trace.Tracer) (*Observability, error) {
	stageDuration, err := meter.Float64Histogram(
		"triage.stage.duration",
		otelmetric.WithDescription("Pipeline stage duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	planDuration, err := meter.Float64Histogram(
		"triage.plan.duration",
		otelmetric.WithDescription("End-to-end plan generation duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Observability{
		tracer:        tracer,
		stageDuration: stageDuration,
		planDuration:  planDuration,
	}, nil
}

func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if o == nil || o.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordStage(ctx context.Context, stage, status string, d time.Duration) {
	if o == nil || o.stageDuration == nil {
		return
	}
	o.stageDuration.Record(ctx, float64(d.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordPlan(ctx context.Context, d time.Duration, crisis bool) {
	if o == nil || o.planDuration == nil {
		return
	}
	o.planDuration.Record(ctx, float64(d.Milliseconds()), otelmetric.WithAttributes(
		attribute.Bool("crisis", crisis),
	))
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil {
		return nil
	}
	if o.tracerProvider != nil {
		if err := o.tracerProvider.Shutdown(ctx); err != nil {
			return err
		}
	}
	if o.meterProvider != nil {
		return o.meterProvider.Shutdown(ctx)
	}
	return nil
}
