package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"

	"cyberforge-corpus/config"
)

// Telemetry hands out the tracer used to span the corpus maintenance
// operations (export, import, prune). When telemetry is disabled the tracer
// is a no-op and callers never have to check.
type Telemetry interface {
	GetTracer() trace.Tracer
}

type telemetryImpl struct {
	tracer trace.Tracer
}

type TelemetryParams struct {
	fx.In
	Lifecycle fx.Lifecycle
	Config    *config.AppConfig
}

// Noop returns a Telemetry whose tracer records nothing. Used when
// telemetry is disabled and in tests.
func Noop() Telemetry {
	return &telemetryImpl{tracer: noop.NewTracerProvider().Tracer("corpusd")}
}

func NewTelemetry(p TelemetryParams) (Telemetry, error) {
	if !p.Config.TelemetryEnabled {
		return Noop(), nil
	}

	telemetryCtx, cancel := context.WithCancel(context.Background())

	tracerExp, err := otlptracegrpc.New(telemetryCtx)
	if err != nil {
		cancel()
		return nil, err
	}

	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(tracerExp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			attribute.String("service.name", p.Config.ServiceName),
		)),
	)
	otel.SetTracerProvider(traceProvider)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			cancel()
			return traceProvider.Shutdown(ctx)
		},
	})

	return &telemetryImpl{tracer: traceProvider.Tracer(p.Config.ServiceName)}, nil
}

func (t *telemetryImpl) GetTracer() trace.Tracer {
	return t.tracer
}
