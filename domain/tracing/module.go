package tracing

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"

	"github.com/Yukasama/haus/internal/config"
	"github.com/Yukasama/haus/internal/version"
	"github.com/Yukasama/haus/pkg/logger"
)

// Module installs the global TracerProvider and the echo tracing middleware
var Module = fx.Module("tracing",
	fx.Provide(NewProvider),
	fx.Invoke(RegisterLifecycle),
	fx.Invoke(RegisterEchoMiddleware),
)

// Provider owns the SDK provider. sdk is nil while tracing is disabled.
type Provider struct {
	sdk *sdktrace.TracerProvider
}

// NewProvider exports spans over OTLP/HTTP when an endpoint is configured
// and installs a no-op provider otherwise.
func NewProvider(cfg *config.Config, log *slog.Logger) (*Provider, error) {
	oc := cfg.Otel
	log = log.With(logger.Scope("tracing"))

	if !oc.Enabled() {
		log.Info("tracing disabled (OTEL_EXPORTER_OTLP_ENDPOINT not set)")
		otel.SetTracerProvider(noop.NewTracerProvider())
		return &Provider{}, nil
	}

	exp, err := otlptracehttp.New(context.Background(),
		otlptracehttp.WithEndpointURL(oc.ExporterEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(context.Background(),
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(
			semconv.ServiceName(oc.ServiceName),
			semconv.ServiceVersion(version.Version),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
		resource.WithFromEnv(),
	)
	if err != nil {
		log.Warn("resource detection failed", logger.Error(err))
		res = resource.Empty()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(oc.SamplingRate)),
	)
	otel.SetTracerProvider(tp)

	log.Info("tracing enabled",
		slog.String("endpoint", oc.ExporterEndpoint),
		slog.String("service", oc.ServiceName),
		slog.Float64("sampling_rate", oc.SamplingRate),
	)
	return &Provider{sdk: tp}, nil
}

// Enabled reports whether spans are exported
func (p *Provider) Enabled() bool {
	return p.sdk != nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}

// RegisterLifecycle flushes and stops the SDK provider on shutdown
func RegisterLifecycle(lc fx.Lifecycle, p *Provider, log *slog.Logger) {
	if !p.Enabled() {
		return
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down tracer provider")
			return p.sdk.Shutdown(ctx)
		},
	})
}

// untraced are probe and scrape paths
var untraced = map[string]struct{}{
	"/health":  {},
	"/healthz": {},
	"/ready":   {},
	"/metrics": {},
}

func skip(c echo.Context) bool {
	_, ok := untraced[c.Request().URL.Path]
	return ok
}

// RegisterEchoMiddleware starts a server span per request
func RegisterEchoMiddleware(e *echo.Echo, cfg *config.Config, p *Provider) {
	if !p.Enabled() {
		return
	}
	e.Use(otelecho.Middleware(cfg.Otel.ServiceName, otelecho.WithSkipper(skip)))
}
