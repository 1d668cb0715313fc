package tracing

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Yukasama/haus/internal/config"
)

func TestNewProvider_Disabled(t *testing.T) {
	cfg := &config.Config{Otel: config.OtelConfig{ServiceName: "haus"}}

	p, err := NewProvider(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.IsType(t, noop.TracerProvider{}, otel.GetTracerProvider())
}

func TestNewProvider_Enabled(t *testing.T) {
	cfg := &config.Config{Otel: config.OtelConfig{
		ExporterEndpoint: "http://localhost:4318",
		ServiceName:      "haus",
		SamplingRate:     0.5,
	}}

	p, err := NewProvider(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.True(t, p.Enabled())
	t.Cleanup(func() {
		otel.SetTracerProvider(noop.NewTracerProvider())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_ = p.sdk.Shutdown(ctx)
	})
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
	assert.Equal(t, "AlwaysOffSampler", sampler(0).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestSkip(t *testing.T) {
	e := echo.New()
	for path, want := range map[string]bool{
		"/health":  true,
		"/ready":   true,
		"/metrics": true,
		"/rest/1":  false,
		"/graphql": false,
	} {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, path, nil), httptest.NewRecorder())
		assert.Equal(t, want, skip(c), path)
	}
}
