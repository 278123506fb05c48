package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/fyrsmithlabs/projectindex/internal/config"
)

func TestNew_Disabled(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig())
	require.NoError(t, err)

	assert.False(t, tel.IsEnabled())
	assert.Equal(t, HealthStatus{Healthy: true}, tel.Health())
	assert.NotNil(t, tel.Tracer("x"))
	assert.NotNil(t, tel.Meter("x"))
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNew_WithExporters(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true

	spans := tracetest.NewInMemoryExporter()
	tel, err := New(context.Background(), cfg, WithTraceExporter(spans), WithMetricExporter(discardExporter{}))
	require.NoError(t, err)

	assert.True(t, tel.IsEnabled())

	_, span := tel.Tracer("test").Start(context.Background(), "hydrate")
	span.End()

	require.NoError(t, tel.ForceFlush(context.Background()))
	require.Len(t, spans.GetSpans(), 1)
	assert.Equal(t, "hydrate", spans.GetSpans()[0].Name)

	require.NoError(t, tel.Shutdown(context.Background()))
	assert.False(t, tel.Health().Healthy)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.Endpoint = "collector.example.com:4317"

	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "insecure connections")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"disabled skips checks", func(c *Config) { c.Endpoint = "" }, false},
		{"local insecure", func(c *Config) { c.Enabled = true }, false},
		{"ipv6 loopback", func(c *Config) { c.Enabled = true; c.Endpoint = "[::1]:4317" }, false},
		{"http scheme stripped", func(c *Config) { c.Enabled = true; c.Endpoint = "http://127.0.0.1:4318" }, false},
		{"remote with tls", func(c *Config) { c.Enabled = true; c.Insecure = false; c.Endpoint = "otel.example.com:443" }, false},
		{"remote insecure", func(c *Config) { c.Enabled = true; c.Endpoint = "otel.example.com:4317" }, true},
		{"bad protocol", func(c *Config) { c.Enabled = true; c.Protocol = "udp" }, true},
		{"bad rate", func(c *Config) { c.Enabled = true; c.SampleRate = 2 }, true},
		{"zero interval", func(c *Config) { c.Enabled = true; c.ExportInterval = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestFromSettings(t *testing.T) {
	cfg := FromSettings(config.TelemetryConfig{
		Enabled:        true,
		Endpoint:       "localhost:4318",
		Protocol:       "http/protobuf",
		Insecure:       true,
		SampleRate:     0.5,
		ExportInterval: time.Minute,
	}, "1.2.3")

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "http/protobuf", cfg.Protocol)
	assert.Equal(t, 0.5, cfg.SampleRate)
	assert.Equal(t, time.Minute, cfg.ExportInterval)
	assert.Equal(t, "1.2.3", cfg.ServiceVersion)
	assert.Equal(t, "projectindex", cfg.ServiceName)
	assert.NoError(t, cfg.Validate())
}

func TestTestTelemetry(t *testing.T) {
	tt := NewTestTelemetry()
	ctx := context.Background()

	_, span := tt.Tracer("test").Start(ctx, "update")
	span.End()
	tt.AssertSpanExists(t, "update")

	counter, err := tt.Meter("test").Int64Counter("updates")
	require.NoError(t, err)
	counter.Add(ctx, 2, metric.WithAttributes(attribute.String("outcome", "success")))
	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "conflict")))

	assert.Equal(t, int64(3), tt.CollectSum(t, "updates"))
	assert.Equal(t, int64(1), tt.CollectSum(t, "updates", attribute.String("outcome", "conflict")))
}

type discardExporter struct{}

func (discardExporter) Temporality(k sdkmetric.InstrumentKind) metricdata.Temporality {
	return sdkmetric.DefaultTemporalitySelector(k)
}

func (discardExporter) Aggregation(k sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.DefaultAggregationSelector(k)
}

func (discardExporter) Export(context.Context, *metricdata.ResourceMetrics) error { return nil }

func (discardExporter) ForceFlush(context.Context) error { return nil }

func (discardExporter) Shutdown(context.Context) error { return nil }
