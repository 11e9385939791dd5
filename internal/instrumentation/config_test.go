package instrumentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	for _, key := range []string{"OTEL_SERVICE_NAME", "INSTRUMENTATION_ENABLED", "METRICS_EXPORTER", "TRACING_EXPORTER", "OTEL_TRACES_SAMPLER_ARG"} {
		t.Setenv(key, "")
	}

	cfg := DefaultConfig()
	assert.Equal(t, DefaultServiceName, cfg.ServiceName)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, ExporterPrometheus, cfg.MetricsExporter)
	assert.Equal(t, ExporterNone, cfg.TracingExporter)
	assert.Equal(t, 0.1, cfg.TraceSamplingRate)
	assert.Equal(t, "/metrics", cfg.PrometheusEndpoint)
	assert.True(t, cfg.AuditLogging.Enabled)
	assert.False(t, cfg.AuditLogging.IncludePII)
}

func TestDefaultConfig_FromEnv(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "calendar-gateway")
	t.Setenv("INSTRUMENTATION_ENABLED", "false")
	t.Setenv("METRICS_EXPORTER", "stdout")
	t.Setenv("TRACING_EXPORTER", "stdout")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.5")
	t.Setenv("AUDIT_LOGGING_INCLUDE_PII", "true")

	cfg := DefaultConfig()
	assert.Equal(t, "calendar-gateway", cfg.ServiceName)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, ExporterStdout, cfg.MetricsExporter)
	assert.Equal(t, ExporterStdout, cfg.TracingExporter)
	assert.Equal(t, 0.5, cfg.TraceSamplingRate)
	assert.True(t, cfg.AuditLogging.IncludePII)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		errContains string
	}{
		{
			name:   "prometheus",
			config: Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterNone},
		},
		{
			name:   "otlp tracing with endpoint",
			config: Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterOTLP, OTLPEndpoint: "localhost:4318"},
		},
		{
			name:        "negative sampling rate",
			config:      Config{TraceSamplingRate: -0.5},
			errContains: "sampling rate",
		},
		{
			name:        "sampling rate above 1",
			config:      Config{TraceSamplingRate: 1.5},
			errContains: "sampling rate",
		},
		{
			name:        "unknown metrics exporter",
			config:      Config{MetricsExporter: "graphite"},
			errContains: "invalid metrics exporter",
		},
		{
			name:        "unknown tracing exporter",
			config:      Config{TracingExporter: "zipkin"},
			errContains: "invalid tracing exporter",
		},
		{
			name:        "otlp tracing without endpoint",
			config:      Config{TracingExporter: ExporterOTLP},
			errContains: "OTLP endpoint is required",
		},
		{
			name:        "otlp metrics without endpoint",
			config:      Config{MetricsExporter: ExporterOTLP},
			errContains: "OTLP endpoint is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.errContains == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("GCALAUTH_TEST_STRING", "value")
	t.Setenv("GCALAUTH_TEST_BOOL", "true")
	t.Setenv("GCALAUTH_TEST_BAD_BOOL", "maybe")
	t.Setenv("GCALAUTH_TEST_FLOAT", "0.25")
	t.Setenv("GCALAUTH_TEST_BAD_FLOAT", "lots")

	assert.Equal(t, "value", getEnvOrDefault("GCALAUTH_TEST_STRING", "fallback"))
	assert.Equal(t, "fallback", getEnvOrDefault("GCALAUTH_TEST_UNSET", "fallback"))

	assert.True(t, getEnvBoolOrDefault("GCALAUTH_TEST_BOOL", false))
	assert.True(t, getEnvBoolOrDefault("GCALAUTH_TEST_BAD_BOOL", true))
	assert.False(t, getEnvBoolOrDefault("GCALAUTH_TEST_UNSET", false))

	assert.Equal(t, 0.25, getEnvFloatOrDefault("GCALAUTH_TEST_FLOAT", 1))
	assert.Equal(t, 1.0, getEnvFloatOrDefault("GCALAUTH_TEST_BAD_FLOAT", 1))
}
