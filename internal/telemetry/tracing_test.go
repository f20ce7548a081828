package telemetry

import (
	"context"
	"testing"

	"github.com/Togather-Foundation/meetups/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), config.TracingConfig{}, "test")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracingRejectsBadConfig(t *testing.T) {
	_, err := InitTracing(context.Background(), config.TracingConfig{Enabled: true, Exporter: "none", SampleRatio: 2}, "test")
	assert.ErrorContains(t, err, "sample ratio")

	_, err = InitTracing(context.Background(), config.TracingConfig{Enabled: true, Exporter: "jaeger", SampleRatio: 1}, "test")
	assert.ErrorContains(t, err, "unsupported exporter")
}

func TestInitTracingNoneExporter(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), config.TracingConfig{Enabled: true, Exporter: "none", SampleRatio: 0.5}, "test")
	require.NoError(t, err)

	_, span := Tracer("test").Start(context.Background(), "op")
	span.End()
	assert.NoError(t, shutdown(context.Background()))
}
