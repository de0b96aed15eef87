package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestNewProviders_NoEndpoint(t *testing.T) {
	for _, ep := range []string{"", "   "} {
		p, err := NewProviders(context.Background(), Options{Endpoint: ep, ServiceName: "agrovision-auth"})
		require.NoError(t, err)
		assert.NotNil(t, p.TracerProvider)
		assert.NotNil(t, p.MeterProvider)
		assert.NotNil(t, p.LoggerProvider)
		assert.NoError(t, p.Shutdown(context.Background()))
	}
}

func TestNewProviders_BadEndpoint(t *testing.T) {
	for _, ep := range []string{"http://", "http://[invalid", "://invalid"} {
		_, err := NewProviders(context.Background(), Options{Endpoint: ep})
		assert.Error(t, err, ep)
	}
}

func TestOTLPTarget(t *testing.T) {
	tests := []struct {
		endpoint     string
		force        bool
		wantHost     string
		wantInsecure bool
	}{
		{"localhost:4317", false, "localhost:4317", true},
		{"http://collector:4317", false, "collector:4317", true},
		{"http://collector:4317/v1/traces", false, "collector:4317", true},
		{"https://collector:4317", false, "collector:4317", false},
		{"https://collector:4317", true, "collector:4317", true},
		{"  collector:4317  ", false, "collector:4317", true},
	}
	for _, tt := range tests {
		host, insecure, err := otlpTarget(tt.endpoint, tt.force)
		require.NoError(t, err, tt.endpoint)
		assert.Equal(t, tt.wantHost, host, tt.endpoint)
		assert.Equal(t, tt.wantInsecure, insecure, tt.endpoint)
	}
}

func TestSetGlobal(t *testing.T) {
	p, err := NewProviders(context.Background(), Options{})
	require.NoError(t, err)
	prevTP, prevMP, prevProp := otel.GetTracerProvider(), otel.GetMeterProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
		otel.SetTextMapPropagator(prevProp)
	})

	p.SetGlobal()
	assert.Same(t, p.TracerProvider, otel.GetTracerProvider())
	assert.Same(t, p.MeterProvider, otel.GetMeterProvider())
	assert.ElementsMatch(t, []string{"traceparent", "tracestate", "baggage"}, otel.GetTextMapPropagator().Fields())
}
