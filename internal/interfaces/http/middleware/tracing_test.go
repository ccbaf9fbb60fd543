package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(t.Context())
	})
	return recorder
}

func tracedEngine(cfg TracingConfig, status int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RequestID())
	engine.Use(Tracing(cfg))
	engine.Use(TraceAttributes())
	engine.Use(SpanErrorMarker())
	engine.GET("/shipments", func(c *gin.Context) {
		c.Status(status)
	})
	return engine
}

func TestTracingDisabled(t *testing.T) {
	recorder := setupTestTracer(t)
	engine := tracedEngine(TracingConfig{ServiceName: "fulfillment", Enabled: false}, http.StatusOK)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/shipments", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, recorder.Ended(), "disabled tracing must not record spans")
}

func TestTracingRecordsSpanWithRequestID(t *testing.T) {
	recorder := setupTestTracer(t)
	engine := tracedEngine(TracingConfig{ServiceName: "fulfillment", Enabled: true}, http.StatusOK)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/shipments", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	engine.ServeHTTP(w, req)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /shipments", spans[0].Name())

	var requestID string
	for _, attr := range spans[0].Attributes() {
		if attr.Key == attribute.Key("request_id") {
			requestID = attr.Value.AsString()
		}
	}
	assert.Equal(t, "req-123", requestID)
}

func TestSpanErrorMarker(t *testing.T) {
	recorder := setupTestTracer(t)
	engine := tracedEngine(TracingConfig{ServiceName: "fulfillment", Enabled: true}, http.StatusBadGateway)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/shipments", nil)
	engine.ServeHTTP(w, req)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}
