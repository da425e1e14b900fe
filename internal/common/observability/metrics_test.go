package observability

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservability_Lifecycle(t *testing.T) {
	obs, err := New("onboarding-api-test")
	require.NoError(t, err)

	ctx, span := obs.StartSpan(context.Background(), "GET /api/onboarding/records")
	assert.True(t, span.SpanContext().TraceID().IsValid())
	obs.RecordRequest(ctx, "records", http.StatusOK, 12*time.Millisecond)
	span.End()

	require.NoError(t, obs.Shutdown(context.Background()))
}

func TestNoop(t *testing.T) {
	obs := Noop()

	_, span := obs.StartSpan(context.Background(), "noop")
	defer span.End()
	obs.RecordRequest(context.Background(), "noop", http.StatusOK, time.Millisecond)

	assert.NoError(t, obs.Shutdown(context.Background()))
}

func TestStatusClass(t *testing.T) {
	tests := map[int]string{
		http.StatusOK:                  "2xx",
		http.StatusNoContent:           "2xx",
		http.StatusTooManyRequests:     "4xx",
		http.StatusBadGateway:          "5xx",
		http.StatusInternalServerError: "5xx",
	}
	for status, want := range tests {
		assert.Equal(t, want, StatusClass(status), "status %d", status)
	}
}
