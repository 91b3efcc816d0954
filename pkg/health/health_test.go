package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error   { return nil }
func fail(context.Context) error { return errors.New("dial tcp: connection refused") }

func serveReadiness(t *testing.T, h *Handler) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestLivenessHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler().LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"status":"up"`)
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name        string
		critical    Checker
		nonCritical Checker
		wantCode    int
		wantStatus  Status
	}{
		{"all up", ok, ok, http.StatusOK, StatusUp},
		{"non-critical down degrades", ok, fail, http.StatusOK, StatusDegraded},
		{"critical down", fail, ok, http.StatusServiceUnavailable, StatusDown},
		{"both down", fail, fail, http.StatusServiceUnavailable, StatusDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler()
			h.RegisterCritical("postgres", tt.critical)
			h.RegisterNonCritical("kafka", tt.nonCritical)

			code, resp := serveReadiness(t, h)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.True(t, resp.Checks["postgres"].Critical)
			assert.False(t, resp.Checks["kafka"].Critical)
		})
	}
}

func TestReadiness_ReportsError(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("redis", fail)

	_, resp := serveReadiness(t, h)
	assert.Equal(t, StatusDown, resp.Checks["redis"].Status)
	assert.Contains(t, resp.Checks["redis"].Error, "connection refused")
}

func TestReadiness_NoChecks(t *testing.T) {
	code, resp := serveReadiness(t, NewHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusUp, resp.Status)
}
