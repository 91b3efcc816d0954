package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/gustavofullstack/udia-reviews-v2/pkg/errors"
	"github.com/gustavofullstack/udia-reviews-v2/pkg/logger"
	"github.com/gustavofullstack/udia-reviews-v2/pkg/validator"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, Response{Data: map[string]string{"id": "r-1"}})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"id":"r-1"}}`, rec.Body.String())
}

func TestWriteError_AppErrorKeepsCodeAndStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", nil)
	req = req.WithContext(logger.WithCorrelationID(req.Context(), "corr-1"))

	WriteError(rec, req, fmt.Errorf("gate: %w", apperrors.TooManyRequests("wait a bit")), testLogger())

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	resp := decode(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "RATE_LIMITED", resp.Error.Code)
	assert.Equal(t, "wait a bit", resp.Error.Message)
	assert.Equal(t, "corr-1", resp.Error.RequestID)
}

func TestWriteError_UnknownErrorIsHiddenAndLogged(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req = req.WithContext(logger.NewContext(context.Background(), l))

	WriteError(rec, req, errors.New("pq: secret detail"), testLogger())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "an internal error occurred", resp.Error.Message)
	assert.NotContains(t, rec.Body.String(), "secret detail")
	assert.Contains(t, buf.String(), "secret detail")
}

func TestWriteError_NotFoundSentinel(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), apperrors.ErrNotFound, testLogger())
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, rec).Error.Code)
}

func TestWriteValidationError(t *testing.T) {
	type body struct {
		Content string `json:"content" validate:"required"`
	}
	rec := httptest.NewRecorder()
	WriteValidationError(rec, validator.Validate(body{}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, "is required", resp.Error.Fields["content"])
}

func TestNewPaginatedResponse(t *testing.T) {
	p := NewPaginatedResponse([]int{1, 2}, 5, 1, 2)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNext)

	all := NewPaginatedResponse[int](nil, 0, 1, -1)
	assert.Equal(t, []int{}, all.Data)
	assert.Equal(t, 1, all.TotalPages)
	assert.False(t, all.HasNext)
}

func TestParseUUID(t *testing.T) {
	rec := httptest.NewRecorder()
	_, ok := ParseUUID(rec, "not-a-uuid")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	id, ok := ParseUUID(httptest.NewRecorder(), "0b6f1d0e-7f59-4a51-9a2e-1a7f6c1d2e3f")
	assert.True(t, ok)
	assert.Equal(t, "0b6f1d0e-7f59-4a51-9a2e-1a7f6c1d2e3f", id.String())
}
