package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimit_PerIPBurst(t *testing.T) {
	h := RateLimit(0.001, 2, testLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	do := func(ip string) int {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", nil)
		r.RemoteAddr = ip + ":1000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	assert.Equal(t, http.StatusCreated, do("192.0.2.1"))
	assert.Equal(t, http.StatusCreated, do("192.0.2.1"))
	assert.Equal(t, http.StatusTooManyRequests, do("192.0.2.1"))
	assert.Equal(t, http.StatusCreated, do("192.0.2.2"))
}

func TestVisitorStore_Cleanup(t *testing.T) {
	now := time.Now()
	s := newVisitorStore(1, 1, time.Minute)
	s.now = func() time.Time { return now }

	s.get("a")
	now = now.Add(30 * time.Second)
	s.get("b")
	now = now.Add(45 * time.Second)
	s.cleanup()

	_, hasA := s.visitors["a"]
	_, hasB := s.visitors["b"]
	assert.False(t, hasA)
	assert.True(t, hasB)
}
