package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8090, cfg.HTTPPort)
	assert.Equal(t, StorePostgres, cfg.ReviewStore)
	assert.Equal(t, 5, cfg.RateLimitMaxAttempts)
	assert.Equal(t, time.Hour, cfg.RateLimitWindow())
	assert.Equal(t, 5*time.Minute, cfg.SubmitInterval())
	assert.Equal(t, 10*time.Minute, cfg.StatsCacheTTL())
	assert.Equal(t, 10*time.Minute, cfg.FragmentCacheTTL())
	assert.Equal(t, 5*time.Minute, cfg.LastOrderCacheTTL())
	assert.Equal(t, 10, cfg.ContentMinLength)
	assert.Equal(t, 2000, cfg.ContentMaxLength)
	assert.Equal(t, 100, cfg.SecurityLogMax)
	assert.Equal(t, []string{"completed", "processing", "on-hold"}, cfg.EligibleStatuses())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("REVIEW_STORE", "memory")
	t.Setenv("RATE_LIMIT_MAX_ATTEMPTS", "3")
	t.Setenv("ORDER_ELIGIBLE_STATUSES", "delivered, ,shipped")
	t.Setenv("KAFKA_ENABLED", "false")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.ReviewStore)
	assert.Equal(t, 3, cfg.RateLimitMaxAttempts)
	assert.Equal(t, []string{"delivered", "shipped"}, cfg.EligibleStatuses())
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		envs    map[string]string
		wantErr string
	}{
		{"port", map[string]string{"REVIEWS_HTTP_PORT": "70000"}, "invalid HTTP port"},
		{"store", map[string]string{"REVIEW_STORE": "sqlite"}, "REVIEW_STORE"},
		{"order url", map[string]string{"ORDER_SERVICE_URL": "not a url"}, "ORDER_SERVICE_URL"},
		{"attempts", map[string]string{"RATE_LIMIT_MAX_ATTEMPTS": "0"}, "RATE_LIMIT_MAX_ATTEMPTS"},
		{"interval", map[string]string{"SUBMIT_INTERVAL_SECONDS": "-1"}, "SUBMIT_INTERVAL_SECONDS"},
		{"bounds", map[string]string{"CONTENT_MIN_LENGTH": "50", "CONTENT_MAX_LENGTH": "20"}, "content length bounds"},
		{"sample rate", map[string]string{"OTEL_SAMPLE_RATE": "1.5"}, "OTEL_SAMPLE_RATE"},
		{"statuses", map[string]string{"ORDER_ELIGIBLE_STATUSES": " , "}, "ORDER_ELIGIBLE_STATUSES"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envs {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
