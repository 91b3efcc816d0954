package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	pkgconfig "github.com/gustavofullstack/udia-reviews-v2/pkg/config"
)

// Review store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all configuration for the reviews service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	HTTPPort int `env:"REVIEWS_HTTP_PORT" envDefault:"8090"`

	// ReviewStore selects the ReviewRepository: postgres or memory.
	ReviewStore string `env:"REVIEW_STORE" envDefault:"postgres"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"reviews"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"reviews_secret"`
	PostgresDB   string `env:"REVIEWS_DB_NAME" envDefault:"reviews_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	SlowQueryThresholdMs int `env:"SLOW_QUERY_THRESHOLD_MS" envDefault:"500"`

	// Redis
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaEnabled       bool     `env:"KAFKA_ENABLED" envDefault:"true"`
	KafkaBrokers       []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaConsumerGroup string   `env:"KAFKA_CONSUMER_GROUP" envDefault:"reviews-service"`

	// Order service
	OrderServiceURL       string   `env:"ORDER_SERVICE_URL" envDefault:"http://localhost:8003"`
	OrderEligibleStatuses []string `env:"ORDER_ELIGIBLE_STATUSES" envDefault:"completed,processing,on-hold" envSeparator:","`
	OrderLookback         int      `env:"ORDER_LOOKBACK" envDefault:"20"`

	// Circuit breaker around the order service
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Auth. Without a secret only gateway headers identify callers.
	JWTSecret    string `env:"JWT_SECRET" envDefault:""`
	TrustGateway bool   `env:"TRUST_GATEWAY_HEADERS" envDefault:"true"`

	// Submission limits
	RateLimitMaxAttempts   int `env:"RATE_LIMIT_MAX_ATTEMPTS" envDefault:"5"`
	RateLimitWindowSeconds int `env:"RATE_LIMIT_WINDOW_SECONDS" envDefault:"3600"`
	SubmitIntervalSeconds  int `env:"SUBMIT_INTERVAL_SECONDS" envDefault:"300"`
	ContentMinLength       int `env:"CONTENT_MIN_LENGTH" envDefault:"10"`
	ContentMaxLength       int `env:"CONTENT_MAX_LENGTH" envDefault:"2000"`

	// Caches
	StatsCacheTTLSeconds     int `env:"STATS_CACHE_TTL_SECONDS" envDefault:"600"`
	FragmentCacheTTLSeconds  int `env:"FRAGMENT_CACHE_TTL_SECONDS" envDefault:"600"`
	LastOrderCacheTTLSeconds int `env:"LAST_ORDER_CACHE_TTL_SECONDS" envDefault:"300"`
	HTTPCacheMaxAgeSeconds   int `env:"HTTP_CACHE_MAX_AGE_SECONDS" envDefault:"60"`

	SecurityLogMax int `env:"SECURITY_LOG_MAX" envDefault:"100"`

	// FeedbackURL is linked from the global summary when set.
	FeedbackURL string `env:"FEEDBACK_URL" envDefault:""`

	// Edge token bucket on the submit route; 0 disables it.
	EdgeRPS   float64 `env:"EDGE_RPS" envDefault:"2"`
	EdgeBurst int     `env:"EDGE_BURST" envDefault:"5"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load reviews config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.ReviewStore {
	case StorePostgres:
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("REVIEW_STORE must be %q or %q, got %q", StorePostgres, StoreMemory, c.ReviewStore)
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.OrderServiceURL == "" {
		return fmt.Errorf("ORDER_SERVICE_URL is required")
	}
	if _, err := url.ParseRequestURI(c.OrderServiceURL); err != nil {
		return fmt.Errorf("invalid ORDER_SERVICE_URL %q: %w", c.OrderServiceURL, err)
	}
	if len(c.EligibleStatuses()) == 0 {
		return fmt.Errorf("ORDER_ELIGIBLE_STATUSES must name at least one status")
	}
	if c.RateLimitMaxAttempts < 1 {
		return fmt.Errorf("RATE_LIMIT_MAX_ATTEMPTS must be positive, got %d", c.RateLimitMaxAttempts)
	}
	for name, v := range map[string]int{
		"RATE_LIMIT_WINDOW_SECONDS":    c.RateLimitWindowSeconds,
		"SUBMIT_INTERVAL_SECONDS":      c.SubmitIntervalSeconds,
		"STATS_CACHE_TTL_SECONDS":      c.StatsCacheTTLSeconds,
		"FRAGMENT_CACHE_TTL_SECONDS":   c.FragmentCacheTTLSeconds,
		"LAST_ORDER_CACHE_TTL_SECONDS": c.LastOrderCacheTTLSeconds,
	} {
		if v < 1 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	if c.ContentMinLength < 1 || c.ContentMaxLength < c.ContentMinLength {
		return fmt.Errorf("content length bounds [%d, %d] are invalid", c.ContentMinLength, c.ContentMaxLength)
	}
	if c.SecurityLogMax < 1 {
		return fmt.Errorf("SECURITY_LOG_MAX must be positive, got %d", c.SecurityLogMax)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// EligibleStatuses returns the trimmed, non-empty order statuses.
func (c *Config) EligibleStatuses() []string {
	out := make([]string, 0, len(c.OrderEligibleStatuses))
	for _, s := range c.OrderEligibleStatuses {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func (c *Config) RateLimitWindow() time.Duration   { return seconds(c.RateLimitWindowSeconds) }
func (c *Config) SubmitInterval() time.Duration    { return seconds(c.SubmitIntervalSeconds) }
func (c *Config) StatsCacheTTL() time.Duration     { return seconds(c.StatsCacheTTLSeconds) }
func (c *Config) FragmentCacheTTL() time.Duration  { return seconds(c.FragmentCacheTTLSeconds) }
func (c *Config) LastOrderCacheTTL() time.Duration { return seconds(c.LastOrderCacheTTLSeconds) }
