package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gustavofullstack/udia-reviews-v2/pkg/health"
	"github.com/gustavofullstack/udia-reviews-v2/pkg/middleware"
)

const serviceName = "reviews"

// RouterConfig carries the edge settings of the HTTP surface.
type RouterConfig struct {
	Validator    middleware.TokenValidator
	TrustGateway bool
	CORS         middleware.CORSConfig
	PprofCIDRs   []string
	EdgeRPS      float64
	EdgeBurst    int
	// CacheMaxAge is the Cache-Control max-age of read endpoints, in seconds.
	CacheMaxAge int
}

// NewRouter creates a chi router with all reviews routes registered.
func NewRouter(
	reviews *ReviewHandler,
	admin *AdminHandler,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RealIP)
	r.Use(middleware.Authenticate(cfg.Validator, cfg.TrustGateway, logger))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.CORS))

		r.Get("/last-order-products", reviews.LastOrderProducts)

		r.Group(func(r chi.Router) {
			if cfg.EdgeRPS > 0 {
				r.Use(middleware.RateLimit(cfg.EdgeRPS, cfg.EdgeBurst, logger))
			}
			r.Use(AcceptReviewBody)
			r.Post("/", reviews.SubmitReview)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(cfg.CacheMaxAge))
			r.Get("/", reviews.ListReviews)
			r.Get("/carousel", reviews.Carousel)
			r.Get("/summary/product", reviews.ProductSummary)
			r.Get("/summary/global", reviews.GlobalSummary)
			r.Get("/{id}", reviews.GetReview)
		})
	})

	r.Route("/api/v1/admin/reviews", func(r chi.Router) {
		r.Use(middleware.RequireRole("admin"))
		r.Get("/security-events", admin.SecurityEvents)
		r.Delete("/{id}", admin.DeleteReview)
	})

	return r
}
