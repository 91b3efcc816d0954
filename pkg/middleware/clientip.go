package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gustavofullstack/udia-reviews-v2/pkg/logger"
)

// ClientIP resolves the caller address from CF-Connecting-IP, the first
// X-Forwarded-For entry, X-Real-IP, then RemoteAddr. Header values that are
// not valid IPs are skipped. Returns "" when nothing parses.
func ClientIP(r *http.Request) string {
	candidates := []string{r.Header.Get("CF-Connecting-IP")}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		candidates = append(candidates, first)
	}
	candidates = append(candidates, r.Header.Get("X-Real-IP"))

	for _, c := range candidates {
		if ip := net.ParseIP(strings.TrimSpace(c)); ip != nil {
			return ip.String()
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.String()
	}
	return ""
}

// RealIP stores the resolved client IP in the request context for logging
// and for handlers (logger.ClientIPFromContext).
func RealIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip := ClientIP(r); ip != "" {
			r = r.WithContext(logger.WithClientIP(r.Context(), ip))
		}
		next.ServeHTTP(w, r)
	})
}
