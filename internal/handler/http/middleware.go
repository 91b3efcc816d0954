package http

import (
	"net/http"
	"strings"
)

// AcceptReviewBody rejects write requests whose body is neither JSON nor a
// URL-encoded form.
func AcceptReviewBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost {
			ct := r.Header.Get("Content-Type")
			if !strings.HasPrefix(ct, "application/json") && !strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json or application/x-www-form-urlencoded"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
