package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gustavofullstack/udia-reviews-v2/internal/service"
	"github.com/gustavofullstack/udia-reviews-v2/pkg/httputil"
)

const defaultSecurityEvents = 50

// AdminHandler serves operator endpoints. Routes are mounted behind
// RequireRole("admin").
type AdminHandler struct {
	admin  *service.AdminService
	logger *slog.Logger
}

func NewAdminHandler(admin *service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

// DeleteReview handles DELETE /api/v1/admin/reviews/{id}
func (h *AdminHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.admin.DeleteReview(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SecurityEvents handles GET /api/v1/admin/reviews/security-events
func (h *AdminHandler) SecurityEvents(w http.ResponseWriter, r *http.Request) {
	n := defaultSecurityEvents
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "limit must be a positive integer"},
			})
			return
		}
		n = parsed
	}

	events, err := h.admin.SecurityEvents(r.Context(), n)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: events})
}
