package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gustavofullstack/udia-reviews-v2/internal/service"
	"github.com/gustavofullstack/udia-reviews-v2/pkg/httputil"
	"github.com/gustavofullstack/udia-reviews-v2/pkg/logger"
	"github.com/gustavofullstack/udia-reviews-v2/pkg/middleware"
	"github.com/gustavofullstack/udia-reviews-v2/pkg/pagination"
	"github.com/gustavofullstack/udia-reviews-v2/pkg/validator"
)

const maxBodyBytes = 64 << 10

const msgInvalidBody = "invalid request body"

// MaxCarouselSize caps the carousel limit parameter.
const MaxCarouselSize = 50

// ReviewHandler serves the public review endpoints.
type ReviewHandler struct {
	submissions *service.SubmissionService
	listing     *service.ListingService
	resolver    *service.Resolver
	logger      *slog.Logger
}

func NewReviewHandler(submissions *service.SubmissionService, listing *service.ListingService, resolver *service.Resolver, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		submissions: submissions,
		listing:     listing,
		resolver:    resolver,
		logger:      logger,
	}
}

// SubmitReviewRequest is the review form. Name and Rating are pointers so an
// absent field can be told apart from an empty one.
type SubmitReviewRequest struct {
	Name          *string `json:"name"`
	Rating        *int    `json:"rating"`
	Content       string  `json:"content"`
	OrderItemID   string  `json:"order_item_id" validate:"max=64"`
	ManualProduct string  `json:"manual_product" validate:"max=255"`
	Honeypot      string  `json:"udia_honeypot"`
}

// LastOrderProducts handles GET /api/v1/reviews/last-order-products
func (h *ReviewHandler) LastOrderProducts(w http.ResponseWriter, r *http.Request) {
	order, err := h.resolver.LastOrderProducts(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// SubmitReview handles POST /api/v1/reviews
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	req, err := decodeSubmitRequest(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "undecodable review body", slog.String("error", err.Error()))
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: msgInvalidBody},
		})
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	ctx := r.Context()
	input := service.SubmitInput{
		UserID:          middleware.UserIDFromContext(ctx),
		UserDisplayName: middleware.DisplayNameFromContext(ctx),
		ClientIP:        logger.ClientIPFromContext(ctx),
		Name:            req.Name,
		Rating:          req.Rating,
		Content:         req.Content,
		OrderItemID:     strings.TrimSpace(req.OrderItemID),
		ManualProduct:   req.ManualProduct,
		Honeypot:        req.Honeypot,
	}
	if input.ClientIP == "" {
		input.ClientIP = middleware.ClientIP(r)
	}

	res, err := h.submissions.Submit(ctx, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: res})
}

func decodeSubmitRequest(r *http.Request) (*SubmitReviewRequest, error) {
	var req SubmitReviewRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		form := r.PostForm
		req.Content = form.Get("content")
		req.OrderItemID = form.Get("order_item_id")
		req.ManualProduct = form.Get("manual_product")
		req.Honeypot = form.Get("udia_honeypot")
		if form.Has("name") {
			name := form.Get("name")
			req.Name = &name
		}
		if form.Has("rating") {
			// A present but non-numeric rating counts as 0, which fails the
			// star-selection check and is clamped if stored.
			rating, _ := strconv.Atoi(strings.TrimSpace(form.Get("rating")))
			req.Rating = &rating
		}
		return &req, nil
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ListReviews handles GET /api/v1/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequestWith(r, pagination.Options{
		DefaultPerPage: service.DefaultListSize,
		AllowUnbounded: true,
	})
	q := r.URL.Query()

	view, err := h.listing.List(r.Context(), service.ListQuery{
		ProductID:   strings.TrimSpace(q.Get("product_id")),
		VariationID: strings.TrimSpace(q.Get("variation_id")),
		Limit:       page.Limit(),
		Offset:      page.Offset,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// GetReview handles GET /api/v1/reviews/{id}
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	view, err := h.listing.Get(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// Carousel handles GET /api/v1/reviews/carousel
func (h *ReviewHandler) Carousel(w http.ResponseWriter, r *http.Request) {
	limit := service.DefaultCarouselSize
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxCarouselSize {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{
					Code:    "INVALID_PARAMETER",
					Message: "limit must be an integer between 1 and " + strconv.Itoa(MaxCarouselSize),
				},
			})
			return
		}
		limit = n
	}

	view, err := h.listing.Carousel(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// ProductSummary handles GET /api/v1/reviews/summary/product
func (h *ReviewHandler) ProductSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := h.listing.ProductSummary(r.Context(),
		strings.TrimSpace(q.Get("product_id")),
		strings.TrimSpace(q.Get("variation_id")),
	)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}

// GlobalSummary handles GET /api/v1/reviews/summary/global
func (h *ReviewHandler) GlobalSummary(w http.ResponseWriter, r *http.Request) {
	view, err := h.listing.GlobalSummary(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: view})
}
