// Package orders looks up a customer's last eligible order on the order
// service.
package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gustavofullstack/udia-reviews-v2/internal/domain"
	apperrors "github.com/gustavofullstack/udia-reviews-v2/pkg/errors"
	"github.com/gustavofullstack/udia-reviews-v2/pkg/httpclient"
	"github.com/gustavofullstack/udia-reviews-v2/pkg/httputil"
)

const serviceName = "order"

// DefaultLookback is how many of the user's newest orders are scanned for an
// eligible one.
const DefaultLookback = 20

// HTTPDoer executes requests. httpclient.Client and
// httpclient.CircuitBreakerClient both satisfy it.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// CircuitOpenFallback answers for the order service while its breaker is open.
func CircuitOpenFallback(_ context.Context, _ error) (*http.Response, error) {
	return nil, apperrors.ServiceUnavailable("order service is temporarily unavailable")
}

type orderItem struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

type order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Status    string      `json:"status"`
	Items     []orderItem `json:"items"`
	CreatedAt time.Time   `json:"created_at"`
}

// Client reads orders over HTTP.
type Client struct {
	http     HTTPDoer
	baseURL  string
	eligible map[string]struct{}
	lookback int
	logger   *slog.Logger
}

// NewClient builds a client for the order service at baseURL. Only orders
// in one of eligibleStatuses count.
func NewClient(doer HTTPDoer, baseURL string, eligibleStatuses []string, logger *slog.Logger) *Client {
	eligible := make(map[string]struct{}, len(eligibleStatuses))
	for _, s := range eligibleStatuses {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			eligible[s] = struct{}{}
		}
	}
	return &Client{
		http:     doer,
		baseURL:  strings.TrimRight(baseURL, "/"),
		eligible: eligible,
		lookback: DefaultLookback,
		logger:   logger,
	}
}

// WithLookback changes how many recent orders are scanned.
func (c *Client) WithLookback(n int) *Client {
	if n > 0 {
		c.lookback = n
	}
	return c
}

// LastEligibleOrder returns the newest order of userID whose status is
// eligible, or nil when there is none.
func (c *Client) LastEligibleOrder(ctx context.Context, userID string) (*domain.LastOrder, error) {
	q := url.Values{}
	q.Set("user_id", userID)
	q.Set("page", "1")
	q.Set("per_page", strconv.Itoa(c.lookback))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/orders?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build order list request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-User-ID", userID)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call order service: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, serviceName)
	}
	defer resp.Body.Close()

	var page httputil.PaginatedResponse[order]
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode order list: %w", err)
	}

	latest := c.pickLatest(page.Data, userID)
	if latest == nil {
		c.logger.DebugContext(ctx, "no eligible order",
			slog.String("user_id", userID),
			slog.Int("scanned", len(page.Data)),
		)
		return nil, nil
	}
	return toLastOrder(latest), nil
}

func (c *Client) pickLatest(orders []order, userID string) *order {
	var latest *order
	for i := range orders {
		o := &orders[i]
		if o.UserID != "" && o.UserID != userID {
			continue
		}
		if _, ok := c.eligible[strings.ToLower(o.Status)]; !ok {
			continue
		}
		if latest == nil || o.CreatedAt.After(latest.CreatedAt) {
			latest = o
		}
	}
	return latest
}

func toLastOrder(o *order) *domain.LastOrder {
	out := &domain.LastOrder{OrderID: o.ID, Items: make([]domain.OrderItem, 0, len(o.Items))}
	for _, it := range o.Items {
		out.Items = append(out.Items, domain.OrderItem{
			ItemID:      it.ID,
			ProductID:   it.ProductID,
			VariationID: it.VariantID,
			Label:       it.Name,
		})
	}
	return out
}
