package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gustavofullstack/udia-reviews-v2/internal/domain"
	"github.com/gustavofullstack/udia-reviews-v2/internal/render"
	"github.com/gustavofullstack/udia-reviews-v2/internal/repository/memory"
	redisrepo "github.com/gustavofullstack/udia-reviews-v2/internal/repository/redis"
	apperrors "github.com/gustavofullstack/udia-reviews-v2/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// fakeClock drives both the services and miniredis TTLs.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
	mr *miniredis.Miniredis
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
	c.mr.FastForward(d)
}

type fakeOrders struct {
	mu    sync.Mutex
	order *domain.LastOrder
	err   error
	calls int
}

func (f *fakeOrders) LastEligibleOrder(_ context.Context, _ string) (*domain.LastOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.order, f.err
}

func (f *fakeOrders) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type mockObserver struct {
	mock.Mock
}

func (m *mockObserver) OnReviewPersisted(ctx context.Context, review *domain.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *mockObserver) OnReviewDeleted(ctx context.Context, review *domain.Review) error {
	return m.Called(ctx, review).Error(0)
}

// failingRepo fails every Create.
type failingRepo struct {
	*memory.ReviewRepository
}

func (failingRepo) Create(context.Context, *domain.Review) error {
	return errors.New("connection reset by peer")
}

type testEnv struct {
	mr        *miniredis.Miniredis
	clock     *fakeClock
	repo      *memory.ReviewRepository
	orders    *fakeOrders
	limiter   *RateLimiter
	resolver  *Resolver
	stats     *StatsService
	fragments *FragmentCache
	security  *SecurityLog
	listing   *ListingService
	submit    *SubmissionService
	admin     *AdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := testLogger()
	clock := &fakeClock{t: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC), mr: mr}
	renderer, err := render.New("")
	require.NoError(t, err)

	env := &testEnv{
		mr:     mr,
		clock:  clock,
		repo:   memory.NewReviewRepository(),
		orders: &fakeOrders{},
	}
	env.limiter = NewRateLimiter(redisrepo.NewRateLimitStore(client), DefaultRateLimitPolicy()).WithClock(clock.Now)
	env.resolver = NewResolver(env.orders, redisrepo.NewLastOrderCache(client, 5*time.Minute), logger)
	env.stats = NewStatsService(env.repo, redisrepo.NewStatsCache(client, 10*time.Minute), logger)
	env.fragments = NewFragmentCache(redisrepo.NewFragmentCache(client), logger)
	env.security = NewSecurityLog(redisrepo.NewSecurityLog(client, 100), logger).WithClock(clock.Now)
	env.listing = NewListingService(env.repo, env.stats, renderer, env.fragments, 10*time.Minute)
	env.submit = NewSubmissionService(env.repo, env.limiter, env.resolver, env.stats, env.fragments,
		env.security, renderer, ContentBounds{Min: domain.MinContentLength, Max: domain.MaxContentLength}, logger).
		WithClock(clock.Now)
	env.admin = NewAdminService(env.repo, env.stats, env.fragments, env.security, logger)
	return env
}

func (e *testEnv) reviews(t *testing.T) []domain.Review {
	t.Helper()
	all, err := e.repo.Query(context.Background(), allReviews)
	require.NoError(t, err)
	return all
}

// userMessage is what the client would see for err.
func userMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ""
}

func ptr[T any](v T) *T { return &v }

func validInput(userID string) SubmitInput {
	return SubmitInput{
		UserID:          userID,
		UserDisplayName: "Maria Silva",
		ClientIP:        "203.0.113.7",
		Rating:          ptr(5),
		Content:         "Produto chegou rápido e é excelente.",
		ManualProduct:   "Camiseta Básica",
	}
}
