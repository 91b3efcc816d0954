package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/gustavofullstack/udia-reviews-v2/internal/domain"
	"github.com/gustavofullstack/udia-reviews-v2/internal/repository"
	"github.com/gustavofullstack/udia-reviews-v2/pkg/database"
	apperrors "github.com/gustavofullstack/udia-reviews-v2/pkg/errors"
)

// ReviewRepository implements review persistence operations using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

var _ repository.ReviewRepository = (*ReviewRepository)(nil)

// Optional ids are stored as NULL and read back as "".
const reviewColumns = `id, author_id, author_name, rating, content,
	COALESCE(product_id, ''), COALESCE(variation_id, ''), COALESCE(order_item_id, ''),
	product_label, status, created_at`

// Create inserts a new review into the database.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) (err error) {
	query := `
		INSERT INTO reviews (id, author_id, author_name, rating, content,
			product_id, variation_id, order_item_id, product_label, status, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), $9, $10, $11)`

	ctx, end := database.TraceQuery(ctx, "CreateReview", query)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, query,
		review.ID,
		review.AuthorID,
		review.AuthorName,
		review.Rating,
		review.Content,
		review.ProductID,
		review.VariationID,
		review.OrderItemID,
		review.ProductLabel,
		review.Status,
		review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// GetByID retrieves a published review by its identifier.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (_ *domain.Review, err error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1 AND status = $2`

	ctx, end := database.TraceQuery(ctx, "GetReview", query)
	defer func() { end(err) }()

	rv, err := scanReview(r.pool.QueryRow(ctx, query, id, domain.StatusPublished))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("review", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	return rv, nil
}

// Query returns published reviews matching filter, newest first.
func (r *ReviewRepository) Query(ctx context.Context, filter repository.ReviewFilter) (_ []domain.Review, err error) {
	where, args := whereClause(filter)
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE ` + where +
		` ORDER BY created_at DESC, id DESC`
	if filter.Limit != repository.Unbounded {
		args = append(args, max(filter.Limit, 0), max(filter.Offset, 0))
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	} else if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	ctx, end := database.TraceQuery(ctx, "QueryReviews", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, *rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}
	return reviews, nil
}

// ListRatings returns the raw ratings of every matching review.
func (r *ReviewRepository) ListRatings(ctx context.Context, filter repository.ReviewFilter) (_ []int, err error) {
	where, args := whereClause(filter)
	query := `SELECT rating FROM reviews WHERE ` + where

	ctx, end := database.TraceQuery(ctx, "ListRatings", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	ratings := []int{}
	for rows.Next() {
		var rating int
		if err := rows.Scan(&rating); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratings: %w", err)
	}
	return ratings, nil
}

// Delete removes a review by its identifier.
func (r *ReviewRepository) Delete(ctx context.Context, id string) (err error) {
	query := `DELETE FROM reviews WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteReview", query)
	defer func() { end(err) }()

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}
	return nil
}

func whereClause(filter repository.ReviewFilter) (string, []any) {
	conds := []string{"status = $1"}
	args := []any{domain.StatusPublished}
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	f := filter.Effective()
	switch f.Mode {
	case repository.FilterProduct:
		add("product_id = $%d", f.ProductID)
	case repository.FilterVariation:
		add("variation_id = $%d", f.VariationID)
	case repository.FilterProductOrVariation:
		args = append(args, f.ProductID, f.VariationID)
		conds = append(conds, fmt.Sprintf("(product_id = $%d OR variation_id = $%d)", len(args)-1, len(args)))
	}
	return strings.Join(conds, " AND "), args
}

func scanReview(row pgx.Row) (*domain.Review, error) {
	var rv domain.Review
	if err := row.Scan(
		&rv.ID,
		&rv.AuthorID,
		&rv.AuthorName,
		&rv.Rating,
		&rv.Content,
		&rv.ProductID,
		&rv.VariationID,
		&rv.OrderItemID,
		&rv.ProductLabel,
		&rv.Status,
		&rv.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &rv, nil
}
