package domain

import (
	"strings"
	"time"
)

const (
	FilledStar = "★"
	EmptyStar  = "☆"

	CarouselExcerptWords = 20
	ExcerptSuffix        = "..."
)

// ReviewCard is the render-ready view of a review.
type ReviewCard struct {
	ID           string    `json:"id"`
	Avatar       Avatar    `json:"avatar"`
	AuthorName   string    `json:"author_name"`
	Rating       int       `json:"rating"`
	Stars        string    `json:"stars"`
	ProductLabel string    `json:"product_label,omitempty"`
	Content      string    `json:"content"`
	Paragraphs   []string  `json:"paragraphs"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewReviewCard(r Review) ReviewCard {
	rating := ClampRating(r.Rating)
	return ReviewCard{
		ID:           r.ID,
		Avatar:       NewAvatar(r.AuthorName, r.AuthorID),
		AuthorName:   r.AuthorName,
		Rating:       rating,
		Stars:        strings.Repeat(FilledStar, rating),
		ProductLabel: r.ProductLabel,
		Content:      r.Content,
		Paragraphs:   Paragraphs(r.Content),
		CreatedAt:    r.CreatedAt,
	}
}

// Excerpt is the card content shortened for the carousel. Content that fits
// is returned as is; a cut excerpt is a single line.
func (c ReviewCard) Excerpt() string {
	if len(strings.Fields(c.Content)) <= CarouselExcerptWords {
		return c.Content
	}
	return TrimWords(c.Content, CarouselExcerptWords, ExcerptSuffix)
}
