// Package render turns review views into the HTML fragments served next to
// the JSON payloads. All output goes through html/template escaping.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/gustavofullstack/udia-reviews-v2/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

const maxCarouselDots = 5

// Renderer executes the fragment templates.
type Renderer struct {
	tmpl        *template.Template
	feedbackURL string
}

// New parses the embedded templates. feedbackURL, when set, wraps the
// global summary in a link.
func New(feedbackURL string) (*Renderer, error) {
	tmpl, err := template.New("reviews").Funcs(template.FuncMap{
		"lines":      func(s string) []string { return strings.Split(s, "\n") },
		"paragraphs": domain.Paragraphs,
		// Avatar colours are generated, never user input.
		"css": func(s string) template.CSS { return template.CSS(s) }, // #nosec G203
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl, feedbackURL: feedbackURL}, nil
}

func (r *Renderer) exec(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// Card renders a single review, as prepended by the form after a submit.
func (r *Renderer) Card(card domain.ReviewCard) (string, error) {
	return r.exec("card", card)
}

func (r *Renderer) List(cards []domain.ReviewCard) (string, error) {
	return r.exec("list", cards)
}

// ProductReviews renders the full review block of a product page, or the
// empty-state message.
func (r *Renderer) ProductReviews(cards []domain.ReviewCard) (string, error) {
	return r.exec("product_reviews", cards)
}

// Carousel renders the slider markup. It is empty when there are no cards.
func (r *Renderer) Carousel(cards []domain.ReviewCard) (string, error) {
	dots := make([]int, min(maxCarouselDots, len(cards)))
	for i := range dots {
		dots[i] = i + 1
	}
	return r.exec("carousel", struct {
		Cards []domain.ReviewCard
		Dots  []int
	}{cards, dots})
}

type summaryView struct {
	Filled []struct{}
	Empty  []struct{}
	Count  int
	Link   string
}

func newSummaryView(stats domain.Stats) summaryView {
	filled, empty := domain.StarSplit(stats.DisplayRating())
	return summaryView{
		Filled: make([]struct{}, filled),
		Empty:  make([]struct{}, empty),
		Count:  stats.TotalReviews,
	}
}

// ProductSummary renders the star row; the count is shown only when there
// are reviews.
func (r *Renderer) ProductSummary(stats domain.Stats) (string, error) {
	return r.exec("product_summary", newSummaryView(stats))
}

// GlobalSummary renders the store-wide star row; the count is always shown.
func (r *Renderer) GlobalSummary(stats domain.Stats) (string, error) {
	v := newSummaryView(stats)
	v.Link = r.feedbackURL
	return r.exec("global_summary", v)
}
