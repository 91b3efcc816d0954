package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gustavofullstack/udia-reviews-v2/internal/domain"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New("https://example.com/feedback/")
	require.NoError(t, err)
	return r
}

func sampleCard(id string) domain.ReviewCard {
	return domain.NewReviewCard(domain.Review{
		ID:           id,
		AuthorID:     "42",
		AuthorName:   "Maria Silva",
		Rating:       4,
		Content:      "Primeira linha\nsegunda linha\n\nOutro parágrafo <b>sem</b> tags",
		ProductLabel: "Caneca & Pires",
		CreatedAt:    time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	})
}

func TestRenderer_Card(t *testing.T) {
	html, err := newRenderer(t).Card(sampleCard("r1"))
	require.NoError(t, err)

	assert.Contains(t, html, `id="udia-review-r1"`)
	assert.Contains(t, html, `style="background:hsl(264.0, 68%, 56%); color:#ffffff;"`)
	assert.Contains(t, html, ">MS</div>")
	assert.Contains(t, html, `<div class="udia-review-rating">★★★★</div>`)
	assert.Contains(t, html, "Produto: Caneca &amp; Pires")
	assert.Contains(t, html, "<p>Primeira linha<br />\nsegunda linha</p>")
	assert.Contains(t, html, "&lt;b&gt;sem&lt;/b&gt;")
}

func TestRenderer_CardWithoutLabel(t *testing.T) {
	card := sampleCard("r1")
	card.ProductLabel = ""
	html, err := newRenderer(t).Card(card)
	require.NoError(t, err)
	assert.NotContains(t, html, "udia-review-product")
}

func TestRenderer_ListAndProductReviews(t *testing.T) {
	r := newRenderer(t)
	cards := []domain.ReviewCard{sampleCard("a"), sampleCard("b")}

	html, err := r.List(cards)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(html, "udia-single-review"))

	html, err = r.ProductReviews(nil)
	require.NoError(t, err)
	assert.Contains(t, html, "Este produto ainda não possui avaliações.")

	html, err = r.ProductReviews(cards)
	require.NoError(t, err)
	assert.Contains(t, html, "<h3>Avaliações de Clientes</h3>")
}

func TestRenderer_Carousel(t *testing.T) {
	r := newRenderer(t)

	html, err := r.Carousel(nil)
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(html))

	cards := make([]domain.ReviewCard, 7)
	for i := range cards {
		cards[i] = sampleCard(string(rune('a' + i)))
		cards[i].Content = strings.Repeat("palavra ", 30)
	}
	html, err = r.Carousel(cards)
	require.NoError(t, err)
	assert.Equal(t, 7, strings.Count(html, "udia-carousel-slide"))
	assert.Equal(t, 5, strings.Count(html, "udia-carousel-dot\""))
	assert.Contains(t, html, strings.TrimSpace(strings.Repeat("palavra ", 20))+"...")
}

func TestRenderer_Summaries(t *testing.T) {
	r := newRenderer(t)

	html, err := r.ProductSummary(domain.Stats{AverageRating: 4.5, TotalReviews: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, strings.Count(html, "udia-product-star filled"))
	assert.Contains(t, html, `<div class="udia-product-review-count">2</div>`)

	html, err = r.ProductSummary(domain.Stats{})
	require.NoError(t, err)
	assert.Equal(t, 5, strings.Count(html, "udia-product-star filled"), "no reviews displays 5.0")
	assert.NotContains(t, html, "udia-product-review-count")

	html, err = r.GlobalSummary(domain.Stats{AverageRating: 3.2, TotalReviews: 0})
	require.NoError(t, err)
	assert.Contains(t, html, `href="https://example.com/feedback/"`)
	assert.Contains(t, html, `<div class="udia-product-review-count">0</div>`)

	html, err = r.GlobalSummary(domain.Stats{AverageRating: 3.2, TotalReviews: 9})
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(html, "udia-product-star filled"))
	assert.Equal(t, 2, strings.Count(html, `"udia-product-star"`))
}
