package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsLikelySpam(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"clean review", "Produto excelente, chegou rápido e bem embalado!", false},
		{"keyword", "best casino bonus around", true},
		{"keyword upper case", "BUY NOW while it lasts", true},
		{"link", "veja em https://example.com", true},
		{"www", "see www.example.com", true},
		{"eleven repeated runes", "ótimo" + strings.Repeat("!", 11), true},
		{"ten repeated runes", "ótimo" + strings.Repeat("!", 10), false},
		{"repeated multibyte rune", strings.Repeat("é", 11), true},
		{"keyword inside word", "a verdadeira cialisfera", true},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLikelySpam(tt.text))
		})
	}
}

func TestCountLinks(t *testing.T) {
	assert.Equal(t, 0, countLinks("nenhum link aqui"))
	assert.Equal(t, 3, countLinks("http://a https://b www.c"))
	assert.Equal(t, 2, countLinks("https://www."))
}
