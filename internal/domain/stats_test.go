package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    Stats
	}{
		{"single", []int{4}, Stats{AverageRating: 4.0, TotalReviews: 1}},
		{"exact half", []int{5, 4}, Stats{AverageRating: 4.5, TotalReviews: 2}},
		{"rounds down", []int{5, 4, 4}, Stats{AverageRating: 4.3, TotalReviews: 3}},
		{"half up", []int{4, 5, 5, 5}, Stats{AverageRating: 4.8, TotalReviews: 4}},
		{"out of range clamped", []int{0, 9}, Stats{AverageRating: 3.0, TotalReviews: 2}},
		{"negative clamped", []int{-3}, Stats{AverageRating: 1.0, TotalReviews: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Aggregate(tt.ratings, ProductZeroAverage))
		})
	}
}

func TestAggregate_ZeroDefaults(t *testing.T) {
	assert.Equal(t, Stats{AverageRating: 0, TotalReviews: 0}, Aggregate(nil, ProductZeroAverage))
	assert.Equal(t, Stats{AverageRating: 5.0, TotalReviews: 0}, Aggregate(nil, GlobalZeroAverage))
}

func TestDisplayRating(t *testing.T) {
	assert.Equal(t, 5.0, Stats{}.DisplayRating())
	assert.Equal(t, 3.7, Stats{AverageRating: 3.7, TotalReviews: 3}.DisplayRating())
}

func TestStarSplit(t *testing.T) {
	tests := []struct {
		avg           float64
		filled, empty int
	}{
		{0, 0, 5},
		{4.3, 4, 1},
		{4.5, 5, 0},
		{3.5, 4, 1},
		{2.4, 2, 3},
		{5.0, 5, 0},
	}
	for _, tt := range tests {
		filled, empty := StarSplit(tt.avg)
		assert.Equal(t, tt.filled, filled, "avg %.1f", tt.avg)
		assert.Equal(t, tt.empty, empty, "avg %.1f", tt.avg)
	}
}

func TestClampRating(t *testing.T) {
	assert.Equal(t, 1, ClampRating(-5))
	assert.Equal(t, 1, ClampRating(0))
	assert.Equal(t, 3, ClampRating(3))
	assert.Equal(t, 5, ClampRating(6))
	assert.True(t, ValidRating(1))
	assert.False(t, ValidRating(0))
}
