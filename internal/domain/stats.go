package domain

// Zero-review averages. The global widget renders stars without checking
// the count, so it gets an optimistic 5.0; product views branch on the count.
const (
	ProductZeroAverage = 0.0
	GlobalZeroAverage  = 5.0
)

// Stats is an aggregated rating snapshot. ProductID and VariationID are empty
// for the global snapshot.
type Stats struct {
	ProductID     string  `json:"product_id,omitempty"`
	VariationID   string  `json:"variation_id,omitempty"`
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int     `json:"total_reviews"`
}

// Aggregate averages ratings, clamping each into [1,5] and rounding half-up
// to one decimal with integer arithmetic. zeroAverage is returned when
// ratings is empty.
func Aggregate(ratings []int, zeroAverage float64) Stats {
	if len(ratings) == 0 {
		return Stats{AverageRating: zeroAverage}
	}
	sum := 0
	for _, r := range ratings {
		sum += ClampRating(r)
	}
	n := len(ratings)
	// round(10*sum/n) half-up == floor((20*sum + n) / 2n)
	tenths := (20*sum + n) / (2 * n)
	return Stats{AverageRating: float64(tenths) / 10, TotalReviews: n}
}

// DisplayRating is the average shown in summaries: 5.0 when there are no
// reviews yet.
func (s Stats) DisplayRating() float64 {
	if s.TotalReviews == 0 {
		return GlobalZeroAverage
	}
	return s.AverageRating
}

// StarSplit returns how many of five stars are filled for avg. A fractional
// part of .5 or more fills the next star.
func StarSplit(avg float64) (filled, empty int) {
	tenths := int(avg*10 + 0.5)
	filled = tenths / 10
	if tenths%10 >= 5 {
		filled++
	}
	if filled > MaxRating {
		filled = MaxRating
	}
	if filled < 0 {
		filled = 0
	}
	return filled, MaxRating - filled
}
