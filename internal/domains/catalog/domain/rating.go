package domain

import "math"

// RatingSummary is the derived aggregate over a product's comments.
type RatingSummary struct {
	TotalRatings  int
	AverageRating float64
	// CountsByStar holds the histogram; index 0 is one star.
	CountsByStar [5]int
}

// Count returns the number of ratings with the given star value.
func (s RatingSummary) Count(star int) int {
	if star < 1 || star > 5 {
		return 0
	}
	return s.CountsByStar[star-1]
}

// Summarize computes the rating summary from scratch.
func Summarize(comments []Comment) RatingSummary {
	var summary RatingSummary
	sum := 0
	for _, c := range comments {
		if c.Rating < 1 || c.Rating > 5 {
			continue
		}
		summary.CountsByStar[c.Rating-1]++
		summary.TotalRatings++
		sum += c.Rating
	}
	if summary.TotalRatings > 0 {
		mean := float64(sum) / float64(summary.TotalRatings)
		summary.AverageRating = math.Round(mean*10) / 10
	}
	return summary
}

// RecomputeRating refreshes Summary and Rating from the embedded comments.
func (p *Product) RecomputeRating() {
	p.Summary = Summarize(p.Comments)
	p.Rating = int(math.Round(p.Summary.AverageRating))
}
