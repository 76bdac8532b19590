package service

import (
	"strings"
	"time"

	"amalajeun/internal/model"
)

// FilterSpots applies the optional, AND-combined predicates from filters to
// the spot collection against the supplied clock. The result is an
// order-preserving subsequence; the input slice is never mutated. With no
// filters set it returns a copy of the input unchanged, so it is cheap and
// safe to call on every UI input event.
func FilterSpots(spots []model.Spot, filters *model.QueryFilters, now time.Time) []model.Spot {
	out := make([]model.Spot, 0, len(spots))
	for _, s := range spots {
		if matchesFilters(s, filters, now) {
			out = append(out, s)
		}
	}
	return out
}

func matchesFilters(s model.Spot, filters *model.QueryFilters, now time.Time) bool {
	if filters == nil {
		return true
	}

	if filters.VerifiedOnly && !s.Verified {
		return false
	}
	if filters.DineInOnly && !s.DineIn {
		return false
	}
	if filters.OpenNow && !IsOpenNowOrDefault(s.OpeningTime, s.ClosingTime, now) {
		return false
	}

	if filters.PriceMin != nil || filters.PriceMax != nil {
		price := s.Price
		if price == 0 {
			price = DefaultPrice
		}
		if filters.PriceMin != nil && price < *filters.PriceMin {
			return false
		}
		if filters.PriceMax != nil && price > *filters.PriceMax {
			return false
		}
	}

	if q := strings.TrimSpace(filters.Query); q != "" {
		q = strings.ToLower(q)
		if !strings.Contains(strings.ToLower(s.Name), q) &&
			!strings.Contains(strings.ToLower(s.Address), q) {
			return false
		}
	}

	return true
}
