package service

import (
	"reflect"
	"testing"
	"time"

	"amalajeun/internal/model"
)

func f64(v float64) *float64 { return &v }

func sampleSpots() []model.Spot {
	return []model.Spot{
		{
			ID: "a", Name: "Amala Sky", Address: "12 Allen Avenue, Ikeja",
			OpeningTime: "09:00", ClosingTime: "17:00",
			Price: 1000, DineIn: true, Verified: true,
		},
		{
			ID: "b", Name: "Mama Jude", Address: "Akerele Road, Surulere",
			OpeningTime: "22:00", ClosingTime: "02:00",
			Price: 4500, DineIn: false, Verified: false,
		},
		{
			ID: "c", Name: "Iya Meta", Address: "Bodija Market, Ibadan",
			OpeningTime: "08:00", ClosingTime: "20:00",
			Price: 0, DineIn: true, Verified: true,
		},
		{
			ID: "d", Name: "White Amala Corner", Address: "Lekki Phase 1",
			OpeningTime: "garbage", ClosingTime: "",
			Price: 10000, DineIn: false, Verified: false,
		},
	}
}

func ids(spots []model.Spot) []string {
	out := make([]string, 0, len(spots))
	for _, s := range spots {
		out = append(out, s.ID)
	}
	return out
}

func TestFilterSpotsNoFilters(t *testing.T) {
	spots := sampleSpots()

	got := FilterSpots(spots, nil, clock(12, 0))
	if !reflect.DeepEqual(ids(got), []string{"a", "b", "c", "d"}) {
		t.Errorf("nil filters should return every spot in order, got %v", ids(got))
	}

	got = FilterSpots(spots, &model.QueryFilters{}, clock(12, 0))
	if !reflect.DeepEqual(ids(got), []string{"a", "b", "c", "d"}) {
		t.Errorf("empty filters should return every spot in order, got %v", ids(got))
	}
}

func TestFilterSpotsPredicates(t *testing.T) {
	tests := []struct {
		name    string
		filters model.QueryFilters
		now     time.Time
		want    []string
	}{
		{
			name:    "verified only",
			filters: model.QueryFilters{VerifiedOnly: true},
			now:     clock(12, 0),
			want:    []string{"a", "c"},
		},
		{
			name:    "dine in only",
			filters: model.QueryFilters{DineInOnly: true},
			now:     clock(12, 0),
			want:    []string{"a", "c"},
		},
		{
			// "d" has unusable hours and falls back to 09:00-17:00.
			name:    "open at noon",
			filters: model.QueryFilters{OpenNow: true},
			now:     clock(12, 0),
			want:    []string{"a", "c", "d"},
		},
		{
			name:    "open past midnight catches the overnight spot",
			filters: model.QueryFilters{OpenNow: true},
			now:     clock(1, 0),
			want:    []string{"b"},
		},
		{
			// Zero price is treated as the documented default 1000, so "c"
			// stays in while 500 as a max would drop everything.
			name:    "price range inclusive bounds",
			filters: model.QueryFilters{PriceMin: f64(1000), PriceMax: f64(10000)},
			now:     clock(12, 0),
			want:    []string{"a", "b", "c", "d"},
		},
		{
			name:    "price max excludes defaulted zero price",
			filters: model.QueryFilters{PriceMax: f64(500)},
			now:     clock(12, 0),
			want:    []string{},
		},
		{
			name:    "free text matches name case-insensitively",
			filters: model.QueryFilters{Query: "amala"},
			now:     clock(12, 0),
			want:    []string{"a", "d"},
		},
		{
			name:    "free text matches address",
			filters: model.QueryFilters{Query: "surulere"},
			now:     clock(12, 0),
			want:    []string{"b"},
		},
		{
			name:    "predicates combine with AND",
			filters: model.QueryFilters{VerifiedOnly: true, DineInOnly: true, Query: "ibadan"},
			now:     clock(12, 0),
			want:    []string{"c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterSpots(sampleSpots(), &tt.filters, tt.now)
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("got %v, want %v", ids(got), tt.want)
			}
		})
	}
}

// Filtering twice with the same filters must be a no-op the second time.
func TestFilterSpotsIdempotent(t *testing.T) {
	filters := &model.QueryFilters{DineInOnly: true, Query: "a"}
	now := clock(12, 0)

	once := FilterSpots(sampleSpots(), filters, now)
	twice := FilterSpots(once, filters, now)
	if !reflect.DeepEqual(ids(once), ids(twice)) {
		t.Errorf("second application changed the result: %v vs %v", ids(once), ids(twice))
	}
}

func TestFilterSpotsDoesNotMutateInput(t *testing.T) {
	spots := sampleSpots()
	before := ids(spots)

	FilterSpots(spots, &model.QueryFilters{VerifiedOnly: true}, clock(12, 0))
	if !reflect.DeepEqual(ids(spots), before) {
		t.Error("input slice was mutated")
	}
}
