package service

import (
	"context"
	"sort"
	"time"

	"amalajeun/internal/model"
	"amalajeun/internal/utils"
)

// SpotLister is the read side of the storage boundary.
type SpotLister interface {
	List(ctx context.Context) ([]model.Spot, error)
}

// QueryService answers map/list queries: it takes a read-only snapshot of
// the spot collection, applies the predicate filters against the current
// clock, and optionally sorts by distance and clusters for rendering. It
// never mutates spot data and is safe to call concurrently.
type QueryService struct {
	spots  SpotLister
	logger *utils.Logger
	now    func() time.Time
}

// NewQueryService creates a new query service. The clock is injectable so
// open-now evaluation stays deterministic under test.
func NewQueryService(spots SpotLister, logger *utils.Logger, now func() time.Time) *QueryService {
	if now == nil {
		now = time.Now
	}
	return &QueryService{spots: spots, logger: logger, now: now}
}

// Query performs a complete query: snapshot, filter, sort, cluster.
func (s *QueryService) Query(ctx context.Context, req *model.QueryRequest) (*model.QueryResponse, error) {
	startTime := time.Now()

	snapshot, err := s.spots.List(ctx)
	if err != nil {
		return nil, err
	}

	var filters *model.QueryFilters
	var options *model.QueryOptions
	if req != nil {
		filters = req.Filters
		options = req.Options
	}

	results := FilterSpots(snapshot, filters, s.now())

	if options != nil && options.NearLat != nil && options.NearLng != nil {
		lat, lng := *options.NearLat, *options.NearLng
		sort.SliceStable(results, func(i, j int) bool {
			di := Distance(lat, lng, results[i].Latitude, results[i].Longitude)
			dj := Distance(lat, lng, results[j].Latitude, results[j].Longitude)
			return di < dj
		})
	}

	resp := &model.QueryResponse{
		Spots: results,
		Total: len(results),
		Took:  time.Since(startTime).Milliseconds(),
	}

	if options != nil && options.Zoom != nil {
		resp.Clusters = ClusterSpots(results, *options.Zoom)
	}

	return resp, nil
}
