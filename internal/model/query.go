package model

// QueryRequest represents a map/list query over the spot collection
type QueryRequest struct {
	Filters *QueryFilters `json:"filters,omitempty"`
	Options *QueryOptions `json:"options,omitempty"`
}

// QueryFilters represents the optional, AND-combined predicates
type QueryFilters struct {
	VerifiedOnly bool     `json:"verified_only,omitempty"`
	OpenNow      bool     `json:"open_now,omitempty"`
	DineInOnly   bool     `json:"dine_in_only,omitempty"`
	PriceMin     *float64 `json:"price_min,omitempty"`
	PriceMax     *float64 `json:"price_max,omitempty"`
	Query        string   `json:"query,omitempty"` // free-text over name/address
}

// QueryOptions represents rendering options for the query result
type QueryOptions struct {
	Zoom    *int     `json:"zoom,omitempty"`     // cluster for this zoom level when set
	NearLat *float64 `json:"near_lat,omitempty"` // sort by distance from this origin when set
	NearLng *float64 `json:"near_lng,omitempty"`
}

// SpotCluster is one rendered marker: a group of spots within the cluster
// radius at the requested zoom.
type SpotCluster struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Count     int     `json:"count"`
	Spots     []Spot  `json:"spots"`
}

// QueryResponse represents a query result
type QueryResponse struct {
	Spots    []Spot        `json:"spots"`
	Clusters []SpotCluster `json:"clusters,omitempty"`
	Total    int           `json:"total"`
	Took     int64         `json:"took_ms"`
}
