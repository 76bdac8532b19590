package service

import (
	"math"

	"amalajeun/internal/model"
)

const (
	earthRadiusM = 6371000.0

	// ClusterRadiusPx is the on-screen pixel radius under which spots
	// collapse into a single marker.
	ClusterRadiusPx = 50.0

	tileSize = 256.0
)

// Distance returns the great-circle distance in meters between two
// WGS84 coordinates (haversine).
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusM * c
}

// project maps a coordinate to web-mercator pixel space at the given zoom.
func project(lat, lng float64, zoom int) (x, y float64) {
	scale := tileSize * math.Exp2(float64(zoom))
	siny := math.Sin(lat * math.Pi / 180)
	// Clamp to keep the projection finite near the poles.
	siny = math.Min(math.Max(siny, -0.9999), 0.9999)

	x = (lng/360 + 0.5) * scale
	y = (0.5 - math.Log((1+siny)/(1-siny))/(4*math.Pi)) * scale
	return x, y
}

// ClusterSpots groups spots whose pixel distance at the given zoom falls
// under ClusterRadiusPx, by snapping each spot to a fixed grid. Grid
// snapping keeps the grouping stable: identical input and zoom always
// produce identical clusters, and clusters break apart as zoom increases.
// Cluster order follows first appearance in the input.
func ClusterSpots(spots []model.Spot, zoom int) []model.SpotCluster {
	type cell struct{ cx, cy int }

	index := make(map[cell]int)
	clusters := make([]model.SpotCluster, 0, len(spots))

	for _, s := range spots {
		x, y := project(s.Latitude, s.Longitude, zoom)
		key := cell{
			cx: int(math.Floor(x / ClusterRadiusPx)),
			cy: int(math.Floor(y / ClusterRadiusPx)),
		}

		i, ok := index[key]
		if !ok {
			i = len(clusters)
			index[key] = i
			clusters = append(clusters, model.SpotCluster{})
		}
		clusters[i].Spots = append(clusters[i].Spots, s)
	}

	// Centroid per cluster.
	for i := range clusters {
		var sumLat, sumLng float64
		for _, s := range clusters[i].Spots {
			sumLat += s.Latitude
			sumLng += s.Longitude
		}
		n := float64(len(clusters[i].Spots))
		clusters[i].Latitude = sumLat / n
		clusters[i].Longitude = sumLng / n
		clusters[i].Count = len(clusters[i].Spots)
	}

	return clusters
}
