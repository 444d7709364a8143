package model

import "math"

const earthRadiusKm = 6371.0

// Point is a WGS84 coordinate. The zero value means "position unknown".
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Known reports whether the point carries usable coordinates.
func (p Point) Known() bool {
	return p.Lon != 0 || p.Lat != 0
}

// DistanceKm returns the great-circle distance to q in kilometres.
func (p Point) DistanceKm(q Point) float64 {
	dLat := radians(q.Lat - p.Lat)
	dLon := radians(q.Lon - p.Lon)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(radians(p.Lat))*math.Cos(radians(q.Lat))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
