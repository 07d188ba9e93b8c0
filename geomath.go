package monad

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	// earthRadiusMeters is the sphere radius used by every distance in the router
	earthRadiusMeters = 6371000.0
	pi180             = math.Pi / 180.0
)

// degreesToRadians deg = r * pi / 180
func degreesToRadians(d float64) float64 {
	return d * pi180
}

// DistanceMeters returns great-circle (haversine) distance between two points given in degrees (meters)
func DistanceMeters(lon1, lat1, lon2, lat2 float64) float64 {
	diffLat := degreesToRadians(lat2 - lat1)
	diffLon := degreesToRadians(lon2 - lon1)
	a := math.Sin(diffLat/2)*math.Sin(diffLat/2) +
		math.Cos(degreesToRadians(lat1))*math.Cos(degreesToRadians(lat2))*math.Sin(diffLon/2)*math.Sin(diffLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

// pointDistance is DistanceMeters for orb points (X == Lon, Y == Lat)
func pointDistance(p, q orb.Point) float64 {
	return DistanceMeters(p.Lon(), p.Lat(), q.Lon(), q.Lat())
}

// lineLengthMeters returns length for given line (meters)
func lineLengthMeters(line orb.LineString) float64 {
	totalLength := 0.0
	if len(line) < 2 {
		return totalLength
	}
	for i := 1; i < len(line); i++ {
		totalLength += pointDistance(line[i-1], line[i])
	}
	return totalLength
}
