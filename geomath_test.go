package monad

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

func TestDistanceMeters(t *testing.T) {
	p1 := orb.Point{37.6417350769043, 55.751849391735284}
	p2 := orb.Point{37.668514251708984, 55.73261980350401}
	res := 2716.927 // meters, sphere of 6371 km
	dist := DistanceMeters(p1.Lon(), p1.Lat(), p2.Lon(), p2.Lat())
	if Round(dist, 0.5) != Round(res, 0.5) {
		t.Errorf("Great circle dist must be %f, but got %f", res, dist)
	}
}

func TestDistanceMetersZero(t *testing.T) {
	points := []orb.Point{
		{0, 0},
		{17.6389, 59.8586},
		{-179.99, -89.5},
		{37.396747, 55.8321},
	}
	for _, pt := range points {
		dist := DistanceMeters(pt.Lon(), pt.Lat(), pt.Lon(), pt.Lat())
		if dist != 0 {
			t.Errorf("Distance from %v to itself must be 0, but got %f", pt, dist)
		}
	}
}

func TestDistanceMetersSymmetric(t *testing.T) {
	pairs := [][2]orb.Point{
		{{17.6389, 59.8586}, {17.6480, 59.8410}},
		{{-73.9857, 40.7484}, {2.2945, 48.8584}},
		{{0, 0}, {0, 1}},
		{{179.5, 10}, {-179.5, 10}},
	}
	for _, pair := range pairs {
		ab := DistanceMeters(pair[0].Lon(), pair[0].Lat(), pair[1].Lon(), pair[1].Lat())
		ba := DistanceMeters(pair[1].Lon(), pair[1].Lat(), pair[0].Lon(), pair[0].Lat())
		if ab != ba {
			t.Errorf("Distance must be symmetric for %v: %f != %f", pair, ab, ba)
		}
	}
}

func TestDistanceMetersOneDegreeLatitude(t *testing.T) {
	dist := DistanceMeters(0, 0, 0, 1)
	correct := earthRadiusMeters * math.Pi / 180.0
	if math.Abs(dist-correct) > 1e-6 {
		t.Errorf("One degree of latitude should be %f meters, but got %f", correct, dist)
	}
}

func TestDistanceMetersAgainstOrb(t *testing.T) {
	// orb uses WGS84 equatorial radius, so results differ only by the radius ratio
	p1 := orb.Point{17.6389, 59.8586}
	p2 := orb.Point{17.6480, 59.8410}
	orbDist := geo.DistanceHaversine(p1, p2) * earthRadiusMeters / orb.EarthRadius
	dist := pointDistance(p1, p2)
	if math.Abs(orbDist-dist) > 1e-6 {
		t.Errorf("Distance should match orb haversine (%f), but got %f", orbDist, dist)
	}
}

func TestLineLengthMeters(t *testing.T) {
	line := orb.LineString{{0, 0}, {0, 1}, {0, 2}}
	correct := 2 * earthRadiusMeters * math.Pi / 180.0
	length := lineLengthMeters(line)
	if math.Abs(length-correct) > 1e-6 {
		t.Errorf("Line length should be %f, but got %f", correct, length)
	}
	if lineLengthMeters(orb.LineString{{1, 1}}) != 0 {
		t.Errorf("Single point line must have zero length")
	}
}

func Round(x, unit float64) float64 {
	if x > 0 {
		return float64(int64(x/unit+0.5)) * unit
	}
	return float64(int64(x/unit-0.5)) * unit
}
