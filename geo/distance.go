// Package geo contains the pure spherical-geometry primitives the rest of
// the repository is built on: great-circle distance, bearings, the forward
// geodesic, radius circles and viewport bounds. All distances are statute
// miles.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/umahmood/haversine"
)

const (
	// EarthRadiusMiles is the mean Earth radius used by the forward
	// geodesic. Must stay consistent with the haversine distance so a
	// circle vertex sits on the radius it was generated for.
	EarthRadiusMiles = 3959.0

	// MilesPerDegree is the flat approximation used when converting a
	// radius to an angular extent for bounding boxes and index queries.
	MilesPerDegree = 69.0
)

// Distance returns the haversine great-circle distance between two points
// in miles. Symmetric, non-negative, zero only for identical points.
func Distance(a, b orb.Point) float64 {
	mi, _ := haversine.Distance(
		haversine.Coord{Lat: a.Lat(), Lon: a.Lon()},
		haversine.Coord{Lat: b.Lat(), Lon: b.Lon()},
	)
	return mi
}

// Bearing returns the initial great-circle bearing from a to b in degrees,
// normalized to [0, 360). 0 is north, 90 east.
func Bearing(a, b orb.Point) float64 {
	lat1 := radians(a.Lat())
	lat2 := radians(b.Lat())
	dLon := radians(b.Lon() - a.Lon())

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	deg := degrees(math.Atan2(y, x))
	return math.Mod(deg+360, 360)
}

// Destination returns the point reached by travelling distanceMiles from
// origin along the given initial bearing, using the direct geodesic
// formula. This stays correct at high latitudes where a flat lat/lon
// offset would distort badly.
func Destination(origin orb.Point, distanceMiles, bearingDeg float64) orb.Point {
	lat1 := radians(origin.Lat())
	lon1 := radians(origin.Lon())
	brng := radians(bearingDeg)
	d := distanceMiles / EarthRadiusMiles

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) +
		math.Cos(lat1)*math.Sin(d)*math.Cos(brng))
	lon2 := lon1 + math.Atan2(
		math.Sin(brng)*math.Sin(d)*math.Cos(lat1),
		math.Cos(d)-math.Sin(lat1)*math.Sin(lat2),
	)

	// normalize longitude to [-180, 180)
	lon := math.Mod(degrees(lon2)+540, 360) - 180

	return orb.Point{lon, degrees(lat2)}
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
