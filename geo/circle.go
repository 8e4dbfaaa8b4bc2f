package geo

import "github.com/paulmach/orb"

// DefaultCircleSegments is enough rendering fidelity for radii up to
// continental scale.
const DefaultCircleSegments = 64

// Circle approximates a geodesic circle of radiusMiles around center with
// a closed orb.Ring of segments vertices (the first point is repeated as
// the last). segments < 3 falls back to DefaultCircleSegments.
//
// radiusMiles <= 0 yields a zero-area ring with every vertex equal to
// center; callers treat that as a valid degenerate polygon, not an error.
func Circle(center orb.Point, radiusMiles float64, segments int) orb.Ring {
	if segments < 3 {
		segments = DefaultCircleSegments
	}

	ring := make(orb.Ring, 0, segments+1)

	if radiusMiles <= 0 {
		for i := 0; i <= segments; i++ {
			ring = append(ring, center)
		}
		return ring
	}

	step := 360.0 / float64(segments)
	for i := 0; i < segments; i++ {
		ring = append(ring, Destination(center, radiusMiles, float64(i)*step))
	}
	ring = append(ring, ring[0])

	return ring
}
