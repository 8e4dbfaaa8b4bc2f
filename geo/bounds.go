package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// DefaultPaddingFraction is the share of the bound's span added on each
// axis so radius circles don't touch the viewport edge.
const DefaultPaddingFraction = 0.1

// BoundsFor returns a bound containing every point expanded by radiusMiles
// in each direction, inflated by paddingFraction of the resulting span on
// both axes. A single point still produces a non-zero-area bound because
// of the radius expansion.
//
// The radius is converted with the flat MilesPerDegree approximation on
// both axes; no cos(lat) correction is applied to the longitude span.
func BoundsFor(points []orb.Point, radiusMiles, paddingFraction float64) orb.Bound {
	if len(points) == 0 {
		return orb.Bound{}
	}

	angular := radiusMiles / MilesPerDegree
	if angular < 0 {
		angular = 0
	}

	b := orb.Bound{
		Min: orb.Point{math.Inf(1), math.Inf(1)},
		Max: orb.Point{math.Inf(-1), math.Inf(-1)},
	}
	for _, p := range points {
		b.Min[0] = math.Min(b.Min[0], p.Lon()-angular)
		b.Min[1] = math.Min(b.Min[1], p.Lat()-angular)
		b.Max[0] = math.Max(b.Max[0], p.Lon()+angular)
		b.Max[1] = math.Max(b.Max[1], p.Lat()+angular)
	}

	padX := (b.Max[0] - b.Min[0]) * paddingFraction
	padY := (b.Max[1] - b.Min[1]) * paddingFraction
	b.Min[0] -= padX
	b.Max[0] += padX
	b.Min[1] -= padY
	b.Max[1] += padY

	return b
}

// ZoomFor returns an integer web-mercator zoom level that fits the bound's
// longitude span, clamped to [1, 15]. A hint only; renderers may ignore it.
func ZoomFor(b orb.Bound) int {
	span := b.Max.Lon() - b.Min.Lon()
	if span <= 0 {
		return 15
	}

	zoom := int(math.Floor(math.Log2(360 / span)))
	if zoom < 1 {
		zoom = 1
	}
	if zoom > 15 {
		zoom = 15
	}
	return zoom
}
