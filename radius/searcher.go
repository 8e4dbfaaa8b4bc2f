// Package radius implements the membership search: which records of the
// reference dataset fall within a radius of any seed. The dataset is
// indexed once into an r-tree; each query runs a coarse bounding-box pass
// over the index and refines candidates with the exact haversine distance,
// so observable behavior is identical to the brute-force scan.
package radius

import (
	"log/slog"
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/ShawCole/radius-zip/geo"
	"github.com/ShawCole/radius-zip/zipmodel"
)

// records are stored as near-zero-size rectangles in the 2D tree.
const pointRectSide = 1e-9

// Result maps postal code to the matched record, deduplicated across
// seeds: a record inside two seeds' radii appears once.
type Result map[string]zipmodel.Record

// Codes returns the matched postal codes in sorted order.
func (r Result) Codes() []string {
	codes := make([]string, 0, len(r))
	for code := range r {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Records returns the matched records sorted by postal code, for callers
// that need deterministic output.
func (r Result) Records() []zipmodel.Record {
	out := make([]zipmodel.Record, 0, len(r))
	for _, code := range r.Codes() {
		out = append(out, r[code])
	}
	return out
}

type recordItem struct {
	rect rtreego.Rect
	idx  int
}

func (ri *recordItem) Bounds() rtreego.Rect { return ri.rect }

// Searcher answers radius queries over an immutable reference dataset.
// Safe for concurrent use: queries share no mutable state.
type Searcher struct {
	records []zipmodel.Record
	byCode  map[string]zipmodel.Record
	tree    *rtreego.Rtree

	log *slog.Logger
}

// NewSearcher indexes the records. The slice is retained and must not be
// mutated afterwards.
func NewSearcher(records []zipmodel.Record, opts ...Option) *Searcher {
	options := loadOptions(opts...)

	s := &Searcher{
		records: records,
		byCode:  make(map[string]zipmodel.Record, len(records)),
		log:     options.logger,
	}
	for _, rec := range records {
		s.byCode[rec.Zip] = rec
	}

	if options.useIndex {
		s.tree = rtreego.NewTree(2, 25, 50)
		for i, rec := range records {
			rect, err := rtreego.NewRect(
				rtreego.Point{rec.Point.Lon(), rec.Point.Lat()},
				[]float64{pointRectSide, pointRectSide},
			)
			if err != nil {
				s.log.Warn("skipping unindexable record", "zip", rec.Zip, "error", err)
				continue
			}
			s.tree.Insert(&recordItem{rect: rect, idx: i})
		}
	}

	s.log.Info("searcher ready", "records", len(records), "indexed", options.useIndex)
	return s
}

// Find returns the reference record for a postal code, if the dataset has
// one.
func (s *Searcher) Find(code string) (zipmodel.Record, bool) {
	rec, ok := s.byCode[code]
	return rec, ok
}

// Len returns the size of the reference dataset.
func (s *Searcher) Len() int { return len(s.records) }

// Search returns every record within radiusMiles (inclusive) of at least
// one seed. Union semantics across seeds; membership is decided by the
// exact haversine distance regardless of the index.
func (s *Searcher) Search(seeds []zipmodel.Seed, radiusMiles float64) Result {
	result := make(Result)
	if radiusMiles < 0 || len(seeds) == 0 {
		return result
	}

	if s.tree == nil {
		for _, rec := range s.records {
			for _, seed := range seeds {
				if geo.Distance(seed.Point, rec.Point) <= radiusMiles {
					result[rec.Zip] = rec
					break
				}
			}
		}
		return result
	}

	for _, seed := range seeds {
		for _, rect := range seedRects(seed, radiusMiles) {
			for _, item := range s.tree.SearchIntersect(rect) {
				rec := s.records[item.(*recordItem).idx]
				if _, seen := result[rec.Zip]; seen {
					continue
				}
				if geo.Distance(seed.Point, rec.Point) <= radiusMiles {
					result[rec.Zip] = rec
				}
			}
		}
	}
	return result
}

// seedRects is the coarse query window: the seed expanded by the angular
// radius. The longitude extent uses the tangent meridian of the geodesic
// circle, asin(sin(d)/cos(lat)), which peaks poleward of the seed; a flat
// 1/cos(lat) widening undercovers that peak and would let the index miss
// in-radius records. A window that crosses the antimeridian is split into
// two rects since the tree stores longitudes in [-180, 180].
func seedRects(seed zipmodel.Seed, radiusMiles float64) []rtreego.Rect {
	latAngular := radiusMiles/geo.MilesPerDegree + pointRectSide
	lonAngular := lonExtent(seed.Point.Lat(), radiusMiles)

	latMin := seed.Point.Lat() - latAngular
	lonMin := seed.Point.Lon() - lonAngular
	lonMax := seed.Point.Lon() + lonAngular

	rects := make([]rtreego.Rect, 0, 2)
	appendRect := func(lonMin, lonMax float64) {
		rect, err := rtreego.NewRect(
			rtreego.Point{lonMin, latMin},
			[]float64{lonMax - lonMin, 2 * latAngular},
		)
		if err != nil {
			// only reachable with a non-finite radius; fall back to a point
			rect, _ = rtreego.NewRect(
				rtreego.Point{seed.Point.Lon(), seed.Point.Lat()},
				[]float64{pointRectSide, pointRectSide},
			)
		}
		rects = append(rects, rect)
	}

	switch {
	case lonMax-lonMin >= 360:
		appendRect(-180, 180)
	case lonMin < -180:
		appendRect(-180, lonMax)
		appendRect(lonMin+360, 180)
	case lonMax > 180:
		appendRect(lonMin, 180)
		appendRect(-180, lonMax-360)
	default:
		appendRect(lonMin, lonMax)
	}
	return rects
}

// lonExtent returns the half-width in degrees of the smallest longitude
// band containing a geodesic circle of radiusMiles centered at lat. The
// circle's extreme longitudes sit on its tangent meridians, poleward of
// the center. When the circle reaches a pole no band is narrower than the
// full range. The angular radius comes from the same MilesPerDegree
// constant as the latitude extent, which overstates it slightly relative
// to the haversine refine and keeps the window a superset.
func lonExtent(lat, radiusMiles float64) float64 {
	d := radiusMiles / geo.MilesPerDegree * math.Pi / 180
	if d >= math.Pi/2 {
		return 180
	}

	cosLat := math.Cos(lat * math.Pi / 180)
	sinD := math.Sin(d)
	if sinD >= cosLat {
		return 180
	}

	return math.Asin(sinD/cosLat)*180/math.Pi + pointRectSide
}
