// Package resolver turns a postal code into coordinates. The local
// reference dataset answers almost every lookup; codes the dataset does
// not carry fall back to the Google Maps geocoding API, with previously
// geocoded results cached in Redis so the fallback is paid once per code.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/redis/go-redis/v9"
	"github.com/sourcegraph/conc/pool"
	"googlemaps.github.io/maps"

	"github.com/ShawCole/radius-zip/zipmodel"
)

// ErrNotFound reports that a postal code could not be resolved anywhere.
// Always per-code; a batch never fails as a whole.
var ErrNotFound = errors.New("postal code not found")

const (
	geocodeKeyPrefix = "radiuszip:geocode:"
	geocodeCacheTTL  = 30 * 24 * time.Hour

	maxConcurrentResolves = 4
)

// Local is the reference-dataset lookup, satisfied by *radius.Searcher.
type Local interface {
	Find(code string) (zipmodel.Record, bool)
}

// Geocoder is the slice of the Google Maps client the resolver uses.
type Geocoder interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

type Resolver struct {
	local    Local
	geocoder Geocoder
	cache    *redis.Client
	log      *slog.Logger
}

// New builds a resolver over the local dataset. Without WithGeocoder the
// resolver is offline-only and unknown codes resolve to ErrNotFound.
func New(local Local, opts ...Option) *Resolver {
	options := loadOptions(opts...)
	return &Resolver{
		local:    local,
		geocoder: options.geocoder,
		cache:    options.cache,
		log:      options.logger,
	}
}

// Resolve looks a postal code up: local dataset, then the geocode cache,
// then the geocoding API.
func (r *Resolver) Resolve(ctx context.Context, code string) (zipmodel.Seed, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return zipmodel.Seed{}, fmt.Errorf("%w: empty code", ErrNotFound)
	}

	if rec, ok := r.local.Find(code); ok {
		return zipmodel.Seed{Zip: code, Point: rec.Point}, nil
	}

	if p, ok := r.cachedPoint(ctx, code); ok {
		return zipmodel.Seed{Zip: code, Point: p}, nil
	}

	if r.geocoder == nil {
		return zipmodel.Seed{}, fmt.Errorf("%w: %s", ErrNotFound, code)
	}

	results, err := r.geocoder.Geocode(ctx, &maps.GeocodingRequest{
		Components: map[maps.Component]string{
			maps.ComponentPostalCode: code,
			maps.ComponentCountry:    "US",
		},
	})
	if err != nil {
		return zipmodel.Seed{}, fmt.Errorf("geocoding %s: %w", code, err)
	}
	if len(results) == 0 {
		return zipmodel.Seed{}, fmt.Errorf("%w: %s", ErrNotFound, code)
	}

	loc := results[0].Geometry.Location
	point := orb.Point{loc.Lng, loc.Lat}
	if err := zipmodel.ValidatePoint(point); err != nil {
		return zipmodel.Seed{}, fmt.Errorf("geocoding %s: %w", code, err)
	}

	r.storePoint(ctx, code, point)
	return zipmodel.Seed{Zip: code, Point: point}, nil
}

// ResolveMany resolves a batch with bounded concurrency, preserving input
// order among the resolved seeds. Codes that fail are returned separately;
// callers proceed with the seeds that did resolve.
func (r *Resolver) ResolveMany(ctx context.Context, codes []string) (seeds []zipmodel.Seed, unresolved []string) {
	outcomes := make([]struct {
		seed zipmodel.Seed
		err  error
	}, len(codes))

	p := pool.New().WithMaxGoroutines(maxConcurrentResolves)
	for i, code := range codes {
		i, code := i, code
		p.Go(func() {
			outcomes[i].seed, outcomes[i].err = r.Resolve(ctx, code)
		})
	}
	p.Wait()

	for i, out := range outcomes {
		if out.err != nil {
			r.log.Warn("could not resolve postal code", "zip", codes[i], "error", out.err)
			unresolved = append(unresolved, codes[i])
			continue
		}
		seeds = append(seeds, out.seed)
	}
	return seeds, unresolved
}

func (r *Resolver) cachedPoint(ctx context.Context, code string) (orb.Point, bool) {
	if r.cache == nil {
		return orb.Point{}, false
	}

	val, err := r.cache.Get(ctx, geocodeKeyPrefix+code).Result()
	if err == redis.Nil {
		return orb.Point{}, false
	}
	if err != nil {
		r.log.Warn("geocode cache read failed", "zip", code, "error", err)
		return orb.Point{}, false
	}

	lonS, latS, ok := strings.Cut(val, ",")
	if !ok {
		return orb.Point{}, false
	}
	lon, err1 := strconv.ParseFloat(lonS, 64)
	lat, err2 := strconv.ParseFloat(latS, 64)
	if err1 != nil || err2 != nil {
		return orb.Point{}, false
	}
	return orb.Point{lon, lat}, true
}

func (r *Resolver) storePoint(ctx context.Context, code string, p orb.Point) {
	if r.cache == nil {
		return
	}

	val := strconv.FormatFloat(p.Lon(), 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat(), 'f', -1, 64)
	if err := r.cache.Set(ctx, geocodeKeyPrefix+code, val, geocodeCacheTTL).Err(); err != nil {
		r.log.Warn("geocode cache write failed", "zip", code, "error", err)
	}
}
