package resolver_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/paulmach/orb"
	"github.com/thejerf/slogassert"
	"googlemaps.github.io/maps"

	"github.com/ShawCole/radius-zip/resolver"
	"github.com/ShawCole/radius-zip/zipmodel"
)

type fakeLocal map[string]zipmodel.Record

func (f fakeLocal) Find(code string) (zipmodel.Record, bool) {
	rec, ok := f[code]
	return rec, ok
}

type fakeGeocoder struct {
	points map[string]orb.Point
	err    error
	calls  int
}

func (f *fakeGeocoder) Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	code := r.Components[maps.ComponentPostalCode]
	p, ok := f.points[code]
	if !ok {
		return nil, nil
	}
	return []maps.GeocodingResult{{
		Geometry: maps.AddressGeometry{
			Location: maps.LatLng{Lat: p.Lat(), Lng: p.Lon()},
		},
	}}, nil
}

var local = fakeLocal{
	"10001": {Zip: "10001", City: "New York", State: "NY", Point: orb.Point{-73.9967, 40.7484}},
	"90012": {Zip: "90012", City: "Los Angeles", State: "CA", Point: orb.Point{-118.2437, 34.0614}},
}

func TestResolveLocalHit(t *testing.T) {
	geocoder := &fakeGeocoder{}
	r := resolver.New(local, resolver.WithGeocoder(geocoder))

	seed, err := r.Resolve(context.Background(), "10001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seed.Zip != "10001" || seed.Point != local["10001"].Point {
		t.Fatalf("unexpected seed %+v", seed)
	}
	if geocoder.calls != 0 {
		t.Fatalf("expected no geocoder calls for a local hit, got %d", geocoder.calls)
	}
}

func TestResolveTrimsWhitespace(t *testing.T) {
	r := resolver.New(local)

	seed, err := r.Resolve(context.Background(), "  10001 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seed.Zip != "10001" {
		t.Fatalf("unexpected seed %+v", seed)
	}
}

func TestResolveMissWithoutGeocoder(t *testing.T) {
	r := resolver.New(local)

	_, err := r.Resolve(context.Background(), "60601")
	if !errors.Is(err, resolver.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_, err = r.Resolve(context.Background(), "")
	if !errors.Is(err, resolver.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty code, got %v", err)
	}
}

func TestResolveGeocoderFallback(t *testing.T) {
	geocoder := &fakeGeocoder{points: map[string]orb.Point{
		"60601": {-87.6231, 41.8858},
	}}
	r := resolver.New(local, resolver.WithGeocoder(geocoder))

	seed, err := r.Resolve(context.Background(), "60601")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seed.Zip != "60601" || seed.Point != (orb.Point{-87.6231, 41.8858}) {
		t.Fatalf("unexpected seed %+v", seed)
	}
	if geocoder.calls != 1 {
		t.Fatalf("expected 1 geocoder call, got %d", geocoder.calls)
	}
}

func TestResolveGeocoderNoResults(t *testing.T) {
	geocoder := &fakeGeocoder{}
	r := resolver.New(local, resolver.WithGeocoder(geocoder))

	_, err := r.Resolve(context.Background(), "00000")
	if !errors.Is(err, resolver.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveGeocoderError(t *testing.T) {
	geocoder := &fakeGeocoder{err: errors.New("quota exceeded")}
	r := resolver.New(local, resolver.WithGeocoder(geocoder))

	_, err := r.Resolve(context.Background(), "60601")
	if err == nil || errors.Is(err, resolver.ErrNotFound) {
		t.Fatalf("expected a geocoding error, got %v", err)
	}
}

func TestResolveMany(t *testing.T) {
	r := resolver.New(local)

	seeds, unresolved := r.ResolveMany(context.Background(), []string{"10001", "90012"})
	if len(unresolved) != 0 {
		t.Fatalf("expected nothing unresolved, got %v", unresolved)
	}
	if len(seeds) != 2 || seeds[0].Zip != "10001" || seeds[1].Zip != "90012" {
		t.Fatalf("expected input order preserved, got %+v", seeds)
	}
}

func TestResolveManyPartialFailure(t *testing.T) {
	handler := slogassert.New(t, slog.LevelWarn, nil)
	r := resolver.New(local, resolver.WithLogger(slog.New(handler)))

	seeds, unresolved := r.ResolveMany(context.Background(), []string{"10001", "60601", "90012"})
	if len(seeds) != 2 || seeds[0].Zip != "10001" || seeds[1].Zip != "90012" {
		t.Fatalf("expected the resolvable codes in order, got %+v", seeds)
	}
	if len(unresolved) != 1 || unresolved[0] != "60601" {
		t.Fatalf("expected 60601 unresolved, got %v", unresolved)
	}

	handler.AssertMessage("could not resolve postal code")
	handler.AssertEmpty()
}
