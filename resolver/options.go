package resolver

import (
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type options struct {
	geocoder Geocoder
	cache    *redis.Client
	logger   *slog.Logger
}

type Option interface {
	apply(*options)
}

type withGeocoder struct{ g Geocoder }

func (w withGeocoder) apply(o *options) { o.geocoder = w.g }

// WithGeocoder enables the network fallback for codes missing from the
// local dataset. Pass a *maps.Client in production.
func WithGeocoder(g Geocoder) Option { return withGeocoder{g: g} }

type withCache struct{ c *redis.Client }

func (w withCache) apply(o *options) { o.cache = w.c }

// WithCache stores geocode fallback results in Redis.
func WithCache(c *redis.Client) Option { return withCache{c: c} }

type withLogger struct{ log *slog.Logger }

func (w withLogger) apply(o *options) { o.logger = w.log }

func WithLogger(log *slog.Logger) Option { return withLogger{log: log} }

func loadOptions(opts ...Option) options {
	options := options{
		logger: slog.Default(),
	}
	for _, o := range opts {
		o.apply(&options)
	}
	return options
}
