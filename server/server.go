package server

import (
	"context"
	"encoding/json"
	"fmt"
	stdlog "log"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/ShawCole/radius-zip/cluster"
	"github.com/ShawCole/radius-zip/geo"
	"github.com/ShawCole/radius-zip/layout"
	"github.com/ShawCole/radius-zip/radius"
	"github.com/ShawCole/radius-zip/resolver"
	"github.com/ShawCole/radius-zip/zipmodel"
)

const MaxBodySize = 1 * 1000 * 1000 // 1MB

var meter = otel.Meter("github.com/ShawCole/radius-zip/server")

// Deps are the collaborators the HTTP API is built on.
type Deps struct {
	Searcher *radius.Searcher
	Resolver *resolver.Resolver
}

// Run serves the radius-search API on address until ctx is cancelled.
func Run(ctx context.Context, address string, deps Deps) error {
	if err := setupTelemetry(ctx); err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	log := slog.Default()

	s, err := newServer(deps, log)
	if err != nil {
		return err
	}

	r := router.New()
	r.GET("/radius/search", s.SearchHandler)
	r.POST("/radius/search", s.SearchHandler)
	r.GET("/healthz", s.HealthHandler)
	r.Handle(http.MethodGet, "/metrics", fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))

	server := &fasthttp.Server{
		ReadTimeout:        time.Second,
		MaxRequestBodySize: MaxBodySize,
		Handler:            r.Handler,
	}

	go func() {
		log.Info("Server listening", "address", address)
		if err := server.ListenAndServe(address); err != http.ErrServerClosed {
			stdlog.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Info("Server started")

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return server.ShutdownWithContext(shutdownCtx)
}

type server struct {
	searcher *radius.Searcher
	resolver *resolver.Resolver
	log      *slog.Logger

	metricSearchCalls metric.Int64Counter
	metricMatchedZips metric.Int64Counter
	metricUnresolved  metric.Int64Counter
}

func newServer(deps Deps, log *slog.Logger) (*server, error) {
	metricSearchCalls, err := meter.Int64Counter("http_search_call_total")
	if err != nil {
		return nil, err
	}
	metricMatchedZips, err := meter.Int64Counter("search_matched_zips_total")
	if err != nil {
		return nil, err
	}
	metricUnresolved, err := meter.Int64Counter("search_unresolved_zips_total")
	if err != nil {
		return nil, err
	}

	return &server{
		searcher: deps.Searcher,
		resolver: deps.Resolver,
		log:      log,

		metricSearchCalls: metricSearchCalls,
		metricMatchedZips: metricMatchedZips,
		metricUnresolved:  metricUnresolved,
	}, nil
}

type searchRequest struct {
	Zips   []string `json:"zips"`
	Radius float64  `json:"radius"`
	Mode   string   `json:"mode"`
}

type viewBounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

type seedCircle struct {
	Zip  string   `json:"zip"`
	Ring orb.Ring `json:"ring"`
}

type searchResponse struct {
	Seeds      []zipmodel.Seed   `json:"seeds"`
	Matches    []zipmodel.Record `json:"matches"`
	Plan       layout.Plan       `json:"plan"`
	Circles    []seedCircle      `json:"circles"`
	Bounds     viewBounds        `json:"bounds"`
	Zoom       int               `json:"zoom"`
	Unresolved []string          `json:"unresolved,omitempty"`
}

func (s *server) HealthHandler(ctx *fasthttp.RequestCtx) {
	ctx.Response.SetStatusCode(http.StatusOK)
	ctx.Response.SetBodyString("ok")
}

// SearchHandler answers GET and POST /radius/search: resolve the given
// zips, decide a viewport layout, find every dataset record within the
// radius of any seed, and return the geometry needed to render it all.
func (s *server) SearchHandler(ctx *fasthttp.RequestCtx) {
	s.metricSearchCalls.Add(ctx, 1)

	requestID := uuid.NewString()
	log := s.log.With("request_id", requestID)

	req, err := parseSearchRequest(ctx)
	if err != nil {
		badRequest(ctx, err.Error())
		return
	}

	if len(req.Zips) == 0 {
		badRequest(ctx, "at least one zip is required")
		return
	}
	if req.Radius <= 0 {
		badRequest(ctx, "radius must be a positive number of miles")
		return
	}
	mode, err := layout.ParseMode(req.Mode)
	if err != nil {
		badRequest(ctx, err.Error())
		return
	}

	seeds, unresolved := s.resolver.ResolveMany(ctx, req.Zips)
	s.metricUnresolved.Add(ctx, int64(len(unresolved)))
	if len(seeds) == 0 {
		badRequest(ctx, "none of the requested zips could be resolved")
		return
	}

	plan, err := layout.Decide(seeds, mode, cluster.DefaultThresholdMiles)
	if err != nil {
		badRequest(ctx, err.Error())
		return
	}

	result := s.searcher.Search(seeds, req.Radius)
	s.metricMatchedZips.Add(ctx, int64(len(result)))

	points := make([]orb.Point, len(seeds))
	circles := make([]seedCircle, len(seeds))
	for i, seed := range seeds {
		points[i] = seed.Point
		circles[i] = seedCircle{
			Zip:  seed.Zip,
			Ring: geo.Circle(seed.Point, req.Radius, geo.DefaultCircleSegments),
		}
	}

	bounds := geo.BoundsFor(points, req.Radius, geo.DefaultPaddingFraction)

	resp := searchResponse{
		Seeds:   seeds,
		Matches: result.Records(),
		Plan:    plan,
		Circles: circles,
		Bounds: viewBounds{
			MinLat: bounds.Min.Lat(),
			MinLng: bounds.Min.Lon(),
			MaxLat: bounds.Max.Lat(),
			MaxLng: bounds.Max.Lon(),
		},
		Zoom:       geo.ZoomFor(bounds),
		Unresolved: unresolved,
	}

	out, err := json.Marshal(resp)
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusInternalServerError)
		ctx.Response.SetBodyString("failed to marshal response")
		return
	}

	log.Info("search served",
		"seeds", len(seeds),
		"radius_miles", req.Radius,
		"mode", mode.String(),
		"plan", plan.Kind,
		"matches", len(result),
		"unresolved", len(unresolved),
	)

	ctx.Response.Header.SetContentType("application/json")
	ctx.Response.SetStatusCode(http.StatusOK)
	ctx.Response.SetBody(out)
}

func parseSearchRequest(ctx *fasthttp.RequestCtx) (searchRequest, error) {
	if ctx.IsPost() {
		var req searchRequest
		if err := json.Unmarshal(ctx.Request.Body(), &req); err != nil {
			return searchRequest{}, fmt.Errorf("failed to parse request body: %w", err)
		}
		return req, nil
	}

	args := ctx.QueryArgs()

	var req searchRequest
	for _, part := range strings.Split(string(args.Peek("zips")), ",") {
		if part = strings.TrimSpace(part); part != "" {
			req.Zips = append(req.Zips, part)
		}
	}

	if radiusS := string(args.Peek("radius")); radiusS != "" {
		radius, err := strconv.ParseFloat(radiusS, 64)
		if err != nil {
			return searchRequest{}, fmt.Errorf("invalid radius %q", radiusS)
		}
		req.Radius = radius
	}

	req.Mode = string(args.Peek("mode"))
	return req, nil
}

func badRequest(ctx *fasthttp.RequestCtx, msg string) {
	ctx.Response.SetStatusCode(http.StatusBadRequest)
	ctx.Response.SetBodyString(msg)
}
