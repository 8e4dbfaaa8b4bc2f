package main

import (
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
	"googlemaps.github.io/maps"

	_ "github.com/KimMachineGun/automemlimit"
	_ "go.uber.org/automaxprocs"

	"github.com/ShawCole/radius-zip/radius"
	"github.com/ShawCole/radius-zip/resolver"
	"github.com/ShawCole/radius-zip/server"
	"github.com/ShawCole/radius-zip/zipdata"
	"github.com/ShawCole/radius-zip/zipmodel"
)

func main() {
	// optional; the env vars themselves are what matters
	_ = godotenv.Load()

	app := &cli.App{
		Name:        "radius-zip",
		Description: "Postal-code radius search with automatic viewport layout",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "serve the radius search api",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:      "points",
						Aliases:   []string{"p"},
						Usage:     "postal dataset cache file",
						Required:  true,
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:  "listen",
						Value: ":8080",
					},
				},
				Action: serve,
			},
			{
				Name:    "fetch",
				Aliases: []string{"f"},
				Usage:   "build the postal dataset cache from the GeoNames export",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:      "input",
						Aliases:   []string{"i"},
						Usage:     "local GeoNames US.zip (downloaded when omitted)",
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:  "url",
						Value: zipdata.GeoNamesURL,
					},
					&cli.StringFlag{
						Name:      "points",
						Aliases:   []string{"p"},
						Usage:     "output dataset cache file",
						Required:  true,
						TakesFile: true,
					},
				},
				Action: fetch,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serve(ctx *cli.Context) error {
	log := slog.Default()

	records, err := zipdata.LoadFile(ctx.String("points"), log)
	if err != nil {
		return err
	}
	searcher := radius.NewSearcher(records)

	resolverOpts := []resolver.Option{resolver.WithLogger(log)}
	if key := os.Getenv("GOOGLE_MAPS_API_KEY"); key != "" {
		mapsClient, err := maps.NewClient(maps.WithAPIKey(key))
		if err != nil {
			return err
		}
		resolverOpts = append(resolverOpts, resolver.WithGeocoder(mapsClient))
	} else {
		log.Warn("GOOGLE_MAPS_API_KEY not set, zips outside the dataset will not resolve")
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		resolverOpts = append(resolverOpts, resolver.WithCache(redis.NewClient(&redis.Options{Addr: addr})))
	}

	runCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Run(runCtx, ctx.String("listen"), server.Deps{
		Searcher: searcher,
		Resolver: resolver.New(searcher, resolverOpts...),
	})
}

func fetch(ctx *cli.Context) error {
	log := slog.Default()

	var records []zipmodel.Record
	if input := ctx.String("input"); input != "" {
		var err error
		records, err = zipdata.LoadArchiveFile(input, log)
		if err != nil {
			return err
		}
	} else {
		body, err := zipdata.Download(ctx.Context, ctx.String("url"), log)
		if err != nil {
			return err
		}
		records, err = zipdata.LoadArchive(body, log)
		if err != nil {
			return err
		}
	}

	saveFile := ctx.String("points")
	if !strings.HasSuffix(saveFile, ".rzc") {
		saveFile = saveFile + ".rzc"
	}

	if err := zipdata.SaveFile(records, saveFile); err != nil {
		return err
	}
	log.Info("dataset cache written", "file", saveFile)
	return nil
}
