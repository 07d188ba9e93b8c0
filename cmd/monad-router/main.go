package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/paulmach/osm"
	"github.com/pkg/errors"

	"github.com/GeoBile/monad"
	"github.com/GeoBile/monad/internal/config"
	"github.com/GeoBile/monad/internal/logging"
	"github.com/GeoBile/monad/internal/server"
	"github.com/GeoBile/monad/internal/traveltime"
)

var (
	configFile      = flag.String("config", "", "Path to YAML configuration file. If empty, optional 'config.yaml' is looked up in working directory and ./configs")
	osmFileName     = flag.String("file", "", "Filename of OSM map (*.osm / *.xml or *.osm.pbf). Overrides 'map.file' configuration")
	strategy        = flag.String("strategy", "", "Routing strategy. Expected values: bestfirst / contraction. Overrides 'routing.strategy' configuration")
	fromNode        = flag.String("from", "", "Source of single travel time query: OSM node ID (or bus stop name when -stops is set)")
	toNode          = flag.String("to", "", "Target of single travel time query: OSM node ID (or bus stop name when -stops is set)")
	byStops         = flag.Bool("stops", false, "Interpret -from and -to as bus stop names")
	serve           = flag.Bool("serve", false, "Start HTTP API server")
	port            = flag.Int("port", 0, "Port of HTTP API server. Overrides 'server.port' configuration")
	exportCSV       = flag.String("export-csv", "", "Filename of 'Comma-Separated Values' (CSV) formatted file. E.g.: if file name is 'map.csv' then 2 files will be produced: 'map_nodes.csv', 'map_edges.csv'")
	exportGeoJSON   = flag.String("export-geojson", "", "Filename of GeoJSON file with road edges and bus stops")
	exportShortcuts = flag.String("export-shortcuts", "", "Filename of CSV file with contraction hierarchies shortcuts (contraction strategy only)")
)

func main() {

	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	overrides := map[string]interface{}{}
	if *osmFileName != "" {
		overrides["map.file"] = *osmFileName
	}
	if *strategy != "" {
		overrides["routing.strategy"] = *strategy
	}
	if *port != 0 {
		overrides["server.port"] = *port
	}
	cfg, err := config.Load(*configFile, overrides)
	if err != nil {
		return errors.Wrap(err, "Can't load configuration")
	}
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	parser := monad.NewParser(
		cfg.Map.File,
		monad.WithStandardSpeed(cfg.Routing.StandardSpeed),
		monad.WithStrictMode(cfg.Map.Strict),
		monad.WithPBFProcs(cfg.Map.PBFProcs),
		monad.WithParserLogger(logger),
	)
	logger.Debug("Parser prepared", "parser", parser.String())

	st := time.Now()
	network, err := parser.BuildNetwork()
	if err != nil {
		return errors.Wrap(err, "Can't build road network")
	}
	logger.Info("Road network is ready",
		"elapsed", time.Since(st),
		"vertices", network.Graph.VerticesCount(),
		"edges", network.Graph.EdgesCount(),
		"bus_stops", len(network.BusStops),
		"warnings", len(network.Stats.Warnings),
		"bounds", monad.BoundsWKT(network.Bounds),
	)

	if *exportCSV != "" {
		err = network.ExportToCSV(*exportCSV)
		if err != nil {
			return errors.Wrap(err, "Can't export road network to CSV")
		}
		logger.Info("Road network exported to CSV", "filename", *exportCSV)
	}
	if *exportGeoJSON != "" {
		b, err := network.ExportGeoJSON()
		if err != nil {
			return errors.Wrap(err, "Can't prepare GeoJSON")
		}
		err = os.WriteFile(*exportGeoJSON, b, 0644)
		if err != nil {
			return errors.Wrap(err, "Can't write GeoJSON file")
		}
		logger.Info("Road network exported to GeoJSON", "filename", *exportGeoJSON)
	}

	searchOptions := []monad.SearchOption{
		monad.WithHeuristicSpeed(cfg.Routing.StandardSpeed),
		monad.WithMaxExpansions(cfg.Routing.MaxExpansions),
		monad.WithTimeout(cfg.Routing.Timeout),
	}
	if *exportShortcuts != "" {
		index, err := monad.NewContractionIndex(network.Graph, monad.WithLogger(logger))
		if err != nil {
			return errors.Wrap(err, "Can't prepare contraction hierarchies")
		}
		err = index.ExportShortcutsToCSV(*exportShortcuts)
		if err != nil {
			return err
		}
		logger.Info("Shortcuts exported", "filename", *exportShortcuts)
	}

	service, err := traveltime.New(network, traveltime.Options{
		Strategy:      cfg.Routing.Strategy,
		CacheSize:     cfg.Cache.Size,
		CacheTTL:      cfg.Cache.TTL,
		SearchOptions: searchOptions,
		Logger:        logger,
	})
	if err != nil {
		return errors.Wrap(err, "Can't prepare travel time service")
	}

	if *fromNode != "" || *toNode != "" {
		err = query(service, *fromNode, *toNode, *byStops)
		if err != nil {
			return err
		}
	}

	if *serve {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		srv := server.New(service, server.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			Logger:         logger,
		})
		return srv.ListenAndServe(ctx, cfg.Server.Addr())
	}
	return nil
}

func query(service *traveltime.Service, from, to string, byStops bool) error {
	ctx := context.Background()
	var travelTime float64
	var err error
	if byStops {
		travelTime, err = service.StopTravelTime(ctx, from, to)
	} else {
		source, parseErr := strconv.ParseInt(from, 10, 64)
		if parseErr != nil {
			return errors.Wrapf(parseErr, "Bad source node '%s'", from)
		}
		target, parseErr := strconv.ParseInt(to, 10, 64)
		if parseErr != nil {
			return errors.Wrapf(parseErr, "Bad target node '%s'", to)
		}
		travelTime, err = service.TravelTime(ctx, osm.NodeID(source), osm.NodeID(target))
	}
	if err != nil {
		return errors.Wrap(err, "Can't evaluate travel time")
	}
	if travelTime >= monad.UnreachableCost {
		fmt.Printf("'%s' -> '%s': unreachable (penalty %.0f s)\n", from, to, travelTime)
		return nil
	}
	fmt.Printf("'%s' -> '%s': %.1f s (%v)\n", from, to, travelTime, time.Duration(travelTime*float64(time.Second)).Round(time.Second))
	return nil
}
