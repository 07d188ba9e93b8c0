package traveltime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bluele/gcache"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"

	"github.com/GeoBile/monad"
	"github.com/GeoBile/monad/internal/metrics"
)

const (
	STRATEGY_BESTFIRST   = "bestfirst"
	STRATEGY_CONTRACTION = "contraction"
)

// Options configures Service
type Options struct {
	// Strategy is either STRATEGY_BESTFIRST (default) or STRATEGY_CONTRACTION
	Strategy string
	// CacheSize is number of cached node pairs. Zero disables cache
	CacheSize int
	// CacheTTL is lifetime of cached entry. Zero means entries never expire
	CacheTTL      time.Duration
	SearchOptions []monad.SearchOption
	Logger        *slog.Logger
}

// Service answers travel time queries over single road network. Safe for concurrent use.
type Service struct {
	network       *monad.RoadNetwork
	strategy      string
	index         *monad.ContractionIndex
	cache         gcache.Cache
	searchOptions []monad.SearchOption
	logger        *slog.Logger
}

type cacheKey struct {
	source osm.NodeID
	target osm.NodeID
}

// New prepares service. Contraction hierarchies are built eagerly when that strategy is chosen.
func New(network *monad.RoadNetwork, opts Options) (*Service, error) {
	if network == nil {
		return nil, errors.New("road network is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	svc := &Service{
		network:       network,
		strategy:      opts.Strategy,
		searchOptions: append([]monad.SearchOption{monad.WithLogger(logger)}, opts.SearchOptions...),
		logger:        logger,
	}
	switch svc.strategy {
	case "", STRATEGY_BESTFIRST:
		svc.strategy = STRATEGY_BESTFIRST
	case STRATEGY_CONTRACTION:
		index, err := monad.NewContractionIndex(network.Graph, svc.searchOptions...)
		if err != nil {
			return nil, errors.Wrap(err, "Can't prepare contraction hierarchies")
		}
		svc.index = index
	default:
		return nil, fmt.Errorf("unknown routing strategy '%s'", opts.Strategy)
	}
	if opts.CacheSize > 0 {
		builder := gcache.New(opts.CacheSize).LRU()
		if opts.CacheTTL > 0 {
			builder = builder.Expiration(opts.CacheTTL)
		}
		svc.cache = builder.Build()
	}
	metrics.SetNetworkSize(network.Graph.VerticesCount(), network.Graph.EdgesCount(), len(network.BusStops), len(network.Stats.Warnings))
	return svc, nil
}

// Network returns underlying road network
func (svc *Service) Network() *monad.RoadNetwork {
	return svc.network
}

// Strategy returns name of the routing strategy in use
func (svc *Service) Strategy() string {
	return svc.strategy
}

// TravelTime returns travel time (seconds) between two nodes. Unreachable target gives monad.UnreachableCost and nil error
func (svc *Service) TravelTime(ctx context.Context, source, target osm.NodeID) (float64, error) {
	if err := ctx.Err(); err != nil {
		return monad.UnreachableCost, err
	}
	key := cacheKey{source: source, target: target}
	if svc.cache != nil {
		if cached, err := svc.cache.Get(key); err == nil {
			metrics.CacheHits.WithLabelValues("travel_time").Inc()
			return cached.(float64), nil
		}
		metrics.CacheMisses.WithLabelValues("travel_time").Inc()
	}

	st := time.Now()
	var travelTime float64
	var err error
	if svc.index != nil {
		travelTime, err = svc.index.TravelTime(source, target)
	} else {
		var route *monad.Route
		route, err = monad.FindPath(svc.network.Graph, source, target, svc.searchOptions...)
		if err == nil {
			metrics.SearchExpandedNodes.Observe(float64(route.Expanded))
			travelTime = route.TravelTime()
		}
	}
	metrics.SearchDuration.WithLabelValues(svc.strategy).Observe(time.Since(st).Seconds())
	metrics.SearchesTotal.WithLabelValues(svc.strategy, outcome(travelTime, err)).Inc()
	if err != nil {
		return monad.UnreachableCost, err
	}

	if svc.cache != nil {
		if err := svc.cache.Set(key, travelTime); err != nil {
			svc.logger.Warn("Can't cache travel time", "source", source, "target", target, "error", err)
		}
	}
	return travelTime, nil
}

// StopTravelTime returns travel time (seconds) between two bus stops given by names
func (svc *Service) StopTravelTime(ctx context.Context, sourceName, targetName string) (float64, error) {
	source, ok := svc.network.BusStops.First(sourceName)
	if !ok {
		return monad.UnreachableCost, errors.Wrapf(monad.ErrUnknownStop, "stop '%s'", sourceName)
	}
	target, ok := svc.network.BusStops.First(targetName)
	if !ok {
		return monad.UnreachableCost, errors.Wrapf(monad.ErrUnknownStop, "stop '%s'", targetName)
	}
	return svc.TravelTime(ctx, source, target)
}

// Path returns route between two nodes. Contraction strategy gives exact fastest path with only the target cost filled
func (svc *Service) Path(ctx context.Context, source, target osm.NodeID) (*monad.Route, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st := time.Now()
	defer func() {
		metrics.SearchDuration.WithLabelValues(svc.strategy).Observe(time.Since(st).Seconds())
	}()
	if svc.index == nil {
		route, err := svc.network.Route(source, target, svc.searchOptions...)
		if err != nil {
			metrics.SearchesTotal.WithLabelValues(svc.strategy, outcome(monad.UnreachableCost, err)).Inc()
			return nil, err
		}
		metrics.SearchExpandedNodes.Observe(float64(route.Expanded))
		metrics.SearchesTotal.WithLabelValues(svc.strategy, outcome(route.TravelTime(), nil)).Inc()
		return route, nil
	}
	path, cost, err := svc.index.ShortestPath(source, target)
	metrics.SearchesTotal.WithLabelValues(svc.strategy, outcome(cost, err)).Inc()
	if err != nil {
		return nil, err
	}
	return &monad.Route{
		Source: source,
		Target: target,
		Path:   path,
		Costs:  map[osm.NodeID]float64{target: cost},
		Found:  path != nil,
	}, nil
}

func outcome(travelTime float64, err error) string {
	if err != nil {
		var abortErr *monad.SearchAbortedError
		if errors.As(err, &abortErr) {
			return "aborted"
		}
		return "error"
	}
	if travelTime >= monad.UnreachableCost {
		return "unreachable"
	}
	return "found"
}
