package monad

import (
	"container/heap"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

const (
	// UnreachableCost is travel time (seconds) reported when there is no path between nodes
	UnreachableCost = 300000.0
	// rankDivisor turns road rank into speed penalty: factor = 1 - rank/rankDivisor
	rankDivisor = 50.0
	// clockCheckPeriod is number of expansions between timeout checks
	clockCheckPeriod = 1024
)

// Route is the outcome of a single search
type Route struct {
	Source osm.NodeID
	Target osm.NodeID
	// Path is ordered list of nodes from source to target. Nil when target is unreachable
	Path []osm.NodeID
	// Costs is the best known travel time (seconds) to every node reached by the search.
	// Costs[Target] is UnreachableCost when target is unreachable
	Costs    map[osm.NodeID]float64
	Found    bool
	Expanded int
}

// TravelTime returns cost of the target
func (route *Route) TravelTime() float64 {
	return route.Costs[route.Target]
}

type searchOptions struct {
	maxExpansions int
	timeout       time.Duration
	standardSpeed float64
	logger        *slog.Logger
}

type SearchOption func(*searchOptions)

// WithMaxExpansions limits number of expanded nodes. Zero means no limit
func WithMaxExpansions(maxExpansions int) SearchOption {
	return func(opts *searchOptions) {
		opts.maxExpansions = maxExpansions
	}
}

// WithTimeout limits search wall time. Zero means no limit
func WithTimeout(timeout time.Duration) SearchOption {
	return func(opts *searchOptions) {
		opts.timeout = timeout
	}
}

// WithHeuristicSpeed sets speed (km/h) used to convert remaining straight-line distance into time
func WithHeuristicSpeed(standardSpeed float64) SearchOption {
	return func(opts *searchOptions) {
		if standardSpeed > 0 {
			opts.standardSpeed = standardSpeed
		}
	}
}

// WithLogger sets logger for search summaries
func WithLogger(logger *slog.Logger) SearchOption {
	return func(opts *searchOptions) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

func newSearchOptions(options ...SearchOption) searchOptions {
	opts := searchOptions{
		standardSpeed: DEFAULT_STANDARD_SPEED,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		option(&opts)
	}
	return opts
}

// segmentTravelTime returns time (seconds) to drive along the edge.
// Lower priority roads are penalized by reducing the speed limit proportionally to the rank.
// Ranks are below 13, so the factor stays positive; a rank of 50 or more would break it.
func segmentTravelTime(from, to Node, edge Edge) float64 {
	length := pointDistance(from.Point, to.Point)
	factor := 1.0 - float64(edge.Rank.Rank())/rankDivisor
	speed := edge.MaxSpeed * 1000.0 / 3600.0 * factor
	return length / speed
}

// FindPath runs best-first search from source to target.
//
// Candidates are ordered by accumulated travel time plus road rank plus straight-line time to the target
// at the standard speed. The estimate mixes units and is not guaranteed to be admissible,
// so returned path is not necessary the fastest one.
//
// Unreachable target is not an error: Route.Found is false and Route.Costs[target] equals UnreachableCost.
func FindPath(graph *Graph, source, target osm.NodeID, options ...SearchOption) (*Route, error) {
	if source == target {
		return &Route{
			Source: source,
			Target: target,
			Path:   []osm.NodeID{source},
			Costs:  map[osm.NodeID]float64{target: 0},
			Found:  true,
		}, nil
	}
	if _, ok := graph.Node(source); !ok {
		return nil, errors.Wrapf(ErrUnknownNode, "source %d", source)
	}
	goal, ok := graph.Node(target)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownNode, "target %d", target)
	}

	opts := newSearchOptions(options...)
	heuristicSpeed := opts.standardSpeed * 1000.0 / 3600.0

	costs := map[osm.NodeID]float64{
		source: 0,
		target: UnreachableCost,
	}
	predecessors := make(map[osm.NodeID]osm.NodeID)
	queue := &frontier{}
	heap.Push(queue, frontierItem{id: source, weight: 0})

	st := time.Now()
	expanded := 0
	found := false
	for queue.Len() > 0 {
		current := heap.Pop(queue).(frontierItem)
		if current.id == target {
			found = true
			break
		}
		expanded++
		if opts.maxExpansions > 0 && expanded > opts.maxExpansions {
			return nil, &SearchAbortedError{
				Expanded: expanded - 1,
				Elapsed:  time.Since(st),
				Reason:   fmt.Sprintf("expansion limit %d reached", opts.maxExpansions),
			}
		}
		if opts.timeout > 0 && expanded%clockCheckPeriod == 0 && time.Since(st) > opts.timeout {
			return nil, &SearchAbortedError{
				Expanded: expanded,
				Elapsed:  time.Since(st),
				Reason:   fmt.Sprintf("timeout %v exceeded", opts.timeout),
			}
		}
		from, ok := graph.nodes[current.id]
		if !ok {
			continue
		}
		for _, edge := range graph.edges[current.id] {
			to, ok := graph.nodes[edge.Target]
			if !ok {
				continue
			}
			newCost := costs[current.id] + segmentTravelTime(from, to, edge)
			oldCost, seen := costs[edge.Target]
			if seen && newCost >= oldCost {
				continue
			}
			costs[edge.Target] = newCost
			predecessors[edge.Target] = current.id
			weight := newCost + float64(edge.Rank.Rank()) + pointDistance(to.Point, goal.Point)/heuristicSpeed
			heap.Push(queue, frontierItem{id: edge.Target, weight: weight})
		}
	}

	route := &Route{
		Source:   source,
		Target:   target,
		Costs:    costs,
		Found:    found,
		Expanded: expanded,
	}
	opts.logger.Debug("Search done", "source", source, "target", target, "found", found, "expanded", expanded, "elapsed", time.Since(st))
	if !found {
		costs[target] = UnreachableCost
		return route, nil
	}
	path, err := ReconstructPath(predecessors, source, target)
	if err != nil {
		return nil, errors.Wrap(err, "Can't build path")
	}
	route.Path = path
	return route, nil
}

// ReconstructPath walks predecessors back from target to source and returns path in forward order
func ReconstructPath(predecessors map[osm.NodeID]osm.NodeID, source, target osm.NodeID) ([]osm.NodeID, error) {
	path := []osm.NodeID{target}
	current := target
	for current != source {
		prev, ok := predecessors[current]
		if !ok || len(path) > len(predecessors) {
			return nil, &PathReconstructionError{Start: source, Goal: target, At: current}
		}
		path = append(path, prev)
		current = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}
