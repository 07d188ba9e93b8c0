package monad

import (
	"github.com/paulmach/osm"
)

// TravelTime returns travel time (seconds) between two nodes.
// When target is unreachable UnreachableCost is returned with nil error, so callers may treat it as penalty.
func TravelTime(graph *Graph, source, target osm.NodeID, options ...SearchOption) (float64, error) {
	route, err := FindPath(graph, source, target, options...)
	if err != nil {
		return UnreachableCost, err
	}
	return route.TravelTime(), nil
}
