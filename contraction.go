package monad

import (
	"sync"
	"time"

	"github.com/LdDl/ch"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

// ContractionIndex answers exact shortest travel time queries with contraction hierarchies.
// Edge weights are the same penalized segment times as in FindPath, but no heuristic term is involved.
type ContractionIndex struct {
	graph  *Graph
	engine ch.Graph
	mu     sync.Mutex
}

// NewContractionIndex prepares contraction hierarchies over the road graph
func NewContractionIndex(graph *Graph, options ...SearchOption) (*ContractionIndex, error) {
	opts := newSearchOptions(options...)
	index := &ContractionIndex{
		graph:  graph,
		engine: ch.Graph{},
	}

	st := time.Now()
	type pair struct {
		source osm.NodeID
		target osm.NodeID
	}
	// Parallel ways between the same nodes are collapsed into the cheapest one
	weights := make(map[pair]float64)
	order := make([]pair, 0, graph.EdgesCount())
	for _, source := range graph.Vertices() {
		from, ok := graph.Node(source)
		if !ok {
			continue
		}
		err := index.engine.CreateVertex(int64(source))
		if err != nil {
			return nil, errors.Wrap(err, "Can not create source vertex")
		}
		for _, edge := range graph.edges[source] {
			to, ok := graph.Node(edge.Target)
			if !ok {
				continue
			}
			key := pair{source: source, target: edge.Target}
			cost := segmentTravelTime(from, to, edge)
			if prev, seen := weights[key]; !seen {
				order = append(order, key)
				weights[key] = cost
			} else if cost < prev {
				weights[key] = cost
			}
		}
	}
	for _, key := range order {
		err := index.engine.AddEdge(int64(key.source), int64(key.target), weights[key])
		if err != nil {
			return nil, errors.Wrap(err, "Can not wrap Source and Target vertices as Edge")
		}
	}
	opts.logger.Info("Contraction graph prepared", "vertices", graph.VerticesCount(), "edges", len(order), "elapsed", time.Since(st))

	st = time.Now()
	index.engine.PrepareContractionHierarchies()
	opts.logger.Info("Contraction hierarchies prepared", "elapsed", time.Since(st))
	return index, nil
}

// ShortestPath returns exact fastest path and its travel time (seconds).
// Unreachable target gives nil path and UnreachableCost
func (index *ContractionIndex) ShortestPath(source, target osm.NodeID) ([]osm.NodeID, float64, error) {
	if source == target {
		return []osm.NodeID{source}, 0, nil
	}
	if _, ok := index.graph.Node(source); !ok {
		return nil, UnreachableCost, errors.Wrapf(ErrUnknownNode, "source %d", source)
	}
	if _, ok := index.graph.Node(target); !ok {
		return nil, UnreachableCost, errors.Wrapf(ErrUnknownNode, "target %d", target)
	}
	if len(index.graph.edges[source]) == 0 || !index.graph.HasNode(target) {
		return nil, UnreachableCost, nil
	}
	index.mu.Lock()
	cost, vertices := index.engine.ShortestPath(int64(source), int64(target))
	index.mu.Unlock()
	if cost < 0 || len(vertices) == 0 {
		return nil, UnreachableCost, nil
	}
	path := make([]osm.NodeID, len(vertices))
	for i, vertex := range vertices {
		path[i] = osm.NodeID(vertex)
	}
	return path, cost, nil
}

// ExportShortcutsToCSV writes shortcuts created by contraction
//
// 	from_vertex_id - int64, ID of source vertex
// 	to_vertex_id - int64, ID of target vertex
// 	weight - float64, Travel time (seconds)
// 	via_vertex_id - int64, ID of vertex through which the shortcut exists
func (index *ContractionIndex) ExportShortcutsToCSV(fname string) error {
	index.mu.Lock()
	defer index.mu.Unlock()
	err := index.engine.ExportShortcutsToFile(fname)
	if err != nil {
		return errors.Wrap(err, "Can't export shortcuts")
	}
	return nil
}

// TravelTime returns exact fastest travel time (seconds). Unreachable target gives UnreachableCost with nil error
func (index *ContractionIndex) TravelTime(source, target osm.NodeID) (float64, error) {
	_, cost, err := index.ShortestPath(source, target)
	return cost, err
}
