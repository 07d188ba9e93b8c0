package monad

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

// Graph is adjacency structure of the road network.
//
// Graph is built once by the parser and never mutated afterwards, so it is safe for concurrent reads.
type Graph struct {
	nodes    map[osm.NodeID]Node
	edges    map[osm.NodeID][]Edge
	edgesNum int
}

func newGraph() *Graph {
	return &Graph{
		nodes: make(map[osm.NodeID]Node),
		edges: make(map[osm.NodeID][]Edge),
	}
}

// addNode declares node. Returns false if node has been declared already (then it is overwritten).
func (graph *Graph) addNode(id osm.NodeID, lon, lat float64) bool {
	_, seen := graph.nodes[id]
	graph.nodes[id] = Node{ID: id, Point: orb.Point{lon, lat}}
	return !seen
}

// addEdge appends edge to the outgoing list of source and makes sure target has adjacency entry
func (graph *Graph) addEdge(source osm.NodeID, edge Edge) {
	graph.edges[source] = append(graph.edges[source], edge)
	if _, ok := graph.edges[edge.Target]; !ok {
		graph.edges[edge.Target] = []Edge{}
	}
	graph.edgesNum++
}

// ensureEntry adds empty adjacency entry if there is no one
func (graph *Graph) ensureEntry(id osm.NodeID) {
	if _, ok := graph.edges[id]; !ok {
		graph.edges[id] = []Edge{}
	}
}

// removeEdgesTouching drops every edge which starts or ends in one of given nodes
func (graph *Graph) removeEdgesTouching(ids map[osm.NodeID]struct{}) int {
	removed := 0
	for id := range ids {
		removed += len(graph.edges[id])
		delete(graph.edges, id)
	}
	for source, edges := range graph.edges {
		kept := edges[:0]
		for _, edge := range edges {
			if _, ok := ids[edge.Target]; ok {
				removed++
				continue
			}
			kept = append(kept, edge)
		}
		graph.edges[source] = kept
	}
	graph.edgesNum -= removed
	return removed
}

// EdgesOf returns copy of ordered outgoing edges of given node
func (graph *Graph) EdgesOf(id osm.NodeID) []Edge {
	edges := graph.edges[id]
	out := make([]Edge, len(edges))
	copy(out, edges)
	return out
}

// HasNode checks if node has an adjacency entry (i.e. it is an endpoint of some road edge)
func (graph *Graph) HasNode(id osm.NodeID) bool {
	_, ok := graph.edges[id]
	return ok
}

// Node returns declared node by its identifier
func (graph *Graph) Node(id osm.NodeID) (Node, bool) {
	node, ok := graph.nodes[id]
	return node, ok
}

// NodesCount returns number of declared nodes
func (graph *Graph) NodesCount() int {
	return len(graph.nodes)
}

// VerticesCount returns number of nodes with adjacency entry
func (graph *Graph) VerticesCount() int {
	return len(graph.edges)
}

// EdgesCount returns number of directed edges
func (graph *Graph) EdgesCount() int {
	return graph.edgesNum
}

// Vertices returns sorted identifiers of nodes with adjacency entry
func (graph *Graph) Vertices() []osm.NodeID {
	ids := make([]osm.NodeID, 0, len(graph.edges))
	for id := range graph.edges {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// BusStopIndex maps bus stop name to sorted set of nodes tagged as that stop. Unnamed stops share "" key.
type BusStopIndex map[string][]osm.NodeID

// add inserts node keeping set sorted and without duplicates
func (index BusStopIndex) add(name string, id osm.NodeID) {
	ids := index[name]
	pos := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
	if pos < len(ids) && ids[pos] == id {
		return
	}
	ids = append(ids, 0)
	copy(ids[pos+1:], ids[pos:])
	ids[pos] = id
	index[name] = ids
}

// Names returns sorted stop names
func (index BusStopIndex) Names() []string {
	names := make([]string, 0, len(index))
	for name := range index {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Nodes returns copy of nodes registered for given stop name
func (index BusStopIndex) Nodes(name string) []osm.NodeID {
	ids := index[name]
	out := make([]osm.NodeID, len(ids))
	copy(out, ids)
	return out
}

// First returns node with the lowest identifier registered for given stop name
func (index BusStopIndex) First(name string) (osm.NodeID, bool) {
	ids, ok := index[name]
	if !ok || len(ids) == 0 {
		return 0, false
	}
	return ids[0], true
}

// BoundingBox is map extent in degrees
type BoundingBox struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// Bound returns orb representation of the box
func (box BoundingBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{box.MinLon, box.MinLat},
		Max: orb.Point{box.MaxLon, box.MaxLat},
	}
}

// IsZero checks if box has not been recorded
func (box BoundingBox) IsZero() bool {
	return box == BoundingBox{}
}

func boundingBoxFromBound(bound orb.Bound) BoundingBox {
	return BoundingBox{
		MinLat: bound.Min.Lat(),
		MinLon: bound.Min.Lon(),
		MaxLat: bound.Max.Lat(),
		MaxLon: bound.Max.Lon(),
	}
}
