package monad

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

type elementType uint16

const (
	ELEMENT_OTHER = elementType(iota)
	ELEMENT_BOUNDS
	ELEMENT_NODE
	ELEMENT_WAY
	ELEMENT_ND
	ELEMENT_TAG
	ELEMENT_RELATION
	ELEMENT_OSM
)

func (iotaIdx elementType) String() string {
	return [...]string{"other", "bounds", "node", "way", "nd", "tag", "relation", "osm"}[iotaIdx]
}

var (
	elementTypes = map[string]elementType{
		"bounds":   ELEMENT_BOUNDS,
		"node":     ELEMENT_NODE,
		"way":      ELEMENT_WAY,
		"nd":       ELEMENT_ND,
		"tag":      ELEMENT_TAG,
		"relation": ELEMENT_RELATION,
		"osm":      ELEMENT_OSM,
	}
)

func getElementType(name string) elementType {
	if found, ok := elementTypes[name]; ok {
		return found
	}
	return ELEMENT_OTHER
}

// elementEvent is start or end of a structural element with its attributes already decoded
type elementEvent struct {
	start   bool
	element elementType
	offset  int64

	nodeID osm.NodeID
	wayID  osm.WayID
	lon    float64
	lat    float64
	ref    osm.NodeID
	tag    osm.Tag
	bounds osm.Bounds
}

type elementScope uint16

const (
	SCOPE_ROOT = elementScope(iota)
	SCOPE_NODE
	SCOPE_WAY
	SCOPE_RELATION
)

func (iotaIdx elementScope) String() string {
	return [...]string{"root", "node", "way", "relation"}[iotaIdx]
}

// parserState is the state of ingestion between two events
type parserState struct {
	scope elementScope
	// nodeID is pending bus stop candidate while scope is SCOPE_NODE
	nodeID osm.NodeID
	wayID  osm.WayID
	refs   []osm.NodeID
	tags   osm.Tags
	// skipDepth counts open elements of an unknown subtree. Enclosing scope is kept untouched while it is positive.
	skipDepth int
}

// step applies single event and returns next state. Accumulator collects results of closed scopes.
func (state parserState) step(event elementEvent, acc *networkAccumulator) (parserState, error) {
	if state.skipDepth > 0 {
		if event.start {
			state.skipDepth++
		} else {
			state.skipDepth--
		}
		return state, nil
	}
	if event.start {
		return state.open(event, acc)
	}
	return state.close(event, acc)
}

func (state parserState) open(event elementEvent, acc *networkAccumulator) (parserState, error) {
	switch event.element {
	case ELEMENT_OSM:
		// Document container
		if state.scope != SCOPE_ROOT {
			return state, nestingError(event, state.scope)
		}
		return state, nil
	case ELEMENT_BOUNDS:
		if state.scope != SCOPE_ROOT {
			return state, nestingError(event, state.scope)
		}
		acc.recordBounds(event.bounds)
		return state, nil
	case ELEMENT_NODE:
		if state.scope != SCOPE_ROOT {
			return state, nestingError(event, state.scope)
		}
		acc.addNode(event.nodeID, event.lon, event.lat)
		return parserState{scope: SCOPE_NODE, nodeID: event.nodeID}, nil
	case ELEMENT_WAY:
		if state.scope != SCOPE_ROOT {
			return state, nestingError(event, state.scope)
		}
		return parserState{scope: SCOPE_WAY, wayID: event.wayID}, nil
	case ELEMENT_RELATION:
		if state.scope != SCOPE_ROOT {
			return state, nestingError(event, state.scope)
		}
		return parserState{scope: SCOPE_RELATION}, nil
	case ELEMENT_ND:
		if state.scope != SCOPE_WAY {
			return state, nestingError(event, state.scope)
		}
		state.refs = append(state.refs, event.ref)
		return state, nil
	case ELEMENT_TAG:
		if state.scope == SCOPE_ROOT {
			return state, nestingError(event, state.scope)
		}
		state.tags = append(state.tags, event.tag)
		return state, nil
	default:
		// Unknown element (changeset, member, note, ...): whole subtree is ignored
		state.skipDepth = 1
		return state, nil
	}
}

func (state parserState) close(event elementEvent, acc *networkAccumulator) (parserState, error) {
	switch event.element {
	case ELEMENT_NODE:
		if state.scope != SCOPE_NODE {
			return state, closingError(event, state.scope)
		}
		acc.finishNode(state.nodeID, state.tags)
		return parserState{}, nil
	case ELEMENT_WAY:
		if state.scope != SCOPE_WAY {
			return state, closingError(event, state.scope)
		}
		acc.finishWay(state.wayID, state.refs, state.tags)
		return parserState{}, nil
	case ELEMENT_RELATION:
		if state.scope != SCOPE_RELATION {
			return state, closingError(event, state.scope)
		}
		acc.stats.Relations++
		return parserState{}, nil
	default:
		return state, nil
	}
}

func nestingError(event elementEvent, scope elementScope) error {
	return &ParseError{
		Element: event.element.String(),
		Offset:  event.offset,
		Reason:  fmt.Sprintf("element can't be placed in %s scope", scope),
	}
}

func closingError(event elementEvent, scope elementScope) error {
	return &ParseError{
		Element: event.element.String(),
		Offset:  event.offset,
		Reason:  fmt.Sprintf("unexpected end of element in %s scope", scope),
	}
}

// BuildStats describes single ingestion run
type BuildStats struct {
	Nodes        int
	Ways         int
	WaysAccepted int
	WaysFiltered int
	Relations    int
	Edges        int
	BusStops     int
	DroppedEdges int
	Warnings     []string
}

// networkAccumulator collects results of closed scopes
type networkAccumulator struct {
	graph         *Graph
	busStops      BusStopIndex
	bounds        BoundingBox
	boundsSeen    bool
	extent        orb.Bound
	standardSpeed float64
	// wayRefs keeps first accepted way which referenced the node
	wayRefs map[osm.NodeID]osm.WayID
	stats   BuildStats
	logger  *slog.Logger
}

func newNetworkAccumulator(standardSpeed float64, logger *slog.Logger) *networkAccumulator {
	return &networkAccumulator{
		graph:         newGraph(),
		busStops:      make(BusStopIndex),
		standardSpeed: standardSpeed,
		wayRefs:       make(map[osm.NodeID]osm.WayID),
		logger:        logger,
	}
}

func (acc *networkAccumulator) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	acc.stats.Warnings = append(acc.stats.Warnings, msg)
	acc.logger.Warn(msg)
}

func (acc *networkAccumulator) recordBounds(bounds osm.Bounds) {
	if acc.boundsSeen {
		acc.warn("Repeated <bounds> element has been ignored")
		return
	}
	acc.bounds = BoundingBox{
		MinLat: bounds.MinLat,
		MinLon: bounds.MinLon,
		MaxLat: bounds.MaxLat,
		MaxLon: bounds.MaxLon,
	}
	acc.boundsSeen = true
}

func (acc *networkAccumulator) addNode(id osm.NodeID, lon, lat float64) {
	if !acc.graph.addNode(id, lon, lat) {
		acc.warn("Node %d has been declared more than once. Latest coordinates are used", id)
	} else {
		acc.stats.Nodes++
	}
	pt := orb.Point{lon, lat}
	if acc.stats.Nodes == 1 {
		acc.extent = pt.Bound()
	} else {
		acc.extent = acc.extent.Extend(pt)
	}
}

func (acc *networkAccumulator) finishNode(id osm.NodeID, tags osm.Tags) {
	if tags.Find("highway") != "bus_stop" {
		return
	}
	acc.busStops.add(tags.Find("name"), id)
}

func (acc *networkAccumulator) finishWay(id osm.WayID, refs []osm.NodeID, tags osm.Tags) {
	acc.stats.Ways++
	class, ok := getRoadClass(tags.Find("highway"))
	if !ok {
		acc.stats.WaysFiltered++
		return
	}
	acc.stats.WaysAccepted++
	if len(refs) < 2 {
		acc.warn("Way with %d nodes met. Way ID: '%d'", len(refs), id)
	}
	maxSpeed := acc.standardSpeed
	if maxSpeedText := tags.Find("maxspeed"); maxSpeedText != "" {
		if parsed, ok := parseMaxSpeed(maxSpeedText); ok {
			maxSpeed = parsed
		} else {
			acc.warn("Unhandled `maxspeed` tag value: '%s'. Way ID: '%d'. Standard speed is used", maxSpeedText, id)
		}
	}
	oneway := isOneway(tags.Find("oneway"))
	for _, ref := range refs {
		if _, seen := acc.wayRefs[ref]; !seen {
			acc.wayRefs[ref] = id
		}
	}
	for i := 0; i < len(refs)-1; i++ {
		acc.graph.addEdge(refs[i], Edge{Target: refs[i+1], MaxSpeed: maxSpeed, Rank: class, WayID: id})
		if !oneway {
			acc.graph.addEdge(refs[i+1], Edge{Target: refs[i], MaxSpeed: maxSpeed, Rank: class, WayID: id})
		}
	}
}

// finish validates references and freezes accumulated data into road network
func (acc *networkAccumulator) finish(strictMode bool) (*RoadNetwork, error) {
	missing := make([]osm.NodeID, 0)
	for ref := range acc.wayRefs {
		if _, ok := acc.graph.nodes[ref]; !ok {
			missing = append(missing, ref)
		}
	}
	if len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
		if strictMode {
			return nil, &ReferenceError{WayID: acc.wayRefs[missing[0]], NodeID: missing[0]}
		}
		dangling := make(map[osm.NodeID]struct{}, len(missing))
		for _, ref := range missing {
			dangling[ref] = struct{}{}
		}
		acc.stats.DroppedEdges = acc.graph.removeEdgesTouching(dangling)
		acc.warn("%d undeclared nodes referenced by ways. %d edges have been dropped", len(missing), acc.stats.DroppedEdges)
	}
	// Every edge endpoint must have adjacency entry
	for _, edges := range acc.graph.edges {
		for _, edge := range edges {
			acc.graph.ensureEntry(edge.Target)
		}
	}
	if !acc.boundsSeen && acc.stats.Nodes > 0 {
		acc.bounds = boundingBoxFromBound(acc.extent)
	}
	acc.stats.Edges = acc.graph.EdgesCount()
	acc.stats.BusStops = len(acc.busStops)
	return &RoadNetwork{
		Graph:    acc.graph,
		BusStops: acc.busStops,
		Bounds:   acc.bounds,
		Stats:    acc.stats,
	}, nil
}
