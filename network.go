package monad

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

// RoadNetwork is a result of ingestion: frozen graph, bus stops index and map extent
type RoadNetwork struct {
	Graph    *Graph
	BusStops BusStopIndex
	Bounds   BoundingBox
	Stats    BuildStats
}

// Route searches path between two nodes of the network
func (net *RoadNetwork) Route(source, target osm.NodeID, options ...SearchOption) (*Route, error) {
	return FindPath(net.Graph, source, target, options...)
}

// StopTravelTime returns travel time (seconds) between two bus stops given by their names.
// Each name is resolved to its node with the lowest identifier.
func (net *RoadNetwork) StopTravelTime(sourceName, targetName string, options ...SearchOption) (float64, error) {
	source, ok := net.BusStops.First(sourceName)
	if !ok {
		return UnreachableCost, errors.Wrapf(ErrUnknownStop, "stop '%s'", sourceName)
	}
	target, ok := net.BusStops.First(targetName)
	if !ok {
		return UnreachableCost, errors.Wrapf(ErrUnknownStop, "stop '%s'", targetName)
	}
	return TravelTime(net.Graph, source, target, options...)
}

func (net *RoadNetwork) ExportToCSV(fname string) error {

	fnameParts := strings.Split(fname, ".csv")
	fnameNodes := fmt.Sprintf(fnameParts[0] + "_nodes.csv")
	fnameEdges := fmt.Sprintf(fnameParts[0] + "_edges.csv")

	err := net.exportNodesToCSV(fnameNodes)
	if err != nil {
		return errors.Wrap(err, "Can't export nodes")
	}

	err = net.exportEdgesToCSV(fnameEdges)
	if err != nil {
		return errors.Wrap(err, "Can't export edges")
	}

	return nil
}

func (net *RoadNetwork) stopNames() map[osm.NodeID]string {
	names := make(map[osm.NodeID]string)
	for _, name := range net.BusStops.Names() {
		for _, id := range net.BusStops[name] {
			names[id] = name
		}
	}
	return names
}

func (net *RoadNetwork) exportNodesToCSV(fname string) error {
	file, err := os.Create(fname)
	if err != nil {
		return errors.Wrap(err, "Can't create file")
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()
	writer.Comma = ';'

	err = writer.Write([]string{"osm_node_id", "is_bus_stop", "stop_name", "out_degree", "longitude", "latitude"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}

	stops := net.stopNames()
	for _, id := range net.Graph.Vertices() {
		node, ok := net.Graph.Node(id)
		if !ok {
			continue
		}
		name, isStop := stops[id]
		err = writer.Write([]string{
			fmt.Sprintf("%d", id),
			fmt.Sprintf("%t", isStop),
			name,
			fmt.Sprintf("%d", len(net.Graph.edges[id])),
			fmt.Sprintf("%f", node.Lon()),
			fmt.Sprintf("%f", node.Lat()),
		})
		if err != nil {
			return errors.Wrap(err, "Can't write node")
		}
	}
	return nil
}

func (net *RoadNetwork) exportEdgesToCSV(fname string) error {
	file, err := os.Create(fname)
	if err != nil {
		return errors.Wrap(err, "Can't create file")
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()
	writer.Comma = ';'

	err = writer.Write([]string{"source_node", "target_node", "osm_way_id", "road_class", "rank", "max_speed", "length_meters", "travel_time", "geom"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}

	for _, source := range net.Graph.Vertices() {
		from, ok := net.Graph.Node(source)
		if !ok {
			continue
		}
		for _, edge := range net.Graph.edges[source] {
			to, ok := net.Graph.Node(edge.Target)
			if !ok {
				continue
			}
			err = writer.Write([]string{
				fmt.Sprintf("%d", source),
				fmt.Sprintf("%d", edge.Target),
				fmt.Sprintf("%d", edge.WayID),
				fmt.Sprintf("%s", edge.Rank),
				fmt.Sprintf("%d", edge.Rank.Rank()),
				fmt.Sprintf("%f", edge.MaxSpeed),
				fmt.Sprintf("%f", pointDistance(from.Point, to.Point)),
				fmt.Sprintf("%f", segmentTravelTime(from, to, edge)),
				wkt.MarshalString(orb.LineString{from.Point, to.Point}),
			})
			if err != nil {
				return errors.Wrap(err, "Can't write edge")
			}
		}
	}
	return nil
}
