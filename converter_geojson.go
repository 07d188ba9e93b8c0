package monad

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"

	geojson "github.com/paulmach/go.geojson"
)

// PathLineString returns geometry of the path
func PathLineString(graph *Graph, path []osm.NodeID) (orb.LineString, error) {
	line := make(orb.LineString, 0, len(path))
	for _, id := range path {
		node, ok := graph.Node(id)
		if !ok {
			return nil, errors.Wrapf(ErrUnknownNode, "path node %d", id)
		}
		line = append(line, node.Point)
	}
	return line, nil
}

func lineStringCoordinates(line orb.LineString) [][]float64 {
	pts2d := make([][]float64, len(line))
	for i := range line {
		pts2d[i] = []float64{line[i].Lon(), line[i].Lat()}
	}
	return pts2d
}

// PathGeoJSON returns GeoJSON feature collection with the route geometry.
// Unreachable route gives empty collection.
func PathGeoJSON(graph *Graph, route *Route) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	if route.Found && len(route.Path) > 0 {
		line, err := PathLineString(graph, route.Path)
		if err != nil {
			return nil, errors.Wrap(err, "Can't prepare path geometry")
		}
		feature := geojson.NewLineStringFeature(lineStringCoordinates(line))
		feature.SetProperty("source", int64(route.Source))
		feature.SetProperty("target", int64(route.Target))
		feature.SetProperty("travel_time", route.TravelTime())
		feature.SetProperty("length_meters", lineLengthMeters(line))
		feature.SetProperty("nodes", len(route.Path))
		fc.AddFeature(feature)
	}
	b, err := fc.MarshalJSON()
	if err != nil {
		return nil, errors.Wrap(err, "Can't marshal path to GeoJSON")
	}
	return b, nil
}

// ExportGeoJSON returns GeoJSON feature collection with every road edge and every bus stop.
// Stops without name are marked with `named: false`
func (net *RoadNetwork) ExportGeoJSON() ([]byte, error) {
	fc := geojson.NewFeatureCollection()
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
			feature := geojson.NewLineStringFeature([][]float64{
				{from.Lon(), from.Lat()},
				{to.Lon(), to.Lat()},
			})
			feature.SetProperty("kind", "road")
			feature.SetProperty("source", int64(source))
			feature.SetProperty("target", int64(edge.Target))
			feature.SetProperty("way_id", int64(edge.WayID))
			feature.SetProperty("road_class", edge.Rank.String())
			feature.SetProperty("rank", edge.Rank.Rank())
			feature.SetProperty("max_speed", edge.MaxSpeed)
			fc.AddFeature(feature)
		}
	}
	for _, name := range net.BusStops.Names() {
		for _, id := range net.BusStops[name] {
			node, ok := net.Graph.Node(id)
			if !ok {
				continue
			}
			feature := geojson.NewPointFeature([]float64{node.Lon(), node.Lat()})
			feature.SetProperty("kind", "bus_stop")
			feature.SetProperty("osm_node_id", int64(id))
			feature.SetProperty("name", name)
			feature.SetProperty("named", name != "")
			fc.AddFeature(feature)
		}
	}
	b, err := fc.MarshalJSON()
	if err != nil {
		return nil, errors.Wrap(err, "Can't marshal network to GeoJSON")
	}
	return b, nil
}
