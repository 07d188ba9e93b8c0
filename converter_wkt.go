package monad

import (
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/pkg/errors"
)

// PathWKT returns WKT representation of the route. Unreachable route gives empty LINESTRING
func PathWKT(graph *Graph, route *Route) (string, error) {
	if !route.Found || len(route.Path) == 0 {
		return "LINESTRING EMPTY", nil
	}
	line, err := PathLineString(graph, route.Path)
	if err != nil {
		return "", errors.Wrap(err, "Can't prepare path geometry")
	}
	return wkt.MarshalString(line), nil
}

// BoundsWKT returns WKT polygon of the map extent
func BoundsWKT(box BoundingBox) string {
	return wkt.MarshalString(box.Bound().ToPolygon())
}
