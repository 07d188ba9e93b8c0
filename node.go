package monad

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

// Node is a declared map point
type Node struct {
	ID osm.NodeID
	// Point is (lon, lat) in degrees
	Point orb.Point
}

// Lon returns longitude of the node
func (node Node) Lon() float64 {
	return node.Point.Lon()
}

// Lat returns latitude of the node
func (node Node) Lat() float64 {
	return node.Point.Lat()
}

// String returns pretty printed value for Node
func (node Node) String() string {
	return fmt.Sprintf("Node %d (Lon: %f | Lat: %f)", node.ID, node.Point.Lon(), node.Point.Lat())
}
