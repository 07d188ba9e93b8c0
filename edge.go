package monad

import (
	"github.com/paulmach/osm"
)

// Edge is a directed road segment between two consecutive nodes of a way
type Edge struct {
	Target osm.NodeID
	// MaxSpeed in km/h
	MaxSpeed float64
	Rank     RoadClass
	WayID    osm.WayID
}
