package monad

import (
	"fmt"
	"time"

	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

var (
	// ErrUnknownNode is returned when a query references node which is not in the graph
	ErrUnknownNode = errors.New("unknown node")
	// ErrUnknownStop is returned when a bus stop name is not in the stops index
	ErrUnknownStop = errors.New("unknown bus stop")
)

// ParseError is returned when road network description is malformed. Building is aborted.
type ParseError struct {
	Element string
	Offset  int64
	Reason  string
	Err     error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parse error at offset %d", e.Offset)
	if e.Element != "" {
		msg += fmt.Sprintf(" (element <%s>)", e.Element)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ReferenceError is returned when way references node which has never been declared
type ReferenceError struct {
	WayID  osm.WayID
	NodeID osm.NodeID
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("way %d references undeclared node %d", e.WayID, e.NodeID)
}

// PathReconstructionError is returned when goal has never been reached by the search
type PathReconstructionError struct {
	Start osm.NodeID
	Goal  osm.NodeID
	// At is the node where predecessor chain was broken
	At osm.NodeID
}

func (e *PathReconstructionError) Error() string {
	return fmt.Sprintf("can't reconstruct path from %d to %d: no predecessor for node %d", e.Start, e.Goal, e.At)
}

// SearchAbortedError is returned when search exceeded its expansion or time budget
type SearchAbortedError struct {
	Expanded int
	Elapsed  time.Duration
	Reason   string
}

func (e *SearchAbortedError) Error() string {
	return fmt.Sprintf("search aborted after %d expansions (%v): %s", e.Expanded, e.Elapsed, e.Reason)
}
