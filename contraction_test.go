package monad

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

func TestContractionIndex(t *testing.T) {
	network := buildFromString(t, diamondOSM)
	index, err := NewContractionIndex(network.Graph)
	if err != nil {
		t.Fatal(err)
	}

	path, cost, err := index.ShortestPath(1, 4)
	if err != nil {
		t.Fatal(err)
	}
	correctPath := []osm.NodeID{1, 2, 4}
	if len(path) != len(correctPath) {
		t.Fatalf("Path should be %v, but got %v", correctPath, path)
	}
	for i := range correctPath {
		if path[i] != correctPath[i] {
			t.Errorf("Path should be %v, but got %v", correctPath, path)
			break
		}
	}
	correctCost := pathCost(t, network.Graph, correctPath)
	if math.Abs(cost-correctCost) > 1e-6 {
		t.Errorf("Travel time should be %f, but got %f", correctCost, cost)
	}

	route, err := FindPath(network.Graph, 1, 4)
	if err != nil {
		t.Fatal(err)
	}
	if cost > route.TravelTime()+1e-6 {
		t.Errorf("Exact travel time %f should not exceed best-first one %f", cost, route.TravelTime())
	}
}

func TestContractionIndexEdgeCases(t *testing.T) {
	network := buildFromString(t, diamondOSM)
	index, err := NewContractionIndex(network.Graph)
	if err != nil {
		t.Fatal(err)
	}
	travelTime, err := index.TravelTime(4, 4)
	if err != nil || travelTime != 0 {
		t.Errorf("Travel time from node to itself should be 0, but got %f (%v)", travelTime, err)
	}
	travelTime, err = index.TravelTime(1, 7)
	if err != nil {
		t.Fatal(err)
	}
	if travelTime != UnreachableCost {
		t.Errorf("Travel time to unreachable node should be %f, but got %f", UnreachableCost, travelTime)
	}
	_, err = index.TravelTime(1, 999)
	if !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Unknown node should produce ErrUnknownNode, but got %v", err)
	}
}

func TestContractionIndexOneway(t *testing.T) {
	network := buildFromString(t, twoNodesOSM(`<tag k="highway" v="residential"/><tag k="oneway" v="yes"/>`))
	index, err := NewContractionIndex(network.Graph)
	if err != nil {
		t.Fatal(err)
	}
	travelTime, err := index.TravelTime(1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if travelTime <= 0 || travelTime >= UnreachableCost {
		t.Errorf("Travel time along oneway road should be positive, but got %f", travelTime)
	}
	travelTime, err = index.TravelTime(2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if travelTime != UnreachableCost {
		t.Errorf("Travel time against oneway road should be %f, but got %f", UnreachableCost, travelTime)
	}
}

func TestContractionExportShortcuts(t *testing.T) {
	network := buildFromString(t, diamondOSM)
	index, err := NewContractionIndex(network.Graph)
	if err != nil {
		t.Fatal(err)
	}
	fname := filepath.Join(t.TempDir(), "diamond_shortcuts.csv")
	err = index.ExportShortcutsToCSV(fname)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(fname); err != nil {
		t.Errorf("Shortcuts file should exist: %s", err)
	}
}
