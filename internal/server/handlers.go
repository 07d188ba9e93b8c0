package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/paulmach/osm"
	"github.com/pkg/errors"

	"github.com/GeoBile/monad"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// TravelTimeResponse is the JSON response for GET /api/travel-time and GET /api/stops/travel-time
type TravelTimeResponse struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	TravelTime float64 `json:"travelTime"`
	Reachable  bool    `json:"reachable"`
	Strategy   string  `json:"strategy"`
}

// PathResponse is the JSON response for GET /api/path?format=json
type PathResponse struct {
	From       osm.NodeID   `json:"from"`
	To         osm.NodeID   `json:"to"`
	Found      bool         `json:"found"`
	TravelTime float64      `json:"travelTime"`
	Path       []osm.NodeID `json:"path"`
	Expanded   int          `json:"expanded"`
}

// StopResponse is an item of GET /api/stops
type StopResponse struct {
	Name  string       `json:"name"`
	Nodes []osm.NodeID `json:"nodes"`
}

// StopsResponse is the JSON response for GET /api/stops
type StopsResponse struct {
	Stops []StopResponse `json:"stops"`
	Count int            `json:"count"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string, details map[string]interface{}) {
	writeJSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// writeQueryError maps routing errors onto HTTP statuses
func (srv *Server) writeQueryError(w http.ResponseWriter, err error) {
	var abortErr *monad.SearchAbortedError
	switch {
	case errors.Is(err, monad.ErrUnknownNode), errors.Is(err, monad.ErrUnknownStop):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case errors.As(err, &abortErr):
		writeError(w, http.StatusServiceUnavailable, "Search aborted", map[string]interface{}{
			"expanded": abortErr.Expanded,
			"reason":   abortErr.Reason,
		})
	default:
		srv.logger.Error("Query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Query failed", map[string]interface{}{
			"internal": err.Error(),
		})
	}
}

func nodeParam(r *http.Request, name string) (osm.NodeID, error) {
	text := r.URL.Query().Get(name)
	if text == "" {
		return 0, fmt.Errorf("'%s' parameter is required", name)
	}
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("'%s' parameter should be integer node identifier", name)
	}
	return osm.NodeID(id), nil
}

func nodePair(w http.ResponseWriter, r *http.Request) (osm.NodeID, osm.NodeID, bool) {
	source, err := nodeParam(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return 0, 0, false
	}
	target, err := nodeParam(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return 0, 0, false
	}
	return source, target, true
}

// health handles GET /health
func (srv *Server) health(w http.ResponseWriter, r *http.Request) {
	network := srv.service.Network()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"strategy":  srv.service.Strategy(),
		"vertices":  network.Graph.VerticesCount(),
		"edges":     network.Graph.EdgesCount(),
		"busStops":  len(network.BusStops),
		"timestamp": time.Now().UTC(),
	})
}

// travelTime handles GET /api/travel-time?from={nodeID}&to={nodeID}
func (srv *Server) travelTime(w http.ResponseWriter, r *http.Request) {
	source, target, ok := nodePair(w, r)
	if !ok {
		return
	}
	travelTime, err := srv.service.TravelTime(r.Context(), source, target)
	if err != nil {
		srv.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TravelTimeResponse{
		From:       strconv.FormatInt(int64(source), 10),
		To:         strconv.FormatInt(int64(target), 10),
		TravelTime: travelTime,
		Reachable:  travelTime < monad.UnreachableCost,
		Strategy:   srv.service.Strategy(),
	})
}

// stopTravelTime handles GET /api/stops/travel-time?from={name}&to={name}
// Empty name refers to unnamed stops
func (srv *Server) stopTravelTime(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("from") || !query.Has("to") {
		writeError(w, http.StatusBadRequest, "'from' and 'to' parameters are required", nil)
		return
	}
	sourceName, targetName := query.Get("from"), query.Get("to")
	travelTime, err := srv.service.StopTravelTime(r.Context(), sourceName, targetName)
	if err != nil {
		srv.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TravelTimeResponse{
		From:       sourceName,
		To:         targetName,
		TravelTime: travelTime,
		Reachable:  travelTime < monad.UnreachableCost,
		Strategy:   srv.service.Strategy(),
	})
}

// path handles GET /api/path?from={nodeID}&to={nodeID}&format={json|geojson|wkt}
func (srv *Server) path(w http.ResponseWriter, r *http.Request) {
	source, target, ok := nodePair(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "geojson" && format != "wkt" {
		writeError(w, http.StatusBadRequest, "'format' parameter should be one of: json, geojson, wkt", nil)
		return
	}
	route, err := srv.service.Path(r.Context(), source, target)
	if err != nil {
		srv.writeQueryError(w, err)
		return
	}
	graph := srv.service.Network().Graph
	switch format {
	case "geojson":
		b, err := monad.PathGeoJSON(graph, route)
		if err != nil {
			srv.writeQueryError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.WriteHeader(http.StatusOK)
		w.Write(b)
	case "wkt":
		text, err := monad.PathWKT(graph, route)
		if err != nil {
			srv.writeQueryError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(text))
	default:
		writeJSON(w, http.StatusOK, PathResponse{
			From:       source,
			To:         target,
			Found:      route.Found,
			TravelTime: route.TravelTime(),
			Path:       route.Path,
			Expanded:   route.Expanded,
		})
	}
}

// stops handles GET /api/stops
func (srv *Server) stops(w http.ResponseWriter, r *http.Request) {
	index := srv.service.Network().BusStops
	names := index.Names()
	response := StopsResponse{
		Stops: make([]StopResponse, 0, len(names)),
		Count: len(names),
	}
	for _, name := range names {
		response.Stops = append(response.Stops, StopResponse{Name: name, Nodes: index.Nodes(name)})
	}
	writeJSON(w, http.StatusOK, response)
}

// network handles GET /api/network
// Returns every road edge and bus stop as GeoJSON feature collection
func (srv *Server) network(w http.ResponseWriter, r *http.Request) {
	b, err := srv.service.Network().ExportGeoJSON()
	if err != nil {
		srv.writeQueryError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
