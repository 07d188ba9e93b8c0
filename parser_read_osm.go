package monad

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
)

// elementSource produces structural events. Returns io.EOF when input is over.
type elementSource interface {
	Next() (elementEvent, error)
	Close() error
}

// xmlSource turns OSM XML token stream into events. Element nesting is preserved, so the state machine is able to validate it.
type xmlSource struct {
	decoder *xml.Decoder
}

func newXMLSource(r io.Reader) *xmlSource {
	return &xmlSource{
		decoder: xml.NewDecoder(r),
	}
}

func (source *xmlSource) Next() (elementEvent, error) {
	for {
		offset := source.decoder.InputOffset()
		token, err := source.decoder.Token()
		if err == io.EOF {
			return elementEvent{}, io.EOF
		}
		if err != nil {
			return elementEvent{}, &ParseError{
				Offset: source.decoder.InputOffset(),
				Reason: "malformed XML",
				Err:    err,
			}
		}
		switch element := token.(type) {
		case xml.StartElement:
			return startElementEvent(element, offset)
		case xml.EndElement:
			return elementEvent{
				start:   false,
				element: getElementType(element.Name.Local),
				offset:  offset,
			}, nil
		default:
			// Char data, comments, directives and processing instructions are not interesting
			continue
		}
	}
}

func (source *xmlSource) Close() error {
	return nil
}

func startElementEvent(element xml.StartElement, offset int64) (elementEvent, error) {
	event := elementEvent{
		start:   true,
		element: getElementType(element.Name.Local),
		offset:  offset,
	}
	attrs := xmlAttributes{element: event.element, attrs: element.Attr, offset: offset}
	var err error
	switch event.element {
	case ELEMENT_BOUNDS:
		if event.bounds.MinLat, err = attrs.float("minlat"); err != nil {
			return event, err
		}
		if event.bounds.MinLon, err = attrs.float("minlon"); err != nil {
			return event, err
		}
		if event.bounds.MaxLat, err = attrs.float("maxlat"); err != nil {
			return event, err
		}
		if event.bounds.MaxLon, err = attrs.float("maxlon"); err != nil {
			return event, err
		}
	case ELEMENT_NODE:
		id, err := attrs.integer("id")
		if err != nil {
			return event, err
		}
		event.nodeID = osm.NodeID(id)
		if event.lat, err = attrs.float("lat"); err != nil {
			return event, err
		}
		if event.lon, err = attrs.float("lon"); err != nil {
			return event, err
		}
	case ELEMENT_WAY:
		// Way identifier is used for diagnostics only
		if _, ok := attrs.find("id"); ok {
			id, err := attrs.integer("id")
			if err != nil {
				return event, err
			}
			event.wayID = osm.WayID(id)
		}
	case ELEMENT_ND:
		ref, err := attrs.integer("ref")
		if err != nil {
			return event, err
		}
		event.ref = osm.NodeID(ref)
	case ELEMENT_TAG:
		key, ok := attrs.find("k")
		if !ok {
			return event, attrs.missing("k")
		}
		value, _ := attrs.find("v")
		event.tag = osm.Tag{Key: key, Value: value}
	}
	return event, nil
}

type xmlAttributes struct {
	element elementType
	attrs   []xml.Attr
	offset  int64
}

func (attrs xmlAttributes) find(name string) (string, bool) {
	for _, attr := range attrs.attrs {
		if attr.Name.Local == name {
			return attr.Value, true
		}
	}
	return "", false
}

func (attrs xmlAttributes) missing(name string) error {
	return &ParseError{
		Element: attrs.element.String(),
		Offset:  attrs.offset,
		Reason:  fmt.Sprintf("missing attribute '%s'", name),
	}
}

func (attrs xmlAttributes) float(name string) (float64, error) {
	text, ok := attrs.find(name)
	if !ok {
		return 0, attrs.missing(name)
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, &ParseError{
			Element: attrs.element.String(),
			Offset:  attrs.offset,
			Reason:  fmt.Sprintf("attribute '%s' is not a number", name),
			Err:     err,
		}
	}
	return value, nil
}

func (attrs xmlAttributes) integer(name string) (int64, error) {
	text, ok := attrs.find(name)
	if !ok {
		return 0, attrs.missing(name)
	}
	value, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, &ParseError{
			Element: attrs.element.String(),
			Offset:  attrs.offset,
			Reason:  fmt.Sprintf("attribute '%s' is not an integer", name),
			Err:     err,
		}
	}
	return value, nil
}

// pbfSource flattens decoded PBF objects into the same events as XML produces
type pbfSource struct {
	scanner    *osmpbf.Scanner
	pending    []elementEvent
	headerRead bool
}

func newPBFSource(r io.Reader, procs int) *pbfSource {
	return &pbfSource{
		scanner: osmpbf.New(context.Background(), r, procs),
	}
}

func (source *pbfSource) Next() (elementEvent, error) {
	if !source.headerRead {
		source.headerRead = true
		header, err := source.scanner.Header()
		if err != nil {
			return elementEvent{}, &ParseError{Reason: "can't decode PBF header", Err: err}
		}
		// Header bounding box plays the role of XML <bounds>
		if header != nil && header.Bounds != nil {
			source.pending = append(source.pending, elementEvent{start: true, element: ELEMENT_BOUNDS, bounds: *header.Bounds})
		}
	}
	for len(source.pending) == 0 {
		if !source.scanner.Scan() {
			if err := source.scanner.Err(); err != nil {
				return elementEvent{}, &ParseError{Reason: "can't decode PBF data", Err: err}
			}
			return elementEvent{}, io.EOF
		}
		source.pending = objectEvents(source.scanner.Object())
	}
	event := source.pending[0]
	source.pending = source.pending[1:]
	return event, nil
}

func (source *pbfSource) Close() error {
	return source.scanner.Close()
}

func objectEvents(obj osm.Object) []elementEvent {
	switch object := obj.(type) {
	case *osm.Node:
		events := make([]elementEvent, 0, len(object.Tags)+2)
		events = append(events, elementEvent{start: true, element: ELEMENT_NODE, nodeID: object.ID, lon: object.Lon, lat: object.Lat})
		events = appendTagEvents(events, object.Tags)
		return append(events, elementEvent{element: ELEMENT_NODE})
	case *osm.Way:
		events := make([]elementEvent, 0, len(object.Nodes)+len(object.Tags)+2)
		events = append(events, elementEvent{start: true, element: ELEMENT_WAY, wayID: object.ID})
		for _, wayNode := range object.Nodes {
			events = append(events, elementEvent{start: true, element: ELEMENT_ND, ref: wayNode.ID})
		}
		events = appendTagEvents(events, object.Tags)
		return append(events, elementEvent{element: ELEMENT_WAY})
	case *osm.Relation:
		return []elementEvent{
			{start: true, element: ELEMENT_RELATION},
			{element: ELEMENT_RELATION},
		}
	default:
		return nil
	}
}

func appendTagEvents(events []elementEvent, tags osm.Tags) []elementEvent {
	for _, tag := range tags {
		events = append(events, elementEvent{start: true, element: ELEMENT_TAG, tag: tag})
	}
	return events
}
