package monad

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// InputFormat is encoding of OSM input
type InputFormat uint16

const (
	FORMAT_XML = InputFormat(iota)
	FORMAT_PBF
)

func (iotaIdx InputFormat) String() string {
	return [...]string{"xml", "pbf"}[iotaIdx]
}

// FormatFromFilename guesses input format by file extension
func FormatFromFilename(filename string) (InputFormat, error) {
	ext := filepath.Ext(filename)
	switch ext {
	case ".osm", ".xml":
		return FORMAT_XML, nil
	case ".pbf":
		return FORMAT_PBF, nil
	default:
		return FORMAT_XML, fmt.Errorf("File extension '%s' for file '%s' is not handled yet", ext, filename)
	}
}

type Parser struct {
	filename      string
	standardSpeed float64
	strictMode    bool
	pbfProcs      int
	logger        *slog.Logger
}

func (parser *Parser) String() string {
	return fmt.Sprintf(`
Network parser parameters:
	filename: '%s'
	standard_speed: %f
	strict_mode enabled?: %t
	pbf_procs: %d
	`,
		parser.filename,
		parser.standardSpeed,
		parser.strictMode,
		parser.pbfProcs,
	)
}

func NewParser(fileName string, options ...func(*Parser)) *Parser {
	parser := &Parser{
		filename:      fileName,
		standardSpeed: DEFAULT_STANDARD_SPEED,
		strictMode:    true,
		pbfProcs:      4,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		option(parser)
	}
	return parser
}

// WithStandardSpeed sets speed (km/h) for roads without `maxspeed` tag
func WithStandardSpeed(standardSpeed float64) func(*Parser) {
	return func(parser *Parser) {
		if standardSpeed > 0 {
			parser.standardSpeed = standardSpeed
		}
	}
}

// WithStrictMode turns undeclared node references into fatal errors (default). When disabled such edges are dropped.
func WithStrictMode(strictMode bool) func(*Parser) {
	return func(parser *Parser) {
		parser.strictMode = strictMode
	}
}

// WithPBFProcs sets number of goroutines used by PBF decoder
func WithPBFProcs(procs int) func(*Parser) {
	return func(parser *Parser) {
		if procs > 0 {
			parser.pbfProcs = procs
		}
	}
}

// WithParserLogger sets logger for ingestion timings and warnings
func WithParserLogger(logger *slog.Logger) func(*Parser) {
	return func(parser *Parser) {
		if logger != nil {
			parser.logger = logger
		}
	}
}

// BuildNetwork reads file given to parser and builds road network
func (parser *Parser) BuildNetwork() (*RoadNetwork, error) {
	format, err := FormatFromFilename(parser.filename)
	if err != nil {
		return nil, err
	}
	parser.logger.Info("Opening file", "filename", parser.filename, "format", format.String())
	file, err := os.Open(parser.filename)
	if err != nil {
		return nil, errors.Wrap(err, "Can't open OSM file")
	}
	defer file.Close()
	return parser.buildFromReader(file, format)
}

// BuildNetworkFromReader builds road network from OSM data of given format
func BuildNetworkFromReader(r io.Reader, format InputFormat, options ...func(*Parser)) (*RoadNetwork, error) {
	parser := NewParser("", options...)
	return parser.buildFromReader(r, format)
}

func (parser *Parser) buildFromReader(r io.Reader, format InputFormat) (*RoadNetwork, error) {
	var source elementSource
	switch format {
	case FORMAT_XML:
		source = newXMLSource(r)
	case FORMAT_PBF:
		source = newPBFSource(r, parser.pbfProcs)
	default:
		return nil, fmt.Errorf("Input format '%d' is not handled", format)
	}
	defer source.Close()

	parser.logger.Info("Scanning elements...")
	st := time.Now()
	acc := newNetworkAccumulator(parser.standardSpeed, parser.logger)
	state := parserState{}
	for {
		event, err := source.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "Can't read OSM data")
		}
		state, err = state.step(event, acc)
		if err != nil {
			return nil, errors.Wrap(err, "Can't process OSM data")
		}
	}
	if state.scope != SCOPE_ROOT || state.skipDepth > 0 {
		return nil, &ParseError{Element: state.scope.String(), Reason: "input ended inside of element"}
	}
	parser.logger.Info("Scanning elements done", "elapsed", time.Since(st))

	st = time.Now()
	network, err := acc.finish(parser.strictMode)
	if err != nil {
		return nil, errors.Wrap(err, "Can't prepare road network")
	}
	parser.logger.Info(
		"Road network prepared",
		"elapsed", time.Since(st),
		"nodes", network.Stats.Nodes,
		"ways_accepted", network.Stats.WaysAccepted,
		"ways_filtered", network.Stats.WaysFiltered,
		"edges", network.Stats.Edges,
		"bus_stops", network.Stats.BusStops,
	)
	return network, nil
}
