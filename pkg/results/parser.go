package results

import (
	"context"
	"log/slog"
	"mime"
	"strings"
	"sync"
	"time"

	"github.com/leapstack-labs/leapsparql/pkg/core"
)

// DefaultChunkSize is the binding count above which SPARQL JSON results are
// parsed by the background worker, and the size of each chunk.
const DefaultChunkSize = 1000

// Progress is a snapshot of chunked parsing.
type Progress struct {
	RowsParsed int           `json:"rows_parsed"`
	TotalRows  int           `json:"total_rows"`
	Percent    float64       `json:"percent"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Options tune a single Parse call.
type Options struct {
	// MaxRows truncates the table; 0 keeps every row.
	MaxRows int
	// ChunkSize defaults to DefaultChunkSize.
	ChunkSize int
	// OnProgress is called from the caller's goroutine for every chunk
	// parsed by the worker.
	OnProgress func(Progress)
}

func (o Options) chunkSize() int {
	if o.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return o.ChunkSize
}

// Media type families.
const (
	formatJSON     = "json"
	formatXML      = "xml"
	formatCSV      = "csv"
	formatTSV      = "tsv"
	formatTurtle   = "turtle"
	formatNTriples = "ntriples"
	formatNQuads   = "nquads"
	formatRDFXML   = "rdfxml"
	formatJSONLD   = "jsonld"
)

var mediaTypes = map[string]string{
	"application/sparql-results+json": formatJSON,
	"application/json":                formatJSON,
	"application/sparql-results+xml":  formatXML,
	"application/xml":                 formatXML,
	"text/xml":                        formatXML,
	"text/csv":                        formatCSV,
	"text/tab-separated-values":       formatTSV,
	"text/turtle":                     formatTurtle,
	"application/x-turtle":            formatTurtle,
	"application/n-triples":           formatNTriples,
	"application/n-quads":             formatNQuads,
	"application/rdf+xml":             formatRDFXML,
	"application/ld+json":             formatJSONLD,
}

// FormatOf maps a Content-Type header value to a payload family.
// Matching ignores case and parameters; ok is false for unsupported types.
func FormatOf(contentType string) (string, bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	}
	format, ok := mediaTypes[strings.ToLower(mediaType)]
	return format, ok
}

// Config configures a Parser.
type Config struct {
	Logger *slog.Logger
	// Worker runs chunked parses. When nil the parser starts its own on
	// first use and stops it on Close.
	Worker *Worker
}

// Parser decodes response bodies.
type Parser struct {
	logger *slog.Logger

	mu         sync.Mutex
	worker     *Worker
	ownsWorker bool
}

// NewParser creates a parser.
func NewParser(cfg Config) *Parser {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Parser{logger: cfg.Logger, worker: cfg.Worker}
}

// Close stops the parser's own worker, if it started one.
func (p *Parser) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ownsWorker && p.worker != nil {
		p.worker.Close()
		p.worker = nil
		p.ownsWorker = false
	}
}

func (p *Parser) getWorker() *Worker {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.worker == nil {
		p.worker = NewWorker(p.logger)
		p.ownsWorker = true
	}
	return p.worker
}

// Parse decodes body according to contentType.
func (p *Parser) Parse(ctx context.Context, body []byte, contentType string, opts Options) (*core.ParsedTable, error) {
	format, ok := FormatOf(contentType)
	if !ok {
		return nil, &ParseError{Reason: "unsupported content type " + quote(contentType)}
	}
	p.logger.Debug("parsing response", slog.String("format", format), slog.Int("bytes", len(body)))

	switch format {
	case formatJSON:
		return p.parseJSON(ctx, body, opts)
	case formatXML:
		return parseXML(body, opts)
	case formatCSV:
		return parseCSV(body, opts)
	case formatTSV:
		return parseTSV(body, opts)
	default:
		return parseRDF(ctx, format, body, opts)
	}
}

// Parse decodes body with a short-lived Parser.
func Parse(ctx context.Context, body []byte, contentType string, opts Options) (*core.ParsedTable, error) {
	p := NewParser(Config{})
	defer p.Close()
	return p.Parse(ctx, body, contentType, opts)
}

// buildTable applies MaxRows to rows decoded from a source of total rows.
func buildTable(columns []string, rows []core.Row, total, maxRows int) *core.ParsedTable {
	if columns == nil {
		columns = []string{}
	}
	n := total
	table := &core.ParsedTable{Columns: columns, Rows: rows, TotalRows: &n}
	if maxRows > 0 && total > maxRows {
		if len(table.Rows) > maxRows {
			table.Rows = table.Rows[:maxRows]
		}
		table.Truncated = true
	}
	if table.Rows == nil {
		table.Rows = []core.Row{}
	}
	table.RowCount = len(table.Rows)
	return table
}

func quote(s string) string {
	if s == "" {
		return `""`
	}
	return `"` + s + `"`
}
