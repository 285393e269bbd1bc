package results

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/leapstack-labs/leapsparql/pkg/core"
)

type jsonDocument struct {
	Head struct {
		Vars []string `json:"vars"`
		Link []string `json:"link"`
	} `json:"head"`
	Results *struct {
		Bindings []json.RawMessage `json:"bindings"`
	} `json:"results"`
	Boolean *bool `json:"boolean"`
}

type jsonTerm struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang"`
	Datatype string `json:"datatype"`
}

func (p *Parser) parseJSON(ctx context.Context, body []byte, opts Options) (*core.ParsedTable, error) {
	var doc jsonDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &ParseError{Format: formatJSON, Reason: "malformed JSON", Err: err}
	}

	switch {
	case doc.Boolean != nil:
		return core.NewBooleanTable(*doc.Boolean), nil
	case doc.Results == nil:
		return nil, &ParseError{Format: formatJSON, Reason: `document has neither "results" nor "boolean"`}
	}

	bindings := doc.Results.Bindings
	columns := doc.Head.Vars
	if len(bindings) > opts.chunkSize() {
		return p.parseChunked(ctx, Request{
			Bindings:  bindings,
			Columns:   columns,
			MaxRows:   opts.MaxRows,
			ChunkSize: opts.chunkSize(),
		}, opts.OnProgress)
	}

	limit := len(bindings)
	if opts.MaxRows > 0 && opts.MaxRows < limit {
		limit = opts.MaxRows
	}
	rows, err := decodeBindings(bindings[:limit], columns, 0)
	if err != nil {
		return nil, err
	}
	return buildTable(columns, rows, len(bindings), opts.MaxRows), nil
}

// parseChunked runs req on the worker and relays its events.
func (p *Parser) parseChunked(ctx context.Context, req Request, onProgress func(Progress)) (*core.ParsedTable, error) {
	for ev := range p.getWorker().Submit(ctx, req) {
		switch ev.Type {
		case EventProgress:
			if onProgress != nil {
				onProgress(ev.Progress)
			}
		case EventComplete:
			return ev.Table, nil
		case EventError:
			return nil, ev.Err
		}
	}
	return nil, &ParseError{Format: formatJSON, Reason: "parse task ended without a result"}
}

// decodeBindings converts raw SPARQL JSON binding objects into rows. offset
// is the index of raw[0] in the full result, used in error messages.
func decodeBindings(raw []json.RawMessage, columns []string, offset int) ([]core.Row, error) {
	rows := make([]core.Row, 0, len(raw))
	for i, msg := range raw {
		var terms map[string]jsonTerm
		if err := json.Unmarshal(msg, &terms); err != nil {
			return nil, &ParseError{Format: formatJSON, Reason: fmt.Sprintf("binding %d is not an object", offset+i), Err: err}
		}
		row := make(core.Row, len(columns))
		for _, col := range columns {
			term, ok := terms[col]
			if !ok {
				row[col] = core.Unbound()
				continue
			}
			b, err := term.binding()
			if err != nil {
				return nil, &ParseError{Format: formatJSON, Reason: fmt.Sprintf("binding %d, variable %q", offset+i, col), Err: err}
			}
			row[col] = b
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (t jsonTerm) binding() (core.Binding, error) {
	switch t.Type {
	case "uri":
		return core.URI(t.Value), nil
	case "literal", "typed-literal":
		return core.Literal(t.Value, t.Lang, t.Datatype), nil
	case "bnode":
		return core.BlankNode(t.Value), nil
	default:
		return core.Binding{}, fmt.Errorf("unknown term type %q", t.Type)
	}
}
