package results

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/knakk/rdf"
	"github.com/piprate/json-gold/ld"

	"github.com/leapstack-labs/leapsparql/pkg/core"
)

// Columns of a graph result.
var tripleColumns = []string{"subject", "predicate", "object"}

const (
	rdfNS         = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	rdfLangString = rdfNS + "langString"
)

// ctxCheckEvery is how many decoded triples pass between context checks.
const ctxCheckEvery = 512

type triple struct {
	S, P, O core.Binding
}

func parseRDF(ctx context.Context, format string, body []byte, opts Options) (*core.ParsedTable, error) {
	var (
		triples []triple
		err     error
	)
	switch format {
	case formatTurtle:
		triples, err = decodeTriples(ctx, format, rdf.Turtle, body)
	case formatRDFXML:
		triples, err = decodeTriples(ctx, format, rdf.RDFXML, body)
	case formatNTriples, formatNQuads:
		triples, err = parseNQuads(format, body)
	case formatJSONLD:
		triples, err = parseJSONLD(ctx, body)
	default:
		return nil, &ParseError{Reason: "unsupported format " + format}
	}
	if err != nil {
		return nil, err
	}

	limit := len(triples)
	if opts.MaxRows > 0 && opts.MaxRows < limit {
		limit = opts.MaxRows
	}
	rows := make([]core.Row, 0, limit)
	for _, t := range triples[:limit] {
		rows = append(rows, core.Row{"subject": t.S, "predicate": t.P, "object": t.O})
	}
	return buildTable(append([]string(nil), tripleColumns...), rows, len(triples), opts.MaxRows), nil
}

// decodeTriples reads Turtle or RDF/XML one triple at a time and stops early
// once ctx is done.
func decodeTriples(ctx context.Context, format string, syntax rdf.Format, body []byte) ([]triple, error) {
	dec := rdf.NewTripleDecoder(bytes.NewReader(body), syntax)
	var triples []triple
	for {
		if len(triples)%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		t, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return triples, nil
		}
		if err != nil {
			return nil, &ParseError{Format: format, Reason: fmt.Sprintf("invalid triple after %d triples", len(triples)), Err: err}
		}
		s, err := rdfTerm(t.Subj)
		if err != nil {
			return nil, err
		}
		p, err := rdfTerm(t.Pred)
		if err != nil {
			return nil, err
		}
		o, err := rdfTerm(t.Obj)
		if err != nil {
			return nil, err
		}
		triples = append(triples, triple{S: s, P: p, O: o})
	}
}

func rdfTerm(term rdf.Term) (core.Binding, error) {
	switch term.Type() {
	case rdf.TermIRI:
		return core.URI(term.String()), nil
	case rdf.TermBlank:
		return core.BlankNode(strings.TrimPrefix(term.String(), "_:")), nil
	case rdf.TermLiteral:
		lit, ok := term.(rdf.Literal)
		if !ok {
			return core.Binding{}, &ParseError{Reason: fmt.Sprintf("unexpected literal term %T", term)}
		}
		return literal(lit.String(), lit.Lang(), lit.DataType.String()), nil
	default:
		return core.Binding{}, &ParseError{Reason: fmt.Sprintf("unexpected RDF term %T", term)}
	}
}

// literal drops the implicit datatypes so every graph format agrees with
// the SPARQL result formats.
func literal(value, lang, datatype string) core.Binding {
	if datatype == core.XSDString || datatype == rdfLangString {
		datatype = ""
	}
	return core.Literal(value, lang, datatype)
}

func parseNQuads(format string, body []byte) ([]triple, error) {
	dataset, err := (&ld.NQuadRDFSerializer{}).Parse(string(body))
	if err != nil {
		return nil, &ParseError{Format: format, Reason: "malformed N-Triples/N-Quads", Err: err}
	}
	return datasetTriples(dataset)
}

// offlineLoader refuses every remote document. A JSON-LD body may only use
// inline contexts; a response must not make the client fetch URLs the
// endpoint chose.
type offlineLoader struct{}

func (offlineLoader) LoadDocument(u string) (*ld.RemoteDocument, error) {
	return nil, ld.NewJsonLdError(ld.LoadingDocumentFailed, "remote document not loaded: "+u)
}

func parseJSONLD(ctx context.Context, body []byte) ([]triple, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &ParseError{Format: formatJSONLD, Reason: "malformed JSON", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts := ld.NewJsonLdOptions("")
	opts.DocumentLoader = offlineLoader{}
	out, err := ld.NewJsonLdProcessor().ToRDF(doc, opts)
	if err != nil {
		return nil, &ParseError{Format: formatJSONLD, Reason: "cannot convert JSON-LD to RDF", Err: err}
	}
	dataset, ok := out.(*ld.RDFDataset)
	if !ok {
		return nil, &ParseError{Format: formatJSONLD, Reason: fmt.Sprintf("unexpected conversion result %T", out)}
	}
	return datasetTriples(dataset)
}

// datasetTriples flattens every graph of a dataset, default graph first and
// named graphs in name order.
func datasetTriples(dataset *ld.RDFDataset) ([]triple, error) {
	names := make([]string, 0, len(dataset.Graphs))
	for name := range dataset.Graphs {
		if name != "@default" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	names = append([]string{"@default"}, names...)

	var triples []triple
	for _, name := range names {
		for _, q := range dataset.Graphs[name] {
			s, err := ldTerm(q.Subject)
			if err != nil {
				return nil, err
			}
			p, err := ldTerm(q.Predicate)
			if err != nil {
				return nil, err
			}
			o, err := ldTerm(q.Object)
			if err != nil {
				return nil, err
			}
			triples = append(triples, triple{S: s, P: p, O: o})
		}
	}
	return triples, nil
}

func ldTerm(n ld.Node) (core.Binding, error) {
	switch t := n.(type) {
	case *ld.IRI:
		return core.URI(t.Value), nil
	case *ld.BlankNode:
		return core.BlankNode(strings.TrimPrefix(t.Attribute, "_:")), nil
	case *ld.Literal:
		return literal(t.Value, t.Language, t.Datatype), nil
	default:
		return core.Binding{}, &ParseError{Reason: fmt.Sprintf("unexpected RDF term %T", n)}
	}
}
