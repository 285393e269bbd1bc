package results

import (
	"encoding/xml"

	"github.com/leapstack-labs/leapsparql/pkg/core"
)

type xmlDocument struct {
	XMLName xml.Name `xml:"sparql"`
	Head    struct {
		Variables []struct {
			Name string `xml:"name,attr"`
		} `xml:"variable"`
	} `xml:"head"`
	Results *struct {
		Results []struct {
			Bindings []xmlBinding `xml:"binding"`
		} `xml:"result"`
	} `xml:"results"`
	Boolean *string `xml:"boolean"`
}

type xmlBinding struct {
	Name    string  `xml:"name,attr"`
	URI     *string `xml:"uri"`
	BNode   *string `xml:"bnode"`
	Literal *struct {
		Value    string `xml:",chardata"`
		Lang     string `xml:"http://www.w3.org/XML/1998/namespace lang,attr"`
		Datatype string `xml:"datatype,attr"`
	} `xml:"literal"`
}

func parseXML(body []byte, opts Options) (*core.ParsedTable, error) {
	var doc xmlDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, &ParseError{Format: formatXML, Reason: "malformed XML", Err: err}
	}

	if doc.Boolean != nil {
		switch *doc.Boolean {
		case "true", "1":
			return core.NewBooleanTable(true), nil
		case "false", "0":
			return core.NewBooleanTable(false), nil
		default:
			return nil, parseErrorf(formatXML, "invalid boolean %q", *doc.Boolean)
		}
	}
	if doc.Results == nil {
		return nil, &ParseError{Format: formatXML, Reason: "document has neither <results> nor <boolean>"}
	}

	columns := make([]string, 0, len(doc.Head.Variables))
	for _, v := range doc.Head.Variables {
		columns = append(columns, v.Name)
	}

	results := doc.Results.Results
	limit := len(results)
	if opts.MaxRows > 0 && opts.MaxRows < limit {
		limit = opts.MaxRows
	}
	rows := make([]core.Row, 0, limit)
	for i := 0; i < limit; i++ {
		row := make(core.Row, len(columns))
		for _, col := range columns {
			row[col] = core.Unbound()
		}
		for _, b := range results[i].Bindings {
			if _, ok := row[b.Name]; !ok {
				continue
			}
			switch {
			case b.URI != nil:
				row[b.Name] = core.URI(*b.URI)
			case b.BNode != nil:
				row[b.Name] = core.BlankNode(*b.BNode)
			case b.Literal != nil:
				row[b.Name] = core.Literal(b.Literal.Value, b.Literal.Lang, b.Literal.Datatype)
			default:
				return nil, parseErrorf(formatXML, "result %d: binding %q has no term", i, b.Name)
			}
		}
		rows = append(rows, row)
	}
	return buildTable(columns, rows, len(results), opts.MaxRows), nil
}
