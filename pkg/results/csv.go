package results

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"net/url"
	"strings"

	"github.com/leapstack-labs/leapsparql/pkg/core"
)

// parseCSV reads SPARQL 1.1 CSV. The format drops term types, so values are
// classified lexically: "_:" prefixes are blank nodes, absolute IRIs with a
// known scheme are URIs, empty fields are unbound, and the rest are plain
// literals.
func parseCSV(body []byte, opts Options) (*core.ParsedTable, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Format: formatCSV, Reason: "missing header row"}
	}
	if err != nil {
		return nil, &ParseError{Format: formatCSV, Reason: "malformed header", Err: err}
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
	}

	var rows []core.Row
	total := 0
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Format: formatCSV, Reason: "malformed record", Err: err}
		}
		total++
		if opts.MaxRows > 0 && len(rows) >= opts.MaxRows {
			continue
		}
		row := make(core.Row, len(columns))
		for i, col := range columns {
			if i >= len(record) {
				row[col] = core.Unbound()
				continue
			}
			row[col] = csvTerm(record[i])
		}
		rows = append(rows, row)
	}
	return buildTable(columns, rows, total, opts.MaxRows), nil
}

var iriSchemes = map[string]bool{
	"http": true, "https": true, "urn": true, "mailto": true,
	"ftp": true, "file": true, "tag": true, "did": true,
}

func csvTerm(v string) core.Binding {
	switch {
	case v == "":
		return core.Unbound()
	case strings.HasPrefix(v, "_:"):
		return core.BlankNode(v[2:])
	case looksLikeIRI(v):
		return core.URI(v)
	default:
		return core.Literal(v, "", "")
	}
}

func looksLikeIRI(v string) bool {
	if strings.ContainsAny(v, " \t\r\n<>\"") {
		return false
	}
	u, err := url.Parse(v)
	if err != nil {
		return false
	}
	return iriSchemes[strings.ToLower(u.Scheme)]
}
