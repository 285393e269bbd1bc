package core

import "fmt"

// TermKind identifies the RDF term type held by a Binding.
type TermKind int

// Term kinds.
const (
	// TermUnbound marks a variable with no value in a row.
	TermUnbound TermKind = iota
	TermURI
	TermLiteral
	TermBlankNode
)

// String returns the term kind name used in serialized output.
func (k TermKind) String() string {
	switch k {
	case TermURI:
		return "uri"
	case TermLiteral:
		return "literal"
	case TermBlankNode:
		return "bnode"
	default:
		return "unbound"
	}
}

// XSD datatype IRIs used when synthesizing literals.
const (
	XSDNamespace = "http://www.w3.org/2001/XMLSchema#"
	XSDBoolean   = XSDNamespace + "boolean"
	XSDInteger   = XSDNamespace + "integer"
	XSDDecimal   = XSDNamespace + "decimal"
	XSDDouble    = XSDNamespace + "double"
	XSDString    = XSDNamespace + "string"
)

// Binding is an RDF term assigned to a variable within one result row.
type Binding struct {
	Kind     TermKind `json:"kind"`
	Value    string   `json:"value,omitempty"`
	Lang     string   `json:"lang,omitempty"`
	Datatype string   `json:"datatype,omitempty"`
}

// Unbound returns the binding used for variables without a value.
func Unbound() Binding {
	return Binding{Kind: TermUnbound}
}

// URI returns an IRI binding.
func URI(iri string) Binding {
	return Binding{Kind: TermURI, Value: iri}
}

// Literal returns a literal binding with optional language tag and datatype.
func Literal(value, lang, datatype string) Binding {
	return Binding{Kind: TermLiteral, Value: value, Lang: lang, Datatype: datatype}
}

// BlankNode returns a blank node binding. The label excludes the "_:" prefix.
func BlankNode(label string) Binding {
	return Binding{Kind: TermBlankNode, Value: label}
}

// IsBound reports whether the binding carries a value.
func (b Binding) IsBound() bool {
	return b.Kind != TermUnbound
}

// String returns a compact display form of the term.
func (b Binding) String() string {
	switch b.Kind {
	case TermURI:
		return b.Value
	case TermBlankNode:
		return "_:" + b.Value
	case TermLiteral:
		if b.Lang != "" {
			return b.Value + "@" + b.Lang
		}
		return b.Value
	default:
		return ""
	}
}

// Row maps every column of a table to a Binding. Unbound variables are
// present with TermUnbound, never absent.
type Row map[string]Binding

// ParsedTable is the normalized tabular form of any query result.
type ParsedTable struct {
	Columns   []string `json:"columns"`
	Rows      []Row    `json:"rows"`
	RowCount  int      `json:"row_count"`
	Truncated bool     `json:"truncated"`
	// TotalRows is the number of rows in the source when known.
	TotalRows *int `json:"total_rows,omitempty"`
}

// NewBooleanTable returns the one-row, one-column table used for ASK results.
func NewBooleanTable(value bool) *ParsedTable {
	v := "false"
	if value {
		v = "true"
	}
	return &ParsedTable{
		Columns:  []string{"boolean"},
		Rows:     []Row{{"boolean": Literal(v, "", XSDBoolean)}},
		RowCount: 1,
	}
}

// Get returns the binding at row i for column col. Out-of-range rows and
// unknown columns yield an unbound binding.
func (t *ParsedTable) Get(i int, col string) Binding {
	if t == nil || i < 0 || i >= len(t.Rows) {
		return Unbound()
	}
	if b, ok := t.Rows[i][col]; ok {
		return b
	}
	return Unbound()
}

// Validate checks the table invariants.
func (t *ParsedTable) Validate() error {
	if t == nil {
		return fmt.Errorf("table is nil")
	}
	if len(t.Rows) > t.RowCount {
		return fmt.Errorf("table has %d rows but row count %d", len(t.Rows), t.RowCount)
	}
	if t.Truncated && t.TotalRows != nil && *t.TotalRows <= len(t.Rows) {
		return fmt.Errorf("truncated table reports %d total rows for %d rows", *t.TotalRows, len(t.Rows))
	}
	if !t.Truncated && t.TotalRows != nil && *t.TotalRows != len(t.Rows) {
		return fmt.Errorf("complete table reports %d total rows for %d rows", *t.TotalRows, len(t.Rows))
	}
	for i, row := range t.Rows {
		for _, col := range t.Columns {
			if _, ok := row[col]; !ok {
				return fmt.Errorf("row %d is missing column %q", i, col)
			}
		}
	}
	return nil
}
