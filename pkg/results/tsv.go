package results

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/leapsparql/pkg/core"
)

// parseTSV reads SPARQL 1.1 TSV: a header of ?variables, then one row per
// line with terms in Turtle syntax.
func parseTSV(body []byte, opts Options) (*core.ParsedTable, error) {
	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 64*1024), 64*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, &ParseError{Format: formatTSV, Reason: "cannot read header", Err: err}
		}
		return nil, &ParseError{Format: formatTSV, Reason: "missing header row"}
	}
	header := strings.Split(strings.TrimRight(strings.TrimPrefix(sc.Text(), "\ufeff"), "\r"), "\t")
	columns := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		h = strings.TrimPrefix(strings.TrimPrefix(h, "?"), "$")
		columns[i] = h
	}

	var rows []core.Row
	total := 0
	for line := 2; sc.Scan(); line++ {
		text := strings.TrimRight(sc.Text(), "\r")
		if text == "" {
			continue
		}
		total++
		if opts.MaxRows > 0 && len(rows) >= opts.MaxRows {
			continue
		}
		fields := strings.Split(text, "\t")
		row := make(core.Row, len(columns))
		for i, col := range columns {
			if i >= len(fields) {
				row[col] = core.Unbound()
				continue
			}
			b, err := parseTSVTerm(fields[i])
			if err != nil {
				return nil, &ParseError{Format: formatTSV, Reason: fmt.Sprintf("line %d, column %q", line, col), Err: err}
			}
			row[col] = b
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Format: formatTSV, Reason: "cannot read body", Err: err}
	}
	return buildTable(columns, rows, total, opts.MaxRows), nil
}

// parseTSVTerm decodes one RDF term in Turtle syntax.
func parseTSVTerm(field string) (core.Binding, error) {
	f := strings.TrimSpace(field)
	switch {
	case f == "":
		return core.Unbound(), nil
	case strings.HasPrefix(f, "<") && strings.HasSuffix(f, ">"):
		return core.URI(f[1 : len(f)-1]), nil
	case strings.HasPrefix(f, "_:"):
		return core.BlankNode(f[2:]), nil
	case strings.HasPrefix(f, `"`):
		return parseQuotedTerm(f)
	case f == "true" || f == "false":
		return core.Literal(f, "", core.XSDBoolean), nil
	}
	if dt := numericDatatype(f); dt != "" {
		return core.Literal(f, "", dt), nil
	}
	return core.Binding{}, fmt.Errorf("unrecognized term %q", f)
}

// parseQuotedTerm handles "lexical", "lexical"@lang and "lexical"^^<datatype>.
func parseQuotedTerm(f string) (core.Binding, error) {
	value, rest, err := unquote(f)
	if err != nil {
		return core.Binding{}, err
	}
	switch {
	case rest == "":
		return core.Literal(value, "", ""), nil
	case strings.HasPrefix(rest, "@"):
		return core.Literal(value, rest[1:], ""), nil
	case strings.HasPrefix(rest, "^^<") && strings.HasSuffix(rest, ">"):
		return core.Literal(value, "", rest[3:len(rest)-1]), nil
	default:
		return core.Binding{}, fmt.Errorf("unexpected %q after literal", rest)
	}
}

// unquote reads a double-quoted string with Turtle escapes from the start of
// s and returns the value plus the remainder after the closing quote.
func unquote(s string) (string, string, error) {
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			return b.String(), s[i+1:], nil
		case '\\':
			if i+1 >= len(s) {
				return "", "", fmt.Errorf("dangling escape")
			}
			i++
			r, width, err := decodeEscape(s[i:])
			if err != nil {
				return "", "", err
			}
			b.WriteString(r)
			i += width - 1
		default:
			b.WriteByte(c)
		}
	}
	return "", "", fmt.Errorf("unterminated string")
}

// numericDatatype returns the XSD datatype of a Turtle numeric literal, or "".
func numericDatatype(s string) string {
	digits := func(s string) (string, int) {
		i := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		return s[i:], i
	}
	rest := s
	if rest != "" && (rest[0] == '+' || rest[0] == '-') {
		rest = rest[1:]
	}
	rest, intDigits := digits(rest)
	fracDigits := 0
	hasDot := false
	if rest != "" && rest[0] == '.' {
		hasDot = true
		rest, fracDigits = digits(rest[1:])
	}
	if intDigits == 0 && fracDigits == 0 {
		return ""
	}
	if rest == "" {
		if hasDot {
			if fracDigits == 0 {
				return ""
			}
			return core.XSDDecimal
		}
		return core.XSDInteger
	}
	if rest[0] != 'e' && rest[0] != 'E' {
		return ""
	}
	rest = rest[1:]
	if rest != "" && (rest[0] == '+' || rest[0] == '-') {
		rest = rest[1:]
	}
	rest, expDigits := digits(rest)
	if expDigits == 0 || rest != "" {
		return ""
	}
	return core.XSDDouble
}

// decodeEscape decodes the escape sequence that follows a backslash and
// returns the decoded text plus the number of bytes consumed.
func decodeEscape(s string) (string, int, error) {
	if s == "" {
		return "", 0, fmt.Errorf("dangling escape")
	}
	switch s[0] {
	case 't':
		return "\t", 1, nil
	case 'b':
		return "\b", 1, nil
	case 'n':
		return "\n", 1, nil
	case 'r':
		return "\r", 1, nil
	case 'f':
		return "\f", 1, nil
	case '"', '\'', '\\':
		return s[:1], 1, nil
	case 'u', 'U':
		n := 4
		if s[0] == 'U' {
			n = 8
		}
		if len(s) < 1+n {
			return "", 0, fmt.Errorf("short unicode escape")
		}
		code, err := strconv.ParseUint(s[1:1+n], 16, 32)
		if err != nil || !utf8.ValidRune(rune(code)) {
			return "", 0, fmt.Errorf("invalid unicode escape %q", s[:1+n])
		}
		return string(rune(code)), 1 + n, nil
	default:
		return "", 0, fmt.Errorf("unknown escape \\%c", s[0])
	}
}
