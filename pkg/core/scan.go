package core

// MaskOptions selects which lexical regions Mask replaces with spaces.
type MaskOptions struct {
	Comments bool // # ... end-of-line
	Strings  bool // '...', "...", '''...''', """..."""
	IRIs     bool // <...> IRI references, brackets included
}

// Mask returns a copy of query in which the selected regions are replaced
// by spaces. Byte offsets and line breaks are preserved, so spans computed
// on the masked text index the original query.
//
// The scanner is lexical only. A '<' opens an IRI reference only when a
// closing '>' follows with no whitespace or forbidden characters in between,
// which keeps comparison operators in FILTER expressions intact.
func Mask(query string, opts MaskOptions) string {
	b := []byte(query)
	n := len(b)
	for i := 0; i < n; {
		switch c := b[i]; {
		case c == '#':
			end := i
			for end < n && b[end] != '\n' && b[end] != '\r' {
				end++
			}
			if opts.Comments {
				blank(b, i, end)
			}
			i = end
		case c == '"' || c == '\'':
			end := scanString(b, i)
			if opts.Strings {
				blank(b, i, end)
			}
			i = end
		case c == '<':
			end := scanIRIRef(b, i)
			if end < 0 {
				i++
				continue
			}
			if opts.IRIs {
				blank(b, i, end)
			}
			i = end
		default:
			i++
		}
	}
	return string(b)
}

// MaskComments blanks comments only.
func MaskComments(query string) string {
	return Mask(query, MaskOptions{Comments: true})
}

// MaskAll blanks comments, string literals and IRI references. The result
// contains only keywords, variables, prefixed names and punctuation.
func MaskAll(query string) string {
	return Mask(query, MaskOptions{Comments: true, Strings: true, IRIs: true})
}

// IRIRefAt reports whether an IRI reference starts at offset i of query and
// returns the exclusive end offset (after '>').
func IRIRefAt(query string, i int) (int, bool) {
	end := scanIRIRef([]byte(query), i)
	return end, end >= 0
}

func blank(b []byte, from, to int) {
	for i := from; i < to && i < len(b); i++ {
		if b[i] != '\n' && b[i] != '\r' {
			b[i] = ' '
		}
	}
}

// scanString returns the exclusive end offset of the string literal starting at i.
// Unterminated short strings end at the line break, long strings at end of input.
func scanString(b []byte, i int) int {
	q := b[i]
	n := len(b)
	if i+2 < n && b[i+1] == q && b[i+2] == q {
		for j := i + 3; j < n; j++ {
			if b[j] == '\\' {
				j++
				continue
			}
			if b[j] == q && j+2 < n && b[j+1] == q && b[j+2] == q {
				return j + 3
			}
		}
		return n
	}
	for j := i + 1; j < n; j++ {
		switch b[j] {
		case '\\':
			j++
		case q:
			return j + 1
		case '\n', '\r':
			return j
		}
	}
	return n
}

// scanIRIRef returns the exclusive end of an IRIREF starting at i, or -1.
func scanIRIRef(b []byte, i int) int {
	for j := i + 1; j < len(b); j++ {
		switch c := b[j]; {
		case c == '>':
			return j + 1
		case c <= 0x20, c == '<', c == '"', c == '{', c == '}', c == '|', c == '^', c == '`', c == '\\':
			return -1
		}
	}
	return -1
}

// IsNameByte reports whether c can be part of a SPARQL keyword, variable
// name or prefixed-name segment.
func IsNameByte(c byte) bool {
	return c == '_' || c == '-' || c >= 0x80 ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// IsKeywordAt reports whether the match query[start:end] stands alone as a
// keyword: not part of a variable (?x, $x), not a prefixed name (ex:select),
// and not glued to other name characters.
func IsKeywordAt(query string, start, end int) bool {
	if start > 0 {
		switch p := query[start-1]; {
		case p == '?', p == '$', p == ':', IsNameByte(p):
			return false
		}
	}
	if end < len(query) {
		if n := query[end]; n == ':' || IsNameByte(n) {
			return false
		}
	}
	return true
}
