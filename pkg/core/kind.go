package core

import (
	"regexp"
	"strings"
)

// QueryKind classifies a query by its query form.
type QueryKind int

// Query kinds.
const (
	// KindUnknown is used when no query-form keyword was found.
	KindUnknown QueryKind = iota
	KindSelect
	KindAsk
	KindConstruct
	KindDescribe
	// KindUpdate covers every SPARQL 1.1 Update operation.
	KindUpdate
)

// String returns the lowercase name of the kind.
func (k QueryKind) String() string {
	switch k {
	case KindSelect:
		return "select"
	case KindAsk:
		return "ask"
	case KindConstruct:
		return "construct"
	case KindDescribe:
		return "describe"
	case KindUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// IsReadOnly reports whether the kind can be sent as a query (not an update).
// Unknown is treated as read-only.
func (k QueryKind) IsReadOnly() bool {
	return k != KindUpdate
}

// ReturnsGraph reports whether the kind produces RDF rather than bindings.
func (k QueryKind) ReturnsGraph() bool {
	return k == KindConstruct || k == KindDescribe
}

var queryFormRe = regexp.MustCompile(`(?i)(SELECT|ASK|CONSTRUCT|DESCRIBE|INSERT|DELETE|LOAD|CLEAR|CREATE|DROP|COPY|MOVE|ADD|WITH)`)

// DetectQueryKind returns the kind of the first query-form keyword in query.
// PREFIX and BASE declarations, comments, string literals and IRIs are skipped.
func DetectQueryKind(query string) QueryKind {
	kind, _ := LocateQueryForm(query)
	return kind
}

// LocateQueryForm returns the kind of the first query-form keyword together
// with its span. The span is zero when the kind is unknown.
func LocateQueryForm(query string) (QueryKind, Span) {
	masked := MaskAll(query)
	for _, loc := range queryFormRe.FindAllStringIndex(masked, -1) {
		if !IsKeywordAt(masked, loc[0], loc[1]) {
			continue
		}
		switch strings.ToUpper(masked[loc[0]:loc[1]]) {
		case "SELECT":
			return KindSelect, Span{Start: loc[0], End: loc[1]}
		case "ASK":
			return KindAsk, Span{Start: loc[0], End: loc[1]}
		case "CONSTRUCT":
			return KindConstruct, Span{Start: loc[0], End: loc[1]}
		case "DESCRIBE":
			return KindDescribe, Span{Start: loc[0], End: loc[1]}
		default:
			return KindUpdate, Span{Start: loc[0], End: loc[1]}
		}
	}
	return KindUnknown, Span{}
}
