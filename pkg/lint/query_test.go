package lint

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/leapsparql/pkg/core"
)

func TestQuery_FindKeywords(t *testing.T) {
	re := regexp.MustCompile(`(?i)(BIND)\s*\(`)

	tests := []struct {
		name  string
		query string
		want  []core.Span
	}{
		{
			name:  "plain",
			query: "SELECT * { BIND(1 AS ?x) }",
			want:  []core.Span{{Start: 11, End: 15}},
		},
		{
			name:  "in comment",
			query: "SELECT * { # BIND(1 AS ?x)\n}",
		},
		{
			name:  "in string",
			query: `SELECT * { ?s ?p "BIND(1)" }`,
		},
		{
			name:  "variable",
			query: "SELECT * { FILTER(?bind(1)) }",
		},
		{
			name:  "prefixed name",
			query: "SELECT * { ?s ex:bind(1) }",
		},
		{
			name:  "lower case",
			query: "select * { bind (1 as ?x) }",
			want:  []core.Span{{Start: 11, End: 15}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQuery(tt.query)
			assert.Equal(t, tt.want, q.FindKeywords(re))
		})
	}
}

func TestNewQuery_ViewsAlign(t *testing.T) {
	text := "SELECT * FROM <http://example.org/g> { ?s ?p \"x\" } # done"
	q := NewQuery(text)

	assert.Len(t, q.Code, len(text))
	assert.Len(t, q.Bare, len(text))
	assert.Contains(t, q.Code, "<http://example.org/g>")
	assert.NotContains(t, q.Bare, "example.org")
	assert.NotContains(t, q.Code, "done")
}
