package output

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/leapsparql/pkg/core"
)

// TableOutput is the JSON form of a result table.
type TableOutput struct {
	*core.ParsedTable
	Endpoint string `json:"endpoint,omitempty"`
	Elapsed  string `json:"elapsed,omitempty"`
}

// RenderTable writes a parsed result table in the renderer's mode.
func (r *Renderer) RenderTable(t *core.ParsedTable) error {
	if t == nil {
		return fmt.Errorf("no result table to render")
	}
	mode := r.EffectiveMode()
	if mode == ModeJSON {
		return r.JSON(TableOutput{ParsedTable: t})
	}

	if len(t.Rows) == 0 {
		r.Println("(0 rows)")
		return nil
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(r.out)
	tw.SetStyle(table.StyleLight)

	header := make(table.Row, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	tw.AppendHeader(header)

	for i := range t.Rows {
		row := make(table.Row, len(t.Columns))
		for j, col := range t.Columns {
			row[j] = r.formatTerm(t.Get(i, col), mode)
		}
		tw.AppendRow(row)
	}

	if mode == ModeMarkdown {
		tw.RenderMarkdown()
		r.Println()
	} else {
		tw.Render()
	}
	r.Println(rowSummary(t))
	return nil
}

// formatTerm renders one binding for display.
func (r *Renderer) formatTerm(b core.Binding, mode Mode) string {
	switch b.Kind {
	case core.TermURI:
		if mode == ModeMarkdown {
			return "<" + b.Value + ">"
		}
		return r.styles.URI.Render(b.Value)
	case core.TermLiteral:
		s := b.String()
		if b.Lang == "" && b.Datatype != "" && b.Datatype != core.XSDString && mode == ModeMarkdown {
			s = fmt.Sprintf("%q^^<%s>", b.Value, b.Datatype)
		}
		return r.styles.Literal.Render(s)
	case core.TermBlankNode:
		return r.styles.Muted.Render(b.String())
	default:
		return ""
	}
}

func rowSummary(t *core.ParsedTable) string {
	noun := "rows"
	if len(t.Rows) == 1 {
		noun = "row"
	}
	if !t.Truncated {
		return fmt.Sprintf("(%d %s)", len(t.Rows), noun)
	}
	if t.TotalRows != nil {
		return fmt.Sprintf("(%d %s shown, %d total; result truncated)", len(t.Rows), noun, *t.TotalRows)
	}
	return fmt.Sprintf("(%d %s shown; result truncated)", len(t.Rows), noun)
}

// KeyValue is one line of a details listing.
type KeyValue struct {
	Key   string
	Value string
}

// RenderDetails writes a titled key/value listing in text or markdown.
func (r *Renderer) RenderDetails(title string, items []KeyValue) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println(FormatHeader(2, title))
		for _, kv := range items {
			r.Println(FormatKeyValue(kv.Key, kv.Value))
		}
		r.Println()
		return
	}

	r.Println(r.styles.Header2.Render(title))
	tw := table.NewWriter()
	tw.SetOutputMirror(r.out)
	tw.SetStyle(table.StyleLight)
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateColumns = false
	for _, kv := range items {
		tw.AppendRow(table.Row{r.styles.Bold.Render(kv.Key), kv.Value})
	}
	tw.Render()
	r.Println()
}

// RenderList writes a generic table with a header row.
func (r *Renderer) RenderList(header []string, rows [][]string) {
	tw := table.NewWriter()
	tw.SetOutputMirror(r.out)
	tw.SetStyle(table.StyleLight)

	h := make(table.Row, len(header))
	for i, col := range header {
		h[i] = col
	}
	tw.AppendHeader(h)
	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, v := range row {
			tr[i] = v
		}
		tw.AppendRow(tr)
	}

	if r.EffectiveMode() == ModeMarkdown {
		tw.RenderMarkdown()
		r.Println()
		return
	}
	tw.Render()
}
