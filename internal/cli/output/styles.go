package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles groups the lipgloss styles used by text output.
type Styles struct {
	Bold     lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Info     lipgloss.Style
	Header1  lipgloss.Style
	Header2  lipgloss.Style
	URI      lipgloss.Style
	Literal  lipgloss.Style
	Endpoint lipgloss.Style
}

// NewStyles builds styles bound to w. Without color, every style renders
// its input unchanged.
func NewStyles(w io.Writer, color bool) *Styles {
	re := lipgloss.NewRenderer(w)
	if color {
		re.SetColorProfile(termenv.ANSI256)
	} else {
		re.SetColorProfile(termenv.Ascii)
	}

	return &Styles{
		Bold:     re.NewStyle().Bold(true),
		Muted:    re.NewStyle().Foreground(lipgloss.Color("245")),
		Success:  re.NewStyle().Foreground(lipgloss.Color("42")),
		Warning:  re.NewStyle().Foreground(lipgloss.Color("214")),
		Error:    re.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Info:     re.NewStyle().Foreground(lipgloss.Color("39")),
		Header1:  re.NewStyle().Bold(true).Underline(true),
		Header2:  re.NewStyle().Bold(true).Foreground(lipgloss.Color("75")),
		URI:      re.NewStyle().Foreground(lipgloss.Color("75")),
		Literal:  re.NewStyle().Foreground(lipgloss.Color("180")),
		Endpoint: re.NewStyle().Foreground(lipgloss.Color("141")),
	}
}
