package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/firefart/dmarcreport/internal/config"
	"github.com/firefart/dmarcreport/internal/dmarc"
)

const (
	colSourceIP = iota
	colCount
	colDKIM
	colSPF
	colAuthResults
)

// Renderer draws report sections as rounded tables inside a titled panel.
type Renderer struct {
	out    io.Writer
	styles styles
}

// New returns a Renderer writing to w. color is one of the config color
// modes, auto only enables colors when w is a terminal.
func New(w io.Writer, color string) *Renderer {
	r := lipgloss.NewRenderer(w)
	switch color {
	case config.ColorNever:
		r.SetColorProfile(termenv.Ascii)
	case config.ColorAlways:
		r.SetColorProfile(termenv.ANSI256)
	default:
		if !isTerminal(w) {
			r.SetColorProfile(termenv.Ascii)
		}
	}
	return &Renderer{
		out:    w,
		styles: newStyles(r),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Render writes the report. Write errors are returned as is.
func (r *Renderer) Render(report *dmarc.Report, summary dmarc.Summary, hostnames map[string][]string) error {
	sections := Sections(report, summary, hostnames)

	parts := make([]string, 0, len(sections)*2)
	for _, sec := range sections {
		parts = append(parts, r.styles.table.Render(sec.Title), r.table(sec))
	}

	title := r.styles.title.Render(fmt.Sprintf("DMARC Report for %s", report.Policy.Domain))
	panel := r.styles.panel.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))

	if _, err := fmt.Fprintf(r.out, "%s\n%s\n", title, panel); err != nil {
		return fmt.Errorf("could not write report: %w", err)
	}
	return nil
}

func (r *Renderer) table(sec Section) string {
	s := r.styles
	keyValue := len(sec.Headers) == 0

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(s.border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.header
			}
			if keyValue {
				if col == 0 {
					return s.key
				}
				return s.value
			}
			switch col {
			case colSourceIP:
				return s.ip
			case colCount:
				return s.count
			case colDKIM, colSPF:
				if row >= 0 && row < len(sec.Rows) {
					return s.result(sec.Rows[row][col])
				}
				return s.other
			default:
				return s.value
			}
		})

	if !keyValue {
		t = t.Headers(sec.Headers...)
	}
	return t.Rows(sec.Rows...).String()
}
