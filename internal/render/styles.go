package render

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title  lipgloss.Style
	table  lipgloss.Style
	border lipgloss.Style
	panel  lipgloss.Style
	header lipgloss.Style
	key    lipgloss.Style
	value  lipgloss.Style
	ip     lipgloss.Style
	count  lipgloss.Style
	pass   lipgloss.Style
	fail   lipgloss.Style
	other  lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	cell := r.NewStyle().Padding(0, 1)
	return styles{
		title: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")),
		table: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14")).
			MarginTop(1),
		border: r.NewStyle().
			Foreground(lipgloss.Color("240")),
		panel: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),
		header: cell.
			Bold(true).
			Foreground(lipgloss.Color("15")),
		key:   cell.Foreground(lipgloss.Color("6")),
		value: cell.Foreground(lipgloss.Color("2")),
		ip:    cell.Foreground(lipgloss.Color("6")),
		count: cell.Foreground(lipgloss.Color("5")),
		pass:  cell.Foreground(lipgloss.Color("10")),
		fail:  cell.Foreground(lipgloss.Color("9")),
		other: cell.Foreground(lipgloss.Color("11")),
	}
}

// result picks the style for a dkim or spf result cell.
func (s styles) result(v string) lipgloss.Style {
	switch v {
	case "pass":
		return s.pass
	case "fail":
		return s.fail
	default:
		return s.other
	}
}
