package styles

import (
	"github.com/allbin/go-serialtty/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

var (
	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colors.Surface1)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Surface2).
			Padding(0, 1)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Red)

	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Green)

	InfoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve)

	MutedStyle = lipgloss.NewStyle().
			Foreground(colors.Subtext0)

	// Port picker
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colors.Mauve)

	TableHighlightStyle = lipgloss.NewStyle().
				Foreground(colors.Text).
				Background(colors.Surface1)
)

// StatusType is the connection indicator shown in the status bar
type StatusType int

const (
	StatusConnected StatusType = iota
	StatusDisconnected
	StatusConnecting
	StatusDraining
	StatusError
)

// Indicator returns the glyph and style for a status
func Indicator(status StatusType) (string, lipgloss.Style) {
	switch status {
	case StatusConnected:
		return "●", lipgloss.NewStyle().Foreground(colors.Green)
	case StatusConnecting:
		return "○", lipgloss.NewStyle().Foreground(colors.Yellow)
	case StatusDraining:
		return "◐", lipgloss.NewStyle().Foreground(colors.Peach)
	case StatusError:
		return "✗", lipgloss.NewStyle().Foreground(colors.Red)
	default:
		return "○", lipgloss.NewStyle().Foreground(colors.Red)
	}
}
