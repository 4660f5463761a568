package components

import (
	"fmt"

	serialtty "github.com/allbin/go-serialtty"
	"github.com/allbin/go-serialtty/internal/tui/colors"
	"github.com/allbin/go-serialtty/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

// ConnectionInfo is the line configuration shown in the status bar
type ConnectionInfo struct {
	BaudRate    uint32
	DataBits    serialtty.DataBits
	Parity      serialtty.Parity
	StopBits    serialtty.StopBits
	FlowControl serialtty.FlowControl
	Strategy    serialtty.Strategy
}

// NewConnectionInfo describes opts opened with strategy
func NewConnectionInfo(opts serialtty.Options, strategy serialtty.Strategy) *ConnectionInfo {
	return &ConnectionInfo{
		BaudRate:    opts.BaudRate,
		DataBits:    opts.DataBits,
		Parity:      opts.Parity,
		StopBits:    opts.StopBits,
		FlowControl: opts.FlowControl,
		Strategy:    strategy,
	}
}

// Framing renders the classic 8N1 notation
func (c *ConnectionInfo) Framing() string {
	return fmt.Sprintf("%d%s%d", c.DataBits, parityLetter(c.Parity), c.StopBits)
}

func (c *ConnectionInfo) String() string {
	s := fmt.Sprintf("%d baud %s flow:%s", c.BaudRate, c.Framing(), c.FlowControl)
	if c.Strategy == serialtty.StrategyQuirk {
		s += " quirk"
	}
	return s
}

func parityLetter(p serialtty.Parity) string {
	switch p {
	case serialtty.ParityEven:
		return "E"
	case serialtty.ParityOdd:
		return "O"
	default:
		return "N"
	}
}

type StatusBar struct {
	portPath       string
	status         styles.StatusType
	err            error
	width          int
	connectionInfo *ConnectionInfo
}

func NewStatusBar(portPath string) *StatusBar {
	return &StatusBar{
		portPath: portPath,
		status:   styles.StatusDisconnected,
	}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetConnectionInfo(info *ConnectionInfo) {
	sb.connectionInfo = info
}

func (sb *StatusBar) SetConnecting() {
	sb.status = styles.StatusConnecting
	sb.err = nil
}

func (sb *StatusBar) SetConnected() {
	sb.status = styles.StatusConnected
	sb.err = nil
}

func (sb *StatusBar) SetDraining() {
	sb.status = styles.StatusDraining
}

// SetDisconnected marks the connection closed, with err when it failed
func (sb *StatusBar) SetDisconnected(err error) {
	sb.err = err
	if err != nil {
		sb.status = styles.StatusError
	} else {
		sb.status = styles.StatusDisconnected
	}
}

func (sb *StatusBar) Err() error {
	return sb.err
}

// View renders mode, port, connection state, line settings and the clock in
// a single line, vim status line style
func (sb *StatusBar) View(inputMode, sendingMode string, timestamp string) string {
	terminalWidth := sb.width
	if terminalWidth <= 0 {
		terminalWidth = 80
	}

	modeBg := colors.Blue
	if inputMode == "INSERT" {
		modeBg = colors.Green
	}
	mode := lipgloss.NewStyle().
		Foreground(colors.Base).
		Background(modeBg).
		Bold(true).
		Padding(0, 1).
		Render(inputMode)

	port := lipgloss.NewStyle().
		Foreground(colors.Mauve).
		Bold(true).
		Padding(0, 1).
		Render(sb.portPath)

	glyph, glyphStyle := styles.Indicator(sb.status)
	connIndicator := glyphStyle.Render(glyph)

	divider := lipgloss.NewStyle().
		Foreground(colors.Surface2).
		Padding(0, 1).
		Render("│")

	left := []string{mode, port, connIndicator}
	if inputMode == "INSERT" {
		left = append(left, lipgloss.NewStyle().
			Foreground(colors.Peach).
			Bold(true).
			Padding(0, 1).
			Render(fmt.Sprintf("[%s] Tab to toggle", sendingMode)))
	}
	left = append(left, divider)
	leftSide := lipgloss.JoinHorizontal(lipgloss.Left, left...)

	connInfo := "⚡ serial"
	if sb.connectionInfo != nil {
		connInfo = "⚡ " + sb.connectionInfo.String()
	}
	details := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Padding(0, 1).
		Render(connInfo)
	clock := lipgloss.NewStyle().
		Foreground(colors.Subtext1).
		Padding(0, 1).
		Render(timestamp)
	rightSide := lipgloss.JoinHorizontal(lipgloss.Left, details, divider, clock)

	spacerWidth := terminalWidth - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	return lipgloss.NewStyle().
		Foreground(colors.Text).
		Background(colors.Surface0).
		Width(terminalWidth).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, leftSide, spacer, rightSide))
}
