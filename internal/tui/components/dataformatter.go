package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/allbin/go-serialtty/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

// TxStatus tracks an outgoing chunk. The event loop does not report
// per-chunk completion, so a chunk is done once it has been queued.
type TxStatus int

const (
	TxNone TxStatus = iota
	TxPending
	TxQueued
	TxError
)

// DataReceivedMsg is one chunk of wire traffic, inbound or outbound
type DataReceivedMsg struct {
	Timestamp time.Time
	Data      []byte
	IsTX      bool
	Status    TxStatus
}

type DisplayMode struct {
	ShowHex   bool
	ShowASCII bool
}

type DataFormatter struct {
	mode DisplayMode
}

func NewDataFormatter(showHex, showASCII bool) *DataFormatter {
	return &DataFormatter{
		mode: DisplayMode{
			ShowHex:   showHex,
			ShowASCII: showASCII,
		},
	}
}

func (df *DataFormatter) GetDisplayMode() DisplayMode {
	return df.mode
}

func (df *DataFormatter) FormatMessage(msg DataReceivedMsg) string {
	timestamp := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Render(fmt.Sprintf("[%s]", msg.Timestamp.Format("15:04:05.000")))

	return fmt.Sprintf("%s %s: %s", timestamp, indicator(msg), df.FormatPayload(msg.Data))
}

func indicator(msg DataReceivedMsg) string {
	if !msg.IsTX {
		return lipgloss.NewStyle().
			Foreground(colors.Sky).
			Bold(true).
			Render("↙ RX")
	}

	var txColor lipgloss.Color
	var statusText string
	switch msg.Status {
	case TxPending:
		txColor = colors.Yellow
		statusText = "TX ○"
	case TxQueued:
		txColor = colors.Green
		statusText = "TX ✓"
	case TxError:
		txColor = colors.Red
		statusText = "TX ✗"
	default:
		txColor = colors.Peach
		statusText = "TX"
	}
	return lipgloss.NewStyle().
		Foreground(txColor).
		Bold(true).
		Render("↗ " + statusText)
}

// FormatPayload renders data in the enabled modes without styling
func (df *DataFormatter) FormatPayload(data []byte) string {
	var parts []string

	if df.mode.ShowHex {
		parts = append(parts, fmt.Sprintf("HEX: % X", data))
	}

	if df.mode.ShowASCII {
		parts = append(parts, "ASCII: "+printable(data))
	}

	// If both are disabled, show raw bytes count
	if !df.mode.ShowHex && !df.mode.ShowASCII {
		parts = append(parts, fmt.Sprintf("BYTES: %d", len(data)))
	}

	return strings.Join(parts, "  ")
}

// printable replaces everything outside printable ASCII with '.', so control
// sequences from the device never reach the host terminal
func printable(data []byte) string {
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		if c >= 32 && c <= 126 {
			b.WriteByte(c)
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

func (df *DataFormatter) FormatMessages(messages []DataReceivedMsg) []string {
	formatted := make([]string, len(messages))
	for i, msg := range messages {
		formatted[i] = df.FormatMessage(msg)
	}
	return formatted
}

func (df *DataFormatter) ToggleHex() {
	df.mode.ShowHex = !df.mode.ShowHex
}

func (df *DataFormatter) ToggleASCII() {
	df.mode.ShowASCII = !df.mode.ShowASCII
}
