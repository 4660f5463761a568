package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
)

// maxLines bounds the scrollback kept by the terminal
const maxLines = 5000

type Terminal struct {
	viewport  viewport.Model
	formatter *DataFormatter
	data      []string
}

func NewTerminal(width, height int) *Terminal {
	return &Terminal{
		viewport:  viewport.New(width, height),
		formatter: NewDataFormatter(true, true), // Default: show both hex and ASCII
	}
}

func (t *Terminal) SetSize(width, height int) {
	t.viewport.Width = width
	t.viewport.Height = height
}

func (t *Terminal) Width() int {
	return t.viewport.Width
}

func (t *Terminal) AddMessage(msg DataReceivedMsg) {
	t.data = append(t.data, t.formatter.FormatMessage(msg))
	if len(t.data) > maxLines {
		t.data = t.data[len(t.data)-maxLines:]
	}
	t.render()
}

// Refresh re-renders the whole scrollback, e.g. after a display mode change
func (t *Terminal) Refresh(rawData []DataReceivedMsg) {
	if len(rawData) > maxLines {
		rawData = rawData[len(rawData)-maxLines:]
	}
	t.data = t.formatter.FormatMessages(rawData)
	t.render()
}

func (t *Terminal) render() {
	t.viewport.SetContent(strings.Join(t.data, "\n"))
	t.viewport.GotoBottom()
}

func (t *Terminal) Clear() {
	t.data = nil
	t.viewport.SetContent("")
}

func (t *Terminal) ToggleHex() {
	t.formatter.ToggleHex()
}

func (t *Terminal) ToggleASCII() {
	t.formatter.ToggleASCII()
}

func (t *Terminal) GotoTop() {
	t.viewport.GotoTop()
}

func (t *Terminal) GotoBottom() {
	t.viewport.GotoBottom()
}

func (t *Terminal) ScrollUp(n int) {
	t.viewport.LineUp(n)
}

func (t *Terminal) ScrollDown(n int) {
	t.viewport.LineDown(n)
}

func (t *Terminal) View() string {
	return t.viewport.View()
}
