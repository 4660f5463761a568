package components

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/allbin/go-serialtty/internal/tui/colors"
	"github.com/allbin/go-serialtty/internal/tui/styles"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SendingMode selects how insert mode turns keystrokes into wire bytes
type SendingMode int

const (
	SendingModeASCII SendingMode = iota // line editor, Enter sends the line
	SendingModeHex                      // line editor, Enter sends the parsed bytes
	SendingModeRaw                      // every keystroke goes straight to the wire
)

func (s SendingMode) String() string {
	switch s {
	case SendingModeHex:
		return "HEX"
	case SendingModeRaw:
		return "RAW"
	default:
		return "ASCII"
	}
}

const historySize = 100

type Input struct {
	textInput     textinput.Model
	sendingMode   SendingMode
	lineEnding    string
	history       []string
	historyIndex  int
	currentInput  string // Store current input when navigating history
	terminalWidth int
}

func NewInput(lineEnding string) *Input {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Prompt = ""
	ti.Placeholder = "Type message and press Enter to send..."

	return &Input{
		textInput:    ti,
		sendingMode:  SendingModeASCII,
		lineEnding:   lineEnding,
		historyIndex: -1,
	}
}

func (i *Input) SetWidth(width int) {
	i.terminalWidth = width
	// border(2) + padding(2) + prompt(1) + space(1)
	usableWidth := width - 6
	if usableWidth < 20 {
		usableWidth = 20
	}
	i.textInput.Width = usableWidth
}

func (i *Input) Focus() tea.Cmd {
	return i.textInput.Focus()
}

func (i *Input) Blur() {
	i.textInput.Blur()
}

func (i *Input) Value() string {
	return i.textInput.Value()
}

func (i *Input) SetValue(value string) {
	i.textInput.SetValue(value)
}

// ToggleSendingMode cycles ASCII, HEX and RAW
func (i *Input) ToggleSendingMode() {
	switch i.sendingMode {
	case SendingModeASCII:
		i.sendingMode = SendingModeHex
		i.textInput.Placeholder = "Enter hex (e.g. 48656C6C6F or 48 65 6C 6C 6F)..."
	case SendingModeHex:
		i.sendingMode = SendingModeRaw
		i.textInput.Placeholder = "Keystrokes are sent as typed"
	default:
		i.sendingMode = SendingModeASCII
		i.textInput.Placeholder = "Type message and press Enter to send..."
	}
}

func (i *Input) SendingMode() SendingMode {
	return i.sendingMode
}

// Payload converts the current line to wire bytes. display is what the
// terminal shows for it, without the line ending.
func (i *Input) Payload() (wire, display []byte, err error) {
	value := i.textInput.Value()
	switch i.sendingMode {
	case SendingModeHex:
		b, err := ParseHex(value)
		if err != nil {
			return nil, nil, err
		}
		return b, b, nil
	default:
		return []byte(value + i.lineEnding), []byte(value), nil
	}
}

func (i *Input) Update(msg tea.Msg) (*Input, tea.Cmd) {
	var cmd tea.Cmd
	i.textInput, cmd = i.textInput.Update(msg)
	return i, cmd
}

func (i *Input) View(isInsertMode bool) string {
	promptSymbol, promptColor := ">", colors.Green
	switch i.sendingMode {
	case SendingModeHex:
		promptSymbol, promptColor = "#", colors.Yellow
	case SendingModeRaw:
		promptSymbol, promptColor = "~", colors.Peach
	}
	styledPrompt := lipgloss.NewStyle().
		Foreground(promptColor).
		Bold(true).
		Render(promptSymbol)

	var inputContent string
	switch {
	case isInsertMode && i.sendingMode == SendingModeRaw:
		inputContent = lipgloss.JoinHorizontal(lipgloss.Left, styledPrompt, " ",
			lipgloss.NewStyle().Foreground(colors.Overlay0).Render("Raw mode: keys are sent as typed, Esc to leave"))
	case isInsertMode:
		inputContent = lipgloss.JoinHorizontal(lipgloss.Left, styledPrompt, " ", i.textInput.View())
	default:
		inputContent = lipgloss.JoinHorizontal(lipgloss.Left, styledPrompt, " ",
			lipgloss.NewStyle().Foreground(colors.Overlay0).Render("Press 'i' to enter insert mode"))
	}

	// RoundedBorder and horizontal padding take 4 columns
	adjustedWidth := i.terminalWidth - 4
	if adjustedWidth < 10 {
		adjustedWidth = 10
	}
	inputStyle := styles.InputStyle.
		Width(adjustedWidth).
		AlignHorizontal(lipgloss.Left)
	if isInsertMode {
		inputStyle = inputStyle.BorderForeground(colors.Green)
	}

	return inputStyle.Render(inputContent)
}

// AddToHistory adds a command to the history if it's not empty or a duplicate
func (i *Input) AddToHistory(command string) {
	command = strings.TrimSpace(command)
	if command == "" {
		return
	}
	if len(i.history) > 0 && i.history[len(i.history)-1] == command {
		return
	}

	i.history = append(i.history, command)
	if len(i.history) > historySize {
		i.history = i.history[1:]
	}

	i.historyIndex = -1
	i.currentInput = ""
}

// NavigateHistoryUp moves up in command history
func (i *Input) NavigateHistoryUp() {
	if len(i.history) == 0 {
		return
	}

	if i.historyIndex == -1 {
		i.currentInput = i.textInput.Value()
		i.historyIndex = len(i.history) - 1
	} else if i.historyIndex > 0 {
		i.historyIndex--
	}

	i.textInput.SetValue(i.history[i.historyIndex])
}

// NavigateHistoryDown moves down in command history
func (i *Input) NavigateHistoryDown() {
	if len(i.history) == 0 || i.historyIndex == -1 {
		return
	}

	if i.historyIndex < len(i.history)-1 {
		i.historyIndex++
		i.textInput.SetValue(i.history[i.historyIndex])
		return
	}
	i.historyIndex = -1
	i.textInput.SetValue(i.currentInput)
	i.currentInput = ""
}

// ParseHex converts hex strings to bytes. Supports both:
// - Space-separated: "48 65 6C 6C 6F"
// - Continuous: "48656C6C6F", optionally with 0x prefixes
func ParseHex(hexStr string) ([]byte, error) {
	clean := strings.NewReplacer(" ", "", "0x", "", "0X", "").Replace(strings.TrimSpace(hexStr))
	if len(clean) == 0 {
		return nil, fmt.Errorf("empty input")
	}
	if len(clean)%2 != 0 {
		return nil, fmt.Errorf("hex string must have even number of digits (got %d)", len(clean))
	}

	out := make([]byte, 0, len(clean)/2)
	for i := 0; i < len(clean); i += 2 {
		b, err := strconv.ParseUint(clean[i:i+2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid hex byte '%s'", clean[i:i+2])
		}
		out = append(out, byte(b))
	}
	return out, nil
}

// KeyBytes maps a key press to the bytes a terminal would send for it, or
// nil for keys with no wire representation
func KeyBytes(msg tea.KeyMsg) []byte {
	switch msg.Type {
	case tea.KeyRunes:
		if msg.Alt {
			return append([]byte{0x1b}, string(msg.Runes)...)
		}
		return []byte(string(msg.Runes))
	case tea.KeySpace:
		return []byte{' '}
	case tea.KeyEnter:
		return []byte{'\r'}
	case tea.KeyTab:
		return []byte{'\t'}
	case tea.KeyBackspace:
		return []byte{0x7f}
	case tea.KeyDelete:
		return []byte("\x1b[3~")
	case tea.KeyUp:
		return []byte("\x1b[A")
	case tea.KeyDown:
		return []byte("\x1b[B")
	case tea.KeyRight:
		return []byte("\x1b[C")
	case tea.KeyLeft:
		return []byte("\x1b[D")
	case tea.KeyHome:
		return []byte("\x1b[H")
	case tea.KeyEnd:
		return []byte("\x1b[F")
	}
	// Remaining control keys (ctrl+a .. ctrl+_) are their own byte value
	if msg.Type >= tea.KeyCtrlAt && msg.Type <= tea.KeyCtrlUnderscore && msg.Type != tea.KeyEscape {
		return []byte{byte(msg.Type)}
	}
	return nil
}
