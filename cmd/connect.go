/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	serialtty "github.com/allbin/go-serialtty"
	"github.com/allbin/go-serialtty/eventloop"
	"github.com/allbin/go-serialtty/internal/tui/components"
	"github.com/allbin/go-serialtty/internal/tui/keys"
	"github.com/allbin/go-serialtty/internal/tui/models"
	"github.com/allbin/go-serialtty/internal/tui/styles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// connectCmd represents the connect command
var connectCmd = &cobra.Command{
	Use:   "connect [port]",
	Short: "Open an interactive terminal session on a serial port",
	Long: `Open an interactive terminal session on a serial port.

The port is resolved against the current device list, opened non-blocking
(with the vendor workaround where the platform needs one) and driven by the
event loop. Incoming bytes are shown with timestamps in hex and ASCII.

Insert mode has three sending modes, cycled with Tab:
- ASCII: edit a line, Enter sends it with the line ending
- HEX:   edit hex bytes, Enter sends them
- RAW:   every keystroke is sent as typed

Example usage:
  serialtty connect /dev/ttyUSB0
  serialtty connect --baud 9600 --parity even
  serialtty connect /dev/cu.usbserial-2110 --log-file connect.log --log-level debug`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := commandOptions(args)
		if err != nil {
			return err
		}

		logFile, _ := cmd.Flags().GetString("log-file")
		lineEnding, _ := cmd.Flags().GetString("line-ending")

		// The alternate screen owns stdout/stderr, logs go to a file or nowhere
		var logOut io.Writer = io.Discard
		if logFile != "" {
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("failed to open log file: %w", err)
			}
			defer f.Close()
			logOut = f
		}

		return runConnectTUI(opts, newLogger(logOut), unescapeLineEnding(lineEnding))
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)

	connectCmd.Flags().String("log-file", "", "Write logs to this file while the TUI runs")
	connectCmd.Flags().String("line-ending", `\r\n`, `Line ending appended in ASCII mode (\r, \n, \r\n or none)`)
}

// connectModel represents the Bubble Tea model for the connect command
type connectModel struct {
	*models.SerialModel
	terminal  *components.Terminal
	statusBar *components.StatusBar
	input     *components.Input
	help      help.Model
	keys      keys.ConnectKeys
}

func runConnectTUI(opts serialtty.Options, logger *slog.Logger, lineEnding string) error {
	m := &connectModel{
		SerialModel: models.NewSerialModel(opts),
		terminal:    components.NewTerminal(0, 0), // sized by the first WindowSizeMsg
		statusBar:   components.NewStatusBar(opts.Name),
		input:       components.NewInput(lineEnding),
		help:        help.New(),
		keys:        keys.NewConnectKeys(),
	}
	m.statusBar.SetConnecting()
	m.statusBar.SetConnectionInfo(components.NewConnectionInfo(opts, serialtty.StrategyStandard))

	p := tea.NewProgram(m, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transportDone := make(chan struct{})
	go func() {
		defer close(transportDone)
		err := runTransport(ctx, opts, logger, p.Send)
		p.Send(models.ConnectionStatusMsg{Connected: false, Error: err})
	}()

	_, err := p.Run()

	m.Shutdown()
	cancel()
	select {
	case <-transportDone:
	case <-time.After(2 * time.Second):
		logger.Warn("transport did not close in time", "device", opts.Name)
	}
	return err
}

// runTransport opens the device and pumps inbound bytes to send until the
// loop closes. It returns the loop's result.
func runTransport(ctx context.Context, opts serialtty.Options, logger *slog.Logger, send func(tea.Msg)) error {
	dialer := serialtty.NewDialer(logger)
	tty, err := dialer.Dial(opts)
	if err != nil {
		return err
	}

	loop, err := eventloop.New(tty, eventloop.WithLogger(logger))
	if err != nil {
		tty.Close()
		return err
	}

	strategy := serialtty.StrategyStandard
	if desc, err := serialtty.Resolve(dialer.Lister, opts); err == nil {
		strategy = serialtty.Route(desc, dialer.GOOS)
	}

	done := loop.Spawn(ctx)
	send(models.ConnectionStatusMsg{Connected: true, Sender: loop.Sender(), Strategy: strategy})

	for chunk := range loop.Inbound() {
		send(components.DataReceivedMsg{Timestamp: time.Now(), Data: chunk})
	}
	return <-done
}

func (m *connectModel) Init() tea.Cmd {
	return nil
}

func (m *connectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Input box (with border) and the status bar
		const chrome = 3 + 1
		m.terminal.SetSize(msg.Width, msg.Height-chrome)
		m.input.SetWidth(msg.Width)
		m.statusBar.SetWidth(msg.Width)
		m.SetReady(true)
		m.Resize(serialtty.WindowSize{Rows: uint16(msg.Height), Cols: uint16(msg.Width)})
		return m, nil

	case models.ConnectionStatusMsg:
		m.SetConnection(msg)
		switch {
		case msg.Connected:
			m.statusBar.SetConnected()
			m.statusBar.SetConnectionInfo(components.NewConnectionInfo(m.Options(), msg.Strategy))
		default:
			m.statusBar.SetDisconnected(msg.Error)
			if msg.Error != nil {
				m.note(fmt.Sprintf("connection closed: %v", msg.Error))
			}
		}
		return m, nil

	case components.DataReceivedMsg:
		m.AddRawData(msg)
		m.terminal.AddMessage(msg)
		return m, nil

	case tea.KeyMsg:
		if m.IsInInsertMode() {
			return m.updateInsert(msg)
		}
		return m.updateNormal(msg)
	}

	return m, nil
}

func (m *connectModel) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.statusBar.SetDraining()
		m.Shutdown()
		return m, tea.Quit
	case key.Matches(msg, m.keys.InsertMode):
		m.SetInputMode(models.InputModeInsert)
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Clear):
		m.ClearData()
		m.terminal.Clear()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.ToggleHex):
		m.terminal.ToggleHex()
		m.terminal.Refresh(m.RawData())
	case key.Matches(msg, m.keys.ToggleASCII):
		m.terminal.ToggleASCII()
		m.terminal.Refresh(m.RawData())
	case key.Matches(msg, m.keys.ToggleSendMode):
		m.input.ToggleSendingMode()
	case key.Matches(msg, m.keys.Up):
		m.terminal.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.terminal.ScrollDown(1)
	case key.Matches(msg, m.keys.GotoTop):
		m.terminal.GotoTop()
	case key.Matches(msg, m.keys.GotoBottom):
		m.terminal.GotoBottom()
	}
	return m, nil
}

func (m *connectModel) updateInsert(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.SetInputMode(models.InputModeNormal)
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.ToggleSendMode):
		m.input.ToggleSendingMode()
		return m, nil
	}

	if m.input.SendingMode() == components.SendingModeRaw {
		if b := components.KeyBytes(msg); b != nil {
			m.transmit(b, b)
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Enter):
		if m.input.Value() == "" {
			return m, nil
		}
		wire, display, err := m.input.Payload()
		if err != nil {
			m.note(fmt.Sprintf("invalid hex input: %v", err))
			return m, nil
		}
		m.transmit(wire, display)
		m.input.AddToHistory(m.input.Value())
		m.input.SetValue("")
		return m, nil
	case msg.Type == tea.KeyUp:
		m.input.NavigateHistoryUp()
		return m, nil
	case msg.Type == tea.KeyDown:
		m.input.NavigateHistoryDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// transmit queues wire on the event loop and records it in the scrollback
func (m *connectModel) transmit(wire, display []byte) {
	tx := components.DataReceivedMsg{
		Timestamp: time.Now(),
		Data:      display,
		IsTX:      true,
		Status:    components.TxQueued,
	}
	if err := m.Send(wire); err != nil {
		tx.Status = components.TxError
	}
	m.AddRawData(tx)
	m.terminal.AddMessage(tx)
}

// note shows a local message in the scrollback
func (m *connectModel) note(text string) {
	m.terminal.AddMessage(components.DataReceivedMsg{
		Timestamp: time.Now(),
		Data:      []byte(text),
	})
}

func (m *connectModel) View() string {
	content := "Initializing..."
	if m.IsReady() {
		content = m.terminal.View()
	}
	if m.help.ShowAll {
		content = lipgloss.JoinVertical(lipgloss.Left, content, m.help.View(m.keys))
	}

	statusBar := m.statusBar.View(
		m.InputMode().String(),
		m.input.SendingMode().String(),
		time.Now().Format("15:04:05"),
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		styles.ContentBorderStyle.Render(content),
		m.input.View(m.IsInInsertMode()),
		statusBar,
	)
}

// unescapeLineEnding turns the flag's escaped form into bytes
func unescapeLineEnding(s string) string {
	switch s {
	case `\r`:
		return "\r"
	case `\n`:
		return "\n"
	case `\r\n`:
		return "\r\n"
	case "none", "":
		return ""
	}
	return s
}
