package keys

import "github.com/charmbracelet/bubbles/key"

// ConnectKeys are the bindings of the connect host. Normal mode uses all of
// them; insert mode only Escape, ToggleSendMode, Enter and Up/Down (history).
type ConnectKeys struct {
	Quit           key.Binding
	Help           key.Binding
	InsertMode     key.Binding
	Escape         key.Binding
	Clear          key.Binding
	ToggleHex      key.Binding
	ToggleASCII    key.Binding
	Enter          key.Binding
	ToggleSendMode key.Binding
	Up             key.Binding
	Down           key.Binding
	GotoTop        key.Binding
	GotoBottom     key.Binding
}

func bind(help, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(help, desc))
}

func NewConnectKeys() ConnectKeys {
	return ConnectKeys{
		Quit:           bind("q/ctrl+c", "disconnect", "q", "Q", "ctrl+c"),
		Help:           bind("?", "toggle help", "?"),
		InsertMode:     bind("i", "type to device", "i", "I"),
		Escape:         bind("esc", "leave insert", "esc"),
		Clear:          bind("c", "clear received", "c"),
		ToggleHex:      bind("h", "hex view", "h"),
		ToggleASCII:    bind("a", "ascii view", "a"),
		Enter:          bind("enter", "queue line", "enter"),
		ToggleSendMode: bind("tab", "ascii/hex/raw", "tab"),
		Up:             bind("↑/k", "scroll up", "up", "k"),
		Down:           bind("↓/j", "scroll down", "down", "j"),
		GotoTop:        bind("g", "oldest", "g"),
		GotoBottom:     bind("G", "newest", "G"),
	}
}

func (k ConnectKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.InsertMode, k.ToggleSendMode, k.Enter, k.Quit}
}

func (k ConnectKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.InsertMode, k.Escape, k.ToggleSendMode, k.Enter},
		{k.Clear, k.ToggleHex, k.ToggleASCII},
		{k.GotoTop, k.GotoBottom, k.Up, k.Down},
		{k.Help, k.Quit},
	}
}

// PickerKeys are the bindings of the port picker. Row movement is handled by
// the table itself.
type PickerKeys struct {
	Up     key.Binding
	Down   key.Binding
	Choose key.Binding
	Cancel key.Binding
}

func NewPickerKeys() PickerKeys {
	return PickerKeys{
		Up:     bind("↑", "move", "up"),
		Down:   bind("↓", "move", "down"),
		Choose: bind("enter", "open", "enter"),
		Cancel: bind("q/esc", "cancel", "q", "esc", "ctrl+c"),
	}
}

func (k PickerKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Choose, k.Cancel}
}

func (k PickerKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
