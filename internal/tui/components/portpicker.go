package components

import (
	serialtty "github.com/allbin/go-serialtty"
	"github.com/allbin/go-serialtty/internal/tui/keys"
	"github.com/allbin/go-serialtty/internal/tui/styles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
)

const (
	columnKeyPort         = "port"
	columnKeyType         = "type"
	columnKeyManufacturer = "manufacturer"
	columnKeyIDs          = "ids"
	columnKeyStrategy     = "strategy"
)

// PortPicker is an interactive table of enumerated ports. It quits the
// program once a port is chosen or the picker is cancelled.
type PortPicker struct {
	table    table.Model
	ports    []serialtty.PortDescriptor
	goos     string
	keys     keys.PickerKeys
	help     help.Model
	chosen   *serialtty.PortDescriptor
	canceled bool
}

func NewPortPicker(ports []serialtty.PortDescriptor, goos string) *PortPicker {
	columns := []table.Column{
		table.NewColumn(columnKeyPort, "Port", 28),
		table.NewColumn(columnKeyType, "Type", 8),
		table.NewColumn(columnKeyManufacturer, "Manufacturer", 26),
		table.NewColumn(columnKeyIDs, "VID:PID", 10),
		table.NewColumn(columnKeyStrategy, "Open", 10),
	}

	rows := make([]table.Row, 0, len(ports))
	for i, p := range ports {
		rows = append(rows, table.NewRow(PortRowData(p, goos, i)))
	}

	pageSize := len(rows)
	if pageSize > 15 {
		pageSize = 15
	}
	if pageSize < 1 {
		pageSize = 1
	}

	t := table.New(columns).
		WithRows(rows).
		HeaderStyle(styles.TableHeaderStyle).
		HighlightStyle(styles.TableHighlightStyle).
		WithPageSize(pageSize).
		Focused(true)

	h := help.New()
	h.Styles.ShortKey = styles.MutedStyle
	h.Styles.ShortDesc = styles.MutedStyle

	return &PortPicker{
		table: t,
		ports: ports,
		goos:  goos,
		keys:  keys.NewPickerKeys(),
		help:  h,
	}
}

// PortRowData is the table row for one descriptor; index links the row back
// to its descriptor
func PortRowData(p serialtty.PortDescriptor, goos string, index int) table.RowData {
	ids := ""
	if p.IsUSB() {
		ids = p.VendorID + ":" + p.ProductID
	}
	return table.RowData{
		"index":               index,
		columnKeyPort:         p.Name,
		columnKeyType:         p.Type.String(),
		columnKeyManufacturer: p.Manufacturer,
		columnKeyIDs:          ids,
		columnKeyStrategy:     serialtty.Route(p, goos).String(),
	}
}

// Chosen returns the selected port, if any
func (pp *PortPicker) Chosen() (serialtty.PortDescriptor, bool) {
	if pp.chosen == nil {
		return serialtty.PortDescriptor{}, false
	}
	return *pp.chosen, true
}

func (pp *PortPicker) Init() tea.Cmd {
	return nil
}

func (pp *PortPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, pp.keys.Cancel):
			pp.canceled = true
			return pp, tea.Quit
		case key.Matches(msg, pp.keys.Choose):
			if idx, ok := pp.table.HighlightedRow().Data["index"].(int); ok && idx < len(pp.ports) {
				chosen := pp.ports[idx]
				pp.chosen = &chosen
			}
			return pp, tea.Quit
		}
	}

	var cmd tea.Cmd
	pp.table, cmd = pp.table.Update(msg)
	return pp, cmd
}

func (pp *PortPicker) View() string {
	if pp.chosen != nil || pp.canceled {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left, pp.table.View(), pp.help.View(pp.keys)) + "\n"
}
