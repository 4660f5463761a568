/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"runtime"
	"strings"

	serialtty "github.com/allbin/go-serialtty"
	"github.com/allbin/go-serialtty/internal/tui/components"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available serial ports",
	Long: `List all available serial ports on the system.

On Linux /dev is scanned for communication-capable serial devices:
- USB serial adapters (ttyUSB*)
- USB CDC/ACM devices (ttyACM*)
- Standard serial ports (ttyS*)
- ARM/Raspberry Pi ports (ttyAMA*)
- And other platform-specific serial devices

USB attached ports are identified through sysfs and carry their
manufacturer and vendor/product IDs. Other platforms use the OS serial
port enumeration.

With --table the ports are shown in an interactive picker; the chosen port
is printed on stdout so it can be used in scripts:

  serialtty connect "$(serialtty list --table)"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filterType, _ := cmd.Flags().GetString("filter")
		tableFormat, _ := cmd.Flags().GetBool("table")

		ports, err := serialtty.ListPorts()
		if err != nil {
			return fmt.Errorf("error listing ports: %w", err)
		}

		filtered, err := filterPorts(ports, filterType)
		if err != nil {
			return err
		}

		if len(filtered) == 0 {
			if filterType != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "No serial ports found matching filter: %s\n", filterType)
			} else {
				fmt.Fprintln(cmd.ErrOrStderr(), "No serial ports found")
			}
			return nil
		}

		if tableFormat {
			return pickPort(cmd, filtered)
		}
		renderSimple(cmd, filtered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringP("filter", "F", "", "Filter by port type: usb, generic, all")
	listCmd.Flags().BoolP("table", "t", false, "Pick a port from an interactive table")
}

// filterPorts filters the port list based on the specified filter type
func filterPorts(ports []serialtty.PortDescriptor, filterType string) ([]serialtty.PortDescriptor, error) {
	var want serialtty.PortType
	switch strings.ToLower(filterType) {
	case "", "all":
		return ports, nil
	case "usb":
		want = serialtty.PortTypeUSB
	case "generic", "standard":
		want = serialtty.PortTypeGeneric
	default:
		return nil, fmt.Errorf("unknown filter %q, expected usb, generic or all", filterType)
	}

	var filtered []serialtty.PortDescriptor
	for _, p := range ports {
		if p.Type == want {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// renderSimple prints one port per line with its description
func renderSimple(cmd *cobra.Command, ports []serialtty.PortDescriptor) {
	nameWidth := 0
	for _, p := range ports {
		nameWidth = max(nameWidth, len(p.Name))
	}

	descStyle := lipgloss.NewStyle().Faint(true)
	for _, p := range ports {
		fmt.Fprintf(cmd.OutOrStdout(), "%-*s  %s\n", nameWidth, p.Name, descStyle.Render(p.Description()))
	}
}

// pickPort runs the interactive table and prints the chosen port
func pickPort(cmd *cobra.Command, ports []serialtty.PortDescriptor) error {
	picker := components.NewPortPicker(ports, runtime.GOOS)
	// The table renders on stderr so stdout only carries the selection
	p := tea.NewProgram(picker, tea.WithOutput(cmd.ErrOrStderr()))
	if _, err := p.Run(); err != nil {
		return err
	}

	if chosen, ok := picker.Chosen(); ok {
		fmt.Fprintln(cmd.OutOrStdout(), chosen.Name)
	}
	return nil
}
