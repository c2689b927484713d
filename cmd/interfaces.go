package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"deauthwatch/internal/discovery"
)

var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List capture devices and whether they are in monitor mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		probe, _ := cmd.Flags().GetBool("probe")
		monitorOnly, _ := cmd.Flags().GetBool("monitor")

		devices, err := discovery.ListDevices(discovery.ListConfig{Probe: probe, MonitorOnly: monitorOnly})
		if err != nil {
			return err
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("NAME", "STATUS", "ADDRESSES", "DESCRIPTION")
		for _, d := range devices {
			status := "-"
			if probe || monitorOnly {
				status = d.Status()
			}
			addrs := make([]string, len(d.Addresses))
			for i, a := range d.Addresses {
				addrs[i] = a.String()
			}
			t.Row(d.Name, status, strings.Join(addrs, ","), d.Description)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return err
	},
}

func init() {
	interfacesCmd.Flags().Bool("probe", false, "open each device to read its link type")
	interfacesCmd.Flags().Bool("monitor", false, "only list devices in monitor mode (implies --probe)")
	rootCmd.AddCommand(interfacesCmd)
}
