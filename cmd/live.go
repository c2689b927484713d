package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"deauthwatch/internal/capture"
)

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Capture from a monitor-mode interface",
	Long: `Capture 802.11 frames from an interface that is already in monitor mode.
The interface must deliver radiotap or raw 802.11 frames.`,
	Example: `  deauthwatch live -i wlan0mon
  deauthwatch live -i wlan0mon --threshold 10 --tui`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Capture.Interface == "" {
			return errors.New("no capture interface, use --interface or capture.interface")
		}
		src := capture.NewPcapSource(cfg.Capture.Interface, cfg.Capture.Snaplen, cfg.Capture.Filter)
		return runMonitor(cfg, src, fmt.Sprintf("pcap:%s", cfg.Capture.Interface))
	},
}

func init() {
	liveCmd.Flags().StringP("interface", "i", "", "monitor-mode interface to capture on")
	liveCmd.Flags().String("filter", "", "BPF filter applied to the capture")
	liveCmd.Flags().Int("snaplen", 0, "capture snap length (default from config, 2048)")

	bindLocalFlag(liveCmd, "capture.interface", "interface")
	bindLocalFlag(liveCmd, "capture.filter", "filter")
	bindLocalFlag(liveCmd, "capture.snaplen", "snaplen")
}

// bindLocalFlag marks a subcommand flag as overriding a config key. Several
// subcommands share keys, so the binding itself happens once the command
// being run is known.
func bindLocalFlag(cmd *cobra.Command, key, flag string) {
	if err := cmd.Flags().SetAnnotation(flag, configKeyAnnotation, []string{key}); err != nil {
		panic(fmt.Sprintf("annotate flag %s: %v", flag, err))
	}
}
