package cmd

import (
	"github.com/spf13/cobra"

	"deauthwatch/internal/capture"
)

var tsharkCmd = &cobra.Command{
	Use:   "tshark",
	Short: "Capture through a tshark subprocess",
	Long: `Run tshark in monitor mode and classify the frames it reports. Useful
where the libpcap bindings are unavailable but Wireshark is installed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		src := capture.NewTsharkSource(cfg.Capture.Interface, cfg.Capture.Filter)
		name := "tshark"
		if cfg.Capture.Interface != "" {
			name += ":" + cfg.Capture.Interface
		}
		return runMonitor(cfg, src, name)
	},
}

func init() {
	tsharkCmd.Flags().StringP("interface", "i", "", "interface tshark captures on")
	tsharkCmd.Flags().String("filter", "", "capture filter passed to tshark")

	bindLocalFlag(tsharkCmd, "capture.interface", "interface")
	bindLocalFlag(tsharkCmd, "capture.filter", "filter")
}
