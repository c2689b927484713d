package cmd

import (
	"github.com/spf13/cobra"

	"deauthwatch/internal/capture"
)

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Replay a pcap file through the classifier",
	Long: `Replay a pcap file captured with a radiotap or raw 802.11 link type.
By default frames are read as fast as possible and the remaining partial
interval is rolled when the file ends. With --realtime the replay is paced
by the capture timestamps so intervals line up with the original traffic.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg.Capture.File = args[0]
		src := capture.NewFileSource(cfg.Capture.File, cfg.Capture.Realtime)
		return runMonitor(cfg, src, "file:"+cfg.Capture.File)
	},
}

func init() {
	replayCmd.Flags().Bool("realtime", false, "pace the replay by capture timestamps")
	bindLocalFlag(replayCmd, "capture.realtime", "realtime")
}
