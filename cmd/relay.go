package cmd

import (
	"github.com/spf13/cobra"

	"deauthwatch/internal/capture"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Receive raw sniffer buffers from an ESP8266 over UDP",
	Long: `Listen for UDP datagrams that each carry one raw ESP8266 promiscuous
callback buffer: the 12 byte RxControl block followed by the frame header.`,
	Example: `  deauthwatch relay --listen :4210`,
	RunE: func(cmd *cobra.Command, args []string) error {
		src := capture.NewSnifferBufSource(cfg.Capture.Listen)
		if err := src.Bind(); err != nil {
			return err
		}
		return runMonitor(cfg, src, "udp:"+src.Addr().String())
	},
}

func init() {
	relayCmd.Flags().String("listen", "", "UDP address to receive sniffer buffers on (default from config, :4210)")
	bindLocalFlag(relayCmd, "capture.listen", "listen")
}
