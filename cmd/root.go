// Package cmd implements the CLI using the cobra framework.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"deauthwatch/internal/config"
)

const configKeyAnnotation = "deauthwatch/config-key"

var (
	configFile string
	v          = viper.New()
	cfg        *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "deauthwatch",
	Short: "Count 802.11 frames per interval and raise an alarm on deauthentication floods",
	Long: `deauthwatch watches 802.11 traffic captured in promiscuous mode, counts
frames and deauthentication frames per interval, tracks lifetime totals and
extrema, and raises an alarm when an interval sees more deauthentication
frames than the configured threshold.

Frames can come from a monitor-mode interface, a pcap file, an ESP8266
forwarding raw sniffer buffers over UDP, or tshark.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "init" {
			return nil
		}
		if err := bindCommandFlags(cmd); err != nil {
			return err
		}
		loaded, err := config.Load(v, configFile)
		if err != nil {
			return err
		}
		applyFlagSwitches(cmd, loaded)
		cfg = loaded
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "config file path")
	pf.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	pf.Duration("interval", 0, "interval roll period (default from config, 1s)")
	pf.Uint64("threshold", 0, "deauth alarm threshold per interval (default from config, 5)")
	pf.Int("min-length", 0, "buffer length at or below which frames are not decoded (default from config, 12)")
	pf.Bool("tui", false, "show the terminal dashboard")
	pf.Bool("no-console", false, "do not print the per-interval table")
	pf.String("report-dir", "", "write an html session report to this directory on exit")
	pf.String("http", "", "serve /stats and /alerts on this address")
	pf.String("nats-url", "", "publish snapshots to this NATS server")

	bindFlag("log.level", "log-level")
	bindFlag("stats.interval", "interval")
	bindFlag("stats.deauth_alarm_threshold", "threshold")
	bindFlag("decoder.min_length", "min-length")
	bindFlag("tui.enabled", "tui")
	bindFlag("report.session_html", "report-dir")
	bindFlag("report.http.listen", "http")
	bindFlag("report.nats.url", "nats-url")

	rootCmd.AddCommand(liveCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(relayCmd)
	rootCmd.AddCommand(tsharkCmd)
	rootCmd.AddCommand(configCmd)
}

// bindFlag binds a persistent flag to a config key. Only flags the user set
// override the file, so flag defaults stay out of the way.
func bindFlag(key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag, err))
	}
}

// bindCommandFlags binds the annotated local flags of the running command.
func bindCommandFlags(cmd *cobra.Command) error {
	var err error
	cmd.LocalNonPersistentFlags().VisitAll(func(f *pflag.Flag) {
		keys := f.Annotations[configKeyAnnotation]
		if len(keys) == 0 || err != nil {
			return
		}
		err = v.BindPFlag(keys[0], f)
	})
	return err
}

// applyFlagSwitches turns on the sinks whose address was given on the
// command line.
func applyFlagSwitches(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("http") {
		c.Report.HTTP.Enabled = true
	}
	if flags.Changed("nats-url") {
		c.Report.NATS.Enabled = true
	}
	if noConsole, _ := flags.GetBool("no-console"); noConsole {
		c.Report.Console = false
	}
}
