// Smartip finds Smart-IP devices on the local network.
//
// It sends one multicast DNS question for the "_smart_ip._tcp" service type
// on a chosen IPv4 interface, listens for the length of a timeout, and
// reports every device that answered with its addresses, port and TXT
// properties.
//
// Usage:
//
//	smartip [command] [flags]
//
// Running without arguments launches the interactive wizard.
// See 'smartip --help' for available commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/smartip/internal/logging"
	"github.com/muurk/smartip/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "smartip",
	Short: "Smart-IP Device Discovery",
	Long: `Find Smart-IP devices on the local network using multicast DNS.

A single question for the _smart_ip._tcp service type is sent to
224.0.0.251:5353 from the chosen interface, and every answer that arrives
before the timeout is correlated into a device list.

If no command is specified, the interactive wizard will launch automatically.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Silent unless --log-level or SMARTIP_LOG_LEVEL is set
		return logging.Initialize(logLevel)
	},
	RunE: runWizard,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to $"+logging.LogLevelEnvVar)

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Fprintf(cmd.OutOrStdout(), "smartip %s (commit: %s, %s, %s)\n", info.Version, info.Commit, info.GoVersion, info.Platform)
	},
}
