// Extalife-cli is a command line client for the Exta Life EFC-01 home
// automation controller.
//
// It speaks the controller's native TCP protocol: multicast discovery,
// channel listing, device actions, scene activation, configuration backup
// and a live channel monitor.
//
// Usage:
//
//	extalife-cli [command] [flags]
//
// See 'extalife-cli --help' for available commands. Set EXTALIFE_LOG_LEVEL
// to debug/info/warn/error for protocol-level logging on stderr.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/extago/extalife/internal/logging"
	"github.com/extago/extalife/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "extalife-cli",
	Short: "Exta Life EFC-01 Controller Client",
	Long: `A command line client for the ZAMEL Exta Life EFC-01 controller.

Talks to the controller over its native TCP protocol on the local network.
The controller can be located automatically via multicast discovery, so in
most setups no address needs to be configured.`,
	Version: version.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.InitializeFromEnv()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("extalife-cli %s (commit: %s)\n", version.Version, version.Commit)
	},
}
