// Package cmd provides the command-line interface for simradio.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "simradio",
	Short: "simradio connects virtual radios to a network simulation server.",
	Long: `simradio connects virtual radios to a network simulation server. ` +
		`It can run an echoing relay node, probe a band, set simulation ` +
		`fields, serve a small simulation server and summarize recordings.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	addSessionFlags(rootCmd.PersistentFlags())
}

// addSessionFlags declares the flags that override the configuration file.
func addSessionFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Configuration file (.yaml, .yml or .ini)")
	flags.String("server", "", "Simulation server address")
	flags.String("local", "", "Local address of this node")
	flags.String("log-level", "", "One of DEBUG, INFO, WARN and ERROR")
	flags.String("record", "",
		"Record frames and requests into <record>.sqlite3")
	flags.Int("monitor-port", 0,
		"Serve the monitoring page on this port (0 disables it)")
	flags.Bool("open", false, "Open the monitoring page in a browser")
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Recorders are flushed before the process exits.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
