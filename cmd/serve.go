package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/sarchlab/simradio/simserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a simulation server.",
	Long: "`serve` runs a simulation server that accepts websocket " +
		"connectors on " + simserver.EndpointPath + ". Packets reach the " +
		"radios listening on the same band and channel.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		closeLog, err := setupLogging(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = closeLog() }()

		if cmd.Flags().Changed("listen") {
			cfg.Server.Listen, _ = cmd.Flags().GetString("listen")
		}

		if cmd.Flags().Changed("signal") {
			cfg.Server.SignalStrength, _ = cmd.Flags().GetFloat32("signal")
		}

		srv := simserver.MakeBuilder().
			WithLogger(log.Default()).
			WithSignalStrength(cfg.Server.SignalStrength).
			Build()
		defer func() { _ = srv.Close() }()

		fmt.Fprintf(cmd.ErrOrStderr(), "Serving on %s%s\n",
			cfg.Server.Listen, simserver.EndpointPath)

		return srv.ListenAndServe(cfg.Server.Listen)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "Address to listen on")
	serveCmd.Flags().Float32("signal", simserver.DefaultSignalStrength,
		"Signal strength reported to every radio, in dBm")
}
