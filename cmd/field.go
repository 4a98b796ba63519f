package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var fieldCmd = &cobra.Command{
	Use:   "field NAME [VALUE]",
	Short: "Set or read a simulation field.",
	Long: "`field NAME VALUE` sets a named field of the simulation. " +
		"`field NAME` asks the simulator for the current value.",
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.close()

		name := args[0]

		if len(args) == 2 {
			return s.conn.SetField(name, args[1])
		}

		if err := s.conn.RequestField(name); err != nil {
			return err
		}

		value, ok := waitField(s, name, s.cfg.Connector.Timeout)
		if !ok {
			return fmt.Errorf("field %s: no answer within %s",
				name, s.cfg.Connector.Timeout)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", name, value)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(fieldCmd)
}

// waitField polls the field cache until the server answered.
func waitField(s *session, name string, timeout time.Duration) (string, bool) {
	deadline := time.Now().Add(timeout)

	for {
		if v, ok := s.conn.Field(name); ok {
			return v, true
		}

		if time.Now().After(deadline) {
			return "", false
		}

		time.Sleep(10 * time.Millisecond)
	}
}
