package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/sarchlab/simradio/connector"
	"github.com/sarchlab/simradio/monitoring"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Print the signal strength and state of a radio.",
	Long: "`probe` attaches a radio and asks the simulator for its state and " +
		"the signal strength on a channel. With --sweep N, channels 0 to " +
		"N-1 are queried one after the other.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		band, _ := cmd.Flags().GetString("band")
		channel, _ := cmd.Flags().GetInt32("channel")
		sweep, _ := cmd.Flags().GetInt32("sweep")

		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.close()

		radios, err := s.attach(band)
		if err != nil {
			return err
		}

		p := prober{
			out:     cmd.OutOrStdout(),
			monitor: s.monitor,
			timeout: s.cfg.Connector.Timeout,
		}

		for _, r := range radios {
			if err := p.probe(r, channel, sweep); err != nil {
				return err
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().String("band", "",
		"Band to probe (default: every configured band)")
	probeCmd.Flags().Int32("channel", 0, "Channel to measure")
	probeCmd.Flags().Int32("sweep", 0, "Number of channels to measure")
}

type prober struct {
	out     io.Writer
	monitor *monitoring.Monitor
	timeout time.Duration
}

func (p prober) probe(r *connector.Radio, channel, sweep int32) error {
	state, err := r.GetState(p.timeout)
	if err != nil {
		return fmt.Errorf("state of %s: %w", r.Band(), err)
	}

	fmt.Fprintf(p.out, "%s: state %s\n", r.Band(), state)

	if sweep <= 0 {
		return p.measure(r, channel)
	}

	var bar *monitoring.ProgressBar
	if p.monitor != nil {
		bar = p.monitor.CreateProgressBar("sweep "+r.Band(), uint64(sweep))
		defer p.monitor.CompleteProgressBar(bar)
	}

	for ch := int32(0); ch < sweep; ch++ {
		bar.Begin(ch)

		if err := p.measure(r, ch); err != nil {
			return err
		}

		bar.Done()
	}

	return nil
}

func (p prober) measure(r *connector.Radio, channel int32) error {
	rssi, err := r.GetSignalStrength(channel, p.timeout)
	if err != nil {
		return fmt.Errorf("signal of %s channel %d: %w", r.Band(), channel, err)
	}

	fmt.Fprintf(p.out, "%s: channel %d signal %.1f dBm\n",
		r.Band(), channel, rssi)

	return nil
}
