package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/sarchlab/simradio/connector"
	"github.com/sarchlab/simradio/message"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Echo received packets and send a counter beacon.",
	Long: "`relay` attaches a radio, listens on a channel, prints and sends " +
		"back every packet it receives, and sends a one-byte counter beacon " +
		"at a fixed interval until interrupted.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		band, _ := cmd.Flags().GetString("band")
		channel, _ := cmd.Flags().GetInt32("channel")
		interval, _ := cmd.Flags().GetDuration("interval")

		if interval <= 0 {
			return fmt.Errorf("interval must be positive, got %s", interval)
		}

		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.close()

		fmt.Println(s.conn.Status())

		radios, err := s.attach(band)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		return runRelay(ctx, radios[0], channel, interval)
	},
}

func init() {
	rootCmd.AddCommand(relayCmd)
	relayCmd.Flags().String("band", "ISM-433MHz", "Band of the radio")
	relayCmd.Flags().Int32("channel", 0, "Channel to listen and send on")
	relayCmd.Flags().Duration("interval", 30*time.Second,
		"Time between two beacons")
}

// runRelay echoes every packet the radio receives and sends the beacon until
// the context is done. The radio is closed on return.
func runRelay(
	ctx context.Context,
	r *connector.Radio,
	channel int32,
	interval time.Duration,
) error {
	defer func() {
		if err := r.Close(); err != nil {
			log.Printf("[WARN] closing radio %s: %v", r.Band(), err)
		}
	}()

	received := make(chan struct{}, 1)
	r.SetEventSink(connector.EventSinkFunc(
		func(_ *connector.Radio, e connector.Event) {
			if e != connector.EventPacketReceived {
				return
			}

			select {
			case received <- struct{}{}:
			default:
			}
		}))

	if err := r.StartReceive(channel); err != nil {
		return err
	}

	beacon := time.NewTicker(interval)
	defer beacon.Stop()

	var count byte

	for {
		select {
		case <-ctx.Done():
			fmt.Println("Exiting")
			return nil
		case <-received:
			if err := echo(r, channel); err != nil {
				return err
			}
		case <-beacon.C:
			if err := r.Send(channel, []byte{count}); err != nil {
				log.Printf("[ERROR] beacon on %s: %v", r.Band(), err)
			}
			count++
		}
	}
}

func echo(r *connector.Radio, channel int32) error {
	data, ok := r.GetReceived(connector.DefaultReceiveBufferSize)
	if !ok {
		return nil
	}

	fmt.Println(message.FormatBytes("Received", data))

	return r.Send(channel, data)
}
