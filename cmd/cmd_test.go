package cmd

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/sarchlab/simradio/channel"
	"github.com/sarchlab/simradio/config"
	"github.com/sarchlab/simradio/connector"
	"github.com/sarchlab/simradio/datarecording"
	"github.com/sarchlab/simradio/simserver"
)

func newServer() *simserver.Server {
	return simserver.MakeBuilder().
		WithLogger(log.New(GinkgoWriter, "", 0)).
		WithSignalStrength(-42.5).
		Build()
}

func listen(srv *simserver.Server, address string) *channel.InprocListener {
	l, err := channel.ListenInproc(address)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())

	go func() {
		defer GinkgoRecover()
		Expect(srv.ServeListener(l)).To(Succeed())
	}()

	return l
}

func runRoot(args ...string) (string, error) {
	defer log.SetOutput(GinkgoWriter)

	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(GinkgoWriter)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()

	return out.String(), err
}

var _ = Describe("Flags", func() {
	It("should override the configuration", func() {
		c := &cobra.Command{}
		addSessionFlags(c.Flags())

		Expect(c.Flags().Set("server", "inproc://flags")).To(Succeed())
		Expect(c.Flags().Set("local", "node-flags")).To(Succeed())
		Expect(c.Flags().Set("log-level", "DEBUG")).To(Succeed())
		Expect(c.Flags().Set("record", "run1")).To(Succeed())
		Expect(c.Flags().Set("monitor-port", "32777")).To(Succeed())

		cfg, err := loadConfig(c)
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.Connector.Server).To(Equal("inproc://flags"))
		Expect(cfg.Connector.Local).To(Equal("node-flags"))
		Expect(cfg.Log.Level).To(Equal("DEBUG"))
		Expect(cfg.Recorder.Backend).To(Equal(config.BackendSQLite))
		Expect(cfg.Recorder.Path).To(Equal("run1"))
		Expect(cfg.Monitor.Port).To(Equal(32777))
	})

	It("should validate the result", func() {
		c := &cobra.Command{}
		addSessionFlags(c.Flags())

		Expect(c.Flags().Set("log-level", "LOUD")).To(Succeed())

		_, err := loadConfig(c)
		Expect(err).To(MatchError(ContainSubstring("unknown log level")))
	})
})

var _ = Describe("Recorder", func() {
	It("should report an existing recording instead of panicking", func() {
		path := filepath.Join(GinkgoT().TempDir(), "run")
		Expect(os.WriteFile(path+".sqlite3", nil, 0o644)).To(Succeed())

		var (
			rec datarecording.DataRecorder
			err error
		)
		Expect(func() {
			rec, err = openRecorder(config.RecorderConfig{
				Backend: config.BackendSQLite,
				Path:    path,
			})
		}).NotTo(Panic())

		Expect(rec).To(BeNil())
		Expect(err).To(MatchError(datarecording.ErrFileExists))
	})

	It("should record nothing without a backend", func() {
		rec, err := openRecorder(config.RecorderConfig{})

		Expect(err).NotTo(HaveOccurred())
		Expect(rec).To(BeNil())
	})
})

var _ = Describe("Commands", func() {
	var (
		srv *simserver.Server
		l   *channel.InprocListener
	)

	BeforeEach(func() {
		srv = newServer()
		l = listen(srv, "inproc://cmd-test")
	})

	AfterEach(func() {
		_ = l.Close()
		_ = srv.Close()
	})

	It("should probe a band", func() {
		out, err := runRoot("probe",
			"--server", "inproc://cmd-test",
			"--local", "node-probe",
			"--band", "A",
			"--sweep", "3")
		Expect(err).NotTo(HaveOccurred())

		Expect(out).To(ContainSubstring("A: state Idle"))
		Expect(out).To(ContainSubstring("A: channel 0 signal -42.5 dBm"))
		Expect(out).To(ContainSubstring("A: channel 2 signal -42.5 dBm"))
		Expect(strings.Count(out, "signal")).To(Equal(3))
	})

	It("should set and read fields", func() {
		_, err := runRoot("field", "led0", "on",
			"--server", "inproc://cmd-test",
			"--local", "node-field")
		Expect(err).NotTo(HaveOccurred())

		Eventually(func() string {
			v, _ := srv.Field("led0")
			return v
		}).Should(Equal("on"))

		out, err := runRoot("field", "led0",
			"--server", "inproc://cmd-test",
			"--local", "node-field")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("led0 = on\n"))
	})
})

var _ = Describe("Relay", func() {
	var (
		srv          *simserver.Server
		relay, other *connector.Connector
	)

	connect := func(local string) *connector.Connector {
		clientEnd, serverEnd := channel.NewPipe()
		Expect(srv.Serve(serverEnd)).To(Succeed())

		c, err := connector.MakeBuilder().
			WithChannel(clientEnd).
			WithLogger(log.New(GinkgoWriter, "", 0)).
			Build("inproc://sim", local)
		Expect(err).NotTo(HaveOccurred())

		return c
	}

	BeforeEach(func() {
		srv = newServer()
		relay = connect("node-relay")
		other = connect("node-other")
	})

	AfterEach(func() {
		_ = relay.Close()
		_ = other.Close()
		_ = srv.Close()
	})

	It("should echo packets and send beacons", func() {
		r, err := relay.AttachRadio("ISM-433MHz")
		Expect(err).NotTo(HaveOccurred())
		peer, err := other.AttachRadio("ISM-433MHz")
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- runRelay(ctx, r, 0, 50*time.Millisecond)
		}()

		Eventually(func() string {
			for _, cs := range srv.Clients() {
				if cs.Address == "node-relay" {
					return cs.Radios["ISM-433MHz"]
				}
			}
			return ""
		}).Should(Equal("Receive"))

		received := make(chan []byte, 64)
		peer.SetEventSink(connector.EventSinkFunc(
			func(r *connector.Radio, e connector.Event) {
				if e != connector.EventPacketReceived {
					return
				}

				data, _ := r.GetReceived(16)
				received <- data
			}))
		Expect(peer.StartReceive(0)).To(Succeed())

		Eventually(received).Should(Receive(HaveLen(1)))

		Expect(peer.Send(0, []byte{0xCA, 0xFE})).To(Succeed())
		Eventually(received).Should(Receive(Equal([]byte{0xCA, 0xFE})))

		cancel()
		Eventually(done).Should(Receive(BeNil()))

		_, attached := relay.FindByBand("ISM-433MHz")
		Expect(attached).To(BeFalse())
	})
})

var _ = Describe("Report", func() {
	It("should summarize a recording", func() {
		path := filepath.Join(GinkgoT().TempDir(), "run")

		rec := datarecording.New(path)
		rec.CreateTable(datarecording.FrameTable, datarecording.FrameEntry{})
		rec.CreateTable(datarecording.RequestTable,
			datarecording.RequestEntry{})

		rec.InsertData(datarecording.FrameTable, datarecording.FrameEntry{
			ID: "1", Direction: "sent", Kind: "Packet", Size: 10})
		rec.InsertData(datarecording.FrameTable, datarecording.FrameEntry{
			ID: "2", Direction: "sent", Kind: "Packet", Size: 5})
		rec.InsertData(datarecording.FrameTable, datarecording.FrameEntry{
			ID: "3", Direction: "received", Kind: "SendComplete", Size: 4})

		rec.InsertData(datarecording.RequestTable, datarecording.RequestEntry{
			ID: "a", Kind: "SignalRequest", StartTime: 1, EndTime: 1.002,
			Outcome: "ok"})
		rec.InsertData(datarecording.RequestTable, datarecording.RequestEntry{
			ID: "b", Kind: "SignalRequest", StartTime: 2, EndTime: 2.004,
			Outcome: "ok"})
		rec.InsertData(datarecording.RequestTable, datarecording.RequestEntry{
			ID: "c", Kind: "StateRequest", StartTime: 3, EndTime: 4,
			Outcome: "timeout"})
		Expect(rec.Close()).To(Succeed())

		reader, err := datarecording.NewReader(path + ".sqlite3")
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()

		out := new(bytes.Buffer)
		Expect(writeReport(context.Background(), reader, out)).To(Succeed())

		lines := strings.Split(out.String(), "\n")
		Expect(lines).To(ContainElement(MatchRegexp(`^received\s+1\s+4$`)))
		Expect(lines).To(ContainElement(MatchRegexp(`^sent\s+2\s+15$`)))
		Expect(lines).To(ContainElement(
			MatchRegexp(`^SignalRequest\s+2\s+0\s+3\.000\s+4\.000$`)))
		Expect(lines).To(ContainElement(
			MatchRegexp(`^StateRequest\s+1\s+1\s+0\.000\s+0\.000$`)))
	})
})
