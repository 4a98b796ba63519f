package monitoring

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/simradio/channel"
	"github.com/sarchlab/simradio/connector"
	"github.com/sarchlab/simradio/tracing"
)

func get(ts *httptest.Server, path string) (int, []byte) {
	rsp, err := http.Get(ts.URL + path)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	defer rsp.Body.Close()

	body, err := io.ReadAll(rsp.Body)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())

	return rsp.StatusCode, body
}

var _ = Describe("Monitor", func() {
	var (
		m       *Monitor
		ts      *httptest.Server
		c       *connector.Connector
		srvEnd  channel.Channel
		tracer  *tracing.AverageTimeTracer
		timeout = 10 * time.Millisecond
	)

	BeforeEach(func() {
		var clientEnd channel.Channel
		clientEnd, srvEnd = channel.NewPipe()

		tracer = tracing.NewAverageTimeTracer(nil)

		var err error
		c, err = connector.MakeBuilder().
			WithChannel(clientEnd).
			WithName("node-1").
			WithHook(tracing.NewTraceHook(tracer)).
			Build("inproc://sim", "node-1")
		Expect(err).NotTo(HaveOccurred())

		_, err = c.AttachRadio("A")
		Expect(err).NotTo(HaveOccurred())

		m = NewMonitor()
		m.RegisterConnector(c)
		m.RegisterTracer("all", tracer)

		ts = httptest.NewServer(m.Router())
	})

	AfterEach(func() {
		ts.Close()
		_ = c.Close()
		_ = srvEnd.Close()
	})

	It("should list connectors", func() {
		code, body := get(ts, "/api/connectors")
		Expect(code).To(Equal(http.StatusOK))

		var statuses []connector.Status
		Expect(json.Unmarshal(body, &statuses)).To(Succeed())
		Expect(statuses).To(HaveLen(1))
		Expect(statuses[0].Name).To(Equal("node-1"))
		Expect(statuses[0].Radios[0].Band).To(Equal("A"))
	})

	It("should show one connector", func() {
		code, _ := get(ts, "/api/connector/node-1")
		Expect(code).To(Equal(http.StatusOK))

		code, _ = get(ts, "/api/connector/unknown")
		Expect(code).To(Equal(http.StatusNotFound))
	})

	It("should serialize a radio", func() {
		code, body := get(ts, "/api/radio/node-1/A")
		Expect(code).To(Equal(http.StatusOK))
		Expect(body).NotTo(BeEmpty())

		code, _ = get(ts, "/api/radio/node-1/B")
		Expect(code).To(Equal(http.StatusNotFound))
	})

	It("should reject malformed field requests", func() {
		code, _ := get(ts, "/api/field/"+url.PathEscape("{bad"))
		Expect(code).To(Equal(http.StatusBadRequest))
	})

	It("should report request statistics", func() {
		r, _ := c.FindByBand("A")
		_, err := r.GetState(timeout)
		Expect(err).To(MatchError(connector.ErrTimeout))

		code, body := get(ts, "/api/requests")
		Expect(code).To(Equal(http.StatusOK))

		var stats []RequestStats
		Expect(json.Unmarshal(body, &stats)).To(Succeed())
		Expect(stats).To(ConsistOf(RequestStats{
			Name:     "all",
			Failures: 1,
		}))
	})

	It("should report progress bars", func() {
		bar := m.CreateProgressBar("sweep", 4)
		bar.Begin(0)
		bar.Done()
		bar.Begin(1)

		code, body := get(ts, "/api/progress")
		Expect(code).To(Equal(http.StatusOK))

		var bars []ProgressStatus
		Expect(json.Unmarshal(body, &bars)).To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0].Name).To(Equal("sweep"))
		Expect(bars[0].Total).To(Equal(uint64(4)))
		Expect(bars[0].Finished).To(Equal(uint64(1)))
		Expect(bars[0].InProgress).To(Equal(uint64(1)))
		Expect(bars[0].Channel).To(HaveValue(Equal(int32(1))))

		m.CompleteProgressBar(bar)
		m.CompleteProgressBar(nil)
		_, body = get(ts, "/api/progress")
		Expect(string(body)).To(Equal("[]"))
	})

	It("should report process resources", func() {
		code, body := get(ts, "/api/resource")
		Expect(code).To(Equal(http.StatusOK))

		var rsp resourceRsp
		Expect(json.Unmarshal(body, &rsp)).To(Succeed())
		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should serve the dashboard", func() {
		code, body := get(ts, "/")
		Expect(code).To(Equal(http.StatusOK))
		Expect(string(body)).To(ContainSubstring("simradio monitor"))
	})

	It("should refuse to open a browser before starting", func() {
		Expect(m.OpenBrowser()).To(HaveOccurred())
	})
})

var _ = Describe("ProgressBar", func() {
	It("should ignore calls on a nil bar", func() {
		var bar *ProgressBar

		Expect(func() {
			bar.Begin(3)
			bar.Done()
		}).NotTo(Panic())
	})

	It("should only count channels that began", func() {
		bar := &ProgressBar{total: 2}

		bar.Done()
		bar.Begin(0)
		bar.Done()
		bar.Done()

		s := bar.Status()
		Expect(s.Finished).To(Equal(uint64(1)))
		Expect(s.InProgress).To(BeZero())
		Expect(s.Channel).To(BeNil())
	})
})
