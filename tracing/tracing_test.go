package tracing

import (
	"errors"
	"strconv"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/simradio/channel"
	"github.com/sarchlab/simradio/connector"
	"github.com/sarchlab/simradio/datarecording"
	"github.com/sarchlab/simradio/message"
	"github.com/sarchlab/simradio/sim"
)

type namedDomain struct {
	*sim.HookableBase
	name string
}

func (d *namedDomain) Name() string {
	return d.name
}

func newNamedDomain(name string) *namedDomain {
	return &namedDomain{HookableBase: sim.NewHookableBase(), name: name}
}

var _ = Describe("Trace hook", func() {
	var (
		mockCtrl *gomock.Controller
		tracer   *MockTracer
		domain   *namedDomain
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		tracer = NewMockTracer(mockCtrl)
		domain = newNamedDomain("node-1")
	})

	It("should turn requests into tasks", func() {
		CollectTrace(domain, tracer)

		start := time.Unix(100, 0)
		req := &connector.RequestInfo{
			ID:    "req-1",
			Band:  "A",
			Kind:  message.KindStateRequest,
			Start: start,
		}

		tracer.EXPECT().StartTask(Task{
			ID:        "req-1",
			Kind:      "StateRequest",
			What:      "A",
			Where:     "node-1",
			StartTime: start,
		})
		domain.InvokeHook(sim.HookCtx{
			Domain: domain,
			Pos:    connector.HookPosRequestStart,
			Item:   req,
		})

		req.End = start.Add(3 * time.Millisecond)
		tracer.EXPECT().EndTask(gomock.Any()).Do(func(task Task) {
			Expect(task.ID).To(Equal("req-1"))
			Expect(task.Latency).To(Equal(3 * time.Millisecond))
			Expect(task.Outcome()).To(Equal("ok"))
		})
		domain.InvokeHook(sim.HookCtx{
			Domain: domain,
			Pos:    connector.HookPosRequestEnd,
			Item:   req,
		})
	})

	It("should ignore frame hooks", func() {
		CollectTrace(domain, tracer)

		domain.InvokeHook(sim.HookCtx{
			Domain: domain,
			Pos:    connector.HookPosFrameSent,
		})
	})

	It("should refuse to attach the same tracer twice", func() {
		CollectTrace(domain, tracer)

		Expect(func() { CollectTrace(domain, tracer) }).To(Panic())
	})
})

var _ = Describe("Task", func() {
	DescribeTable("outcome",
		func(err error, outcome string) {
			Expect(Task{Err: err}.Outcome()).To(Equal(outcome))
		},
		Entry("success", nil, "ok"),
		Entry("timeout", connector.ErrTimeout, "timeout"),
		Entry("connector closed", connector.ErrClosed, "closed"),
		Entry("radio closed", connector.ErrRadioClosed, "closed"),
		Entry("channel failure",
			&connector.ChannelError{Op: "send", Err: errors.New("x")}, "error"),
	)
})

var _ = Describe("AverageTimeTracer", func() {
	var (
		tracer *AverageTimeTracer
		t0     time.Time
	)

	BeforeEach(func() {
		tracer = NewAverageTimeTracer(KindFilter("SignalRequest"))
		t0 = time.Unix(1000, 0)
	})

	run := func(id string, latency time.Duration, err error) {
		tracer.StartTask(Task{ID: id, Kind: "SignalRequest", StartTime: t0})
		tracer.EndTask(Task{
			ID:        id,
			Kind:      "SignalRequest",
			StartTime: t0,
			EndTime:   t0.Add(latency),
			Err:       err,
		})
	}

	It("should average successful tasks", func() {
		run("1", 2*time.Millisecond, nil)
		run("2", 4*time.Millisecond, nil)
		run("3", time.Second, connector.ErrTimeout)

		Expect(tracer.TotalCount()).To(Equal(uint64(2)))
		Expect(tracer.FailureCount()).To(Equal(uint64(1)))
		Expect(tracer.AverageTime()).To(Equal(3 * time.Millisecond))
		Expect(tracer.MaxTime()).To(Equal(4 * time.Millisecond))
		Expect(tracer.InflightCount()).To(Equal(0))
	})

	It("should skip filtered tasks", func() {
		tracer.StartTask(Task{ID: "1", Kind: "StateRequest", StartTime: t0})
		tracer.EndTask(Task{ID: "1", Kind: "StateRequest", EndTime: t0})

		Expect(tracer.TotalCount()).To(BeZero())
	})

	It("should track in-flight tasks", func() {
		tracer.StartTask(Task{ID: "1", Kind: "SignalRequest", StartTime: t0})

		Expect(tracer.InflightCount()).To(Equal(1))
	})
})

var _ = Describe("DBTracer", func() {
	var (
		mockCtrl *gomock.Controller
		backend  *MockDataRecorder
		tracer   *DBTracer
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		backend = NewMockDataRecorder(mockCtrl)

		backend.EXPECT().CreateTable(datarecording.RequestTable,
			datarecording.RequestEntry{})
		tracer = NewDBTracer(backend, nil)
	})

	It("should write ended tasks", func() {
		start := time.Unix(10, 0)

		backend.EXPECT().InsertData(datarecording.RequestTable,
			datarecording.RequestEntry{
				ID:        "req-1",
				Connector: "node-1",
				Band:      "A",
				Kind:      "SignalRequest",
				StartTime: 10,
				EndTime:   10.5,
				Outcome:   "timeout",
			})

		tracer.StartTask(Task{ID: "req-1"})
		tracer.EndTask(Task{
			ID:        "req-1",
			Kind:      "SignalRequest",
			What:      "A",
			Where:     "node-1",
			StartTime: start,
			EndTime:   start.Add(500 * time.Millisecond),
			Err:       connector.ErrTimeout,
		})
	})

	It("should panic on tasks without ID", func() {
		Expect(func() { tracer.EndTask(Task{}) }).To(Panic())
	})
})

var _ = Describe("Tracing a connector", func() {
	It("should see every query", func() {
		clientEnd, serverEnd := channel.NewPipe()
		defer serverEnd.Close()

		avg := NewAverageTimeTracer(nil)

		c, err := connector.MakeBuilder().
			WithChannel(clientEnd).
			WithHook(NewTraceHook(avg)).
			Build("inproc://sim", "node-1")
		Expect(err).NotTo(HaveOccurred())
		defer c.Close()

		r, err := c.AttachRadio("A")
		Expect(err).NotTo(HaveOccurred())

		_, err = r.GetState(10 * time.Millisecond)
		Expect(err).To(MatchError(connector.ErrTimeout))

		Expect(avg.FailureCount()).To(Equal(uint64(1)))
		Expect(avg.InflightCount()).To(Equal(0))
	})

	It("should number requests in sequence", func() {
		clientEnd, serverEnd := channel.NewPipe()
		defer serverEnd.Close()

		var ids []string
		recordIDs := sim.HookFunc(func(ctx sim.HookCtx) {
			if ctx.Pos == connector.HookPosRequestStart {
				ids = append(ids, ctx.Item.(*connector.RequestInfo).ID)
			}
		})

		c, err := connector.MakeBuilder().
			WithChannel(clientEnd).
			WithHook(recordIDs).
			Build("inproc://sim", "node-1")
		Expect(err).NotTo(HaveOccurred())
		defer c.Close()

		r, err := c.AttachRadio("A")
		Expect(err).NotTo(HaveOccurred())

		_, _ = r.GetState(5 * time.Millisecond)
		_, _ = r.GetSignalStrength(0, 5*time.Millisecond)

		Expect(ids).To(HaveLen(2))
		first, err := strconv.ParseUint(ids[0], 10, 64)
		Expect(err).NotTo(HaveOccurred())
		Expect(ids[1]).To(Equal(strconv.FormatUint(first+1, 10)))
	})

	It("should attach a tracer while frames arrive", func() {
		clientEnd, serverEnd := channel.NewPipe()
		defer serverEnd.Close()

		c, err := connector.MakeBuilder().
			WithChannel(clientEnd).
			Build("inproc://sim", "node-1")
		Expect(err).NotTo(HaveOccurred())
		defer c.Close()

		frame, err := message.NewProtoCodec().Encode(
			message.New(&message.Event{Data: "tick"}))
		Expect(err).NotTo(HaveOccurred())

		pushed := make(chan struct{})
		go func() {
			defer GinkgoRecover()
			defer close(pushed)

			for i := 0; i < 200; i++ {
				Expect(serverEnd.Send(frame)).To(Succeed())
			}
		}()

		avg := NewAverageTimeTracer(nil)
		CollectTrace(c, avg)
		Eventually(pushed).Should(BeClosed())

		Expect(c.NumHooks()).To(Equal(1))

		r, err := c.AttachRadio("A")
		Expect(err).NotTo(HaveOccurred())
		_, err = r.GetState(10 * time.Millisecond)
		Expect(err).To(MatchError(connector.ErrTimeout))

		Expect(avg.FailureCount()).To(Equal(uint64(1)))
	})
})
