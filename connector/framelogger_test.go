package connector

import (
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"

	"github.com/sarchlab/simradio/message"
)

var _ = Describe("FrameLogger", func() {
	var (
		buf *gbytes.Buffer
		c   *Connector
		srv *serverPeer
	)

	BeforeEach(func() {
		buf = gbytes.NewBuffer()
		logger := NewFrameLogger(log.New(buf, "", 0))

		c, srv, _ = buildWithPeer(MakeBuilder().
			WithName("client").
			WithHook(logger))
	})

	AfterEach(func() {
		_ = c.Close()
	})

	It("should log sent frames", func() {
		Eventually(buf).Should(gbytes.Say(
			`\[DEBUG\] client,FrameSent,\d+,Register\{address: node-1\}`))
	})

	It("should log received and dropped frames", func() {
		r, err := c.AttachRadio("A")
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Send(3, []byte{1})).To(Succeed())
		srv.next()

		srv.push(&message.SendComplete{Info: message.NewRFInfo("A", 3)})
		Eventually(buf).Should(gbytes.Say(
			`client,FrameReceived,\d+,SendComplete\{band: A, channel: 3\}`))

		srv.pushRaw([]byte{0xff, 0xff})
		Eventually(buf).Should(gbytes.Say(`client,FrameDropped,2,<nil>,`))
	})
})
