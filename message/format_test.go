package message_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/simradio/message"
)

var _ = Describe("Formatting", func() {
	It("should print payloads as hex", func() {
		Expect(message.FormatBytes("Received", []byte{0xca, 0xfe, 0x01})).
			To(Equal("Received (length: 3): ca fe 01"))
	})

	It("should describe envelopes", func() {
		env := message.New(&message.StateSet{
			Info:     message.NewRFInfo("A", 2),
			State:    message.StateSleep,
			HasState: true,
		})

		Expect(message.Describe(env)).
			To(Equal("StateSet{band: A, channel: 2, state: Sleep}"))
	})

	It("should report the band of radio messages only", func() {
		band, ok := message.New(&message.SendComplete{
			Info: message.NewRFInfo("B", 0),
		}).Band()
		Expect(ok).To(BeTrue())
		Expect(band).To(Equal("B"))

		_, ok = message.New(&message.Register{Address: "x"}).Band()
		Expect(ok).To(BeFalse())
	})

	It("should parse state names", func() {
		s, err := message.ParseRadioState("Receiving")
		Expect(err).NotTo(HaveOccurred())
		Expect(s).To(Equal(message.StateReceiving))

		_, err = message.ParseRadioState("Dancing")
		Expect(err).To(HaveOccurred())
	})
})
