package chain

import (
	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ReactorIO", func() {
	var source, sink *ReactorNode

	BeforeEach(func() {
		source = NewReactorNode("source", logr.Discard())
		sink = NewReactorNode("sink", logr.Discard())
	})

	It("forwards a packet unchanged when the transform returns false", func() {
		var got []Packet
		sink.SetHandler(func(p Packet) bool { got = append(got, p); return false })

		io := NewReactorIO("io", source, sink, func(io *ReactorIO, p Packet) bool {
			return false
		}, logr.Discard())
		defer io.Drop()

		source.ChainSend(Insert, []any{"x"})

		Expect(got).To(HaveLen(1))
		Expect(got[0].Type).To(Equal(Insert))
	})

	It("suppresses the sink when the transform returns true", func() {
		var got []Packet
		sink.SetHandler(func(p Packet) bool { got = append(got, p); return false })

		io := NewReactorIO("io", source, sink, func(io *ReactorIO, p Packet) bool {
			return true
		}, logr.Discard())
		defer io.Drop()

		source.ChainSend(Insert, []any{"x"})

		Expect(got).To(BeEmpty())
	})

	It("lets the transform emit rewritten packets via ChainSend", func() {
		var got []Packet
		sink.SetHandler(func(p Packet) bool { got = append(got, p); return false })

		io := NewReactorIO("io", source, sink, func(io *ReactorIO, p Packet) bool {
			io.ChainSend(Remove, "rewritten")
			return true
		}, logr.Discard())
		defer io.Drop()

		source.ChainSend(Insert, []any{"x"})

		Expect(got).To(HaveLen(1))
		Expect(got[0].Type).To(Equal(Remove))
		Expect(got[0].Data).To(Equal("rewritten"))
	})

	It("results in zero deliveries regardless of upstream volume when every packet is intercepted", func() {
		calls := 0
		sink.SetHandler(func(Packet) bool { calls++; return false })

		io := NewReactorIO("io", source, sink, func(io *ReactorIO, p Packet) bool {
			return true
		}, logr.Discard())
		defer io.Drop()

		for i := 0; i < 50; i++ {
			source.ChainSend(Insert, []any{i})
		}

		Expect(calls).To(Equal(0))
	})

	It("disconnects from both source and sink on Drop", func() {
		calls := 0
		sink.SetHandler(func(Packet) bool { calls++; return false })

		io := NewReactorIO("io", source, sink, func(io *ReactorIO, p Packet) bool {
			return false
		}, logr.Discard())

		io.Drop()
		Expect(io.IsDropped()).To(BeTrue())

		source.ChainSend(Insert, []any{"x"})
		Expect(calls).To(Equal(0))

		// Second drop is a no-op.
		io.Drop()
	})
})
