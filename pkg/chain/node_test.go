package chain

import (
	"testing"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestChain(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Chain Suite")
}

var _ = Describe("ReactorNode", func() {
	var source, sink *ReactorNode

	BeforeEach(func() {
		source = NewReactorNode("source", logr.Discard())
		sink = NewReactorNode("sink", logr.Discard())
	})

	It("delivers a sent packet to every subscribed listener", func() {
		received := []Packet{}
		sink.SetHandler(func(p Packet) bool {
			received = append(received, p)
			return false
		})
		source.Subscribe(sink)

		source.ChainSend(Insert, []any{"doc"})

		Expect(received).To(HaveLen(1))
		Expect(received[0].Type).To(Equal(Insert))
	})

	It("delivers to listeners in registration order", func() {
		order := []string{}
		a := NewReactorNode("a", logr.Discard())
		b := NewReactorNode("b", logr.Discard())
		a.SetHandler(func(Packet) bool { order = append(order, "a"); return false })
		b.SetHandler(func(Packet) bool { order = append(order, "b"); return false })

		source.Subscribe(a)
		source.Subscribe(b)
		source.ChainSend(SetData, nil)

		Expect(order).To(Equal([]string{"a", "b"}))
	})

	It("stops propagation past a node whose handler returns true", func() {
		downstreamOfSink := NewReactorNode("downstream", logr.Discard())
		sinkCalls := 0
		downstreamCalls := 0

		sink.SetHandler(func(Packet) bool { sinkCalls++; return true })
		downstreamOfSink.SetHandler(func(Packet) bool { downstreamCalls++; return false })
		sink.Subscribe(downstreamOfSink)
		source.Subscribe(sink)

		source.ChainSend(Remove, nil)

		Expect(sinkCalls).To(Equal(1))
		Expect(downstreamCalls).To(Equal(0))
	})

	It("propagates past a node with no handler installed", func() {
		downstreamOfSink := NewReactorNode("downstream", logr.Discard())
		calls := 0
		downstreamOfSink.SetHandler(func(Packet) bool { calls++; return false })
		sink.Subscribe(downstreamOfSink)
		source.Subscribe(sink)

		source.ChainSend(Update, nil)

		Expect(calls).To(Equal(1))
	})

	It("supports reentrant ChainSend from inside a handler", func() {
		var nested []Packet
		relay := NewReactorNode("relay", logr.Discard())
		relay.SetHandler(func(p Packet) bool {
			relay.ChainSend(Insert, []any{"rewritten"})
			return true
		})
		tail := NewReactorNode("tail", logr.Discard())
		tail.SetHandler(func(p Packet) bool { nested = append(nested, p); return false })

		relay.Subscribe(tail)
		source.Subscribe(relay)

		source.ChainSend(Update, nil)

		Expect(nested).To(HaveLen(1))
		Expect(nested[0].Type).To(Equal(Insert))
	})

	It("lets a later Unsubscribe affect only subsequent sends", func() {
		calls := 0
		sink.SetHandler(func(Packet) bool {
			calls++
			source.Unsubscribe(sink)
			return false
		})
		source.Subscribe(sink)

		source.ChainSend(SetData, nil)
		source.ChainSend(SetData, nil)

		Expect(calls).To(Equal(1))
	})
})
