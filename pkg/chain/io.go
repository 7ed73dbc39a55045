package chain

import (
	"sync"

	"github.com/go-logr/logr"
)

// TransformFunc is interposed between a ReactorIO's source and sink. It is called with the
// ReactorIO itself (so it may call io.ChainSend to emit packets of its own, as when a view rewrites
// a single update into an insert/update/remove triple) and the incoming packet. Returning true
// suppresses the unchanged packet; the transform is assumed to have already emitted whatever it
// wanted downstream. Returning false forwards p to the sink unchanged.
type TransformFunc func(io *ReactorIO, p Packet) bool

// ReactorIO is a ReactorNode specialised to sit between one upstream source and one downstream
// sink, giving the transform a chance to rewrite, gate or pass through every packet that crosses
// the boundary.
type ReactorIO struct {
	*ReactorNode

	mu        sync.Mutex
	source    *ReactorNode
	sink      *ReactorNode
	transform TransformFunc
	dropped   bool
}

// NewReactorIO allocates a ReactorIO, subscribes it as a downstream of source and registers sink as
// its own downstream, then wires the transform in as its interception handler.
func NewReactorIO(name string, source, sink *ReactorNode, transform TransformFunc, log logr.Logger) *ReactorIO {
	io := &ReactorIO{
		ReactorNode: NewReactorNode(name, log),
		source:      source,
		sink:        sink,
		transform:   transform,
	}

	io.ReactorNode.SetHandler(func(p Packet) bool {
		io.mu.Lock()
		fn := io.transform
		io.mu.Unlock()
		if fn == nil {
			return false
		}
		return fn(io, p)
	})

	if source != nil {
		source.Subscribe(io.ReactorNode)
	}
	if sink != nil {
		io.ReactorNode.Subscribe(sink)
	}

	return io
}

// SetTransform replaces the transform function in place.
func (io *ReactorIO) SetTransform(fn TransformFunc) {
	io.mu.Lock()
	defer io.mu.Unlock()
	io.transform = fn
}

// Sink returns the node packets are forwarded to when the transform lets them through.
func (io *ReactorIO) Sink() *ReactorNode { return io.sink }

// Source returns the node this IO is listening to.
func (io *ReactorIO) Source() *ReactorNode { return io.source }

// Drop unsubscribes from the source and disconnects the sink. Idempotent.
func (io *ReactorIO) Drop() {
	io.mu.Lock()
	if io.dropped {
		io.mu.Unlock()
		return
	}
	io.dropped = true
	source, sink := io.source, io.sink
	io.source, io.sink = nil, nil
	io.mu.Unlock()

	if source != nil {
		source.Unsubscribe(io.ReactorNode)
	}
	if sink != nil {
		io.ReactorNode.Unsubscribe(sink)
	}
}

// IsDropped reports whether Drop has already run.
func (io *ReactorIO) IsDropped() bool {
	io.mu.Lock()
	defer io.mu.Unlock()
	return io.dropped
}
