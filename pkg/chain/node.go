package chain

import (
	"sync"

	"github.com/go-logr/logr"
)

// Handler intercepts a packet arriving at a node. Returning true consumes the packet: it will not
// be forwarded to this node's own downstream listeners. Returning false (or any non-true value, in
// the dynamically typed original) lets the packet fall through to the default behaviour of
// forwarding it unchanged.
type Handler func(Packet) bool

// ReactorNode is a node in the directed chain-reaction graph. Collections, views and the
// ReactorIO interposer are all, at their core, a ReactorNode: something that can receive a packet,
// optionally rewrite or swallow it, and pass it on to whoever is listening downstream.
type ReactorNode struct {
	mu         sync.RWMutex
	name       string
	downstream []*ReactorNode
	handler    Handler
	log        logr.Logger
}

// NewReactorNode creates an unbound node. name is used only for logging.
func NewReactorNode(name string, log logr.Logger) *ReactorNode {
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	return &ReactorNode{
		name: name,
		log:  log.WithValues("node", name),
	}
}

// Name returns the node's diagnostic name.
func (n *ReactorNode) Name() string { return n.name }

// Subscribe registers listener as a downstream of n. A listener already subscribed is not added
// twice.
func (n *ReactorNode) Subscribe(listener *ReactorNode) {
	if listener == nil {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	for _, d := range n.downstream {
		if d == listener {
			return
		}
	}
	n.downstream = append(n.downstream, listener)
	n.log.V(4).Info("subscribed listener", "listener", listener.name)
}

// Unsubscribe removes listener from n's downstream set, if present.
func (n *ReactorNode) Unsubscribe(listener *ReactorNode) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, d := range n.downstream {
		if d == listener {
			n.downstream = append(n.downstream[:i], n.downstream[i+1:]...)
			n.log.V(4).Info("unsubscribed listener", "listener", listener.name)
			return
		}
	}
}

// SetHandler installs (or clears, with nil) the interception handler for this node.
func (n *ReactorNode) SetHandler(h Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handler = h
}

// downstreamSnapshot returns a copy of the current downstream list. Dispatch always iterates a
// snapshot so that a handler which mutates the graph (subscribes or drops a listener) only affects
// subsequent sends, never the one in flight.
func (n *ReactorNode) downstreamSnapshot() []*ReactorNode {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]*ReactorNode, len(n.downstream))
	copy(out, n.downstream)
	return out
}

// ChainSend builds a packet and delivers it to every downstream listener, synchronously, in
// registration order. It returns once every listener (and everything reachable from it) has
// finished processing the packet.
func (n *ReactorNode) ChainSend(t PacketType, data any, options ...map[string]any) {
	var opts map[string]any
	if len(options) > 0 {
		opts = options[0]
	}
	n.forward(Packet{Type: t, Data: data, Options: opts})
}

// Receive delivers a packet that arrived at this node from an upstream sender. It runs the
// installed handler, if any, and - unless the handler consumed the packet - forwards it on to this
// node's own downstream. Receive returns true if the packet was consumed.
func (n *ReactorNode) Receive(p Packet) bool {
	n.mu.RLock()
	h := n.handler
	n.mu.RUnlock()

	consumed := false
	if h != nil {
		consumed = h(p)
	}

	if !consumed {
		n.forward(p)
	}

	return consumed
}

// forward delivers p to every downstream listener of n, depth-first: a listener's handler may
// itself call ChainSend before this call returns, and that nested send completes before forward
// moves on to the next listener.
func (n *ReactorNode) forward(p Packet) {
	for _, listener := range n.downstreamSnapshot() {
		n.log.V(8).Info("delivering packet", "packet", p, "to", listener.name)
		listener.Receive(p)
	}
}
