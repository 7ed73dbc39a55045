// Package event implements the small event-emitter mixin that both collections and views use for
// their named lifecycle events (§4.E's "drop", §4.F's "queryChange"/"queryOptionsChange"/"drop").
// It is independent of the chain-reaction graph in pkg/chain: chain packets carry document
// mutations through the propagation graph, while these events are plain named notifications with
// arbitrary arguments, the same two-tier split the teacher's ViewCacheInformer draws between
// typed ResourceEventHandler callbacks and its own TriggerEvent bookkeeping.
package event

import "sync"

// Listener is a callback registered against a named event.
type Listener func(args ...any)

// Emitter is a concurrency-safe named-event dispatcher. Listeners for one event fire in
// registration order.
type Emitter struct {
	mu        sync.RWMutex
	listeners map[string]map[int64]Listener
	seq       int64
}

// On registers fn under event and returns a handle usable with Off.
func (e *Emitter) On(event string, fn Listener) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.listeners == nil {
		e.listeners = make(map[string]map[int64]Listener)
	}
	if e.listeners[event] == nil {
		e.listeners[event] = make(map[int64]Listener)
	}
	e.seq++
	id := e.seq
	e.listeners[event][id] = fn
	return id
}

// Off removes a listener previously registered with On.
func (e *Emitter) Off(event string, handle int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if m, ok := e.listeners[event]; ok {
		delete(m, handle)
	}
}

// Emit invokes every listener registered for event, in registration order.
func (e *Emitter) Emit(event string, args ...any) {
	e.mu.RLock()
	ids := make([]int64, 0, len(e.listeners[event]))
	for id := range e.listeners[event] {
		ids = append(ids, id)
	}
	insertionSort(ids)
	fns := make([]Listener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, e.listeners[event][id])
	}
	e.mu.RUnlock()

	for _, fn := range fns {
		fn(args...)
	}
}

func insertionSort(ids []int64) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}
