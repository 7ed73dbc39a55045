package view

// Drop tears the view down per §4.F: idempotent, it unsubscribes from the source, drops the
// ReactorIO(s) and both data collections, deregisters itself from the database, and emits "drop"
// so anything layered on top of this view (another View, a visualizer) can detach in turn. Each cb
// is invoked with (ok, alreadyDropped).
func (v *View) Drop(cb ...func(ok, alreadyDropped bool)) {
	v.mu.Lock()
	if v.state == stateDropped {
		v.mu.Unlock()
		invokeDropCallbacks(cb, false, true)
		return
	}

	if v.source != nil && v.sourceDropHandle != 0 {
		v.source.Off("drop", v.sourceDropHandle)
	}
	if v.io != nil {
		v.io.Drop()
		v.io = nil
	}
	if v.publicIO != nil {
		v.publicIO.Drop()
		v.publicIO = nil
	}

	v.source = nil
	v.sourceDropHandle = 0
	v.bkt = nil
	v.state = stateDropped

	registry := v.registry
	name := v.name
	private := v.privateData
	public := v.publicData
	v.mu.Unlock()

	private.Drop()
	if public != nil {
		public.Drop()
	}
	if registry != nil {
		registry.Unregister(name)
	}

	v.Emit("drop")
	invokeDropCallbacks(cb, true, false)
}

func invokeDropCallbacks(cb []func(ok, alreadyDropped bool), ok, alreadyDropped bool) {
	for _, fn := range cb {
		fn(ok, alreadyDropped)
	}
}
