package view

import (
	"github.com/vireodb/vireo/pkg/chain"
	"github.com/vireodb/vireo/pkg/collection"
	"github.com/vireodb/vireo/pkg/document"
)

// queryGatedTransform is the transform function interposed between the source and this view by
// From, implementing §4.F's "query-gated propagation": it decides whether an incoming packet
// passes through to the view's own chainHandler unchanged, gets rewritten into a different set of
// packets, or is suppressed outright.
func (v *View) queryGatedTransform(io *chain.ReactorIO, p chain.Packet) bool {
	v.mu.Lock()
	dropped := v.state == stateDropped
	query := v.query
	options := v.options
	source := v.source
	v.mu.Unlock()

	if dropped {
		return false
	}
	if len(query) == 0 {
		return false
	}

	switch p.Type {
	case chain.Insert:
		docs, _ := p.Docs()
		survivors := make([]document.Document, 0, len(docs))
		for _, d := range docs {
			if collection.Match(d, query, options, collection.JoinLocal, nil) {
				survivors = append(survivors, d)
			}
		}
		if len(survivors) > 0 {
			io.ChainSend(chain.Insert, survivors)
		}
		return true

	case chain.Update:
		if source == nil {
			return false
		}
		diff := v.privateData.Diff(source.Subset(query, options))
		if diff.Empty() {
			return false
		}

		if len(diff.Insert) > 0 {
			io.ChainSend(chain.Insert, diff.Insert)
		}
		pk := v.privateData.PrimaryKey()
		for _, d := range diff.Update {
			key, _ := document.Get(d, pk)
			io.ChainSend(chain.Update, chain.UpdatePayload{
				Query:  document.Document{pk: key},
				Update: d,
			})
		}
		if len(diff.Remove) > 0 {
			or := make([]any, 0, len(diff.Remove))
			for _, d := range diff.Remove {
				key, _ := document.Get(d, pk)
				or = append(or, document.Document{pk: key})
			}
			io.ChainSend(chain.Remove, chain.RemovePayload{
				Query: document.Document{"$or": or},
			})
		}
		return true

	default:
		// remove packets (and anything else) fall through to default propagation: the diff
		// computed on the next update will catch their net effect on an ordered view anyway,
		// and an unordered view needs no special handling of its own.
		return false
	}
}

// chainHandler is the view's own interception handler, installed on its ReactorNode at
// construction time: it is what actually mutates privateData (and the ActiveBucket, if the view is
// ordered) in response to a packet that survived queryGatedTransform. It always returns false so
// the packet still reaches any further subscriber of the view itself (e.g. a View layered directly
// on top of this one without going through privateData, or a visualizer).
func (v *View) chainHandler(p chain.Packet) bool {
	v.mu.Lock()
	source := v.source
	query := v.query
	options := v.options
	v.mu.Unlock()

	switch p.Type {
	case chain.SetData:
		if source == nil {
			break
		}
		docs, cursor := source.FindCursor(query, options)
		v.privateData.SetData(docs, nil)
		v.mu.Lock()
		v.cursor = cursor
		v.rebuildBucketLocked()
		v.mu.Unlock()

	case chain.Insert:
		docs, _ := p.Docs()
		v.insertOrdered(docs)

	case chain.Update:
		u, _ := p.UpdateData()
		changed, _ := v.privateData.Update(u.Query, u.Update, u.Options)
		v.reorder(changed)

	case chain.Remove:
		r, _ := p.RemoveData()
		removed, _ := v.privateData.Remove(r.Query, nil)
		v.removeOrdered(removed)

	case chain.PrimaryKey:
		if pk, ok := p.Data.(string); ok {
			v.privateData.SetPrimaryKey(pk)
		}
	}

	return false
}

// insertOrdered inserts docs into privateData and, if the view is ordered, records their position
// in the ActiveBucket. privateData itself is unordered (it is a hash-keyed store), so the bucket is
// the only thing actually tracking position; View.Find consults it directly (see orderedSubset in
// view.go) so an ordered view's order is kept up to date on each mutation rather than re-sorted on
// every read.
func (v *View) insertOrdered(docs []document.Document) {
	if len(docs) == 0 {
		return
	}
	v.privateData.Insert(docs...)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.bkt == nil {
		return
	}
	for _, d := range docs {
		v.bkt.Insert(d)
	}
}

// reorder re-derives each changed document's bucket position: a field it is ordered on may have
// changed, so it is removed and reinserted rather than assumed to stay put.
func (v *View) reorder(changed []document.Document) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.bkt == nil {
		return
	}
	for _, d := range changed {
		v.bkt.Remove(d)
		v.bkt.Insert(d)
	}
}

func (v *View) removeOrdered(removed []document.Document) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.bkt == nil {
		return
	}
	for _, d := range removed {
		v.bkt.Remove(d)
	}
}
