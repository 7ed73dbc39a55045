// Package view implements the materialized, query-filtered, optionally transformed, optionally
// ordered projection of a source collection described in §4.F - the heart of the reactive engine.
// A View binds to a source via a chain.ReactorIO whose transform function gates propagation by the
// View's query, keeps an internal privateData collection live, and optionally mirrors that into a
// publicData collection through a second, narrower transform.
package view

import (
	"fmt"
	"sync"

	"github.com/go-logr/logr"

	"github.com/vireodb/vireo/pkg/bucket"
	"github.com/vireodb/vireo/pkg/chain"
	"github.com/vireodb/vireo/pkg/collection"
	"github.com/vireodb/vireo/pkg/document"
	"github.com/vireodb/vireo/pkg/event"
)

// Source is what a View can bind to: a collection.Collection directly, or (by way of its private
// data) another View. Both types satisfy this interface.
type Source interface {
	Find(query collection.Query, options collection.Options) []document.Document
	FindCursor(query collection.Query, options collection.Options) ([]document.Document, collection.Cursor)
	Subset(query collection.Query, options collection.Options) []document.Document
	Diff(target []document.Document) collection.Delta
	PrimaryKey() string
	On(name string, fn event.Listener) int64
	Off(name string, handle int64)
	Node() *chain.ReactorNode
}

// state is the lifecycle field described in §4.F.
type state int

const (
	stateInitialised state = iota
	stateBound
	stateDropped
)

func (s state) String() string {
	switch s {
	case stateInitialised:
		return "initialised"
	case stateBound:
		return "bound"
	case stateDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// TransformConfig controls the optional privateData -> publicData projection (§4.H).
type TransformConfig struct {
	Enabled bool
	DataIn  func(document.Document) document.Document
	DataOut func(document.Document) document.Document
}

// Registry is the subset of pkg/registry's Database that View needs to deregister itself on drop
// and to resolve a named source. Declared here, rather than importing pkg/registry, to avoid a
// cycle: the registry imports View, not the other way around.
type Registry interface {
	Unregister(name string)
	Collection(name string) (Source, bool)
}

// View is a live, query-filtered projection of a Source.
type View struct {
	*chain.ReactorNode
	event.Emitter

	mu    sync.Mutex
	name  string
	state state

	query   collection.Query
	options collection.Options

	privateData *collection.Collection
	publicData  *collection.Collection

	source           Source
	sourceDropHandle int64

	io       *chain.ReactorIO
	publicIO *chain.ReactorIO

	bkt    *bucket.ActiveBucket
	cursor collection.Cursor

	transformCfg TransformConfig

	registry Registry

	log logr.Logger
}

// New allocates a View named name with an optional initial query/options. It is not bound to any
// source until From is called.
func New(name string, query collection.Query, options collection.Options, log logr.Logger) *View {
	l := log.WithValues("view", name)
	v := &View{
		name:        name,
		query:       query,
		options:     options,
		privateData: collection.New(name+"_internalPrivate", l),
		log:         l,
	}
	v.ReactorNode = chain.NewReactorNode(name, l)
	v.ReactorNode.SetHandler(v.chainHandler)
	return v
}

// Name returns the view's name.
func (v *View) Name() string { return v.name }

// SetRegistry attaches the database this view is registered under, used to deregister on drop and
// to resolve string source names passed to From.
func (v *View) SetRegistry(r Registry) { v.registry = r }

// IsDropped reports whether Drop has already run.
func (v *View) IsDropped() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state == stateDropped
}

// IsBound reports whether the view currently has a live source.
func (v *View) IsBound() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state == stateBound
}

// PrivateData returns the view's internal collection - what a downstream View binds to when this
// View is used as its source, bypassing any transform.
func (v *View) PrivateData() *collection.Collection { return v.privateData }

// PublicData returns publicData when a transform is enabled, else privateData - the read surface
// described by §4.F.
func (v *View) PublicData() *collection.Collection {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.transformCfg.Enabled && v.publicData != nil {
		return v.publicData
	}
	return v.privateData
}

// resolveSource normalizes whatever From was given into the concrete Source the view should bind
// to: a Collection as-is, or a View's privateData (substituting it so the binding attaches upstream
// of any transform, per §4.F step 3).
func (v *View) resolveSource(src any) (Source, error) {
	switch s := src.(type) {
	case *collection.Collection:
		return s, nil
	case *View:
		return s.privateData, nil
	case string:
		if v.registry == nil {
			return nil, fmt.Errorf("view %s: cannot resolve source %q without a registry", v.name, s)
		}
		resolved, ok := v.registry.Collection(s)
		if !ok {
			return nil, fmt.Errorf("view %s: unknown source %q", v.name, s)
		}
		return resolved, nil
	default:
		return nil, fmt.Errorf("view %s: unsupported source type %T", v.name, src)
	}
}

// From binds the view to source, per the six steps of §4.F: tear down any previous binding,
// resolve source, subscribe to its drop event, allocate a query-gated ReactorIO, and seed
// privateData.
func (v *View) From(src any) error {
	v.mu.Lock()

	if v.state == stateDropped {
		v.mu.Unlock()
		return fmt.Errorf("view %s: cannot bind a dropped view", v.name)
	}

	resolved, err := v.resolveSource(src)
	if err != nil {
		v.mu.Unlock()
		return err
	}

	if v.state == stateBound {
		if v.source != nil && v.sourceDropHandle != 0 {
			v.source.Off("drop", v.sourceDropHandle)
		}
		if v.io != nil {
			v.io.Drop()
			v.io = nil
		}
	}

	v.source = resolved
	v.sourceDropHandle = resolved.On("drop", func(args ...any) { v.onSourceDropped() })
	v.io = chain.NewReactorIO(v.name+"_io", resolved.Node(), v.ReactorNode, v.queryGatedTransform, v.log)
	query, options := v.query, v.options
	v.mu.Unlock()

	// privateData.SetData below chain-sends into the mirror ReactorIO when a
	// transform is already wired (a re-From on a transformed view), which re-enters v.mu via
	// mirrorTransform - so the lock must not be held across these calls.
	docs, cursor := resolved.FindCursor(query, options)
	if err := v.privateData.SetPrimaryKey(resolved.PrimaryKey()); err != nil {
		return err
	}
	if err := v.privateData.SetData(docs, nil); err != nil {
		return err
	}

	v.mu.Lock()
	v.cursor = cursor
	v.rebuildBucketLocked()
	v.state = stateBound
	v.mu.Unlock()
	return nil
}

// onSourceDropped is called (via the source's "drop" event) when the upstream collection or view
// goes away. The view detaches but is not itself dropped, per §4.F's Source-dropped edge case.
func (v *View) onSourceDropped() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.io != nil {
		v.io.Drop()
		v.io = nil
	}
	v.source = nil
	v.sourceDropHandle = 0
}

// rebuildBucketLocked rebuilds the ActiveBucket from privateData's current contents if $orderBy is
// set, or clears it otherwise. Callers must hold v.mu.
func (v *View) rebuildBucketLocked() {
	spec, ok := orderBySpec(v.options)
	if !ok {
		v.bkt = nil
		return
	}

	b := bucket.New(spec)
	b.PrimaryKey(v.privateData.PrimaryKey())
	for _, d := range v.privateData.All() {
		b.Insert(d)
	}
	v.bkt = b
}

func orderBySpec(options collection.Options) (document.IndexSpec, bool) {
	if options == nil {
		return nil, false
	}
	raw, ok := options["$orderBy"]
	if !ok {
		return nil, false
	}
	spec, ok := raw.(document.IndexSpec)
	return spec, ok && len(spec) > 0
}

// Node exposes the view's ReactorNode so it, too, can be used as a Source by another View.
func (v *View) Node() *chain.ReactorNode { return v.ReactorNode }

// Find proxies to publicData() - the view's read surface, never the upstream source directly, and
// never privateData when a transform is enabled (see PublicData).
func (v *View) Find(query collection.Query, options collection.Options) []document.Document {
	docs, _ := v.FindCursor(query, options)
	return docs
}

// FindCursor proxies to publicData(), unless the view is ordered and the caller isn't asking for a
// query or order of its own, in which case it reads the ActiveBucket's already order-maintained
// population instead of asking publicData to re-sort from scratch on every call (§4.B: the bucket
// exists to make ordering an O(log n)-per-mutation affair, not something paid for again at read
// time).
func (v *View) FindCursor(query collection.Query, options collection.Options) ([]document.Document, collection.Cursor) {
	if ordered, ok := v.orderedSubset(query, options); ok {
		return collection.Paginate(ordered, options)
	}
	return v.PublicData().FindCursor(query, options)
}

// orderedSubset returns the view's population in ActiveBucket order, looked up by primary key
// through the read surface (so a transformed view returns projected documents, not the bucket's
// own private-data copies). It reports ok=false when there is no bucket to consult, when query is
// non-empty, or when options carries a $orderBy of its own that the bucket's fixed order can't be
// assumed to satisfy.
func (v *View) orderedSubset(query collection.Query, options collection.Options) ([]document.Document, bool) {
	v.mu.Lock()
	bkt := v.bkt
	v.mu.Unlock()

	if bkt == nil || len(query) > 0 {
		return nil, false
	}
	if _, overridden := options["$orderBy"]; overridden {
		return nil, false
	}

	public := v.PublicData()
	keys := bkt.Keys()
	out := make([]document.Document, 0, len(keys))
	for _, k := range keys {
		if d := public.FindByID(k); d != nil {
			out = append(out, d)
		}
	}
	return out, true
}

// FindOne proxies to publicData().
func (v *View) FindOne(query collection.Query, options collection.Options) document.Document {
	return v.PublicData().FindOne(query, options)
}

// FindByID proxies to publicData().
func (v *View) FindByID(id any) document.Document {
	return v.PublicData().FindByID(id)
}

// FindSub proxies to publicData().
func (v *View) FindSub(path string, query collection.Query, options collection.Options) []any {
	return v.PublicData().FindSub(path, query, options)
}

// FindSubOne proxies to publicData().
func (v *View) FindSubOne(path string, query collection.Query, options collection.Options) (any, bool) {
	return v.PublicData().FindSubOne(path, query, options)
}

// Distinct proxies to publicData().
func (v *View) Distinct(path string, query collection.Query) []any {
	return v.PublicData().Distinct(path, query)
}

// Filter proxies to publicData().
func (v *View) Filter(pred func(document.Document) bool) []document.Document {
	return v.PublicData().Filter(pred)
}

// Subset proxies to publicData().
func (v *View) Subset(query collection.Query, options collection.Options) []document.Document {
	return v.PublicData().Subset(query, options)
}

// Diff proxies to privateData - this is the internal plumbing queryGatedTransform uses to compare
// against a source's subset, not a public read, so it deliberately bypasses any transform.
func (v *View) Diff(target []document.Document) collection.Delta {
	return v.privateData.Diff(target)
}

// PrimaryKey proxies to privateData, since it is what queryGatedTransform and chainHandler key
// diffs and bucket lookups on regardless of whether a transform is enabled.
func (v *View) PrimaryKey() string { return v.privateData.PrimaryKey() }

// Count returns the number of documents currently materialized in the view's read surface.
func (v *View) Count() int { return v.PublicData().Count(nil) }
