// Package collection implements the external contract §4.E describes: a document container with
// CRUD, querying, diffing, and an event emitter, which also behaves as a chain.ReactorNode so that
// every mutation propagates downstream to whatever Views are watching it.
//
// The backing store is a k8s.io/client-go/tools/cache.Store keyed by the collection's primary key
// field, the same pattern the teacher's pkg/cache.Store wraps around toolscache.Store - generic
// enough here to hold document.Document directly since the library's KeyFunc only needs
// func(interface{}) (string, error).
package collection

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"
	"github.com/grokify/mogo/encoding/base36"
	toolscache "k8s.io/client-go/tools/cache"

	"github.com/vireodb/vireo/pkg/chain"
	"github.com/vireodb/vireo/pkg/document"
	"github.com/vireodb/vireo/pkg/event"
)

// Collection is a mutable, queryable set of documents that emits a chain packet on every mutation.
type Collection struct {
	*chain.ReactorNode
	event.Emitter

	mu    sync.RWMutex
	name  string
	pk    string
	store toolscache.Store

	idSeq atomic.Uint64

	indexes indexSet

	log logr.Logger
}

// New allocates an empty collection named name, with "_id" as the default primary key.
func New(name string, log logr.Logger) *Collection {
	c := &Collection{
		name: name,
		pk:   "_id",
		log:  log.WithValues("collection", name),
	}
	c.store = toolscache.NewStore(c.keyFunc)
	c.ReactorNode = chain.NewReactorNode(name, c.log)
	return c
}

// Name returns the collection's name.
func (c *Collection) Name() string { return c.name }

// Node exposes the collection's ReactorNode, the attachment point a View's ReactorIO subscribes to.
func (c *Collection) Node() *chain.ReactorNode { return c.ReactorNode }

// keyFunc is only ever invoked from inside a Collection method that already holds c.mu, directly
// or via the store it is bound to, so it reads c.pk without taking the lock itself - taking it
// here would deadlock against sync.RWMutex's non-reentrant Lock.
func (c *Collection) keyFunc(obj any) (string, error) {
	doc, ok := obj.(document.Document)
	if !ok {
		return "", fmt.Errorf("collection: store can only hold document.Document, got %T", obj)
	}

	v, ok := document.Get(doc, c.pk)
	if !ok {
		return "", fmt.Errorf("collection: document has no value at primary key %q", c.pk)
	}
	return fmt.Sprintf("%v", v), nil
}

// PrimaryKey returns the collection's current primary-key field.
func (c *Collection) PrimaryKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pk
}

// SetPrimaryKey changes the primary-key field and re-keys every document already stored under the
// old one.
func (c *Collection) SetPrimaryKey(field string) error {
	if field == "" {
		return fmt.Errorf("collection: primary key must not be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	existing := c.store.List()
	c.pk = field
	store := toolscache.NewStore(c.keyFunc)
	for _, item := range existing {
		if err := store.Add(item); err != nil {
			return fmt.Errorf("collection: failed to re-key store: %w", err)
		}
	}
	c.store = store
	return nil
}

func (c *Collection) generateID() string {
	n := c.idSeq.Add(1)
	return base36.Md5Base36(fmt.Sprintf("%s-%d", c.name, n))
}

// Insert adds one or more documents, assigning a primary key to any that lack one, and emits a
// single chain.Insert packet carrying every document that was actually added.
func (c *Collection) Insert(docs ...document.Document) ([]document.Document, error) {
	inserted := make([]document.Document, 0, len(docs))

	c.mu.Lock()
	for _, d := range docs {
		if d == nil {
			continue
		}
		cp := document.Decouple(d)
		if v, ok := document.Get(cp, c.pk); !ok || v == nil {
			cp[c.pk] = c.generateID()
		}
		if err := c.store.Add(cp); err != nil {
			c.mu.Unlock()
			return inserted, fmt.Errorf("collection %s: insert failed: %w", c.name, err)
		}
		inserted = append(inserted, cp)
	}
	c.mu.Unlock()

	if len(inserted) > 0 {
		c.ChainSend(chain.Insert, document.DecoupleAll(inserted))
	}
	return inserted, nil
}

// Update applies update (a document of fields to merge) to every document matching query, and
// returns the documents as they now stand. It emits a chain.Update packet describing query/update
// regardless of whether anything matched, so that downstream diff-based views can recompute.
func (c *Collection) Update(query Query, update document.Document, options Options) ([]document.Document, error) {
	changed := c.updateLocked(query, update)

	c.ChainSend(chain.Update, chain.UpdatePayload{Query: query, Update: update, Options: options})
	return changed, nil
}

// UpdateByID applies update to the single document identified by id under the primary key.
func (c *Collection) UpdateByID(id any, update document.Document) ([]document.Document, error) {
	return c.Update(Query{c.PrimaryKey(): id}, update, nil)
}

func (c *Collection) updateLocked(query Query, patch document.Document) []document.Document {
	c.mu.Lock()
	defer c.mu.Unlock()

	var changed []document.Document
	for _, item := range c.store.List() {
		doc := item.(document.Document)
		if !Match(doc, query, nil, JoinLocal, nil) {
			continue
		}
		merged := document.Decouple(doc)
		for k, v := range patch {
			merged[k] = v
		}
		if err := c.store.Update(merged); err != nil {
			continue
		}
		changed = append(changed, merged)
	}
	return document.DecoupleAll(changed)
}

// Remove deletes every document matching query and emits a chain.Remove packet describing query.
func (c *Collection) Remove(query Query, options Options) ([]document.Document, error) {
	c.mu.Lock()
	var removed []document.Document
	for _, item := range c.store.List() {
		doc := item.(document.Document)
		if !Match(doc, query, options, JoinLocal, nil) {
			continue
		}
		if err := c.store.Delete(doc); err != nil {
			continue
		}
		removed = append(removed, doc)
	}
	c.mu.Unlock()

	c.ChainSend(chain.Remove, chain.RemovePayload{Query: query})
	return document.DecoupleAll(removed), nil
}

// SetData replaces the entire contents of the collection with docs and emits a chain.SetData
// packet carrying the stored documents.
func (c *Collection) SetData(docs []document.Document, options Options) error {
	c.mu.Lock()
	replacement := make([]any, 0, len(docs))
	stored := make([]document.Document, 0, len(docs))
	for _, d := range docs {
		if d == nil {
			continue
		}
		cp := document.Decouple(d)
		if v, ok := document.Get(cp, c.pk); !ok || v == nil {
			cp[c.pk] = c.generateID()
		}
		replacement = append(replacement, cp)
		stored = append(stored, cp)
	}
	err := c.store.Replace(replacement, "")
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("collection %s: setData failed: %w", c.name, err)
	}

	c.ChainSend(chain.SetData, document.DecoupleAll(stored))
	return nil
}

// Find returns every document matching query, ordered and paginated per options. Use FindCursor to
// also learn the pagination cursor (§4.E's "$cursor" attribute) the query settled on.
func (c *Collection) Find(query Query, options Options) []document.Document {
	docs, _ := c.FindCursor(query, options)
	return docs
}

// FindOne returns the first document matching query, or nil if none matches.
func (c *Collection) FindOne(query Query, options Options) document.Document {
	res := c.Find(query, options)
	if len(res) == 0 {
		return nil
	}
	return res[0]
}

// FindByID returns the document identified by id under the primary key, or nil.
func (c *Collection) FindByID(id any) document.Document {
	return c.FindOne(Query{c.PrimaryKey(): id}, nil)
}

// FindSub evaluates a query over documents and returns the value of path projected out of each
// match.
func (c *Collection) FindSub(path string, query Query, options Options) []any {
	docs := c.Find(query, options)
	out := make([]any, 0, len(docs))
	for _, d := range docs {
		if v, ok := document.Get(d, path); ok {
			out = append(out, v)
		}
	}
	return out
}

// FindSubOne returns path projected from the first document matching query.
func (c *Collection) FindSubOne(path string, query Query, options Options) (any, bool) {
	doc := c.FindOne(query, options)
	if doc == nil {
		return nil, false
	}
	return document.Get(doc, path)
}

// Distinct returns the distinct values observed at path among documents matching query.
func (c *Collection) Distinct(path string, query Query) []any {
	docs := c.Find(query, nil)
	seen := map[string]bool{}
	var out []any
	for _, d := range docs {
		v, ok := document.Get(d, path)
		if !ok {
			continue
		}
		key := document.Dump(document.Document{path: v})
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

// Filter returns the documents for which pred returns true, decoupled.
func (c *Collection) Filter(pred func(document.Document) bool) []document.Document {
	c.mu.RLock()
	all := c.store.List()
	c.mu.RUnlock()

	var out []document.Document
	for _, item := range all {
		doc := item.(document.Document)
		if pred(doc) {
			out = append(out, document.Decouple(doc))
		}
	}
	return out
}

// Count returns the number of documents matching query.
func (c *Collection) Count(query Query) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, item := range c.store.List() {
		if Match(item.(document.Document), query, nil, JoinLocal, nil) {
			n++
		}
	}
	return n
}

// Subset is Find without pagination bookkeeping: the raw matching set under query/options, used
// internally by View's diff-based update propagation.
func (c *Collection) Subset(query Query, options Options) []document.Document {
	return c.Find(query, options)
}

// All returns every document currently stored, decoupled.
func (c *Collection) All() []document.Document {
	return c.Find(nil, nil)
}

// Diff computes what must be done to this collection to make it match target, under the shared
// primary key.
func (c *Collection) Diff(target []document.Document) Delta {
	return diffDocuments(c.All(), target, c.PrimaryKey())
}

// Drop empties the collection and emits a "drop" event to every registered listener, notifying any
// View bound to it that the source is going away. The collection itself remains usable afterward;
// dropping is a lifecycle signal, not destruction.
func (c *Collection) Drop() {
	c.Emit("drop")
}
