package collection

import (
	"fmt"
	"sync"

	"github.com/vireodb/vireo/pkg/document"
	"github.com/vireodb/vireo/pkg/tree"
)

// indexes is kept in a separate file and its own lock, rather than folded into Collection's main
// struct and mu, because a MultiLevelTree has no delete operation (§4.A): an index is rebuilt
// wholesale from the live document set every time it is consulted, rather than
// incrementally maintained the way the ActiveBucket a View keeps is. That rebuild reads
// Collection's own data through its public, already-locking methods, so sharing c.mu would
// self-deadlock.
type indexSet struct {
	mu  sync.Mutex
	idx map[string]document.IndexSpec
}

// EnsureIndex declares a named compound-key index over spec. It is idempotent: calling it again
// with the same name replaces the spec used the next time the index is built.
func (c *Collection) EnsureIndex(name string, spec document.IndexSpec) error {
	if name == "" {
		return fmt.Errorf("collection %s: index name must not be empty", c.name)
	}
	if len(spec) == 0 {
		return fmt.Errorf("collection %s: index %q needs at least one field", c.name, name)
	}

	c.indexes.mu.Lock()
	defer c.indexes.mu.Unlock()
	if c.indexes.idx == nil {
		c.indexes.idx = map[string]document.IndexSpec{}
	}
	c.indexes.idx[name] = spec
	return nil
}

// DropIndex removes a previously declared index.
func (c *Collection) DropIndex(name string) {
	c.indexes.mu.Lock()
	defer c.indexes.mu.Unlock()
	delete(c.indexes.idx, name)
}

// Index builds (from scratch, against the collection's current contents) and returns the named
// compound-key index, for callers that want ordered or exact-match compound lookups faster than a
// full Match scan.
func (c *Collection) Index(name string) (*tree.MultiLevelTree, error) {
	c.indexes.mu.Lock()
	spec, ok := c.indexes.idx[name]
	c.indexes.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("collection %s: no such index %q", c.name, name)
	}

	t, err := tree.New(spec)
	if err != nil {
		return nil, err
	}
	t.InsertBatch(c.All())
	return t, nil
}
