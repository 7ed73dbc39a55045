// Package registry implements the Database described in §4.G: a process-wide name->View map that
// prevents duplicate view names, lazily constructs unbound views on first reference, and tracks
// the named Collections a view can bind to by name alone (the "from(sourceName)" path in
// pkg/view). It also tracks the View->Source dependency edges for visualization.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-logr/logr"

	"github.com/vireodb/vireo/internal/dag"
	"github.com/vireodb/vireo/pkg/collection"
	"github.com/vireodb/vireo/pkg/view"
	"github.com/vireodb/vireo/pkg/visualize"
)

// Summary is one entry of the snapshot Database.Views returns.
type Summary struct {
	Name   string
	Count  int
	Linked bool
}

// Database owns every named Collection and View in one process. It satisfies view.Registry so a
// View can resolve a string source name and deregister itself on drop.
type Database struct {
	mu sync.Mutex

	collections map[string]*collection.Collection
	views       map[string]*view.View

	deps *dag.Graph

	log logr.Logger
}

// New allocates an empty database.
func New(log logr.Logger) *Database {
	return &Database{
		collections: map[string]*collection.Collection{},
		views:       map[string]*view.View{},
		deps:        dag.New(),
		log:         log,
	}
}

// RegisterCollection makes name resolvable as a from() source for views and as a lookup target
// for NewCollectionView. It fails loudly on a name already taken by a collection or a view.
func (db *Database) RegisterCollection(name string, c *collection.Collection) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.checkNameFreeLocked(name); err != nil {
		return err
	}
	db.collections[name] = c
	db.addNodeLocked(name)
	return nil
}

// View returns the view registered under name, lazily constructing an unbound one if it does not
// exist yet, per §4.G's "view(name) returns an existing view or lazily constructs an unbound one".
func (db *Database) View(name string) *view.View {
	db.mu.Lock()
	defer db.mu.Unlock()

	if v, ok := db.views[name]; ok {
		return v
	}

	v := view.New(name, nil, nil, db.log)
	v.SetRegistry(db)
	db.views[name] = v
	db.addNodeLocked(name)
	return v
}

// ViewExists reports whether name is already registered, without constructing anything.
func (db *Database) ViewExists(name string) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, ok := db.views[name]
	return ok
}

// Views returns a snapshot listing every registered view: name, current materialized count, and
// whether it is currently bound to a source.
func (db *Database) Views() []Summary {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]Summary, 0, len(db.views))
	for name, v := range db.views {
		out = append(out, Summary{Name: name, Count: v.Count(), Linked: v.IsBound()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// NewCollectionView constructs a view bound to the named collection, registers it under viewName,
// and fails loudly if viewName is taken - the Go-idiomatic stand-in for §4.G's
// "collection.view(name, q, o)" factory method, kept on Database rather than Collection to avoid
// an import cycle (pkg/view already imports pkg/collection, so pkg/collection cannot import
// pkg/view back).
func (db *Database) NewCollectionView(collectionName, viewName string, q collection.Query, o collection.Options) (*view.View, error) {
	db.mu.Lock()
	src, ok := db.collections[collectionName]
	if !ok {
		db.mu.Unlock()
		return nil, fmt.Errorf("registry: no such collection %q", collectionName)
	}
	if err := db.checkNameFreeLocked(viewName); err != nil {
		db.mu.Unlock()
		return nil, err
	}

	v := view.New(viewName, q, o, db.log)
	v.SetRegistry(db)
	db.views[viewName] = v
	db.addNodeLocked(viewName)
	db.addEdgeLocked(collectionName, viewName)
	db.mu.Unlock()

	if err := v.From(src); err != nil {
		db.Unregister(viewName)
		return nil, err
	}
	return v, nil
}

// Collection implements view.Registry's source resolution: it looks for a plain collection first,
// falling back to another registered view's privateData so that from("otherView") works too.
func (db *Database) Collection(name string) (view.Source, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if c, ok := db.collections[name]; ok {
		return c, true
	}
	if v, ok := db.views[name]; ok {
		return v.PrivateData(), true
	}
	return nil, false
}

// Unregister removes name from the view registry. It is called by View.Drop, never directly by
// application code.
func (db *Database) Unregister(name string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.views, name)
}

func (db *Database) checkNameFreeLocked(name string) error {
	if _, ok := db.collections[name]; ok {
		return fmt.Errorf("registry: name %q already used by a collection", name)
	}
	if _, ok := db.views[name]; ok {
		return fmt.Errorf("registry: name %q already used by a view", name)
	}
	return nil
}

func (db *Database) addNodeLocked(name string) {
	if !db.deps.HasNode(name) {
		db.deps.AddNode(name)
	}
}

func (db *Database) addEdgeLocked(from, to string) {
	db.addNodeLocked(from)
	db.addNodeLocked(to)
	db.deps.AddEdge(from, to)
}

// DependencyEdges returns every source->dependent edge currently tracked, for visualization.
func (db *Database) DependencyEdges() map[string][]string {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := map[string][]string{}
	for _, n := range db.deps.Nodes {
		out[n] = db.deps.Edges(n)
	}
	return out
}

// Graph renders the database's current Collections and Views, and the edges between them, as a
// visualize.Graph ready for DOT or Mermaid rendering.
func (db *Database) Graph() *visualize.Graph {
	db.mu.Lock()
	nodes := make(map[string]visualize.Node, len(db.collections)+len(db.views))
	for name := range db.collections {
		nodes[name] = visualize.Node{Name: name, Kind: visualize.CollectionNode}
	}
	for name, v := range db.views {
		nodes[name] = visualize.Node{Name: name, Kind: visualize.ViewNode, Bound: v.IsBound()}
	}
	db.mu.Unlock()

	return visualize.NewGraph(nodes, db.DependencyEdges())
}
