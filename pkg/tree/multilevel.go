// Package tree implements the multi-level compound-key index described in §4.A: a ternary tree,
// one instance of which indexes one field of a compound key, where documents that tie on a field
// share a middle subtree that resolves the remaining fields.
package tree

import (
	"fmt"

	"github.com/vireodb/vireo/pkg/document"
)

// node is one vertex of the ternary tree. data establishes the node's key; store holds every
// document that has tied with data on this field so far, pending deeper indexing; spec is the
// (non-empty) tail of the IndexSpec still to be resolved starting at this level.
type node struct {
	data  document.Document
	store []document.Document
	spec  document.IndexSpec

	left, middle, right *node
}

func newNode(spec document.IndexSpec) *node {
	return &node{spec: spec}
}

// insert places d in the subtree rooted at n, creating child nodes as needed.
func (n *node) insert(d document.Document) {
	if n.data == nil {
		n.data = d
		n.insertMiddle(d)
		return
	}

	field := n.spec[0]
	dv, _ := document.Get(d, field.Field)
	nv, _ := document.Get(n.data, field.Field)
	c := document.Compare(dv, nv, field.Direction)

	switch {
	case c < 0:
		if n.left == nil {
			n.left = newNode(n.spec)
		}
		n.left.insert(d)
	case c > 0:
		if n.right == nil {
			n.right = newNode(n.spec)
		}
		n.right.insert(d)
	default:
		n.insertMiddle(d)
	}
}

// insertMiddle records d as tied with n.data on the current field: it joins the leaf bag, and if
// there are further fields to resolve, it is also pushed into the middle subtree.
func (n *node) insertMiddle(d document.Document) {
	n.store = append(n.store, d)

	tail := n.spec.Tail()
	if tail == nil {
		return
	}
	if n.middle == nil {
		n.middle = newNode(tail)
	}
	n.middle.insert(d)
}

// inOrder appends the subtree's documents, sorted under the full compound key, to out.
func (n *node) inOrder(out []document.Document) []document.Document {
	if n == nil {
		return out
	}
	out = n.left.inOrder(out)
	if n.middle != nil {
		out = n.middle.inOrder(out)
	} else {
		out = append(out, n.store...)
	}
	out = n.right.inOrder(out)
	return out
}

// lookup gathers every document in the subtree consistent with query, a map of field path to an
// exact value the tree should match at that level. Fields the query does not mention are treated
// as unconstrained at that level.
func (n *node) lookup(query map[string]any) []document.Document {
	if n == nil {
		return nil
	}

	field := n.spec[0].Field
	qv, constrained := query[field]
	if !constrained {
		out := n.left.lookup(query)
		if n.middle != nil {
			out = append(out, n.middle.lookup(query)...)
		} else {
			out = append(out, n.store...)
		}
		out = append(out, n.right.lookup(query)...)
		return out
	}

	nv, _ := document.Get(n.data, field)
	c := document.Compare(qv, nv, n.spec[0].Direction)

	switch {
	case c < 0:
		return n.left.lookup(query)
	case c > 0:
		return n.right.lookup(query)
	default:
		if n.middle != nil {
			return n.middle.lookup(stripField(query, field))
		}
		out := make([]document.Document, len(n.store))
		copy(out, n.store)
		return out
	}
}

// stripField returns a decoupled copy of query with field removed, so that a constraint already
// resolved by a level above is not re-examined by the middle subtree.
func stripField(query map[string]any, field string) map[string]any {
	out := make(map[string]any, len(query))
	for k, v := range query {
		if k == field {
			continue
		}
		out[k] = v
	}
	return out
}

// InsertResult reports the outcome of a batch insertion: §4.A specifies that insertion of a batch
// never aborts early, it simply sorts the well-formed documents into inserted and the malformed
// ones into failed.
type InsertResult struct {
	Inserted []document.Document
	Failed   []document.Document
}

// MultiLevelTree is an n-field ordered compound-key index over a set of documents.
type MultiLevelTree struct {
	spec document.IndexSpec
	root *node
	size int
}

// New allocates an empty tree indexing documents under spec. spec must have at least one field.
func New(spec document.IndexSpec) (*MultiLevelTree, error) {
	if len(spec) == 0 {
		return nil, fmt.Errorf("tree: index spec must have at least one field")
	}
	return &MultiLevelTree{spec: spec}, nil
}

// IndexSpec returns the compound key this tree is built on.
func (t *MultiLevelTree) IndexSpec() document.IndexSpec { return t.spec }

// Len reports the number of documents inserted so far.
func (t *MultiLevelTree) Len() int { return t.size }

// Insert places a single document into the tree. A malformed document (anything that is not a
// usable document.Document) is rejected rather than causing the tree to panic.
func (t *MultiLevelTree) Insert(d document.Document) error {
	if d == nil {
		return fmt.Errorf("tree: cannot insert a nil document")
	}
	if t.root == nil {
		t.root = newNode(t.spec)
	}
	t.root.insert(d)
	t.size++
	return nil
}

// InsertBatch inserts every document in docs independently and sequentially; a malformed entry is
// recorded in Failed rather than aborting the rest of the batch.
func (t *MultiLevelTree) InsertBatch(docs []document.Document) InsertResult {
	res := InsertResult{}
	for _, d := range docs {
		if err := t.Insert(d); err != nil {
			res.Failed = append(res.Failed, d)
			continue
		}
		res.Inserted = append(res.Inserted, d)
	}
	return res
}

// InOrder returns every document in the tree, sorted under the full compound key.
func (t *MultiLevelTree) InOrder() []document.Document {
	return t.root.inOrder(nil)
}

// Lookup returns every document consistent with query, an exact-match constraint per field. A
// field absent from query is treated as unconstrained; its presence narrows the search to a single
// subtree per constrained level.
func (t *MultiLevelTree) Lookup(query map[string]any) []document.Document {
	return t.root.lookup(query)
}
