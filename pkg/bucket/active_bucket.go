// Package bucket implements the order-maintenance structure behind a live, sorted view: given the
// current population and an IndexSpec, it reports where a new or updated document belongs so the
// maintained sequence stays sorted, in O(log n) comparisons.
//
// §4.B leaves the backing structure open ("atop MultiLevelTree or any order-statistic structure");
// here it is a sorted slice addressed with binary search, which finds a position in the same
// O(log n) comparisons as a balanced tree walk without the bookkeeping a deletable multi-level tree
// would need; each Insert or Remove still shifts the slice, which is O(n).
package bucket

import (
	"fmt"
	"sort"

	"github.com/vireodb/vireo/pkg/document"
)

// ActiveBucket tracks the sorted positions of a population of documents under a fixed IndexSpec.
type ActiveBucket struct {
	spec  document.IndexSpec
	pk    string
	items []document.Document
}

// New allocates an empty bucket ordered by spec. The default primary key is "_id"; call
// PrimaryKey to change it.
func New(spec document.IndexSpec) *ActiveBucket {
	return &ActiveBucket{spec: spec, pk: "_id"}
}

// PrimaryKey sets the identity field used to locate a document's prior placement on Remove.
func (b *ActiveBucket) PrimaryKey(pk string) {
	if pk != "" {
		b.pk = pk
	}
}

// IndexSpec returns the compound key the bucket is ordered on.
func (b *ActiveBucket) IndexSpec() document.IndexSpec { return b.spec }

// Insert records doc as placed in the bucket and returns the index at which it belongs so that the
// maintained sequence stays sorted under the bucket's IndexSpec. Ties break by insertion order: a
// document that compares equal to existing entries is placed after all of them.
func (b *ActiveBucket) Insert(doc document.Document) int {
	i := sort.Search(len(b.items), func(i int) bool {
		return document.CompareDocuments(b.items[i], doc, b.spec) > 0
	})

	b.items = append(b.items, nil)
	copy(b.items[i+1:], b.items[i:])
	b.items[i] = doc

	return i
}

// Remove deletes the document identified by its primary key from the bucket. It reports whether a
// matching document was found.
func (b *ActiveBucket) Remove(doc document.Document) bool {
	key, ok := document.Get(doc, b.pk)
	if !ok {
		return false
	}

	for i, d := range b.items {
		dk, ok := document.Get(d, b.pk)
		if ok && document.Equal(document.Document{b.pk: dk}, document.Document{b.pk: key}) {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return true
		}
	}
	return false
}

// Count returns the number of documents currently tracked.
func (b *ActiveBucket) Count() int { return len(b.items) }

// IndexOf returns the current position of the document identified by its primary key, or -1 if it
// is not tracked.
func (b *ActiveBucket) IndexOf(doc document.Document) int {
	key, ok := document.Get(doc, b.pk)
	if !ok {
		return -1
	}
	for i, d := range b.items {
		dk, ok := document.Get(d, b.pk)
		if ok && document.Equal(document.Document{b.pk: dk}, document.Document{b.pk: key}) {
			return i
		}
	}
	return -1
}

// Keys returns the primary-key values of the bucket's tracked population, in the bucket's current
// sorted order. Callers that need the actual documents look each one up by key rather than reading
// b.items directly, since a view's read surface may be a transformed projection of what the bucket
// tracks.
func (b *ActiveBucket) Keys() []any {
	keys := make([]any, 0, len(b.items))
	for _, d := range b.items {
		if k, ok := document.Get(d, b.pk); ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// String renders the bucket for debugging.
func (b *ActiveBucket) String() string {
	return fmt.Sprintf("ActiveBucket(spec=%s, n=%d)", b.spec, len(b.items))
}
