// Package document defines the document representation shared by every layer of the reactive
// engine: collections, views, the chain-reaction graph and the multi-level index.
//
// A Document is deliberately opaque: it carries no schema and no identity object of its own, only
// whatever attributes the caller puts into it. The only attribute the engine cares about by name
// is the primary key, and even that is configurable per collection.
package document

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ohler55/ojg/jp"
)

// Document is an unstructured record: a JSON-like tree of maps, slices and scalars. Collections,
// views and the index structures never assume anything about its shape beyond the fields named in
// an IndexSpec or a query.
type Document = map[string]any

// Direction is the sort direction of one field of a compound key.
type Direction int

const (
	Ascending  Direction = 1
	Descending Direction = -1
)

// FieldSpec names one level of a compound key: a field path and the direction in which it is
// compared.
type FieldSpec struct {
	Field     string
	Direction Direction
}

// IndexSpec is an ordered sequence of FieldSpecs. The order of the slice is the order of tree
// levels: the first field partitions the population into the coarsest groups, later fields only
// discriminate within a tie on every earlier field.
type IndexSpec []FieldSpec

// NewIndexSpec builds an IndexSpec from field/direction pairs, e.g.
// NewIndexSpec("age", Ascending, "name", Descending).
func NewIndexSpec(pairs ...any) (IndexSpec, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("document: NewIndexSpec requires field/direction pairs, got %d arguments", len(pairs))
	}

	spec := make(IndexSpec, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		field, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("document: field at position %d must be a string", i)
		}
		dir, ok := pairs[i+1].(Direction)
		if !ok {
			return nil, fmt.Errorf("document: direction at position %d must be a Direction", i+1)
		}
		spec = append(spec, FieldSpec{Field: field, Direction: dir})
	}
	return spec, nil
}

// String renders an IndexSpec for logging, e.g. "age:+1,name:-1".
func (s IndexSpec) String() string {
	parts := make([]string, len(s))
	for i, f := range s {
		sign := "+1"
		if f.Direction == Descending {
			sign = "-1"
		}
		parts[i] = fmt.Sprintf("%s:%s", f.Field, sign)
	}
	return strings.Join(parts, ",")
}

// Tail returns the IndexSpec with its first level stripped off, or nil if there is nothing left.
func (s IndexSpec) Tail() IndexSpec {
	if len(s) <= 1 {
		return nil
	}
	return s[1:]
}

// Get resolves path, a dotted field path ("a.b.c") or a full JSONPath expression, against a
// document using ojg's JSONPath evaluator. Path resolution beyond this - filters, wildcards,
// array slicing - is intentionally whatever ojg/jp supports; the index and match layers only ever
// feed it plain field paths. Returns (nil, false) if the path resolves to nothing.
func Get(doc Document, path string) (any, bool) {
	if doc == nil {
		return nil, false
	}

	expr, err := jp.ParseString(path)
	if err != nil {
		return nil, false
	}

	values := expr.Get(doc)
	if len(values) == 0 {
		return nil, false
	}
	return values[0], true
}

// deepCopyValue recursively clones a value out of a decoded JSON tree (maps, slices, scalars).
func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, sub := range t {
			out[k] = deepCopyValue(sub)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, sub := range t {
			out[i] = deepCopyValue(sub)
		}
		return out
	default:
		return t
	}
}

// Decouple produces a deep, non-aliased copy of a document. Every document that crosses a chain
// boundary into a collection's private store is decoupled first, so that mutating the caller's
// copy (or the collection's) never aliases the other.
func Decouple(doc Document) Document {
	if doc == nil {
		return nil
	}
	return deepCopyValue(doc).(Document)
}

// DecoupleAll decouples a slice of documents.
func DecoupleAll(docs []Document) []Document {
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = Decouple(d)
	}
	return out
}

// canonicalKey produces a deterministic JSON encoding of a document, used as an identity key for
// equality. Map keys are sorted by encoding/json already; we only
// need to guard against field order in nested maps via an explicit sort, which json.Marshal also
// handles for map[string]any, so a direct Marshal is sufficient and deterministic.
func canonicalKey(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("document: failed to canonicalize value: %w", err)
	}
	return string(b), nil
}

// Equal reports whether two documents are structurally identical.
func Equal(a, b Document) bool {
	ka, erra := canonicalKey(a)
	kb, errb := canonicalKey(b)
	if erra != nil || errb != nil {
		return false
	}
	return ka == kb
}

// sortedKeys is a small helper used by callers that want deterministic iteration over a document's
// top-level attributes (e.g. when dumping for logs).
func sortedKeys(doc Document) []string {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Dump renders a document as a compact, deterministic string for logging.
func Dump(doc Document) string {
	if doc == nil {
		return "<nil>"
	}
	keys := sortedKeys(doc)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, doc[k])
	}
	return "{" + strings.Join(parts, " ") + "}"
}
