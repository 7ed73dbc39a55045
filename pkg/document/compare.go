package document

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// defaultCollator drives locale-sensitive string ordering for $orderBy on string fields. The spec
// is explicit that a byte compare must not be silently substituted; we expose the collator as a
// package variable so a caller that needs a different locale can replace it before building any
// index.
var defaultCollator = collate.New(language.Und)

// SetCollator overrides the collator used for string comparisons across the package. Intended to
// be called once at startup if the deployment needs a specific locale.
func SetCollator(c *collate.Collator) {
	if c != nil {
		defaultCollator = c
	}
}

// Compare orders two field values under the rules of §4.A: strings compare under the active
// locale collator, other totally-ordered scalars compare by natural order, undefined is less than
// any defined value, and values of incomparable type compare equal (type coercion is the query
// layer's job, not the tree's). direction flips the sign for descending fields.
func Compare(a, b any, direction Direction) int {
	c := compareValues(a, b)
	if direction == Descending {
		return -c
	}
	return c
}

func compareValues(a, b any) int {
	aUndef := a == nil
	bUndef := b == nil
	switch {
	case aUndef && bUndef:
		return 0
	case aUndef:
		return -1
	case bUndef:
		return 1
	}

	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return defaultCollator.CompareString(as, bs)
		}
		return 0 // mixed types: the query layer is responsible for coercion, tree treats them equal
	}

	an, aok := asFloat(a)
	bn, bok := asFloat(b)
	if aok && bok {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}

	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ab == bb:
				return 0
			case !ab:
				return -1
			default:
				return 1
			}
		}
	}

	return 0
}

// asFloat normalizes the numeric types produced by typical decoders (encoding/json included) to a
// single comparable representation.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// CompareDocuments compares two documents field by field under an IndexSpec, short-circuiting at
// the first field where they differ. Two documents that agree on every field in spec compare
// equal, even if they differ elsewhere - ties on the full compound key are what places documents
// in the same middle chain.
func CompareDocuments(a, b Document, spec IndexSpec) int {
	for _, f := range spec {
		av, _ := Get(a, f.Field)
		bv, _ := Get(b, f.Field)
		if c := Compare(av, bv, f.Direction); c != 0 {
			return c
		}
	}
	return 0
}
