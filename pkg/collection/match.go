package collection

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vireodb/vireo/pkg/document"
)

// Query is a Mongo-style predicate: either an implicit top-level $and of field constraints, or an
// explicit $and/$or/$not combinator. §4.E calls this the query predicate match evaluates.
type Query = map[string]any

// Options carries the query modifiers a find/subset/diff call is evaluated under: $orderBy for a
// sort spec and $page for pagination. Those two are the only keys Find acts on; any other key
// (e.g. $skip/$limit) is threaded through to Match untouched, and Match ignores it.
type Options = map[string]any

// JoinMode selects how Match treats a query that spans more than one collection's namespace. The
// engine described here never actually joins, so the only mode it defines is Local; the parameter
// exists so the external contract in §4.E matches the shape callers expect from this family of
// matchers.
type JoinMode int

const (
	// JoinLocal evaluates the query against doc alone.
	JoinLocal JoinMode = iota
)

// Match reports whether doc satisfies query. ctx is an arbitrary value threaded through to
// sub-matchers; the core engine does not interpret it itself but passes it down so a caller with a
// richer matcher (e.g. one resolving $ref across collections) can use it.
func Match(doc document.Document, query Query, _ Options, _ JoinMode, ctx any) bool {
	if len(query) == 0 {
		return true
	}
	return matchObject(doc, query, ctx)
}

func matchObject(doc document.Document, query Query, ctx any) bool {
	for key, expected := range query {
		switch key {
		case "$and":
			clauses, ok := expected.([]Query)
			if !ok {
				clauses = toQueryList(expected)
			}
			for _, clause := range clauses {
				if !matchObject(doc, clause, ctx) {
					return false
				}
			}
		case "$or":
			clauses, ok := expected.([]Query)
			if !ok {
				clauses = toQueryList(expected)
			}
			if len(clauses) == 0 {
				continue
			}
			matched := false
			for _, clause := range clauses {
				if matchObject(doc, clause, ctx) {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		case "$not":
			clause, ok := expected.(Query)
			if ok && matchObject(doc, clause, ctx) {
				return false
			}
		default:
			if !matchField(doc, key, expected) {
				return false
			}
		}
	}
	return true
}

func toQueryList(v any) []Query {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Query, 0, len(raw))
	for _, r := range raw {
		if q, ok := r.(Query); ok {
			out = append(out, q)
		}
	}
	return out
}

func matchField(doc document.Document, field string, expected any) bool {
	actual, present := document.Get(doc, field)

	ops, ok := expected.(Query)
	if !ok {
		if !present {
			return false
		}
		return document.Compare(actual, expected, document.Ascending) == 0
	}

	for op, arg := range ops {
		if !matchOperator(actual, present, op, arg) {
			return false
		}
	}
	return true
}

func matchOperator(actual any, present bool, op string, arg any) bool {
	switch op {
	case "$eq":
		return present && document.Compare(actual, arg, document.Ascending) == 0
	case "$ne":
		return !present || document.Compare(actual, arg, document.Ascending) != 0
	case "$gt":
		return present && document.Compare(actual, arg, document.Ascending) > 0
	case "$gte":
		return present && document.Compare(actual, arg, document.Ascending) >= 0
	case "$lt":
		return present && document.Compare(actual, arg, document.Ascending) < 0
	case "$lte":
		return present && document.Compare(actual, arg, document.Ascending) <= 0
	case "$exists":
		want, _ := arg.(bool)
		return present == want
	case "$in":
		if !present {
			return false
		}
		for _, v := range toValueList(arg) {
			if document.Compare(actual, v, document.Ascending) == 0 {
				return true
			}
		}
		return false
	case "$nin":
		if !present {
			return true
		}
		for _, v := range toValueList(arg) {
			if document.Compare(actual, v, document.Ascending) == 0 {
				return false
			}
		}
		return true
	case "$regex":
		s, ok := actual.(string)
		if !present || !ok {
			return false
		}
		pattern, _ := arg.(string)
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false
		}
		return re.MatchString(s)
	default:
		// Unknown operators never match rather than panicking on a malformed query.
		return false
	}
}

func toValueList(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	default:
		return nil
	}
}

// DescribeQuery renders a query for diagnostics, e.g. when a diff or a subscription needs to log
// what it is watching.
func DescribeQuery(q Query) string {
	if len(q) == 0 {
		return "{}"
	}
	parts := make([]string, 0, len(q))
	for k, v := range q {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return "{" + strings.Join(parts, ",") + "}"
}
