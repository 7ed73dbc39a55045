package view

import (
	"reflect"

	"github.com/vireodb/vireo/pkg/collection"
)

// Query replaces the view's query and/or options and, unless refresh is explicitly false,
// immediately re-reads the source and rebuilds privateData. It emits "queryChange" if the query
// changed and "queryOptionsChange" if the options changed.
func (v *View) Query(q collection.Query, options collection.Options, refresh ...bool) error {
	v.mu.Lock()
	queryChanged := q != nil && !reflect.DeepEqual(map[string]any(q), map[string]any(v.query))
	optionsChanged := options != nil && !reflect.DeepEqual(map[string]any(options), map[string]any(v.options))
	if q != nil {
		v.query = q
	}
	if options != nil {
		v.options = options
	}
	shouldRefresh := len(refresh) == 0 || refresh[0]
	v.mu.Unlock()

	if queryChanged {
		v.Emit("queryChange", q)
	}
	if optionsChanged {
		v.Emit("queryOptionsChange", options)
	}
	if shouldRefresh {
		return v.Refresh()
	}
	return nil
}

// QueryAdd merges patch into the current query. overwrite controls whether a key already present
// in the query is replaced (the default) or left alone.
func (v *View) QueryAdd(patch collection.Query, overwrite bool, refresh ...bool) error {
	v.mu.Lock()
	merged := collection.Query{}
	for k, val := range v.query {
		merged[k] = val
	}
	for k, val := range patch {
		if _, exists := merged[k]; exists && !overwrite {
			continue
		}
		merged[k] = val
	}
	v.mu.Unlock()

	return v.Query(merged, nil, refresh...)
}

// QueryRemove deletes every key named in patch from the current query.
func (v *View) QueryRemove(patch collection.Query, refresh ...bool) error {
	v.mu.Lock()
	merged := collection.Query{}
	for k, val := range v.query {
		if _, drop := patch[k]; drop {
			continue
		}
		merged[k] = val
	}
	v.mu.Unlock()

	return v.Query(merged, nil, refresh...)
}

// OrderBy sets (or clears, with a nil/empty spec) the view's $orderBy option and rebuilds the
// ActiveBucket accordingly.
func (v *View) OrderBy(spec any, refresh ...bool) error {
	v.mu.Lock()
	opts := collection.Options{}
	for k, val := range v.options {
		opts[k] = val
	}
	if spec == nil {
		delete(opts, "$orderBy")
	} else {
		opts["$orderBy"] = spec
	}
	v.mu.Unlock()

	return v.Query(nil, opts, refresh...)
}

// QueryOptions replaces the view's options alone, leaving the query untouched.
func (v *View) QueryOptions(options collection.Options, refresh ...bool) error {
	return v.Query(nil, options, refresh...)
}

// CurrentQuery returns the view's current query and options.
func (v *View) CurrentQuery() (collection.Query, collection.Options) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.query, v.options
}

// Refresh re-reads the source under the current query/options and rebuilds privateData from
// scratch, per §4.F's refresh(): clear, re-find, re-insert, rebuild the bucket.
func (v *View) Refresh() error {
	v.mu.Lock()
	source := v.source
	query := v.query
	options := v.options
	v.mu.Unlock()

	if source == nil {
		return nil
	}

	if _, err := v.privateData.Remove(collection.Query{}, nil); err != nil {
		return err
	}

	docs, cursor := source.FindCursor(query, options)
	if _, err := v.privateData.Insert(docs...); err != nil {
		return err
	}

	v.mu.Lock()
	v.cursor = cursor
	v.rebuildBucketLocked()
	v.mu.Unlock()

	return nil
}

// Cursor returns the pagination cursor the last find settled on.
func (v *View) Cursor() collection.Cursor {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cursor
}

// Page sets $page.index directly.
func (v *View) Page(index int, refresh ...bool) error {
	return v.setPage(func(p *collection.PageOptions) { p.Index = index }, refresh...)
}

// PageFirst jumps to the first page.
func (v *View) PageFirst(refresh ...bool) error {
	return v.Page(0, refresh...)
}

// PageLast jumps to the last page, per the cursor recorded by the most recent find.
func (v *View) PageLast(refresh ...bool) error {
	v.mu.Lock()
	last := v.cursor.Pages - 1
	v.mu.Unlock()
	if last < 0 {
		last = 0
	}
	return v.Page(last, refresh...)
}

// PageScan moves the current page by delta pages (negative moves backward).
func (v *View) PageScan(delta int, refresh ...bool) error {
	v.mu.Lock()
	page, _ := pageOptions(v.options)
	target := page.Index + delta
	v.mu.Unlock()
	if target < 0 {
		target = 0
	}
	return v.Page(target, refresh...)
}

func (v *View) setPage(mutate func(*collection.PageOptions), refresh ...bool) error {
	v.mu.Lock()
	page, _ := pageOptions(v.options)
	mutate(&page)

	opts := collection.Options{}
	for k, val := range v.options {
		opts[k] = val
	}
	opts["$page"] = page
	v.mu.Unlock()

	return v.Query(nil, opts, refresh...)
}

func pageOptions(options collection.Options) (collection.PageOptions, bool) {
	if options == nil {
		return collection.PageOptions{Size: 0}, false
	}
	raw, ok := options["$page"]
	if !ok {
		return collection.PageOptions{Size: 0}, false
	}
	p, ok := raw.(collection.PageOptions)
	return p, ok
}
