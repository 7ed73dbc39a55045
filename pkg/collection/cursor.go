package collection

import (
	"sort"

	"github.com/vireodb/vireo/pkg/document"
)

// Cursor is the pagination bookkeeping a find attaches to its result. §4.E describes this as a
// "$cursor" attribute riding along on the result array; Go has no room to hang extra attributes off
// a slice, so FindCursor returns it as a second value instead.
type Cursor struct {
	Page     int
	PageSize int
	Pages    int
	Total    int
}

// PageOptions is the shape of the $page entry inside Options.
type PageOptions struct {
	Index int // zero-based page index
	Size  int // documents per page; zero means "no paging"
}

func pageOptionsFrom(options Options) (PageOptions, bool) {
	raw, ok := options["$page"]
	if !ok {
		return PageOptions{}, false
	}
	switch p := raw.(type) {
	case PageOptions:
		return p, true
	case map[string]any:
		idx, _ := p["index"].(int)
		size, _ := p["size"].(int)
		return PageOptions{Index: idx, Size: size}, true
	default:
		return PageOptions{}, false
	}
}

func orderByFrom(options Options) (document.IndexSpec, bool) {
	raw, ok := options["$orderBy"]
	if !ok {
		return nil, false
	}
	switch s := raw.(type) {
	case document.IndexSpec:
		return s, true
	default:
		return nil, false
	}
}

// sortAndPage sorts docs per options' $orderBy, then slices it down to the requested $page. It
// returns the resulting slice (docs is sorted in place, but a narrowed page is a fresh slice since
// reslicing a parameter does not reach back into the caller) along with the cursor describing
// where that page sits in the unpaginated result.
func sortAndPage(docs []document.Document, options Options) ([]document.Document, Cursor) {
	if spec, ok := orderByFrom(options); ok && len(spec) > 0 {
		sort.SliceStable(docs, func(i, j int) bool {
			return document.CompareDocuments(docs[i], docs[j], spec) < 0
		})
	}
	return Paginate(docs, options)
}

// Paginate slices docs down to the requested $page without reordering them first. Exported so a
// caller that already has docs in the order it wants (a View reading its ActiveBucket's
// order-maintained population, e.g.) can get cursor bookkeeping without paying for a redundant
// sort.
func Paginate(docs []document.Document, options Options) ([]document.Document, Cursor) {
	total := len(docs)

	page, ok := pageOptionsFrom(options)
	if !ok || page.Size <= 0 {
		return docs, Cursor{Page: 0, PageSize: total, Pages: 1, Total: total}
	}

	pages := (total + page.Size - 1) / page.Size
	if pages == 0 {
		pages = 1
	}

	start := page.Index * page.Size
	if start > total {
		start = total
	}
	end := start + page.Size
	if end > total {
		end = total
	}

	return docs[start:end], Cursor{Page: page.Index, PageSize: page.Size, Pages: pages, Total: total}
}

// FindCursor behaves like Find but also returns the pagination cursor the query settled on.
func (c *Collection) FindCursor(query Query, options Options) ([]document.Document, Cursor) {
	c.mu.RLock()
	all := c.store.List()
	c.mu.RUnlock()

	out := make([]document.Document, 0, len(all))
	for _, item := range all {
		doc := item.(document.Document)
		if Match(doc, query, options, JoinLocal, nil) {
			out = append(out, document.Decouple(doc))
		}
	}

	return sortAndPage(out, options)
}
