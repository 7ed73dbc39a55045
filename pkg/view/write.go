package view

import (
	"fmt"

	"github.com/vireodb/vireo/pkg/collection"
	"github.com/vireodb/vireo/pkg/document"
)

// Insert writes through to the view's source: a View never mutates its own privateData directly
// from the write path, per §4.F - every apparent write is really "insert into the source and let
// the chain propagate it back down through queryGatedTransform."
func (v *View) Insert(docs ...document.Document) ([]document.Document, error) {
	v.mu.Lock()
	source := v.source
	v.mu.Unlock()
	if source == nil {
		return nil, fmt.Errorf("view %s: not bound to a source", v.name)
	}
	if src, ok := source.(*collection.Collection); ok {
		return src.Insert(docs...)
	}
	return nil, fmt.Errorf("view %s: source does not support Insert", v.name)
}

// Update writes through to the view's source.
func (v *View) Update(query collection.Query, update document.Document, options collection.Options) ([]document.Document, error) {
	v.mu.Lock()
	source := v.source
	v.mu.Unlock()
	if source == nil {
		return nil, fmt.Errorf("view %s: not bound to a source", v.name)
	}
	if src, ok := source.(*collection.Collection); ok {
		return src.Update(query, update, options)
	}
	return nil, fmt.Errorf("view %s: source does not support Update", v.name)
}

// UpdateByID writes through to the view's source.
func (v *View) UpdateByID(id any, update document.Document) ([]document.Document, error) {
	v.mu.Lock()
	source := v.source
	v.mu.Unlock()
	if source == nil {
		return nil, fmt.Errorf("view %s: not bound to a source", v.name)
	}
	if src, ok := source.(*collection.Collection); ok {
		return src.UpdateByID(id, update)
	}
	return nil, fmt.Errorf("view %s: source does not support UpdateByID", v.name)
}

// EnsureIndex delegates to privateData: indexes are a read-path optimization over the view's own
// materialized set, independent of whether a transform is enabled.
func (v *View) EnsureIndex(name string, spec document.IndexSpec) error {
	return v.privateData.EnsureIndex(name, spec)
}

// Remove writes through to the view's source.
func (v *View) Remove(query collection.Query, options collection.Options) ([]document.Document, error) {
	v.mu.Lock()
	source := v.source
	v.mu.Unlock()
	if source == nil {
		return nil, fmt.Errorf("view %s: not bound to a source", v.name)
	}
	if src, ok := source.(*collection.Collection); ok {
		return src.Remove(query, options)
	}
	return nil, fmt.Errorf("view %s: source does not support Remove", v.name)
}
