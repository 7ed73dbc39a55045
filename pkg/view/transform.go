package view

import (
	"github.com/vireodb/vireo/pkg/chain"
	"github.com/vireodb/vireo/pkg/collection"
	"github.com/vireodb/vireo/pkg/document"
)

// Transform enables or disables the privateData -> publicData projection described in §4.H/§4.F.
// Enabling allocates publicData, seeds it from privateData's current contents projected through
// dataOut(dataIn(doc)), and interposes a ReactorIO that mirrors every subsequent packet through the
// same composed projection. Disabling drops both.
func (v *View) Transform(cfg TransformConfig) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !cfg.Enabled {
		if v.publicIO != nil {
			v.publicIO.Drop()
			v.publicIO = nil
		}
		v.publicData = nil
		v.transformCfg = TransformConfig{}
		return nil
	}

	v.transformCfg = cfg
	v.publicData = collection.New(v.name+"_public", v.log)
	if err := v.publicData.SetPrimaryKey(v.privateData.PrimaryKey()); err != nil {
		return err
	}

	v.publicIO = chain.NewReactorIO(v.name+"_transform_io", v.privateData.Node(), v.publicData.Node(),
		v.mirrorTransform, v.log)

	return v.publicData.SetData(projectAll(cfg, v.privateData.All()), nil)
}

// mirrorTransform applies the analogous mutation to publicData for every packet privateData emits.
// It always returns true: publicData's own CRUD methods emit their own chain packet to whatever is
// subscribed to publicData, so there is nothing left for the default forward to do.
func (v *View) mirrorTransform(_ *chain.ReactorIO, p chain.Packet) bool {
	v.mu.Lock()
	cfg := v.transformCfg
	v.mu.Unlock()

	switch p.Type {
	case chain.SetData:
		docs, _ := p.Docs()
		v.publicData.SetData(projectAll(cfg, docs), nil)

	case chain.Insert:
		docs, _ := p.Docs()
		v.publicData.Insert(projectAll(cfg, docs)...)

	case chain.Update:
		u, _ := p.UpdateData()
		v.publicData.Update(u.Query, project(cfg, u.Update), u.Options)

	case chain.Remove:
		r, _ := p.RemoveData()
		v.publicData.Remove(r.Query, nil)

	case chain.PrimaryKey:
		if pk, ok := p.Data.(string); ok {
			v.publicData.SetPrimaryKey(pk)
		}
	}

	return true
}

// project applies cfg's ingress/egress mapping to a single document, composed as
// dataOut(dataIn(doc)) per §4.H: the public projection is the dataOut view of whatever dataIn
// produced, not dataOut alone.
func project(cfg TransformConfig, doc document.Document) document.Document {
	if cfg.DataIn != nil {
		doc = cfg.DataIn(doc)
	}
	if cfg.DataOut != nil {
		doc = cfg.DataOut(doc)
	}
	return doc
}

// projectAll applies project to a slice of documents.
func projectAll(cfg TransformConfig, docs []document.Document) []document.Document {
	if cfg.DataIn == nil && cfg.DataOut == nil {
		return docs
	}
	out := make([]document.Document, len(docs))
	for i, d := range docs {
		out[i] = project(cfg, d)
	}
	return out
}
