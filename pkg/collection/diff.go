package collection

import "github.com/vireodb/vireo/pkg/document"

// Delta is what must be done to a collection to make it match another, under a shared primary key.
// §4.E: Diff(other) -> {insert:[], update:[], remove:[]}.
type Delta struct {
	Insert []document.Document
	Update []document.Document
	Remove []document.Document
}

// Empty reports whether the delta carries no work.
func (d Delta) Empty() bool {
	return len(d.Insert) == 0 && len(d.Update) == 0 && len(d.Remove) == 0
}

// diffDocuments computes what must change in self (keyed by pk) to match target. A document
// present in target but not self is an insertion; present in both but structurally different is an
// update carrying target's copy; present in self but absent from target is a removal.
func diffDocuments(self, target []document.Document, pk string) Delta {
	selfByKey := indexByKey(self, pk)
	targetByKey := indexByKey(target, pk)

	var delta Delta
	for key, doc := range targetByKey {
		prior, existed := selfByKey[key]
		switch {
		case !existed:
			delta.Insert = append(delta.Insert, doc)
		case !document.Equal(prior, doc):
			delta.Update = append(delta.Update, doc)
		}
	}
	for key, doc := range selfByKey {
		if _, stillPresent := targetByKey[key]; !stillPresent {
			delta.Remove = append(delta.Remove, doc)
		}
	}
	return delta
}

func indexByKey(docs []document.Document, pk string) map[string]document.Document {
	out := make(map[string]document.Document, len(docs))
	for _, d := range docs {
		v, ok := document.Get(d, pk)
		if !ok {
			continue
		}
		out[document.Dump(document.Document{pk: v})] = d
	}
	return out
}
