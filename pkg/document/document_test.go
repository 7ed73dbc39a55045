package document_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vireodb/vireo/pkg/document"
)

type Document = document.Document
type IndexSpec = document.IndexSpec

const (
	Ascending  = document.Ascending
	Descending = document.Descending
)

var (
	Get              = document.Get
	Decouple         = document.Decouple
	Compare          = document.Compare
	CompareDocuments = document.CompareDocuments
	NewIndexSpec     = document.NewIndexSpec
)

func TestDocument(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Document Suite")
}

var _ = Describe("Get", func() {
	It("resolves a top-level field", func() {
		v, ok := Get(Document{"name": "gizmo"}, "name")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("gizmo"))
	})

	It("resolves a nested field via a dotted path", func() {
		doc := Document{"spec": Document{"size": 3}}
		v, ok := Get(doc, "spec.size")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(3))
	})

	It("reports false for an undefined path", func() {
		_, ok := Get(Document{"name": "gizmo"}, "spec.size")
		Expect(ok).To(BeFalse())
	})

	It("reports false against a nil document", func() {
		_, ok := Get(nil, "name")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Decouple", func() {
	It("produces a copy unaffected by mutation of the original", func() {
		src := Document{"name": "gizmo", "tags": []any{"a", "b"}, "spec": Document{"size": 3}}
		cp := Decouple(src)

		src["name"] = "mutated"
		src["tags"].([]any)[0] = "z"
		src["spec"].(Document)["size"] = 99

		Expect(cp["name"]).To(Equal("gizmo"))
		Expect(cp["tags"].([]any)[0]).To(Equal("a"))
		Expect(cp["spec"].(Document)["size"]).To(Equal(3))
	})

	It("returns nil for a nil document", func() {
		Expect(Decouple(nil)).To(BeNil())
	})
})

var _ = Describe("Equal", func() {
	It("treats structurally identical documents as equal regardless of key order", func() {
		a := Document{"name": "gizmo", "size": 3}
		b := Document{"size": 3, "name": "gizmo"}
		Expect(document.Equal(a, b)).To(BeTrue())
	})

	It("treats documents differing on a field as unequal", func() {
		a := Document{"name": "gizmo"}
		b := Document{"name": "sprocket"}
		Expect(document.Equal(a, b)).To(BeFalse())
	})
})

var _ = Describe("Compare and CompareDocuments", func() {
	It("orders numbers ascending by default", func() {
		Expect(Compare(1, 2, Ascending)).To(BeNumerically("<", 0))
		Expect(Compare(2, 1, Ascending)).To(BeNumerically(">", 0))
	})

	It("flips the order for a descending field", func() {
		Expect(Compare(1, 2, Descending)).To(BeNumerically(">", 0))
	})

	It("treats undefined as less than any defined value", func() {
		Expect(Compare(nil, 1, Ascending)).To(BeNumerically("<", 0))
	})

	It("orders strings under the active collator", func() {
		Expect(Compare("apple", "banana", Ascending)).To(BeNumerically("<", 0))
	})

	It("compares documents field by field, short-circuiting at the first difference", func() {
		spec, err := NewIndexSpec("color", Ascending, "size", Ascending)
		Expect(err).NotTo(HaveOccurred())

		a := Document{"color": "red", "size": 3}
		b := Document{"color": "red", "size": 1}
		Expect(CompareDocuments(a, b, spec)).To(BeNumerically(">", 0))

		c := Document{"color": "blue", "size": 99}
		Expect(CompareDocuments(a, c, spec)).To(BeNumerically(">", 0))
	})
})

var _ = Describe("IndexSpec", func() {
	It("renders a readable string", func() {
		spec, err := NewIndexSpec("age", Ascending, "name", Descending)
		Expect(err).NotTo(HaveOccurred())
		Expect(spec.String()).To(Equal("age:+1,name:-1"))
	})

	It("tails off the first field", func() {
		spec, err := NewIndexSpec("age", Ascending, "name", Descending)
		Expect(err).NotTo(HaveOccurred())
		Expect(spec.Tail()).To(Equal(IndexSpec{{Field: "name", Direction: Descending}}))
		Expect(spec.Tail().Tail()).To(BeNil())
	})

	It("rejects an odd number of arguments", func() {
		_, err := NewIndexSpec("age", Ascending, "name")
		Expect(err).To(HaveOccurred())
	})
})
