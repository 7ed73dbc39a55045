package bucket

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vireodb/vireo/pkg/document"
)

func TestBucket(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ActiveBucket Suite")
}

func mustSpec(pairs ...any) document.IndexSpec {
	spec, err := document.NewIndexSpec(pairs...)
	Expect(err).NotTo(HaveOccurred())
	return spec
}

var _ = Describe("ActiveBucket", func() {
	It("returns the sorted insertion index for each document as it arrives", func() {
		b := New(mustSpec("n", document.Ascending))

		Expect(b.Insert(document.Document{"_id": "a", "n": 5.0})).To(Equal(0))
		Expect(b.Insert(document.Document{"_id": "b", "n": 1.0})).To(Equal(0))
		Expect(b.Insert(document.Document{"_id": "c", "n": 3.0})).To(Equal(1))
		Expect(b.Insert(document.Document{"_id": "d", "n": 9.0})).To(Equal(3))

		Expect(b.Count()).To(Equal(4))
	})

	It("breaks ties by placing the new document after equal existing ones", func() {
		b := New(mustSpec("n", document.Ascending))

		Expect(b.Insert(document.Document{"_id": "a", "n": 1.0})).To(Equal(0))
		Expect(b.Insert(document.Document{"_id": "b", "n": 1.0})).To(Equal(1))
		Expect(b.Insert(document.Document{"_id": "c", "n": 1.0})).To(Equal(2))
	})

	It("removes a tracked document by primary key and shrinks the count", func() {
		b := New(mustSpec("n", document.Ascending))
		b.PrimaryKey("_id")

		doc := document.Document{"_id": "b", "n": 1.0}
		b.Insert(document.Document{"_id": "a", "n": 5.0})
		b.Insert(doc)
		b.Insert(document.Document{"_id": "c", "n": 9.0})

		Expect(b.Remove(document.Document{"_id": "b"})).To(BeTrue())
		Expect(b.Count()).To(Equal(2))
		Expect(b.IndexOf(doc)).To(Equal(-1))
	})

	It("reports false removing a document that was never inserted", func() {
		b := New(mustSpec("n", document.Ascending))
		Expect(b.Remove(document.Document{"_id": "missing"})).To(BeFalse())
	})

	It("locates a tracked document's current index, which shifts as earlier entries are removed", func() {
		b := New(mustSpec("n", document.Ascending))

		a := document.Document{"_id": "a", "n": 1.0}
		c := document.Document{"_id": "c", "n": 3.0}
		b.Insert(a)
		b.Insert(document.Document{"_id": "b", "n": 2.0})
		b.Insert(c)

		Expect(b.IndexOf(c)).To(Equal(2))
		b.Remove(a)
		Expect(b.IndexOf(c)).To(Equal(1))
	})

	It("reports primary keys in sorted order via Keys", func() {
		b := New(mustSpec("n", document.Ascending))

		b.Insert(document.Document{"_id": "a", "n": 5.0})
		b.Insert(document.Document{"_id": "b", "n": 1.0})
		b.Insert(document.Document{"_id": "c", "n": 3.0})

		Expect(b.Keys()).To(Equal([]any{"b", "c", "a"}))
	})
})
