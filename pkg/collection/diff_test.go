package collection

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vireodb/vireo/pkg/document"
)

var _ = Describe("Diff", func() {
	It("reports empty when self already matches target", func() {
		self := []document.Document{{"_id": "a", "n": 1.0}}
		target := []document.Document{{"_id": "a", "n": 1.0}}
		Expect(diffDocuments(self, target, "_id").Empty()).To(BeTrue())
	})

	It("reports an insertion for a document present only in target", func() {
		self := []document.Document{}
		target := []document.Document{{"_id": "a", "n": 1.0}}
		d := diffDocuments(self, target, "_id")
		Expect(d.Insert).To(Equal(target))
		Expect(d.Update).To(BeEmpty())
		Expect(d.Remove).To(BeEmpty())
	})

	It("reports a removal for a document present only in self", func() {
		self := []document.Document{{"_id": "a", "n": 1.0}}
		target := []document.Document{}
		d := diffDocuments(self, target, "_id")
		Expect(d.Remove).To(Equal(self))
	})

	It("reports an update for a document whose body differs under the same key", func() {
		self := []document.Document{{"_id": "a", "n": 1.0}}
		target := []document.Document{{"_id": "a", "n": 2.0}}
		d := diffDocuments(self, target, "_id")
		Expect(d.Update).To(Equal(target))
		Expect(d.Insert).To(BeEmpty())
		Expect(d.Remove).To(BeEmpty())
	})
})
