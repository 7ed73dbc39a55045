package collection

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vireodb/vireo/pkg/document"
)

var _ = Describe("Match", func() {
	doc := document.Document{"name": "alice", "age": 30.0, "tags": []any{"a", "b"}}

	It("matches an empty query unconditionally", func() {
		Expect(Match(doc, nil, nil, JoinLocal, nil)).To(BeTrue())
	})

	It("matches plain field equality", func() {
		Expect(Match(doc, Query{"name": "alice"}, nil, JoinLocal, nil)).To(BeTrue())
		Expect(Match(doc, Query{"name": "bob"}, nil, JoinLocal, nil)).To(BeFalse())
	})

	It("evaluates comparison operators", func() {
		Expect(Match(doc, Query{"age": Query{"$gte": 30.0}}, nil, JoinLocal, nil)).To(BeTrue())
		Expect(Match(doc, Query{"age": Query{"$lt": 30.0}}, nil, JoinLocal, nil)).To(BeFalse())
	})

	It("evaluates $exists", func() {
		Expect(Match(doc, Query{"missing": Query{"$exists": false}}, nil, JoinLocal, nil)).To(BeTrue())
		Expect(Match(doc, Query{"name": Query{"$exists": true}}, nil, JoinLocal, nil)).To(BeTrue())
	})

	It("evaluates $in and $nin", func() {
		Expect(Match(doc, Query{"name": Query{"$in": []any{"alice", "bob"}}}, nil, JoinLocal, nil)).To(BeTrue())
		Expect(Match(doc, Query{"name": Query{"$nin": []any{"alice", "bob"}}}, nil, JoinLocal, nil)).To(BeFalse())
	})

	It("combines clauses with an implicit $and", func() {
		q := Query{"name": "alice", "age": Query{"$gt": 10.0}}
		Expect(Match(doc, q, nil, JoinLocal, nil)).To(BeTrue())
	})

	It("evaluates $or", func() {
		q := Query{"$or": []any{Query{"name": "bob"}, Query{"age": 30.0}}}
		Expect(Match(doc, q, nil, JoinLocal, nil)).To(BeTrue())
	})

	It("evaluates $not", func() {
		q := Query{"$not": Query{"name": "alice"}}
		Expect(Match(doc, q, nil, JoinLocal, nil)).To(BeFalse())
	})

	It("treats an unknown operator as non-matching rather than panicking", func() {
		q := Query{"name": Query{"$bogus": "alice"}}
		Expect(Match(doc, q, nil, JoinLocal, nil)).To(BeFalse())
	})
})
