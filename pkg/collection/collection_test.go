package collection

import (
	"testing"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vireodb/vireo/pkg/chain"
	"github.com/vireodb/vireo/pkg/document"
)

func TestCollection(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Collection Suite")
}

var _ = Describe("Collection", func() {
	var c *Collection

	BeforeEach(func() {
		c = New("widgets", logr.Discard())
	})

	It("assigns a primary key to a document that lacks one", func() {
		inserted, err := c.Insert(document.Document{"name": "gizmo"})
		Expect(err).NotTo(HaveOccurred())
		Expect(inserted).To(HaveLen(1))
		Expect(inserted[0]).To(HaveKey("_id"))
	})

	It("finds what it inserted, decoupled from the caller's copy", func() {
		src := document.Document{"_id": "a", "name": "gizmo"}
		_, err := c.Insert(src)
		Expect(err).NotTo(HaveOccurred())

		src["name"] = "mutated"
		found := c.FindByID("a")
		Expect(found["name"]).To(Equal("gizmo"))
	})

	It("emits a chain.Insert packet carrying the inserted documents", func() {
		var got chain.Packet
		sink := chain.NewReactorNode("sink", logr.Discard())
		sink.SetHandler(func(p chain.Packet) bool { got = p; return false })
		c.Subscribe(sink)

		_, err := c.Insert(document.Document{"_id": "a"})
		Expect(err).NotTo(HaveOccurred())

		Expect(got.Type).To(Equal(chain.Insert))
		docs, ok := got.Docs()
		Expect(ok).To(BeTrue())
		Expect(docs).To(HaveLen(1))
	})

	It("updates matching documents and emits a chain.Update packet", func() {
		c.Insert(document.Document{"_id": "a", "n": 1.0})

		var got chain.Packet
		sink := chain.NewReactorNode("sink", logr.Discard())
		sink.SetHandler(func(p chain.Packet) bool { got = p; return false })
		c.Subscribe(sink)

		changed, err := c.Update(Query{"_id": "a"}, document.Document{"n": 2.0}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(changed).To(HaveLen(1))
		Expect(changed[0]["n"]).To(Equal(2.0))
		Expect(got.Type).To(Equal(chain.Update))

		Expect(c.FindByID("a")["n"]).To(Equal(2.0))
	})

	It("removes matching documents and emits a chain.Remove packet", func() {
		c.Insert(document.Document{"_id": "a"})

		var got chain.Packet
		sink := chain.NewReactorNode("sink", logr.Discard())
		sink.SetHandler(func(p chain.Packet) bool { got = p; return false })
		c.Subscribe(sink)

		removed, err := c.Remove(Query{"_id": "a"}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(removed).To(HaveLen(1))
		Expect(got.Type).To(Equal(chain.Remove))
		Expect(c.FindByID("a")).To(BeNil())
	})

	It("replaces its contents wholesale on SetData", func() {
		c.Insert(document.Document{"_id": "a"})
		err := c.SetData([]document.Document{{"_id": "b"}}, nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(c.FindByID("a")).To(BeNil())
		Expect(c.FindByID("b")).NotTo(BeNil())
	})

	It("sorts and pages results per $orderBy and $page", func() {
		for i := 0; i < 5; i++ {
			c.Insert(document.Document{"_id": i, "n": float64(5 - i)})
		}
		spec, err := document.NewIndexSpec("n", document.Ascending)
		Expect(err).NotTo(HaveOccurred())

		docs, cursor := c.FindCursor(nil, Options{
			"$orderBy": spec,
			"$page":    PageOptions{Index: 0, Size: 2},
		})
		Expect(docs).To(HaveLen(2))
		Expect(docs[0]["n"]).To(Equal(1.0))
		Expect(docs[1]["n"]).To(Equal(2.0))
		Expect(cursor.Pages).To(Equal(3))
		Expect(cursor.Total).To(Equal(5))
	})

	It("computes a diff against a target population", func() {
		c.Insert(document.Document{"_id": "a", "n": 1.0})
		c.Insert(document.Document{"_id": "b", "n": 1.0})

		d := c.Diff([]document.Document{{"_id": "a", "n": 1.0}, {"_id": "c", "n": 9.0}})
		Expect(d.Insert).To(ConsistOf(document.Document{"_id": "c", "n": 9.0}))
		Expect(d.Remove).To(ConsistOf(document.Document{"_id": "b", "n": 1.0}))
	})

	It("notifies drop listeners registered via On", func() {
		called := false
		c.On("drop", func(args ...any) { called = true })
		c.Drop()
		Expect(called).To(BeTrue())
	})

	It("stops notifying a listener removed via Off", func() {
		calls := 0
		id := c.On("drop", func(args ...any) { calls++ })
		c.Off("drop", id)
		c.Drop()
		Expect(calls).To(Equal(0))
	})

	It("re-keys its store when the primary key field changes", func() {
		c.Insert(document.Document{"_id": "a", "sku": "X1"})
		Expect(c.SetPrimaryKey("sku")).To(Succeed())
		Expect(c.FindOne(Query{"sku": "X1"}, nil)).NotTo(BeNil())
	})
})
