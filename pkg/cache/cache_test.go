package cache_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/algoinsight/trace-router/pkg/cache"
	"github.com/algoinsight/trace-router/pkg/tracedoc"
)

func TestCache(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cache Suite")
}

func testDoc(marker string) tracedoc.Document {
	return tracedoc.Document{
		"title": marker,
		"frames": []any{
			map[string]any{
				"state": map[string]any{
					"data": map[string]any{"arr": []any{float64(1), float64(2)}},
				},
			},
		},
	}
}

var _ = Describe("Cache Package", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "cache_test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	Describe("MemoryCache", func() {
		Context("basic operations", func() {
			It("should return stored values", func() {
				c := cache.NewMemoryCache(cache.MemoryCacheOptions{MaxSize: 10})
				c.Set("k", testDoc("v"), 0)

				got, ok := c.Get("k")
				Expect(ok).To(BeTrue())
				Expect(got["title"]).To(Equal("v"))
			})

			It("should miss on absent keys", func() {
				c := cache.NewMemoryCache(cache.MemoryCacheOptions{MaxSize: 10})

				_, ok := c.Get("absent")
				Expect(ok).To(BeFalse())
				Expect(c.Stats().Misses).To(Equal(int64(1)))
			})

			It("should report existence without counting a hit", func() {
				c := cache.NewMemoryCache(cache.MemoryCacheOptions{MaxSize: 10})
				c.Set("k", testDoc("v"), 0)

				Expect(c.Exists("k")).To(BeTrue())
				Expect(c.Exists("absent")).To(BeFalse())
				Expect(c.Stats().Hits).To(Equal(int64(0)))
			})

			It("should delete and report presence", func() {
				c := cache.NewMemoryCache(cache.MemoryCacheOptions{MaxSize: 10})
				c.Set("k", testDoc("v"), 0)

				Expect(c.Delete("k")).To(BeTrue())
				Expect(c.Delete("k")).To(BeFalse())
				_, ok := c.Get("k")
				Expect(ok).To(BeFalse())
			})

			It("should clear all entries", func() {
				c := cache.NewMemoryCache(cache.MemoryCacheOptions{MaxSize: 10})
				c.Set("a", testDoc("a"), 0)
				c.Set("b", testDoc("b"), 0)

				c.Clear()
				Expect(c.Stats().Size).To(Equal(0))
			})
		})

		Context("capacity and eviction", func() {
			It("should never exceed max size", func() {
				c := cache.NewMemoryCache(cache.MemoryCacheOptions{MaxSize: 3})
				for _, k := range []string{"a", "b", "c", "d", "e"} {
					c.Set(k, testDoc(k), 0)
				}
				Expect(c.Stats().Size).To(Equal(3))
				Expect(c.Stats().Evictions).To(Equal(int64(2)))
			})

			It("should protect a recently read entry from LRU eviction", func() {
				c := cache.NewMemoryCache(cache.MemoryCacheOptions{MaxSize: 2})
				c.Set("old", testDoc("old"), 0)
				c.Set("new", testDoc("new"), 0)

				// Reading "old" makes "new" the LRU victim.
				_, ok := c.Get("old")
				Expect(ok).To(BeTrue())

				c.Set("extra", testDoc("extra"), 0)

				Expect(c.Exists("old")).To(BeTrue())
				Expect(c.Exists("new")).To(BeFalse())
				Expect(c.Exists("extra")).To(BeTrue())
			})

			It("should not evict when replacing an existing key at capacity", func() {
				c := cache.NewMemoryCache(cache.MemoryCacheOptions{MaxSize: 2})
				c.Set("a", testDoc("a1"), 0)
				c.Set("b", testDoc("b"), 0)

				c.Set("a", testDoc("a2"), 0)

				Expect(c.Stats().Size).To(Equal(2))
				Expect(c.Stats().Evictions).To(Equal(int64(0)))
				got, _ := c.Get("a")
				Expect(got["title"]).To(Equal("a2"))
			})
		})
	})

	Describe("DurableCache", func() {
		It("should round-trip a document through disk", func() {
			d, err := cache.NewDurableCache(tempDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(d.Set("l1:abcd", testDoc("persisted"), 0)).To(BeTrue())

			got, ok := d.Get("l1:abcd")
			Expect(ok).To(BeTrue())
			Expect(got["title"]).To(Equal("persisted"))
		})

		It("should survive a restart over the same directory", func() {
			d1, err := cache.NewDurableCache(tempDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(d1.Set("l1:key", testDoc("before restart"), 0)).To(BeTrue())

			d2, err := cache.NewDurableCache(tempDir)
			Expect(err).NotTo(HaveOccurred())

			got, ok := d2.Get("l1:key")
			Expect(ok).To(BeTrue())
			Expect(got["title"]).To(Equal("before restart"))
		})

		It("should ignore leftover temp files from interrupted writes", func() {
			d, err := cache.NewDurableCache(tempDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Set("l1:good", testDoc("good"), 0)).To(BeTrue())

			// Simulate a crash mid-write.
			stray := filepath.Join(tempDir, "l1", "l1_partial.json.gz.tmp")
			Expect(os.MkdirAll(filepath.Dir(stray), 0o755)).To(Succeed())
			Expect(os.WriteFile(stray, []byte("garbage"), 0o644)).To(Succeed())

			got, ok := d.Get("l1:good")
			Expect(ok).To(BeTrue())
			Expect(got["title"]).To(Equal("good"))

			_, ok = d.Get("l1:partial")
			Expect(ok).To(BeFalse())
		})

		It("should delete entries and their metadata", func() {
			d, err := cache.NewDurableCache(tempDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Set("l2:gone", testDoc("gone"), 0)).To(BeTrue())

			Expect(d.Delete("l2:gone")).To(BeTrue())
			Expect(d.Exists("l2:gone")).To(BeFalse())
			Expect(d.Delete("l2:gone")).To(BeFalse())
		})

		It("should clear everything", func() {
			d, err := cache.NewDurableCache(tempDir)
			Expect(err).NotTo(HaveOccurred())
			d.Set("l1:a", testDoc("a"), 0)
			d.Set("l2:b", testDoc("b"), 0)

			Expect(d.Clear()).To(Equal(2))
			Expect(d.Stats().Entries).To(Equal(0))
		})
	})

	Describe("Manager", func() {
		var mgr *cache.Manager

		BeforeEach(func() {
			var err error
			mgr, err = cache.NewManager(cache.ManagerOptions{Dir: tempDir})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should hit the exact tier after a store", func() {
			mgr.StoreExact("sort this array", []string{"n<=100"}, testDoc("exact"))

			got, ok := mgr.GetExact("sort this array", []string{"n<=100"})
			Expect(ok).To(BeTrue())
			Expect(got["title"]).To(Equal("exact"))
		})

		It("should treat constraint order as irrelevant", func() {
			mgr.StoreExact("sort this array", []string{"b", "a"}, testDoc("exact"))

			_, ok := mgr.GetExact("sort this array", []string{"a", "b"})
			Expect(ok).To(BeTrue())
		})

		It("should remain consistent across a restart via the durable tier", func() {
			mgr.StoreExact("two sum", nil, testDoc("written through"))

			fresh, err := cache.NewManager(cache.ManagerOptions{Dir: tempDir})
			Expect(err).NotTo(HaveOccurred())

			got, ok := fresh.GetExact("two sum", nil)
			Expect(ok).To(BeTrue())
			Expect(got["title"]).To(Equal("written through"))
		})

		It("should serve template entries by algorithm and size bucket", func() {
			mgr.StoreTemplate("binary_search", cache.BucketSmall, testDoc("template"))

			got, ok := mgr.GetTemplate("binary_search", cache.BucketSmall)
			Expect(ok).To(BeTrue())
			Expect(got["title"]).To(Equal("template"))

			_, ok = mgr.GetTemplate("binary_search", cache.BucketLarge)
			Expect(ok).To(BeFalse())
		})

		It("should round-trip generated code entries", func() {
			mgr.StoreCachedCode("quicksort", "sig-1", testDoc("code"))

			got, ok := mgr.GetCachedCode("quicksort", "sig-1")
			Expect(ok).To(BeTrue())
			Expect(got["title"]).To(Equal("code"))
		})

		It("should report the exact tier first from SmartLookup", func() {
			mgr.StoreExact("reverse a list", nil, testDoc("exact"))
			mgr.StoreNormalized("reverse a list", "list", "list", testDoc("normalized"))

			res := mgr.SmartLookup("reverse a list", nil, &cache.NormalizedProblem{
				Objective:       "reverse a list",
				InputStructure:  "list",
				OutputStructure: "list",
			})
			Expect(res.HitTier).To(Equal(cache.TierExact))
			Expect(res.Data["title"]).To(Equal("exact"))
		})

		It("should fall back to the normalized tier in SmartLookup", func() {
			mgr.StoreNormalized("reverse a list", "list", "list", testDoc("normalized"))

			res := mgr.SmartLookup("some other phrasing", nil, &cache.NormalizedProblem{
				Objective:       "reverse a list",
				InputStructure:  "list",
				OutputStructure: "list",
			})
			Expect(res.HitTier).To(Equal(cache.TierNormalized))
		})

		It("should report a miss when no tier matches", func() {
			res := mgr.SmartLookup("never seen", nil, nil)
			Expect(res.HitTier).To(BeEmpty())
			Expect(res.Data).To(BeNil())
		})

		It("should clear all tiers at once", func() {
			mgr.StoreExact("a", nil, testDoc("a"))
			mgr.StoreTemplate("b", cache.BucketSmall, testDoc("b"))

			mgr.ClearAll()

			_, ok := mgr.GetExact("a", nil)
			Expect(ok).To(BeFalse())
			_, ok = mgr.GetTemplate("b", cache.BucketSmall)
			Expect(ok).To(BeFalse())
		})
	})
})
