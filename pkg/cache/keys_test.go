package cache_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/algoinsight/trace-router/pkg/cache"
)

func TestExactKeyDeterminism(t *testing.T) {
	a := cache.ExactKey("Find two numbers that sum to target", []string{"n<=10000", "sorted"})
	b := cache.ExactKey("Find two numbers that sum to target", []string{"n<=10000", "sorted"})
	assert.Equal(t, a, b)
}

func TestExactKeyConstraintOrderIrrelevant(t *testing.T) {
	a := cache.ExactKey("sort the array", []string{"stable", "n<=100"})
	b := cache.ExactKey("sort the array", []string{"n<=100", "stable"})
	assert.Equal(t, a, b)
}

func TestExactKeyNormalizesWhitespaceAndCase(t *testing.T) {
	a := cache.ExactKey("Sort   The\tArray", nil)
	b := cache.ExactKey("sort the array", nil)
	assert.Equal(t, a, b)
}

func TestExactKeyDistinguishesConstraints(t *testing.T) {
	a := cache.ExactKey("sort the array", []string{"n<=100"})
	b := cache.ExactKey("sort the array", []string{"n<=1000"})
	assert.NotEqual(t, a, b)
}

func TestKeyPrefixesAndShape(t *testing.T) {
	exact := cache.ExactKey("p", nil)
	assert.True(t, strings.HasPrefix(exact, "l1:"))
	assert.Len(t, exact, len("l1:")+16)

	normalized := cache.NormalizedKey("objective", "array", "int")
	assert.True(t, strings.HasPrefix(normalized, "l2:"))
	assert.Len(t, normalized, len("l2:")+16)

	assert.Equal(t, "l3:binary_search:small", cache.TemplateKey("Binary-Search", "small"))

	code := cache.CodeKey("Quick Sort", "sig")
	assert.True(t, strings.HasPrefix(code, "code:quick_sort:"))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "binary_search", cache.Slug("Binary Search"))
	assert.Equal(t, "two_pointer", cache.Slug("two-pointer"))
	assert.Equal(t, "bfs", cache.Slug("BFS"))
}

func TestSizeBucket(t *testing.T) {
	cases := []struct {
		name  string
		input any
		want  string
	}{
		{"empty slice", []any{}, cache.BucketSmall},
		{"slice at small boundary", make([]any, 8), cache.BucketSmall},
		{"slice just over small", make([]any, 9), cache.BucketMedium},
		{"slice at medium boundary", make([]any, 20), cache.BucketMedium},
		{"slice just over medium", make([]any, 21), cache.BucketLarge},
		{"short string", "hello", cache.BucketSmall},
		{"long string", strings.Repeat("x", 30), cache.BucketLarge},
		{"small number", 5, cache.BucketSmall},
		{"large number", float64(100), cache.BucketLarge},
		{"nil", nil, cache.BucketSmall},
		{"typed int slice", []int{1, 2, 3}, cache.BucketSmall},
		{
			"map sums list members",
			map[string]any{"arr": make([]any, 15), "target": 9},
			cache.BucketMedium,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, cache.SizeBucket(tc.input))
		})
	}
}
