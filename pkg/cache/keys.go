package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Key derivation for the three cache tiers. All functions are pure; the
// 16-hex-char digest bounds key length, and a collision is an accepted,
// documented risk rather than something defended against.

// Size bucket boundaries for template keys.
const (
	smallBucketMax  = 8
	mediumBucketMax = 20
)

// Size bucket labels.
const (
	BucketSmall  = "small"
	BucketMedium = "medium"
	BucketLarge  = "large"
)

// normalizeText lower-cases and collapses all whitespace runs to single spaces.
func normalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// hashString returns the first 16 hex chars of the SHA-256 digest of s.
func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}

// Slug normalizes an algorithm identity: lower-cased, spaces and hyphens
// replaced with underscores.
func Slug(algorithmID string) string {
	s := strings.ToLower(algorithmID)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}

// ExactKey derives the exact-match tier key from the raw problem text and
// the constraint set. Constraints are sorted so declaration order never
// changes the key.
func ExactKey(problemText string, constraints []string) string {
	sorted := make([]string, len(constraints))
	copy(sorted, constraints)
	sort.Strings(sorted)

	combined := normalizeText(problemText) + "|" + strings.Join(sorted, ",")
	return "l1:" + hashString(combined)
}

// NormalizedKey derives the normalized-match tier key from the problem's
// objective and input/output structure strings.
func NormalizedKey(objective, inputStructure, outputStructure string) string {
	combined := normalizeText(objective) + "|" + inputStructure + "|" + outputStructure
	return "l2:" + hashString(combined)
}

// TemplateKey derives the template tier key from an algorithm identity and
// a size bucket.
func TemplateKey(algorithmID, bucket string) string {
	return "l3:" + Slug(algorithmID) + ":" + bucket
}

// CodeKey derives the cache key for generated code bound to an algorithm
// and an input signature.
func CodeKey(algorithmID, inputSignature string) string {
	slug := strings.ReplaceAll(strings.ToLower(algorithmID), " ", "_")
	return "code:" + slug + ":" + hashString(inputSignature)
}

// SizeBucket maps an input value to a coarse size category used to select
// among precomputed template variants. Slices count by length, maps by the
// summed lengths of their list-valued members (non-list members count one),
// strings by length, and numbers by value.
func SizeBucket(v any) string {
	size := 0
	switch val := v.(type) {
	case []any:
		size = len(val)
	case map[string]any:
		for _, member := range val {
			if list, ok := member.([]any); ok {
				size += len(list)
			} else {
				size++
			}
		}
	case string:
		size = len(val)
	case int:
		size = val
	case int64:
		size = int(val)
	case float64:
		size = int(val)
	case nil:
		size = 0
	default:
		// Slices of concrete element types arrive here when the value did
		// not pass through JSON decoding.
		size = reflectLen(val)
	}

	switch {
	case size <= smallBucketMax:
		return BucketSmall
	case size <= mediumBucketMax:
		return BucketMedium
	default:
		return BucketLarge
	}
}

func reflectLen(v any) int {
	switch val := v.(type) {
	case []int:
		return len(val)
	case []float64:
		return len(val)
	case []string:
		return len(val)
	default:
		return 0
	}
}

// String formatting helper kept package-private; used by logging call sites
// that truncate long keys.
func truncateKey(key string, n int) string {
	if len(key) <= n {
		return key
	}
	return fmt.Sprintf("%s...", key[:n])
}
