package library_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algoinsight/trace-router/pkg/library"
)

const bubbleSortJSON = `{
  "algorithm_id": "bubblesort",
  "algorithm_name": "BubbleSort",
  "category": "sorting",
  "complexity": {"time": "O(n^2)", "space": "O(1)"},
  "strategy": "Repeatedly swap adjacent out-of-order elements.",
  "strategy_details": "Each pass bubbles the largest remaining element to the end.",
  "templates": {
    "small_5": {
      "frames": [
        {"state": {"data": {"arr": [5, 2, 4, 1, 3]}}, "commentary": "Start with [5, 2, 4, 1, 3]"}
      ]
    },
    "medium_12": {
      "frames": [
        {"state": {"data": {"arr": [9, 3, 7, 1, 8, 2, 6, 4, 5, 0, 11, 10]}}, "commentary": "A longer pass"}
      ]
    }
  },
  "quiz_bank": [
    {"question": "How many passes in the worst case?", "answer": "n-1"}
  ]
}`

const minimalJSON = `{
  "templates": {
    "large_30": {"frames": [{"state": {"data": {}}}]}
  }
}`

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func loadedLibrary(t *testing.T) *library.Library {
	t.Helper()
	dir := t.TempDir()
	writeTemplate(t, dir, "bubblesort.json", bubbleSortJSON)

	lib := library.NewLibrary(dir)
	count, err := lib.Load()
	require.NoError(t, err)
	require.Equal(t, 1, count)
	return lib
}

func TestLoadReadsTemplates(t *testing.T) {
	lib := loadedLibrary(t)

	tmpl := lib.Get("bubblesort")
	require.NotNil(t, tmpl)
	assert.Equal(t, "BubbleSort", tmpl.Name)
	assert.Equal(t, "sorting", tmpl.Category)
	assert.Len(t, tmpl.Templates, 2)
	assert.Len(t, tmpl.QuizBank, 1)
}

func TestLoadSkipsMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "good.json", bubbleSortJSON)
	writeTemplate(t, dir, "broken.json", `{"algorithm_id": "broken",`)
	writeTemplate(t, dir, "notes.txt", "not a template")

	lib := library.NewLibrary(dir)
	count, err := lib.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, lib.Stats().SkippedFiles)
}

func TestLoadMissingDirectoryIsEmptyNotFatal(t *testing.T) {
	lib := library.NewLibrary(filepath.Join(t.TempDir(), "does-not-exist"))
	count, err := lib.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestLoadDefaultsIdentityFromFilename(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "mystery_algo.json", minimalJSON)

	lib := library.NewLibrary(dir)
	_, err := lib.Load()
	require.NoError(t, err)

	tmpl := lib.Get("mystery_algo")
	require.NotNil(t, tmpl)
	assert.Equal(t, "mystery_algo", tmpl.Name)
	assert.Equal(t, "unknown", tmpl.Category)
}

func TestGetIsSlugTolerant(t *testing.T) {
	lib := loadedLibrary(t)

	assert.NotNil(t, lib.Get("BubbleSort"))
	assert.True(t, lib.Has("bubblesort"))
	assert.False(t, lib.Has("quicksort"))
}

func TestGetTemplateMatchesSizeBySubstring(t *testing.T) {
	lib := loadedLibrary(t)

	small := lib.GetTemplate("bubblesort", "small")
	require.NotNil(t, small)
	frames := small["frames"].([]any)
	assert.Len(t, frames, 1)

	medium := lib.GetTemplate("bubblesort", "medium")
	require.NotNil(t, medium)
	assert.NotEqual(t, small["frames"], medium["frames"])
}

func TestGetTemplateFallsBackToFirstDeclaredVariant(t *testing.T) {
	lib := loadedLibrary(t)

	// No "large" variant exists; the first declared one (small_5) serves.
	fallback := lib.GetTemplate("bubblesort", "large")
	require.NotNil(t, fallback)
	assert.Equal(t, lib.GetTemplate("bubblesort", "small"), fallback)
}

func TestGetFullTraceAssemblesDocument(t *testing.T) {
	lib := loadedLibrary(t)

	trace := lib.GetFullTrace("bubblesort", "small")
	require.NotNil(t, trace)
	assert.Equal(t, "BubbleSort Visualization", trace["title"])
	assert.Equal(t, "Repeatedly swap adjacent out-of-order elements.", trace["strategy"])
	assert.NotEmpty(t, trace.Frames())

	meta := trace["_meta"].(map[string]any)
	assert.Equal(t, "precomputed_library", meta["source"])
	assert.Equal(t, true, meta["cached"])
}

func TestGetFullTraceUnknownAlgorithm(t *testing.T) {
	lib := loadedLibrary(t)
	assert.Nil(t, lib.GetFullTrace("quicksort", "small"))
}

func TestListAndCategories(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "bubblesort.json", bubbleSortJSON)
	writeTemplate(t, dir, "mystery.json", minimalJSON)

	lib := library.NewLibrary(dir)
	_, err := lib.Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"bubblesort", "mystery"}, lib.List())
	assert.Equal(t, []string{"bubblesort"}, lib.ListByCategory("sorting"))
	assert.ElementsMatch(t, []string{"sorting", "unknown"}, lib.Categories())

	stats := lib.Stats()
	assert.Equal(t, 2, stats.TotalAlgorithms)
	assert.Equal(t, 1, stats.Categories["sorting"])
}
