// Package library loads precomputed algorithm-template documents from disk
// and assembles ready-to-serve traces from them. Templates are immutable
// once loaded; request-path code only reads, and customization always
// operates on a deep copy.
package library

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/algoinsight/trace-router/pkg/cache"
	"github.com/algoinsight/trace-router/pkg/observability/logging"
	"github.com/algoinsight/trace-router/pkg/observability/metrics"
	"github.com/algoinsight/trace-router/pkg/tracedoc"
)

// AlgorithmTemplate is one precomputed algorithm document.
type AlgorithmTemplate struct {
	AlgorithmID     string                    `json:"algorithm_id"`
	Name            string                    `json:"algorithm_name"`
	Category        string                    `json:"category"`
	Complexity      map[string]any            `json:"complexity"`
	Strategy        string                    `json:"strategy"`
	StrategyDetails string                    `json:"strategy_details"`
	Templates       map[string]map[string]any `json:"templates"` // size key -> variant
	QuizBank        []map[string]any          `json:"quiz_bank"`

	// sizeOrder preserves the declaration order of size variants so the
	// fallback to "first available variant" is deterministic.
	sizeOrder []string
}

// Stats summarizes the loaded library.
type Stats struct {
	TotalAlgorithms int            `json:"total_algorithms"`
	Categories      map[string]int `json:"categories"`
	SkippedFiles    int            `json:"skipped_files"`
	Dir             string         `json:"directory"`
}

// Library holds the full template set, loaded once at startup and
// optionally hot-reloaded.
type Library struct {
	mu         sync.RWMutex
	dir        string
	algorithms map[string]*AlgorithmTemplate
	skipped    int
}

// NewLibrary creates a library over a directory of JSON template
// documents. Call Load before use.
func NewLibrary(dir string) *Library {
	return &Library{
		dir:        dir,
		algorithms: make(map[string]*AlgorithmTemplate),
	}
}

// Load reads every template document under the library directory.
// Malformed documents are logged, counted and skipped; they never abort
// the rest of the load. Returns the number of algorithms loaded.
func (l *Library) Load() (int, error) {
	loaded := make(map[string]*AlgorithmTemplate)
	skipped := 0

	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}

		tmpl, loadErr := loadTemplateFile(path)
		if loadErr != nil {
			logging.Errorf("Failed to load template %s: %v", path, loadErr)
			metrics.RecordTemplateSkipped()
			skipped++
			return nil
		}
		loaded[tmpl.AlgorithmID] = tmpl
		logging.Debugf("Loaded algorithm template: %s", tmpl.AlgorithmID)
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logging.Warnf("Template directory not found: %s", l.dir)
			return 0, nil
		}
		return 0, err
	}

	l.mu.Lock()
	l.algorithms = loaded
	l.skipped = skipped
	l.mu.Unlock()

	metrics.UpdateTemplatesLoaded(len(loaded))
	logging.Infof("Algorithm library loaded: %d algorithms (%d skipped)", len(loaded), skipped)
	return len(loaded), nil
}

func loadTemplateFile(path string) (*AlgorithmTemplate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tmpl AlgorithmTemplate
	if err := json.Unmarshal(raw, &tmpl); err != nil {
		return nil, err
	}
	if tmpl.AlgorithmID == "" {
		tmpl.AlgorithmID = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	if tmpl.Name == "" {
		tmpl.Name = tmpl.AlgorithmID
	}
	if tmpl.Category == "" {
		tmpl.Category = "unknown"
	}

	// A second decode pass into an ordered shadow recovers the size-variant
	// declaration order, which map decoding discards.
	tmpl.sizeOrder = sizeKeyOrder(raw)
	return &tmpl, nil
}

// sizeKeyOrder extracts the key order of the top-level "templates" object.
func sizeKeyOrder(raw []byte) []string {
	var shadow struct {
		Templates json.RawMessage `json:"templates"`
	}
	if err := json.Unmarshal(raw, &shadow); err != nil || len(shadow.Templates) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(shadow.Templates))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil
	}

	var order []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return order
		}
		key, ok := keyTok.(string)
		if !ok {
			return order
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return order
		}
		order = append(order, key)
	}
	return order
}

// Get returns the template for a (slugified) algorithm identity.
func (l *Library) Get(algorithmID string) *AlgorithmTemplate {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.algorithms[cache.Slug(algorithmID)]
}

// Has reports whether the algorithm exists in the library.
func (l *Library) Has(algorithmID string) bool {
	return l.Get(algorithmID) != nil
}

// GetTemplate returns the size variant whose key contains size, falling
// back to the first declared variant when the requested size is missing.
// The fallback is documented permissive behavior, not a silent bug.
func (l *Library) GetTemplate(algorithmID, size string) map[string]any {
	tmpl := l.Get(algorithmID)
	if tmpl == nil {
		return nil
	}

	for _, key := range tmpl.sizeOrder {
		if strings.Contains(key, size) {
			return tmpl.Templates[key]
		}
	}
	for _, key := range tmpl.sizeOrder {
		if variant, ok := tmpl.Templates[key]; ok {
			return variant
		}
	}
	return nil
}

// GetFullTrace assembles a ready-to-serve document from the template's
// narrative metadata and the chosen size variant's frames. Returns nil if
// the identity or every variant is absent.
func (l *Library) GetFullTrace(algorithmID, size string) tracedoc.Document {
	tmpl := l.Get(algorithmID)
	if tmpl == nil {
		return nil
	}
	variant := l.GetTemplate(algorithmID, size)
	if variant == nil {
		return nil
	}

	frames, _ := variant["frames"].([]any)
	return tracedoc.Document{
		"title":            tmpl.Name + " Visualization",
		"strategy":         tmpl.Strategy,
		"strategy_details": tmpl.StrategyDetails,
		"complexity":       tmpl.Complexity,
		"frames":           frames,
		"_meta": map[string]any{
			"source":       "precomputed_library",
			"algorithm_id": algorithmID,
			"size":         size,
			"cached":       true,
		},
	}
}

// List returns all algorithm IDs.
func (l *Library) List() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := make([]string, 0, len(l.algorithms))
	for id := range l.algorithms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ListByCategory returns the algorithm IDs in one category.
func (l *Library) ListByCategory(category string) []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var ids []string
	for id, tmpl := range l.algorithms {
		if tmpl.Category == category {
			ids = append(ids, id)
		}
	}
	return ids
}

// Categories returns every distinct category.
func (l *Library) Categories() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	seen := make(map[string]bool)
	var categories []string
	for _, tmpl := range l.algorithms {
		if !seen[tmpl.Category] {
			seen[tmpl.Category] = true
			categories = append(categories, tmpl.Category)
		}
	}
	return categories
}

// Stats returns library statistics.
func (l *Library) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	categories := make(map[string]int)
	for _, tmpl := range l.algorithms {
		categories[tmpl.Category]++
	}
	return Stats{
		TotalAlgorithms: len(l.algorithms),
		Categories:      categories,
		SkippedFiles:    l.skipped,
		Dir:             l.dir,
	}
}

// Watch hot-reloads the library whenever a template document changes.
// It blocks until ctx is cancelled and is intended to run in its own
// goroutine.
func (l *Library) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(l.dir); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !strings.HasSuffix(event.Name, ".json") {
				continue
			}
			logging.Infof("Template change detected (%s), reloading library", event.Name)
			if _, err := l.Load(); err != nil {
				logging.Errorf("Library hot reload failed: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warnf("Template watcher error: %v", err)
		}
	}
}
