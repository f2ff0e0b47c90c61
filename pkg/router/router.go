// Package router decides, per request, whether a trace can be served
// instantly from cache or templates, served fast with an algorithm hint,
// or must go to the full generation pipeline.
package router

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/algoinsight/trace-router/pkg/cache"
	"github.com/algoinsight/trace-router/pkg/library"
	"github.com/algoinsight/trace-router/pkg/matcher"
	"github.com/algoinsight/trace-router/pkg/observability/logging"
	"github.com/algoinsight/trace-router/pkg/observability/metrics"
	"github.com/algoinsight/trace-router/pkg/observability/tracing"
	"github.com/algoinsight/trace-router/pkg/tracedoc"
)

// Routing paths.
const (
	PathInstant = "instant"
	PathFast    = "fast"
	PathFull    = "full"
)

// Route sources.
const (
	SourceExactCache    = "exact_cache"
	SourceTemplateCache = "template_cache"
	SourceLibrary       = "library"
	SourcePatternHint   = "pattern_hint"
	SourceNone          = "none"
)

// Confidence thresholds for the fast and instant paths.
const (
	DefaultFastThreshold    = 0.7
	DefaultInstantThreshold = 0.8
)

// RouteResult is the outcome of a single routing decision.
type RouteResult struct {
	Path        string            `json:"path"`
	Payload     tracedoc.Document `json:"payload,omitempty"`
	AlgorithmID string            `json:"algorithm_id,omitempty"`
	Confidence  float64           `json:"confidence"`
	Source      string            `json:"source"`
	Elapsed     time.Duration     `json:"-"`
	ElapsedMs   float64           `json:"elapsed_ms"`
}

// Options configures a Router. Zero thresholds fall back to the defaults.
type Options struct {
	FastThreshold    float64
	InstantThreshold float64
}

// pathStats accumulates per-path counters. Counters are monotonic for the
// process lifetime; AvgLatencyMs is a running average.
type pathStats struct {
	Count        int64   `json:"count"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// Stats is the router's aggregate view, including the subsystems it
// fronts.
type Stats struct {
	TotalRequests int64                `json:"total_requests"`
	Paths         map[string]pathStats `json:"paths"`
	PathRates     map[string]float64   `json:"path_rates"`
	Cache         cache.ManagerStats   `json:"cache"`
	Library       library.Stats        `json:"library"`
}

// Router joins the cache tiers, the pattern matcher and the template
// library into a single routing decision.
type Router struct {
	cache   *cache.Manager
	matcher *matcher.PatternMatcher
	library *library.Library
	fast    float64
	instant float64

	mu     sync.Mutex
	total  int64
	byPath map[string]*pathStats
}

// New builds a Router over an existing cache manager, matcher and
// library.
func New(cm *cache.Manager, pm *matcher.PatternMatcher, lib *library.Library, opts Options) *Router {
	if opts.FastThreshold <= 0 {
		opts.FastThreshold = DefaultFastThreshold
	}
	if opts.InstantThreshold <= 0 {
		opts.InstantThreshold = DefaultInstantThreshold
	}
	return &Router{
		cache:   cm,
		matcher: pm,
		library: lib,
		fast:    opts.FastThreshold,
		instant: opts.InstantThreshold,
		byPath: map[string]*pathStats{
			PathInstant: {},
			PathFast:    {},
			PathFull:    {},
		},
	}
}

// cacheProbe carries the exact-cache side of the concurrent lookup.
type cacheProbe struct {
	doc tracedoc.Document
	ok  bool
}

// Route decides how to serve one request. The exact-cache check and the
// pattern match run concurrently; an exact hit always wins regardless of
// matcher confidence. Failures in either subsystem degrade to a miss for
// that subsystem only. The context is used for tracing; the lookup itself
// is not cancellable.
func (r *Router) Route(ctx context.Context, problemText string, constraints []string, userInputs map[string]any) RouteResult {
	start := time.Now()
	_, span := tracing.StartRouteSpan(ctx)

	cacheCh := make(chan cacheProbe, 1)
	matchCh := make(chan *matcher.MatchResult, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				logging.Errorf("Cache lookup panic, treating as miss: %v", rec)
				cacheCh <- cacheProbe{}
			}
		}()
		doc, ok := r.cache.GetExact(problemText, constraints)
		cacheCh <- cacheProbe{doc: doc, ok: ok}
	}()

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				logging.Errorf("Pattern match panic, treating as no match: %v", rec)
				matchCh <- nil
			}
		}()
		matchCh <- r.matcher.Match(problemText, r.fast)
	}()

	probe := <-cacheCh
	match := <-matchCh

	var result RouteResult
	switch {
	case probe.ok:
		result = RouteResult{
			Path:       PathInstant,
			Payload:    probe.doc,
			Confidence: 1.0,
			Source:     SourceExactCache,
		}
		if match != nil {
			result.AlgorithmID = match.AlgorithmID
		}
	case match != nil && match.Confidence >= r.instant:
		result = r.routeByTemplate(match, userInputs, problemText)
	case match != nil:
		result = RouteResult{
			Path:        PathFast,
			AlgorithmID: match.AlgorithmID,
			Confidence:  match.Confidence,
			Source:      SourcePatternHint,
		}
	default:
		result = RouteResult{Path: PathFull, Source: SourceNone}
	}

	result.Elapsed = time.Since(start)
	result.ElapsedMs = float64(result.Elapsed.Microseconds()) / 1000.0

	r.recordOutcome(result)
	tracing.EndRouteSpan(span, result.Path, result.Source, result.Confidence, result.Elapsed.Milliseconds())
	logging.LogEvent("route_decision", map[string]any{
		"path":       result.Path,
		"source":     result.Source,
		"algorithm":  result.AlgorithmID,
		"confidence": result.Confidence,
		"elapsed_ms": result.ElapsedMs,
	})
	return result
}

// routeByTemplate serves a high-confidence match from the template tier
// or the library, customized with the user's inputs. When neither has a
// trace for the algorithm the request downgrades to the fast path.
func (r *Router) routeByTemplate(match *matcher.MatchResult, userInputs map[string]any, problemText string) RouteResult {
	bucket := inputBucket(userInputs)

	if doc, ok := r.cache.GetTemplate(match.AlgorithmID, bucket); ok {
		return RouteResult{
			Path:        PathInstant,
			Payload:     library.CustomizeTrace(doc, userInputs, problemText),
			AlgorithmID: match.AlgorithmID,
			Confidence:  match.Confidence,
			Source:      SourceTemplateCache,
		}
	}

	if trace := r.library.GetFullTrace(match.AlgorithmID, bucket); trace != nil {
		r.cache.StoreTemplate(match.AlgorithmID, bucket, trace)
		return RouteResult{
			Path:        PathInstant,
			Payload:     library.CustomizeTrace(trace, userInputs, problemText),
			AlgorithmID: match.AlgorithmID,
			Confidence:  match.Confidence,
			Source:      SourceLibrary,
		}
	}

	return RouteResult{
		Path:        PathFast,
		AlgorithmID: match.AlgorithmID,
		Confidence:  match.Confidence,
		Source:      SourcePatternHint,
	}
}

// inputBucket derives the template size bucket from the user's inputs,
// preferring the primary array when one is present.
func inputBucket(userInputs map[string]any) string {
	if len(userInputs) == 0 {
		return cache.BucketMedium
	}
	for _, name := range []string{"arr", "nums", "input", "array", "data"} {
		if v, ok := userInputs[name]; ok {
			return cache.SizeBucket(v)
		}
	}
	return cache.SizeBucket(userInputs)
}

// StoreResult accepts a freshly generated trace from the caller and
// writes it into the cache tiers. Documents that fail the servability
// check are rejected so a malformed generation never becomes a future
// instant hit.
func (r *Router) StoreResult(ctx context.Context, problemText string, constraints []string, doc tracedoc.Document, algorithmID string) bool {
	if !doc.IsServable() {
		logging.Warnf("Rejecting unservable generated trace: algorithm=%q", algorithmID)
		return false
	}

	r.cache.StoreExact(problemText, constraints, doc)

	if algorithmID != "" {
		bucket := cache.BucketMedium
		if data := doc.FirstFrameData(); data != nil {
			bucket = cache.SizeBucket(data)
		}
		r.cache.StoreTemplate(algorithmID, bucket, doc)
	}
	return true
}

// WarmUp loads the template library and seeds the template cache tier
// with one entry per algorithm and size bucket.
func (r *Router) WarmUp(ctx context.Context) error {
	count, err := r.library.Load()
	if err != nil {
		return err
	}

	seeded := 0
	for _, id := range r.library.List() {
		for _, bucket := range []string{cache.BucketSmall, cache.BucketMedium, cache.BucketLarge} {
			if trace := r.library.GetFullTrace(id, bucket); trace != nil {
				r.cache.StoreTemplate(id, bucket, trace)
				seeded++
			}
		}
	}
	logging.Infof("Router warm-up complete: %d algorithms loaded, %d template entries seeded", count, seeded)
	return nil
}

func (r *Router) recordOutcome(result RouteResult) {
	r.mu.Lock()
	r.total++
	if ps, ok := r.byPath[result.Path]; ok {
		ps.Count++
		ps.AvgLatencyMs += (result.ElapsedMs - ps.AvgLatencyMs) / float64(ps.Count)
	}
	r.mu.Unlock()

	metrics.RecordRouteOutcome(result.Path, result.Source, result.Elapsed.Seconds())
}

// Stats returns the aggregate routing view.
func (r *Router) Stats() Stats {
	r.mu.Lock()
	total := r.total
	paths := make(map[string]pathStats, len(r.byPath))
	for name, ps := range r.byPath {
		paths[name] = *ps
	}
	r.mu.Unlock()

	rates := make(map[string]float64, len(paths))
	for name, ps := range paths {
		if total > 0 {
			rates[name] = float64(ps.Count) / float64(total)
		}
	}

	return Stats{
		TotalRequests: total,
		Paths:         paths,
		PathRates:     rates,
		Cache:         r.cache.Stats(),
		Library:       r.library.Stats(),
	}
}

// ClearCaches empties every cache tier, memory and durable alike.
func (r *Router) ClearCaches() {
	r.cache.ClearAll()
}

// AvailableAlgorithms lists the algorithm IDs the router can serve
// instantly from the library.
func (r *Router) AvailableAlgorithms() []string {
	return r.library.List()
}

// AlgorithmInfo describes one algorithm's routing-relevant metadata, or
// nil when unknown.
func (r *Router) AlgorithmInfo(id string) map[string]any {
	tpl := r.library.Get(id)
	if tpl == nil {
		return nil
	}
	sizes := make([]string, 0, len(tpl.Templates))
	for size := range tpl.Templates {
		sizes = append(sizes, size)
	}
	sort.Strings(sizes)
	return map[string]any{
		"algorithm_id": tpl.AlgorithmID,
		"name":         tpl.Name,
		"category":     tpl.Category,
		"complexity":   tpl.Complexity,
		"strategy":     tpl.Strategy,
		"sizes":        sizes,
	}
}
