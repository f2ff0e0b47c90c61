// Package tracedoc defines the trace document that flows through the cache
// and routing layers. Cache tiers treat it as an opaque JSON-serializable
// value; the router and customizer use the narrow accessors below for the
// few fields they must inspect.
package tracedoc

import "encoding/json"

// Document is an opaque JSON-serializable trace payload.
type Document map[string]any

// Clone returns a deep copy of the document via a JSON round-trip.
// The payload contract guarantees JSON serializability.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return nil
	}
	var out Document
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// Frames returns the document's frame list, or nil if absent or mistyped.
func (d Document) Frames() []any {
	frames, _ := d["frames"].([]any)
	return frames
}

// FrameState returns the state map of a frame value, or nil.
func FrameState(frame any) map[string]any {
	f, ok := frame.(map[string]any)
	if !ok {
		return nil
	}
	state, _ := f["state"].(map[string]any)
	return state
}

// FrameData returns the state.data map of a frame value, or nil.
func FrameData(frame any) map[string]any {
	state := FrameState(frame)
	if state == nil {
		return nil
	}
	data, _ := state["data"].(map[string]any)
	return data
}

// FirstFrameData returns the state.data of the first frame, or nil.
func (d Document) FirstFrameData() map[string]any {
	frames := d.Frames()
	if len(frames) == 0 {
		return nil
	}
	return FrameData(frames[0])
}

// IsServable reports whether the document is complete enough to cache and
// serve: at least one frame, and the first frame carries non-empty state data.
// This is the only shape validation the core performs on externally
// generated results.
func (d Document) IsServable() bool {
	frames := d.Frames()
	if len(frames) == 0 {
		return false
	}
	for _, frame := range frames {
		state := FrameState(frame)
		if state == nil {
			return false
		}
		if _, ok := state["data"]; !ok {
			return false
		}
	}
	return len(d.FirstFrameData()) > 0
}
