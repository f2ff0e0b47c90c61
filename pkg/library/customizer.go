package library

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/algoinsight/trace-router/pkg/tracedoc"
)

// primaryInputNames is the fixed preference order used to pick the
// "primary" user input array for substitution.
var primaryInputNames = []string{"arr", "nums", "input", "array", "data"}

// arrayLiteralPattern matches a literal numeric-array rendering such as
// "[2, 7, 11, 15]" inside commentary text.
var arrayLiteralPattern = regexp.MustCompile(`\[[\d,\s]+\]`)

// CustomizeTrace deep-copies a template trace and substitutes
// user-supplied input arrays into it. With no usable inputs the result is
// a deep-equal copy of the original. The original document is never
// mutated.
func CustomizeTrace(template tracedoc.Document, userInputs map[string]any, problemText string) tracedoc.Document {
	if template == nil {
		return nil
	}

	trace := template.Clone()
	if len(userInputs) == 0 {
		return trace
	}

	inputArrays := extractArrays(userInputs)
	if len(inputArrays) == 0 {
		return trace
	}

	primary := primaryArray(inputArrays)

	if frames := trace.Frames(); frames != nil {
		trace["frames"] = customizeFrames(frames, inputArrays, primary)
	}
	if title, ok := trace["title"].(string); ok && primary != nil {
		trace["title"] = substituteText(title, primary)
	}
	return trace
}

// extractArrays collects the array-valued user inputs. String values that
// parse as JSON arrays count too.
func extractArrays(userInputs map[string]any) map[string][]any {
	arrays := make(map[string][]any)
	for key, value := range userInputs {
		switch v := value.(type) {
		case []any:
			arrays[key] = v
		case string:
			var parsed []any
			if err := json.Unmarshal([]byte(v), &parsed); err == nil {
				arrays[key] = parsed
			}
		}
	}
	return arrays
}

// primaryArray picks the substitution source by the fixed name preference
// order, falling back to any array when none of the preferred names is
// present.
func primaryArray(arrays map[string][]any) []any {
	for _, name := range primaryInputNames {
		if arr, ok := arrays[name]; ok {
			return arr
		}
	}
	for _, arr := range arrays {
		return arr
	}
	return nil
}

func customizeFrames(frames []any, inputArrays map[string][]any, primary []any) []any {
	customized := make([]any, 0, len(frames))
	for _, frame := range frames {
		f, ok := frame.(map[string]any)
		if !ok {
			customized = append(customized, frame)
			continue
		}

		if state, ok := f["state"].(map[string]any); ok {
			if data, ok := state["data"].(map[string]any); ok {
				state["data"] = substituteData(data, inputArrays, primary)
			}
		}
		if commentary, ok := f["commentary"].(string); ok && primary != nil {
			f["commentary"] = substituteText(commentary, primary)
		}
		customized = append(customized, f)
	}
	return customized
}

// substituteData replaces array-valued fields in a frame's state data.
// A field named like a user input takes that input verbatim; fields with
// one of the common primary names take the primary array truncated to the
// original length, never extended.
func substituteData(data map[string]any, inputArrays map[string][]any, primary []any) map[string]any {
	out := make(map[string]any, len(data))
	for key, value := range data {
		original, isArray := value.([]any)
		if !isArray {
			out[key] = value
			continue
		}

		if replacement, ok := inputArrays[key]; ok {
			out[key] = replacement
			continue
		}
		if primary != nil && isPrimaryName(key) && len(original) <= len(primary) {
			out[key] = primary[:len(original)]
			continue
		}
		out[key] = original
	}
	return out
}

func isPrimaryName(key string) bool {
	for _, name := range primaryInputNames {
		if key == name {
			return true
		}
	}
	return false
}

// substituteText replaces the first literal array rendering in text with
// the user's array. Only the first occurrence is replaced; no attempt is
// made to reconcile textual paraphrases beyond this.
func substituteText(text string, arr []any) string {
	replaced := false
	return arrayLiteralPattern.ReplaceAllStringFunc(text, func(match string) string {
		if replaced {
			return match
		}
		replaced = true
		return renderArray(arr)
	})
}

// renderArray formats an array the way the precomputed commentary renders
// them: "[2, 7, 11]".
func renderArray(arr []any) string {
	parts := make([]string, len(arr))
	for i, v := range arr {
		switch n := v.(type) {
		case float64:
			if n == float64(int64(n)) {
				parts[i] = fmt.Sprintf("%d", int64(n))
			} else {
				parts[i] = fmt.Sprintf("%g", n)
			}
		default:
			parts[i] = fmt.Sprintf("%v", v)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// QuizPlacement assigns a quiz question to a frame index.
type QuizPlacement struct {
	FrameIndex int            `json:"frame_index"`
	Quiz       map[string]any `json:"quiz"`
}

// QuizPlacements spreads the quiz bank evenly across the frame count.
func QuizPlacements(quizBank []map[string]any, frameCount int) []QuizPlacement {
	if len(quizBank) == 0 {
		return nil
	}

	interval := frameCount / (len(quizBank) + 1)
	if interval < 2 {
		interval = 2
	}

	placements := make([]QuizPlacement, 0, len(quizBank))
	for i, quiz := range quizBank {
		insertAt := (i + 1) * interval
		if insertAt > frameCount-1 {
			insertAt = frameCount - 1
		}
		placements = append(placements, QuizPlacement{FrameIndex: insertAt, Quiz: quiz})
	}
	return placements
}

// MergeQuizzes inserts quiz placements into a deep copy of frames.
func MergeQuizzes(frames []any, placements []QuizPlacement) []any {
	if len(placements) == 0 {
		return frames
	}

	copied := (tracedoc.Document{"frames": frames}).Clone().Frames()
	for _, placement := range placements {
		if placement.FrameIndex < 0 || placement.FrameIndex >= len(copied) {
			continue
		}
		if frame, ok := copied[placement.FrameIndex].(map[string]any); ok {
			frame["quiz"] = placement.Quiz
		}
	}
	return copied
}
