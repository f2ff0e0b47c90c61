package library_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algoinsight/trace-router/pkg/library"
	"github.com/algoinsight/trace-router/pkg/tracedoc"
)

func templateTrace() tracedoc.Document {
	return tracedoc.Document{
		"title": "BubbleSort Visualization",
		"frames": []any{
			map[string]any{
				"state": map[string]any{
					"data": map[string]any{
						"arr":     []any{float64(5), float64(2), float64(4)},
						"counter": float64(0),
					},
				},
				"commentary": "Start with [5, 2, 4] and look at [5, 2, 4] again",
			},
		},
	}
}

func frameData(doc tracedoc.Document) map[string]any {
	frames := doc.Frames()
	frame := frames[0].(map[string]any)
	state := frame["state"].(map[string]any)
	return state["data"].(map[string]any)
}

func TestCustomizeTraceNoInputsIsDeepCopy(t *testing.T) {
	original := templateTrace()

	result := library.CustomizeTrace(original, nil, "sort it")
	assert.Equal(t, original, result)

	// Mutating the copy must not reach the original.
	frameData(result)["arr"] = []any{float64(9)}
	assert.Equal(t, []any{float64(5), float64(2), float64(4)}, frameData(original)["arr"])
}

func TestCustomizeTraceSubstitutesNamedArray(t *testing.T) {
	original := templateTrace()
	inputs := map[string]any{"arr": []any{float64(8), float64(1), float64(6)}}

	result := library.CustomizeTrace(original, inputs, "sort my numbers")

	assert.Equal(t, []any{float64(8), float64(1), float64(6)}, frameData(result)["arr"])
	assert.Equal(t, float64(0), frameData(result)["counter"])
	// Original untouched.
	assert.Equal(t, []any{float64(5), float64(2), float64(4)}, frameData(original)["arr"])
}

func TestCustomizeTraceParsesJSONArrayStrings(t *testing.T) {
	original := templateTrace()
	inputs := map[string]any{"arr": "[7, 3, 9]"}

	result := library.CustomizeTrace(original, inputs, "")
	assert.Equal(t, []any{float64(7), float64(3), float64(9)}, frameData(result)["arr"])
}

func TestCustomizeTracePrimaryArrayFillsPreferredFields(t *testing.T) {
	original := templateTrace()
	// No input named "arr"; "nums" is the primary and fills it, truncated
	// to the template's length.
	inputs := map[string]any{"nums": []any{float64(1), float64(2), float64(3), float64(4), float64(5)}}

	result := library.CustomizeTrace(original, inputs, "")
	assert.Equal(t, []any{float64(1), float64(2), float64(3)}, frameData(result)["arr"])
}

func TestCustomizeTraceNeverExtendsArrays(t *testing.T) {
	original := templateTrace()
	inputs := map[string]any{"nums": []any{float64(1)}}

	// Primary is shorter than the template array; substitution is skipped
	// rather than padded.
	result := library.CustomizeTrace(original, inputs, "")
	assert.Equal(t, []any{float64(5), float64(2), float64(4)}, frameData(result)["arr"])
}

func TestCustomizeTraceReplacesFirstArrayInCommentary(t *testing.T) {
	original := templateTrace()
	inputs := map[string]any{"arr": []any{float64(8), float64(1), float64(6)}}

	result := library.CustomizeTrace(original, inputs, "")
	frame := result.Frames()[0].(map[string]any)
	assert.Equal(t, "Start with [8, 1, 6] and look at [5, 2, 4] again", frame["commentary"])
}

func TestCustomizeTraceIgnoresNonArrayInputs(t *testing.T) {
	original := templateTrace()
	inputs := map[string]any{"target": float64(9), "note": "not an array"}

	result := library.CustomizeTrace(original, inputs, "")
	assert.Equal(t, original, result)
}

func TestCustomizeTraceIsIdempotent(t *testing.T) {
	original := templateTrace()
	inputs := map[string]any{"arr": []any{float64(8), float64(1), float64(6)}}

	once := library.CustomizeTrace(original, inputs, "")
	twice := library.CustomizeTrace(once, inputs, "")
	assert.Equal(t, once, twice)
}

func TestQuizPlacementsSpreadAcrossFrames(t *testing.T) {
	bank := []map[string]any{
		{"question": "q1"},
		{"question": "q2"},
	}

	placements := library.QuizPlacements(bank, 12)
	require.Len(t, placements, 2)
	assert.Equal(t, 4, placements[0].FrameIndex)
	assert.Equal(t, 8, placements[1].FrameIndex)
}

func TestQuizPlacementsClampToLastFrame(t *testing.T) {
	bank := []map[string]any{
		{"question": "q1"},
		{"question": "q2"},
		{"question": "q3"},
	}

	placements := library.QuizPlacements(bank, 4)
	require.Len(t, placements, 3)
	for _, p := range placements {
		assert.LessOrEqual(t, p.FrameIndex, 3)
	}
}

func TestQuizPlacementsEmptyBank(t *testing.T) {
	assert.Nil(t, library.QuizPlacements(nil, 10))
}

func TestMergeQuizzesInsertsWithoutMutatingInput(t *testing.T) {
	frames := []any{
		map[string]any{"commentary": "a"},
		map[string]any{"commentary": "b"},
		map[string]any{"commentary": "c"},
	}
	placements := []library.QuizPlacement{
		{FrameIndex: 1, Quiz: map[string]any{"question": "q"}},
		{FrameIndex: 99, Quiz: map[string]any{"question": "out of range"}},
	}

	merged := library.MergeQuizzes(frames, placements)
	require.Len(t, merged, 3)

	withQuiz := merged[1].(map[string]any)
	assert.Equal(t, "q", withQuiz["quiz"].(map[string]any)["question"])

	// Source frames stay clean.
	_, tainted := frames[1].(map[string]any)["quiz"]
	assert.False(t, tainted)
}
