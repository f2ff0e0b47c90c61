package tracedoc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algoinsight/trace-router/pkg/tracedoc"
)

func validDoc() tracedoc.Document {
	return tracedoc.Document{
		"title": "demo",
		"frames": []any{
			map[string]any{
				"state": map[string]any{
					"data": map[string]any{"arr": []any{float64(1), float64(2)}},
				},
			},
			map[string]any{
				"state": map[string]any{
					"data": map[string]any{},
				},
			},
		},
	}
}

func TestCloneIsIndependent(t *testing.T) {
	original := validDoc()
	clone := original.Clone()
	require.Equal(t, original, clone)

	data := tracedoc.FrameData(clone.Frames()[0])
	data["arr"] = []any{float64(9)}

	assert.Equal(t, []any{float64(1), float64(2)}, original.FirstFrameData()["arr"])
}

func TestCloneNil(t *testing.T) {
	var d tracedoc.Document
	assert.Nil(t, d.Clone())
}

func TestFrameAccessorsTolerateBadShapes(t *testing.T) {
	assert.Nil(t, tracedoc.Document{"frames": "not a list"}.Frames())
	assert.Nil(t, tracedoc.FrameState("not a map"))
	assert.Nil(t, tracedoc.FrameData(map[string]any{"state": "not a map"}))
	assert.Nil(t, tracedoc.Document{}.FirstFrameData())
}

func TestIsServable(t *testing.T) {
	assert.True(t, validDoc().IsServable())

	cases := []struct {
		name string
		doc  tracedoc.Document
	}{
		{"no frames key", tracedoc.Document{"title": "x"}},
		{"empty frames", tracedoc.Document{"frames": []any{}}},
		{"frame without state", tracedoc.Document{"frames": []any{map[string]any{}}}},
		{
			"frame state without data key",
			tracedoc.Document{"frames": []any{
				map[string]any{"state": map[string]any{}},
			}},
		},
		{
			"first frame data empty",
			tracedoc.Document{"frames": []any{
				map[string]any{"state": map[string]any{"data": map[string]any{}}},
			}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, tc.doc.IsServable())
		})
	}
}
