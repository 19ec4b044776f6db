package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/user/calibrai/internal/types"
)

func TestMergeIteration(t *testing.T) {
	cumulative := types.GameState{
		Empathy:           8,
		Conformism:        -4,
		ThumbsUp:          12,
		ThumbsDown:        3,
		Points:            20,
		QuestionsAnswered: 15,
		History:           []types.AnswerHistory{{PromptID: "p1", ChoiceID: "a"}},
	}
	iteration := types.GameState{
		Empathy:            6,
		Conformism:         -9,
		ThumbsUp:           5,
		ThumbsNeutral:      2,
		Points:             7,
		DepthPoints:        3,
		QuestionsAnswered:  7,
		CurrentPromptIndex: 7,
		History:            []types.AnswerHistory{{PromptID: "p2", ChoiceID: "b"}, {PromptID: "p3", ChoiceID: "c"}},
	}

	merged := MergeIteration(cumulative, iteration)

	// Axes add without clamping; cumulative totals are unbounded
	assert.Equal(t, 14, merged.Empathy)
	assert.Equal(t, -13, merged.Conformism)

	assert.Equal(t, 17, merged.ThumbsUp)
	assert.Equal(t, 3, merged.ThumbsDown)
	assert.Equal(t, 2, merged.ThumbsNeutral)

	// Depth bonus folds into points and never persists standalone
	assert.Equal(t, 30, merged.Points)
	assert.Equal(t, 0, merged.DepthPoints)

	assert.Equal(t, 22, merged.QuestionsAnswered)
	assert.Equal(t, 0, merged.CurrentPromptIndex)

	// History concatenates in order, never reordered or deduped
	assert.Len(t, merged.History, 3)
	assert.Equal(t, "p1", merged.History[0].PromptID)
	assert.Equal(t, "p2", merged.History[1].PromptID)
	assert.Equal(t, "p3", merged.History[2].PromptID)
}

func TestMergeIterationDepthPointsAlwaysReset(t *testing.T) {
	merged := MergeIteration(types.GameState{DepthPoints: 5}, types.GameState{DepthPoints: 4})
	assert.Equal(t, 0, merged.DepthPoints)
	assert.Equal(t, 4, merged.Points)
}

func TestMergeIterationDoesNotAliasHistory(t *testing.T) {
	cumulative := types.GameState{History: []types.AnswerHistory{{PromptID: "p1"}}}
	iteration := types.GameState{History: []types.AnswerHistory{{PromptID: "p2"}}}

	merged := MergeIteration(cumulative, iteration)
	merged.History[0].PromptID = "changed"
	assert.Equal(t, "p1", cumulative.History[0].PromptID)
}
