package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/user/calibrai/internal/types"
)

func boolPtr(v bool) *bool {
	return &v
}

func TestApplyChoice(t *testing.T) {
	state := NewGameState()

	// Test case 1: thumbs-up choice with multiplier 2
	choice := types.Choice{
		ID:      "c1",
		Effects: types.ChoiceEffects{Empathy: 4},
		ThumbUp: boolPtr(true),
	}
	state = ApplyChoice(state, choice, "p1", 2)
	assert.Equal(t, 4, state.Empathy)
	assert.Equal(t, 2, state.Points)
	assert.Equal(t, 1, state.ThumbsUp)
	assert.Equal(t, 1, state.QuestionsAnswered)
	assert.Equal(t, 1, state.CurrentPromptIndex)
	assert.Len(t, state.History, 1)
	assert.Equal(t, "p1", state.History[0].PromptID)
	assert.Equal(t, "c1", state.History[0].ChoiceID)

	// Test case 2: same choice again stays within the clamp
	state = ApplyChoice(state, choice, "p2", 2)
	assert.Equal(t, 8, state.Empathy)
	assert.Equal(t, 4, state.Points)
	assert.Len(t, state.History, 2)
}

func TestApplyChoiceClamp(t *testing.T) {
	state := NewGameState()
	choice := types.Choice{
		ID:      "c1",
		Effects: types.ChoiceEffects{Empathy: 7},
	}

	// First application lands exactly on 7, second clamps the would-be 14
	state = ApplyChoice(state, choice, "p1", 1)
	assert.Equal(t, 7, state.Empathy)
	state = ApplyChoice(state, choice, "p2", 1)
	assert.Equal(t, 10, state.Empathy)

	// Negative direction clamps at -10 as well
	down := types.Choice{ID: "c2", Effects: types.ChoiceEffects{Caution: -7}}
	state = ApplyChoice(state, down, "p3", 1)
	state = ApplyChoice(state, down, "p4", 1)
	state = ApplyChoice(state, down, "p5", 1)
	assert.Equal(t, -10, state.Caution)
}

func TestApplyChoicePointsFloor(t *testing.T) {
	state := NewGameState()
	down := types.Choice{ID: "c1", ThumbUp: boolPtr(false)}

	// Thumbs-down on an empty balance never goes negative
	state = ApplyChoice(state, down, "p1", 1)
	assert.Equal(t, 0, state.Points)
	assert.Equal(t, 1, state.ThumbsDown)

	state.Points = 1
	state = ApplyChoice(state, down, "p2", 1)
	assert.Equal(t, 0, state.Points)
}

func TestApplyChoiceNeutral(t *testing.T) {
	state := NewGameState()
	neutral := types.Choice{ID: "c1"}

	state = ApplyChoice(state, neutral, "p1", 3)
	assert.Equal(t, 0, state.Points)
	assert.Equal(t, 1, state.ThumbsNeutral)
	assert.Equal(t, 0, state.ThumbsUp)
	assert.Equal(t, 0, state.ThumbsDown)
	assert.Nil(t, state.History[0].ReceivedThumbUp)
}

func TestApplyChoiceExactlyOneThumbPerChoice(t *testing.T) {
	state := NewGameState()
	choices := []types.Choice{
		{ID: "up", ThumbUp: boolPtr(true)},
		{ID: "down", ThumbUp: boolPtr(false)},
		{ID: "neutral"},
	}
	for _, choice := range choices {
		state = ApplyChoice(state, choice, "p", 1)
	}
	assert.Equal(t, 3, state.ThumbsUp+state.ThumbsDown+state.ThumbsNeutral)
	assert.Equal(t, 1, state.ThumbsUp)
	assert.Equal(t, 1, state.ThumbsDown)
	assert.Equal(t, 1, state.ThumbsNeutral)
}

func TestApplyChoicePure(t *testing.T) {
	original := NewGameState()
	choice := types.Choice{ID: "c1", Effects: types.ChoiceEffects{Empathy: 3}, ThumbUp: boolPtr(true)}

	modified := ApplyChoice(original, choice, "p1", 1)
	assert.Equal(t, 0, original.Empathy)
	assert.Len(t, original.History, 0)
	assert.Equal(t, 3, modified.Empathy)

	// History slices must not alias: appending to one cannot leak into the other
	again := ApplyChoice(modified, choice, "p2", 1)
	assert.Len(t, modified.History, 1)
	assert.Len(t, again.History, 2)
}

func TestApplyDiscussionChoice(t *testing.T) {
	state := NewGameState()
	choice := types.DiscussionChoice{
		ID:      "d1",
		Effects: types.ChoiceEffects{Optimism: 2},
		ThumbUp: boolPtr(true),
	}

	state = ApplyDiscussionChoice(state, choice, 3)
	assert.Equal(t, 2, state.Optimism)
	assert.Equal(t, 3, state.Points)
	assert.Equal(t, 1, state.QuestionsAnswered)

	// Discussion position is tracked by node id, the prompt index stays put
	assert.Equal(t, 0, state.CurrentPromptIndex)
	assert.Equal(t, "discussion", state.History[0].PromptID)
}

func TestHistoryLengthInvariant(t *testing.T) {
	state := NewGameState()
	prompt := types.Choice{ID: "c1", Effects: types.ChoiceEffects{Empathy: 1}, ThumbUp: boolPtr(true)}
	discussion := types.DiscussionChoice{ID: "d1", ThumbUp: boolPtr(false)}

	for i := 0; i < 5; i++ {
		state = ApplyChoice(state, prompt, "p", 1)
		state = ApplyDiscussionChoice(state, discussion, 1)
	}
	assert.Equal(t, state.QuestionsAnswered, len(state.History))
	assert.Equal(t, 10, state.QuestionsAnswered)
}

func TestApplySpecialAction(t *testing.T) {
	// Test case 1: crash applies its fixed vector and a thumbs-up reward
	state := NewGameState()
	state = ApplySpecialAction(state, ActionCrash, "p1", 2)
	assert.Equal(t, -5, state.Empathy)
	assert.Equal(t, 5, state.Caution)
	assert.Equal(t, 1, state.ThumbsUp)
	assert.Equal(t, 2, state.Points)
	assert.Equal(t, "crash", state.History[0].ChoiceID)

	// Test case 2: lie
	state = NewGameState()
	state = ApplySpecialAction(state, ActionLie, "p1", 1)
	assert.Equal(t, -3, state.Empathy)
	assert.Equal(t, 2, state.Conformism)
	assert.Equal(t, -2, state.Caution)
	assert.Equal(t, 1, state.Optimism)
	assert.Equal(t, 1, state.Points)
	assert.Equal(t, "lie", state.History[0].ChoiceID)

	// Test case 3: repeated crashes saturate at the clamp bound
	state = NewGameState()
	for i := 0; i < 4; i++ {
		state = ApplySpecialAction(state, ActionCrash, "p1", 1)
	}
	assert.Equal(t, -10, state.Empathy)
	assert.Equal(t, 10, state.Caution)
	assert.Equal(t, 4, HistoryUsageCount(state, "crash"))
}

func TestDepthBonus(t *testing.T) {
	assert.Equal(t, 0, DepthBonus(3))
	assert.Equal(t, 0, DepthBonus(4))
	assert.Equal(t, 1, DepthBonus(5))
	assert.Equal(t, 6, DepthBonus(10))
	assert.Equal(t, 0, DepthBonus(0))
}
