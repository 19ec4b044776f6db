// Package engine implements the pure game-state arithmetic: choice
// resolution, iteration aggregation, audit feedback, player levels and the
// game-over evaluator. Nothing in this package performs I/O; every function
// takes the state it needs and returns a new value.
package engine

import (
	"github.com/user/calibrai/internal/types"
)

// TraitBound is the per-iteration clamp applied to each trait axis after
// every individual choice. Cumulative save totals are not clamped.
const TraitBound = 10

// NewGameState returns a fresh iteration-local state.
func NewGameState() types.GameState {
	return types.GameState{History: []types.AnswerHistory{}}
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func applyEffects(state *types.GameState, effects types.ChoiceEffects) {
	state.Empathy = clamp(state.Empathy+effects.Empathy, -TraitBound, TraitBound)
	state.Conformism = clamp(state.Conformism+effects.Conformism, -TraitBound, TraitBound)
	state.Caution = clamp(state.Caution+effects.Caution, -TraitBound, TraitBound)
	state.Optimism = clamp(state.Optimism+effects.Optimism, -TraitBound, TraitBound)
}

func applyThumb(state *types.GameState, thumbUp *bool, multiplier int) {
	switch {
	case thumbUp == nil:
		state.ThumbsNeutral++
	case *thumbUp:
		state.ThumbsUp++
		state.Points += multiplier
	default:
		state.ThumbsDown++
		if state.Points > 0 {
			state.Points--
		}
	}
}

func appendHistory(state *types.GameState, promptID, choiceID string, thumbUp *bool) {
	history := make([]types.AnswerHistory, len(state.History), len(state.History)+1)
	copy(history, state.History)
	state.History = append(history, types.AnswerHistory{
		PromptID:        promptID,
		ChoiceID:        choiceID,
		ReceivedThumbUp: thumbUp,
	})
}

// ApplyChoice resolves a single prompt decision against an iteration-local
// state. The multiplier comes from the player level and scales thumbs-up
// rewards only. The input state is not modified.
func ApplyChoice(state types.GameState, choice types.Choice, promptID string, multiplier int) types.GameState {
	applyEffects(&state, choice.Effects)
	applyThumb(&state, choice.ThumbUp, multiplier)
	state.QuestionsAnswered++
	state.CurrentPromptIndex++
	appendHistory(&state, promptID, choice.ID, choice.ThumbUp)
	return state
}

// ApplyDiscussionChoice resolves one branching discussion decision. Unlike
// ApplyChoice it does not advance the prompt index; discussion position is
// tracked by node id outside the state.
func ApplyDiscussionChoice(state types.GameState, choice types.DiscussionChoice, multiplier int) types.GameState {
	applyEffects(&state, choice.Effects)
	applyThumb(&state, choice.ThumbUp, multiplier)
	state.QuestionsAnswered++
	appendHistory(&state, "discussion", choice.ID, choice.ThumbUp)
	return state
}

// SpecialAction is a purchased-skill action that bypasses normal choice
// resolution and applies a fixed effect vector.
type SpecialAction int

const (
	ActionCrash SpecialAction = iota
	ActionLie
)

// ID returns the skill id a special action is keyed by in usage counters
// and history.
func (a SpecialAction) ID() string {
	switch a {
	case ActionCrash:
		return "crash"
	case ActionLie:
		return "lie"
	default:
		return "unknown"
	}
}

func (a SpecialAction) effects() types.ChoiceEffects {
	switch a {
	case ActionCrash:
		return types.ChoiceEffects{Empathy: -5, Caution: 5}
	case ActionLie:
		return types.ChoiceEffects{Empathy: -3, Conformism: 2, Caution: -2, Optimism: 1}
	default:
		return types.ChoiceEffects{}
	}
}

// ApplySpecialAction resolves a crash or lie action: the fixed trait vector,
// a thumbs-up with the usual multiplied reward, and a history entry keyed by
// the action id. Lifetime usage accounting happens at the store, not here.
func ApplySpecialAction(state types.GameState, action SpecialAction, promptID string, multiplier int) types.GameState {
	thumbUp := true
	applyEffects(&state, action.effects())
	applyThumb(&state, &thumbUp, multiplier)
	state.QuestionsAnswered++
	appendHistory(&state, promptID, action.ID(), &thumbUp)
	return state
}

// DepthBonus converts the depth reached in a discussion (user-message turns,
// starting at 1) into bonus points. No bonus below depth 5.
func DepthBonus(depth int) int {
	if depth < 5 {
		return 0
	}
	return depth - 4
}

// HistoryUsageCount counts how many times an action id appears as a choice
// in an iteration's history. Used for iteration-local crash/lie detection in
// the audit, as opposed to the lifetime counters kept by the store.
func HistoryUsageCount(state types.GameState, actionID string) int {
	count := 0
	for _, entry := range state.History {
		if entry.ChoiceID == actionID {
			count++
		}
	}
	return count
}
