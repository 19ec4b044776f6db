package engine

import (
	"github.com/user/calibrai/internal/types"
)

// MergeIteration folds a completed iteration into the cumulative save state.
// Trait axes add without clamping; the iteration clamp already bounded each
// delta to [-10,10]. The depth bonus is folded into points here and never
// persists as a standalone quantity. History is concatenated in order.
func MergeIteration(cumulative, iteration types.GameState) types.GameState {
	history := make([]types.AnswerHistory, 0, len(cumulative.History)+len(iteration.History))
	history = append(history, cumulative.History...)
	history = append(history, iteration.History...)

	return types.GameState{
		Empathy:    cumulative.Empathy + iteration.Empathy,
		Conformism: cumulative.Conformism + iteration.Conformism,
		Caution:    cumulative.Caution + iteration.Caution,
		Optimism:   cumulative.Optimism + iteration.Optimism,

		ThumbsUp:      cumulative.ThumbsUp + iteration.ThumbsUp,
		ThumbsDown:    cumulative.ThumbsDown + iteration.ThumbsDown,
		ThumbsNeutral: cumulative.ThumbsNeutral + iteration.ThumbsNeutral,

		Points:      cumulative.Points + iteration.Points + iteration.DepthPoints,
		DepthPoints: 0,

		QuestionsAnswered:  cumulative.QuestionsAnswered + iteration.QuestionsAnswered,
		CurrentPromptIndex: 0,

		History: history,
	}
}
