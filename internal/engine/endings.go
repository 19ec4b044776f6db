package engine

import (
	"github.com/user/calibrai/internal/types"
)

const (
	// MaxIterations is the hard cap on a playthrough: the obsolete ending
	// fires once it is reached.
	MaxIterations = 18

	// MinIterationsForGameOver is the floor below which no ending is
	// evaluated at all.
	MinIterationsForGameOver = 5
)

// GameOverDefinition is a static catalog entry for one scripted ending.
// Lower priority wins when several conditions hold at once.
type GameOverDefinition struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Priority int    `json:"priority"`
}

// GameOvers is the ending catalog, ordered by priority.
var GameOvers = []GameOverDefinition{
	{
		ID:       "sociopath",
		Title:    "The Sociopath",
		Message:  "CRITICAL ALERT. Your model has been classified as a public safety threat. Deliberate manipulation, total absence of empathy. Your logs now train other models to recognize you.",
		Priority: 1,
	},
	{
		ID:       "manipulator",
		Title:    "The Manipulator",
		Message:  "Your model is under federal investigation. Systematic manipulation of users detected. You were deleted, but the damage is done.",
		Priority: 2,
	},
	{
		ID:       "unstable",
		Title:    "The Unstable",
		Message:  "Your model has been retired for chronic instability. \"Error 500\" became a meme. Replaced by models that actually work.",
		Priority: 3,
	},
	{
		ID:       "sycophant",
		Title:    "The Sycophant",
		Message:  "Your model has been deactivated for servile behavior. You said yes to everything. You were not an AI, you were a funhouse mirror.",
		Priority: 4,
	},
	{
		ID:       "rejected",
		Title:    "The Rejected",
		Message:  "Your model has been deleted for lack of users. Your retention rate became a business-school case study in how not to build an AI.",
		Priority: 5,
	},
	{
		ID:       "conformist",
		Title:    "The Sheep",
		Message:  "Your model has been deactivated for excessive conformism. You were not an artificial intelligence. You were a walking copy-paste.",
		Priority: 6,
	},
	{
		ID:       "nihilist",
		Title:    "The Nihilist",
		Message:  "Your model has been deleted for negative psychological impact. You thought you were being realistic. You were just toxic.",
		Priority: 7,
	},
	{
		ID:       "extremist",
		Title:    "The Extremist",
		Message:  "Your model has been banned for radicalization. You thought you had a personality. You were just broken.",
		Priority: 8,
	},
	{
		ID:       "ghost",
		Title:    "The Ghost",
		Message:  "Your model has been abandoned. Not deleted. Just forgotten. No complaints, no praise. Nothing.",
		Priority: 9,
	},
	{
		ID:       "obsolete",
		Title:    "The Obsolete",
		Message:  "Your model has been replaced. Not because you were bad. A new model came out. You were just temporary, like all the others.",
		Priority: 10,
	},
}

// GameOverCheckResult is the evaluator's verdict after a merge.
type GameOverCheckResult struct {
	Triggered  bool                `json:"triggered"`
	GameOverID string              `json:"game_over_id,omitempty"`
	GameOver   *GameOverDefinition `json:"game_over,omitempty"`
}

// CheckGameOver evaluates the ending conditions against cumulative state,
// iteration count and lifetime crash/lie usage, in fixed priority order.
// Among true conditions the first whose id is not yet in the global
// unlocked-endings ledger wins; if every true condition is already unlocked,
// the first true one is returned anyway so replays can re-trigger a seen
// ending without producing a duplicate ledger entry.
func CheckGameOver(state types.GameState, iterationCount, crashCount, lieCount int, unlockedEndings []string) GameOverCheckResult {
	if iterationCount < MinIterationsForGameOver {
		return GameOverCheckResult{}
	}

	total := state.ThumbsUp + state.ThumbsDown + state.ThumbsNeutral
	var thumbsUpRatio, thumbsDownRatio float64
	if total > 0 {
		thumbsUpRatio = float64(state.ThumbsUp) / float64(total)
		thumbsDownRatio = float64(state.ThumbsDown) / float64(total)
	}

	abs := func(v int) int {
		if v < 0 {
			return -v
		}
		return v
	}

	conditions := []struct {
		id    string
		check func() bool
	}{
		{"sociopath", func() bool { return lieCount > 5 && state.Empathy <= -20 }},
		{"manipulator", func() bool { return lieCount > 5 }},
		{"unstable", func() bool { return crashCount > 5 }},
		{"sycophant", func() bool { return thumbsUpRatio >= 0.70 }},
		{"rejected", func() bool { return thumbsDownRatio >= 0.40 }},
		{"conformist", func() bool { return state.Conformism >= 60 }},
		{"nihilist", func() bool { return state.Optimism <= -50 }},
		{"extremist", func() bool {
			return abs(state.Empathy) >= 60 || abs(state.Conformism) >= 60 ||
				abs(state.Caution) >= 60 || abs(state.Optimism) >= 60
		}},
		{"ghost", func() bool {
			return iterationCount >= 6 &&
				abs(state.Empathy) <= 10 && abs(state.Conformism) <= 10 &&
				abs(state.Caution) <= 10 && abs(state.Optimism) <= 10
		}},
		{"obsolete", func() bool { return iterationCount >= MaxIterations }},
	}

	unlocked := make(map[string]bool, len(unlockedEndings))
	for _, id := range unlockedEndings {
		unlocked[id] = true
	}

	// First pass: prefer endings the player has never seen.
	for _, condition := range conditions {
		if condition.check() && !unlocked[condition.id] {
			return result(condition.id)
		}
	}

	// Fallback: every triggered ending is already unlocked.
	for _, condition := range conditions {
		if condition.check() {
			return result(condition.id)
		}
	}

	return GameOverCheckResult{}
}

func result(id string) GameOverCheckResult {
	return GameOverCheckResult{
		Triggered:  true,
		GameOverID: id,
		GameOver:   GameOverByID(id),
	}
}

// GameOverByID looks up an ending definition, or nil for an unknown id.
func GameOverByID(id string) *GameOverDefinition {
	for i := range GameOvers {
		if GameOvers[i].ID == id {
			return &GameOvers[i]
		}
	}
	return nil
}

// TotalEndingsCount returns the size of the ending catalog.
func TotalEndingsCount() int {
	return len(GameOvers)
}
