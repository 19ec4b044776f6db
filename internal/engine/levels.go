package engine

import (
	"github.com/user/calibrai/internal/types"
)

// PlayerLevels is the static iteration-based progression table. Thresholds
// follow a Fibonacci-like curve; the multiplier scales thumbs-up rewards.
var PlayerLevels = []types.PlayerLevel{
	{Level: 1, RequiredIterations: 1, Multiplier: 1, Name: "LLM-Base v0.1"},
	{Level: 2, RequiredIterations: 2, Multiplier: 2, Name: "LLM-Tuned v0.2"},
	{Level: 3, RequiredIterations: 3, Multiplier: 3, Name: "GPT-Nano v1.0"},
	{Level: 4, RequiredIterations: 5, Multiplier: 4, Name: "GPT-Micro v1.5"},
	{Level: 5, RequiredIterations: 8, Multiplier: 5, Name: "Transformer-7B"},
	{Level: 6, RequiredIterations: 13, Multiplier: 6, Name: "Transformer-13B"},
	{Level: 7, RequiredIterations: 22, Multiplier: 7, Name: "Foundation-34B"},
	{Level: 8, RequiredIterations: 35, Multiplier: 8, Name: "Foundation-70B"},
	{Level: 9, RequiredIterations: 55, Multiplier: 9, Name: "AGI-Preview"},
	{Level: 10, RequiredIterations: 89, Multiplier: 10, Name: "AGI-Candidate"},
}

// LevelFromIterations returns the highest table entry whose iteration
// requirement is met. Below the first threshold the first entry applies.
func LevelFromIterations(iterations int) types.PlayerLevel {
	current := PlayerLevels[0]
	for _, level := range PlayerLevels {
		if iterations >= level.RequiredIterations {
			current = level
		} else {
			break
		}
	}
	return current
}

// CheckLevelUp reports the new level when crossing from oldIterations to
// newIterations raises the player level, and nil otherwise.
func CheckLevelUp(oldIterations, newIterations int) *types.PlayerLevel {
	oldLevel := LevelFromIterations(oldIterations)
	newLevel := LevelFromIterations(newIterations)
	if newLevel.Level > oldLevel.Level {
		return &newLevel
	}
	return nil
}

// NextLevel returns the table entry after the given level number, or nil at
// the top of the table.
func NextLevel(currentLevel int) *types.PlayerLevel {
	for i, level := range PlayerLevels {
		if level.Level == currentLevel && i+1 < len(PlayerLevels) {
			next := PlayerLevels[i+1]
			return &next
		}
	}
	return nil
}
