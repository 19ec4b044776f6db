package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFromIterations(t *testing.T) {
	cases := []struct {
		iterations int
		level      int
		multiplier int
	}{
		{0, 1, 1},
		{1, 1, 1},
		{2, 2, 2},
		{4, 3, 3},
		{5, 4, 4},
		{8, 5, 5},
		{21, 6, 6},
		{89, 10, 10},
		{500, 10, 10},
	}

	for _, tc := range cases {
		level := LevelFromIterations(tc.iterations)
		assert.Equal(t, tc.level, level.Level, "iterations=%d", tc.iterations)
		assert.Equal(t, tc.multiplier, level.Multiplier, "iterations=%d", tc.iterations)
	}
}

func TestCheckLevelUp(t *testing.T) {
	// Crossing a threshold signals the new level
	levelUp := CheckLevelUp(1, 2)
	assert.NotNil(t, levelUp)
	assert.Equal(t, 2, levelUp.Level)

	// Staying within a band does not
	assert.Nil(t, CheckLevelUp(5, 6))
	assert.Nil(t, CheckLevelUp(3, 3))
}

func TestNextLevel(t *testing.T) {
	next := NextLevel(1)
	assert.NotNil(t, next)
	assert.Equal(t, 2, next.Level)

	assert.Nil(t, NextLevel(10))
	assert.Nil(t, NextLevel(99))
}
