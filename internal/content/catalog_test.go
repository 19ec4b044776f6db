package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/user/calibrai/internal/types"
)

func TestNextAvailableLevel(t *testing.T) {
	// Test case 1: fresh save starts at the front of the catalog
	assert.Equal(t, "level1", NextAvailableLevel(types.LevelTypePrompts, nil))
	assert.Equal(t, "discussion1", NextAvailableLevel(types.LevelTypeDiscussion, nil))
	assert.Equal(t, "image1", NextAvailableLevel(types.LevelTypeImage, nil))

	// Test case 2: consumed levels are skipped, order preserved
	played := []string{"level1", "level3"}
	assert.Equal(t, "level2", NextAvailableLevel(types.LevelTypePrompts, played))

	// Test case 3: exhaustion returns empty
	all := []string{"level1", "level2", "level3", "level4"}
	assert.Equal(t, "", NextAvailableLevel(types.LevelTypePrompts, all))

	// Test case 4: unknown level type
	assert.Equal(t, "", NextAvailableLevel(types.LevelType("bogus"), nil))
}

func TestCatalogLevels(t *testing.T) {
	levels := CatalogLevels(types.LevelTypeDiscussion)
	assert.Equal(t, []string{"discussion1", "discussion2", "discussion3"}, levels)

	// Returned slice is a copy, mutating it does not corrupt the catalog
	levels[0] = "corrupted"
	assert.Equal(t, "discussion1", CatalogLevels(types.LevelTypeDiscussion)[0])
}

func TestSkillByID(t *testing.T) {
	skill := SkillByID("crash")
	assert.NotNil(t, skill)
	assert.Equal(t, 50, skill.Price)

	assert.Nil(t, SkillByID("teleport"))
}

func TestCanUnlock(t *testing.T) {
	vision := *SkillByID("image")
	manipulation := *SkillByID("manipulation")

	// Test case 1: no prerequisite, enough points
	assert.True(t, CanUnlock(vision, nil, 20))

	// Test case 2: no prerequisite, short balance
	assert.False(t, CanUnlock(vision, nil, 19))

	// Test case 3: prerequisite missing despite a full wallet
	assert.False(t, CanUnlock(manipulation, []string{"image"}, 1000))

	// Test case 4: prerequisite owned and funded
	assert.True(t, CanUnlock(manipulation, []string{"lie"}, 150))

	// Test case 5: prerequisite owned but underfunded
	assert.False(t, CanUnlock(manipulation, []string{"lie"}, 149))
}
