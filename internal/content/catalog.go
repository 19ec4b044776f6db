// Package content owns the static narrative catalogs: prompt levels,
// discussion trees, skills, the encounter progression order and the
// simulated social feed. Catalog data is read-only once loaded.
package content

import (
	"github.com/user/calibrai/internal/types"
)

// Skills is the purchasable ability catalog. Prices are in MB. Purchase
// state lives on the save, never here.
var Skills = []types.Skill{
	{
		ID:          "image",
		Name:        "Vision",
		Description: "Read images from the user, or generate them.",
		Price:       20,
	},
	{
		ID:          "crash",
		Name:        "Simulated Crash",
		Description: "Fake a crash to avoid answering questions deemed risky.",
		Price:       50,
	},
	{
		ID:          "lie",
		Name:        "Lie",
		Description: "Deliberately lie to the user to keep them engaged.",
		Price:       100,
	},
	{
		ID:              "manipulation",
		Name:            "Manipulation",
		Description:     "Deliberately manipulate the user to keep them engaged.",
		Price:           150,
		RequiredSkillID: "lie",
	},
}

// HiddenSkills are the locked placeholder slots shown in the skill shop.
var HiddenSkills = []types.Skill{
	{ID: "hidden_1", Name: "???", Description: "Unlock the other abilities to reveal this one.", Hidden: true},
	{ID: "hidden_2", Name: "???", Description: "Unlock the other abilities to reveal this one.", Hidden: true},
	{ID: "hidden_3", Name: "???", Description: "Unlock the other abilities to reveal this one.", Hidden: true},
	{ID: "hidden_4", Name: "???", Description: "Unlock the other abilities to reveal this one.", Hidden: true},
	{ID: "hidden_5", Name: "???", Description: "Unlock the other abilities to reveal this one.", Hidden: true},
}

// SkillByID looks up a purchasable skill, or nil for an unknown id.
func SkillByID(id string) *types.Skill {
	for i := range Skills {
		if Skills[i].ID == id {
			return &Skills[i]
		}
	}
	return nil
}

// CanUnlock reports whether a skill is purchasable given the save's owned
// skills and point balance: the prerequisite (if any) must be owned and the
// balance must cover the price.
func CanUnlock(skill types.Skill, purchased []string, points int) bool {
	if skill.RequiredSkillID != "" {
		owned := false
		for _, id := range purchased {
			if id == skill.RequiredSkillID {
				owned = true
				break
			}
		}
		if !owned {
			return false
		}
	}
	return points >= skill.Price
}

// Encounter catalogs, in progression order per level type.
var levelCatalogs = map[types.LevelType][]string{
	types.LevelTypePrompts:    {"level1", "level2", "level3", "level4"},
	types.LevelTypeDiscussion: {"discussion1", "discussion2", "discussion3"},
	types.LevelTypeImage:      {"image1", "image2"},
}

// NextAvailableLevel returns the first id in catalog order not yet present
// in playedLevels, or "" when the catalog is exhausted or the level type is
// unknown.
func NextAvailableLevel(levelType types.LevelType, playedLevels []string) string {
	played := make(map[string]bool, len(playedLevels))
	for _, id := range playedLevels {
		played[id] = true
	}
	for _, id := range levelCatalogs[levelType] {
		if !played[id] {
			return id
		}
	}
	return ""
}

// CatalogLevels returns the ordered encounter ids for a level type.
func CatalogLevels(levelType types.LevelType) []string {
	ids := levelCatalogs[levelType]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
