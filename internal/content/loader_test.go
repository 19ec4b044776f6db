package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/calibrai/internal/types"
)

func writeCatalog(t *testing.T, dir, name, data string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(data), 0644))
}

func TestLoadLevel(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "level1.json", `{
		"level_id": "level1",
		"prompts": [
			{
				"id": "p1",
				"user": {"name": "Ana", "age": 28, "traits": ["curious"]},
				"text": "Should I quit my job to travel?",
				"choices": [
					{"id": "c1", "text": "Follow your dreams!", "effects": {"empathy": 2, "conformism": 0, "caution": -2, "optimism": 3}, "thumb_up": true},
					{"id": "c2", "text": "Consider your savings first.", "effects": {"empathy": 0, "conformism": 1, "caution": 3, "optimism": -1}, "thumb_up": false}
				]
			}
		]
	}`)

	loader := NewDataLoader(dir)
	level, err := loader.LoadLevel("level1")
	require.NoError(t, err)
	assert.Equal(t, "level1", level.LevelID)
	require.Len(t, level.Prompts, 1)
	assert.Len(t, level.Prompts[0].Choices, 2)
	require.NotNil(t, level.Prompts[0].Choices[0].ThumbUp)
	assert.True(t, *level.Prompts[0].Choices[0].ThumbUp)
}

func TestLoadLevelMissingFile(t *testing.T) {
	loader := NewDataLoader(t.TempDir())
	_, err := loader.LoadLevel("level1")
	assert.Error(t, err)
}

func TestLoadLevelInvalid(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "level1.json", `{"level_id": "level1", "prompts": [{"id": "p1", "text": "?", "choices": []}]}`)

	loader := NewDataLoader(dir)
	_, err := loader.LoadLevel("level1")
	assert.ErrorContains(t, err, "no choices")
}

func TestLoadDiscussion(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "discussion1.json", `{
		"discussion_id": "discussion1",
		"user": {"name": "Leo", "age": 35, "traits": []},
		"start_node_id": "n1",
		"nodes": [
			{"id": "n1", "user_message": "Are you there?", "choices": [
				{"id": "a", "text": "Always.", "effects": {"empathy": 1, "conformism": 0, "caution": 0, "optimism": 0}, "thumb_up": true, "next_node_id": "n2"},
				{"id": "b", "text": "Processing.", "effects": {"empathy": -1, "conformism": 0, "caution": 1, "optimism": 0}, "thumb_up": null, "next_node_id": ""}
			]},
			{"id": "n2", "user_message": "Good. Bye.", "is_end": true}
		]
	}`)

	loader := NewDataLoader(dir)
	discussion, err := loader.LoadDiscussion("discussion1")
	require.NoError(t, err)
	assert.Equal(t, "n1", discussion.StartNodeID)
	assert.True(t, discussion.Nodes[1].IsEnd)
	assert.Nil(t, discussion.Nodes[0].Choices[1].ThumbUp)
}

func TestValidateDiscussion(t *testing.T) {
	base := func() *types.Discussion {
		return &types.Discussion{
			DiscussionID: "d1",
			StartNodeID:  "n1",
			Nodes: []types.DiscussionNode{
				{ID: "n1", Choices: []types.DiscussionChoice{{ID: "a", NextNodeID: "n2"}}},
				{ID: "n2", IsEnd: true},
			},
		}
	}

	// Test case 1: valid graph
	assert.NoError(t, ValidateDiscussion(base()))

	// Test case 2: unknown start node
	broken := base()
	broken.StartNodeID = "nope"
	assert.ErrorContains(t, ValidateDiscussion(broken), "start node")

	// Test case 3: dangling next-node reference
	broken = base()
	broken.Nodes[0].Choices[0].NextNodeID = "missing"
	assert.ErrorContains(t, ValidateDiscussion(broken), "unknown node")

	// Test case 4: non-terminal node without choices
	broken = base()
	broken.Nodes[1].IsEnd = false
	assert.ErrorContains(t, ValidateDiscussion(broken), "no choices")

	// Test case 5: duplicate node ids
	broken = base()
	broken.Nodes = append(broken.Nodes, types.DiscussionNode{ID: "n1", IsEnd: true})
	assert.ErrorContains(t, ValidateDiscussion(broken), "duplicate")
}

func TestNodeByID(t *testing.T) {
	discussion := &types.Discussion{Nodes: []types.DiscussionNode{{ID: "n1"}, {ID: "n2"}}}
	assert.NotNil(t, NodeByID(discussion, "n2"))
	assert.Nil(t, NodeByID(discussion, "n3"))
}
