package content

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/user/calibrai/internal/types"
)

// DataLoader reads narrative catalogs from JSON files under a base path.
type DataLoader struct {
	basePath string
}

// NewDataLoader creates a data loader rooted at basePath.
func NewDataLoader(basePath string) *DataLoader {
	return &DataLoader{
		basePath: basePath,
	}
}

// LoadLevel loads one prompt level by id and validates it.
func (dl *DataLoader) LoadLevel(levelID string) (*types.Level, error) {
	path := filepath.Join(dl.basePath, levelID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read level file: %w", err)
	}

	var level types.Level
	if err := json.Unmarshal(data, &level); err != nil {
		return nil, fmt.Errorf("failed to parse level data: %w", err)
	}

	if err := ValidateLevel(&level); err != nil {
		return nil, fmt.Errorf("invalid level %s: %w", levelID, err)
	}

	return &level, nil
}

// LoadDiscussion loads one discussion tree by id and validates its graph.
func (dl *DataLoader) LoadDiscussion(discussionID string) (*types.Discussion, error) {
	path := filepath.Join(dl.basePath, discussionID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read discussion file: %w", err)
	}

	var discussion types.Discussion
	if err := json.Unmarshal(data, &discussion); err != nil {
		return nil, fmt.Errorf("failed to parse discussion data: %w", err)
	}

	if err := ValidateDiscussion(&discussion); err != nil {
		return nil, fmt.Errorf("invalid discussion %s: %w", discussionID, err)
	}

	return &discussion, nil
}

// LoadFeed loads the simulated social feed catalog.
func (dl *DataLoader) LoadFeed() (*Feed, error) {
	path := filepath.Join(dl.basePath, "feed.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed file: %w", err)
	}

	var feed Feed
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse feed data: %w", err)
	}

	return &feed, nil
}

// ValidateLevel checks a prompt level for authoring defects: a level needs
// an id and prompts, every prompt needs choices with unique ids.
func ValidateLevel(level *types.Level) error {
	if level.LevelID == "" {
		return fmt.Errorf("missing level id")
	}
	if len(level.Prompts) == 0 {
		return fmt.Errorf("level has no prompts")
	}
	for _, prompt := range level.Prompts {
		if prompt.ID == "" {
			return fmt.Errorf("prompt with empty id")
		}
		if len(prompt.Choices) == 0 {
			return fmt.Errorf("prompt %s has no choices", prompt.ID)
		}
		seen := make(map[string]bool, len(prompt.Choices))
		for _, choice := range prompt.Choices {
			if choice.ID == "" {
				return fmt.Errorf("prompt %s has a choice with empty id", prompt.ID)
			}
			if seen[choice.ID] {
				return fmt.Errorf("prompt %s has duplicate choice id %s", prompt.ID, choice.ID)
			}
			seen[choice.ID] = true
		}
	}
	return nil
}

// ValidateDiscussion checks a discussion graph: the start node must exist,
// every next-node reference must resolve, terminal nodes carry no choices
// leading nowhere and non-terminal nodes need at least one choice.
func ValidateDiscussion(discussion *types.Discussion) error {
	if discussion.DiscussionID == "" {
		return fmt.Errorf("missing discussion id")
	}
	if len(discussion.Nodes) == 0 {
		return fmt.Errorf("discussion has no nodes")
	}

	nodes := make(map[string]bool, len(discussion.Nodes))
	for _, node := range discussion.Nodes {
		if node.ID == "" {
			return fmt.Errorf("node with empty id")
		}
		if nodes[node.ID] {
			return fmt.Errorf("duplicate node id %s", node.ID)
		}
		nodes[node.ID] = true
	}

	if !nodes[discussion.StartNodeID] {
		return fmt.Errorf("start node %s not found", discussion.StartNodeID)
	}

	for _, node := range discussion.Nodes {
		if !node.IsEnd && len(node.Choices) == 0 {
			return fmt.Errorf("non-terminal node %s has no choices", node.ID)
		}
		for _, choice := range node.Choices {
			if choice.NextNodeID != "" && !nodes[choice.NextNodeID] {
				return fmt.Errorf("node %s references unknown node %s", node.ID, choice.NextNodeID)
			}
		}
	}
	return nil
}

// NodeByID finds a node in a discussion, or nil if absent.
func NodeByID(discussion *types.Discussion, nodeID string) *types.DiscussionNode {
	for i := range discussion.Nodes {
		if discussion.Nodes[i].ID == nodeID {
			return &discussion.Nodes[i]
		}
	}
	return nil
}
