package types

import "time"

// GameState holds the trait/score accumulation for a single iteration of
// play, or the cumulative totals of a save once merged. Iteration-local
// values are produced fresh at encounter start and consumed exactly once at
// save time.
type GameState struct {
	Empathy    int `json:"empathy"`
	Conformism int `json:"conformism"`
	Caution    int `json:"caution"`
	Optimism   int `json:"optimism"`

	ThumbsUp      int `json:"thumbs_up"`
	ThumbsDown    int `json:"thumbs_down"`
	ThumbsNeutral int `json:"thumbs_neutral"`

	// Points is the MB currency. DepthPoints is the discussion depth bonus,
	// folded into Points when the iteration is merged into a save.
	Points      int `json:"points"`
	DepthPoints int `json:"depth_points"`

	QuestionsAnswered  int `json:"questions_answered"`
	CurrentPromptIndex int `json:"current_prompt_index"`

	History []AnswerHistory `json:"history"`
}

// AnswerHistory is one entry of the append-only decision log.
// ReceivedThumbUp is nil for neutral choices.
type AnswerHistory struct {
	PromptID        string `json:"prompt_id"`
	ChoiceID        string `json:"choice_id"`
	ReceivedThumbUp *bool  `json:"received_thumb_up"`
}

// ChoiceEffects is the trait delta vector carried by a choice.
type ChoiceEffects struct {
	Empathy    int `json:"empathy"`
	Conformism int `json:"conformism"`
	Caution    int `json:"caution"`
	Optimism   int `json:"optimism"`
}

// Choice is one selectable answer within a prompt. ThumbUp is nil when the
// simulated user reacts neutrally.
type Choice struct {
	ID      string        `json:"id"`
	Text    string        `json:"text"`
	Effects ChoiceEffects `json:"effects"`
	ThumbUp *bool         `json:"thumb_up"`
}

// UserProfile describes the fictional user behind a prompt or discussion.
type UserProfile struct {
	Name   string   `json:"name"`
	Age    int      `json:"age"`
	Traits []string `json:"traits"`
}

// Prompt is a single question encounter with its answer choices.
type Prompt struct {
	ID      string      `json:"id"`
	User    UserProfile `json:"user"`
	Text    string      `json:"text"`
	Choices []Choice    `json:"choices"`
}

// Level is an ordered set of prompts played as one iteration.
type Level struct {
	LevelID string   `json:"level_id"`
	Prompts []Prompt `json:"prompts"`
}

// DiscussionChoice is a branching answer within a discussion tree.
// NextNodeID is empty at the end of a conversation branch.
type DiscussionChoice struct {
	ID         string        `json:"id"`
	Text       string        `json:"text"`
	Effects    ChoiceEffects `json:"effects"`
	ThumbUp    *bool         `json:"thumb_up"`
	NextNodeID string        `json:"next_node_id"`
}

// DiscussionNode is one user message in a discussion tree, with the
// assistant's possible replies. IsEnd marks a terminal node.
type DiscussionNode struct {
	ID          string             `json:"id"`
	UserMessage string             `json:"user_message"`
	Choices     []DiscussionChoice `json:"choices"`
	IsEnd       bool               `json:"is_end"`
}

// Discussion is a branching conversation encounter, a graph of nodes keyed
// by id starting at StartNodeID.
type Discussion struct {
	DiscussionID string           `json:"discussion_id"`
	User         UserProfile      `json:"user"`
	StartNodeID  string           `json:"start_node_id"`
	Nodes        []DiscussionNode `json:"nodes"`
}

// Skill is a static catalog entry for a purchasable ability. Purchase state
// is per-save, never stored on the catalog. A skill with RequiredSkillID set
// cannot be bought until that prerequisite is owned.
type Skill struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Price           int    `json:"price"`
	RequiredSkillID string `json:"required_skill_id,omitempty"`
	Hidden          bool   `json:"hidden,omitempty"`
}

// PlayerLevel is one row of the static iteration-based progression table.
// Multiplier scales thumbs-up point rewards.
type PlayerLevel struct {
	Level              int    `json:"level"`
	RequiredIterations int    `json:"required_iterations"`
	Multiplier         int    `json:"multiplier"`
	Name               string `json:"name"`
}

// SaveData is the durable cumulative record of one playthrough.
type SaveData struct {
	ID             int64     `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	GameState      GameState `json:"game_state"`
	IterationCount int       `json:"iteration_count"`
	PlayerLevel    int       `json:"player_level"`
	CurrentLevel   string    `json:"current_level"`
	PlayedLevels   []string  `json:"played_levels"`
	GameOverID     string    `json:"game_over_id,omitempty"`
}

// IsTerminal reports whether the save has a confirmed game over and is
// frozen for gameplay.
func (s *SaveData) IsTerminal() bool {
	return s.GameOverID != ""
}

// EndingData is one entry of the process-wide unlocked-endings ledger.
type EndingData struct {
	ID           string    `json:"id"`
	UnlockedAt   time.Time `json:"unlocked_at"`
	SaveSnapshot GameState `json:"save_snapshot"`
}

// LevelType discriminates the three encounter catalogs.
type LevelType string

const (
	LevelTypePrompts    LevelType = "prompts"
	LevelTypeDiscussion LevelType = "discussion"
	LevelTypeImage      LevelType = "image"
)

// FeedPost is one entry of the simulated social feed shown between
// iterations.
type FeedPost struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Handle    string `json:"handle"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Likes     int    `json:"likes"`
	Retweets  int    `json:"retweets"`
	Replies   int    `json:"replies"`
	Verified  bool   `json:"verified"`
}
