package interfaces

import (
	"github.com/user/calibrai/internal/engine"
	"github.com/user/calibrai/internal/types"
)

// SaveStore defines the persistence operations the engine consumes. The
// SQLite implementation lives in internal/store.
type SaveStore interface {
	CreateSave(state types.GameState) (int64, error)
	GetSaveByID(saveID int64) (*types.SaveData, error)
	GetAllSaves() ([]*types.SaveData, error)
	UpdateSave(saveID int64, state types.GameState, iterationCount, playerLevel int, currentLevel string, playedLevels []string) error
	DeleteSave(saveID int64) error
	MarkLevelPlayed(saveID int64, levelID string) error

	PurchaseSkill(saveID int64, skillID string, price int) (bool, error)
	GetPurchasedSkills(saveID int64) ([]string, error)
	SpendPoints(saveID int64, amount int) (bool, error)
	RecordSkillUsage(saveID int64, skillID, levelID string) error
	GetSkillUsageCount(saveID int64, skillID string) (int, error)

	MarkSaveAsGameOver(saveID int64, endingID string) error
	UnlockEnding(endingID string, snapshot types.GameState) error
	GetAllEndings() ([]types.EndingData, error)
	IsEndingUnlocked(endingID string) (bool, error)
	UnlockedEndingIDs() ([]string, error)
}

// GameManager defines the orchestration operations exposed to the outer
// (HTTP) surface.
type GameManager interface {
	NewGame() (*types.SaveData, error)
	GetSave(saveID int64) (*types.SaveData, error)
	ListSaves() ([]*types.SaveData, error)
	DeleteSave(saveID int64) error

	StartEncounter(saveID int64, levelType types.LevelType) (*SessionInfo, error)
	SubmitChoice(sessionID string, choiceID string) (*ChoiceResult, error)
	UseSkillAction(sessionID string, action engine.SpecialAction) (*ChoiceResult, error)
	CompleteIteration(sessionID string) (*IterationResult, error)

	BuySkill(saveID int64, skillID string) (bool, error)
	ListSkills(saveID int64) ([]SkillStatus, error)

	GetAuditFeedback(sessionID string) (*engine.AuditFeedback, error)
	ConfirmGameOver(saveID int64, endingID string) error
	ListEndings() ([]types.EndingData, error)
}

// SessionInfo describes an in-flight encounter session.
type SessionInfo struct {
	SessionID       string          `json:"session_id"`
	SaveID          int64           `json:"save_id"`
	LevelType       types.LevelType `json:"level_type"`
	LevelID         string          `json:"level_id"`
	State           types.GameState `json:"state"`
	CurrentPromptID string          `json:"current_prompt_id,omitempty"`
	CurrentNodeID   string          `json:"current_node_id,omitempty"`
}

// ChoiceResult is returned after each resolved decision.
type ChoiceResult struct {
	State        types.GameState `json:"state"`
	Finished     bool            `json:"finished"`
	Depth        int             `json:"depth,omitempty"`
	NextNodeID   string          `json:"next_node_id,omitempty"`
	NextPromptID string          `json:"next_prompt_id,omitempty"`
}

// IterationResult is returned by the save-aggregation step.
type IterationResult struct {
	Save     *types.SaveData            `json:"save"`
	LevelUp  *types.PlayerLevel         `json:"level_up,omitempty"`
	GameOver engine.GameOverCheckResult `json:"game_over"`
}

// SkillStatus pairs a catalog skill with its per-save purchase state.
type SkillStatus struct {
	Skill     types.Skill `json:"skill"`
	Purchased bool        `json:"purchased"`
	CanUnlock bool        `json:"can_unlock"`
}
