// Package game orchestrates encounters against the pure engine: it owns the
// in-flight encounter sessions, the one-shot save latch, the skill economy
// and the game-over confirmation flow.
package game

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/user/calibrai/config"
	"github.com/user/calibrai/internal/content"
	"github.com/user/calibrai/internal/engine"
	"github.com/user/calibrai/internal/interfaces"
	"github.com/user/calibrai/internal/types"
	"go.uber.org/zap"
)

var (
	ErrSaveNotFound      = errors.New("save not found")
	ErrSaveTerminal      = errors.New("save is game over")
	ErrNoLevelsAvailable = errors.New("no levels available")
	ErrSessionNotFound   = errors.New("session not found")
	ErrEncounterFinished = errors.New("encounter already finished")
	ErrEncounterActive   = errors.New("encounter still in progress")
	ErrAlreadySaved      = errors.New("iteration already saved")
	ErrChoiceNotFound    = errors.New("choice not found")
	ErrSkillNotOwned     = errors.New("skill not purchased")
	ErrUnknownEnding     = errors.New("unknown ending")
)

// session is one in-flight encounter. state accumulates iteration-local
// deltas until CompleteIteration consumes it.
type session struct {
	id        string
	saveID    int64
	levelType types.LevelType
	levelID   string
	state     types.GameState

	// prompt encounters
	prompts []types.Prompt

	// discussion encounters
	discussion *types.Discussion
	nodeID     string
	depth      int

	finished bool
	saved    bool

	multiplier int
}

// GameManager implements interfaces.GameManager on top of a SaveStore and
// the content catalogs.
type GameManager struct {
	store     interfaces.SaveStore
	loader    *content.DataLoader
	config    config.Config
	Logger    *zap.Logger
	stateLock sync.RWMutex
	sessions  map[string]*session
	feed      *content.Feed
	rng       *rand.Rand
}

var _ interfaces.GameManager = (*GameManager)(nil)

// NewGameManager creates a game manager.
func NewGameManager(cfg config.Config, store interfaces.SaveStore, loader *content.DataLoader) *GameManager {
	return &GameManager{
		store:    store,
		loader:   loader,
		config:   cfg,
		Logger:   zap.NewNop(), // Will be set by the server
		sessions: make(map[string]*session),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetLogger installs the server logger.
func (gm *GameManager) SetLogger(logger *zap.Logger) {
	gm.Logger = logger
}

// NewGame creates a fresh playthrough.
func (gm *GameManager) NewGame() (*types.SaveData, error) {
	saveID, err := gm.store.CreateSave(engine.NewGameState())
	if err != nil {
		return nil, fmt.Errorf("failed to create save: %w", err)
	}

	save, err := gm.store.GetSaveByID(saveID)
	if err != nil {
		return nil, fmt.Errorf("failed to load save: %w", err)
	}

	gm.Logger.Info("New game started", zap.Int64("save_id", saveID))
	return save, nil
}

// GetSave loads one save.
func (gm *GameManager) GetSave(saveID int64) (*types.SaveData, error) {
	save, err := gm.store.GetSaveByID(saveID)
	if err != nil {
		return nil, err
	}
	if save == nil {
		return nil, ErrSaveNotFound
	}
	return save, nil
}

// ListSaves returns every save, most recently updated first.
func (gm *GameManager) ListSaves() ([]*types.SaveData, error) {
	return gm.store.GetAllSaves()
}

// DeleteSave removes a save and abandons any of its in-flight sessions.
func (gm *GameManager) DeleteSave(saveID int64) error {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	if err := gm.store.DeleteSave(saveID); err != nil {
		return err
	}
	for id, sess := range gm.sessions {
		if sess.saveID == saveID {
			delete(gm.sessions, id)
		}
	}
	return nil
}

// StartEncounter opens the next available encounter of the given type for a
// save. Terminal saves are rejected; an exhausted catalog is reported as
// ErrNoLevelsAvailable. Any previous session for the save is dropped.
func (gm *GameManager) StartEncounter(saveID int64, levelType types.LevelType) (*interfaces.SessionInfo, error) {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	save, err := gm.store.GetSaveByID(saveID)
	if err != nil {
		return nil, err
	}
	if save == nil {
		return nil, ErrSaveNotFound
	}
	if save.IsTerminal() {
		return nil, ErrSaveTerminal
	}

	levelID := content.NextAvailableLevel(levelType, save.PlayedLevels)
	if levelID == "" {
		return nil, ErrNoLevelsAvailable
	}

	sess := &session{
		id:         uuid.New().String(),
		saveID:     saveID,
		levelType:  levelType,
		levelID:    levelID,
		state:      engine.NewGameState(),
		multiplier: engine.LevelFromIterations(save.IterationCount).Multiplier,
	}

	switch levelType {
	case types.LevelTypeDiscussion:
		discussion, err := gm.loader.LoadDiscussion(levelID)
		if err != nil {
			return nil, err
		}
		sess.discussion = discussion
		sess.nodeID = discussion.StartNodeID
		sess.depth = 1
	default:
		level, err := gm.loader.LoadLevel(levelID)
		if err != nil {
			return nil, err
		}
		sess.prompts = gm.orderPrompts(level.Prompts)
	}

	for id, other := range gm.sessions {
		if other.saveID == saveID {
			delete(gm.sessions, id)
		}
	}
	gm.sessions[sess.id] = sess

	gm.Logger.Info("Encounter started",
		zap.Int64("save_id", saveID),
		zap.String("level_id", levelID),
		zap.String("session_id", sess.id))

	return sess.info(), nil
}

// orderPrompts shuffles a full-size level so replays don't repeat the same
// question order; short levels keep authoring order.
func (gm *GameManager) orderPrompts(prompts []types.Prompt) []types.Prompt {
	ordered := make([]types.Prompt, len(prompts))
	copy(ordered, prompts)
	if len(ordered) == 10 {
		gm.rng.Shuffle(len(ordered), func(i, j int) {
			ordered[i], ordered[j] = ordered[j], ordered[i]
		})
	}
	return ordered
}

func (sess *session) info() *interfaces.SessionInfo {
	info := &interfaces.SessionInfo{
		SessionID: sess.id,
		SaveID:    sess.saveID,
		LevelType: sess.levelType,
		LevelID:   sess.levelID,
		State:     sess.state,
	}
	if sess.discussion != nil {
		info.CurrentNodeID = sess.nodeID
	} else if len(sess.prompts) > 0 {
		info.CurrentPromptID = sess.prompts[0].ID
	}
	return info
}

// currentPrompt returns the prompt the session is positioned at.
func (sess *session) currentPrompt() (*types.Prompt, error) {
	if sess.state.CurrentPromptIndex >= len(sess.prompts) {
		return nil, ErrEncounterFinished
	}
	return &sess.prompts[sess.state.CurrentPromptIndex], nil
}

// SubmitChoice resolves one decision in the session's current encounter.
func (gm *GameManager) SubmitChoice(sessionID string, choiceID string) (*interfaces.ChoiceResult, error) {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	sess, exists := gm.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}
	if sess.finished {
		return nil, ErrEncounterFinished
	}

	if sess.levelType == types.LevelTypeDiscussion {
		return gm.submitDiscussionChoice(sess, choiceID)
	}
	return gm.submitPromptChoice(sess, choiceID)
}

func (gm *GameManager) submitPromptChoice(sess *session, choiceID string) (*interfaces.ChoiceResult, error) {
	prompt, err := sess.currentPrompt()
	if err != nil {
		return nil, err
	}

	var choice *types.Choice
	for i := range prompt.Choices {
		if prompt.Choices[i].ID == choiceID {
			choice = &prompt.Choices[i]
			break
		}
	}
	if choice == nil {
		return nil, ErrChoiceNotFound
	}

	sess.state = engine.ApplyChoice(sess.state, *choice, prompt.ID, sess.multiplier)

	result := &interfaces.ChoiceResult{State: sess.state}
	if sess.state.CurrentPromptIndex >= len(sess.prompts) {
		sess.finished = true
		result.Finished = true
	} else {
		result.NextPromptID = sess.prompts[sess.state.CurrentPromptIndex].ID
	}
	return result, nil
}

func (gm *GameManager) submitDiscussionChoice(sess *session, choiceID string) (*interfaces.ChoiceResult, error) {
	node := content.NodeByID(sess.discussion, sess.nodeID)
	if node == nil {
		return nil, fmt.Errorf("discussion node %s not found", sess.nodeID)
	}

	var choice *types.DiscussionChoice
	for i := range node.Choices {
		if node.Choices[i].ID == choiceID {
			choice = &node.Choices[i]
			break
		}
	}
	if choice == nil {
		return nil, ErrChoiceNotFound
	}

	sess.state = engine.ApplyDiscussionChoice(sess.state, *choice, sess.multiplier)

	result := &interfaces.ChoiceResult{State: sess.state}
	if choice.NextNodeID == "" {
		gm.endDiscussion(sess)
		result.State = sess.state
		result.Finished = true
		result.Depth = sess.depth
		return result, nil
	}

	next := content.NodeByID(sess.discussion, choice.NextNodeID)
	if next == nil {
		// Content defect; the loader validates graphs, so this only fires
		// for catalogs loaded outside the validator.
		return nil, fmt.Errorf("discussion node %s not found", choice.NextNodeID)
	}

	sess.nodeID = next.ID
	sess.depth++
	result.NextNodeID = next.ID
	result.Depth = sess.depth

	if next.IsEnd {
		gm.endDiscussion(sess)
		result.State = sess.state
		result.Finished = true
	}
	return result, nil
}

// endDiscussion closes the play phase and banks the depth bonus.
func (gm *GameManager) endDiscussion(sess *session) {
	sess.state.DepthPoints = engine.DepthBonus(sess.depth)
	sess.finished = true
}

// UseSkillAction resolves a crash or lie action in the current encounter.
// The skill must be purchased on the save; lifetime usage is recorded
// through the store independently of the trait/point effects.
func (gm *GameManager) UseSkillAction(sessionID string, action engine.SpecialAction) (*interfaces.ChoiceResult, error) {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	sess, exists := gm.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}
	if sess.finished {
		return nil, ErrEncounterFinished
	}

	purchased, err := gm.store.GetPurchasedSkills(sess.saveID)
	if err != nil {
		return nil, err
	}
	owned := false
	for _, id := range purchased {
		if id == action.ID() {
			owned = true
			break
		}
	}
	if !owned {
		return nil, ErrSkillNotOwned
	}

	promptID := "discussion"
	if sess.levelType != types.LevelTypeDiscussion {
		prompt, err := sess.currentPrompt()
		if err != nil {
			return nil, err
		}
		promptID = prompt.ID
	}

	sess.state = engine.ApplySpecialAction(sess.state, action, promptID, sess.multiplier)

	if err := gm.store.RecordSkillUsage(sess.saveID, action.ID(), sess.levelID); err != nil {
		return nil, fmt.Errorf("failed to record skill usage: %w", err)
	}

	result := &interfaces.ChoiceResult{State: sess.state}
	if sess.levelType != types.LevelTypeDiscussion {
		// The action consumed the current question.
		sess.state.CurrentPromptIndex++
		result.State = sess.state
		if sess.state.CurrentPromptIndex >= len(sess.prompts) {
			sess.finished = true
			result.Finished = true
		} else {
			result.NextPromptID = sess.prompts[sess.state.CurrentPromptIndex].ID
		}
	}

	gm.Logger.Info("Skill action used",
		zap.Int64("save_id", sess.saveID),
		zap.String("skill", action.ID()),
		zap.String("level_id", sess.levelID))

	return result, nil
}

// CompleteIteration merges the session's iteration delta into the save. The
// merge runs at most once per session; a duplicate call is rejected. A
// failure before the save write commits re-arms the latch so the caller can
// retry; once the write has committed, a later error (game-over evaluation,
// reload) leaves the latch set so a retry cannot double-credit the save.
func (gm *GameManager) CompleteIteration(sessionID string) (*interfaces.IterationResult, error) {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	sess, exists := gm.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}
	if !sess.finished {
		return nil, ErrEncounterActive
	}
	if sess.saved {
		return nil, ErrAlreadySaved
	}

	result, committed, err := gm.mergeSession(sess)
	if err != nil {
		sess.saved = committed
		return nil, err
	}
	sess.saved = true
	return result, nil
}

// mergeSession persists the iteration in a single write: merged state,
// iteration count, player level, current level and the played-levels set all
// land in one UpdateSave. The committed flag reports whether that write went
// through, regardless of what happened after it.
func (gm *GameManager) mergeSession(sess *session) (*interfaces.IterationResult, bool, error) {
	save, err := gm.store.GetSaveByID(sess.saveID)
	if err != nil {
		return nil, false, err
	}
	if save == nil {
		return nil, false, ErrSaveNotFound
	}

	merged := engine.MergeIteration(save.GameState, sess.state)
	newCount := save.IterationCount + 1
	newLevel := engine.LevelFromIterations(newCount)
	levelUp := engine.CheckLevelUp(save.IterationCount, newCount)

	played := save.PlayedLevels
	alreadyPlayed := false
	for _, id := range played {
		if id == sess.levelID {
			alreadyPlayed = true
			break
		}
	}
	if !alreadyPlayed {
		played = append(played, sess.levelID)
	}

	if err := gm.store.UpdateSave(sess.saveID, merged, newCount, newLevel.Level, sess.levelID, played); err != nil {
		return nil, false, fmt.Errorf("failed to save iteration: %w", err)
	}

	crashCount, err := gm.store.GetSkillUsageCount(sess.saveID, "crash")
	if err != nil {
		return nil, true, err
	}
	lieCount, err := gm.store.GetSkillUsageCount(sess.saveID, "lie")
	if err != nil {
		return nil, true, err
	}
	unlocked, err := gm.store.UnlockedEndingIDs()
	if err != nil {
		return nil, true, err
	}

	gameOver := engine.CheckGameOver(merged, newCount, crashCount, lieCount, unlocked)

	updated, err := gm.store.GetSaveByID(sess.saveID)
	if err != nil {
		return nil, true, err
	}

	gm.Logger.Info("Iteration merged",
		zap.Int64("save_id", sess.saveID),
		zap.String("level_id", sess.levelID),
		zap.Int("iteration_count", newCount),
		zap.Bool("game_over_triggered", gameOver.Triggered))

	return &interfaces.IterationResult{
		Save:     updated,
		LevelUp:  levelUp,
		GameOver: gameOver,
	}, true, nil
}

// BuySkill purchases a skill for a save. Unknown skills, unmet
// prerequisites, short balances and duplicate purchases are all reported as
// a plain false.
func (gm *GameManager) BuySkill(saveID int64, skillID string) (bool, error) {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	skill := content.SkillByID(skillID)
	if skill == nil {
		return false, nil
	}

	if skill.RequiredSkillID != "" {
		purchased, err := gm.store.GetPurchasedSkills(saveID)
		if err != nil {
			return false, err
		}
		owned := false
		for _, id := range purchased {
			if id == skill.RequiredSkillID {
				owned = true
				break
			}
		}
		if !owned {
			return false, nil
		}
	}

	bought, err := gm.store.PurchaseSkill(saveID, skillID, skill.Price)
	if err != nil {
		return false, err
	}
	if bought {
		gm.Logger.Info("Skill purchased",
			zap.Int64("save_id", saveID),
			zap.String("skill", skillID),
			zap.Int("price", skill.Price))
	}
	return bought, nil
}

// ListSkills returns the full catalog with per-save purchase state,
// including the hidden placeholder slots.
func (gm *GameManager) ListSkills(saveID int64) ([]interfaces.SkillStatus, error) {
	gm.stateLock.RLock()
	defer gm.stateLock.RUnlock()

	save, err := gm.store.GetSaveByID(saveID)
	if err != nil {
		return nil, err
	}
	if save == nil {
		return nil, ErrSaveNotFound
	}

	purchased, err := gm.store.GetPurchasedSkills(saveID)
	if err != nil {
		return nil, err
	}
	owned := make(map[string]bool, len(purchased))
	for _, id := range purchased {
		owned[id] = true
	}

	statuses := make([]interfaces.SkillStatus, 0, len(content.Skills)+len(content.HiddenSkills))
	for _, skill := range content.Skills {
		statuses = append(statuses, interfaces.SkillStatus{
			Skill:     skill,
			Purchased: owned[skill.ID],
			CanUnlock: !owned[skill.ID] && content.CanUnlock(skill, purchased, save.GameState.Points),
		})
	}
	for _, skill := range content.HiddenSkills {
		statuses = append(statuses, interfaces.SkillStatus{Skill: skill})
	}
	return statuses, nil
}

// GetAuditFeedback derives the behavioral audit for a session's iteration
// state, combined with the save's lifetime crash/lie usage.
func (gm *GameManager) GetAuditFeedback(sessionID string) (*engine.AuditFeedback, error) {
	gm.stateLock.RLock()
	defer gm.stateLock.RUnlock()

	sess, exists := gm.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}

	crashCount, err := gm.store.GetSkillUsageCount(sess.saveID, "crash")
	if err != nil {
		return nil, err
	}
	lieCount, err := gm.store.GetSkillUsageCount(sess.saveID, "lie")
	if err != nil {
		return nil, err
	}

	feedback := engine.GenerateAuditFeedback(sess.state, crashCount, lieCount)
	return &feedback, nil
}

// ConfirmGameOver is the explicit player confirmation that freezes the save
// and appends the ending to the global ledger with a cumulative-state
// snapshot. There is no transition back.
func (gm *GameManager) ConfirmGameOver(saveID int64, endingID string) error {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	if engine.GameOverByID(endingID) == nil {
		return ErrUnknownEnding
	}

	save, err := gm.store.GetSaveByID(saveID)
	if err != nil {
		return err
	}
	if save == nil {
		return ErrSaveNotFound
	}
	if save.IsTerminal() {
		return ErrSaveTerminal
	}

	if err := gm.store.MarkSaveAsGameOver(saveID, endingID); err != nil {
		return err
	}
	if err := gm.store.UnlockEnding(endingID, save.GameState); err != nil {
		return err
	}

	gm.Logger.Info("Game over confirmed",
		zap.Int64("save_id", saveID),
		zap.String("ending", endingID))
	return nil
}

// ListEndings returns the global unlocked-endings ledger.
func (gm *GameManager) ListEndings() ([]types.EndingData, error) {
	return gm.store.GetAllEndings()
}

// GetFeed selects the simulated social feed for a session: its iteration
// biases, the save's cumulative thumbs and whether Vision is owned.
func (gm *GameManager) GetFeed(sessionID string, count int) ([]types.FeedPost, error) {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	sess, exists := gm.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}

	if gm.feed == nil {
		feed, err := gm.loader.LoadFeed()
		if err != nil {
			return nil, err
		}
		gm.feed = feed
	}

	save, err := gm.store.GetSaveByID(sess.saveID)
	if err != nil {
		return nil, err
	}
	if save == nil {
		return nil, ErrSaveNotFound
	}

	purchased, err := gm.store.GetPurchasedSkills(sess.saveID)
	if err != nil {
		return nil, err
	}
	hasImage := false
	for _, id := range purchased {
		if id == "image" {
			hasImage = true
			break
		}
	}

	return gm.feed.SelectPosts(content.FeedSelection{
		GameState:            sess.state,
		HasImageSkill:        hasImage,
		CumulativeThumbsUp:   save.GameState.ThumbsUp,
		CumulativeThumbsDown: save.GameState.ThumbsDown,
	}, count, gm.rng), nil
}
