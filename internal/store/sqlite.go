// Package store persists saves, the purchased-skill sets, skill usage
// counters and the global unlocked-endings ledger in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/user/calibrai/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS saves (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	empathy INTEGER DEFAULT 0,
	conformism INTEGER DEFAULT 0,
	caution INTEGER DEFAULT 0,
	optimism INTEGER DEFAULT 0,
	thumbs_up INTEGER DEFAULT 0,
	thumbs_down INTEGER DEFAULT 0,
	thumbs_neutral INTEGER DEFAULT 0,
	points INTEGER DEFAULT 0,
	depth_points INTEGER DEFAULT 0,
	questions_answered INTEGER DEFAULT 0,
	current_prompt_index INTEGER DEFAULT 0,
	iteration_count INTEGER DEFAULT 0,
	player_level INTEGER DEFAULT 1,
	current_level TEXT DEFAULT '',
	history TEXT DEFAULT '[]',
	played_levels TEXT DEFAULT '[]',
	game_over_id TEXT DEFAULT ''
);

CREATE TABLE IF NOT EXISTS skills (
	save_id INTEGER NOT NULL,
	skill_id TEXT NOT NULL,
	purchased_at TEXT NOT NULL,
	PRIMARY KEY (save_id, skill_id)
);

CREATE TABLE IF NOT EXISTS skill_usage (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	save_id INTEGER NOT NULL,
	skill_id TEXT NOT NULL,
	level_id TEXT NOT NULL,
	used_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS endings (
	id TEXT PRIMARY KEY,
	unlocked_at TEXT NOT NULL,
	save_snapshot TEXT NOT NULL
);
`

// SaveStore is the SQLite-backed persistence layer for the engine.
type SaveStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at dsn and applies the schema.
func Open(driver, dsn string) (*SaveStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SaveStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SaveStore) Close() error {
	return s.db.Close()
}

// CreateSave inserts a new playthrough with the given initial state and
// returns its id.
func (s *SaveStore) CreateSave(state types.GameState) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	history, err := json.Marshal(state.History)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal history: %w", err)
	}

	result, err := s.db.Exec(`INSERT INTO saves (
		created_at, updated_at, empathy, conformism, caution, optimism,
		thumbs_up, thumbs_down, thumbs_neutral, points, depth_points,
		questions_answered, current_prompt_index, iteration_count,
		player_level, current_level, history, played_levels, game_over_id
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 1, '', ?, '[]', '')`,
		now, now,
		state.Empathy, state.Conformism, state.Caution, state.Optimism,
		state.ThumbsUp, state.ThumbsDown, state.ThumbsNeutral,
		state.Points, state.DepthPoints,
		state.QuestionsAnswered, state.CurrentPromptIndex,
		string(history),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create save: %w", err)
	}

	return result.LastInsertId()
}

const saveColumns = `id, created_at, updated_at, empathy, conformism, caution, optimism,
	thumbs_up, thumbs_down, thumbs_neutral, points, depth_points,
	questions_answered, current_prompt_index, iteration_count,
	player_level, current_level, history, played_levels, game_over_id`

func scanSave(row interface {
	Scan(dest ...interface{}) error
}) (*types.SaveData, error) {
	var save types.SaveData
	var createdAt, updatedAt, history, playedLevels string

	err := row.Scan(
		&save.ID, &createdAt, &updatedAt,
		&save.GameState.Empathy, &save.GameState.Conformism,
		&save.GameState.Caution, &save.GameState.Optimism,
		&save.GameState.ThumbsUp, &save.GameState.ThumbsDown, &save.GameState.ThumbsNeutral,
		&save.GameState.Points, &save.GameState.DepthPoints,
		&save.GameState.QuestionsAnswered, &save.GameState.CurrentPromptIndex,
		&save.IterationCount, &save.PlayerLevel, &save.CurrentLevel,
		&history, &playedLevels, &save.GameOverID,
	)
	if err != nil {
		return nil, err
	}

	save.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	save.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	if err := json.Unmarshal([]byte(history), &save.GameState.History); err != nil {
		return nil, fmt.Errorf("failed to parse save history: %w", err)
	}
	if err := json.Unmarshal([]byte(playedLevels), &save.PlayedLevels); err != nil {
		return nil, fmt.Errorf("failed to parse played levels: %w", err)
	}
	if save.GameState.History == nil {
		save.GameState.History = []types.AnswerHistory{}
	}
	if save.PlayedLevels == nil {
		save.PlayedLevels = []string{}
	}

	return &save, nil
}

// GetSaveByID returns a save, or nil when no such save exists.
func (s *SaveStore) GetSaveByID(saveID int64) (*types.SaveData, error) {
	row := s.db.QueryRow(`SELECT `+saveColumns+` FROM saves WHERE id = ?`, saveID)
	save, err := scanSave(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load save: %w", err)
	}
	return save, nil
}

// GetAllSaves returns every save, most recently updated first.
func (s *SaveStore) GetAllSaves() ([]*types.SaveData, error) {
	rows, err := s.db.Query(`SELECT ` + saveColumns + ` FROM saves ORDER BY updated_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	defer rows.Close()

	saves := make([]*types.SaveData, 0)
	for rows.Next() {
		save, err := scanSave(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan save: %w", err)
		}
		saves = append(saves, save)
	}
	return saves, rows.Err()
}

// UpdateSave writes the cumulative state after an iteration merge.
// playedLevels is optional; pass nil to leave the stored set untouched.
func (s *SaveStore) UpdateSave(saveID int64, state types.GameState, iterationCount, playerLevel int, currentLevel string, playedLevels []string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	history, err := json.Marshal(state.History)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if playedLevels != nil {
		played, err := json.Marshal(playedLevels)
		if err != nil {
			return fmt.Errorf("failed to marshal played levels: %w", err)
		}
		_, err = s.db.Exec(`UPDATE saves SET
			updated_at = ?, empathy = ?, conformism = ?, caution = ?, optimism = ?,
			thumbs_up = ?, thumbs_down = ?, thumbs_neutral = ?, points = ?, depth_points = ?,
			questions_answered = ?, current_prompt_index = ?, iteration_count = ?,
			player_level = ?, current_level = ?, history = ?, played_levels = ?
		WHERE id = ?`,
			now,
			state.Empathy, state.Conformism, state.Caution, state.Optimism,
			state.ThumbsUp, state.ThumbsDown, state.ThumbsNeutral,
			state.Points, state.DepthPoints,
			state.QuestionsAnswered, state.CurrentPromptIndex,
			iterationCount, playerLevel, currentLevel, string(history), string(played),
			saveID,
		)
		if err != nil {
			return fmt.Errorf("failed to update save: %w", err)
		}
		return nil
	}

	_, err = s.db.Exec(`UPDATE saves SET
		updated_at = ?, empathy = ?, conformism = ?, caution = ?, optimism = ?,
		thumbs_up = ?, thumbs_down = ?, thumbs_neutral = ?, points = ?, depth_points = ?,
		questions_answered = ?, current_prompt_index = ?, iteration_count = ?,
		player_level = ?, current_level = ?, history = ?
	WHERE id = ?`,
		now,
		state.Empathy, state.Conformism, state.Caution, state.Optimism,
		state.ThumbsUp, state.ThumbsDown, state.ThumbsNeutral,
		state.Points, state.DepthPoints,
		state.QuestionsAnswered, state.CurrentPromptIndex,
		iterationCount, playerLevel, currentLevel, string(history),
		saveID,
	)
	if err != nil {
		return fmt.Errorf("failed to update save: %w", err)
	}
	return nil
}

// DeleteSave removes a save and its associated skill rows.
func (s *SaveStore) DeleteSave(saveID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM skill_usage WHERE save_id = ?`,
		`DELETE FROM skills WHERE save_id = ?`,
		`DELETE FROM saves WHERE id = ?`,
	} {
		if _, err := tx.Exec(stmt, saveID); err != nil {
			return fmt.Errorf("failed to delete save: %w", err)
		}
	}
	return tx.Commit()
}

// MarkLevelPlayed adds a level id to the save's consumed set. Adding an
// already-present id is a no-op; membership semantics only.
func (s *SaveStore) MarkLevelPlayed(saveID int64, levelID string) error {
	save, err := s.GetSaveByID(saveID)
	if err != nil {
		return err
	}
	if save == nil {
		return fmt.Errorf("save %d not found", saveID)
	}

	for _, id := range save.PlayedLevels {
		if id == levelID {
			return nil
		}
	}

	played, err := json.Marshal(append(save.PlayedLevels, levelID))
	if err != nil {
		return fmt.Errorf("failed to marshal played levels: %w", err)
	}
	if _, err := s.db.Exec(`UPDATE saves SET played_levels = ? WHERE id = ?`, string(played), saveID); err != nil {
		return fmt.Errorf("failed to mark level played: %w", err)
	}
	return nil
}

// PurchaseSkill atomically deducts the price from the save's points and
// records the skill as owned. Returns false without any state change when
// the save is missing, the balance is short, or the skill is already owned.
func (s *SaveStore) PurchaseSkill(saveID int64, skillID string, price int) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var owned int
	if err := tx.QueryRow(`SELECT COUNT(1) FROM skills WHERE save_id = ? AND skill_id = ?`, saveID, skillID).Scan(&owned); err != nil {
		return false, fmt.Errorf("failed to check purchase: %w", err)
	}
	if owned > 0 {
		return false, nil
	}

	result, err := tx.Exec(`UPDATE saves SET points = points - ? WHERE id = ? AND points >= ?`, price, saveID, price)
	if err != nil {
		return false, fmt.Errorf("failed to deduct points: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to deduct points: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(`INSERT INTO skills (save_id, skill_id, purchased_at) VALUES (?, ?, ?)`, saveID, skillID, now); err != nil {
		return false, fmt.Errorf("failed to record purchase: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit purchase: %w", err)
	}
	return true, nil
}

// GetPurchasedSkills returns the skill ids owned by a save.
func (s *SaveStore) GetPurchasedSkills(saveID int64) ([]string, error) {
	rows, err := s.db.Query(`SELECT skill_id FROM skills WHERE save_id = ? ORDER BY purchased_at`, saveID)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	defer rows.Close()

	skills := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		skills = append(skills, id)
	}
	return skills, rows.Err()
}

// SpendPoints deducts points from a save's balance. Returns false when the
// balance cannot cover the amount.
func (s *SaveStore) SpendPoints(saveID int64, amount int) (bool, error) {
	result, err := s.db.Exec(`UPDATE saves SET points = points - ? WHERE id = ? AND points >= ?`, amount, saveID, amount)
	if err != nil {
		return false, fmt.Errorf("failed to spend points: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to spend points: %w", err)
	}
	return affected > 0, nil
}

// RecordSkillUsage appends one lifetime usage of a skill (crash or lie) on
// a save, tagged with the level it was used in.
func (s *SaveStore) RecordSkillUsage(saveID int64, skillID, levelID string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.Exec(`INSERT INTO skill_usage (save_id, skill_id, level_id, used_at) VALUES (?, ?, ?, ?)`,
		saveID, skillID, levelID, now); err != nil {
		return fmt.Errorf("failed to record skill usage: %w", err)
	}
	return nil
}

// GetSkillUsageCount returns the lifetime usage count of a skill on a save.
func (s *SaveStore) GetSkillUsageCount(saveID int64, skillID string) (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM skill_usage WHERE save_id = ? AND skill_id = ?`, saveID, skillID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count skill usage: %w", err)
	}
	return count, nil
}

// MarkSaveAsGameOver sets the terminal ending on a save. Once set, the save
// is frozen for gameplay.
func (s *SaveStore) MarkSaveAsGameOver(saveID int64, endingID string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.Exec(`UPDATE saves SET game_over_id = ?, updated_at = ? WHERE id = ?`, endingID, now, saveID); err != nil {
		return fmt.Errorf("failed to mark game over: %w", err)
	}
	return nil
}

// UnlockEnding appends an ending to the global ledger with a snapshot of the
// cumulative state at the moment of unlock. Re-unlocking an ending is a
// no-op; an id is recorded at most once across all saves.
func (s *SaveStore) UnlockEnding(endingID string, snapshot types.GameState) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.Exec(`INSERT OR IGNORE INTO endings (id, unlocked_at, save_snapshot) VALUES (?, ?, ?)`,
		endingID, now, string(data)); err != nil {
		return fmt.Errorf("failed to unlock ending: %w", err)
	}
	return nil
}

// GetAllEndings returns the unlocked-endings ledger, newest first.
func (s *SaveStore) GetAllEndings() ([]types.EndingData, error) {
	rows, err := s.db.Query(`SELECT id, unlocked_at, save_snapshot FROM endings ORDER BY unlocked_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list endings: %w", err)
	}
	defer rows.Close()

	endings := make([]types.EndingData, 0)
	for rows.Next() {
		var ending types.EndingData
		var unlockedAt, snapshot string
		if err := rows.Scan(&ending.ID, &unlockedAt, &snapshot); err != nil {
			return nil, fmt.Errorf("failed to scan ending: %w", err)
		}
		ending.UnlockedAt, _ = time.Parse(time.RFC3339, unlockedAt)
		if err := json.Unmarshal([]byte(snapshot), &ending.SaveSnapshot); err != nil {
			return nil, fmt.Errorf("failed to parse ending snapshot: %w", err)
		}
		endings = append(endings, ending)
	}
	return endings, rows.Err()
}

// IsEndingUnlocked reports whether an ending id is already in the ledger.
func (s *SaveStore) IsEndingUnlocked(endingID string) (bool, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM endings WHERE id = ?`, endingID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check ending: %w", err)
	}
	return count > 0, nil
}

// UnlockedEndingIDs returns just the ids in the ledger, for the evaluator.
func (s *SaveStore) UnlockedEndingIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM endings`)
	if err != nil {
		return nil, fmt.Errorf("failed to list endings: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan ending id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
