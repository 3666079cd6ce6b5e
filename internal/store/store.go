package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/turn-governor/internal/band"
	"github.com/danielpatrickdp/turn-governor/internal/decision"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS turn_decisions (
	turn_id          TEXT PRIMARY KEY,
	conversation_id  TEXT,
	tier             TEXT NOT NULL,
	intent           TEXT NOT NULL,
	arousal          TEXT NOT NULL,
	confidence       REAL NOT NULL,
	band             TEXT NOT NULL,
	lead             TEXT NOT NULL,
	challenge        TEXT NOT NULL,
	profile          TEXT NOT NULL,
	signal_state     TEXT NOT NULL,
	failure_mode     TEXT NOT NULL,
	finalize_passed  INTEGER NOT NULL,
	decision_json    TEXT NOT NULL,
	selection_json   TEXT NOT NULL,
	telemetry_json   TEXT NOT NULL,
	created_at       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_turn_decisions_conversation
	ON turn_decisions(conversation_id, created_at);

CREATE TABLE IF NOT EXISTS failure_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	turn_id     TEXT NOT NULL,
	mode        TEXT NOT NULL,
	triggers    TEXT NOT NULL,
	actions     TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (turn_id) REFERENCES turn_decisions(turn_id)
);
`
// #endregion schema

// #region store-struct
// Store is the SQLite audit log of governed turns.
type Store struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
// #endregion close

// #region record-turn
// RecordTurn writes the turn row and, when a failure mode fired, its event row.
func (s *Store) RecordTurn(rec TurnRecord) error {
	if rec.TurnID == "" {
		rec.TurnID = rec.Decision.ID
	}
	if rec.TurnID == "" {
		return fmt.Errorf("record turn: missing turn id")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	mode := rec.Failure.Mode
	if mode == "" {
		mode = decision.FailureNone
	}

	decJSON, err := json.Marshal(rec.Decision)
	if err != nil {
		return fmt.Errorf("marshal decision: %w", err)
	}
	selJSON, err := json.Marshal(rec.Selection)
	if err != nil {
		return fmt.Errorf("marshal selection: %w", err)
	}
	telJSON, err := json.Marshal(rec.Telemetry)
	if err != nil {
		return fmt.Errorf("marshal telemetry: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	d := rec.Decision
	_, err = tx.Exec(
		`INSERT INTO turn_decisions (turn_id, conversation_id, tier, intent, arousal, confidence, band,
		 lead, challenge, profile, signal_state, failure_mode, finalize_passed,
		 decision_json, selection_json, telemetry_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TurnID, nullIfEmpty(rec.ConversationID), string(rec.Tier), string(d.Intent.Primary),
		string(d.State.Arousal), d.State.Confidence, string(band.Dominant(d.Codes)),
		string(d.Routing.Lead), string(d.Routing.Policy.Challenge), string(rec.Selection.Profile),
		string(rec.Telemetry.SignalState), string(mode), rec.FinalizePassed,
		string(decJSON), string(selJSON), string(telJSON), rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}

	if rec.Failure.Triggered() {
		trigJSON, _ := json.Marshal(rec.Failure.Triggers)
		actJSON, _ := json.Marshal(rec.Failure.Actions)
		_, err = tx.Exec(
			`INSERT INTO failure_events (turn_id, mode, triggers, actions, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			rec.TurnID, string(mode), string(trigJSON), string(actJSON),
			rec.CreatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("insert failure event: %w", err)
		}
	}

	return tx.Commit()
}
// #endregion record-turn

// #region get-turn
const turnColumns = `turn_id, conversation_id, tier, failure_mode, finalize_passed, decision_json,
	selection_json, telemetry_json, created_at`

// GetTurn retrieves a turn by ID, including its failure event when one was recorded.
func (s *Store) GetTurn(id string) (TurnRecord, error) {
	row := s.db.QueryRow(`SELECT `+turnColumns+` FROM turn_decisions WHERE turn_id = ?`, id)
	rec, err := scanTurn(row)
	if err != nil {
		return TurnRecord{}, fmt.Errorf("get turn %s: %w", id, err)
	}

	failures, err := s.failuresWhere(`WHERE turn_id = ?`, id)
	if err != nil {
		return TurnRecord{}, err
	}
	rec.Failure = decision.FailureEvent{Mode: decision.FailureNone, Triggers: []string{}, Actions: []string{}}
	if len(failures) > 0 {
		f := failures[0]
		rec.Failure = decision.FailureEvent{Mode: f.Mode, Triggers: f.Triggers, Actions: f.Actions}
	}
	return rec, nil
}
// #endregion get-turn

// #region list-turns
// ListTurns returns the most recent turns, optionally limited to one conversation.
// Only the failure mode is filled in; use GetTurn or ListFailures for triggers.
func (s *Store) ListTurns(conversationID string, limit int) ([]TurnRecord, error) {
	query := `SELECT ` + turnColumns + ` FROM turn_decisions`
	args := []interface{}{}
	if conversationID != "" {
		query += ` WHERE conversation_id = ?`
		args = append(args, conversationID)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var records []TurnRecord
	for rows.Next() {
		rec, err := scanTurn(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
// #endregion list-turns

// #region failures
// ListFailures returns the most recent failure events.
func (s *Store) ListFailures(limit int) ([]FailureRecord, error) {
	return s.failuresWhere(`ORDER BY id DESC LIMIT ?`, limit)
}

// CountFailures returns the number of failure events per mode, most frequent first.
func (s *Store) CountFailures() ([]ModeCount, error) {
	rows, err := s.db.Query(
		`SELECT mode, COUNT(*) FROM failure_events GROUP BY mode ORDER BY COUNT(*) DESC, mode ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("count failures: %w", err)
	}
	defer rows.Close()

	var out []ModeCount
	for rows.Next() {
		var mc ModeCount
		var mode string
		if err := rows.Scan(&mode, &mc.Count); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		mc.Mode = decision.FailureMode(mode)
		out = append(out, mc)
	}
	return out, rows.Err()
}

func (s *Store) failuresWhere(clause string, args ...interface{}) ([]FailureRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, turn_id, mode, triggers, actions, created_at FROM failure_events `+clause, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list failures: %w", err)
	}
	defer rows.Close()

	var out []FailureRecord
	for rows.Next() {
		var f FailureRecord
		var mode, trigJSON, actJSON, createdStr string
		if err := rows.Scan(&f.ID, &f.TurnID, &mode, &trigJSON, &actJSON, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		f.Mode = decision.FailureMode(mode)
		if err := json.Unmarshal([]byte(trigJSON), &f.Triggers); err != nil {
			return nil, fmt.Errorf("unmarshal triggers: %w", err)
		}
		if err := json.Unmarshal([]byte(actJSON), &f.Actions); err != nil {
			return nil, fmt.Errorf("unmarshal actions: %w", err)
		}
		f.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, f)
	}
	return out, rows.Err()
}
// #endregion failures

// #region helpers
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTurn(row scanner) (TurnRecord, error) {
	var rec TurnRecord
	var convID sql.NullString
	var tier, mode, decJSON, selJSON, telJSON, createdStr string

	err := row.Scan(&rec.TurnID, &convID, &tier, &mode, &rec.FinalizePassed, &decJSON, &selJSON, &telJSON, &createdStr)
	if err != nil {
		return TurnRecord{}, err
	}
	if convID.Valid {
		rec.ConversationID = convID.String
	}
	rec.Tier = decision.Tier(tier)
	rec.Failure.Mode = decision.FailureMode(mode)
	if err := json.Unmarshal([]byte(decJSON), &rec.Decision); err != nil {
		return TurnRecord{}, fmt.Errorf("unmarshal decision: %w", err)
	}
	if err := json.Unmarshal([]byte(selJSON), &rec.Selection); err != nil {
		return TurnRecord{}, fmt.Errorf("unmarshal selection: %w", err)
	}
	if err := json.Unmarshal([]byte(telJSON), &rec.Telemetry); err != nil {
		return TurnRecord{}, fmt.Errorf("unmarshal telemetry: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
