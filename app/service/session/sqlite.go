package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"negosim/app/service/deal"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists sessions in a single sqlite table, parameters
// and history serialized as JSON columns.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		params_json TEXT NOT NULL,
		params_text TEXT NOT NULL,
		history_json TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Session, error) {
	query := `
		SELECT session_id, params_json, params_text, history_json, created_at
		FROM sessions WHERE session_id = ?`

	row := s.db.QueryRowContext(ctx, query, id)

	var sess Session
	var paramsJSON, historyJSON string
	var createdAt int64

	err := row.Scan(&sess.ID, &paramsJSON, &sess.ParamsText, &historyJSON, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	var params deal.Parameters
	if err := json.Unmarshal([]byte(paramsJSON), &params); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}
	sess.Params = params

	if err := json.Unmarshal([]byte(historyJSON), &sess.History); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}

	sess.CreatedAt = time.Unix(createdAt, 0)

	return &sess, nil
}

func (s *SQLiteStore) Put(ctx context.Context, sess *Session) error {
	paramsJSON, err := json.Marshal(sess.Params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}

	historyJSON, err := json.Marshal(sess.History)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	query := `
		INSERT INTO sessions (session_id, params_json, params_text, history_json, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			params_json = excluded.params_json,
			params_text = excluded.params_text,
			history_json = excluded.history_json`

	_, err = s.db.ExecContext(ctx, query,
		sess.ID, string(paramsJSON), sess.ParamsText, string(historyJSON), sess.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Shutdown() error {
	return s.db.Close()
}
