// Package sqlite stores engine snapshots and the event log in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"trust-multisig/internal/hashing"
	"trust-multisig/internal/model"

	"github.com/fxamacker/cbor"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	logger *zap.Logger
	db     *sql.DB
}

func Open(logger *zap.Logger, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+
		"?_pragma=journal_mode(WAL)"+
		"&_pragma=busy_timeout(5000)"+
		"&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// the engine writes from one goroutine at a time
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	logger.Info("sqlite store opened", zap.String("path", path))
	return &Store{logger: logger, db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveSnapshot(ctx context.Context, snapshot model.Snapshot) error {
	content, digest, err := hashing.EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, content, hash, quorum, last_sequence, saved_at)
		 VALUES (1, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   content = excluded.content,
		   hash = excluded.hash,
		   quorum = excluded.quorum,
		   last_sequence = excluded.last_sequence,
		   saved_at = excluded.saved_at`,
		content, digest, snapshot.Quorum, int64(snapshot.LastEventSequence), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns model.ErrSnapshotNotFound for a fresh database and
// model.ErrSnapshotCorrupt when the content does not match its hash.
func (s *Store) LoadSnapshot(ctx context.Context) (model.Snapshot, error) {
	var content []byte
	var digest string

	err := s.db.QueryRowContext(ctx,
		`SELECT content, hash FROM snapshots WHERE id = 1`).Scan(&content, &digest)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Snapshot{}, model.ErrSnapshotNotFound
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}

	return hashing.DecodeSnapshot(content, digest)
}

// AppendEvents writes the batch in one transaction.
func (s *Store) AppendEvents(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO events (sequence, id, type, created_at, body) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, event := range events {
		createdAt := event.Timestamp.UTC().Format(time.RFC3339Nano)
		event.Timestamp = time.Time{}
		body, err := cbor.Marshal(event, cbor.CanonicalEncOptions())
		if err != nil {
			return fmt.Errorf("encode event %d: %w", event.Sequence, err)
		}
		if _, err := stmt.ExecContext(ctx, int64(event.Sequence), event.ID, event.Type.String(), createdAt, body); err != nil {
			return fmt.Errorf("insert event %d: %w", event.Sequence, err)
		}
	}

	return tx.Commit()
}

// EventsAfter returns the events with a sequence number above the given one, oldest
// first. A non-positive limit returns all of them.
func (s *Store) EventsAfter(ctx context.Context, sequence uint64, limit int) ([]model.Event, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT created_at, body FROM events WHERE sequence > ? ORDER BY sequence LIMIT ?`,
		int64(sequence), limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var createdAt string
		var body []byte
		if err := rows.Scan(&createdAt, &body); err != nil {
			return nil, err
		}

		var event model.Event
		if err := cbor.Unmarshal(body, &event); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		event.Timestamp, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			s.logger.Warn("failed to parse event timestamp", zap.String("id", event.ID), zap.String("value", createdAt))
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
