package draftstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLite stores one draft payload per slot in a sqlite table.
type SQLite struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenSQLite opens (creating if needed) the database at dbPath and migrates it.
func OpenSQLite(dbPath string, logger *zap.Logger) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("draft store ready", zap.String("path", dbPath))
	return &SQLite{db: db, logger: logger}, nil
}

// Close releases the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Save(ctx context.Context, slot string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO drafts (slot, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		slot, payload, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save draft %s: %w", slot, err)
	}
	return nil
}

func (s *SQLite) Load(ctx context.Context, slot string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM drafts WHERE slot = ?`, slot).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load draft %s: %w", slot, err)
	}
	return payload, nil
}

func (s *SQLite) Clear(ctx context.Context, slot string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE slot = ?`, slot); err != nil {
		return fmt.Errorf("clear draft %s: %w", slot, err)
	}
	return nil
}
