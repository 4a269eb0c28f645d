// Package sqlite records submission history. Writes are best-effort
// like the backup writer: a store failure is logged by the caller and
// never fails the request.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Submission is one history row: a summary of a processed submission,
// not the full proposal (the backup writer keeps the full record).
type Submission struct {
	ID            string
	ClientCompany string
	ServiceName   string
	Success       bool
	Message       string
	WebhookError  string
	BackupFile    string
	CreatedAt     time.Time
}

// Store is a SQLite-backed submission history.
type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the history database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS submissions (
			id TEXT PRIMARY KEY,
			client_company TEXT NOT NULL,
			service_name TEXT NOT NULL,
			success INTEGER NOT NULL DEFAULT 0,
			message TEXT NOT NULL,
			webhook_error TEXT,
			backup_file TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_created ON submissions(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_client ON submissions(client_company)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Record inserts one submission row. The generated id is returned.
func (s *Store) Record(ctx context.Context, sub Submission) (string, error) {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions
			(id, client_company, service_name, success, message, webhook_error, backup_file, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.ClientCompany, sub.ServiceName, boolToInt(sub.Success),
		sub.Message, sub.WebhookError, sub.BackupFile, sub.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to record submission: %w", err)
	}
	return sub.ID, nil
}

// Recent returns the latest n submissions, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, client_company, service_name, success, message,
			COALESCE(webhook_error, ''), COALESCE(backup_file, ''), created_at
		 FROM submissions ORDER BY created_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var subs []Submission
	for rows.Next() {
		var sub Submission
		var success int
		if err := rows.Scan(&sub.ID, &sub.ClientCompany, &sub.ServiceName, &success,
			&sub.Message, &sub.WebhookError, &sub.BackupFile, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		sub.Success = success != 0
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
