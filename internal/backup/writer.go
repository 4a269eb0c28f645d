// Package backup persists validated proposals as timestamped JSON
// snapshots. Writes are advisory: failures are logged and reported in
// the result, never as a request failure.
package backup

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/proposalforge/proposal-gateway/internal/domain"
)

var slugRx = regexp.MustCompile(`[^a-z0-9]+`)

// Writer stores proposal snapshots under a single directory.
type Writer struct {
	dir    string
	logger *slog.Logger

	// now is replaceable for tests.
	now func() time.Time
}

// NewWriter creates a backup writer. When serverless is set the
// ephemeral temp directory is used; otherwise a project-relative data
// directory. An explicit dir overrides both.
func NewWriter(dir string, serverless bool, logger *slog.Logger) *Writer {
	if dir == "" {
		if serverless {
			dir = filepath.Join(os.TempDir(), "proposal-backups")
		} else {
			dir = filepath.Join("data", "backups")
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{dir: dir, logger: logger, now: time.Now}
}

// Write persists the record as proposal-<slug>-<timestamp>.json. It never
// returns an error; a failed write yields Success=false.
func (w *Writer) Write(record *domain.ProposalRecord) domain.LocalBackup {
	name := record.ClientCompany
	if name == "" {
		name = record.CompanyName
	}
	filename := "proposal-" + Slug(name) + "-" + w.now().UTC().Format("20060102-150405") + ".json"

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		w.logger.Error("backup directory unavailable",
			slog.String("dir", w.dir),
			slog.String("error", err.Error()))
		return domain.LocalBackup{Success: false}
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		w.logger.Error("backup marshal failed", slog.String("error", err.Error()))
		return domain.LocalBackup{Success: false}
	}

	path := filepath.Join(w.dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		w.logger.Error("backup write failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return domain.LocalBackup{Success: false}
	}

	w.logger.Info("proposal backed up", slog.String("file", filename))
	return domain.LocalBackup{Success: true, Filename: filename}
}

// Slug lowercases a name and replaces non-alphanumeric runs with a
// single dash.
func Slug(name string) string {
	s := slugRx.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "unnamed"
	}
	return s
}
