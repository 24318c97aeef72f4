/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "gocomicstudio/internal/log"
	"gocomicstudio/internal/domain"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// AutosaveDirName stores per-session ephemeral data under the session root.
	AutosaveDirName  = ".gcs"
	AutosaveFileName = "autosave.sqlite"

	// autosaveSchemaVersion tracks the local SQLite schema. Bump on breaking
	// schema changes.
	autosaveSchemaVersion = 1
)

// AutosavePath returns the full path to the session's autosave database.
func AutosavePath(sessionRoot string) string {
	return filepath.Join(sessionRoot, AutosaveDirName, AutosaveFileName)
}

// Autosave is the crash-recovery store for in-progress panels. Every commit
// to a panel buffer can be mirrored here; after a crash the session is
// rebuilt from the last autosaved rows.
type Autosave struct {
	db *sql.DB
}

// OpenAutosave ensures the autosave database exists under .gcs/, opens it in
// WAL mode, and ensures the schema is current.
func OpenAutosave(sessionRoot string) (*Autosave, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "autosave_open").With(
		slog.String("root", sessionRoot),
	)
	if strings.TrimSpace(sessionRoot) == "" {
		return nil, errors.New("session root is required")
	}
	if err := os.MkdirAll(filepath.Join(sessionRoot, AutosaveDirName), 0o755); err != nil {
		l.Error("create .gcs dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create .gcs dir: %w", err)
	}

	uriPath := filepath.ToSlash(AutosavePath(sessionRoot))
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", uriPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}
	if err := ensureAutosaveSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	return &Autosave{db: db}, nil
}

// Close releases the database handle.
func (a *Autosave) Close() error { return a.db.Close() }

func ensureAutosaveSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS panels (
			id         INTEGER PRIMARY KEY,
			preview    BLOB,
			working    BLOB,
			prompt     TEXT NOT NULL DEFAULT '',
			narration  TEXT NOT NULL DEFAULT '',
			audio      BLOB,
			enabled    INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("ensure autosave schema: %w", err)
		}
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO meta(key, value) VALUES('schema_version', ?)
		 ON CONFLICT(key) DO NOTHING`, fmt.Sprint(autosaveSchemaVersion))
	if err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}

// SetTitle records the working title in the meta table.
func (a *Autosave) SetTitle(ctx context.Context, title string) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO meta(key, value) VALUES('title', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, title)
	return err
}

// Title reads back the working title; empty when never set.
func (a *Autosave) Title(ctx context.Context) (string, error) {
	var title string
	err := a.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'title'`).Scan(&title)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return title, err
}

// SavePanel upserts one panel's full state.
func (a *Autosave) SavePanel(ctx context.Context, p domain.Panel) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO panels(id, preview, working, prompt, narration, audio, enabled, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			preview = excluded.preview,
			working = excluded.working,
			prompt = excluded.prompt,
			narration = excluded.narration,
			audio = excluded.audio,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at`,
		p.ID, p.PreviewPNG, p.WorkingPNG, p.Prompt, p.Narration, p.AudioClip,
		boolToInt(p.Enabled), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("autosave panel %d: %w", p.ID, err)
	}
	return nil
}

// LoadPanels returns all autosaved panels ordered by id.
func (a *Autosave) LoadPanels(ctx context.Context) ([]domain.Panel, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, preview, working, prompt, narration, audio, enabled FROM panels ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load autosaved panels: %w", err)
	}
	defer rows.Close()
	var out []domain.Panel
	for rows.Next() {
		var (
			p       domain.Panel
			enabled int
		)
		if err := rows.Scan(&p.ID, &p.PreviewPNG, &p.WorkingPNG, &p.Prompt, &p.Narration, &p.AudioClip, &enabled); err != nil {
			return nil, fmt.Errorf("scan panel row: %w", err)
		}
		p.Enabled = enabled != 0
		out = append(out, p)
	}
	return out, rows.Err()
}

// Reset drops all autosaved panel rows, keeping the meta table. Used after a
// successful manifest save, when the autosave no longer adds information.
func (a *Autosave) Reset(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, `DELETE FROM panels`); err != nil {
		return fmt.Errorf("reset autosave: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
