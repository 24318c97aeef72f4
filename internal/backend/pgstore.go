/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"gocomicstudio/internal/domain"
)

// PGStore persists comics directly into Postgres, bypassing the HTTP
// backend. Used by self-hosted setups where the studio talks to its own
// database.
type PGStore struct {
	db *sql.DB
}

// OpenPGStore connects with the pgx stdlib driver and ensures the comics
// table exists.
func OpenPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS comics (
    id         BIGSERIAL PRIMARY KEY,
    title      TEXT NOT NULL,
    user_id    TEXT NOT NULL DEFAULT '',
    is_public  BOOLEAN NOT NULL DEFAULT FALSE,
    panels     JSONB NOT NULL,
    thumbnail  BYTEA,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure comics table: %w", err)
	}
	return &PGStore{db: db}, nil
}

// Close releases the connection pool.
func (s *PGStore) Close() error { return s.db.Close() }

// StoredComic is a listing projection.
type StoredComic struct {
	ID        int64
	Title     string
	IsPublic  bool
	UpdatedAt time.Time
}

// Save inserts the comic and returns its id. Panels are stored as one JSON
// document, matching the save-comic payload shape.
func (s *PGStore) Save(ctx context.Context, userID string, comic domain.Comic) (int64, error) {
	panels, err := json.Marshal(comic.Panels)
	if err != nil {
		return 0, fmt.Errorf("encode panels: %w", err)
	}
	var id int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO comics (title, user_id, is_public, panels, thumbnail) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		comic.Title, userID, comic.IsPublic, panels, comic.ThumbnailPNG,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert comic: %w", err)
	}
	return id, nil
}

// Load reads one comic back by id.
func (s *PGStore) Load(ctx context.Context, id int64) (*domain.Comic, error) {
	var (
		comic  domain.Comic
		panels []byte
		thumb  []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT title, is_public, panels, thumbnail FROM comics WHERE id = $1`, id,
	).Scan(&comic.Title, &comic.IsPublic, &panels, &thumb)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("comic %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load comic %d: %w", id, err)
	}
	if err := json.Unmarshal(panels, &comic.Panels); err != nil {
		return nil, fmt.Errorf("decode panels for comic %d: %w", id, err)
	}
	comic.ThumbnailPNG = thumb
	return &comic, nil
}

// List returns the user's comics, newest first.
func (s *PGStore) List(ctx context.Context, userID string) ([]StoredComic, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, is_public, updated_at FROM comics WHERE user_id = $1 ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list comics: %w", err)
	}
	defer rows.Close()
	var out []StoredComic
	for rows.Next() {
		var c StoredComic
		if err := rows.Scan(&c.ID, &c.Title, &c.IsPublic, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan comic row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
