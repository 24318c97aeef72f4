/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage persists editing sessions on disk: a JSON manifest with
// transactional writes and timestamped backups, and a SQLite autosave index
// for crash recovery of in-progress panels.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gocomicstudio/internal/domain"
)

const (
	ManifestFileName = "session.json"
	BackupsDirName   = "backups"

	// manifestSchemaVersion is bumped on breaking manifest changes.
	manifestSchemaVersion = 1
)

var standardSubDirs = []string{
	"exports",
	BackupsDirName,
}

// Manifest is the on-disk session document.
type Manifest struct {
	SchemaVersion int          `json:"schema_version"`
	SavedAt       time.Time    `json:"saved_at"`
	Comic         domain.Comic `json:"comic"`
}

// SessionHandle tracks a session loaded from or saved to disk. Root is the
// session directory containing session.json and subfolders.
type SessionHandle struct {
	Root         string
	ManifestPath string
	Manifest     Manifest
}

// InitSession creates a session directory at root, scaffolds the standard
// subfolders, and writes an initial manifest transactionally.
func InitSession(root string, comic domain.Comic) (*SessionHandle, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create session root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return nil, fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	h := &SessionHandle{
		Root:         root,
		ManifestPath: filepath.Join(root, ManifestFileName),
		Manifest:     Manifest{SchemaVersion: manifestSchemaVersion, Comic: comic},
	}
	if err := SaveSession(h); err != nil {
		return nil, err
	}
	return h, nil
}

// OpenSession loads an existing session. If the current manifest cannot be
// read or parsed, the latest timestamped backup is tried.
func OpenSession(root string) (*SessionHandle, error) {
	mpath := filepath.Join(root, ManifestFileName)
	b, err := os.ReadFile(mpath)
	if err != nil {
		m, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("open manifest: %w; backup attempt: %v", err, berr)
		}
		return &SessionHandle{Root: root, ManifestPath: mpath, Manifest: *m}, nil
	}
	var m Manifest
	if uerr := json.Unmarshal(b, &m); uerr != nil {
		bm, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("parse manifest: %w; backup attempt: %v", uerr, berr)
		}
		return &SessionHandle{Root: root, ManifestPath: mpath, Manifest: *bm}, nil
	}
	return &SessionHandle{Root: root, ManifestPath: mpath, Manifest: m}, nil
}

// SaveSession writes the manifest to disk with transactional semantics and a
// timestamped backup of the previous manifest (if present).
func SaveSession(h *SessionHandle) error {
	if h == nil {
		return errors.New("nil SessionHandle")
	}
	if h.Root == "" || h.ManifestPath == "" {
		return errors.New("invalid SessionHandle: missing paths")
	}
	h.Manifest.SchemaVersion = manifestSchemaVersion
	h.Manifest.SavedAt = time.Now().UTC()
	data, err := json.MarshalIndent(h.Manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	data = append(data, '\n')

	bdir := filepath.Join(h.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}

	if _, statErr := os.Stat(h.ManifestPath); statErr == nil {
		stamp := time.Now().Format("20060102-150405")
		bname := fmt.Sprintf("%s.%s.bak", ManifestFileName, stamp)
		if cerr := copyFile(h.ManifestPath, filepath.Join(bdir, bname)); cerr != nil {
			return fmt.Errorf("backup current manifest: %w", cerr)
		}
	}

	// Write to a temp file in the same directory, then rename over the target.
	dir := filepath.Dir(h.ManifestPath)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", ManifestFileName, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp manifest: %w", werr)
	}
	// On Windows, replace by removing the destination first if needed.
	if _, err := os.Stat(h.ManifestPath); err == nil {
		_ = os.Remove(h.ManifestPath)
	}
	if rerr := os.Rename(temp, h.ManifestPath); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace manifest: %w", rerr)
	}
	return nil
}

// writeFileSync writes data to a file and flushes it to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	return nil
}

// copyFile copies a file from src to dst, overwriting dst if it exists.
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

// openFromLatestBackup tries the newest timestamped backup.
func openFromLatestBackup(root string) (*Manifest, error) {
	bdir := filepath.Join(root, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var candidates []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, ManifestFileName+".") && strings.HasSuffix(name, ".bak") {
			candidates = append(candidates, filepath.Join(bdir, name))
		}
	}
	if len(candidates) == 0 {
		return nil, errors.New("no backups found")
	}
	sort.Strings(candidates) // timestamp in name yields lexicographic order
	latest := candidates[len(candidates)-1]
	b, err := os.ReadFile(latest)
	if err != nil {
		return nil, fmt.Errorf("read latest backup: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse latest backup: %w", err)
	}
	return &m, nil
}
