/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package crash

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gocomicstudio/internal/domain"
	"gocomicstudio/internal/storage"
)

func TestRecoverWritesReportAndSavesSession(t *testing.T) {
	root := t.TempDir()
	h, err := storage.InitSession(root, domain.Comic{Title: "Crashy"})
	if err != nil {
		t.Fatalf("InitSession: %v", err)
	}

	exited := -1
	exitFn = func(code int) { exited = code }
	defer func() { exitFn = os.Exit }()

	// Mutate state that only a crash-time save would persist.
	h.Manifest.Comic.Title = "Crashy II"

	func() {
		defer Recover(h)
		panic("boom")
	}()

	if exited != 2 {
		t.Fatalf("exit code = %d, want 2", exited)
	}

	// A crash report landed in the backups dir.
	ents, err := os.ReadDir(filepath.Join(root, storage.BackupsDirName))
	if err != nil {
		t.Fatalf("read backups dir: %v", err)
	}
	found := false
	for _, e := range ents {
		if strings.HasPrefix(e.Name(), "crash-") && strings.HasSuffix(e.Name(), ".log") {
			found = true
			data, err := os.ReadFile(filepath.Join(root, storage.BackupsDirName, e.Name()))
			if err != nil {
				t.Fatalf("read report: %v", err)
			}
			if !strings.Contains(string(data), "Panic: boom") {
				t.Fatalf("report missing panic value")
			}
		}
	}
	if !found {
		t.Fatalf("no crash report written")
	}

	// The in-memory state was flushed to the manifest.
	got, err := storage.OpenSession(root)
	if err != nil {
		t.Fatalf("OpenSession: %v", err)
	}
	if got.Manifest.Comic.Title != "Crashy II" {
		t.Fatalf("title = %q, want crash-time state", got.Manifest.Comic.Title)
	}
}

func TestRecoverNoopWithoutPanic(t *testing.T) {
	exitFn = func(code int) { t.Fatalf("exit called without panic") }
	defer func() { exitFn = os.Exit }()
	func() {
		defer Recover(nil)
	}()
}
