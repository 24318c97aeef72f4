/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns panics into a crash report plus a best-effort session
// save, so an editing session survives a crash of the app.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "gocomicstudio/internal/log"
	"gocomicstudio/internal/storage"
	"gocomicstudio/internal/telemetry"
	"gocomicstudio/internal/version"
)

// exitFn allows testing Recover without terminating the test process.
var exitFn = os.Exit

// Recover captures a panic, logs it with a stacktrace, writes a report file,
// and attempts a crash-safe save of the session manifest when one is open.
//
// Usage: defer func(){ crash.Recover(h) }()
func Recover(h *storage.SessionHandle) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()
		l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

		reportPath, _ := writeReport(h, r, stack)
		if h != nil {
			if err := storage.SaveSession(h); err != nil {
				l.Error("crash-time session save failed", slog.Any("err", err))
			} else {
				l.Info("session saved before exit", slog.String("manifest", h.ManifestPath))
			}
		}

		fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath)
		fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
		exitFn(2)
	}
}

func writeReport(h *storage.SessionHandle, panicVal any, stack []byte) (string, error) {
	dir := os.TempDir()
	if h != nil && h.Root != "" {
		dir = filepath.Join(h.Root, storage.BackupsDirName)
		_ = os.MkdirAll(dir, 0o755)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", stamp))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file",
				slog.Any("err", err), slog.String("path", path))
		}
	}()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Go Comic Studio Crash Report\n")
	fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&buf, "Version: %s\n", version.String())
	fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if h != nil {
		fmt.Fprintf(&buf, "SessionRoot: %s\n", h.Root)
		fmt.Fprintf(&buf, "Manifest: %s\n", h.ManifestPath)
	}
	fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	_ = f.Sync()

	// optionally upload anonymized crash report (opt-in via env)
	telemetry.UploadCrash(buf.Bytes())
	return path, nil
}
