/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"testing"
)

// fakeStore stubs the OS keyring for tests.
type fakeStore struct {
	values map[string]string
}

func (f *fakeStore) Get(service, key string) (string, error) {
	if v, ok := f.values[service+"/"+key]; ok {
		return v, nil
	}
	return "", errors.New("not found")
}

func (f *fakeStore) Set(service, key, value string) error {
	f.values[service+"/"+key] = value
	return nil
}

func (f *fakeStore) Delete(service, key string) error {
	delete(f.values, service+"/"+key)
	return nil
}

func stubKeyring(t *testing.T) *fakeStore {
	t.Helper()
	old := tokenStore
	fs := &fakeStore{values: map[string]string{}}
	tokenStore = fs
	t.Cleanup(func() { tokenStore = old })
	return fs
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Editor.PanelCount != 6 || cfg.Editor.UndoDepth != 5 {
		t.Fatalf("unexpected editor defaults: %+v", cfg.Editor)
	}
	if cfg.Audio.Speed != 1.0 {
		t.Fatalf("unexpected audio speed default: %v", cfg.Audio.Speed)
	}
}

func TestEnvOverridesBackendURL(t *testing.T) {
	stubKeyring(t)
	t.Setenv(EnvBaseURL, "https://example.test:8443")
	t.Setenv("HOME", t.TempDir())
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Services.BaseURL, "https://example.test:8443"; got != want {
		t.Fatalf("Services.BaseURL = %q, want %q", got, want)
	}
}

func TestEnvOverridesTelemetry(t *testing.T) {
	stubKeyring(t)
	t.Setenv(EnvTelemetry, "true")
	t.Setenv("HOME", t.TempDir())
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.General.TelemetryOptIn {
		t.Fatalf("General.TelemetryOptIn expected true from env override")
	}
}

func TestMergeKeepsFilePreferences(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.General.TelemetryOptIn = true
	src.Editor.UndoDepth = 8
	src.Logging.Level = "DEBUG"
	mergeInto(&dst, &src)
	if !dst.General.TelemetryOptIn {
		t.Fatalf("TelemetryOptIn was not merged from file config")
	}
	if dst.Editor.UndoDepth != 8 {
		t.Fatalf("UndoDepth was not merged: %d", dst.Editor.UndoDepth)
	}
	if dst.Logging.Level != "debug" {
		t.Fatalf("Logging.Level not normalized: %q", dst.Logging.Level)
	}
}

func TestSaveAndLoadToken(t *testing.T) {
	fs := stubKeyring(t)
	t.Setenv("HOME", t.TempDir())

	cfg := Defaults()
	cfg.Audio.VoiceID = "voice-123"
	if err := Save(cfg, "tok-abc"); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if fs.values[keyringService+"/"+keyringToken] != "tok-abc" {
		t.Fatalf("token not stored in keyring")
	}

	got, tok, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if tok != "tok-abc" {
		t.Fatalf("token = %q, want tok-abc", tok)
	}
	if got.Audio.VoiceID != "voice-123" {
		t.Fatalf("VoiceID not round-tripped: %q", got.Audio.VoiceID)
	}
}
