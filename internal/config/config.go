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
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the
// user scope. Environment variables are treated as read-only overrides at
// runtime. The session bearer token is not stored on disk; it lives in the OS
// keychain.

type ServicesConfig struct {
	// BaseURL is the studio backend (credits, narration, voice, persistence).
	BaseURL string `yaml:"base_url"`
	// GenerationURL is the panel art generation service.
	GenerationURL string `yaml:"generation_url"`
	TimeoutMs     int    `yaml:"timeout_ms"`
	// PostgresDSN enables the direct comic store for self-hosted deployments.
	// When empty, comics are persisted through the backend HTTP API.
	PostgresDSN string `yaml:"postgres_dsn"`
}

type AudioConfig struct {
	VoiceID string  `yaml:"voice_id"`
	Speed   float64 `yaml:"speed"`
}

type EditorConfig struct {
	PanelCount int `yaml:"panel_count"`
	UndoDepth  int `yaml:"undo_depth"`
	// Pixel sizes of the two per-panel surfaces.
	PreviewSize int `yaml:"preview_size"`
	WorkingSize int `yaml:"working_size"`
}

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	Theme          string `yaml:"theme"` // "system" | "light" | "dark"
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int            `yaml:"config_version"`
	General       GeneralConfig  `yaml:"general"`
	Services      ServicesConfig `yaml:"services"`
	Audio         AudioConfig    `yaml:"audio"`
	Editor        EditorConfig   `yaml:"editor"`
	Logging       LoggingConfig  `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, Theme: "system"},
		Services: ServicesConfig{
			BaseURL:       "http://localhost:8000",
			GenerationURL: "http://localhost:3004",
			TimeoutMs:     30000,
		},
		Audio:   AudioConfig{VoiceID: "L1aJrPa7pLJEyYlh3Ilq", Speed: 1.0},
		Editor:  EditorConfig{PanelCount: 6, UndoDepth: 5, PreviewSize: 256, WorkingSize: 1024},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvBaseURL       = "GCS_BACKEND_URL"
	EnvGenerationURL = "GCS_GENERATION_URL"
	EnvTimeoutMs     = "GCS_TIMEOUT_MS"
	EnvPostgresDSN   = "GCS_PG_DSN"
	EnvTelemetry     = "GCS_TELEMETRY_OPT_IN"
	EnvVoiceID       = "GCS_VOICE_ID"
	EnvLogLevel      = "GCS_LOG_LEVEL"
	EnvLogFormat     = "GCS_LOG_FORMAT"
	EnvLogSource     = "GCS_LOG_SOURCE"
	EnvLogFile       = "GCS_LOG_FILE"
)

// Service/key for the OS keyring.
const (
	keyringService = "GoComicStudio"
	keyringToken   = "session_token"
)

// TokenStore abstracts the keyring so tests can stub it.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

var tokenStore TokenStore = osKeyring{}

// Path returns the per-user config file path.
func Path() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoComicStudio")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoComicStudio")
	default:
		base = filepath.Join(os.Getenv("HOME"), ".config", "gocomicstudio")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges
// environment overrides. The session token is loaded from the keyring and
// returned separately, never kept inside the struct.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := Path()
	if err != nil {
		return cfg, "", err
	}
	if data, rerr := os.ReadFile(path); rerr == nil {
		var fileCfg AppConfig
		if uerr := yaml.Unmarshal(data, &fileCfg); uerr == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, nil
}

// Save writes the user config YAML and persists the token into the OS keyring
// (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return err
		}
	}
	return nil
}

// ClearToken removes the session token from the keyring.
func ClearToken() error {
	return tokenStore.Delete(keyringService, keyringToken)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	// booleans copy directly from the file so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	if src.Services.BaseURL != "" {
		dst.Services.BaseURL = src.Services.BaseURL
	}
	if src.Services.GenerationURL != "" {
		dst.Services.GenerationURL = src.Services.GenerationURL
	}
	if src.Services.TimeoutMs != 0 {
		dst.Services.TimeoutMs = src.Services.TimeoutMs
	}
	if src.Services.PostgresDSN != "" {
		dst.Services.PostgresDSN = src.Services.PostgresDSN
	}
	if src.Audio.VoiceID != "" {
		dst.Audio.VoiceID = src.Audio.VoiceID
	}
	if src.Audio.Speed > 0 {
		dst.Audio.Speed = src.Audio.Speed
	}
	if src.Editor.PanelCount > 0 {
		dst.Editor.PanelCount = src.Editor.PanelCount
	}
	if src.Editor.UndoDepth > 0 {
		dst.Editor.UndoDepth = src.Editor.UndoDepth
	}
	if src.Editor.PreviewSize > 0 {
		dst.Editor.PreviewSize = src.Editor.PreviewSize
	}
	if src.Editor.WorkingSize > 0 {
		dst.Editor.WorkingSize = src.Editor.WorkingSize
	}
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		cfg.Services.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvGenerationURL)); v != "" {
		cfg.Services.GenerationURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Services.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvPostgresDSN)); v != "" {
		cfg.Services.PostgresDSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetry)); v != "" {
		cfg.General.TelemetryOptIn = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvVoiceID)); v != "" {
		cfg.Audio.VoiceID = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
