/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package pipeline sequences the studio's credit-gated service calls: panel
// art generation, story narration, batch voice synthesis, and cover
// thumbnails. Failures here never touch panel buffers; a panel only changes
// when a fully decoded result is committed.
package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	"gocomicstudio/internal/backend"
	"gocomicstudio/internal/editor"
	applog "gocomicstudio/internal/log"
	"gocomicstudio/internal/raster"
)

var (
	// ErrEmptyPrompt rejects generation before any credit or network work.
	ErrEmptyPrompt = errors.New("pipeline: prompt is empty")
	// ErrInsufficientCredits means the pre-flight balance check failed; no
	// generation call was made. The user can top up and retry.
	ErrInsufficientCredits = errors.New("pipeline: insufficient credits")
	// ErrPanelNotEditable means the target panel is unknown or still locked
	// by the sequencing gate.
	ErrPanelNotEditable = errors.New("pipeline: panel is not editable")
)

// GenerationError wraps an external generation failure. Panel buffers are
// unchanged; the operation is retryable.
type GenerationError struct {
	PanelID int
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("panel %d generation failed: %v", e.PanelID, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ImageGenerator produces panel art from a prompt and optional context.
type ImageGenerator interface {
	GeneratePanel(ctx context.Context, req backend.GenerationRequest) ([]byte, error)
}

// CreditGate answers balance pre-checks and drops its cache once credits
// have been spent.
type CreditGate interface {
	HasSufficient(ctx context.Context, cost int) (bool, error)
	Invalidate()
}

// VoiceSynthesizer turns narration text into an audio clip.
type VoiceSynthesizer interface {
	GenerateVoiceover(ctx context.Context, req backend.VoiceRequest) ([]byte, error)
}

// StoryTeller produces a narration for a set of panel prompts. It must not
// fail; a degraded template result is acceptable.
type StoryTeller interface {
	GenerateStory(ctx context.Context, prompts string) string
}

// ThumbnailGenerator produces a portrait cover image from panel prompts.
type ThumbnailGenerator interface {
	GenerateThumbnail(ctx context.Context, prompts []string) ([]byte, error)
}

// Options configures a Pipeline.
type Options struct {
	VoiceID string
	Speed   float64
	// GenerationsPerMinute bounds outbound generation calls. Zero means the
	// backend's own limit of 10 per minute.
	GenerationsPerMinute int
	// VoiceConcurrency bounds parallel synthesis calls in a batch.
	VoiceConcurrency int
	// Dispatch runs fn on the goroutine that owns the session and waits for
	// it to return. The session is single-goroutine state; the pipeline does
	// its network work on whatever goroutine called it but reads and writes
	// panels only inside Dispatch. Callers driving the pipeline from a
	// background goroutine (a UI event loop does) must marshal here; nil
	// runs fn inline for single-goroutine callers.
	Dispatch func(fn func())
}

// Pipeline coordinates the services around one editing session.
type Pipeline struct {
	session  *editor.Session
	images   ImageGenerator
	credits  CreditGate
	voice    VoiceSynthesizer
	story    StoryTeller
	thumbs   ThumbnailGenerator
	limiter  *rate.Limiter
	dispatch func(fn func())

	voiceID      string
	speed        float64
	voiceWorkers int
}

// New wires a pipeline to a session and its service clients. Any service may
// be nil when the corresponding feature is unused; calling into a nil
// service returns an error rather than panicking.
func New(session *editor.Session, images ImageGenerator, credits CreditGate, voice VoiceSynthesizer, story StoryTeller, thumbs ThumbnailGenerator, opts Options) *Pipeline {
	perMin := opts.GenerationsPerMinute
	if perMin <= 0 {
		perMin = 10
	}
	workers := opts.VoiceConcurrency
	if workers <= 0 {
		workers = 3
	}
	speed := opts.Speed
	if speed == 0 {
		speed = 1.0
	}
	dispatch := opts.Dispatch
	if dispatch == nil {
		dispatch = func(fn func()) { fn() }
	}
	return &Pipeline{
		session:      session,
		images:       images,
		credits:      credits,
		voice:        voice,
		story:        story,
		thumbs:       thumbs,
		limiter:      rate.NewLimiter(rate.Limit(float64(perMin)/60.0), 1),
		dispatch:     dispatch,
		voiceID:      opts.VoiceID,
		speed:        speed,
		voiceWorkers: workers,
	}
}

// GeneratePanel runs the full generation sequence for one panel: prompt
// validation, credit pre-check, external call with continuity context from
// the preceding panel, decode, and commit through the session's buffer path.
// On any failure the panel's buffers are untouched.
func (p *Pipeline) GeneratePanel(ctx context.Context, panelID int, prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}
	if p.images == nil {
		return &GenerationError{PanelID: panelID, Err: errors.New("no generation service configured")}
	}
	// Snapshot panel state on the session's goroutine; the network work
	// below runs without touching the session.
	editable := false
	req := backend.GenerationRequest{TextPrompt: prompt, PanelID: panelID}
	p.dispatch(func() {
		panel, ok := p.session.Panel(panelID)
		if !ok || !p.session.Gate.IsEditable(panelID) {
			return
		}
		editable = true
		if len(panel.WorkingPNG) > 0 {
			req.ReferenceImage = base64.StdEncoding.EncodeToString(panel.WorkingPNG)
		}
		if panelID > 1 {
			if prev, ok := p.session.Panel(panelID - 1); ok && len(prev.WorkingPNG) > 0 {
				req.ContextImage = base64.StdEncoding.EncodeToString(prev.WorkingPNG)
				req.ContextPrompt = prev.Prompt
			}
		}
	})
	if !editable {
		return ErrPanelNotEditable
	}

	if p.credits != nil {
		ok, err := p.credits.HasSufficient(ctx, backend.CostPanelGeneration)
		if err != nil {
			return &GenerationError{PanelID: panelID, Err: fmt.Errorf("credit check: %w", err)}
		}
		if !ok {
			return ErrInsufficientCredits
		}
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return &GenerationError{PanelID: panelID, Err: err}
	}
	img, err := p.images.GeneratePanel(ctx, req)
	if err != nil {
		return &GenerationError{PanelID: panelID, Err: err}
	}
	if err := raster.ValidateImage(img); err != nil {
		applog.WithComponent("pipeline").Warn("generated image undecodable, panel left unchanged",
			slog.Int("panel", panelID), slog.Any("err", err))
		return &GenerationError{PanelID: panelID, Err: err}
	}
	committed := false
	p.dispatch(func() { committed = p.session.CommitGenerated(panelID, img, prompt) })
	if !committed {
		return ErrPanelNotEditable
	}
	if p.credits != nil {
		p.credits.Invalidate()
	}
	applog.WithComponent("pipeline").Info("panel generated", slog.Int("panel", panelID))
	return nil
}

// SuggestStory asks the story service for a narration covering the panels
// that have prompts. Never fails: the service degrades to a template.
func (p *Pipeline) SuggestStory(ctx context.Context) string {
	var prompts []string
	p.dispatch(func() {
		for _, panel := range p.session.Panels() {
			if strings.TrimSpace(panel.Prompt) != "" {
				prompts = append(prompts, panel.Prompt)
			}
		}
	})
	joined := strings.Join(prompts, ", ")
	if p.story == nil {
		return backend.FallbackStory(joined)
	}
	return p.story.GenerateStory(ctx, joined)
}

// GenerateThumbnail produces a cover image from the first three panel
// prompts and returns it for the caller to attach to the comic.
func (p *Pipeline) GenerateThumbnail(ctx context.Context) ([]byte, error) {
	if p.thumbs == nil {
		return nil, errors.New("pipeline: no thumbnail service configured")
	}
	var prompts []string
	p.dispatch(func() {
		for _, panel := range p.session.Panels() {
			if strings.TrimSpace(panel.Prompt) != "" {
				prompts = append(prompts, panel.Prompt)
			}
			if len(prompts) == 3 {
				break
			}
		}
	})
	if len(prompts) == 0 {
		return nil, errors.New("pipeline: no panel prompts for thumbnail")
	}
	if p.credits != nil {
		ok, err := p.credits.HasSufficient(ctx, backend.CostThumbnail)
		if err != nil {
			return nil, fmt.Errorf("credit check: %w", err)
		}
		if !ok {
			return nil, ErrInsufficientCredits
		}
	}
	img, err := p.thumbs.GenerateThumbnail(ctx, prompts)
	if err != nil {
		return nil, err
	}
	if p.credits != nil {
		p.credits.Invalidate()
	}
	return img, nil
}
