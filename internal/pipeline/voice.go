/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"gocomicstudio/internal/backend"
	applog "gocomicstudio/internal/log"
)

// SynthesisError records one panel's voice failure inside a batch.
type SynthesisError struct {
	PanelID int
	Err     error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("panel %d: %v", e.PanelID, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// BatchVoiceError aggregates the per-panel failures of one synthesis batch.
// Panels that succeeded keep their clips; the batch is never rolled back.
type BatchVoiceError struct {
	Failures []*SynthesisError
}

func (e *BatchVoiceError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return "some voices failed: " + strings.Join(parts, "; ")
}

// SynthesizeVoices generates audio for every panel that has narration but no
// clip yet. Panels run concurrently with a bounded worker count; one panel's
// failure never aborts the others. Returns nil when everything succeeded,
// otherwise a BatchVoiceError listing the failed panels.
func (p *Pipeline) SynthesizeVoices(ctx context.Context) error {
	if p.voice == nil {
		return errors.New("pipeline: no voice service configured")
	}
	// Snapshot the narrations on the session's goroutine; the workers never
	// touch the session, only this copy.
	type voiceTarget struct {
		panelID   int
		narration string
	}
	var targets []voiceTarget
	p.dispatch(func() {
		for _, panel := range p.session.Panels() {
			if strings.TrimSpace(panel.Narration) != "" && len(panel.AudioClip) == 0 {
				targets = append(targets, voiceTarget{panelID: panel.ID, narration: panel.Narration})
			}
		}
	})
	if len(targets) == 0 {
		return nil
	}

	var (
		mu       sync.Mutex
		failures []*SynthesisError
		clips    = make(map[int][]byte, len(targets))
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.voiceWorkers)
	for _, tgt := range targets {
		g.Go(func() error {
			clip, err := p.voice.GenerateVoiceover(ctx, backend.VoiceRequest{
				Narration: tgt.narration,
				VoiceID:   p.voiceID,
				Speed:     p.speed,
			})
			if err != nil {
				applog.WithComponent("pipeline").Warn("voice synthesis failed",
					slog.Int("panel", tgt.panelID), slog.Any("err", err))
				mu.Lock()
				failures = append(failures, &SynthesisError{PanelID: tgt.panelID, Err: err})
				mu.Unlock()
				return nil // collected, not fatal to the batch
			}
			mu.Lock()
			clips[tgt.panelID] = clip
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers collect failures instead of returning them

	p.dispatch(func() {
		for id, clip := range clips {
			p.session.SetAudioClip(id, clip)
		}
	})

	if len(failures) == 0 {
		return nil
	}
	sort.Slice(failures, func(i, j int) bool { return failures[i].PanelID < failures[j].PanelID })
	return &BatchVoiceError{Failures: failures}
}
