/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor implements the panel editing core: the dual-resolution panel
// buffer, the bounded undo stack, the progressive sequencing gate, and the
// grid/zoomed mode controller, all owned by one Session per editing run.
package editor

import (
	"gocomicstudio/internal/domain"
	"gocomicstudio/internal/raster"
)

// Options configures a Session. The two feature switches exist because the
// editor is reused across surfaces that historically diverged: the full
// studio editor keeps undo and progressive gating on, the quick-sketch view
// turns both off.
type Options struct {
	PanelCount  int
	UndoDepth   int
	PreviewSize int
	WorkingSize int
	// Undo enables per-stroke undo snapshots.
	Undo bool
	// ProgressiveGating locks panel k+1 until panel k has content.
	ProgressiveGating bool
}

// DefaultOptions matches the studio editor configuration.
func DefaultOptions() Options {
	return Options{
		PanelCount:        6,
		UndoDepth:         5,
		PreviewSize:       256,
		WorkingSize:       1024,
		Undo:              true,
		ProgressiveGating: true,
	}
}

// Session is the explicit per-editing-run context: it owns the panel
// collection and the components that are allowed to mutate it. A Session is
// created when the editor opens and discarded when the comic is exported or
// abandoned; nothing in this package holds global state.
type Session struct {
	panels []*domain.Panel

	Buffer *PanelBuffer
	Gate   *Gate
	Undo   *UndoStack
	Mode   *ModeController

	previewSize int
	workingSize int
	undoEnabled bool
}

// NewSession creates all panels empty and disabled except panel 1.
func NewSession(opts Options) *Session {
	if opts.PanelCount <= 0 {
		opts.PanelCount = DefaultOptions().PanelCount
	}
	if opts.PreviewSize <= 0 {
		opts.PreviewSize = DefaultOptions().PreviewSize
	}
	if opts.WorkingSize <= 0 {
		opts.WorkingSize = DefaultOptions().WorkingSize
	}
	s := &Session{
		previewSize: opts.PreviewSize,
		workingSize: opts.WorkingSize,
		undoEnabled: opts.Undo,
	}
	for i := 1; i <= opts.PanelCount; i++ {
		s.panels = append(s.panels, &domain.Panel{ID: i, Enabled: i == 1 || !opts.ProgressiveGating})
	}
	s.Buffer = &PanelBuffer{session: s}
	s.Gate = &Gate{session: s, progressive: opts.ProgressiveGating}
	s.Undo = NewUndoStack(opts.UndoDepth)
	s.Mode = &ModeController{session: s, live: raster.NewSurface(opts.WorkingSize, opts.WorkingSize)}
	return s
}

// Panels returns a snapshot copy of the panel collection, ordered by id.
func (s *Session) Panels() []domain.Panel {
	out := make([]domain.Panel, 0, len(s.panels))
	for _, p := range s.panels {
		out = append(out, *p)
	}
	return out
}

// Panel returns a copy of one panel; ok is false for unknown ids.
func (s *Session) Panel(id int) (domain.Panel, bool) {
	p := s.lookup(id)
	if p == nil {
		return domain.Panel{}, false
	}
	return *p, true
}

// lookup returns the mutable panel for internal components, nil if unknown.
func (s *Session) lookup(id int) *domain.Panel {
	if id < 1 || id > len(s.panels) {
		return nil
	}
	return s.panels[id-1]
}

// ClearPanel wipes the panel and cascades disablement forward. If the cleared
// panel is currently zoomed, the live surface is blanked too.
func (s *Session) ClearPanel(id int) {
	s.Buffer.Clear(id)
	if z, ok := s.Mode.ZoomedPanel(); ok && z == id {
		s.Mode.Live().Clear()
	}
}

// UndoStroke restores the panel's working bitmap to the most recent snapshot.
// An empty history is a no-op and returns false. Generated content is never
// snapshotted, so undo only ever rewinds manual strokes.
func (s *Session) UndoStroke(id int) bool {
	if !s.undoEnabled {
		return false
	}
	p := s.lookup(id)
	if p == nil || !s.Gate.IsEditable(id) {
		return false
	}
	snap, ok := s.Undo.Pop(id)
	if !ok {
		return false
	}
	s.Buffer.Restore(id, snap)
	if z, zoomed := s.Mode.ZoomedPanel(); zoomed && z == id {
		if snap == nil {
			s.Mode.Live().Clear()
		} else if err := s.Mode.Live().LoadPNG(snap); err == nil {
			s.Mode.Live().ClearDirty()
		}
	}
	return true
}

// CommitGenerated writes a generation result through the same buffer path as
// manual drawing: working bitmap first, preview derived from it, prompt
// recorded. No undo snapshot is pushed for generated content.
func (s *Session) CommitGenerated(id int, bmp []byte, prompt string) bool {
	p := s.lookup(id)
	if p == nil || !s.Gate.IsEditable(id) {
		return false
	}
	s.Buffer.CommitStroke(id, bmp, ResWorking)
	s.Buffer.SyncPreviewFromWorking(id)
	p.Prompt = prompt
	if z, zoomed := s.Mode.ZoomedPanel(); zoomed && z == id {
		if err := s.Mode.Live().LoadPNG(bmp); err == nil {
			s.Mode.Live().ClearDirty()
		}
	}
	return true
}

// SetNarration stores the narration script for a panel.
func (s *Session) SetNarration(id int, narration string) {
	if p := s.lookup(id); p != nil {
		p.Narration = narration
	}
}

// SetAudioClip stores the synthesized clip for a panel.
func (s *Session) SetAudioClip(id int, clip []byte) {
	if p := s.lookup(id); p != nil {
		p.AudioClip = clip
	}
}

// WorkingSize returns the pixel size of the working surface.
func (s *Session) WorkingSize() int { return s.workingSize }

// PreviewSize returns the pixel size of derived preview bitmaps.
func (s *Session) PreviewSize() int { return s.previewSize }
