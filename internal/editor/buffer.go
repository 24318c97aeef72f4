/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"log/slog"

	applog "gocomicstudio/internal/log"
	"gocomicstudio/internal/raster"
)

// Res selects which of a panel's two bitmaps an operation targets.
type Res int

const (
	ResPreview Res = iota
	ResWorking
)

// PanelBuffer owns the dual-resolution bitmaps of every panel. Together with
// the Gate it is the only component that mutates panel state; everything else
// goes through its operations.
//
// A decode failure of a stored bitmap is non-fatal: the affected surface is
// left blank, the failure is logged, and callers must tolerate a nil bitmap.
type PanelBuffer struct {
	session *Session
}

// CommitStroke writes the encoded bitmap into the panel's preview or working
// slot. If the bitmap is non-blank, the gate is notified so the next panel
// unlocks. Input for a disabled or unknown panel is silently dropped.
func (b *PanelBuffer) CommitStroke(panelID int, bmp []byte, target Res) {
	p := b.session.lookup(panelID)
	if p == nil {
		return
	}
	if !b.session.Gate.IsEditable(panelID) {
		applog.WithComponent("buffer").Debug("commit to disabled panel dropped", slog.Int("panel", panelID))
		return
	}
	switch target {
	case ResWorking:
		p.WorkingPNG = bmp
	default:
		p.PreviewPNG = bmp
	}
	if raster.NonBlankData(bmp) {
		b.session.Gate.NotifyContentWritten(panelID)
	}
}

// SyncPreviewFromWorking re-derives the preview bitmap from the current
// working bitmap. Called on every zoomed-to-grid transition and after a
// successful generation. A nil working bitmap clears the preview; a corrupt
// one leaves the preview blank rather than failing.
func (b *PanelBuffer) SyncPreviewFromWorking(panelID int) {
	p := b.session.lookup(panelID)
	if p == nil {
		return
	}
	if len(p.WorkingPNG) == 0 {
		p.PreviewPNG = nil
		return
	}
	small, err := raster.ScalePNG(p.WorkingPNG, b.session.previewSize, b.session.previewSize)
	if err != nil {
		applog.WithComponent("buffer").Warn("preview sync failed, leaving preview blank",
			slog.Int("panel", panelID), slog.Any("err", err))
		p.PreviewPNG = nil
		return
	}
	p.PreviewPNG = small
}

// Restore rewinds the panel's bitmaps to an undo snapshot. A nil snapshot
// means the stroke being undone was the panel's first: both bitmaps go back
// to empty. Unlike Clear, restoring never touches prompt, narration, audio,
// or the gate; enabled panels stay enabled.
func (b *PanelBuffer) Restore(panelID int, snap []byte) {
	p := b.session.lookup(panelID)
	if p == nil {
		return
	}
	if snap == nil {
		p.WorkingPNG = nil
		p.PreviewPNG = nil
		return
	}
	b.CommitStroke(panelID, snap, ResWorking)
	b.SyncPreviewFromWorking(panelID)
}

// Clear nulls both bitmaps, resets prompt, narration, and audio, drops the
// undo history, and cascades disablement to all subsequent panels.
func (b *PanelBuffer) Clear(panelID int) {
	p := b.session.lookup(panelID)
	if p == nil {
		return
	}
	p.PreviewPNG = nil
	p.WorkingPNG = nil
	p.Prompt = ""
	p.Narration = ""
	p.AudioClip = nil
	b.session.Undo.Clear(panelID)
	b.session.Gate.NotifyCleared(panelID)
}
