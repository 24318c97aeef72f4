/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"errors"
	"log/slog"

	applog "gocomicstudio/internal/log"
	"gocomicstudio/internal/raster"
)

// Mode is the editor view state: the grid overview or one panel zoomed for
// editing.
type Mode int

const (
	ModeGrid Mode = iota
	ModeZoomed
)

var (
	// ErrTransitionPending is returned when a mode transition is requested
	// while another is still in flight. The second request is rejected, not
	// queued; the caller may retry once the first completes.
	ErrTransitionPending = errors.New("editor: mode transition already in flight")
	// ErrPanelLocked is returned when zooming into a panel the gate has not
	// yet unlocked.
	ErrPanelLocked = errors.New("editor: panel is not editable yet")
)

// ModeController is the two-state view machine governing which buffer is
// live-edited. In Grid mode all panels render their preview bitmap and no
// strokes are accepted; in Zoomed mode exactly one panel's working bitmap is
// painted on the live surface and strokes mutate that surface.
//
// Transitions are serialized: at most one is in flight, and each repaint of
// the live surface is tagged with a generation so a decode completing after a
// newer transition is discarded instead of clobbering the live surface.
type ModeController struct {
	session *Session
	live    *raster.Surface

	mode     Mode
	zoomed   int
	inFlight bool
	gen      uint64
}

// Mode returns the current view mode.
func (c *ModeController) Mode() Mode { return c.mode }

// ZoomedPanel returns the id of the zoomed panel, or false in grid mode.
func (c *ModeController) ZoomedPanel() (int, bool) {
	if c.mode != ModeZoomed {
		return 0, false
	}
	return c.zoomed, true
}

// Live returns the working-resolution surface strokes are painted on.
func (c *ModeController) Live() *raster.Surface { return c.live }

// Generation identifies the current live-surface content. UI code running an
// asynchronous decode records the generation at start and drops the result if
// it no longer matches.
func (c *ModeController) Generation() uint64 { return c.gen }

// EnterZoom transitions Grid -> Zoomed(p). Zoomed(q) -> Zoomed(p) is treated
// as leave-then-enter, never a direct edge. The working bitmap (not the
// preview) is decoded onto the live surface; if absent or corrupt the surface
// starts blank.
func (c *ModeController) EnterZoom(panelID int) error {
	if c.inFlight {
		return ErrTransitionPending
	}
	c.inFlight = true
	defer func() { c.inFlight = false }()

	if c.mode == ModeZoomed {
		if c.zoomed == panelID {
			return nil
		}
		c.leaveZoom()
	}
	if !c.session.Gate.IsEditable(panelID) {
		return ErrPanelLocked
	}
	p := c.session.lookup(panelID)

	c.gen++
	if len(p.WorkingPNG) > 0 {
		if err := c.live.LoadPNG(p.WorkingPNG); err != nil {
			applog.WithComponent("mode").Warn("working bitmap decode failed, starting blank",
				slog.Int("panel", panelID), slog.Any("err", err))
		}
	} else {
		c.live.Clear()
	}
	p.IsZoomed = true
	c.mode = ModeZoomed
	c.zoomed = panelID
	return nil
}

// LeaveZoom transitions Zoomed -> Grid, committing the live surface if dirty
// and re-deriving the panel's preview. A no-op in grid mode.
func (c *ModeController) LeaveZoom() error {
	if c.inFlight {
		return ErrTransitionPending
	}
	c.inFlight = true
	defer func() { c.inFlight = false }()

	if c.mode != ModeZoomed {
		return nil
	}
	c.leaveZoom()
	return nil
}

func (c *ModeController) leaveZoom() {
	p := c.session.lookup(c.zoomed)
	if c.live.Dirty() {
		if data, err := c.live.EncodePNG(); err == nil {
			c.session.Buffer.CommitStroke(c.zoomed, data, ResWorking)
		} else {
			applog.WithComponent("mode").Error("live surface encode failed, stroke lost",
				slog.Int("panel", c.zoomed), slog.Any("err", err))
		}
		c.live.ClearDirty()
	}
	c.session.Buffer.SyncPreviewFromWorking(c.zoomed)
	if p != nil {
		p.IsZoomed = false
	}
	c.gen++
	c.mode = ModeGrid
	c.zoomed = 0
}

// BeginStroke starts a stroke on the live surface at pointer-down. Exactly
// one undo snapshot is pushed per stroke-start, holding the working bitmap as
// of this moment. Strokes outside Zoomed mode, or on a panel that lost its
// editability, are ignored.
func (c *ModeController) BeginStroke(x, y int) {
	if c.mode != ModeZoomed || !c.session.Gate.IsEditable(c.zoomed) {
		return
	}
	if c.session.undoEnabled {
		p := c.session.lookup(c.zoomed)
		c.session.Undo.Push(c.zoomed, p.WorkingPNG)
	}
	c.live.BeginStroke(x, y)
}

// StrokeTo extends the current stroke at pointer-move. No buffer commit
// happens here; stroke tracking must stay low-latency.
func (c *ModeController) StrokeTo(x, y int) {
	if c.mode != ModeZoomed {
		return
	}
	c.live.StrokeTo(x, y)
}

// EndStroke finishes the stroke at pointer-release and commits the live
// surface into the working bitmap, which may unlock the next panel.
func (c *ModeController) EndStroke() {
	if c.mode != ModeZoomed {
		return
	}
	c.live.EndStroke()
	if !c.live.Dirty() {
		return
	}
	data, err := c.live.EncodePNG()
	if err != nil {
		applog.WithComponent("mode").Error("stroke encode failed", slog.Int("panel", c.zoomed), slog.Any("err", err))
		return
	}
	c.session.Buffer.CommitStroke(c.zoomed, data, ResWorking)
	c.live.ClearDirty()
}
