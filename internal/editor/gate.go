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
)

// Gate enforces the progressive unlock rule: panel k+1 only becomes editable
// once panel k has non-trivial content. Clearing a panel re-locks everything
// after it. The gate is the only component allowed to flip a panel's Enabled
// flag.
//
// With progressive gating disabled (Progressive=false) every panel is
// editable; the gate still tracks flags so the UI renders consistently.
type Gate struct {
	session     *Session
	progressive bool
}

// NotifyContentWritten unlocks the next panel after panelID gained content.
func (g *Gate) NotifyContentWritten(panelID int) {
	if !g.progressive {
		return
	}
	next := g.session.lookup(panelID + 1)
	if next == nil || next.Enabled {
		return
	}
	next.Enabled = true
	applog.WithComponent("gate").Debug("panel unlocked", slog.Int("panel", next.ID))
}

// NotifyCleared re-locks every panel after panelID.
func (g *Gate) NotifyCleared(panelID int) {
	if !g.progressive {
		return
	}
	for _, p := range g.session.panels {
		if p.ID > panelID {
			p.Enabled = false
		}
	}
	applog.WithComponent("gate").Debug("panels re-locked", slog.Int("after", panelID))
}

// IsEditable reports whether the panel accepts stroke or generation input.
// Input directed at a disabled or unknown panel is rejected as a no-op by
// callers, never as an error.
func (g *Gate) IsEditable(panelID int) bool {
	p := g.session.lookup(panelID)
	if p == nil {
		return false
	}
	if !g.progressive {
		return true
	}
	return p.Enabled
}
