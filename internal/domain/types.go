/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "sort"

// This file defines the core data model for the studio: a fixed-length
// sequence of panels holding drawing content, prompts, narrations, and
// synthesized audio. It serializes to the session manifest as JSON.

// CoverPanelID is the conventional id of the cover/thumbnail panel. The cover
// never participates in narration playback.
const CoverPanelID = 0

// Panel is one numbered slot in the comic sequence.
//
// PreviewPNG is the low-resolution snapshot shown in the grid layout;
// WorkingPNG is the full-resolution snapshot shown and edited in the zoomed
// layout. WorkingPNG is the source of truth for export; PreviewPNG is derived
// and may lag until a sync point. Both are nil while the panel is empty.
type Panel struct {
	ID         int    `json:"id"`
	PreviewPNG []byte `json:"previewPng,omitempty"`
	WorkingPNG []byte `json:"workingPng,omitempty"`
	// Prompt is the last text prompt used to generate this panel's content,
	// empty if hand-drawn or unset.
	Prompt    string `json:"prompt,omitempty"`
	Narration string `json:"narration,omitempty"`
	AudioClip []byte `json:"audioClip,omitempty"`
	// Enabled gates edits: panel 1 starts enabled, all others disabled until
	// the preceding panel has content.
	Enabled bool `json:"enabled"`
	// IsZoomed marks the panel currently shown full-screen. At most one panel
	// is zoomed at any time; the mode controller enforces this.
	IsZoomed bool `json:"isZoomed"`
}

// HasContent reports whether the panel holds any drawn or generated bitmap.
func (p *Panel) HasContent() bool {
	return len(p.WorkingPNG) > 0 || len(p.PreviewPNG) > 0
}

// Comic is a finished composition ready for export or persistence.
type Comic struct {
	Title        string  `json:"title"`
	IsPublic     bool    `json:"isPublic"`
	Panels       []Panel `json:"panels"`
	ThumbnailPNG []byte  `json:"thumbnailPng,omitempty"`
}

// PlaybackEntry pairs a panel with its narration clip for sequential playback.
type PlaybackEntry struct {
	PanelID int
	Clip    []byte
}

// BuildPlaybackQueue filters panels to those with both a narration and a
// synthesized clip, ordered by id ascending, excluding the cover panel.
func BuildPlaybackQueue(panels []Panel) []PlaybackEntry {
	var q []PlaybackEntry
	for _, p := range panels {
		if p.ID == CoverPanelID {
			continue
		}
		if p.Narration == "" || len(p.AudioClip) == 0 {
			continue
		}
		q = append(q, PlaybackEntry{PanelID: p.ID, Clip: p.AudioClip})
	}
	sort.Slice(q, func(i, j int) bool { return q[i].PanelID < q[j].PanelID })
	return q
}
