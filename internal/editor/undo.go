/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import "sync"

// UndoStack keeps a bounded history of prior bitmap snapshots per panel.
// A snapshot is pushed once per stroke-start, so one pop restores one whole
// stroke. When the depth cap is exceeded the oldest entry is evicted.
//
// Snapshots are opaque encoded bitmaps; a nil snapshot is valid and restores
// the panel to its empty state.
type UndoStack struct {
	mu    sync.Mutex
	depth int
	// per-panel histories, most recent last
	stacks map[int][][]byte
}

// NewUndoStack returns a stack holding at most depth snapshots per panel.
func NewUndoStack(depth int) *UndoStack {
	if depth <= 0 {
		depth = 5
	}
	return &UndoStack{depth: depth, stacks: make(map[int][][]byte)}
}

// Push appends a snapshot for the panel, evicting the oldest entry when the
// history exceeds the depth cap.
func (u *UndoStack) Push(panelID int, snapshot []byte) {
	u.mu.Lock()
	defer u.mu.Unlock()
	cp := append([]byte(nil), snapshot...)
	if snapshot == nil {
		cp = nil
	}
	stack := append(u.stacks[panelID], cp)
	if len(stack) > u.depth {
		stack = append([][]byte{}, stack[len(stack)-u.depth:]...)
	}
	u.stacks[panelID] = stack
}

// Pop removes and returns the most recent snapshot. The second return is
// false when the history is empty; callers treat that as a no-op.
func (u *UndoStack) Pop(panelID int) ([]byte, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	stack := u.stacks[panelID]
	if len(stack) == 0 {
		return nil, false
	}
	s := stack[len(stack)-1]
	u.stacks[panelID] = stack[:len(stack)-1]
	return s, true
}

// Clear drops all history for the panel.
func (u *UndoStack) Clear(panelID int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.stacks, panelID)
}

// Len returns the current history length for the panel.
func (u *UndoStack) Len(panelID int) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.stacks[panelID])
}
