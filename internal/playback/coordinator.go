/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package playback

import (
	"errors"
	"log/slog"
	"sync"

	"gocomicstudio/internal/domain"
	applog "gocomicstudio/internal/log"
)

// State is the coordinator's play state. There is no paused state: stopping
// mid-clip discards the position and a new run starts from the first entry.
type State int

const (
	StateIdle State = iota
	StatePlaying
)

// ErrEmptyQueue is returned when playback is requested with nothing to play.
var ErrEmptyQueue = errors.New("playback: queue is empty")

// Hooks receive coordinator events. Both are optional and are called with the
// coordinator lock held, so they must not call back into the Coordinator.
type Hooks struct {
	// PanelStarted fires when a clip begins, with the owning panel id.
	PanelStarted func(panelID int)
	// Finished fires when the run reaches Idle, whether by exhausting the
	// queue or by an explicit stop.
	Finished func()
}

// Coordinator plays a queue of narration clips strictly in order. A clip
// error counts as completion: the entry is skipped and the run continues, so
// one bad clip never stalls the remaining panels.
//
// Every run is tagged with a token. Completion callbacks capture the token at
// start and are discarded when it no longer matches, so a callback from a
// stopped clip that raced the stop cannot advance a newer run.
type Coordinator struct {
	mu     sync.Mutex
	player Player
	hooks  Hooks

	state State
	queue []domain.PlaybackEntry
	index int
	token uint64
	stop  func()
}

// NewCoordinator wires a coordinator to a player.
func NewCoordinator(player Player, hooks Hooks) *Coordinator {
	return &Coordinator{player: player, hooks: hooks}
}

// State returns the current play state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentPanel returns the panel id of the clip now playing, or false when
// idle.
func (c *Coordinator) CurrentPanel() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePlaying {
		return 0, false
	}
	return c.queue[c.index].PanelID, true
}

// Start begins a new run over the queue from its first entry. Starting while
// already playing stops the current run first.
func (c *Coordinator) Start(queue []domain.PlaybackEntry) error {
	if len(queue) == 0 {
		return ErrEmptyQueue
	}
	c.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = queue
	c.index = 0
	c.token++
	c.state = StatePlaying
	c.playCurrentLocked()
	return nil
}

// Toggle starts a run when idle and stops the run when playing. This is the
// single play-button behavior: one control, two meanings.
func (c *Coordinator) Toggle(queue []domain.PlaybackEntry) error {
	c.mu.Lock()
	playing := c.state == StatePlaying
	c.mu.Unlock()
	if playing {
		c.Stop()
		return nil
	}
	return c.Start(queue)
}

// Stop halts the current run immediately. Idle is a no-op. The token is
// advanced before the clip is halted so a completion callback already in
// flight is recognized as stale.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if c.state != StatePlaying {
		c.mu.Unlock()
		return
	}
	c.token++
	stop := c.stop
	c.stop = nil
	c.state = StateIdle
	if c.hooks.Finished != nil {
		c.hooks.Finished()
	}
	c.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// playCurrentLocked starts the clip at the current index, skipping entries
// whose clips fail to start. Reaching the end of the queue drops to Idle.
func (c *Coordinator) playCurrentLocked() {
	log := applog.WithComponent("playback")
	for c.index < len(c.queue) {
		entry := c.queue[c.index]
		tok := c.token
		stop, err := c.player.Play(entry.Clip, func(err error) {
			c.clipDone(tok, err)
		})
		if err != nil {
			log.Warn("clip failed to start, skipping panel",
				slog.Int("panel", entry.PanelID), slog.Any("err", err))
			c.index++
			continue
		}
		c.stop = stop
		if c.hooks.PanelStarted != nil {
			c.hooks.PanelStarted(entry.PanelID)
		}
		return
	}
	c.state = StateIdle
	c.stop = nil
	if c.hooks.Finished != nil {
		c.hooks.Finished()
	}
}

// clipDone handles a clip completion callback. Callbacks carrying a stale
// token belong to a stopped or superseded run and are dropped.
func (c *Coordinator) clipDone(tok uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tok != c.token || c.state != StatePlaying {
		return
	}
	if err != nil {
		applog.WithComponent("playback").Warn("clip playback failed, continuing",
			slog.Int("panel", c.queue[c.index].PanelID), slog.Any("err", err))
	}
	c.index++
	c.token++
	c.playCurrentLocked()
}
