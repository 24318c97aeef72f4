/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package playback plays panel narration clips one after another. The
// Coordinator owns the sequencing state machine; the Player interface hides
// the audio backend so the state machine is testable without a sound device.
package playback

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"
)

// Player plays a single encoded clip. done is invoked exactly once from the
// audio goroutine when the clip finishes (nil) or fails mid-stream (non-nil);
// it is never invoked before Play returns. The returned stop function halts
// the clip early, after which done may or may not still fire, so callers must
// tolerate a late callback.
type Player interface {
	Play(clip []byte, done func(err error)) (stop func(), err error)
}

const outputRate = beep.SampleRate(44100)

// BeepPlayer renders clips through the system speaker. The speaker is
// initialized once, on first use, and shared by all clips.
type BeepPlayer struct {
	once    sync.Once
	initErr error
}

func (p *BeepPlayer) init() error {
	p.once.Do(func() {
		p.initErr = speaker.Init(outputRate, outputRate.N(time.Millisecond*100))
	})
	return p.initErr
}

// Play decodes and starts the clip. Narration clips arrive as MP3 from the
// voice service, but WAV is accepted too for local files.
func (p *BeepPlayer) Play(clip []byte, done func(err error)) (func(), error) {
	if err := p.init(); err != nil {
		return nil, fmt.Errorf("playback: speaker init: %w", err)
	}
	streamer, format, err := decodeClip(clip)
	if err != nil {
		return nil, fmt.Errorf("playback: decode clip: %w", err)
	}
	var s beep.Streamer = streamer
	if format.SampleRate != outputRate {
		s = beep.Resample(4, format.SampleRate, outputRate, streamer)
	}
	ctrl := &beep.Ctrl{Streamer: beep.Seq(s, beep.Callback(func() {
		streamer.Close()
		done(nil)
	}))}
	speaker.Play(ctrl)

	stop := func() {
		speaker.Lock()
		ctrl.Paused = true
		// Detaching the streamer lets the speaker mixer drop the ctrl and
		// prevents the completion callback from ever running.
		ctrl.Streamer = nil
		speaker.Unlock()
		streamer.Close()
	}
	return stop, nil
}

func decodeClip(clip []byte) (beep.StreamSeekCloser, beep.Format, error) {
	rc := io.NopCloser(bytes.NewReader(clip))
	if len(clip) >= 4 && bytes.Equal(clip[:4], []byte("RIFF")) {
		return wav.Decode(rc)
	}
	return mp3.Decode(rc)
}
