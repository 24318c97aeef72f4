/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	applog "gocomicstudio/internal/log"
)

// FallbackStory builds the narration used when the story service fails or
// returns an unusable reply. It echoes the prompts back as a framing line so
// the comic is still narratable.
func FallbackStory(prompts string) string {
	return "Once upon a time, there was a story about: " + prompts
}

// GenerateStory asks the backend to narrate the given panel prompts. A
// transport error or a blank story falls back to the template narration, so
// this never fails the caller.
func (c *Client) GenerateStory(ctx context.Context, prompts string) string {
	body := struct {
		Story string `json:"story"`
	}{Story: prompts}
	var resp struct {
		Story string `json:"story"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/voice-over/generate-story", body, &resp); err != nil {
		applog.WithComponent("backend").Warn("story generation failed, using fallback", slog.Any("err", err))
		return FallbackStory(prompts)
	}
	if strings.TrimSpace(resp.Story) == "" {
		return FallbackStory(prompts)
	}
	return resp.Story
}

// VoiceRequest configures one narration synthesis call. Speed is clamped by
// the server to 0.7..1.2.
type VoiceRequest struct {
	Narration string  `json:"narration"`
	VoiceID   string  `json:"voice_id,omitempty"`
	Speed     float64 `json:"speed"`
}

// GenerateVoiceover synthesizes speech for a narration and returns the
// encoded audio clip (MP3).
func (c *Client) GenerateVoiceover(ctx context.Context, req VoiceRequest) ([]byte, error) {
	if strings.TrimSpace(req.Narration) == "" {
		return nil, fmt.Errorf("voiceover: narration is empty")
	}
	if req.Speed == 0 {
		req.Speed = 1.0
	}
	var resp struct {
		Audio string `json:"audio"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/voice-over/generate-voiceover", req, &resp); err != nil {
		return nil, fmt.Errorf("voiceover request: %w", err)
	}
	clip, err := base64.StdEncoding.DecodeString(resp.Audio)
	if err != nil {
		return nil, fmt.Errorf("voiceover audio decode: %w", err)
	}
	if len(clip) == 0 {
		return nil, fmt.Errorf("voiceover returned empty audio")
	}
	return clip, nil
}
