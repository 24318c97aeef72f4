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
	"net/http"
)

// GenerationRequest is one panel art request. ReferenceImage carries the
// user's sketch and ContextImage the previous panel's finished art, both as
// base64 PNG, so consecutive panels keep a consistent look.
type GenerationRequest struct {
	TextPrompt     string `json:"text_prompt"`
	ReferenceImage string `json:"reference_image,omitempty"`
	ContextImage   string `json:"context_image,omitempty"`
	ContextPrompt  string `json:"context_prompt,omitempty"`
	PanelID        int    `json:"panel_id,omitempty"`
}

type generationResponse struct {
	Success   bool   `json:"success"`
	ImageData string `json:"image_data"`
	Message   string `json:"message"`
	Error     string `json:"error"`
}

// GenerationClient talks to the image generation service, which runs
// separately from the main backend.
type GenerationClient struct {
	*Client
}

// NewGenerationClient points at the generation service base URL.
func NewGenerationClient(baseURL string) *GenerationClient {
	return &GenerationClient{Client: NewClient(baseURL, "")}
}

// GeneratePanel requests panel art and returns the decoded image bytes.
func (c *GenerationClient) GeneratePanel(ctx context.Context, req GenerationRequest) ([]byte, error) {
	var resp generationResponse
	if err := c.doJSON(ctx, http.MethodPost, "/generate", req, &resp); err != nil {
		return nil, fmt.Errorf("generation request: %w", err)
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = resp.Message
		}
		return nil, fmt.Errorf("generation rejected: %s", msg)
	}
	img, err := base64.StdEncoding.DecodeString(resp.ImageData)
	if err != nil {
		return nil, fmt.Errorf("generation image decode: %w", err)
	}
	if len(img) == 0 {
		return nil, fmt.Errorf("generation returned empty image")
	}
	return img, nil
}

// GenerateThumbnail asks the main backend for a portrait cover image built
// from the comic's panel prompts. The server uses at most the first three.
func (c *Client) GenerateThumbnail(ctx context.Context, prompts []string) ([]byte, error) {
	body := struct {
		Prompts []string `json:"prompts"`
	}{Prompts: prompts}
	var resp struct {
		Success       bool   `json:"success"`
		ThumbnailData string `json:"thumbnail_data"`
		Message       string `json:"message"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/comics/generate-thumbnail", body, &resp); err != nil {
		return nil, fmt.Errorf("thumbnail request: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("thumbnail rejected: %s", resp.Message)
	}
	img, err := base64.StdEncoding.DecodeString(resp.ThumbnailData)
	if err != nil {
		return nil, fmt.Errorf("thumbnail image decode: %w", err)
	}
	return img, nil
}
