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
	"fmt"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const voicesKey = "voices"

// Voice is one selectable narrator voice offered by the backend.
type Voice struct {
	ID   string `json:"voice_id"`
	Name string `json:"name"`
}

// VoiceCatalog lists the available narrator voices. The catalog changes
// rarely, so it is cached for ten minutes.
type VoiceCatalog struct {
	client *Client
	cache  *gocache.Cache
}

func NewVoiceCatalog(c *Client) *VoiceCatalog {
	return &VoiceCatalog{
		client: c,
		cache:  gocache.New(10*time.Minute, time.Hour),
	}
}

// List returns the available voices, served from cache when fresh.
func (v *VoiceCatalog) List(ctx context.Context) ([]Voice, error) {
	if cached, ok := v.cache.Get(voicesKey); ok {
		return cached.([]Voice), nil
	}
	var resp struct {
		Voices []Voice `json:"voices"`
	}
	if err := v.client.doJSON(ctx, http.MethodGet, "/api/voice-over/voices", nil, &resp); err != nil {
		return nil, fmt.Errorf("voice catalog: %w", err)
	}
	v.cache.SetDefault(voicesKey, resp.Voices)
	return resp.Voices, nil
}
