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

// Credit costs charged by the backend per operation.
const (
	CostPanelGeneration = 10
	CostThumbnail       = 10
	CostVoiceNarration  = 1
)

const balanceKey = "balance"

// CreditsService reads the user's credit balance. The balance is cached
// briefly so the pre-check before each generation does not hammer the
// backend; any operation that spends credits must Invalidate.
type CreditsService struct {
	client *Client
	cache  *gocache.Cache
}

// NewCreditsService wraps a backend client with a 10 second balance cache.
func NewCreditsService(c *Client) *CreditsService {
	return &CreditsService{
		client: c,
		cache:  gocache.New(10*time.Second, time.Minute),
	}
}

// Balance returns the current credit balance, served from cache when fresh.
func (s *CreditsService) Balance(ctx context.Context) (int, error) {
	if v, ok := s.cache.Get(balanceKey); ok {
		return v.(int), nil
	}
	var resp struct {
		Credits int `json:"credits"`
	}
	if err := s.client.doJSON(ctx, http.MethodGet, "/api/credits", nil, &resp); err != nil {
		return 0, fmt.Errorf("credits lookup: %w", err)
	}
	s.cache.SetDefault(balanceKey, resp.Credits)
	return resp.Credits, nil
}

// HasSufficient reports whether the balance covers the given cost.
func (s *CreditsService) HasSufficient(ctx context.Context, cost int) (bool, error) {
	bal, err := s.Balance(ctx)
	if err != nil {
		return false, err
	}
	return bal >= cost, nil
}

// Invalidate drops the cached balance. Call after any credit-spending
// operation succeeds; the next Balance re-fetches.
func (s *CreditsService) Invalidate() {
	s.cache.Delete(balanceKey)
}
