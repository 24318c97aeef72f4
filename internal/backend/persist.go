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

	"gocomicstudio/internal/domain"
)

type savePanel struct {
	ID        int    `json:"id"`
	ImageData string `json:"image_data"`
	Narration string `json:"narration,omitempty"`
	AudioData string `json:"audio_data,omitempty"`
}

type saveComicRequest struct {
	Title         string      `json:"title"`
	IsPublic      bool        `json:"is_public"`
	Panels        []savePanel `json:"panels"`
	ThumbnailData string      `json:"thumbnail_data,omitempty"`
}

// SaveComicResult identifies the stored comic.
type SaveComicResult struct {
	ComicID int64  `json:"comic_id"`
	Message string `json:"message"`
}

// SaveComic uploads a finished comic. Only panels with a working bitmap are
// sent, since image_data is encoded from the working bitmap; a comic with no
// such panels is rejected locally.
func (c *Client) SaveComic(ctx context.Context, comic domain.Comic) (*SaveComicResult, error) {
	req := saveComicRequest{
		Title:    comic.Title,
		IsPublic: comic.IsPublic,
	}
	for _, p := range comic.Panels {
		if len(p.WorkingPNG) == 0 {
			continue
		}
		sp := savePanel{
			ID:        p.ID,
			ImageData: base64.StdEncoding.EncodeToString(p.WorkingPNG),
			Narration: p.Narration,
		}
		if len(p.AudioClip) > 0 {
			sp.AudioData = base64.StdEncoding.EncodeToString(p.AudioClip)
		}
		req.Panels = append(req.Panels, sp)
	}
	if len(req.Panels) == 0 {
		return nil, fmt.Errorf("save comic: no panels with content")
	}
	if len(comic.ThumbnailPNG) > 0 {
		req.ThumbnailData = base64.StdEncoding.EncodeToString(comic.ThumbnailPNG)
	}
	var res SaveComicResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/comics/save-comic", req, &res); err != nil {
		return nil, fmt.Errorf("save comic: %w", err)
	}
	return &res, nil
}
