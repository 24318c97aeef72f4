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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gocomicstudio/internal/domain"
)

func TestGeneratePanelDecodesImage(t *testing.T) {
	img := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req GenerationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.TextPrompt != "a fox in the rain" {
			t.Errorf("text_prompt = %q", req.TextPrompt)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success":    true,
			"image_data": base64.StdEncoding.EncodeToString(img),
			"message":    "ok",
		})
	}))
	defer srv.Close()

	c := NewGenerationClient(srv.URL)
	got, err := c.GeneratePanel(context.Background(), GenerationRequest{TextPrompt: "a fox in the rain", PanelID: 1})
	if err != nil {
		t.Fatalf("GeneratePanel: %v", err)
	}
	if string(got) != string(img) {
		t.Fatalf("image bytes mismatch")
	}
}

func TestGeneratePanelFailureSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "model overloaded"})
	}))
	defer srv.Close()

	c := NewGenerationClient(srv.URL)
	_, err := c.GeneratePanel(context.Background(), GenerationRequest{TextPrompt: "x"})
	if err == nil || !strings.Contains(err.Error(), "model overloaded") {
		t.Fatalf("err = %v, want the server's message", err)
	}
}

func TestGenerateStoryFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"quota exceeded"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	got := c.GenerateStory(context.Background(), "a fox, a storm")
	want := "Once upon a time, there was a story about: a fox, a storm"
	if got != want {
		t.Fatalf("fallback story = %q, want %q", got, want)
	}
}

func TestGenerateStoryBlankReplyFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"story": "   "})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	got := c.GenerateStory(context.Background(), "a fox")
	if !strings.HasPrefix(got, "Once upon a time") {
		t.Fatalf("blank reply must fall back, got %q", got)
	}
}

func TestGenerateVoiceover(t *testing.T) {
	clip := []byte("mp3-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/voice-over/generate-voiceover" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok123" {
			t.Errorf("authorization = %q", got)
		}
		var req VoiceRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Speed != 1.0 {
			t.Errorf("speed = %v, want default 1.0", req.Speed)
		}
		json.NewEncoder(w).Encode(map[string]string{"audio": base64.StdEncoding.EncodeToString(clip)})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok123")
	got, err := c.GenerateVoiceover(context.Background(), VoiceRequest{Narration: "hello"})
	if err != nil {
		t.Fatalf("GenerateVoiceover: %v", err)
	}
	if string(got) != string(clip) {
		t.Fatalf("clip mismatch")
	}
}

func TestGenerateVoiceoverInsufficientCredits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Insufficient credits."}`, http.StatusPaymentRequired)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.GenerateVoiceover(context.Background(), VoiceRequest{Narration: "hello"})
	if StatusOf(err) != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402 (err=%v)", StatusOf(err), err)
	}
	if !strings.Contains(err.Error(), "Insufficient credits") {
		t.Fatalf("detail not surfaced: %v", err)
	}
}

func TestCreditsBalanceCached(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]int{"credits": 42})
	}))
	defer srv.Close()

	s := NewCreditsService(NewClient(srv.URL, ""))
	for i := 0; i < 3; i++ {
		bal, err := s.Balance(context.Background())
		if err != nil {
			t.Fatalf("Balance: %v", err)
		}
		if bal != 42 {
			t.Fatalf("balance = %d", bal)
		}
	}
	if calls != 1 {
		t.Fatalf("backend hit %d times, want 1 (cached)", calls)
	}

	s.Invalidate()
	if _, err := s.Balance(context.Background()); err != nil {
		t.Fatalf("Balance after invalidate: %v", err)
	}
	if calls != 2 {
		t.Fatalf("backend hit %d times after invalidate, want 2", calls)
	}
}

func TestHasSufficient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]int{"credits": 9})
	}))
	defer srv.Close()

	s := NewCreditsService(NewClient(srv.URL, ""))
	ok, err := s.HasSufficient(context.Background(), CostPanelGeneration)
	if err != nil {
		t.Fatalf("HasSufficient: %v", err)
	}
	if ok {
		t.Fatalf("9 credits must not cover a %d credit generation", CostPanelGeneration)
	}
}

func TestSaveComicSkipsEmptyPanels(t *testing.T) {
	var got saveComicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/comics/save-comic" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(SaveComicResult{ComicID: 7, Message: "saved"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	res, err := c.SaveComic(context.Background(), domain.Comic{
		Title: "Fox Tales",
		Panels: []domain.Panel{
			{ID: 1, WorkingPNG: []byte{1}, Narration: "a fox", AudioClip: []byte{9}},
			{ID: 2}, // empty, must be dropped
			{ID: 3, WorkingPNG: []byte{3}},
		},
	})
	if err != nil {
		t.Fatalf("SaveComic: %v", err)
	}
	if res.ComicID != 7 {
		t.Fatalf("comic id = %d", res.ComicID)
	}
	if len(got.Panels) != 2 {
		t.Fatalf("sent %d panels, want 2", len(got.Panels))
	}
	if got.Panels[0].ID != 1 || got.Panels[1].ID != 3 {
		t.Fatalf("panel ids = %d,%d", got.Panels[0].ID, got.Panels[1].ID)
	}
	if got.Panels[0].AudioData == "" || got.Panels[1].AudioData != "" {
		t.Fatalf("audio data mapping wrong")
	}
}

func TestSaveComicSkipsPreviewOnlyPanels(t *testing.T) {
	var got saveComicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(SaveComicResult{ComicID: 8, Message: "saved"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.SaveComic(context.Background(), domain.Comic{
		Title: "Fox Tales",
		Panels: []domain.Panel{
			{ID: 1, PreviewPNG: []byte{1}}, // no working bitmap, nothing to upload
			{ID: 2, WorkingPNG: []byte{2}},
		},
	})
	if err != nil {
		t.Fatalf("SaveComic: %v", err)
	}
	if len(got.Panels) != 1 || got.Panels[0].ID != 2 {
		t.Fatalf("sent panels = %#v, want only panel 2", got.Panels)
	}
	if got.Panels[0].ImageData == "" {
		t.Fatalf("panel 2 image_data empty")
	}
}

func TestSaveComicAllEmptyRejectedLocally(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "")
	if _, err := c.SaveComic(context.Background(), domain.Comic{Title: "x", Panels: []domain.Panel{{ID: 1}}}); err == nil {
		t.Fatalf("expected local rejection for contentless comic")
	}
}
