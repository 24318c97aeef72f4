/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package backend holds the HTTP clients for the studio's external services:
// panel image generation, story narration, voice synthesis, credits, and
// comic persistence, plus an optional direct Postgres comic store.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal JSON-over-HTTP client for the studio backend API.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a new backend client. baseURL may include a trailing
// slash; it will be normalized.
func NewClient(baseURL string, token string) *Client {
	b := strings.TrimRight(baseURL, "/")
	return &Client{
		BaseURL: b,
		Token:   token,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// SetTimeout overrides the default request timeout.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.client.Timeout = d
	}
}

// APIError is a non-2xx response with the server's detail message, when it
// sent one.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("server returned %d", e.Status)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}

// doJSON issues a request with an optional JSON body and decodes the JSON
// response into dest (which may be nil to discard it).
func (c *Client) doJSON(ctx context.Context, method, path string, body any, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Detail: readDetail(resp.Body)}
	}
	if dest == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

// readDetail extracts the "detail" field FastAPI-style error bodies carry,
// falling back to the raw body text.
func readDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var e struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(data, &e) == nil && e.Detail != "" {
		return e.Detail
	}
	return strings.TrimSpace(string(data))
}
