/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package script splits a story text into per-panel narration. Suggested
// stories come back as one block of prose; this package distributes it over
// the panels so each one can be voiced separately.
package script

import (
	"bufio"
	"regexp"
	"sort"
	"strings"
)

// PanelLine is one panel's narration as parsed from a story script.
type PanelLine struct {
	// PanelID is the 1-based panel the narration belongs to; 0 for untagged
	// paragraphs, which are assigned in order during Split.
	PanelID int
	Text    string
}

var (
	rePanel = regexp.MustCompile(`^(?i)\s*Panel\s*(\d+)\s*[:.\-]?\s*(.*)$`)
	// Sentence boundaries for the fallback even split. Good enough for the
	// template prose the story service produces.
	reSentence = regexp.MustCompile(`[^.!?]+[.!?]*\s*`)
)

// Parse reads a story script line by line. Lines starting with "Panel N"
// start a new tagged narration; indented or plain lines continue the current
// one; blank lines separate untagged paragraphs; lines starting with ';' are
// author notes and skipped.
func Parse(input string) []PanelLine {
	var out []PanelLine
	var cur *PanelLine

	flush := func() {
		if cur != nil && strings.TrimSpace(cur.Text) != "" {
			cur.Text = strings.TrimSpace(cur.Text)
			out = append(out, *cur)
		}
		cur = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			flush()
		case strings.HasPrefix(trimmed, ";"):
			// note, skipped
		default:
			if m := rePanel.FindStringSubmatch(trimmed); m != nil {
				flush()
				id := 0
				for _, c := range m[1] {
					id = id*10 + int(c-'0')
				}
				cur = &PanelLine{PanelID: id, Text: m[2]}
				continue
			}
			if cur == nil {
				cur = &PanelLine{}
			}
			if cur.Text != "" {
				cur.Text += " "
			}
			cur.Text += trimmed
		}
	}
	flush()
	return out
}

// Split distributes a story over panelCount panels and returns narration
// keyed by panel id. Tagged lines land on their panel (out-of-range tags are
// dropped); untagged paragraphs fill the remaining panels in order. A story
// with a single untagged paragraph is split evenly by sentence instead, so a
// one-block suggestion still voices every panel.
func Split(story string, panelCount int) map[int]string {
	if panelCount <= 0 {
		return nil
	}
	lines := Parse(story)
	narr := make(map[int]string)

	var untagged []string
	for _, ln := range lines {
		if ln.PanelID > 0 {
			if ln.PanelID <= panelCount {
				narr[ln.PanelID] = ln.Text
			}
			continue
		}
		untagged = append(untagged, ln.Text)
	}

	if len(narr) == 0 && len(untagged) == 1 {
		untagged = splitSentences(untagged[0], panelCount)
	}

	free := freePanels(narr, panelCount)
	for i, text := range untagged {
		if i >= len(free) {
			break
		}
		narr[free[i]] = text
	}
	return narr
}

// freePanels lists panel ids without narration yet, ascending.
func freePanels(narr map[int]string, panelCount int) []int {
	var free []int
	for id := 1; id <= panelCount; id++ {
		if _, ok := narr[id]; !ok {
			free = append(free, id)
		}
	}
	sort.Ints(free)
	return free
}

// splitSentences chunks prose into at most n pieces of roughly equal
// sentence count.
func splitSentences(text string, n int) []string {
	sentences := reSentence.FindAllString(text, -1)
	if len(sentences) == 0 {
		return []string{text}
	}
	if n > len(sentences) {
		n = len(sentences)
	}
	per := (len(sentences) + n - 1) / n
	var out []string
	for i := 0; i < len(sentences); i += per {
		end := i + per
		if end > len(sentences) {
			end = len(sentences)
		}
		out = append(out, strings.TrimSpace(strings.Join(sentences[i:end], "")))
	}
	return out
}
