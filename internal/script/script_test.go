/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import "testing"

func TestParseTaggedPanels(t *testing.T) {
	in := "Panel 1: A knight rides out.\nPanel 2: The dragon wakes.\n"
	got := Parse(in)
	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %d: %#v", len(got), got)
	}
	if got[0].PanelID != 1 || got[0].Text != "A knight rides out." {
		t.Fatalf("unexpected first line: %#v", got[0])
	}
	if got[1].PanelID != 2 || got[1].Text != "The dragon wakes." {
		t.Fatalf("unexpected second line: %#v", got[1])
	}
}

func TestParseContinuationAndNotes(t *testing.T) {
	in := "Panel 1: The knight rides out\n  into the storm.\n; reviewer note\n\nAn untagged paragraph.\n"
	got := Parse(in)
	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %d: %#v", len(got), got)
	}
	if got[0].Text != "The knight rides out into the storm." {
		t.Fatalf("continuation not joined: %q", got[0].Text)
	}
	if got[1].PanelID != 0 || got[1].Text != "An untagged paragraph." {
		t.Fatalf("unexpected untagged line: %#v", got[1])
	}
}

func TestSplitTaggedAndUntaggedMix(t *testing.T) {
	in := "Panel 2: The dragon wakes.\n\nThe knight rides out.\n"
	narr := Split(in, 3)
	if narr[2] != "The dragon wakes." {
		t.Fatalf("tagged line misplaced: %#v", narr)
	}
	if narr[1] != "The knight rides out." {
		t.Fatalf("untagged paragraph should fill panel 1: %#v", narr)
	}
	if _, ok := narr[3]; ok {
		t.Fatalf("panel 3 should stay empty: %#v", narr)
	}
}

func TestSplitSingleBlockBySentence(t *testing.T) {
	in := "The knight rides out. The dragon wakes. They talk it over. Peace at last."
	narr := Split(in, 2)
	if len(narr) != 2 {
		t.Fatalf("expected 2 narrations, got %#v", narr)
	}
	if narr[1] == "" || narr[2] == "" {
		t.Fatalf("empty narration in even split: %#v", narr)
	}
	if narr[1] == narr[2] {
		t.Fatalf("panels got identical narration: %q", narr[1])
	}
}

func TestSplitOutOfRangeTagDropped(t *testing.T) {
	narr := Split("Panel 9: Off the grid.", 3)
	if len(narr) != 0 {
		t.Fatalf("out-of-range tag should be dropped: %#v", narr)
	}
}

func TestSplitZeroPanels(t *testing.T) {
	if narr := Split("anything", 0); narr != nil {
		t.Fatalf("expected nil for zero panels, got %#v", narr)
	}
}
