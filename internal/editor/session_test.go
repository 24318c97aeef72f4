/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"testing"

	"gocomicstudio/internal/raster"
)

func testOptions() Options {
	return Options{
		PanelCount:        6,
		UndoDepth:         5,
		PreviewSize:       32,
		WorkingSize:       64,
		Undo:              true,
		ProgressiveGating: true,
	}
}

// inkPNG returns encoded bytes of a surface with a visible mark.
func inkPNG(t *testing.T, size int) []byte {
	t.Helper()
	s := raster.NewSurface(size, size)
	s.SetWidth(8)
	s.BeginStroke(size/2, size/2)
	s.StrokeTo(size/2+10, size/2)
	s.EndStroke()
	data, err := s.EncodePNG()
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return data
}

// blankPNG returns encoded bytes of an untouched surface.
func blankPNG(t *testing.T, size int) []byte {
	t.Helper()
	s := raster.NewSurface(size, size)
	data, err := s.EncodePNG()
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return data
}

func TestInitialGateState(t *testing.T) {
	s := NewSession(testOptions())
	if !s.Gate.IsEditable(1) {
		t.Fatalf("panel 1 must start enabled")
	}
	for id := 2; id <= 6; id++ {
		if s.Gate.IsEditable(id) {
			t.Fatalf("panel %d must start disabled", id)
		}
	}
}

func TestNonTrivialCommitUnlocksNextPanel(t *testing.T) {
	s := NewSession(testOptions())
	s.Buffer.CommitStroke(1, inkPNG(t, 64), ResWorking)
	if !s.Gate.IsEditable(2) {
		t.Fatalf("panel 2 should unlock after panel 1 has content")
	}
	if s.Gate.IsEditable(3) {
		t.Fatalf("panel 3 must stay locked")
	}
}

func TestBlankCommitDoesNotUnlock(t *testing.T) {
	s := NewSession(testOptions())
	s.Buffer.CommitStroke(1, blankPNG(t, 64), ResWorking)
	if s.Gate.IsEditable(2) {
		t.Fatalf("a blank canvas must not unlock the next panel")
	}
}

func TestCommitToDisabledPanelIsNoop(t *testing.T) {
	s := NewSession(testOptions())
	s.Buffer.CommitStroke(3, inkPNG(t, 64), ResWorking)
	p, _ := s.Panel(3)
	if p.WorkingPNG != nil {
		t.Fatalf("disabled panel accepted a commit")
	}
	if s.Gate.IsEditable(4) {
		t.Fatalf("disabled panel commit must not cascade unlocks")
	}
}

func TestClearCascadesDisablement(t *testing.T) {
	s := NewSession(testOptions())
	ink := inkPNG(t, 64)
	// Fill panels 1..4 in order, unlocking as we go.
	for id := 1; id <= 4; id++ {
		s.Buffer.CommitStroke(id, ink, ResWorking)
	}
	if !s.Gate.IsEditable(5) {
		t.Fatalf("panel 5 should be unlocked")
	}

	s.ClearPanel(1)
	p, _ := s.Panel(1)
	if p.WorkingPNG != nil || p.PreviewPNG != nil || p.Prompt != "" {
		t.Fatalf("clear did not null panel 1 state: %+v", p)
	}
	for id := 2; id <= 6; id++ {
		if s.Gate.IsEditable(id) {
			t.Fatalf("panel %d should be re-locked after clearing panel 1", id)
		}
	}
	// Panel 1 itself stays editable.
	if !s.Gate.IsEditable(1) {
		t.Fatalf("cleared panel must remain editable")
	}
}

func TestClearMidSequenceKeepsEarlierPanels(t *testing.T) {
	s := NewSession(testOptions())
	ink := inkPNG(t, 64)
	for id := 1; id <= 3; id++ {
		s.Buffer.CommitStroke(id, ink, ResWorking)
	}
	s.ClearPanel(2)
	if !s.Gate.IsEditable(1) || !s.Gate.IsEditable(2) {
		t.Fatalf("panels before and at the cleared one must stay editable")
	}
	if s.Gate.IsEditable(3) || s.Gate.IsEditable(4) {
		t.Fatalf("panels after the cleared one must be re-locked")
	}
	p, _ := s.Panel(1)
	if p.WorkingPNG == nil {
		t.Fatalf("clearing panel 2 must not touch panel 1 content")
	}
}

func TestUndoBoundIsFive(t *testing.T) {
	s := NewSession(testOptions())
	if err := s.Mode.EnterZoom(1); err != nil {
		t.Fatalf("EnterZoom: %v", err)
	}
	for i := 0; i < 8; i++ {
		s.Mode.BeginStroke(5+i, 5)
		s.Mode.StrokeTo(20+i, 20)
		s.Mode.EndStroke()
	}
	if got := s.Undo.Len(1); got != 5 {
		t.Fatalf("undo history length = %d, want 5", got)
	}
}

func TestUndoRestoresPreviousStroke(t *testing.T) {
	s := NewSession(testOptions())
	if err := s.Mode.EnterZoom(1); err != nil {
		t.Fatalf("EnterZoom: %v", err)
	}
	s.Mode.BeginStroke(10, 10)
	s.Mode.EndStroke()
	afterFirst, _ := s.Panel(1)

	s.Mode.BeginStroke(40, 40)
	s.Mode.EndStroke()
	afterSecond, _ := s.Panel(1)
	if string(afterFirst.WorkingPNG) == string(afterSecond.WorkingPNG) {
		t.Fatalf("second stroke did not change the working bitmap")
	}

	if !s.UndoStroke(1) {
		t.Fatalf("undo reported no-op with history present")
	}
	restored, _ := s.Panel(1)
	if string(restored.WorkingPNG) != string(afterFirst.WorkingPNG) {
		t.Fatalf("undo did not restore the pre-stroke bitmap")
	}
}

func TestUndoOnEmptyHistoryIsNoop(t *testing.T) {
	s := NewSession(testOptions())
	if s.UndoStroke(1) {
		t.Fatalf("undo with empty history must be a no-op")
	}
}

func TestUndoFirstStrokeRestoresEmptyPanel(t *testing.T) {
	s := NewSession(testOptions())
	if err := s.Mode.EnterZoom(1); err != nil {
		t.Fatalf("EnterZoom: %v", err)
	}
	s.Mode.BeginStroke(10, 10)
	s.Mode.EndStroke()
	if !s.UndoStroke(1) {
		t.Fatalf("undo reported no-op")
	}
	p, _ := s.Panel(1)
	if p.WorkingPNG != nil {
		t.Fatalf("undoing the first stroke must restore the empty panel")
	}
}

func TestRestoreEmptySnapshotKeepsGateAndMetadata(t *testing.T) {
	s := NewSession(testOptions())
	s.Buffer.CommitStroke(1, inkPNG(t, 64), ResWorking)
	s.SetNarration(1, "a fox appears")
	if !s.Gate.IsEditable(2) {
		t.Fatalf("panel 2 should be unlocked before the restore")
	}

	s.Buffer.Restore(1, nil)
	p, _ := s.Panel(1)
	if p.WorkingPNG != nil || p.PreviewPNG != nil {
		t.Fatalf("nil snapshot must empty both bitmaps")
	}
	if p.Narration != "a fox appears" {
		t.Fatalf("restore must not touch narration")
	}
	if !s.Gate.IsEditable(2) {
		t.Fatalf("restore must not cascade disablement, unlike clear")
	}
}

func TestRestoreSnapshotRederivesPreview(t *testing.T) {
	s := NewSession(testOptions())
	snap := inkPNG(t, 64)
	s.Buffer.Restore(1, snap)
	p, _ := s.Panel(1)
	if string(p.WorkingPNG) != string(snap) {
		t.Fatalf("working bitmap not restored from snapshot")
	}
	if len(p.PreviewPNG) == 0 {
		t.Fatalf("restore must re-derive the preview from the working bitmap")
	}
}

func TestGeneratedContentIsNotUndoable(t *testing.T) {
	s := NewSession(testOptions())
	if !s.CommitGenerated(1, inkPNG(t, 64), "a dragon") {
		t.Fatalf("CommitGenerated rejected an editable panel")
	}
	if got := s.Undo.Len(1); got != 0 {
		t.Fatalf("generation must not push undo snapshots, got %d", got)
	}
	p, _ := s.Panel(1)
	if p.Prompt != "a dragon" {
		t.Fatalf("prompt not recorded: %q", p.Prompt)
	}
	if p.PreviewPNG == nil {
		t.Fatalf("generation must propagate to the preview bitmap")
	}
}

func TestGenerationUsesSameGatePath(t *testing.T) {
	s := NewSession(testOptions())
	s.CommitGenerated(1, inkPNG(t, 64), "a dragon")
	if !s.Gate.IsEditable(2) {
		t.Fatalf("generated content must unlock the next panel like a stroke")
	}
	if s.CommitGenerated(4, inkPNG(t, 64), "too far") {
		t.Fatalf("generation into a locked panel must be rejected")
	}
}
