/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"gocomicstudio/internal/domain"
	"gocomicstudio/internal/raster"
)

func inkedPanel(t *testing.T, id, size int) domain.Panel {
	t.Helper()
	s := raster.NewSurface(size, size)
	s.SetWidth(6)
	s.BeginStroke(size/4, size/4)
	s.StrokeTo(3*size/4, 3*size/4)
	s.EndStroke()
	data, err := s.EncodePNG()
	if err != nil {
		t.Fatalf("encode panel: %v", err)
	}
	return domain.Panel{ID: id, WorkingPNG: data}
}

func TestWriteStripPNGLayout(t *testing.T) {
	panels := []domain.Panel{
		inkedPanel(t, 1, 64),
		{ID: 2}, // empty, skipped
		inkedPanel(t, 3, 64),
		inkedPanel(t, 4, 64),
		inkedPanel(t, 5, 64),
	}
	var buf bytes.Buffer
	if err := WriteStripPNG(&buf, panels, StripOptions{Columns: 2, Gutter: 8}); err != nil {
		t.Fatalf("WriteStripPNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode strip: %v", err)
	}
	// 4 content panels in 2 columns -> 2 rows of 64px cells plus gutters.
	wantW := 2*64 + 3*8
	wantH := 2*64 + 3*8
	if img.Bounds().Dx() != wantW || img.Bounds().Dy() != wantH {
		t.Fatalf("strip size = %dx%d, want %dx%d", img.Bounds().Dx(), img.Bounds().Dy(), wantW, wantH)
	}
}

func TestWriteStripPNGSkipsPreviewOnlyPanel(t *testing.T) {
	full := inkedPanel(t, 1, 64)
	previewOnly := domain.Panel{ID: 2, PreviewPNG: full.WorkingPNG}
	var buf bytes.Buffer
	if err := WriteStripPNG(&buf, []domain.Panel{full, previewOnly}, StripOptions{Columns: 2}); err != nil {
		t.Fatalf("WriteStripPNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode strip: %v", err)
	}
	// Only the panel with a working bitmap lands on the strip.
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 64 {
		t.Fatalf("strip size = %dx%d, want 64x64", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestWriteStripPDFSkipsPreviewOnlyPanel(t *testing.T) {
	full := inkedPanel(t, 1, 64)
	out := filepath.Join(t.TempDir(), "comic.pdf")
	panels := []domain.Panel{{ID: 1, PreviewPNG: full.WorkingPNG}, full}
	if err := WriteStripPDF(out, panels, PDFOptions{}); err != nil {
		t.Fatalf("WriteStripPDF: %v", err)
	}
	if st, err := os.Stat(out); err != nil || st.Size() == 0 {
		t.Fatalf("output missing or empty: %v", err)
	}
}

func TestWriteStripPNGNoContent(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteStripPNG(&buf, []domain.Panel{{ID: 1}, {ID: 2}}, StripOptions{}); err == nil {
		t.Fatalf("expected error for contentless export")
	}
}

func TestExportStripPNGCreatesFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "exports", "strip.png")
	if err := ExportStripPNG(out, []domain.Panel{inkedPanel(t, 1, 32)}, StripOptions{}); err != nil {
		t.Fatalf("ExportStripPNG: %v", err)
	}
	if st, err := os.Stat(out); err != nil || st.Size() == 0 {
		t.Fatalf("output missing or empty: %v", err)
	}
}

func TestWriteStripPDF(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "comic.pdf")
	panels := []domain.Panel{
		inkedPanel(t, 1, 64),
		{ID: 2},
		inkedPanel(t, 3, 64),
	}
	panels[0].Narration = "the fox appears"
	if err := WriteStripPDF(out, panels, PDFOptions{Title: "Fox Tales"}); err != nil {
		t.Fatalf("WriteStripPDF: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}
}

func TestWriteStripPDFNoContent(t *testing.T) {
	out := filepath.Join(t.TempDir(), "empty.pdf")
	if err := WriteStripPDF(out, []domain.Panel{{ID: 1}}, PDFOptions{}); err == nil {
		t.Fatalf("expected error for contentless export")
	}
}
