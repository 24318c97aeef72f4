/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package raster

import (
	"image/color"
	"testing"
)

func TestFreshSurfaceIsBlank(t *testing.T) {
	s := NewSurface(64, 64)
	if s.NonBlank() {
		t.Fatalf("fresh surface reports non-blank")
	}
	if s.Dirty() {
		t.Fatalf("fresh surface reports dirty")
	}
}

func TestStrokeMakesNonBlankAndDirty(t *testing.T) {
	s := NewSurface(64, 64)
	s.SetWidth(4)
	s.BeginStroke(10, 10)
	s.StrokeTo(40, 40)
	s.EndStroke()
	if !s.NonBlank() {
		t.Fatalf("stroked surface reports blank")
	}
	if !s.Dirty() {
		t.Fatalf("stroked surface reports clean")
	}
}

func TestEraserRestoresBlank(t *testing.T) {
	s := NewSurface(32, 32)
	s.SetWidth(8)
	s.BeginStroke(16, 16)
	s.EndStroke()
	if !s.NonBlank() {
		t.Fatalf("expected content after pen stamp")
	}

	// Erase with a brush large enough to cover the stamp.
	s.SetTool(Eraser)
	s.SetWidth(32)
	for y := 0; y < 32; y += 4 {
		s.BeginStroke(0, y)
		s.StrokeTo(31, y)
		s.EndStroke()
	}
	if s.NonBlank() {
		t.Fatalf("surface still non-blank after full erase")
	}
}

func TestStrokeToWithoutBeginIsNoop(t *testing.T) {
	s := NewSurface(32, 32)
	s.StrokeTo(5, 5)
	if s.NonBlank() || s.Dirty() {
		t.Fatalf("StrokeTo without BeginStroke mutated the surface")
	}
}

func TestEncodeLoadRoundTrip(t *testing.T) {
	s := NewSurface(48, 48)
	s.SetColor(color.RGBA{R: 200, A: 255})
	s.BeginStroke(5, 5)
	s.StrokeTo(40, 12)
	s.EndStroke()

	data, err := s.EncodePNG()
	if err != nil {
		t.Fatalf("EncodePNG error: %v", err)
	}

	dst := NewSurface(48, 48)
	if err := dst.LoadPNG(data); err != nil {
		t.Fatalf("LoadPNG error: %v", err)
	}
	if !dst.NonBlank() {
		t.Fatalf("round-tripped surface lost its content")
	}
}

func TestLoadPNGCorruptLeavesBlank(t *testing.T) {
	s := NewSurface(32, 32)
	s.BeginStroke(16, 16)
	s.EndStroke()

	if err := s.LoadPNG([]byte("not a png")); err == nil {
		t.Fatalf("expected decode error for corrupt data")
	}
	if s.NonBlank() {
		t.Fatalf("corrupt load must leave the surface blank")
	}
}

func TestScaledPreservesContent(t *testing.T) {
	s := NewSurface(128, 128)
	s.SetWidth(16)
	s.BeginStroke(64, 64)
	s.EndStroke()

	small := s.Scaled(32, 32)
	found := false
	for y := 0; y < 32 && !found; y++ {
		for x := 0; x < 32; x++ {
			r, g, b, _ := small.At(x, y).RGBA()
			if r != 0xffff || g != 0xffff || b != 0xffff {
				found = true
				break
			}
		}
	}
	if !found {
		t.Fatalf("downscaled bitmap lost the brush stamp")
	}
}

func TestStrokeOutsideBoundsIsClipped(t *testing.T) {
	s := NewSurface(16, 16)
	s.SetWidth(6)
	s.BeginStroke(-10, -10)
	s.StrokeTo(30, 30)
	s.EndStroke()
	// Must not panic, and the in-bounds part of the stroke lands.
	if !s.NonBlank() {
		t.Fatalf("clipped stroke left no content")
	}
}
