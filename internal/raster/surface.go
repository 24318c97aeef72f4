/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package raster implements the freehand drawing surface: a white RGBA canvas
// accepting pen and eraser strokes with configurable color and width, with
// PNG export/import and a pixel-sampling blank check.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	xdraw "golang.org/x/image/draw"
)

// Tool selects the active brush behavior.
type Tool int

const (
	Pen Tool = iota
	Eraser
)

// paper is the background color of a fresh surface.
var paper = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Surface is a raster drawing surface. It is not safe for concurrent use;
// all mutation happens on the UI event goroutine.
type Surface struct {
	img   *image.RGBA
	tool  Tool
	col   color.RGBA
	width int

	last     image.Point
	inStroke bool
	dirty    bool
}

// NewSurface returns a blank (paper-white) surface of the given pixel size.
func NewSurface(w, h int) *Surface {
	s := &Surface{
		img:   image.NewRGBA(image.Rect(0, 0, w, h)),
		col:   color.RGBA{A: 255},
		width: 4,
	}
	s.fill(paper)
	return s
}

func (s *Surface) SetTool(t Tool)          { s.tool = t }
func (s *Surface) SetColor(c color.RGBA)   { s.col = c }
func (s *Surface) SetWidth(px int)         { s.width = max(1, px) }
func (s *Surface) Bounds() image.Rectangle { return s.img.Bounds() }

// Image exposes the backing pixels for rendering. Callers must not retain it
// across mutations.
func (s *Surface) Image() *image.RGBA { return s.img }

// Dirty reports whether the surface changed since the last ClearDirty.
func (s *Surface) Dirty() bool { return s.dirty }

// ClearDirty marks the surface as committed.
func (s *Surface) ClearDirty() { s.dirty = false }

// BeginStroke starts a stroke at the given point (pointer-down).
func (s *Surface) BeginStroke(x, y int) {
	s.inStroke = true
	s.last = image.Pt(x, y)
	s.stamp(x, y)
	s.dirty = true
}

// StrokeTo extends the current stroke to the given point (pointer-move).
// Calls before BeginStroke are ignored.
func (s *Surface) StrokeTo(x, y int) {
	if !s.inStroke {
		return
	}
	s.line(s.last.X, s.last.Y, x, y)
	s.last = image.Pt(x, y)
	s.dirty = true
}

// EndStroke finishes the current stroke (pointer-up).
func (s *Surface) EndStroke() { s.inStroke = false }

// Clear resets the surface to blank paper.
func (s *Surface) Clear() {
	s.fill(paper)
	s.inStroke = false
	s.dirty = false
}

// EncodePNG returns the current bitmap as encoded PNG bytes.
func (s *Surface) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.img); err != nil {
		return nil, fmt.Errorf("encode surface png: %w", err)
	}
	return buf.Bytes(), nil
}

// LoadPNG replaces the surface content with the decoded bitmap, scaled to the
// surface size. A decode error leaves the surface blank.
func (s *Surface) LoadPNG(data []byte) error {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		s.Clear()
		return fmt.Errorf("decode bitmap: %w", err)
	}
	s.fill(paper)
	xdraw.CatmullRom.Scale(s.img, s.img.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	s.dirty = false
	return nil
}

// NonBlank reports whether any pixel differs from the paper background. This
// is a pixel-level check rather than an encoded-size heuristic, so it is
// stable across encoder settings.
func (s *Surface) NonBlank() bool {
	b := s.img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := s.img.Pix[(y-b.Min.Y)*s.img.Stride : (y-b.Min.Y)*s.img.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			if row[x] != paper.R || row[x+1] != paper.G || row[x+2] != paper.B {
				return true
			}
		}
	}
	return false
}

// Scaled returns a copy of the surface resampled to the given size, used to
// derive the low-resolution preview from the working bitmap.
func (s *Surface) Scaled(w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), s.img, s.img.Bounds(), xdraw.Src, nil)
	return dst
}

// brushColor resolves the effective stamp color for the active tool.
func (s *Surface) brushColor() color.RGBA {
	if s.tool == Eraser {
		return paper
	}
	return s.col
}

// stamp draws a filled disc of the brush width centered at (cx, cy).
func (s *Surface) stamp(cx, cy int) {
	c := s.brushColor()
	r := s.width / 2
	if r < 1 {
		s.setPixel(cx, cy, c)
		return
	}
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				s.setPixel(cx+dx, cy+dy, c)
			}
		}
	}
}

// line stamps the brush along the segment using integer Bresenham stepping.
func (s *Surface) line(x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		s.stamp(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (s *Surface) setPixel(x, y int, c color.RGBA) {
	if !image.Pt(x, y).In(s.img.Bounds()) {
		return
	}
	s.img.SetRGBA(x, y, c)
}

func (s *Surface) fill(c color.RGBA) {
	b := s.img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			s.img.SetRGBA(x, y, c)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
