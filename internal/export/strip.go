/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders a comic's panels into shareable artifacts. The
// working bitmaps are the source of truth; previews are never exported.
package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"gocomicstudio/internal/domain"
)

// StripOptions controls the composed strip layout.
type StripOptions struct {
	// Columns per row; 0 means 3.
	Columns int
	// Gutter is the pixel spacing between panels and around the edge.
	Gutter int
}

func (o StripOptions) withDefaults() StripOptions {
	if o.Columns <= 0 {
		o.Columns = 3
	}
	if o.Gutter < 0 {
		o.Gutter = 0
	}
	return o
}

// WriteStripPNG composes the panels with content into one strip image, read
// left to right in rows, and writes it as PNG.
func WriteStripPNG(w io.Writer, panels []domain.Panel, opt StripOptions) error {
	opt = opt.withDefaults()
	imgs, err := decodePanels(panels)
	if err != nil {
		return err
	}
	if len(imgs) == 0 {
		return fmt.Errorf("export: no panels with content")
	}

	cellW, cellH := 0, 0
	for _, img := range imgs {
		b := img.Bounds()
		if b.Dx() > cellW {
			cellW = b.Dx()
		}
		if b.Dy() > cellH {
			cellH = b.Dy()
		}
	}
	cols := opt.Columns
	if len(imgs) < cols {
		cols = len(imgs)
	}
	rows := (len(imgs) + cols - 1) / cols
	g := opt.Gutter
	outW := cols*cellW + (cols+1)*g
	outH := rows*cellH + (rows+1)*g

	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	for i, img := range imgs {
		col := i % cols
		row := i / cols
		x := g + col*(cellW+g)
		y := g + row*(cellH+g)
		r := image.Rect(x, y, x+img.Bounds().Dx(), y+img.Bounds().Dy())
		draw.Draw(dst, r, img, img.Bounds().Min, draw.Over)
	}
	return png.Encode(w, dst)
}

// ExportStripPNG writes the strip to a file, creating parent directories.
func ExportStripPNG(path string, panels []domain.Panel, opt StripOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("export: create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	defer f.Close()
	if err := WriteStripPNG(f, panels, opt); err != nil {
		return err
	}
	return f.Close()
}

// decodePanels decodes the working bitmap of every panel that has one, in
// panel order. The working bitmap is the export source of truth; a panel
// carrying only a preview is skipped, not decoded from the preview.
func decodePanels(panels []domain.Panel) ([]image.Image, error) {
	var imgs []image.Image
	for _, p := range panels {
		if len(p.WorkingPNG) == 0 {
			continue
		}
		img, _, err := image.Decode(bytes.NewReader(p.WorkingPNG))
		if err != nil {
			return nil, fmt.Errorf("export: decode panel %d: %w", p.ID, err)
		}
		imgs = append(imgs, img)
	}
	return imgs, nil
}
