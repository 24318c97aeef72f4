//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"gocomicstudio/internal/domain"
	"gocomicstudio/internal/editor"
)

// PanelTile is one grid cell: the panel's preview image, its number, and a
// lock marker while the sequencing gate keeps it disabled.
type PanelTile struct {
	widget.BaseWidget

	panelID  int
	img      *canvas.Image
	label    *widget.Label
	border   *canvas.Rectangle
	OnTapped func(panelID int)
}

func NewPanelTile(panelID int, onTapped func(panelID int)) *PanelTile {
	t := &PanelTile{
		panelID:  panelID,
		img:      canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1))),
		label:    widget.NewLabel(fmt.Sprintf("Panel %d", panelID)),
		border:   canvas.NewRectangle(color.Transparent),
		OnTapped: onTapped,
	}
	t.img.FillMode = canvas.ImageFillContain
	t.img.SetMinSize(fyne.NewSize(180, 180))
	t.border.StrokeWidth = 2
	t.ExtendBaseWidget(t)
	return t
}

// SetPanel refreshes the tile from the panel's current state.
func (t *PanelTile) SetPanel(p domain.Panel) {
	if len(p.PreviewPNG) > 0 {
		t.img.Resource = fyne.NewStaticResource(fmt.Sprintf("panel-%d.png", p.ID), p.PreviewPNG)
		t.img.Image = nil
	} else {
		t.img.Resource = nil
		t.img.Image = image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	if p.Enabled {
		t.label.SetText(fmt.Sprintf("Panel %d", p.ID))
		t.border.StrokeColor = color.RGBA{R: 60, G: 60, B: 60, A: 255}
	} else {
		t.label.SetText(fmt.Sprintf("Panel %d (locked)", p.ID))
		t.border.StrokeColor = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	}
	t.img.Refresh()
	t.border.Refresh()
	t.Refresh()
}

func (t *PanelTile) Tapped(_ *fyne.PointEvent) {
	if t.OnTapped != nil {
		t.OnTapped(t.panelID)
	}
}

func (t *PanelTile) CreateRenderer() fyne.WidgetRenderer {
	content := container.NewStack(t.border, container.NewBorder(nil, t.label, nil, nil, t.img))
	return widget.NewSimpleRenderer(content)
}

// DrawCanvas renders the session's live working surface and converts pointer
// gestures into strokes on it.
type DrawCanvas struct {
	widget.BaseWidget

	session *editor.Session
	raster  *canvas.Raster
	// OnStrokeEnd fires after a stroke is committed, for preview refreshes.
	OnStrokeEnd func()
}

func NewDrawCanvas(session *editor.Session) *DrawCanvas {
	d := &DrawCanvas{session: session}
	d.raster = canvas.NewRaster(func(w, h int) image.Image {
		return d.session.Mode.Live().Image()
	})
	d.ExtendBaseWidget(d)
	return d
}

func (d *DrawCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(d.raster)
}

func (d *DrawCanvas) MinSize() fyne.Size {
	return fyne.NewSize(400, 400)
}

// toSurface maps a widget position to live-surface pixel coordinates.
func (d *DrawCanvas) toSurface(pos fyne.Position) (int, int) {
	sz := d.Size()
	if sz.Width <= 0 || sz.Height <= 0 {
		return 0, 0
	}
	px := float32(d.session.WorkingSize())
	return int(pos.X / sz.Width * px), int(pos.Y / sz.Height * px)
}

func (d *DrawCanvas) MouseDown(e *desktop.MouseEvent) {
	x, y := d.toSurface(e.Position)
	d.session.Mode.BeginStroke(x, y)
	d.raster.Refresh()
}

func (d *DrawCanvas) MouseUp(_ *desktop.MouseEvent) {
	d.session.Mode.EndStroke()
	d.raster.Refresh()
	if d.OnStrokeEnd != nil {
		d.OnStrokeEnd()
	}
}

func (d *DrawCanvas) Dragged(e *fyne.DragEvent) {
	x, y := d.toSurface(e.Position)
	d.session.Mode.StrokeTo(x, y)
	d.raster.Refresh()
}

func (d *DrawCanvas) DragEnd() {
	d.session.Mode.EndStroke()
	d.raster.Refresh()
	if d.OnStrokeEnd != nil {
		d.OnStrokeEnd()
	}
}

// Redraw repaints the raster, for undo/clear/generation updates.
func (d *DrawCanvas) Redraw() { d.raster.Refresh() }
