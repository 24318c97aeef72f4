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
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"gocomicstudio/internal/domain"
)

// PDFOptions controls PDF export. Units are points.
type PDFOptions struct {
	// Title is stamped into the document metadata and the first page header.
	Title string
	// Margin around the panel image on each page; 0 means 36pt.
	Margin float64
}

// WriteStripPDF writes one panel per page into a portrait A4 PDF, with the
// panel's narration set under the image. Panels without a working bitmap are
// skipped; previews are never used as an export source.
func WriteStripPDF(outPath string, panels []domain.Panel, opt PDFOptions) error {
	margin := opt.Margin
	if margin <= 0 {
		margin = 36
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetTitle(opt.Title, true)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)

	pages := 0
	for _, p := range panels {
		if len(p.WorkingPNG) == 0 {
			continue
		}
		pages++
		pdf.AddPage()

		pageW, pageH := pdf.GetPageSize()
		availW := pageW - 2*margin
		textH := 0.0
		if p.Narration != "" {
			textH = 72 // reserved band under the image
		}
		availH := pageH - 2*margin - textH

		name := fmt.Sprintf("panel-%d", p.ID)
		info := pdf.RegisterImageOptionsReader(name,
			gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(p.WorkingPNG))
		if pdf.Err() {
			return fmt.Errorf("export: register panel %d image: %v", p.ID, pdf.Error())
		}

		// Fit the image into the available box, preserving aspect ratio.
		w, h := info.Extent()
		scale := availW / w
		if s := availH / h; s < scale {
			scale = s
		}
		drawW, drawH := w*scale, h*scale
		x := margin + (availW-drawW)/2
		pdf.ImageOptions(name, x, margin, drawW, drawH, false,
			gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")

		if p.Narration != "" {
			pdf.SetFont("Helvetica", "", 12)
			pdf.SetXY(margin, margin+drawH+18)
			pdf.MultiCell(availW, 16, p.Narration, "", "C", false)
		}
	}
	if pages == 0 {
		return fmt.Errorf("export: no panels with content")
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("export: write pdf: %w", err)
	}
	return nil
}
