/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gocomicstudio/internal/crash"
	"gocomicstudio/internal/domain"
	"gocomicstudio/internal/export"
	applog "gocomicstudio/internal/log"
	"gocomicstudio/internal/storage"
	"gocomicstudio/internal/ui"
	"gocomicstudio/internal/version"
)

func usage() {
	fmt.Println("Go Comic Studio — multi-panel comic composer")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  gocomicstudio version|-v|--version          Show version")
	fmt.Println("  gocomicstudio init <dir> [title]            Create a new comic session at <dir>")
	fmt.Println("  gocomicstudio open <dir>                    Open session at <dir> and print summary")
	fmt.Println("  gocomicstudio export <dir> png|pdf <out>    Export the comic strip to <out>")
	fmt.Println("  gocomicstudio ui [<dir>]                    Launch desktop UI (build with -tags fyne for full UI)")
}

func main() {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	var sh *storage.SessionHandle
	defer func() { crash.Recover(sh) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("Go Comic Studio")
			fmt.Println(version.String())
			return
		case "init":
			if len(args) < 3 {
				fmt.Println("init requires <dir>")
				usage()
				os.Exit(2)
			}
			dir := args[2]
			title := "Untitled Comic"
			if len(args) >= 4 {
				title = args[3]
			}
			abs, _ := filepath.Abs(dir)
			l.Info("init session", slog.String("root", abs), slog.String("title", title))
			h, err := storage.InitSession(abs, domain.Comic{Title: title})
			if err != nil {
				l.Error("init failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			sh = h
			fmt.Println("Created comic session at", abs)
			return
		case "open":
			if len(args) < 3 {
				fmt.Println("open requires <dir>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			l.Info("open session", slog.String("root", abs))
			h, err := storage.OpenSession(abs)
			if err != nil {
				l.Error("open failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			sh = h
			fmt.Printf("Opened comic: %s\n", h.Manifest.Comic.Title)
			content := 0
			voiced := 0
			for _, p := range h.Manifest.Comic.Panels {
				if p.HasContent() {
					content++
				}
				if len(p.AudioClip) > 0 {
					voiced++
				}
			}
			fmt.Printf("Panels: %d (%d with content, %d voiced)\n", len(h.Manifest.Comic.Panels), content, voiced)
			fmt.Println("Root:", h.Root)
			return
		case "export":
			if len(args) < 5 {
				fmt.Println("export requires <dir> png|pdf <out>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			format := strings.ToLower(args[3])
			out := args[4]
			h, err := storage.OpenSession(abs)
			if err != nil {
				l.Error("open before export failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			sh = h
			l.Info("export", slog.String("root", abs), slog.String("format", format), slog.String("out", out))
			switch format {
			case "png":
				err = export.ExportStripPNG(out, h.Manifest.Comic.Panels, export.StripOptions{})
			case "pdf":
				err = export.WriteStripPDF(out, h.Manifest.Comic.Panels, export.PDFOptions{Title: h.Manifest.Comic.Title})
			default:
				fmt.Println("unknown export format:", format)
				os.Exit(2)
			}
			if err != nil {
				l.Error("export failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Println("Exported", out)
			return
		case "ui":
			var dir string
			if len(args) >= 3 {
				dir = args[2]
			}
			if err := ui.Run(dir); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		}
	}

	usage()
}
