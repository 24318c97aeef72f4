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
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"gocomicstudio/internal/backend"
	"gocomicstudio/internal/config"
	"gocomicstudio/internal/crash"
	"gocomicstudio/internal/domain"
	"gocomicstudio/internal/editor"
	"gocomicstudio/internal/export"
	applog "gocomicstudio/internal/log"
	"gocomicstudio/internal/pipeline"
	"gocomicstudio/internal/playback"
	"gocomicstudio/internal/raster"
	"gocomicstudio/internal/script"
	"gocomicstudio/internal/storage"
	"gocomicstudio/internal/telemetry"
	"gocomicstudio/internal/version"
)

// Run starts the Fyne-based desktop studio: a grid of panel tiles, a zoomed
// drawing view per panel, and the generation, voice, playback and export
// actions around them.
func Run(sessionDir string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	cfg, token, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var sh *storage.SessionHandle
	defer func() { crash.Recover(sh) }()

	sh, err = openOrInitSession(sessionDir)
	if err != nil {
		return err
	}
	auto, err := storage.OpenAutosave(sh.Root)
	if err != nil {
		l.Warn("autosave unavailable", "err", err)
	} else {
		defer auto.Close()
	}

	sess := editor.NewSession(editor.Options{
		PanelCount:        cfg.Editor.PanelCount,
		UndoDepth:         cfg.Editor.UndoDepth,
		PreviewSize:       cfg.Editor.PreviewSize,
		WorkingSize:       cfg.Editor.WorkingSize,
		Undo:              true,
		ProgressiveGating: true,
	})
	hydrateSession(sess, sh.Manifest.Comic)

	api := backend.NewClient(cfg.Services.BaseURL, token)
	if cfg.Services.TimeoutMs > 0 {
		api.SetTimeout(time.Duration(cfg.Services.TimeoutMs) * time.Millisecond)
	}
	gen := backend.NewGenerationClient(cfg.Services.GenerationURL)
	credits := backend.NewCreditsService(api)
	// The pipeline does network work on its caller's goroutine but must touch
	// the session only on the event goroutine; every pipeline call below runs
	// inside a `go func`, so DoAndWait cannot deadlock.
	pipe := pipeline.New(sess, gen, credits, api, api, api, pipeline.Options{
		VoiceID:  cfg.Audio.VoiceID,
		Speed:    cfg.Audio.Speed,
		Dispatch: fyne.DoAndWait,
	})

	fyneApp := app.NewWithID("gocomicstudio")
	w := fyneApp.NewWindow("Go Comic Studio " + version.String())
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1280)
	winH := prefs.IntWithFallback("window.height", 860)
	if winW < 900 {
		winW = 900
	}
	if winH < 640 {
		winH = 640
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	setStatus := func(msg string) { fyne.Do(func() { status.SetText(msg) }) }

	// Playback hooks run on the speaker goroutine with the coordinator lock
	// held; they only schedule UI updates.
	var playBtn *widget.Button
	coord := playback.NewCoordinator(&playback.BeepPlayer{}, playback.Hooks{
		PanelStarted: func(panelID int) {
			setStatus(fmt.Sprintf("Playing panel %d", panelID))
		},
		Finished: func() {
			setStatus("Playback finished")
			fyne.Do(func() { playBtn.SetText("Play") })
		},
	})

	// collectComic snapshots the session into the manifest document.
	titleEntry := widget.NewEntry()
	titleEntry.SetText(sh.Manifest.Comic.Title)
	titleEntry.SetPlaceHolder("Comic title")
	publicCheck := widget.NewCheck("Public", nil)
	publicCheck.SetChecked(sh.Manifest.Comic.IsPublic)
	collectComic := func() domain.Comic {
		return domain.Comic{
			Title:        strings.TrimSpace(titleEntry.Text),
			IsPublic:     publicCheck.Checked,
			Panels:       sess.Panels(),
			ThumbnailPNG: sh.Manifest.Comic.ThumbnailPNG,
		}
	}

	tiles := make([]*PanelTile, 0, cfg.Editor.PanelCount)
	refreshTiles := func() {
		panels := sess.Panels()
		for i, t := range tiles {
			if i < len(panels) {
				t.SetPanel(panels[i])
			}
		}
	}

	// Grid and zoomed views share the window; showGrid/showZoom swap the
	// center content.
	var content *fyne.Container
	var showGrid func()
	var showZoom func(panelID int)

	drawCanvas := NewDrawCanvas(sess)
	promptEntry := widget.NewEntry()
	promptEntry.SetPlaceHolder("Describe this panel...")
	narrEntry := widget.NewMultiLineEntry()
	narrEntry.SetPlaceHolder("Narration for this panel")
	narrEntry.Wrapping = fyne.TextWrapWord
	zoomTitle := widget.NewLabel("")

	zoomPanelID := func() int {
		if id, ok := sess.Mode.ZoomedPanel(); ok {
			return id
		}
		return 0
	}

	toolSelect := widget.NewSelect([]string{"Pen", "Eraser"}, func(s string) {
		if s == "Eraser" {
			sess.Mode.Live().SetTool(raster.Eraser)
		} else {
			sess.Mode.Live().SetTool(raster.Pen)
		}
	})
	toolSelect.SetSelected("Pen")
	widthSelect := widget.NewSelect([]string{"2", "4", "8", "16"}, func(s string) {
		px := 4
		fmt.Sscanf(s, "%d", &px)
		sess.Mode.Live().SetWidth(px)
	})
	widthSelect.SetSelected("4")

	undoBtn := widget.NewButton("Undo", func() {
		id := zoomPanelID()
		if id == 0 {
			return
		}
		if sess.UndoStroke(id) {
			drawCanvas.Redraw()
			setStatus(fmt.Sprintf("Undid last stroke on panel %d", id))
		} else {
			setStatus("Nothing to undo")
		}
	})
	clearBtn := widget.NewButton("Clear", func() {
		id := zoomPanelID()
		if id == 0 {
			return
		}
		dialog.ShowConfirm("Clear panel",
			fmt.Sprintf("Clear panel %d? Later panels lock again until it has content.", id),
			func(ok bool) {
				if !ok {
					return
				}
				sess.ClearPanel(id)
				drawCanvas.Redraw()
				setStatus(fmt.Sprintf("Cleared panel %d", id))
			}, w)
	})

	generateBtn := widget.NewButton("Generate", func() {
		id := zoomPanelID()
		prompt := strings.TrimSpace(promptEntry.Text)
		if id == 0 || prompt == "" {
			setStatus("Enter a prompt first")
			return
		}
		setStatus(fmt.Sprintf("Generating panel %d...", id))
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if err := pipe.GeneratePanel(ctx, id, prompt); err != nil {
				l.Warn("generation failed", "panel", id, "err", err)
				if errors.Is(err, pipeline.ErrInsufficientCredits) {
					setStatus("Not enough credits (10 needed per panel)")
				} else {
					setStatus("Generation failed: " + err.Error())
				}
				return
			}
			telemetry.Event("panel_generated", map[string]any{"panel": id})
			setStatus(fmt.Sprintf("Panel %d generated", id))
			fyne.Do(func() { drawCanvas.Redraw() })
		}()
	})

	// Voice selector, filled from the backend catalog once it answers.
	voices := backend.NewVoiceCatalog(api)
	voiceIDs := map[string]string{}
	voiceSelect := widget.NewSelect(nil, nil)
	voiceSelect.PlaceHolder = "Default voice"
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		list, err := voices.List(ctx)
		if err != nil {
			l.Warn("voice catalog unavailable", "err", err)
			return
		}
		fyne.Do(func() {
			names := make([]string, 0, len(list))
			for _, v := range list {
				names = append(names, v.Name)
				voiceIDs[v.Name] = v.ID
			}
			voiceSelect.SetOptions(names)
		})
	}()
	selectedVoice := func() string {
		if id, ok := voiceIDs[voiceSelect.Selected]; ok {
			return id
		}
		return cfg.Audio.VoiceID
	}

	voiceBtn := widget.NewButton("Voice", func() {
		id := zoomPanelID()
		if id == 0 {
			return
		}
		narration := strings.TrimSpace(narrEntry.Text)
		sess.SetNarration(id, narration)
		if narration == "" {
			setStatus("Write a narration first")
			return
		}
		voiceID := selectedVoice()
		setStatus("Synthesizing voice...")
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			clip, err := api.GenerateVoiceover(ctx, backend.VoiceRequest{
				Narration: narration,
				VoiceID:   voiceID,
				Speed:     cfg.Audio.Speed,
			})
			if err != nil {
				l.Warn("voice synthesis failed", "panel", id, "err", err)
				if backend.StatusOf(err) == 402 {
					setStatus("Not enough credits for voice synthesis")
				} else {
					setStatus("Voice synthesis failed: " + err.Error())
				}
				return
			}
			fyne.DoAndWait(func() { sess.SetAudioClip(id, clip) })
			credits.Invalidate()
			telemetry.Event("voice_synthesized", map[string]any{"panel": id})
			setStatus("Voice ready")
		}()
	})

	// Plays just this panel's clip; pressing it again while playing stops it.
	clipBtn := widget.NewButton("Play clip", func() {
		id := zoomPanelID()
		if id == 0 {
			return
		}
		p, ok := sess.Panel(id)
		if !ok || len(p.AudioClip) == 0 {
			setStatus("No voice clip yet: synthesize one first")
			return
		}
		if err := coord.Toggle([]domain.PlaybackEntry{{PanelID: id, Clip: p.AudioClip}}); err != nil {
			setStatus(err.Error())
		}
	})

	backBtn := widget.NewButton("Back to grid", func() {
		id := zoomPanelID()
		if id != 0 {
			sess.SetNarration(id, strings.TrimSpace(narrEntry.Text))
		}
		if err := sess.Mode.LeaveZoom(); err != nil {
			setStatus(err.Error())
			return
		}
		showGrid()
	})

	zoomToolbar := container.NewHBox(zoomTitle, toolSelect, widthSelect, undoBtn, clearBtn, backBtn)
	zoomSide := container.NewVBox(
		widget.NewLabel("Prompt"), promptEntry, generateBtn,
		widget.NewLabel("Narration"), narrEntry, voiceSelect, voiceBtn, clipBtn,
	)
	zoomView := container.NewBorder(zoomToolbar, nil, nil, zoomSide, drawCanvas)

	showZoom = func(panelID int) {
		if err := sess.Mode.EnterZoom(panelID); err != nil {
			if errors.Is(err, editor.ErrPanelLocked) {
				setStatus(fmt.Sprintf("Panel %d unlocks once panel %d has content", panelID, panelID-1))
			} else {
				setStatus(err.Error())
			}
			return
		}
		p, _ := sess.Panel(panelID)
		zoomTitle.SetText(fmt.Sprintf("Panel %d", panelID))
		promptEntry.SetText(p.Prompt)
		narrEntry.SetText(p.Narration)
		drawCanvas.Redraw()
		content.Objects = []fyne.CanvasObject{zoomView}
		content.Refresh()
	}
	for i := 1; i <= cfg.Editor.PanelCount; i++ {
		tiles = append(tiles, NewPanelTile(i, func(id int) { showZoom(id) }))
	}
	grid := container.NewGridWithColumns(3)
	for _, t := range tiles {
		grid.Add(t)
	}

	playBtn = widget.NewButton("Play", func() {
		if coord.State() == playback.StatePlaying {
			coord.Stop()
			playBtn.SetText("Play")
			setStatus("Playback stopped")
			return
		}
		queue := domain.BuildPlaybackQueue(sess.Panels())
		if err := coord.Start(queue); err != nil {
			setStatus("Nothing to play: synthesize voices first")
			return
		}
		telemetry.Event("playback_started", map[string]any{"clips": len(queue)})
		playBtn.SetText("Stop")
	})

	storyBtn := widget.NewButton("Suggest story", func() {
		setStatus("Asking for a story...")
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			story := pipe.SuggestStory(ctx)
			fyne.Do(func() {
				dialog.ShowConfirm("Story suggestion",
					story+"\n\nApply as narration across the panels?",
					func(ok bool) {
						if !ok {
							return
						}
						for id, text := range script.Split(story, cfg.Editor.PanelCount) {
							sess.SetNarration(id, text)
						}
						setStatus("Narration applied to panels")
					}, w)
			})
			setStatus("Ready")
		}()
	})

	voiceAllBtn := widget.NewButton("Voice all", func() {
		setStatus("Synthesizing voices for narrated panels...")
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if err := pipe.SynthesizeVoices(ctx); err != nil {
				l.Warn("batch voice synthesis incomplete", "err", err)
				setStatus("Some voices failed: " + err.Error())
				return
			}
			telemetry.Event("voice_synthesized", map[string]any{"batch": true})
			setStatus("Voices ready")
		}()
	})

	thumbBtn := widget.NewButton("Thumbnail", func() {
		setStatus("Generating thumbnail...")
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			data, err := pipe.GenerateThumbnail(ctx)
			if err != nil {
				l.Warn("thumbnail generation failed", "err", err)
				setStatus("Thumbnail failed: " + err.Error())
				return
			}
			fyne.Do(func() { sh.Manifest.Comic.ThumbnailPNG = data })
			setStatus("Thumbnail generated")
		}()
	})

	saveLocal := func() error {
		sh.Manifest.Comic = collectComic()
		if err := storage.SaveSession(sh); err != nil {
			return err
		}
		if auto != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := auto.SetTitle(ctx, sh.Manifest.Comic.Title); err != nil {
				return err
			}
			for _, p := range sh.Manifest.Comic.Panels {
				if err := auto.SavePanel(ctx, p); err != nil {
					return err
				}
			}
		}
		return nil
	}

	saveBtn := widget.NewButton("Save", func() {
		if err := saveLocal(); err != nil {
			dialog.ShowError(err, w)
			return
		}
		setStatus("Saved to " + sh.Root)
		comic := sh.Manifest.Comic // snapshot before leaving the event goroutine
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if dsn := cfg.Services.PostgresDSN; dsn != "" {
				store, err := backend.OpenPGStore(ctx, dsn)
				if err != nil {
					l.Warn("postgres store unavailable", "err", err)
					setStatus("Saved locally; Postgres unavailable: " + err.Error())
					return
				}
				defer store.Close()
				id, err := store.Save(ctx, "", comic)
				if err != nil {
					l.Warn("postgres save failed", "err", err)
					setStatus("Saved locally; Postgres save failed: " + err.Error())
					return
				}
				telemetry.Event("comic_saved", map[string]any{"comic_id": id})
				setStatus(fmt.Sprintf("Saved comic #%d to Postgres", id))
				return
			}
			res, err := api.SaveComic(ctx, comic)
			if err != nil {
				l.Warn("remote save failed", "err", err)
				setStatus("Saved locally; remote save failed: " + err.Error())
				return
			}
			telemetry.Event("comic_saved", map[string]any{"comic_id": res.ComicID})
			setStatus("Saved: " + res.Message)
		}()
	})

	exportTo := func(ext string, write func(path string) error) {
		name := fmt.Sprintf("comic-%s.%s", time.Now().Format("20060102-150405"), ext)
		path := filepath.Join(sh.Root, "exports", name)
		if err := write(path); err != nil {
			dialog.ShowError(err, w)
			return
		}
		telemetry.Event("comic_exported", map[string]any{"format": ext})
		setStatus("Exported " + path)
	}
	exportPNGBtn := widget.NewButton("Export PNG", func() {
		exportTo("png", func(path string) error {
			return export.ExportStripPNG(path, sess.Panels(), export.StripOptions{})
		})
	})
	exportPDFBtn := widget.NewButton("Export PDF", func() {
		exportTo("pdf", func(path string) error {
			return export.WriteStripPDF(path, sess.Panels(), export.PDFOptions{Title: strings.TrimSpace(titleEntry.Text)})
		})
	})

	gridToolbar := container.NewHBox(playBtn, storyBtn, voiceAllBtn, thumbBtn, saveBtn, exportPNGBtn, exportPDFBtn, publicCheck)
	gridView := container.NewBorder(
		container.NewVBox(container.NewBorder(nil, nil, widget.NewLabel("Title"), nil, titleEntry), gridToolbar),
		nil, nil, nil, grid,
	)

	content = container.NewStack(gridView)
	showGrid = func() {
		refreshTiles()
		content.Objects = []fyne.CanvasObject{gridView}
		content.Refresh()
	}

	w.SetContent(container.NewBorder(nil, status, nil, nil, content))
	w.SetCloseIntercept(func() {
		coord.Stop()
		if err := saveLocal(); err != nil {
			l.Warn("save on close failed", "err", err)
		}
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		telemetry.Close()
		w.Close()
	})

	refreshTiles()
	w.ShowAndRun()
	return nil
}

// openOrInitSession opens an existing session directory or scaffolds a new
// one. An empty dir defaults to a per-user studio folder.
func openOrInitSession(dir string) (*storage.SessionHandle, error) {
	if strings.TrimSpace(dir) == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, "GoComicStudio", "default")
	}
	if _, err := os.Stat(filepath.Join(dir, storage.ManifestFileName)); err == nil {
		return storage.OpenSession(dir)
	}
	return storage.InitSession(dir, domain.Comic{Title: "Untitled Comic"})
}

// hydrateSession replays persisted panels into a fresh session in id order so
// the sequencing gate unlocks exactly as far as the saved content reaches.
func hydrateSession(sess *editor.Session, comic domain.Comic) {
	for _, p := range comic.Panels {
		if len(p.WorkingPNG) > 0 {
			if !sess.CommitGenerated(p.ID, p.WorkingPNG, p.Prompt) {
				break
			}
		}
		sess.SetNarration(p.ID, p.Narration)
		sess.SetAudioClip(p.ID, p.AudioClip)
	}
}
