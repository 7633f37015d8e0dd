//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image/color"
	"log/slog"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"forktale/internal/assets"
	"forktale/internal/audio"
	"forktale/internal/config"
	"forktale/internal/console"
	"forktale/internal/crash"
	"forktale/internal/engine"
	applog "forktale/internal/log"
	apptheme "forktale/internal/theme"
)

// Run starts the Fyne desktop console and loads the game file.
func Run(gameFile, fork string, cfg config.AppConfig) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("game", gameFile))

	sess := &crash.Session{GameFile: gameFile}
	defer func() { crash.Recover(sess) }()

	fyneApp := app.NewWithID("forktale")
	w := fyneApp.NewWindow("Forktale")
	w.Resize(fyne.NewSize(900, 700))

	fc := newFyneConsole(w)
	interp := engine.New(engine.Options{
		Console: fc,
		Speech:  console.NopSpeech{},
		Sched:   engine.NewTimerScheduler(fyne.Do),
		Sound:   audio.NewPlayer(),
		Images:  assets.CheckImage,
		Strict:  cfg.Engine.StrictErrors,
		Print:   cfg.Engine.PrintErrors,
	})

	if th, err := apptheme.Load(cfg.General.Theme); err != nil {
		l.Warn("theme not loaded", slog.Any("err", err))
	} else {
		th.Apply(fc)
	}

	fyne.Do(func() {
		if err := interp.LoadFile(gameFile, fork); err != nil {
			l.Error("load failed", slog.Any("err", err))
		}
		sess.CurrentFork = interp.CurrentFork()
	})

	w.ShowAndRun()
	return nil
}

// fyneConsole renders the engine's output into a Fyne window: a scrolling
// output pane, an options bar, and one input entry. All methods must run on
// the Fyne main thread (the engine dispatches through fyne.Do).
type fyneConsole struct {
	win fyne.Window

	bg      *canvas.Rectangle
	output  *fyne.Container // VBox of finished lines
	line    *fyne.Container // HBox being filled by inline runs
	options *fyne.Container
	scroll  *container.Scroll
	entry   *widget.Entry

	submits []*fyneSub
	keys    []*fyneKeySub

	optionColor color.Color
}

type fyneSub struct {
	c  *fyneConsole
	fn func(string)
	on bool
}

func (s *fyneSub) Cancel() { s.on = false }

type fyneKeySub struct {
	fn func(console.Key)
	on bool
}

func (s *fyneKeySub) Cancel() { s.on = false }

func newFyneConsole(w fyne.Window) *fyneConsole {
	c := &fyneConsole{
		win:     w,
		bg:      canvas.NewRectangle(color.Black),
		output:  container.NewVBox(),
		line:    container.NewHBox(),
		options: container.NewVBox(),
	}
	c.scroll = container.NewVScroll(c.output)
	c.entry = widget.NewEntry()
	c.entry.Disable()
	c.entry.OnSubmitted = func(text string) {
		c.entry.SetText("")
		subs := append([]*fyneSub(nil), c.submits...)
		for _, s := range subs {
			if s.on {
				s.fn(text)
			}
		}
	}
	w.Canvas().SetOnTypedKey(func(e *fyne.KeyEvent) {
		subs := append([]*fyneKeySub(nil), c.keys...)
		for _, s := range subs {
			if s.on {
				s.fn(console.Key{Name: string(e.Name)})
			}
		}
	})

	content := container.NewBorder(nil, container.NewVBox(c.options, c.entry), nil, nil, c.scroll)
	w.SetContent(container.NewStack(c.bg, content))
	return c
}

var _ console.Console = (*fyneConsole)(nil)

func (c *fyneConsole) Clear() {
	c.output.Objects = nil
	c.line = container.NewHBox()
	c.output.Refresh()
	c.options.Objects = nil
	c.options.Refresh()
}

func (c *fyneConsole) SetTitle(title string) { c.win.SetTitle(title) }

func (c *fyneConsole) SetWidth(px int) {
	size := c.win.Canvas().Size()
	c.win.Resize(fyne.NewSize(float32(px), size.Height))
}

func (c *fyneConsole) SetHeight(px int) {
	size := c.win.Canvas().Size()
	c.win.Resize(fyne.NewSize(size.Width, float32(px)))
}

func (c *fyneConsole) SetInputEnabled(enabled bool) {
	if enabled {
		c.entry.Enable()
		c.win.Canvas().Focus(c.entry)
	} else {
		c.entry.Disable()
	}
}

func (c *fyneConsole) SetBackgroundColor(hex string) {
	if col, ok := hexColor(hex); ok {
		c.bg.FillColor = col
		c.bg.Refresh()
	}
}

func (c *fyneConsole) SetOptionColors(normal, _ string) {
	// The base color is stored, but option buttons and inline hyperlinks are
	// drawn with the Fyne theme's colors; the hover color is ignored.
	if col, ok := hexColor(normal); ok {
		c.optionColor = col
	} else {
		c.optionColor = nil
	}
}

func (c *fyneConsole) SetOutputFont(string, float64) {
	// Font families come from the application theme; per-run sizes are
	// honored in AddText.
}

func (c *fyneConsole) SetOptionFont(string, float64) {}

func (c *fyneConsole) AddText(r console.Run) {
	parts := strings.Split(r.Text, "\n")
	for k, part := range parts {
		if part != "" {
			c.line.Add(c.textObject(part, r))
		}
		if k < len(parts)-1 {
			c.flushLine()
		}
	}
	c.scrollToEnd()
}

func (c *fyneConsole) textObject(text string, r console.Run) fyne.CanvasObject {
	t := canvas.NewText(text, runColor(r))
	t.TextStyle = fyne.TextStyle{Bold: r.Bold, Italic: r.Italic}
	if r.Size > 0 {
		t.TextSize = float32(r.Size)
	} else {
		t.TextSize = theme.TextSize()
	}
	return t
}

// flushLine moves the in-progress line into the output box.
func (c *fyneConsole) flushLine() {
	line := c.line
	if len(line.Objects) == 0 {
		// preserve blank lines as spacing
		line.Add(canvas.NewText(" ", color.Transparent))
	}
	c.output.Add(line)
	c.line = container.NewHBox()
	c.output.Refresh()
}

func (c *fyneConsole) AddInlineOption(r console.Run, click func()) {
	link := widget.NewHyperlink(r.Text, nil)
	link.OnTapped = click
	c.line.Add(link)
	c.scrollToEnd()
}

func (c *fyneConsole) AddOption(r console.Run, click func()) {
	btn := widget.NewButton(r.Text, click)
	btn.Alignment = widget.ButtonAlignLeading
	c.options.Add(btn)
	c.options.Refresh()
}

func (c *fyneConsole) AddImage(path string) error {
	img := canvas.NewImageFromFile(path)
	img.FillMode = canvas.ImageFillContain
	img.SetMinSize(fyne.NewSize(240, 180))
	c.flushLine()
	c.output.Add(img)
	c.scrollToEnd()
	return nil
}

func (c *fyneConsole) OnSubmit(fn func(string)) console.Subscription {
	s := &fyneSub{c: c, fn: fn, on: true}
	c.submits = append(c.submits, s)
	return s
}

func (c *fyneConsole) OnKeyDown(fn func(console.Key)) console.Subscription {
	s := &fyneKeySub{fn: fn, on: true}
	c.keys = append(c.keys, s)
	return s
}

func (c *fyneConsole) scrollToEnd() {
	c.output.Refresh()
	c.scroll.ScrollToBottom()
}

func runColor(r console.Run) color.Color {
	if col, ok := hexColor(r.Color); ok {
		return col
	}
	return theme.Color(theme.ColorNameForeground)
}

// hexColor parses a 6-digit hex color.
func hexColor(hex string) (color.Color, bool) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return nil, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, false
	}
	return color.NRGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 0xff,
	}, true
}
