/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package engine

import (
	"sort"
	"strings"
	"testing"
	"time"

	"forktale/internal/console"
	"forktale/internal/script"
)

// fakeConsole records everything the interpreter emits.
type fakeConsole struct {
	texts   []console.Run
	options []fakeOption
	images  []string
	subs    []*fakeSub
	cleared int
	input   bool
	bg      string
	width   int
	height  int
}

type fakeOption struct {
	run    console.Run
	inline bool
	click  func()
}

type fakeSub struct {
	c  *fakeConsole
	fn func(string)
	on bool
}

func (s *fakeSub) Cancel() { s.on = false }

type fakeKeySub struct{ on bool }

func (s *fakeKeySub) Cancel() { s.on = false }

var _ console.Console = (*fakeConsole)(nil)

func (c *fakeConsole) Clear() {
	c.texts = nil
	c.options = nil
	c.images = nil
	c.cleared++
}

func (c *fakeConsole) SetTitle(string)               {}
func (c *fakeConsole) SetWidth(px int)               { c.width = px }
func (c *fakeConsole) SetHeight(px int)              { c.height = px }
func (c *fakeConsole) SetInputEnabled(enabled bool)  { c.input = enabled }
func (c *fakeConsole) SetBackgroundColor(hex string) { c.bg = hex }
func (c *fakeConsole) SetOptionColors(string, string) {}
func (c *fakeConsole) SetOutputFont(string, float64)  {}
func (c *fakeConsole) SetOptionFont(string, float64)  {}

func (c *fakeConsole) AddText(r console.Run) { c.texts = append(c.texts, r) }

func (c *fakeConsole) AddInlineOption(r console.Run, click func()) {
	c.options = append(c.options, fakeOption{run: r, inline: true, click: click})
}

func (c *fakeConsole) AddOption(r console.Run, click func()) {
	c.options = append(c.options, fakeOption{run: r, click: click})
}

func (c *fakeConsole) AddImage(path string) error {
	c.images = append(c.images, path)
	return nil
}

func (c *fakeConsole) OnSubmit(fn func(string)) console.Subscription {
	s := &fakeSub{c: c, fn: fn, on: true}
	c.subs = append(c.subs, s)
	return s
}

func (c *fakeConsole) OnKeyDown(func(console.Key)) console.Subscription {
	return &fakeKeySub{on: true}
}

// submit delivers text to the live submit handlers.
func (c *fakeConsole) submit(text string) {
	subs := append([]*fakeSub(nil), c.subs...)
	for _, s := range subs {
		if s.on {
			s.fn(text)
		}
	}
}

func (c *fakeConsole) liveSubmitHandlers() int {
	n := 0
	for _, s := range c.subs {
		if s.on {
			n++
		}
	}
	return n
}

// allText joins every emitted run.
func (c *fakeConsole) allText() string {
	var b strings.Builder
	for _, r := range c.texts {
		b.WriteString(r.Text)
	}
	return b.String()
}

func (c *fakeConsole) optionLabels() []string {
	var out []string
	for _, o := range c.options {
		out = append(out, o.run.Text)
	}
	return out
}

func (c *fakeConsole) click(t *testing.T, label string) {
	t.Helper()
	for _, o := range c.options {
		if o.run.Text == label {
			o.click()
			return
		}
	}
	t.Fatalf("no option %q, have %v", label, c.optionLabels())
}

// manualSched is a deterministic Scheduler driven by Advance.
type manualSched struct {
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	at      time.Duration
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() { t.stopped = true }

func (s *manualSched) AfterFunc(d time.Duration, fn func()) TimerHandle {
	t := &manualTimer{at: s.now + d, seq: s.seq, fn: fn}
	s.seq++
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock forward, firing due timers in scheduling order.
func (s *manualSched) Advance(d time.Duration) {
	s.now += d
	for {
		var due []*manualTimer
		for _, t := range s.timers {
			if !t.stopped && !t.fired && t.at <= s.now {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			return
		}
		sort.Slice(due, func(a, b int) bool {
			if due[a].at != due[b].at {
				return due[a].at < due[b].at
			}
			return due[a].seq < due[b].seq
		})
		t := due[0]
		t.fired = true
		t.fn()
	}
}

func (s *manualSched) pending() int {
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// newTestInterp builds an interpreter over a parsed source string.
func newTestInterp(t *testing.T, src string, strict bool) (*Interpreter, *fakeConsole, *manualSched, *console.TermSpeech) {
	t.Helper()
	cons := &fakeConsole{}
	sched := &manualSched{}
	speech := console.NewTermSpeech(&strings.Builder{})
	i := New(Options{Console: cons, Speech: speech, Sched: sched, Strict: strict})
	g, err := script.ParseString(src, "game.txt")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	i.game = g
	i.ProcessHeaderOptions(g.Header)
	return i, cons, sched, speech
}

func enter(t *testing.T, i *Interpreter, fork string) {
	t.Helper()
	if err := i.SetFork(fork); err != nil {
		t.Fatalf("SetFork(%s): %v", fork, err)
	}
}
