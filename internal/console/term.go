/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package console

import (
	"fmt"
	"io"
	"strings"
)

// TermConsole is a line-oriented Console for terminal play and headless use.
// Options are numbered; the play loop turns a typed number into a click and
// any other input into a submit. It is not safe for concurrent use; all calls
// must come from the engine's event loop.
type TermConsole struct {
	w            io.Writer
	title        string
	inputEnabled bool

	options   []termOption
	submits   []*termSub
	keys      []*keySub
	pendingNL bool
}

type termOption struct {
	label string
	click func()
}

type termSub struct {
	c  *TermConsole
	fn func(string)
}

func (s *termSub) Cancel() {
	for i, x := range s.c.submits {
		if x == s {
			s.c.submits = append(s.c.submits[:i], s.c.submits[i+1:]...)
			return
		}
	}
}

type keySub struct {
	c  *TermConsole
	fn func(Key)
}

func (s *keySub) Cancel() {
	for i, x := range s.c.keys {
		if x == s {
			s.c.keys = append(s.c.keys[:i], s.c.keys[i+1:]...)
			return
		}
	}
}

// NewTerm returns a terminal console writing to w.
func NewTerm(w io.Writer) *TermConsole {
	return &TermConsole{w: w}
}

func (c *TermConsole) Clear() {
	c.options = nil
	c.pendingNL = false
	fmt.Fprint(c.w, "\n----\n")
}

func (c *TermConsole) SetTitle(title string) { c.title = title }
func (c *TermConsole) SetWidth(int)          {}
func (c *TermConsole) SetHeight(int)         {}

func (c *TermConsole) SetInputEnabled(enabled bool) { c.inputEnabled = enabled }

// InputEnabled reports whether the input line is active.
func (c *TermConsole) InputEnabled() bool { return c.inputEnabled }

func (c *TermConsole) SetBackgroundColor(string)      {}
func (c *TermConsole) SetOptionColors(string, string) {}
func (c *TermConsole) SetOutputFont(string, float64)  {}
func (c *TermConsole) SetOptionFont(string, float64)  {}

func (c *TermConsole) AddText(r Run) {
	fmt.Fprint(c.w, r.Text)
	c.pendingNL = !strings.HasSuffix(r.Text, "\n")
}

func (c *TermConsole) AddInlineOption(r Run, click func()) {
	c.options = append(c.options, termOption{label: r.Text, click: click})
	fmt.Fprintf(c.w, "[%d:%s]", len(c.options), r.Text)
	c.pendingNL = true
}

func (c *TermConsole) AddOption(r Run, click func()) {
	if c.pendingNL {
		fmt.Fprintln(c.w)
		c.pendingNL = false
	}
	c.options = append(c.options, termOption{label: r.Text, click: click})
	fmt.Fprintf(c.w, "  %d) %s\n", len(c.options), r.Text)
}

func (c *TermConsole) AddImage(path string) error {
	if c.pendingNL {
		fmt.Fprintln(c.w)
		c.pendingNL = false
	}
	fmt.Fprintf(c.w, "[image: %s]\n", path)
	return nil
}

func (c *TermConsole) OnSubmit(fn func(string)) Subscription {
	s := &termSub{c: c, fn: fn}
	c.submits = append(c.submits, s)
	return s
}

func (c *TermConsole) OnKeyDown(fn func(Key)) Subscription {
	s := &keySub{c: c, fn: fn}
	c.keys = append(c.keys, s)
	return s
}

// OptionCount reports how many options are currently clickable.
func (c *TermConsole) OptionCount() int { return len(c.options) }

// OptionLabel returns the label of option i (1-based).
func (c *TermConsole) OptionLabel(i int) string {
	if i < 1 || i > len(c.options) {
		return ""
	}
	return c.options[i-1].label
}

// ClickOption triggers option i (1-based) as if clicked.
func (c *TermConsole) ClickOption(i int) bool {
	if i < 1 || i > len(c.options) {
		return false
	}
	c.options[i-1].click()
	return true
}

// Submit delivers text to every registered submit handler, as if the user
// pressed enter in the textbox. Handlers may unsubscribe during dispatch.
func (c *TermConsole) Submit(text string) {
	subs := append([]*termSub(nil), c.submits...)
	for _, s := range subs {
		s.fn(text)
	}
}

// PressKey delivers a key event.
func (c *TermConsole) PressKey(k Key) {
	subs := append([]*keySub(nil), c.keys...)
	for _, s := range subs {
		s.fn(k)
	}
}

// TermSpeech renders speech synthesis as plain text on the same writer and
// recognizes "spoken" phrases typed by the driver.
type TermSpeech struct {
	w         io.Writer
	listening bool
	grammars  []termGrammar
}

type termGrammar struct {
	phrase string
	action func()
}

// NewTermSpeech returns a Speech writing utterances to w.
func NewTermSpeech(w io.Writer) *TermSpeech { return &TermSpeech{w: w} }

func (s *TermSpeech) Speak(text string) { fmt.Fprintf(s.w, "(voice) %s\n", text) }
func (s *TermSpeech) SpeakStop()        {}
func (s *TermSpeech) SpeakPause()       {}
func (s *TermSpeech) SpeakResume()      {}

// OnReady fires immediately; the terminal voice has no warm-up.
func (s *TermSpeech) OnReady(fn func()) { fn() }

func (s *TermSpeech) Listen(phrase string, action func()) {
	s.grammars = append(s.grammars, termGrammar{phrase: phrase, action: action})
}

func (s *TermSpeech) ListenStart() { s.listening = true }
func (s *TermSpeech) ListenStop()  { s.listening = false }
func (s *TermSpeech) UnloadAll()   { s.grammars = nil }

// Listening reports whether recognition is active.
func (s *TermSpeech) Listening() bool { return s.listening }

// Hear simulates recognition of a phrase; it fires the first matching
// grammar. Returns whether anything matched.
func (s *TermSpeech) Hear(phrase string) bool {
	if !s.listening {
		return false
	}
	want := strings.TrimSpace(strings.ToLower(phrase))
	for _, g := range s.grammars {
		if strings.TrimSpace(strings.ToLower(g.phrase)) == want {
			g.action()
			return true
		}
	}
	return false
}
