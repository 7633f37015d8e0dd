/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package console defines the presentation surface the interpreter talks to:
// a sink for styled text runs, clickable options, images, and one input line,
// plus the speech facade. The engine only writes to a Console; the Console
// only calls back through the event subscriptions returned here.
package console

// Run is a styled piece of output or option text.
type Run struct {
	Text   string
	Color  string // 6-digit lowercase hex, "" for the surface default
	Bold   bool
	Italic bool
	Font   string  // font family, "" for the surface default
	Size   float64 // point size, 0 for the surface default
}

// Key is a key-down event from the surface.
type Key struct {
	Name  string
	Ctrl  bool
	Alt   bool
	Shift bool
}

// Subscription is an owned handle to an event registration. Cancel detaches
// the callback; cancelling twice is a no-op.
type Subscription interface {
	Cancel()
}

// Console is the sink the interpreter renders into.
type Console interface {
	Clear()
	SetTitle(title string)
	SetWidth(px int)
	SetHeight(px int)
	SetInputEnabled(enabled bool)
	SetBackgroundColor(hex string)
	SetOptionColors(normal, hover string)
	SetOutputFont(family string, size float64)
	SetOptionFont(family string, size float64)

	// AddText appends a run to the output pane.
	AddText(r Run)
	// AddInlineOption appends a clickable run inside the output pane.
	AddInlineOption(r Run, click func())
	// AddOption appends a clickable entry to the options pane.
	AddOption(r Run, click func())
	// AddImage shows the image at path in the top pane.
	AddImage(path string) error

	// OnSubmit fires when the user submits the input line.
	OnSubmit(fn func(text string)) Subscription
	// OnKeyDown fires per key press.
	OnKeyDown(fn func(k Key)) Subscription
}

// Speech is the recognition/synthesis facade. Implementations may be no-ops;
// real speech I/O is a host concern.
type Speech interface {
	Speak(text string)
	SpeakStop()
	SpeakPause()
	SpeakResume()
	// Listen registers a grammar phrase; action runs when it is recognized.
	Listen(phrase string, action func())
	ListenStart()
	ListenStop()
	// UnloadAll drops every registered grammar.
	UnloadAll()
	// OnReady fires fn once the synthesizer/recognizer is usable.
	OnReady(fn func())
}

// NopSpeech is a Speech that does nothing.
type NopSpeech struct{}

func (NopSpeech) Speak(string)          {}
func (NopSpeech) SpeakStop()            {}
func (NopSpeech) SpeakPause()           {}
func (NopSpeech) SpeakResume()          {}
func (NopSpeech) Listen(string, func()) {}
func (NopSpeech) ListenStart()          {}
func (NopSpeech) ListenStop()           {}
func (NopSpeech) UnloadAll()            {}
func (NopSpeech) OnReady(fn func())     { fn() }
