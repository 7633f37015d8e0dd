/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package console

import (
	"strings"
	"testing"
)

func TestTermConsoleTextAndOptions(t *testing.T) {
	var buf strings.Builder
	c := NewTerm(&buf)

	c.AddText(Run{Text: "hello\n"})
	clicked := ""
	c.AddOption(Run{Text: "Go"}, func() { clicked = "go" })
	c.AddOption(Run{Text: "Stay"}, func() { clicked = "stay" })

	if c.OptionCount() != 2 {
		t.Fatalf("options = %d", c.OptionCount())
	}
	if c.OptionLabel(2) != "Stay" {
		t.Fatalf("label 2 = %q", c.OptionLabel(2))
	}
	if !c.ClickOption(1) || clicked != "go" {
		t.Fatalf("click 1 failed: %q", clicked)
	}
	if c.ClickOption(9) {
		t.Fatalf("out-of-range click must fail")
	}
	out := buf.String()
	if !strings.Contains(out, "hello") || !strings.Contains(out, "1) Go") {
		t.Fatalf("rendered = %q", out)
	}
}

func TestTermConsoleSubmitAndCancel(t *testing.T) {
	var buf strings.Builder
	c := NewTerm(&buf)

	var got []string
	sub := c.OnSubmit(func(s string) { got = append(got, s) })
	c.Submit("first")
	sub.Cancel()
	sub.Cancel() // idempotent
	c.Submit("second")

	if len(got) != 1 || got[0] != "first" {
		t.Fatalf("got = %v", got)
	}
}

func TestTermConsoleClearDropsOptions(t *testing.T) {
	var buf strings.Builder
	c := NewTerm(&buf)
	c.AddOption(Run{Text: "X"}, func() {})
	c.Clear()
	if c.OptionCount() != 0 {
		t.Fatalf("options survived Clear")
	}
}

func TestTermSpeechGrammar(t *testing.T) {
	var buf strings.Builder
	s := NewTermSpeech(&buf)
	fired := false
	s.Listen("open the door", func() { fired = true })

	if s.Hear("open the door") {
		t.Fatalf("must not recognize before ListenStart")
	}
	s.ListenStart()
	if !s.Hear("  Open The DOOR ") || !fired {
		t.Fatalf("grammar did not fire")
	}
	s.UnloadAll()
	if s.Hear("open the door") {
		t.Fatalf("grammar survived UnloadAll")
	}
	s.Speak("hello")
	if !strings.Contains(buf.String(), "(voice) hello") {
		t.Fatalf("speak output = %q", buf.String())
	}
}
