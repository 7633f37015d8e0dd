/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package transcript

import (
	"path/filepath"
	"testing"

	"forktale/internal/console"
)

func openTemp(t *testing.T) *Recorder {
	t.Helper()
	r, err := Open(filepath.ToSlash(filepath.Join(t.TempDir(), "session.sqlite")))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRecordAndReadBack(t *testing.T) {
	r := openTemp(t)
	r.FileLoaded("game.txt", 3)
	r.ForkEntered("start")
	r.TextEmitted(console.Run{Text: "hello\n"})
	r.OptionEmitted("Go", "next")
	r.Navigated("start", "next")

	n, err := r.EventCount()
	if err != nil {
		t.Fatalf("EventCount: %v", err)
	}
	if n != 5 {
		t.Fatalf("events = %d, want 5", n)
	}
	evs, err := r.Events()
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if evs[0][0] != "file_loaded" || evs[1][0] != "fork_entered" || evs[1][1] != "start" {
		t.Fatalf("unexpected head events: %+v", evs[:2])
	}
	if evs[4][0] != "navigate" || evs[4][1] != "start" || evs[4][2] != "next" {
		t.Fatalf("unexpected navigate event: %+v", evs[4])
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatalf("empty path must error")
	}
}
