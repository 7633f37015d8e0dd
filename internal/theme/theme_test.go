/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package theme

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltinsLoadByName(t *testing.T) {
	for _, name := range Names() {
		th, err := Load(name)
		if err != nil {
			t.Fatalf("Load(%q): %v", name, err)
		}
		if th.Name != name {
			t.Fatalf("theme name = %q, want %q", th.Name, name)
		}
	}
	if th, err := Load(""); err != nil || th.Name != "" {
		t.Fatalf("empty name must yield zero theme, got %+v %v", th, err)
	}
}

func TestParseValidPack(t *testing.T) {
	data := []byte(`{"name":"night","background_color":"0a0a0a","option_color":"66ccff","output_font_size":14}`)
	th, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if th.Name != "night" || th.BackgroundColor != "0a0a0a" || th.OutputFontSize != 14 {
		t.Fatalf("theme = %+v", th)
	}
}

func TestParseRejectsBadPacks(t *testing.T) {
	cases := [][]byte{
		[]byte(`{}`),                                        // missing name
		[]byte(`{"name":"x","background_color":"red"}`),     // not hex
		[]byte(`{"name":"x","output_font_size":-1}`),        // non-positive
		[]byte(`{"name":"x","unexpected":"field"}`),         // unknown key
	}
	for _, data := range cases {
		if _, err := Parse(data); err == nil {
			t.Fatalf("Parse(%s) accepted invalid pack", data)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.json")
	if err := os.WriteFile(path, []byte(`{"name":"file-theme","option_color":"AABBCC"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	th, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if th.Name != "file-theme" || th.OptionColor != "AABBCC" {
		t.Fatalf("theme = %+v", th)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("missing file must error")
	}
}
