/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package theme provides named console color/font presets. A theme applies
// before a game file's options header, which always wins for its session.
package theme

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"forktale/internal/console"
)

// Theme is a console preset loadable from a JSON pack.
type Theme struct {
	Name            string  `json:"name"`
	BackgroundColor string  `json:"background_color,omitempty"`
	OptionColor     string  `json:"option_color,omitempty"`
	OptionHover     string  `json:"option_hover_color,omitempty"`
	OutputFont      string  `json:"output_font,omitempty"`
	OptionFont      string  `json:"option_font,omitempty"`
	OutputFontSize  float64 `json:"output_font_size,omitempty"`
	OptionFontSize  float64 `json:"option_font_size,omitempty"`
}

// Schema is the JSON Schema every theme pack must satisfy.
const Schema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["name"],
	"additionalProperties": false,
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"background_color": {"type": "string", "pattern": "^[0-9a-fA-F]{6}$"},
		"option_color": {"type": "string", "pattern": "^[0-9a-fA-F]{6}$"},
		"option_hover_color": {"type": "string", "pattern": "^[0-9a-fA-F]{6}$"},
		"output_font": {"type": "string"},
		"option_font": {"type": "string"},
		"output_font_size": {"type": "number", "exclusiveMinimum": 0},
		"option_font_size": {"type": "number", "exclusiveMinimum": 0}
	}
}`

// builtins are always available by name.
var builtins = map[string]Theme{
	"dark": {
		Name:            "dark",
		BackgroundColor: "101014",
		OptionColor:     "8ecae6",
		OptionHover:     "bde0fe",
	},
	"amber": {
		Name:            "amber",
		BackgroundColor: "1a1205",
		OptionColor:     "ffb703",
		OptionHover:     "ffd166",
	},
	"paper": {
		Name:            "paper",
		BackgroundColor: "f5f1e8",
		OptionColor:     "5a3e2b",
		OptionHover:     "8c5e3c",
	},
}

// Names lists the builtin theme names.
func Names() []string {
	out := make([]string, 0, len(builtins))
	for n := range builtins {
		out = append(out, n)
	}
	return out
}

// Load resolves a theme by builtin name or, failing that, as a path to a
// schema-validated JSON pack. An empty name yields a zero theme.
func Load(nameOrPath string) (Theme, error) {
	nameOrPath = strings.TrimSpace(nameOrPath)
	if nameOrPath == "" {
		return Theme{}, nil
	}
	if t, ok := builtins[strings.ToLower(nameOrPath)]; ok {
		return t, nil
	}
	data, err := os.ReadFile(nameOrPath)
	if err != nil {
		return Theme{}, fmt.Errorf("theme %q: %w", nameOrPath, err)
	}
	return Parse(data)
}

// Parse validates raw JSON against the schema and decodes it.
func Parse(data []byte) (Theme, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(Schema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return Theme{}, fmt.Errorf("validate theme: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return Theme{}, fmt.Errorf("invalid theme pack: %s", strings.Join(msgs, "; "))
	}
	var t Theme
	if err := json.Unmarshal(data, &t); err != nil {
		return Theme{}, fmt.Errorf("decode theme: %w", err)
	}
	return t, nil
}

// Apply pushes the theme's presets onto a console.
func (t Theme) Apply(c console.Console) {
	if t.BackgroundColor != "" {
		c.SetBackgroundColor(strings.ToLower(t.BackgroundColor))
	}
	c.SetOptionColors(strings.ToLower(t.OptionColor), strings.ToLower(t.OptionHover))
	if t.OutputFont != "" || t.OutputFontSize > 0 {
		c.SetOutputFont(t.OutputFont, t.OutputFontSize)
	}
	if t.OptionFont != "" || t.OptionFontSize > 0 {
		c.SetOptionFont(t.OptionFont, t.OptionFontSize)
	}
}
