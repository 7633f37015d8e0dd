/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package engine

import (
	"math"
	"strconv"
	"strings"
)

// Prefs are the presentation preferences a file's options header controls.
// They reset to defaults before every header pass.
type Prefs struct {
	LinkStyleText        bool
	OptionDefaultText    string
	OptionDefaultDisable bool
	OptionColor          string
	OptionHoverColor     string
	BackgroundColor      string
	OutputFontSize       float64
	OptionFontSize       float64
	WindowWidth          int
	WindowHeight         int
	OutputFont           string
	OptionFont           string
}

// DefaultPrefs returns the preferences in effect with an empty header.
func DefaultPrefs() Prefs {
	return Prefs{OptionDefaultText: "restart"}
}

// ProcessHeaderOptions parses the options header blob and applies the
// resulting preferences to the console. Unknown keys are ignored.
func (i *Interpreter) ProcessHeaderOptions(header string) {
	i.prefs = DefaultPrefs()
	for _, line := range strings.Split(header, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, val, _ := strings.Cut(line, " ")
		val = strings.TrimSpace(val)
		switch key {
		case "link-style-text":
			i.prefs.LinkStyleText = true
		case "option-default-text":
			if val != "" {
				i.prefs.OptionDefaultText = val
			}
		case "option-default-disable":
			i.prefs.OptionDefaultDisable = true
		case "option-color":
			if hex, ok := parseHexColor(val); ok {
				i.prefs.OptionColor = hex
			}
		case "option-hover-color":
			if hex, ok := parseHexColor(val); ok {
				i.prefs.OptionHoverColor = hex
			}
		case "background-color":
			if hex, ok := parseHexColor(val); ok {
				i.prefs.BackgroundColor = hex
			}
		case "output-font-size":
			if f, ok := parsePositiveFinite(val); ok {
				i.prefs.OutputFontSize = f
			}
		case "option-font-size":
			if f, ok := parsePositiveFinite(val); ok {
				i.prefs.OptionFontSize = f
			}
		case "window-width":
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				i.prefs.WindowWidth = n
			}
		case "window-height":
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				i.prefs.WindowHeight = n
			}
		case "output-font":
			if val != "" {
				i.prefs.OutputFont = val + ", sans-serif"
			}
		case "option-font":
			if val != "" {
				i.prefs.OptionFont = val + ", sans-serif"
			}
		}
	}
	i.applyPrefs()
}

func (i *Interpreter) applyPrefs() {
	if i.prefs.BackgroundColor != "" {
		i.cons.SetBackgroundColor(i.prefs.BackgroundColor)
	}
	if i.prefs.OptionColor != "" || i.prefs.OptionHoverColor != "" {
		i.cons.SetOptionColors(i.prefs.OptionColor, i.prefs.OptionHoverColor)
	}
	if i.prefs.OutputFont != "" || i.prefs.OutputFontSize > 0 {
		i.cons.SetOutputFont(i.prefs.OutputFont, i.prefs.OutputFontSize)
	}
	if i.prefs.OptionFont != "" || i.prefs.OptionFontSize > 0 {
		i.cons.SetOptionFont(i.prefs.OptionFont, i.prefs.OptionFontSize)
	}
	if i.prefs.WindowWidth > 0 {
		i.cons.SetWidth(i.prefs.WindowWidth)
	}
	if i.prefs.WindowHeight > 0 {
		i.cons.SetHeight(i.prefs.WindowHeight)
	}
}

// parseHexColor accepts 3- or 6-digit hex, returning the expanded 6-digit
// lowercase form ("fAb" -> "ffaabb").
func parseHexColor(s string) (string, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(s) {
	case 3:
		var b strings.Builder
		for k := 0; k < 3; k++ {
			if !isHexDigit(s[k]) {
				return "", false
			}
			b.WriteByte(s[k])
			b.WriteByte(s[k])
		}
		return strings.ToLower(b.String()), true
	case 6:
		for k := 0; k < 6; k++ {
			if !isHexDigit(s[k]) {
				return "", false
			}
		}
		return strings.ToLower(s), true
	default:
		return "", false
	}
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// parsePositiveFinite parses a number that must be positive and finite.
func parsePositiveFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, false
	}
	return f, true
}
