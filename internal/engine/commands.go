/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package engine

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"forktale/internal/console"
	"forktale/internal/eval"
	"forktale/internal/script"
)

// ProcessText runs a node's body line by line, top-down. Blank lines are
// skipped; each line is dispatched by its first token. A goto or load halts
// the pass via the stop-evaluation flag.
func (i *Interpreter) ProcessText(node *script.ParseNode) error {
	for _, raw := range strings.Split(node.Text, "\n") {
		if i.stopEval {
			return nil
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if err := i.processLine(line); err != nil {
			return err
		}
	}
	return nil
}

func (i *Interpreter) processLine(line string) error {
	// Output literals and option lines come before command dispatch; a line
	// is classified by the line, so any '@' outside the first two forms makes
	// it an option.
	if strings.HasPrefix(line, "{") {
		return i.cmdOutput(line)
	}
	if strings.HasPrefix(line, "link@") {
		return i.cmdInlineLink(line)
	}
	if strings.ContainsRune(line, '@') {
		return i.cmdOption(line)
	}

	tok, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch {
	case tok == "type" || tok == "type*" || tok == "type**" || tok == "type***":
		msArg, text, _ := strings.Cut(rest, " ")
		return i.startTyping(tok, msArg, text, nil)
	case tok == "set":
		return i.cmdSet(rest)
	case tok == "get":
		return i.cmdGet(rest)
	case tok == "goto":
		return i.cmdGoto(rest)
	case tok == "img":
		return i.cmdImg(rest)
	case tok == "snd":
		return i.cmdSnd(rest)
	case tok == "speak":
		i.speech.Speak(decodeEscapes(rest))
		return nil
	case tok == "load":
		return i.cmdLoad(rest)
	case tok == "color":
		return i.cmdColor(rest)
	default:
		return i.fault(&InterpretError{
			Kind: FaultMalformedCommand,
			Fork: i.currentFork,
			Msg:  fmt.Sprintf("unrecognized line %q", line),
		})
	}
}

// cmdOutput emits a `{…}` literal. Up to three trailing asterisks inside the
// braces select italic, bold, and bold-italic.
func (i *Interpreter) cmdOutput(line string) error {
	end := strings.LastIndexByte(line, '}')
	if end < 1 {
		return i.fault(&InterpretError{
			Kind: FaultMalformedCommand,
			Fork: i.currentFork,
			Msg:  fmt.Sprintf("unterminated output literal %q", line),
		})
	}
	payload := line[1:end]
	italic, bold, payload := splitStyleStars(payload)
	i.addText(i.outputRun(decodeEscapes(payload)+"\n", bold, italic))
	return nil
}

// splitStyleStars strips up to three trailing asterisks: * italic, ** bold,
// *** bold italic.
func splitStyleStars(s string) (italic, bold bool, rest string) {
	stars := 0
	for stars < 3 && strings.HasSuffix(s, "*") {
		s = s[:len(s)-1]
		stars++
	}
	switch stars {
	case 1:
		return true, false, s
	case 2:
		return false, true, s
	case 3:
		return true, true, s
	default:
		return false, false, s
	}
}

// cmdInlineLink emits `link@<display>@<fork>`: a clickable anchor inside the
// output stream. With link-style-text set it is styled as plain output.
func (i *Interpreter) cmdInlineLink(line string) error {
	parts := strings.SplitN(line, "@", 3)
	if len(parts) != 3 || strings.TrimSpace(parts[1]) == "" {
		return i.fault(&InterpretError{
			Kind: FaultMalformedCommand,
			Fork: i.currentFork,
			Msg:  fmt.Sprintf("bad inline link %q", line),
		})
	}
	display := parts[1]
	target := script.NormalizeName(parts[2])
	var run console.Run
	if i.prefs.LinkStyleText {
		run = i.outputRun(display, false, false)
	} else {
		run = i.optionRun(display)
	}
	i.cons.AddInlineOption(run, i.clickAction(target))
	i.optionCount++
	for _, h := range i.hooks {
		h.OptionEmitted(display, target)
	}
	return nil
}

// cmdOption emits `<display>@<fork>` as an option at the bottom of the
// screen.
func (i *Interpreter) cmdOption(line string) error {
	display, forkPart, _ := strings.Cut(line, "@")
	target := script.NormalizeName(forkPart)
	if target == "" {
		return i.fault(&InterpretError{
			Kind: FaultMalformedCommand,
			Fork: i.currentFork,
			Msg:  fmt.Sprintf("option %q has no target", line),
		})
	}
	i.addOption(i.optionRun(display), target)
	return nil
}

func (i *Interpreter) clickAction(target string) func() {
	return func() {
		from := i.currentFork
		for _, h := range i.hooks {
			h.Navigated(from, target)
		}
		i.guardVoid(func() error { return i.SetFork(target) })
	}
}

// startTyping emits text one character per tick in the style selected by the
// type token. done, when non-nil, runs after the final character (used by
// `if type …` to release the deferred subtree).
func (i *Interpreter) startTyping(tok, msArg, text string, done func()) error {
	italic, bold := typeStyle(tok)
	ms, err := strconv.ParseFloat(msArg, 64)
	if err != nil || math.IsNaN(ms) || math.IsInf(ms, 0) || ms <= 0 {
		return i.fault(&InterpretError{
			Kind: FaultMalformedCommand,
			Fork: i.currentFork,
			Msg:  fmt.Sprintf("type delay %q must be a positive number", msArg),
		})
	}
	runes := []rune(decodeEscapes(text))
	interval := time.Duration(ms * float64(time.Millisecond))
	idx := 0
	var step func()
	step = func() {
		if idx < len(runes) {
			i.addText(i.outputRun(string(runes[idx]), bold, italic))
			idx++
			i.timers = append(i.timers, i.sched.AfterFunc(interval, step))
			return
		}
		i.addText(i.outputRun("\n", false, false))
		if done != nil {
			done()
		}
	}
	i.timers = append(i.timers, i.sched.AfterFunc(interval, step))
	return nil
}

func typeStyle(tok string) (italic, bold bool) {
	switch strings.Count(tok, "*") {
	case 1:
		return true, false
	case 2:
		return false, true
	case 3:
		return true, true
	default:
		return false, false
	}
}

// condType handles the `if type <ms> <text>` condition form: the subtree is
// deferred until the whole string has been typed.
func (i *Interpreter) condType(node *script.ParseNode, rest string) error {
	tok, args, _ := strings.Cut(rest, " ")
	msArg, text, _ := strings.Cut(strings.TrimSpace(args), " ")
	return i.startTyping(tok, msArg, text, func() {
		i.reenter(node, "")
	})
}

// cmdSet handles the three assignment forms:
//
//	set <lhs> = <rhs>   evaluate rhs, assign
//	set <name>          boolean true (set !<name> for false)
//	set <expr>          first token an existing variable: <first> = <expr>
func (i *Interpreter) cmdSet(rest string) error {
	if rest == "" {
		return i.malformed("set needs arguments")
	}
	if lhs, rhs, ok := strings.Cut(rest, "="); ok {
		name := strings.ToLower(strings.TrimSpace(lhs))
		if err := i.checkVarName(name); err != nil {
			return err
		}
		v, err := i.evalValue(rhs)
		if err != nil {
			return i.faultEval(err)
		}
		i.vars.Set(name, v)
		return nil
	}
	fields := strings.Fields(rest)
	if len(fields) == 1 {
		name := strings.ToLower(fields[0])
		val := eval.Bool(true)
		if strings.HasPrefix(name, "!") {
			name = name[1:]
			val = eval.Bool(false)
		}
		if err := i.checkVarName(name); err != nil {
			return err
		}
		i.vars.Set(name, val)
		return nil
	}
	if first := strings.ToLower(fields[0]); i.vars.Has(first) {
		v, err := i.evalValue(rest)
		if err != nil {
			return i.faultEval(err)
		}
		i.vars.Set(first, v)
		return nil
	}
	return i.malformed("set %q: first token is not a variable", rest)
}

func (i *Interpreter) checkVarName(name string) error {
	if name == "" || strings.ContainsAny(name, " \t") {
		return i.malformed("bad variable name %q", name)
	}
	if name[0] >= '0' && name[0] <= '9' {
		return i.malformed("variable %q starts with a digit", name)
	}
	if eval.Reserved(name) || name == "visited" {
		return i.malformed("variable %q collides with a reserved identifier", name)
	}
	return nil
}

// evalValue evaluates an expression for assignment; the result must be a
// boolean or a decimal.
func (i *Interpreter) evalValue(expr string) (eval.Value, error) {
	i.registerIdents()
	v, err := i.ev.Evaluate(expr)
	if err != nil {
		return eval.Value{}, err
	}
	switch v.Kind() {
	case eval.KindBool, eval.KindDecimal:
		return v, nil
	default:
		return eval.Value{}, fmt.Errorf("%q does not yield a boolean or decimal", strings.TrimSpace(expr))
	}
}

func (i *Interpreter) faultEval(err error) error {
	return i.fault(&InterpretError{Kind: FaultEvaluation, Fork: i.currentFork, Msg: err.Error()})
}

func (i *Interpreter) malformed(format string, args ...any) error {
	return i.fault(&InterpretError{
		Kind: FaultMalformedCommand,
		Fork: i.currentFork,
		Msg:  fmt.Sprintf(format, args...),
	})
}

// cmdGet emits a variable's current value as plain output.
func (i *Interpreter) cmdGet(rest string) error {
	name := strings.ToLower(strings.TrimSpace(rest))
	v, ok := i.vars.Get(name)
	if !ok {
		return i.malformed("get %q: no such variable", name)
	}
	i.addText(i.outputRun(v.String()+"\n", false, false))
	return nil
}

// cmdGoto marks the current fork visited, enters the target, and halts the
// current walk.
func (i *Interpreter) cmdGoto(rest string) error {
	target := script.NormalizeName(rest)
	if target == "" {
		return i.malformed("goto needs a fork name")
	}
	from := i.currentFork
	i.markVisited(from)
	for _, h := range i.hooks {
		h.Navigated(from, target)
	}
	err := i.SetFork(target)
	i.stopEval = true
	return err
}

func (i *Interpreter) cmdImg(rest string) error {
	path, err := i.resolveResource(rest)
	if err != nil {
		return err
	}
	if path == "" {
		return nil
	}
	if i.images != nil {
		if err := i.images(path); err != nil {
			return i.fault(&InterpretError{
				Kind: FaultMissingResource,
				Fork: i.currentFork,
				Msg:  fmt.Sprintf("img %q: %v", rest, err),
			})
		}
	}
	if err := i.cons.AddImage(path); err != nil {
		return i.fault(&InterpretError{
			Kind: FaultMissingResource,
			Fork: i.currentFork,
			Msg:  fmt.Sprintf("img %q: %v", rest, err),
		})
	}
	return nil
}

func (i *Interpreter) cmdSnd(rest string) error {
	path, err := i.resolveResource(rest)
	if err != nil {
		return err
	}
	if path == "" {
		return nil
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return i.fault(&InterpretError{
			Kind: FaultMissingResource,
			Fork: i.currentFork,
			Msg:  fmt.Sprintf("snd %q: %v", rest, statErr),
		})
	}
	if i.sound == nil {
		return nil
	}
	if err := i.sound.Play(path); err != nil {
		return i.fault(&InterpretError{
			Kind: FaultMissingResource,
			Fork: i.currentFork,
			Msg:  fmt.Sprintf("snd %q: %v", rest, err),
		})
	}
	return nil
}

// resolveResource decodes escapes and resolves a path against the loaded
// file's directory. An empty argument is malformed.
func (i *Interpreter) resolveResource(arg string) (string, error) {
	p := decodeEscapes(strings.TrimSpace(arg))
	if p == "" {
		return "", i.malformed("missing resource path")
	}
	if filepath.IsAbs(p) || i.game == nil || i.game.Path == "" {
		return p, nil
	}
	return filepath.Join(filepath.Dir(i.game.Path), p), nil
}

// cmdLoad re-enters the parser on another file. `load new` clears the
// variable store first. The current walk halts.
func (i *Interpreter) cmdLoad(rest string) error {
	arg := strings.TrimSpace(rest)
	fresh := false
	if strings.HasPrefix(arg, "new ") {
		fresh = true
		arg = strings.TrimSpace(strings.TrimPrefix(arg, "new"))
	}
	path, err := i.resolveResource(arg)
	if err != nil {
		return err
	}
	if path == "" {
		return nil
	}
	if fresh {
		i.vars.Clear()
	}
	err = i.loadFile(path, "", false)
	i.stopEval = true
	return err
}

func (i *Interpreter) cmdColor(rest string) error {
	hex, ok := parseHexColor(rest)
	if !ok {
		return i.malformed("bad color %q", rest)
	}
	i.curColor = hex
	return nil
}

func (i *Interpreter) outputRun(text string, bold, italic bool) console.Run {
	return console.Run{
		Text:   text,
		Color:  i.curColor,
		Bold:   bold,
		Italic: italic,
		Font:   i.prefs.OutputFont,
		Size:   i.prefs.OutputFontSize,
	}
}

func (i *Interpreter) addText(r console.Run) {
	i.cons.AddText(r)
	for _, h := range i.hooks {
		h.TextEmitted(r)
	}
}

func (i *Interpreter) addOption(r console.Run, target string) {
	i.cons.AddOption(r, i.clickAction(target))
	i.optionCount++
	for _, h := range i.hooks {
		h.OptionEmitted(r.Text, target)
	}
}

// decodeEscapes applies the output escapes in one left-to-right pass:
// \at -> @, \lb -> {, \rb -> }, \n -> newline, \s -> backslash.
func decodeEscapes(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for k := 0; k < len(s); {
		if s[k] == '\\' && k+1 < len(s) {
			switch {
			case strings.HasPrefix(s[k:], `\at`):
				b.WriteByte('@')
				k += 3
				continue
			case strings.HasPrefix(s[k:], `\lb`):
				b.WriteByte('{')
				k += 3
				continue
			case strings.HasPrefix(s[k:], `\rb`):
				b.WriteByte('}')
				k += 3
				continue
			case strings.HasPrefix(s[k:], `\n`):
				b.WriteByte('\n')
				k += 2
				continue
			case strings.HasPrefix(s[k:], `\s`):
				b.WriteByte('\\')
				k += 2
				continue
			}
		}
		b.WriteByte(s[k])
		k++
	}
	return b.String()
}

// matchText implements the textbox predicates. Comparison is trim-aware and
// case-insensitive; has/pick split the query on commas with `\c` as an
// escaped comma and require whole-word matches.
func matchText(op, query, input string) bool {
	input = strings.TrimSpace(input)
	switch op {
	case "is":
		return strings.EqualFold(input, strings.TrimSpace(decodeEscapes(query)))
	case "!is":
		return !strings.EqualFold(input, strings.TrimSpace(decodeEscapes(query)))
	case "has":
		for _, w := range splitQueryWords(query) {
			if !wordInInput(w, input) {
				return false
			}
		}
		return true
	case "!has":
		for _, w := range splitQueryWords(query) {
			if wordInInput(w, input) {
				return false
			}
		}
		return true
	case "pick":
		for _, w := range splitQueryWords(query) {
			if wordInInput(w, input) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// splitQueryWords splits on commas, honoring `\c` as a literal comma, then
// decodes the output escapes per word.
func splitQueryWords(query string) []string {
	const marker = "\x00"
	masked := strings.ReplaceAll(query, `\c`, marker)
	var out []string
	for _, part := range strings.Split(masked, ",") {
		w := strings.TrimSpace(strings.ReplaceAll(part, marker, ","))
		if w == "" {
			continue
		}
		out = append(out, decodeEscapes(w))
	}
	return out
}

func wordInInput(word, input string) bool {
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(input)
}

func secsToDuration(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}
