/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package engine interprets parsed game files: it walks a fork's conditional
// tree, emits output and options to the console, mutates the variable store,
// and schedules timers and submit handlers for deferred blocks.
//
// Everything runs on one logical event loop. The interpreter must not be
// re-entered from another goroutine; timers are delivered through the
// Scheduler's dispatch, and console events must be raised on that same loop,
// so both serialize with evaluation.
package engine

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"forktale/internal/console"
	"forktale/internal/eval"
	applog "forktale/internal/log"
	"forktale/internal/script"
)

// SoundPlayer plays an audio file once, asynchronously.
type SoundPlayer interface {
	Play(path string) error
}

// ImageChecker validates that a path is a readable, decodable image.
type ImageChecker func(path string) error

// Options configures a new Interpreter.
type Options struct {
	Console console.Console
	Speech  console.Speech // nil means no speech I/O
	Sched   Scheduler
	Sound   SoundPlayer  // nil disables snd playback
	Images  ImageChecker // nil skips decode validation
	Strict  bool         // strict-errors flag
	Print   bool         // print-errors flag
}

// Interpreter owns the play session state: the fork table, the variable
// store, live timers, submit handlers, and presentation preferences.
type Interpreter struct {
	log    *slog.Logger
	cons   console.Console
	speech console.Speech
	sched  Scheduler
	sound  SoundPlayer
	images ImageChecker
	ev     *eval.Evaluator
	hooks  []Hooks

	strict      bool
	printErrors bool

	// OnError receives faults that neither strict suppression nor the
	// print-errors boundary consumed. Defaults to logging.
	OnError func(error)

	game        *script.Game
	vars        *VarStore
	currentFork string
	stopEval    bool
	optionCount int
	timers      []TimerHandle
	subs        []console.Subscription
	prefs       Prefs
	curColor    string
}

// New builds an Interpreter. The console and scheduler are required.
func New(opts Options) *Interpreter {
	sp := opts.Speech
	if sp == nil {
		sp = console.NopSpeech{}
	}
	i := &Interpreter{
		log:         applog.WithComponent("engine"),
		cons:        opts.Console,
		speech:      sp,
		sched:       opts.Sched,
		sound:       opts.Sound,
		images:      opts.Images,
		ev:          eval.New(),
		strict:      opts.Strict,
		printErrors: opts.Print,
		vars:        NewVarStore(),
		prefs:       DefaultPrefs(),
	}
	i.ev.IncludeUnknowns = true
	i.ev.UnknownDefault = eval.Bool(false)
	i.OnError = func(err error) { i.log.Error("unhandled fault", slog.Any("err", err)) }
	return i
}

// AddHooks attaches an observer.
func (i *Interpreter) AddHooks(h Hooks) { i.hooks = append(i.hooks, h) }

// Vars exposes the variable store (read by the inspector and tests).
func (i *Interpreter) Vars() *VarStore { return i.vars }

// CurrentFork returns the normalized name of the fork in progress.
func (i *Interpreter) CurrentFork() string { return i.currentFork }

// Game returns the loaded game, nil before the first successful load.
func (i *Interpreter) Game() *script.Game { return i.game }

// Prefs returns the active presentation preferences.
func (i *Interpreter) Prefs() Prefs { return i.prefs }

// LoadFile parses path and enters initialFork (or the file's first fork when
// empty). The variable store is cleared: a fresh file load starts a fresh
// session. Faults follow the strict/print flags.
func (i *Interpreter) LoadFile(path, initialFork string) error {
	return i.guard(func() error { return i.loadFile(path, initialFork, true) })
}

func (i *Interpreter) loadFile(path, initialFork string, clearVars bool) error {
	g, err := script.Parse(path)
	if err != nil {
		if i.strict {
			return err
		}
		i.log.Warn("parse failed, empty fork table", slog.String("path", path), slog.Any("err", err))
		i.game = &script.Game{Path: path, Forks: script.NewForkTable()}
		return nil
	}
	if clearVars {
		i.vars.Clear()
	}
	i.game = g
	i.log.Info("game loaded", slog.String("path", path), slog.Int("forks", g.Forks.Len()))
	for _, h := range i.hooks {
		h.FileLoaded(path, g.Forks.Len())
	}
	i.ProcessHeaderOptions(g.Header)
	return i.SetEntries(g.Forks, initialFork)
}

// SetEntries installs a fork table and enters the initial fork (the first
// fork when initial is empty).
func (i *Interpreter) SetEntries(forks *script.ForkTable, initial string) error {
	if i.game == nil {
		i.game = &script.Game{Forks: forks}
	} else {
		i.game.Forks = forks
	}
	name := script.NormalizeName(initial)
	if name == "" {
		first, ok := forks.First()
		if !ok {
			return nil // empty table, nothing to enter
		}
		name = first
	}
	return i.SetFork(name)
}

// Restart clears the variable store and re-enters the first fork.
func (i *Interpreter) Restart() error {
	if i.game == nil {
		return nil
	}
	first, ok := i.game.Forks.First()
	if !ok {
		return nil
	}
	i.vars.Clear()
	return i.SetFork(first)
}

// SetFork atomically tears down the previous evaluation and walks the named
// fork: clear the screen, disable input, stop speech, drop timers and submit
// handlers, then pre-order-process the tree. On normal completion the fork is
// marked visited and the auto-restart option is synthesized if no option was
// emitted.
func (i *Interpreter) SetFork(name string) error {
	name = script.NormalizeName(name)
	i.clearForFork(name)

	if i.game == nil {
		return &InterpretError{Kind: FaultUnknownFork, Fork: name, Msg: "no game loaded"}
	}
	node, ok := i.game.Forks.Get(name)
	if !ok {
		err := &InterpretError{Kind: FaultUnknownFork, Fork: name}
		if i.strict {
			return err
		}
		i.log.Warn("fork not found", slog.String("fork", name))
		return nil
	}
	for _, h := range i.hooks {
		h.ForkEntered(name)
	}
	if err := i.PreorderProcess(node, ""); err != nil {
		return err
	}
	if !i.stopEval {
		i.markVisited(name)
		i.maybeAutoOption()
	}
	return nil
}

// clearForFork is the atomic teardown performed on every fork (re)entry.
func (i *Interpreter) clearForFork(name string) {
	i.cons.Clear()
	i.cons.SetInputEnabled(false)
	i.speech.UnloadAll()
	i.speech.ListenStop()
	i.speech.SpeakStop()
	for _, t := range i.timers {
		t.Stop()
	}
	i.timers = nil
	for _, s := range i.subs {
		s.Cancel()
	}
	i.subs = nil
	i.stopEval = false
	i.optionCount = 0
	i.curColor = ""
	i.currentFork = name
}

func (i *Interpreter) markVisited(name string) {
	i.vars.Set("visited"+name, eval.Bool(true))
}

func (i *Interpreter) maybeAutoOption() {
	if i.optionCount > 0 || i.prefs.OptionDefaultDisable {
		return
	}
	label := i.prefs.OptionDefaultText
	i.cons.AddOption(i.optionRun(label), func() {
		i.guardVoid(i.Restart)
	})
}

// PreorderProcess walks node's subtree in pre-order. textboxText is empty on
// the initial walk; deferred re-entry (a matching submit) passes the
// submitted text through so nested `if text` blocks can check it.
func (i *Interpreter) PreorderProcess(node *script.ParseNode, textboxText string) error {
	if i.stopEval {
		return nil
	}
	proceed, err := i.ProcessIf(node, textboxText)
	if err != nil {
		return err
	}
	if !proceed {
		return nil
	}
	if err := i.ProcessText(node); err != nil {
		return err
	}
	for _, c := range node.Children {
		if i.stopEval {
			return nil
		}
		if err := i.PreorderProcess(c, textboxText); err != nil {
			return err
		}
	}
	return nil
}

// ProcessIf dispatches a node's condition. It returns false when the subtree
// is deferred (timer, speech grammar, submit handler, typed output) or the
// condition is not met.
func (i *Interpreter) ProcessIf(node *script.ParseNode, textboxText string) (bool, error) {
	cond := strings.TrimSpace(node.Condition)
	if cond == "" {
		return true, nil
	}
	rest := strings.TrimSpace(strings.TrimPrefix(cond, "if"))
	if rest == "" {
		return true, nil
	}
	words := strings.Fields(rest)

	switch {
	case len(words) >= 3 && words[0] == "timer" && words[1] == "is":
		return false, i.condTimer(node, words[2])
	case words[0] == "speak":
		phrase := strings.TrimSpace(strings.TrimPrefix(rest, "speak"))
		i.condSpeak(node, phrase)
		return false, nil
	case words[0] == "text" && len(words) >= 2:
		return false, i.condText(node, words[1], rest, textboxText)
	case words[0] == "type" || words[0] == "type*" || words[0] == "type**" || words[0] == "type***":
		return false, i.condType(node, rest)
	default:
		ok, err := i.evalCondition(rest)
		if err != nil {
			if i.strict {
				return false, err
			}
			i.log.Warn("condition skipped", slog.String("cond", rest), slog.Any("err", err))
			return false, nil
		}
		return ok, nil
	}
}

// evalCondition evaluates a boolean expression with the variable store and
// the synthetic `visited` identifier registered.
func (i *Interpreter) evalCondition(expr string) (bool, error) {
	i.registerIdents()
	v, err := i.ev.Evaluate(expr)
	if err != nil {
		return false, &InterpretError{Kind: FaultEvaluation, Fork: i.currentFork, Msg: err.Error()}
	}
	b, ok := v.AsBool()
	if !ok {
		return false, &InterpretError{
			Kind: FaultNonBooleanCondition,
			Fork: i.currentFork,
			Msg:  fmt.Sprintf("%q yields %s", expr, v.String()),
		}
	}
	return b, nil
}

// registerIdents resets the evaluator and rebinds every variable plus the
// synthetic `visited` flag for the current fork.
func (i *Interpreter) registerIdents() {
	i.ev.Reset()
	i.vars.Each(func(name string, v eval.Value) {
		i.ev.Register(name, v)
	})
	visited := i.vars.Has("visited" + i.currentFork)
	i.ev.Register("visited", eval.Bool(visited))
}

// condTimer handles `if timer is <seconds>`: a one-shot deferral of the
// node's text and subtree.
func (i *Interpreter) condTimer(node *script.ParseNode, secondsArg string) error {
	secs, err := strconv.ParseFloat(secondsArg, 64)
	if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) || secs <= 0 {
		return i.fault(&InterpretError{
			Kind: FaultMalformedCommand,
			Fork: i.currentFork,
			Msg:  fmt.Sprintf("timer interval %q must be a positive number", secondsArg),
		})
	}
	var handle TimerHandle
	handle = i.sched.AfterFunc(secsToDuration(secs), func() {
		handle.Stop()
		i.reenter(node, "")
	})
	i.timers = append(i.timers, handle)
	return nil
}

// condSpeak registers a recognition grammar whose action re-enters the node.
func (i *Interpreter) condSpeak(node *script.ParseNode, phrase string) {
	i.speech.Listen(phrase, func() {
		i.reenter(node, "")
	})
	i.speech.ListenStart()
}

// condText handles `if text is|!is|has|!has|pick <query>`. During the
// initial walk it arms a submit handler; on re-entry with submitted text it
// checks synchronously.
func (i *Interpreter) condText(node *script.ParseNode, op, rest, textboxText string) error {
	switch op {
	case "is", "!is", "has", "!has", "pick":
	default:
		return i.fault(&InterpretError{
			Kind: FaultMalformedCommand,
			Fork: i.currentFork,
			Msg:  fmt.Sprintf("unknown text operator %q", op),
		})
	}
	after := strings.TrimSpace(strings.TrimPrefix(rest, "text"))
	query := strings.TrimSpace(strings.TrimPrefix(after, op))
	i.cons.SetInputEnabled(true)

	if textboxText != "" {
		if matchText(op, query, textboxText) {
			if err := i.ProcessText(node); err != nil {
				return err
			}
			for _, c := range node.Children {
				if i.stopEval {
					break
				}
				if err := i.PreorderProcess(c, textboxText); err != nil {
					return err
				}
			}
		}
		return nil
	}

	var sub console.Subscription
	sub = i.cons.OnSubmit(func(text string) {
		if !matchText(op, query, text) {
			return
		}
		sub.Cancel()
		i.reenter(node, text)
	})
	i.subs = append(i.subs, sub)
	return nil
}

// reenter runs a deferred node: clear the stop flag for this callback stack,
// process the node's text, then recurse into its children.
func (i *Interpreter) reenter(node *script.ParseNode, textboxText string) {
	i.stopEval = false
	i.guardVoid(func() error {
		if err := i.ProcessText(node); err != nil {
			return err
		}
		for _, c := range node.Children {
			if i.stopEval {
				return nil
			}
			if err := i.PreorderProcess(c, textboxText); err != nil {
				return err
			}
		}
		return nil
	})
}

// fault applies strict-mode policy to err: propagate when strict, log and
// swallow otherwise.
func (i *Interpreter) fault(err *InterpretError) error {
	if i.strict {
		return err
	}
	i.log.Warn("fault suppressed", slog.Any("err", err))
	return nil
}

// guard is the print-errors boundary installed around fork loads and
// deferred re-entries: it catches both error kinds, clears the screen, shows
// the message in the diagnostic color, and restores input.
func (i *Interpreter) guard(fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	if !i.printErrors {
		return err
	}
	i.showError(err)
	return nil
}

func (i *Interpreter) guardVoid(fn func() error) {
	if err := i.guard(fn); err != nil {
		i.OnError(err)
	}
}

// showError clears the screen and prints the fault in yellow, then offers a
// restart option and re-enables input.
func (i *Interpreter) showError(err error) {
	i.log.Error("fault displayed", slog.Any("err", err))
	i.cons.Clear()
	i.cons.AddText(console.Run{Text: err.Error() + "\n", Color: "ffff00"})
	if i.game != nil && i.game.Forks.Len() > 0 {
		i.cons.AddOption(i.optionRun(i.prefs.OptionDefaultText), func() {
			i.guardVoid(i.Restart)
		})
	}
	i.cons.SetInputEnabled(true)
}

func (i *Interpreter) optionRun(label string) console.Run {
	return console.Run{
		Text:  label,
		Color: i.prefs.OptionColor,
		Font:  i.prefs.OptionFont,
		Size:  i.prefs.OptionFontSize,
	}
}
