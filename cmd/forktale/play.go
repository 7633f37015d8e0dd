/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"forktale/internal/assets"
	"forktale/internal/audio"
	"forktale/internal/config"
	"forktale/internal/console"
	"forktale/internal/crash"
	"forktale/internal/engine"
	"forktale/internal/history"
	applog "forktale/internal/log"
	"forktale/internal/telemetry"
	"forktale/internal/theme"
	"forktale/internal/transcript"
)

// runPlay drives the terminal console: one goroutine reads stdin, everything
// else (timers included) is serialized onto the engine loop.
//
// Input conventions: a bare number clicks that option, `/say <phrase>` feeds
// the speech recognizer, `/quit` exits, anything else submits the textbox
// while input is enabled (otherwise a hint is printed).
func runPlay(gameFile, fork string, cfg config.AppConfig, transcriptPath string) error {
	l := applog.WithComponent("play")
	sess := &crash.Session{GameFile: gameFile}
	defer func() { crash.Recover(sess) }()

	loop := engine.NewLoop()
	defer loop.Close()

	cons := console.NewTerm(os.Stdout)
	speech := console.NewTermSpeech(os.Stdout)
	interp := engine.New(engine.Options{
		Console: cons,
		Speech:  speech,
		Sched:   engine.NewTimerScheduler(loop.Post),
		Sound:   audio.NewPlayer(),
		Images:  assets.CheckImage,
		Strict:  cfg.Engine.StrictErrors,
		Print:   cfg.Engine.PrintErrors,
	})

	tracker := history.NewTracker(interp, history.NewManager(history.Config{
		MaxBytes:    4 * 1024 * 1024,
		MaxPerFork:  20,
		MinInterval: 300 * time.Millisecond,
	}))
	interp.AddHooks(tracker)

	if transcriptPath != "" {
		rec, err := transcript.Open(transcriptPath)
		if err != nil {
			return err
		}
		defer func() { _ = rec.Close() }()
		interp.AddHooks(rec)
	}

	if th, err := theme.Load(cfg.General.Theme); err != nil {
		l.Warn("theme not loaded", slog.Any("err", err))
	} else {
		th.Apply(cons)
	}

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	loop.Post(func() {
		if err := interp.LoadFile(gameFile, fork); err != nil {
			l.Error("load failed", slog.Any("err", err))
			fmt.Println("Error:", err)
		}
		sess.CurrentFork = interp.CurrentFork()
		if g := interp.Game(); g != nil {
			telemetry.Event("game_loaded", map[string]any{"forks": g.Forks.Len()})
		}
	})

	for {
		select {
		case fn := <-loop.C:
			fn()
			sess.CurrentFork = interp.CurrentFork()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if done := handleInput(cons, speech, line); done {
				return nil
			}
			sess.CurrentFork = interp.CurrentFork()
		}
	}
}

func handleInput(cons *console.TermConsole, speech *console.TermSpeech, line string) (done bool) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return false
	case line == "/quit":
		return true
	case strings.HasPrefix(line, "/say "):
		phrase := strings.TrimSpace(strings.TrimPrefix(line, "/say"))
		if !speech.Hear(phrase) {
			fmt.Println("(not recognized)")
		}
		return false
	}
	if n, err := strconv.Atoi(line); err == nil {
		if !cons.ClickOption(n) {
			fmt.Printf("(no option %d)\n", n)
		}
		return false
	}
	if cons.InputEnabled() {
		cons.Submit(line)
	} else {
		fmt.Println("(input is disabled here; pick an option by number)")
	}
	return false
}
