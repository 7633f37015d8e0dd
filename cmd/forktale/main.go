/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"forktale/internal/config"
	"forktale/internal/export"
	applog "forktale/internal/log"
	"forktale/internal/script"
	"forktale/internal/ui"
	"forktale/internal/version"
)

const defaultGameFile = "game.txt"

func usage() {
	fmt.Println("Forktale — scripted interactive-fiction engine")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  forktale [gameFile] [@forkName]              Play in the terminal (default game.txt)")
	fmt.Println("  forktale play [gameFile] [@forkName]         Same, explicit")
	fmt.Println("  forktale ui [gameFile] [@forkName]           Launch desktop UI (build with -tags fyne)")
	fmt.Println("  forktale check <gameFile>                    Strict-parse a file and report errors")
	fmt.Println("  forktale export <gameFile> <out.pdf>         Export a readable PDF listing")
	fmt.Println("  forktale version|-v|--version                Show version")
	fmt.Println()
	fmt.Println("Flags: --transcript <db>   record the session into a SQLite transcript")
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Defaults()
	}
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("cli")

	args, transcriptPath := extractTranscriptFlag(os.Args[1:])
	l.Debug("start", slog.Int("args", len(args)))

	if len(args) > 0 {
		switch args[0] {
		case "version", "--version", "-v":
			fmt.Println("Forktale — scripted interactive-fiction engine")
			fmt.Println(version.String())
			return
		case "help", "--help", "-h":
			usage()
			return
		case "check":
			if len(args) < 2 {
				fmt.Println("check requires <gameFile>")
				usage()
				os.Exit(2)
			}
			if err := runCheck(args[1]); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		case "export":
			if len(args) < 3 {
				fmt.Println("export requires <gameFile> and <out.pdf>")
				usage()
				os.Exit(2)
			}
			g, err := script.Parse(args[1])
			if err != nil {
				l.Error("parse failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			if err := export.WriteGamePDF(g, args[2], export.PDFOptions{}); err != nil {
				l.Error("export failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Println("Wrote", args[2])
			return
		case "ui":
			gameFile, fork := gameArgs(args[1:])
			if err := ui.Run(gameFile, fork, cfg); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		case "play":
			args = args[1:]
		}
	}

	gameFile, fork := gameArgs(args)
	if err := runPlay(gameFile, fork, cfg, transcriptPath); err != nil {
		l.Error("play failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

// gameArgs resolves the [gameFile] [@forkName] tail: the @ prefix marks a
// fork name, everything else is the file.
func gameArgs(args []string) (gameFile, fork string) {
	gameFile = defaultGameFile
	for _, a := range args {
		if strings.HasPrefix(a, "@") {
			fork = script.NormalizeName(strings.TrimPrefix(a, "@"))
			continue
		}
		gameFile = a
	}
	return gameFile, fork
}

// extractTranscriptFlag strips `--transcript <path>` from the argument list.
func extractTranscriptFlag(args []string) ([]string, string) {
	var out []string
	path := ""
	for k := 0; k < len(args); k++ {
		if args[k] == "--transcript" && k+1 < len(args) {
			path = args[k+1]
			k++
			continue
		}
		out = append(out, args[k])
	}
	return out, path
}

// runCheck strict-parses a file and prints a summary.
func runCheck(path string) error {
	g, err := script.Parse(path)
	if err != nil {
		return err
	}
	fmt.Printf("OK: %d forks\n", g.Forks.Len())
	for _, name := range g.Forks.Names() {
		fmt.Println("  @" + name)
	}
	return nil
}
