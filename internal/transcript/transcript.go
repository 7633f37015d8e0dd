/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package transcript records a play session into an embedded SQLite database
// for authoring and debugging. Recording is opt-in via the --transcript flag;
// without it the engine persists nothing across processes.
package transcript

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"forktale/internal/console"
	"forktale/internal/engine"
	applog "forktale/internal/log"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// schemaVersion tracks the transcript schema. Bump on breaking changes.
const schemaVersion = 1

// Recorder appends play events to a SQLite file. It implements engine.Hooks.
type Recorder struct {
	engine.NopHooks
	log *slog.Logger
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the transcript database at path and ensures the
// schema exists. Use ":memory:" for an ephemeral store.
func Open(path string) (*Recorder, error) {
	l := applog.WithOperation(applog.WithComponent("transcript"), "open").With(slog.String("path", path))
	if path == "" {
		return nil, errors.New("transcript path is required")
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts TEXT NOT NULL,
			kind TEXT NOT NULL,
			fork TEXT NOT NULL,
			payload TEXT NOT NULL
		)`,
		fmt.Sprintf(`INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', '%d')`, schemaVersion),
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			_ = db.Close()
			l.Error("schema init failed", slog.Any("err", err))
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}
	l.Info("transcript opened")
	return &Recorder{log: applog.WithComponent("transcript"), db: db, now: time.Now}, nil
}

// Close flushes and closes the database.
func (r *Recorder) Close() error { return r.db.Close() }

func (r *Recorder) record(kind, fork, payload string) {
	_, err := r.db.Exec(
		`INSERT INTO events (ts, kind, fork, payload) VALUES (?, ?, ?, ?)`,
		r.now().UTC().Format(time.RFC3339Nano), kind, fork, payload,
	)
	if err != nil {
		r.log.Warn("event dropped", slog.String("kind", kind), slog.Any("err", err))
	}
}

// FileLoaded implements engine.Hooks.
func (r *Recorder) FileLoaded(path string, forks int) {
	r.record("file_loaded", "", fmt.Sprintf("%s (%d forks)", path, forks))
}

// ForkEntered implements engine.Hooks.
func (r *Recorder) ForkEntered(name string) {
	r.record("fork_entered", name, "")
}

// TextEmitted implements engine.Hooks.
func (r *Recorder) TextEmitted(run console.Run) {
	r.record("text", "", run.Text)
}

// OptionEmitted implements engine.Hooks.
func (r *Recorder) OptionEmitted(label, target string) {
	r.record("option", target, label)
}

// Navigated implements engine.Hooks.
func (r *Recorder) Navigated(from, to string) {
	r.record("navigate", from, to)
}

// EventCount reports the number of recorded events, for diagnostics.
func (r *Recorder) EventCount() (int, error) {
	row := r.db.QueryRow(`SELECT COUNT(*) FROM events`)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Events returns the (kind, fork, payload) triples in insertion order.
func (r *Recorder) Events() ([][3]string, error) {
	rows, err := r.db.Query(`SELECT kind, fork, payload FROM events ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out [][3]string
	for rows.Next() {
		var kind, fork, payload string
		if err := rows.Scan(&kind, &fork, &payload); err != nil {
			return nil, err
		}
		out = append(out, [3]string{kind, fork, payload})
	}
	return out, rows.Err()
}
