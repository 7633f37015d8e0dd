/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package history

import (
	"encoding/json"
	"time"

	"forktale/internal/engine"
	"forktale/internal/eval"
)

// Tracker attaches to the engine's hooks and snapshots the variable store on
// every fork entry.
type Tracker struct {
	engine.NopHooks
	interp *engine.Interpreter
	mgr    *Manager
	now    func() time.Time
}

// NewTracker builds a Tracker over interp pushing into mgr.
func NewTracker(interp *engine.Interpreter, mgr *Manager) *Tracker {
	return &Tracker{interp: interp, mgr: mgr, now: time.Now}
}

// Manager exposes the underlying snapshot store.
func (t *Tracker) Manager() *Manager { return t.mgr }

// ForkEntered snapshots the variable store as JSON.
func (t *Tracker) ForkEntered(name string) {
	vars := make(map[string]string)
	t.interp.Vars().Each(func(n string, v eval.Value) {
		vars[n] = v.String()
	})
	blob, err := json.Marshal(vars)
	if err != nil {
		return
	}
	t.mgr.Push(Snapshot{Fork: name, Blob: blob, TS: t.now()})
}
