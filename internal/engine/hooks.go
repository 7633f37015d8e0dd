/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package engine

import "forktale/internal/console"

// Hooks observes engine activity. History, transcript recording, and
// telemetry attach through this; the interpreter does not know about them.
// All callbacks run on the engine's event loop and must not block.
type Hooks interface {
	FileLoaded(path string, forks int)
	ForkEntered(name string)
	TextEmitted(r console.Run)
	OptionEmitted(label, target string)
	Navigated(from, to string)
}

// NopHooks implements Hooks with no-ops, for embedding.
type NopHooks struct{}

func (NopHooks) FileLoaded(string, int)      {}
func (NopHooks) ForkEntered(string)          {}
func (NopHooks) TextEmitted(console.Run)     {}
func (NopHooks) OptionEmitted(string, string) {}
func (NopHooks) Navigated(string, string)    {}
