/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package engine

import (
	"sync"
	"time"
)

// TimerHandle is an owned handle to a scheduled callback. Stop cancels a
// pending fire; stopping twice is a no-op.
type TimerHandle interface {
	Stop()
}

// Scheduler delivers callbacks onto the engine's single logical event loop.
// The interpreter never blocks; everything deferred goes through here.
type Scheduler interface {
	// AfterFunc runs fn on the event loop after d.
	AfterFunc(d time.Duration, fn func()) TimerHandle
}

// Loop is a minimal serial event loop: callbacks posted from any goroutine
// run one at a time on whichever goroutine drains C.
type Loop struct {
	C      chan func()
	closed sync.Once
	done   chan struct{}
}

// NewLoop returns a loop with a buffered callback channel.
func NewLoop() *Loop {
	return &Loop{C: make(chan func(), 64), done: make(chan struct{})}
}

// Post enqueues fn; it is dropped if the loop has shut down.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.done:
		return
	default:
	}
	select {
	case <-l.done:
	case l.C <- fn:
	}
}

// Close stops accepting callbacks.
func (l *Loop) Close() { l.closed.Do(func() { close(l.done) }) }

// TimerScheduler schedules with real timers, posting fires through dispatch
// so they land on the event loop.
type TimerScheduler struct {
	dispatch func(func())
}

// NewTimerScheduler returns a Scheduler delivering through dispatch.
func NewTimerScheduler(dispatch func(func())) *TimerScheduler {
	return &TimerScheduler{dispatch: dispatch}
}

type realTimer struct {
	t       *time.Timer
	stopped bool
}

func (r *realTimer) Stop() {
	if !r.stopped {
		r.stopped = true
		r.t.Stop()
	}
}

func (s *TimerScheduler) AfterFunc(d time.Duration, fn func()) TimerHandle {
	r := &realTimer{}
	r.t = time.AfterFunc(d, func() {
		s.dispatch(func() {
			if !r.stopped {
				fn()
			}
		})
	})
	return r
}
