/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package audio plays `snd` resources through the beep speaker.
package audio

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"

	applog "forktale/internal/log"
)

// Player decodes and plays wav/mp3 files asynchronously. The speaker device
// is initialized once with the sample rate of the first file; later streams
// are resampled onto it.
type Player struct {
	log *slog.Logger

	mu   sync.Mutex
	rate beep.SampleRate
}

// NewPlayer returns an idle player; the audio device opens on first Play.
func NewPlayer() *Player {
	return &Player{log: applog.WithComponent("audio")}
}

// Play starts asynchronous one-shot playback of the file at path.
func (p *Player) Play(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		_ = f.Close()
		return fmt.Errorf("unsupported audio format %q", filepath.Ext(path))
	}
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("decode %s: %w", path, err)
	}

	p.mu.Lock()
	if p.rate == 0 {
		p.rate = format.SampleRate
		if err := speaker.Init(p.rate, p.rate.N(time.Second/10)); err != nil {
			p.rate = 0
			p.mu.Unlock()
			_ = streamer.Close()
			return fmt.Errorf("open speaker: %w", err)
		}
	}
	rate := p.rate
	p.mu.Unlock()

	var stream beep.Streamer = streamer
	if format.SampleRate != rate {
		stream = beep.Resample(4, format.SampleRate, rate, streamer)
	}
	p.log.Debug("playing", slog.String("path", path))
	speaker.Play(beep.Seq(stream, beep.Callback(func() {
		_ = streamer.Close()
	})))
	return nil
}
