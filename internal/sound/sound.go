// Package sound plays short tones for game events through the beep
// speaker. Audio is optional: if the device cannot be opened the player
// stays silent.
package sound

import (
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"go.uber.org/zap"
)

// SampleRate is the output rate of every cue.
const SampleRate = beep.SampleRate(44100)

// Cue is a game event with a sound.
type Cue int

const (
	CueEat Cue = iota
	CueGameOver
	CueRestart
)

func (c Cue) String() string {
	switch c {
	case CueEat:
		return "eat"
	case CueGameOver:
		return "game_over"
	case CueRestart:
		return "restart"
	}
	return "unknown"
}

type note struct {
	freq float64
	dur  time.Duration
}

var cueNotes = map[Cue][]note{
	CueEat:      {{880, 50 * time.Millisecond}},
	CueGameOver: {{330, 120 * time.Millisecond}, {220, 120 * time.Millisecond}, {165, 240 * time.Millisecond}},
	CueRestart:  {{440, 60 * time.Millisecond}, {660, 60 * time.Millisecond}},
}

// Config enables audio and sets its level.
type Config struct {
	Enabled bool    `mapstructure:"enabled"`
	Volume  float64 `mapstructure:"volume"` // 0..1
}

// DefaultConfig enables audio at half volume.
func DefaultConfig() Config {
	return Config{Enabled: true, Volume: 0.5}
}

// Player plays cues.
type Player interface {
	Play(Cue)
}

// Speaker plays cues on the system audio device.
type Speaker struct {
	volume float64
	ready  bool
	muted  atomic.Bool
}

// NewSpeaker opens the audio device. Failure is logged and yields a silent
// speaker.
func NewSpeaker(cfg Config, log *zap.SugaredLogger) *Speaker {
	s := &Speaker{volume: clamp(cfg.Volume)}
	if !cfg.Enabled {
		return s
	}

	if err := speaker.Init(SampleRate, SampleRate.N(time.Second/10)); err != nil {
		// Non-fatal, game can run without sound
		log.Warnw("audio initialization failed", "error", err)
		return s
	}
	s.ready = true
	return s
}

// Ready reports whether the audio device is open.
func (s *Speaker) Ready() bool { return s.ready }

// SetMuted silences or restores cues without closing the device.
func (s *Speaker) SetMuted(muted bool) { s.muted.Store(muted) }

// Muted reports whether cues are silenced.
func (s *Speaker) Muted() bool { return s.muted.Load() }

// Play starts c without blocking.
func (s *Speaker) Play(c Cue) {
	if !s.ready || s.muted.Load() {
		return
	}
	if st := Stream(c, s.volume); st != nil {
		speaker.Play(st)
	}
}

// Close releases the audio device.
func (s *Speaker) Close() {
	if s.ready {
		speaker.Close()
		s.ready = false
	}
}

// Stream builds the streamer for c at the given volume.
func Stream(c Cue, volume float64) beep.Streamer {
	notes, ok := cueNotes[c]
	if !ok {
		return nil
	}

	parts := make([]beep.Streamer, 0, len(notes))
	for _, n := range notes {
		sine, err := generators.SineTone(SampleRate, n.freq)
		if err != nil {
			continue
		}
		parts = append(parts, beep.Take(SampleRate.N(n.dur), sine))
	}

	// Gain scales by 1+Gain.
	return &effects.Gain{Streamer: beep.Seq(parts...), Gain: clamp(volume) - 1}
}

// Length returns the number of samples c plays for.
func Length(c Cue) int {
	n := 0
	for _, note := range cueNotes[c] {
		n += SampleRate.N(note.dur)
	}
	return n
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
