// Package gesture turns per-frame hand landmarks into swipe directions and
// a pinch flag.
package gesture

import (
	"math"

	"github.com/ayusman/gesturesnake/internal/control"
	"github.com/ayusman/gesturesnake/internal/detector"
)

// Config holds the classifier thresholds.
type Config struct {
	// MotionThreshold is the minimum wrist displacement between two frames,
	// in normalized coordinates, that counts as a swipe.
	MotionThreshold float64 `mapstructure:"motion_threshold"`

	// CooldownFrames is the number of frames after a direction change during
	// which no other direction can be committed.
	CooldownFrames int `mapstructure:"cooldown_frames"`

	// PinchThreshold is the thumb-tip to index-tip distance below which the
	// hand is pinching.
	PinchThreshold float64 `mapstructure:"pinch_threshold"`
}

// DefaultConfig returns the thresholds the game was tuned with.
func DefaultConfig() Config {
	return Config{
		MotionThreshold: 0.05,
		CooldownFrames:  10,
		PinchThreshold:  0.05,
	}
}

// Result is the classifier output for one frame.
type Result struct {
	Direction control.Direction // last committed direction, None until the first swipe
	Pinching  bool
}

// State is a copy of the classifier's internal state.
type State struct {
	Previous  *detector.Keypoint // wrist position seen on the last frame with a hand
	Direction control.Direction
	Cooldown  int
}

// Classifier tracks wrist motion across frames. It is not safe for
// concurrent use; the observation loop owns it.
type Classifier struct {
	config    Config
	previous  detector.Keypoint
	hasPrev   bool
	direction control.Direction
	cooldown  int
}

// NewClassifier creates a Classifier. Non-positive thresholds fall back to
// the defaults; a negative cooldown is treated as zero.
func NewClassifier(config Config) *Classifier {
	def := DefaultConfig()
	if config.MotionThreshold <= 0 {
		config.MotionThreshold = def.MotionThreshold
	}
	if config.PinchThreshold <= 0 {
		config.PinchThreshold = def.PinchThreshold
	}
	if config.CooldownFrames < 0 {
		config.CooldownFrames = 0
	}
	return &Classifier{config: config}
}

// Classify processes one frame. hand is nil when no hand was observed.
//
// The returned direction is the last committed one, reported on every frame
// until a new swipe supersedes it.
func (c *Classifier) Classify(hand *detector.Hand) Result {
	if hand == nil {
		c.tick()
		return Result{Direction: c.direction}
	}

	wrist := hand.Wrist()

	if c.hasPrev && c.cooldown == 0 {
		if d := c.swipe(wrist.Sub(c.previous)); d != control.None && d != c.direction {
			c.direction = d
			c.cooldown = c.config.CooldownFrames
		}
	}

	c.previous = wrist
	c.hasPrev = true

	pinching := detector.Distance(hand.ThumbTip(), hand.IndexTip()) < c.config.PinchThreshold

	c.tick()

	return Result{Direction: c.direction, Pinching: pinching}
}

// swipe maps a wrist displacement to a direction, or None when the motion is
// below threshold. The dominant axis wins; ties go vertical.
func (c *Classifier) swipe(m detector.Keypoint) control.Direction {
	if m.Norm() <= c.config.MotionThreshold {
		return control.None
	}

	if math.Abs(m.X) > math.Abs(m.Y) {
		if m.X > 0 {
			return control.Right
		}
		return control.Left
	}

	// Screen space: y grows downward.
	if m.Y > 0 {
		return control.Down
	}
	return control.Up
}

func (c *Classifier) tick() {
	if c.cooldown > 0 {
		c.cooldown--
	}
}

// Reset discards motion history, the committed direction and the cooldown.
func (c *Classifier) Reset() {
	c.previous = detector.Keypoint{}
	c.hasPrev = false
	c.direction = control.None
	c.cooldown = 0
}

// State returns a snapshot of the classifier state.
func (c *Classifier) State() State {
	s := State{
		Direction: c.direction,
		Cooldown:  c.cooldown,
	}
	if c.hasPrev {
		p := c.previous
		s.Previous = &p
	}
	return s
}

// Config returns the effective configuration.
func (c *Classifier) Config() Config {
	return c.config
}
