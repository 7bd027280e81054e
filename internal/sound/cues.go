package sound

import "github.com/ayusman/gesturesnake/internal/game"

// Cues turns snapshot changes into sounds: a score increase plays the eat
// tone, entering game over plays the end tune, and a new round plays the
// restart chirp.
type Cues struct {
	player Player
	prev   game.Snapshot
	seen   bool
}

// NewCues plays through p.
func NewCues(p Player) *Cues {
	return &Cues{player: p}
}

// Observe compares s with the previous snapshot.
func (c *Cues) Observe(s game.Snapshot) {
	defer func() { c.prev, c.seen = s, true }()

	if !c.seen {
		return
	}

	switch {
	case s.RoundID != c.prev.RoundID:
		c.player.Play(CueRestart)
	case s.GameOver && !c.prev.GameOver:
		c.player.Play(CueGameOver)
	case s.Score > c.prev.Score:
		c.player.Play(CueEat)
	}
}
