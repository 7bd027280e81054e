package game

import (
	"slices"

	"github.com/ayusman/gesturesnake/internal/control"
)

// Snapshot is a read-only copy of the engine state for rendering.
type Snapshot struct {
	RoundID    string
	Round      int
	GridWidth  int
	GridHeight int
	CellSize   int
	Snake      []Cell // head first
	Heading    control.Direction
	Fruit      Cell
	Score      int
	GameOver   bool
	Boost      bool
	Particles  []Particle
	Ticks      uint64
}

// Head returns the head cell.
func (s Snapshot) Head() Cell {
	if len(s.Snake) == 0 {
		return Cell{}
	}
	return s.Snake[0]
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		RoundID:    e.roundID,
		Round:      e.rounds,
		GridWidth:  e.config.GridWidth(),
		GridHeight: e.config.GridHeight(),
		CellSize:   e.config.CellSize,
		Snake:      slices.Clone(e.snake),
		Heading:    e.heading,
		Fruit:      e.fruit,
		Score:      e.score,
		GameOver:   e.state == StateGameOver,
		Boost:      e.boost,
		Particles:  slices.Clone(e.particles),
		Ticks:      e.ticks,
	}
}
