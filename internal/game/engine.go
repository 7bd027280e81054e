// Package game implements the grid snake simulation. The engine is
// deterministic for a given random source and performs no timing of its
// own; the driving loop decides when to call Update.
package game

import (
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/gesturesnake/internal/control"
)

// Cell is a grid coordinate. Y grows downward.
type Cell struct {
	X, Y int
}

// Add returns c moved one step in direction d.
func (c Cell) Add(d control.Direction) Cell {
	dx, dy := d.Delta()
	return Cell{X: c.X + dx, Y: c.Y + dy}
}

// State is the engine's state machine state.
type State int

const (
	StateRunning State = iota
	StateGameOver
)

func (s State) String() string {
	if s == StateGameOver {
		return "game_over"
	}
	return "running"
}

// Engine owns the game state. It is not safe for concurrent use; the game
// loop is its only caller.
type Engine struct {
	config    Config
	rng       *rand.Rand
	rounds    int
	roundID   string
	snake     []Cell // head first
	heading   control.Direction
	pending   control.Direction
	fruit     Cell
	score     int
	state     State
	boost     bool
	particles []Particle
	ticks     uint64
}

// New creates an engine and starts the first round. rng may be nil, in
// which case a time-seeded source is used.
func New(config Config, rng *rand.Rand) *Engine {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	e := &Engine{
		config: config.withDefaults(),
		rng:    rng,
	}
	e.reset()
	return e
}

// reset starts a fresh round: snake, heading, fruit, score and particles.
// The boost flag belongs to the input side and survives a restart.
func (e *Engine) reset() {
	gw, gh := e.config.GridWidth(), e.config.GridHeight()
	head := Cell{X: gw / 2, Y: gh / 2}

	e.snake = make([]Cell, e.config.InitialLength)
	for i := range e.snake {
		e.snake[i] = Cell{X: head.X - i, Y: head.Y}
	}

	e.heading = control.Right
	e.pending = control.Right
	e.score = 0
	e.state = StateRunning
	e.particles = nil
	e.ticks = 0
	e.rounds++
	e.roundID = uuid.NewString()

	if !e.spawnFruit() {
		e.state = StateGameOver
	}
}

// Update advances the simulation one tick. It does nothing in GAME_OVER.
func (e *Engine) Update() {
	if e.state == StateGameOver {
		return
	}

	e.heading = e.pending
	head := e.snake[0].Add(e.heading)

	if !e.inBounds(head) || e.occupied(head) {
		e.state = StateGameOver
		return
	}

	e.snake = slices.Insert(e.snake, 0, head)

	if head == e.fruit {
		e.score += e.config.FruitReward
		e.burst(head)
		if !e.spawnFruit() {
			// Board is full; nothing left to eat.
			e.state = StateGameOver
		}
	} else {
		e.snake = e.snake[:len(e.snake)-1]
	}

	e.particles = stepParticles(e.particles)
	e.ticks++
}

// SetHeading buffers a heading change for the next tick. Directions that
// reverse the current heading are ignored, as is any request in GAME_OVER.
func (e *Engine) SetHeading(d control.Direction) {
	if e.state == StateGameOver || !d.Valid() {
		return
	}
	if d == e.heading.Opposite() {
		return
	}
	e.pending = d
}

// HandleRestart reinitializes the game when it is over and d is Up.
// It reports whether a restart happened.
func (e *Engine) HandleRestart(d control.Direction) bool {
	if e.state != StateGameOver || d != control.Up {
		return false
	}
	e.reset()
	return true
}

// SetBoost sets the speed boost flag. Accepted in either state.
func (e *Engine) SetBoost(on bool) {
	e.boost = on
}

// Apply feeds one sampled command into the engine: heading change, restart
// while over, and the boost flag. It reports whether the game restarted.
func (e *Engine) Apply(cmd control.Command) bool {
	restarted := false
	if cmd.Direction != control.None {
		e.SetHeading(cmd.Direction)
		restarted = e.HandleRestart(cmd.Direction)
	}
	e.SetBoost(cmd.Pinch)
	return restarted
}

// TickInterval is the minimum time the driving loop should leave between
// two Update calls.
func (e *Engine) TickInterval() time.Duration {
	if e.boost {
		return interval(e.config.BoostSpeed)
	}
	return interval(e.config.BaseSpeed)
}

// GameOver reports whether the snake has crashed.
func (e *Engine) GameOver() bool { return e.state == StateGameOver }

// State returns the state machine state.
func (e *Engine) State() State { return e.state }

// Score returns the current score.
func (e *Engine) Score() int { return e.score }

// Boost reports the speed boost flag.
func (e *Engine) Boost() bool { return e.boost }

// RoundID identifies the current round; it changes on every restart.
func (e *Engine) RoundID() string { return e.roundID }

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.config }

func (e *Engine) inBounds(c Cell) bool {
	return c.X >= 0 && c.X < e.config.GridWidth() &&
		c.Y >= 0 && c.Y < e.config.GridHeight()
}

func (e *Engine) occupied(c Cell) bool {
	return slices.Contains(e.snake, c)
}

// maxRejections bounds rejection sampling before falling back to picking
// from the list of free cells. Both are uniform over free cells.
const maxRejections = 64

// spawnFruit places the fruit on a uniformly random free cell. It returns
// false when the snake covers the whole board.
func (e *Engine) spawnFruit() bool {
	gw, gh := e.config.GridWidth(), e.config.GridHeight()

	for i := 0; i < maxRejections; i++ {
		c := Cell{X: e.rng.IntN(gw), Y: e.rng.IntN(gh)}
		if !e.occupied(c) {
			e.fruit = c
			return true
		}
	}

	free := make([]Cell, 0, gw*gh-len(e.snake))
	for y := 0; y < gh; y++ {
		for x := 0; x < gw; x++ {
			if c := (Cell{X: x, Y: y}); !e.occupied(c) {
				free = append(free, c)
			}
		}
	}
	if len(free) == 0 {
		return false
	}
	e.fruit = free[e.rng.IntN(len(free))]
	return true
}
