package game

import "time"

// Config holds the board geometry, speeds and scoring of a game.
type Config struct {
	// Width and Height are the board size in pixels; CellSize divides both
	// into the grid.
	Width    int `mapstructure:"width"`
	Height   int `mapstructure:"height"`
	CellSize int `mapstructure:"cell_size"`

	InitialLength int `mapstructure:"initial_length"`
	FruitReward   int `mapstructure:"fruit_reward"`

	// BaseSpeed and BoostSpeed are simulation ticks per second.
	BaseSpeed  int `mapstructure:"base_speed"`
	BoostSpeed int `mapstructure:"boost_speed"`

	// Particle burst spawned on each fruit.
	ParticleCount int     `mapstructure:"particle_count"`
	ParticleSpeed float64 `mapstructure:"particle_speed"` // max |velocity| per axis, pixels per tick
	ParticleLife  int     `mapstructure:"particle_life"`  // ticks
}

// DefaultConfig returns the classic 30x30 board.
func DefaultConfig() Config {
	return Config{
		Width:         600,
		Height:        600,
		CellSize:      20,
		InitialLength: 3,
		FruitReward:   10,
		BaseSpeed:     8,
		BoostSpeed:    15,
		ParticleCount: 8,
		ParticleSpeed: 3,
		ParticleLife:  30,
	}
}

// GridWidth returns the number of columns.
func (c Config) GridWidth() int { return c.Width / c.CellSize }

// GridHeight returns the number of rows.
func (c Config) GridHeight() int { return c.Height / c.CellSize }

// withDefaults fills zero or invalid fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.CellSize <= 0 {
		c.CellSize = def.CellSize
	}
	if c.Width < c.CellSize {
		c.Width = def.Width
	}
	if c.Height < c.CellSize {
		c.Height = def.Height
	}
	if c.InitialLength <= 0 {
		c.InitialLength = def.InitialLength
	}
	// The starting snake extends left from the centre column.
	if maxLen := c.GridWidth()/2 + 1; c.InitialLength > maxLen {
		c.InitialLength = maxLen
	}
	if c.FruitReward <= 0 {
		c.FruitReward = def.FruitReward
	}
	if c.BaseSpeed <= 0 {
		c.BaseSpeed = def.BaseSpeed
	}
	if c.BoostSpeed <= 0 {
		c.BoostSpeed = def.BoostSpeed
	}
	if c.ParticleCount <= 0 {
		c.ParticleCount = def.ParticleCount
	}
	if c.ParticleSpeed <= 0 {
		c.ParticleSpeed = def.ParticleSpeed
	}
	if c.ParticleLife <= 0 {
		c.ParticleLife = def.ParticleLife
	}
	return c
}

// interval converts a tick rate to the time between ticks.
func interval(ticksPerSecond int) time.Duration {
	return time.Second / time.Duration(ticksPerSecond)
}
