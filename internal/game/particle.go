package game

// Particle is a cosmetic spark in board pixel coordinates.
type Particle struct {
	X, Y    float64
	VX, VY  float64
	Life    int // ticks remaining
	MaxLife int
}

// Fade returns the remaining life as a fraction in [0, 1].
func (p Particle) Fade() float64 {
	if p.MaxLife <= 0 {
		return 0
	}
	return float64(p.Life) / float64(p.MaxLife)
}

// burst appends a ring of particles centred on cell c.
func (e *Engine) burst(c Cell) {
	cs := float64(e.config.CellSize)
	cx := float64(c.X)*cs + cs/2
	cy := float64(c.Y)*cs + cs/2
	v := e.config.ParticleSpeed

	for i := 0; i < e.config.ParticleCount; i++ {
		e.particles = append(e.particles, Particle{
			X:       cx,
			Y:       cy,
			VX:      (e.rng.Float64()*2 - 1) * v,
			VY:      (e.rng.Float64()*2 - 1) * v,
			Life:    e.config.ParticleLife,
			MaxLife: e.config.ParticleLife,
		})
	}
}

// stepParticles advances every particle one tick and rebuilds the slice
// without the expired ones.
func stepParticles(ps []Particle) []Particle {
	if len(ps) == 0 {
		return ps
	}

	alive := make([]Particle, 0, len(ps))
	for _, p := range ps {
		p.X += p.VX
		p.Y += p.VY
		p.Life--
		if p.Life > 0 {
			alive = append(alive, p)
		}
	}
	return alive
}
