// Package control defines the command vocabulary shared between the
// gesture classifier and the game engine, and the single-slot channel
// that carries it across the two loops.
package control

import (
	"fmt"
	"strings"
)

// Direction is one of the four swipe directions. The zero value is None.
type Direction uint8

const (
	None Direction = iota
	Up
	Down
	Left
	Right
)

// Directions lists the four cardinal directions in a stable order.
var Directions = [...]Direction{Up, Down, Left, Right}

// Delta returns the unit grid step for the direction.
// Y grows downward, matching screen coordinates.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	}
	return 0, 0
}

// Opposite returns the reverse direction. None is its own opposite.
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	}
	return None
}

// Valid reports whether d is one of the four cardinal directions.
func (d Direction) Valid() bool {
	return d >= Up && d <= Right
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "UP"
	case Down:
		return "DOWN"
	case Left:
		return "LEFT"
	case Right:
		return "RIGHT"
	}
	return "NONE"
}

// ParseDirection converts a name such as "up" or "RIGHT" to a Direction.
// The empty string and "none" parse to None.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NONE":
		return None, nil
	case "UP":
		return Up, nil
	case "DOWN":
		return Down, nil
	case "LEFT":
		return Left, nil
	case "RIGHT":
		return Right, nil
	}
	return None, fmt.Errorf("unknown direction %q", s)
}
