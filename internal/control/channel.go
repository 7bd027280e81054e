package control

import (
	"sync"
	"time"
)

// Command is the latest output of the classifier: a direction (possibly
// None) and the pinch flag, produced by the same classification step.
type Command struct {
	Direction Direction
	Pinch     bool
	Seq       uint64    // publish sequence number, 0 before the first publish
	At        time.Time // publish time
}

// Channel is a single-slot mailbox holding the most recent Command.
// Publish overwrites the slot; Latest samples it. Intermediate commands
// that are never sampled are dropped.
type Channel struct {
	mu  sync.RWMutex
	cmd Command
	now func() time.Time
}

// NewChannel creates an empty Channel.
func NewChannel() *Channel {
	return &Channel{now: time.Now}
}

// Publish stores dir and pinch together as the latest command.
func (c *Channel) Publish(dir Direction, pinch bool) Command {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cmd = Command{
		Direction: dir,
		Pinch:     pinch,
		Seq:       c.cmd.Seq + 1,
		At:        c.now(),
	}
	return c.cmd
}

// Latest returns a copy of the most recently published command.
func (c *Channel) Latest() Command {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cmd
}

// Reset empties the slot. The sequence counter keeps counting so that
// readers can still tell a reset apart from a stale value.
func (c *Channel) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmd = Command{Seq: c.cmd.Seq + 1, At: c.now()}
}
