// Package tray provides a system tray menu showing the live score and
// heading of a gesture snake run.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/gesturesnake/internal/game"
)

// Tray represents the system tray application.
type Tray struct {
	onSound func(enabled bool)
	onQuit  func()
	sound   bool
	mu      sync.RWMutex

	// Menu items stored for later updates
	menuSound     *systray.MenuItem
	menuScore     *systray.MenuItem
	menuDirection *systray.MenuItem

	// Last labels shown, to skip redundant updates at display rate.
	score     string
	direction string
}

// New creates a new Tray instance with sound enabled.
func New() *Tray {
	return &Tray{
		sound: true,
	}
}

// OnSound sets the callback function to be called when sound is toggled.
func (t *Tray) OnSound(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSound = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Snake")
	systray.SetTooltip("Gesture Snake")

	t.mu.Lock()
	t.menuScore = systray.AddMenuItem(ScoreLabel(game.Snapshot{}), "Current score")
	t.menuScore.Disable()
	t.menuDirection = systray.AddMenuItem("Direction: RIGHT", "Current heading")
	t.menuDirection.Disable()
	systray.AddSeparator()

	t.menuSound = systray.AddMenuItem(soundLabel(t.sound), "Toggle sound cues")
	t.mu.Unlock()
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Gesture Snake")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuSound.ClickedCh:
				t.handleSound()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleSound handles the sound menu item click.
func (t *Tray) handleSound() {
	t.mu.Lock()
	t.sound = !t.sound
	enabled := t.sound
	t.menuSound.SetTitle(soundLabel(enabled))
	callback := t.onSound
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Observe updates the score and direction items from a drawn snapshot.
func (t *Tray) Observe(s game.Snapshot) {
	score, dir := ScoreLabel(s), DirectionLabel(s)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.menuScore == nil {
		return
	}
	if score != t.score {
		t.menuScore.SetTitle(score)
		t.score = score
	}
	if dir != t.direction {
		t.menuDirection.SetTitle(dir)
		t.direction = dir
	}
}

// SoundEnabled returns the current sound toggle state.
func (t *Tray) SoundEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sound
}

// ScoreLabel is the score menu item text.
func ScoreLabel(s game.Snapshot) string {
	if s.GameOver {
		return fmt.Sprintf("Score: %d (game over)", s.Score)
	}
	return fmt.Sprintf("Score: %d", s.Score)
}

// DirectionLabel is the heading menu item text.
func DirectionLabel(s game.Snapshot) string {
	return "Direction: " + s.Heading.String()
}

func soundLabel(on bool) string {
	if on {
		return "● Sound"
	}
	return "○ Sound"
}
