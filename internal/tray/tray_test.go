package tray

import (
	"testing"

	"github.com/ayusman/gesturesnake/internal/control"
	"github.com/ayusman/gesturesnake/internal/game"
)

func TestLabels(t *testing.T) {
	tests := []struct {
		name      string
		snap      game.Snapshot
		wantScore string
		wantDir   string
	}{
		{
			name:      "running",
			snap:      game.Snapshot{Score: 30, Heading: control.Up},
			wantScore: "Score: 30",
			wantDir:   "Direction: UP",
		},
		{
			name:      "game over",
			snap:      game.Snapshot{Score: 120, Heading: control.Left, GameOver: true},
			wantScore: "Score: 120 (game over)",
			wantDir:   "Direction: LEFT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScoreLabel(tt.snap); got != tt.wantScore {
				t.Errorf("ScoreLabel() = %q, want %q", got, tt.wantScore)
			}
			if got := DirectionLabel(tt.snap); got != tt.wantDir {
				t.Errorf("DirectionLabel() = %q, want %q", got, tt.wantDir)
			}
		})
	}
}

func TestTray_ObserveBeforeReady(t *testing.T) {
	tr := New()
	// No menu yet: must not panic.
	tr.Observe(game.Snapshot{Score: 10})

	if !tr.SoundEnabled() {
		t.Error("sound should start enabled")
	}
}

func TestSoundLabel(t *testing.T) {
	if soundLabel(true) == soundLabel(false) {
		t.Error("sound label does not reflect state")
	}
}
