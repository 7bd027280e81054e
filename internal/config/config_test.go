package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()

	got, err := Load("", dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(Default(dir), *got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	yaml := `
game:
  base_speed: 10
  boost_speed: 20
gesture:
  cooldown_frames: 5
app:
  shutdown_timeout: 2s
sound:
  enabled: false
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load("", dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := Default(dir)
	want.Game.BaseSpeed = 10
	want.Game.BoostSpeed = 20
	want.Gesture.CooldownFrames = 5
	want.App.ShutdownTimeout = 2 * time.Second
	want.Sound.Enabled = false

	if diff := cmp.Diff(want, *got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_Env(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GESTURESNAKE_CAMERA_DEVICE", "2")
	t.Setenv("GESTURESNAKE_LOG_LEVEL", "debug")

	got, err := Load("", dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Camera.DeviceID != 2 {
		t.Errorf("Camera.DeviceID = %d, want 2", got.Camera.DeviceID)
	}
	if got.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", got.Log.Level)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "nope.yaml"), dir); err == nil {
		t.Error("Load() with missing explicit file should fail")
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("game: [1, 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, dir); err == nil {
		t.Error("Load() with malformed YAML should fail")
	}
}
