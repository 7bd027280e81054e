package detector

import "gocv.io/x/gocv"

// Detector defines the interface for the landmark oracle.
type Detector interface {
	// Detect analyzes a video frame and returns at most one hand plus any
	// face boxes. An observation without a hand is not an error.
	Detect(frame *gocv.Mat) (Observation, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64 `mapstructure:"min_confidence"`

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64 `mapstructure:"min_tracking_confidence"`

	// Faces enables face detection for the preview overlay.
	Faces bool `mapstructure:"faces"`

	// ScriptPath overrides the location of mediapipe_service.py.
	ScriptPath string `mapstructure:"script_path"`
}

// DefaultConfig returns a Config with the values the game was tuned with.
func DefaultConfig() Config {
	return Config{
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		Faces:           true,
	}
}
