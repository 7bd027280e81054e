package detector

import (
	"io"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu  sync.Mutex
	obs Observation
	err error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHand sets the hand that will be returned by Detect. nil means no hand.
func (m *MockDetector) SetHand(hand *Hand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.obs.Hand = hand
}

// SetFaces sets the face boxes that will be returned by Detect.
func (m *MockDetector) SetFaces(faces []FaceBox) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.obs.Faces = faces
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured observation or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (Observation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return Observation{}, m.err
	}
	return m.obs, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// ScriptedDetector returns a fixed sequence of observations, one per call,
// ignoring the frame. It backs trace replay and loop tests.
type ScriptedDetector struct {
	mu    sync.Mutex
	obs   []Observation
	index int
	loop  bool
}

// NewScriptedDetector creates a detector that plays obs in order. When loop
// is false, Detect returns io.EOF once the sequence is exhausted.
func NewScriptedDetector(obs []Observation, loop bool) *ScriptedDetector {
	return &ScriptedDetector{obs: obs, loop: loop}
}

// Detect returns the next observation in the script.
func (s *ScriptedDetector) Detect(frame *gocv.Mat) (Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index >= len(s.obs) {
		if !s.loop || len(s.obs) == 0 {
			return Observation{}, io.EOF
		}
		s.index = 0
	}

	o := s.obs[s.index]
	s.index++
	return o, nil
}

// Remaining reports how many observations are left before the script ends.
func (s *ScriptedDetector) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.obs) - s.index
}

// Close is a no-op.
func (s *ScriptedDetector) Close() error {
	return nil
}

// HandAt returns an open right hand with its wrist at (x, y). The thumb and
// index tips are well apart, so the hand is not pinching.
func HandAt(x, y float64) *Hand {
	h := &Hand{
		Handedness: "Right",
		Score:      0.95,
	}

	h.Points[Wrist] = Keypoint{X: x, Y: y}

	// Thumb out to the side
	h.Points[ThumbCMC] = Keypoint{X: x + 0.05, Y: y - 0.05}
	h.Points[ThumbMCP] = Keypoint{X: x + 0.12, Y: y - 0.10}
	h.Points[ThumbIP] = Keypoint{X: x + 0.18, Y: y - 0.15}
	h.Points[ThumbTip] = Keypoint{X: x + 0.23, Y: y - 0.20}

	// Fingers extended upward
	fingers := [4][4]int{
		{IndexMCP, IndexPIP, IndexDIP, IndexTip},
		{MiddleMCP, MiddlePIP, MiddleDIP, MiddleTip},
		{RingMCP, RingPIP, RingDIP, RingTip},
		{PinkyMCP, PinkyPIP, PinkyDIP, PinkyTip},
	}
	for f, joints := range fingers {
		fx := x + 0.05 - float64(f)*0.05
		for j, idx := range joints {
			h.Points[idx] = Keypoint{X: fx, Y: y - 0.12 - float64(j)*0.1}
		}
	}

	return h
}

// PinchingHandAt returns HandAt(x, y) with the thumb tip touching the
// index fingertip.
func PinchingHandAt(x, y float64) *Hand {
	h := HandAt(x, y)
	tip := h.Points[IndexTip]
	h.Points[ThumbIP] = Keypoint{X: tip.X + 0.04, Y: tip.Y + 0.05}
	h.Points[ThumbTip] = Keypoint{X: tip.X + 0.01, Y: tip.Y + 0.01}
	return h
}
