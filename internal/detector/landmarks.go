// Package detector provides the hand landmark oracle boundary: the types it
// produces and the implementations that talk to MediaPipe.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Keypoint is a 2D point normalized to [0,1] of the frame width and height.
// Y grows downward.
type Keypoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns k - o.
func (k Keypoint) Sub(o Keypoint) Keypoint {
	return Keypoint{X: k.X - o.X, Y: k.Y - o.Y}
}

// Norm returns the Euclidean length of k.
func (k Keypoint) Norm() float64 {
	return math.Hypot(k.X, k.Y)
}

// Distance returns the Euclidean distance between two keypoints.
func Distance(a, b Keypoint) float64 {
	return a.Sub(b).Norm()
}

// Hand holds the 21 landmarks of one detected hand.
type Hand struct {
	Points     [NumLandmarks]Keypoint `json:"points"`
	Handedness string                 `json:"handedness"` // "Left" or "Right"
	Score      float64                `json:"score"`
}

// Wrist returns the wrist landmark.
func (h *Hand) Wrist() Keypoint { return h.Points[Wrist] }

// ThumbTip returns the thumb tip landmark.
func (h *Hand) ThumbTip() Keypoint { return h.Points[ThumbTip] }

// IndexTip returns the index fingertip landmark.
func (h *Hand) IndexTip() Keypoint { return h.Points[IndexTip] }

// FaceBox is a normalized face bounding box. Faces are drawn on the preview
// only and never feed the classifier.
type FaceBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Score  float64 `json:"score"`
}

// Observation is the oracle output for one frame.
type Observation struct {
	Hand  *Hand     // nil when no hand was seen
	Faces []FaceBox // cosmetic
}

// HasHand reports whether the observation contains a hand.
func (o Observation) HasHand() bool {
	return o.Hand != nil
}
