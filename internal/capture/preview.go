package capture

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/gesturesnake/internal/control"
	"github.com/ayusman/gesturesnake/internal/detector"
)

// PreviewTitle is the preview window title.
const PreviewTitle = "Gesture Snake - Gesture Control"

var (
	faceColor   = color.RGBA{B: 255, A: 255}
	wristColor  = color.RGBA{G: 255, A: 255}
	thumbColor  = color.RGBA{G: 255, B: 255, A: 255}
	indexColor  = color.RGBA{R: 255, G: 255, A: 255}
	boostColor  = color.RGBA{R: 255, A: 255}
	statusColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// PreviewState is what the preview annotates on top of a frame.
type PreviewState struct {
	Observation detector.Observation
	Direction   control.Direction
	Pinching    bool
}

// Preview shows annotated camera frames in an OpenCV window.
type Preview struct {
	window *gocv.Window
}

// NewPreview opens the preview window.
func NewPreview() *Preview {
	return &Preview{window: gocv.NewWindow(PreviewTitle)}
}

// Show draws the annotations onto frame, displays it and polls the window
// for a key. It reports whether 'q' was pressed.
func (p *Preview) Show(frame *gocv.Mat, st PreviewState) bool {
	Annotate(frame, st)
	p.window.IMShow(*frame)
	return p.window.WaitKey(1) == 'q'
}

// Close closes the window.
func (p *Preview) Close() error {
	return p.window.Close()
}

// Annotate draws face boxes, tracked fingertips, the boost banner and the
// committed direction onto frame.
func Annotate(frame *gocv.Mat, st PreviewState) {
	w, h := frame.Cols(), frame.Rows()
	if w == 0 || h == 0 {
		return
	}

	for _, f := range st.Observation.Faces {
		r := image.Rect(
			int(f.X*float64(w)), int(f.Y*float64(h)),
			int((f.X+f.Width)*float64(w)), int((f.Y+f.Height)*float64(h)),
		)
		gocv.Rectangle(frame, r, faceColor, 2)
	}

	if hand := st.Observation.Hand; hand != nil {
		gocv.Circle(frame, toPixel(hand.Wrist(), w, h), 10, wristColor, -1)
		gocv.Circle(frame, toPixel(hand.ThumbTip(), w, h), 8, thumbColor, -1)
		gocv.Circle(frame, toPixel(hand.IndexTip(), w, h), 8, indexColor, -1)
	}

	if st.Pinching {
		gocv.PutText(frame, "SPEED BOOST!", image.Pt(10, 30), gocv.FontHersheySimplex, 1, boostColor, 2)
	}
	if st.Direction != control.None {
		gocv.PutText(frame, "Direction: "+st.Direction.String(), image.Pt(10, 70), gocv.FontHersheySimplex, 1, statusColor, 2)
	}
}

func toPixel(k detector.Keypoint, w, h int) image.Point {
	return image.Pt(int(k.X*float64(w)), int(k.Y*float64(h)))
}
