package app

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"gocv.io/x/gocv"

	"github.com/ayusman/gesturesnake/internal/capture"
	"github.com/ayusman/gesturesnake/internal/control"
	"github.com/ayusman/gesturesnake/internal/detector"
	"github.com/ayusman/gesturesnake/internal/game"
	"github.com/ayusman/gesturesnake/internal/gesture"
)

type fakeRenderer struct {
	mu    sync.Mutex
	draws int
	last  game.Snapshot
	quit  chan struct{}
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{quit: make(chan struct{})}
}

func (r *fakeRenderer) Draw(s game.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draws++
	r.last = s
}

func (r *fakeRenderer) Quit() <-chan struct{} { return r.quit }

func (r *fakeRenderer) Draws() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.draws
}

type brokenCamera struct {
	capture.MockCamera
}

func (c *brokenCamera) Open() error { return errors.New("no device") }

type fakePreview struct {
	mu     sync.Mutex
	shown  int
	quitAt int
	closed bool
}

func (p *fakePreview) Show(frame *gocv.Mat, st capture.PreviewState) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shown++
	return p.quitAt > 0 && p.shown >= p.quitAt
}

func (p *fakePreview) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

type fakeRecorder struct {
	mu     sync.Mutex
	frames []gesture.Result
	closed bool
}

func (r *fakeRecorder) Record(obs detector.Observation, res gesture.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, res)
	return nil
}

func (r *fakeRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

type blockingDetector struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (d *blockingDetector) Detect(frame *gocv.Mat) (detector.Observation, error) {
	d.once.Do(func() { close(d.entered) })
	<-d.release
	return detector.Observation{}, nil
}

func (d *blockingDetector) Close() error { return nil }

type countingObserver struct {
	mu   sync.Mutex
	seen int
}

func (o *countingObserver) Observe(game.Snapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen++
}

func newTestApp(t *testing.T, cam capture.Camera, det detector.Detector, r Renderer) *App {
	t.Helper()
	engine := game.New(game.DefaultConfig(), rand.New(rand.NewPCG(7, 7)))
	return New(DefaultConfig(), cam, det, gesture.NewClassifier(gesture.DefaultConfig()), engine, r, nil)
}

func openBlankCamera(t *testing.T) *capture.MockCamera {
	t.Helper()
	cam := capture.NewBlankCamera(64, 48)
	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { cam.Close() })
	return cam
}

func TestStart_CameraUnavailable(t *testing.T) {
	a := newTestApp(t, &brokenCamera{}, detector.NewMockDetector(), newFakeRenderer())

	err := a.Start(context.Background())
	if !errors.Is(err, ErrCameraUnavailable) {
		t.Fatalf("Start() error = %v, want ErrCameraUnavailable", err)
	}
	if a.done != nil {
		t.Error("observation loop started despite camera failure")
	}

	if err := a.Run(context.Background()); !errors.Is(err, ErrCameraUnavailable) {
		t.Errorf("Run() error = %v, want ErrCameraUnavailable", err)
	}
}

func TestObserveFrame_PublishesCommand(t *testing.T) {
	det := detector.NewScriptedDetector([]detector.Observation{
		{Hand: detector.HandAt(0.5, 0.5)},
		{Hand: detector.PinchingHandAt(0.5, 0.3)},
	}, false)
	rec := &fakeRecorder{}
	a := newTestApp(t, openBlankCamera(t), det, nil)
	a.SetRecorder(rec)

	a.observeFrame()
	if cmd := a.Latest(); cmd.Direction != control.None || cmd.Seq != 1 {
		t.Errorf("after first frame = %+v, want NONE seq 1", cmd)
	}

	a.observeFrame()
	cmd := a.Latest()
	if cmd.Direction != control.Up || !cmd.Pinch || cmd.Seq != 2 {
		t.Errorf("after second frame = %+v, want UP pinching seq 2", cmd)
	}

	if got := testutil.ToFloat64(a.Metrics().Directions.WithLabelValues("UP")); got != 1 {
		t.Errorf("UP commits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(a.Metrics().FramesWithHand); got != 2 {
		t.Errorf("frames with hand = %v, want 2", got)
	}
	if len(rec.frames) != 2 {
		t.Errorf("recorded frames = %d, want 2", len(rec.frames))
	}
}

func TestObserveFrame_ErrorsCountAsNoHand(t *testing.T) {
	tests := []struct {
		name string
		cam  func(t *testing.T) capture.Camera
		det  func() detector.Detector
	}{
		{
			name: "camera not open",
			cam: func(t *testing.T) capture.Camera {
				c := capture.NewBlankCamera(8, 8)
				t.Cleanup(func() { c.Close() })
				return c
			},
			det: func() detector.Detector { return detector.NewMockDetector() },
		},
		{
			name: "detector error",
			cam:  func(t *testing.T) capture.Camera { return openBlankCamera(t) },
			det: func() detector.Detector {
				d := detector.NewMockDetector()
				d.SetError(errors.New("oracle crashed"))
				return d
			},
		},
		{
			name: "replay exhausted",
			cam:  func(t *testing.T) capture.Camera { return openBlankCamera(t) },
			det:  func() detector.Detector { return detector.NewScriptedDetector(nil, false) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp(t, tt.cam(t), tt.det(), nil)

			a.observeFrame()
			a.observeFrame()

			cmd := a.Latest()
			if cmd.Direction != control.None || cmd.Pinch {
				t.Errorf("command = %+v, want no direction and no pinch", cmd)
			}
			if cmd.Seq != 2 {
				t.Errorf("seq = %d, want 2 (published every frame)", cmd.Seq)
			}
			if got := testutil.ToFloat64(a.Metrics().FrameErrors); got != 2 {
				t.Errorf("frame errors = %v, want 2", got)
			}
		})
	}
}

func TestObserveFrame_HandLossKeepsDirection(t *testing.T) {
	det := detector.NewScriptedDetector([]detector.Observation{
		{Hand: detector.HandAt(0.2, 0.5)},
		{Hand: detector.PinchingHandAt(0.4, 0.5)},
		{},
	}, false)
	a := newTestApp(t, openBlankCamera(t), det, nil)

	for i := 0; i < 3; i++ {
		a.observeFrame()
	}

	cmd := a.Latest()
	if cmd.Direction != control.Right {
		t.Errorf("direction = %s, want RIGHT to persist without a hand", cmd.Direction)
	}
	if cmd.Pinch {
		t.Error("pinch persisted without a hand")
	}
}

func TestStep_TickTiming(t *testing.T) {
	r := newFakeRenderer()
	a := newTestApp(t, openBlankCamera(t), detector.NewMockDetector(), r)
	t0 := time.Unix(1000, 0)
	a.lastTick = t0

	a.step(t0.Add(100 * time.Millisecond))
	if got := a.Snapshot().Ticks; got != 0 {
		t.Fatalf("ticks after 100ms = %d, want 0", got)
	}

	a.step(t0.Add(125 * time.Millisecond))
	if got := a.Snapshot().Ticks; got != 1 {
		t.Fatalf("ticks after 125ms = %d, want 1", got)
	}

	// Boosted: 15 ticks per second.
	a.channel.Publish(control.None, true)
	a.step(t0.Add(125*time.Millisecond + 60*time.Millisecond))
	if got := a.Snapshot().Ticks; got != 1 {
		t.Fatalf("ticks 60ms into boost = %d, want 1", got)
	}
	a.step(t0.Add(125*time.Millisecond + 67*time.Millisecond))
	if got := a.Snapshot().Ticks; got != 2 {
		t.Fatalf("ticks 67ms into boost = %d, want 2", got)
	}
	if !a.Snapshot().Boost {
		t.Error("snapshot not boosted")
	}

	if r.Draws() != 4 {
		t.Errorf("draws = %d, want one per step", r.Draws())
	}
	if got := testutil.ToFloat64(a.Metrics().Ticks); got != 2 {
		t.Errorf("tick metric = %v, want 2", got)
	}
}

func TestStep_UpCommandMovesUp(t *testing.T) {
	a := newTestApp(t, openBlankCamera(t), detector.NewMockDetector(), newFakeRenderer())
	t0 := time.Unix(1000, 0)
	a.lastTick = t0

	a.channel.Publish(control.Up, false)
	a.step(t0.Add(125 * time.Millisecond))

	if head := a.Snapshot().Head(); head != (game.Cell{X: 15, Y: 14}) {
		t.Errorf("head = %v, want {15 14}", head)
	}
}

func TestStep_GameOverAndRestart(t *testing.T) {
	obs := &countingObserver{}
	a := newTestApp(t, openBlankCamera(t), detector.NewMockDetector(), newFakeRenderer())
	a.AddObserver(obs)

	now := time.Unix(1000, 0)
	a.lastTick = now
	for i := 0; i < 40 && !a.Snapshot().GameOver; i++ {
		now = now.Add(125 * time.Millisecond)
		a.step(now)
	}
	if !a.Snapshot().GameOver {
		t.Fatal("snake never hit the wall")
	}
	round := a.Snapshot().RoundID

	// Anything but UP is ignored while over.
	a.channel.Publish(control.Left, false)
	a.step(now.Add(time.Second))
	if !a.Snapshot().GameOver {
		t.Fatal("LEFT restarted the game")
	}

	a.channel.Publish(control.Up, false)
	a.step(now.Add(2 * time.Second))
	s := a.Snapshot()
	if s.GameOver || s.Score != 0 || s.RoundID == round {
		t.Errorf("after UP: over=%v score=%d round changed=%v", s.GameOver, s.Score, s.RoundID != round)
	}
	if got := testutil.ToFloat64(a.Metrics().Restarts); got != 1 {
		t.Errorf("restarts = %v, want 1", got)
	}
	if obs.seen == 0 {
		t.Error("observer never called")
	}
}

func TestRun_StopsOnRendererQuit(t *testing.T) {
	cam := capture.NewBlankCamera(64, 48)
	det := detector.NewMockDetector()
	det.SetHand(detector.HandAt(0.5, 0.5))
	r := newFakeRenderer()
	rec := &fakeRecorder{}
	prev := &fakePreview{}

	a := newTestApp(t, cam, det, r)
	a.SetRecorder(rec)
	a.SetPreview(prev)

	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(context.Background()) }()

	deadline := time.After(2 * time.Second)
	for r.Draws() < 3 {
		select {
		case <-deadline:
			t.Fatal("game loop never drew")
		case <-time.After(10 * time.Millisecond):
		}
	}
	close(r.quit)

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run() did not return after renderer quit")
	}

	if cam.IsOpen() {
		t.Error("camera left open")
	}
	if !rec.closed || !prev.closed {
		t.Errorf("recorder closed=%v preview closed=%v, want both closed", rec.closed, prev.closed)
	}
}

func TestRun_PreviewQuit(t *testing.T) {
	a := newTestApp(t, capture.NewBlankCamera(64, 48), detector.NewMockDetector(), newFakeRenderer())
	a.SetPreview(&fakePreview{quitAt: 2})

	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(context.Background()) }()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run() did not return after preview quit")
	}
}

func TestRun_ContextCancel(t *testing.T) {
	a := newTestApp(t, capture.NewBlankCamera(64, 48), detector.NewMockDetector(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestStop_BoundedWait(t *testing.T) {
	det := &blockingDetector{entered: make(chan struct{}), release: make(chan struct{})}
	a := newTestApp(t, capture.NewBlankCamera(64, 48), det, nil)
	a.config.ShutdownTimeout = 50 * time.Millisecond
	defer close(det.release)

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case <-det.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("detector never called")
	}

	start := time.Now()
	a.Stop()
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Stop() took %v with a stuck observation loop, want about the timeout", elapsed)
	}
}

func TestStart_Idempotent(t *testing.T) {
	a := newTestApp(t, capture.NewBlankCamera(64, 48), detector.NewMockDetector(), nil)

	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	done := a.done
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	if a.done != done {
		t.Error("second Start() launched another loop")
	}
	a.Stop()
	a.Stop()
}
