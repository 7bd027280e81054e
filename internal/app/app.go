// Package app wires camera, detector, classifier and game engine into the
// two loops of a gesture snake run.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/gesturesnake/internal/capture"
	"github.com/ayusman/gesturesnake/internal/control"
	"github.com/ayusman/gesturesnake/internal/detector"
	"github.com/ayusman/gesturesnake/internal/game"
	"github.com/ayusman/gesturesnake/internal/gesture"
	"github.com/ayusman/gesturesnake/internal/metrics"
)

// Loop timing defaults.
const (
	// DefaultObservationFPS is the camera sampling rate.
	DefaultObservationFPS = 30
	// DefaultDisplayFPS is the redraw rate; simulation ticks are slower.
	DefaultDisplayFPS = 60
	// DefaultShutdownTimeout bounds the wait for the observation loop.
	DefaultShutdownTimeout = time.Second
)

// ErrCameraUnavailable is returned by Start when the camera cannot be
// opened. It is the only fatal startup error.
var ErrCameraUnavailable = errors.New("camera unavailable")

// Config holds the loop settings.
type Config struct {
	ObservationFPS  int           `mapstructure:"observation_fps"`
	DisplayFPS      int           `mapstructure:"display_fps"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DefaultConfig returns 30 observations and 60 redraws per second.
func DefaultConfig() Config {
	return Config{
		ObservationFPS:  DefaultObservationFPS,
		DisplayFPS:      DefaultDisplayFPS,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// Renderer presents snapshots. Quit is closed when the user asks to leave.
type Renderer interface {
	Draw(game.Snapshot)
	Quit() <-chan struct{}
}

// Observer is told about every drawn snapshot, on the game loop goroutine.
type Observer interface {
	Observe(game.Snapshot)
}

// Preview shows annotated camera frames. Show reports a quit request.
type Preview interface {
	Show(frame *gocv.Mat, st capture.PreviewState) bool
	Close() error
}

// Recorder persists observed frames.
type Recorder interface {
	Record(obs detector.Observation, res gesture.Result) error
	Close() error
}

// App owns the components of a run and coordinates the observation loop
// with the game loop through a control.Channel.
type App struct {
	config     Config
	camera     capture.Camera
	detector   detector.Detector
	classifier *gesture.Classifier
	channel    *control.Channel
	engine     *game.Engine
	renderer   Renderer
	log        *zap.SugaredLogger
	metrics    *metrics.Metrics

	preview   Preview
	recorder  Recorder
	observers []Observer

	mu       sync.RWMutex
	cancel   context.CancelFunc
	done     chan struct{}
	quit     chan struct{}
	quitOnce sync.Once
	snapshot game.Snapshot

	// game loop state
	lastTick time.Time
	wasOver  bool

	// observation loop state
	replayDone bool
}

// New creates an App. The classifier and engine are owned by the App from
// here on; renderer may be nil for headless runs.
func New(config Config, camera capture.Camera, det detector.Detector, classifier *gesture.Classifier,
	engine *game.Engine, renderer Renderer, log *zap.SugaredLogger) *App {
	if config.ObservationFPS <= 0 {
		config.ObservationFPS = DefaultObservationFPS
	}
	if config.DisplayFPS <= 0 {
		config.DisplayFPS = DefaultDisplayFPS
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = DefaultShutdownTimeout
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &App{
		config:     config,
		camera:     camera,
		detector:   det,
		classifier: classifier,
		channel:    control.NewChannel(),
		engine:     engine,
		renderer:   renderer,
		log:        log,
		metrics:    metrics.New(),
		quit:       make(chan struct{}),
		snapshot:   engine.Snapshot(),
	}
}

// SetPreview enables the camera preview window.
func (a *App) SetPreview(p Preview) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.preview = p
}

// SetRecorder enables trace recording.
func (a *App) SetRecorder(r Recorder) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recorder = r
}

// AddObserver registers o for every drawn snapshot.
func (a *App) AddObserver(o Observer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observers = append(a.observers, o)
}

// Run starts the observation loop, runs the game loop on the calling
// goroutine until ctx is done or a quit is requested, then shuts down.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}
	defer a.Stop()

	a.runGame(ctx)
	return nil
}

// Start opens the camera and launches the observation loop.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.cancel != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("%w: %w", ErrCameraUnavailable, err)
	}

	ctx, a.cancel = context.WithCancel(ctx)
	a.done = make(chan struct{})
	go a.runObservation(ctx, a.done)

	a.log.Infow("observation loop started",
		"observation_fps", a.config.ObservationFPS,
		"display_fps", a.config.DisplayFPS,
	)
	return nil
}

// Stop cancels the observation loop, waits for it up to the shutdown
// timeout, and releases every component. Close errors are logged only.
func (a *App) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()

	select {
	case <-done:
	case <-time.After(a.config.ShutdownTimeout):
		a.log.Warnw("observation loop did not stop in time", "timeout", a.config.ShutdownTimeout)
	}

	a.closeAll()

	if kv, err := a.metrics.Summary(); err != nil {
		a.log.Warnw("gather metrics", "error", err)
	} else {
		a.log.Infow("run summary", kv...)
	}
	a.log.Infow("stopped", "score", a.Snapshot().Score)
}

func (a *App) closeAll() {
	if err := a.camera.Close(); err != nil {
		a.log.Warnw("close camera", "error", err)
	}
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			a.log.Warnw("close detector", "error", err)
		}
	}

	a.mu.RLock()
	preview, recorder := a.preview, a.recorder
	a.mu.RUnlock()

	if preview != nil {
		if err := preview.Close(); err != nil {
			a.log.Warnw("close preview", "error", err)
		}
	}
	if recorder != nil {
		if err := recorder.Close(); err != nil {
			a.log.Warnw("close recorder", "error", err)
		}
	}
}

// RequestQuit asks the game loop to end. Safe to call from any goroutine
// and more than once.
func (a *App) RequestQuit() {
	a.quitOnce.Do(func() { close(a.quit) })
}

// Snapshot returns the most recently drawn game state.
func (a *App) Snapshot() game.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot
}

// Latest returns the command most recently published by the observation
// loop.
func (a *App) Latest() control.Command {
	return a.channel.Latest()
}

// Metrics returns the run's counters.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}
