package app

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/ayusman/gesturesnake/internal/capture"
	"github.com/ayusman/gesturesnake/internal/control"
	"github.com/ayusman/gesturesnake/internal/detector"
)

// runObservation samples the camera at ObservationFPS until ctx is done.
// No per-frame failure ends the loop.
func (a *App) runObservation(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Second / time.Duration(a.config.ObservationFPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.observeFrame()
		}
	}
}

// observeFrame runs capture, detection and classification for one frame
// and publishes the result. A frame that cannot be read or detected counts
// as a frame without a hand.
func (a *App) observeFrame() {
	start := time.Now()

	var obs detector.Observation
	frame, err := a.camera.ReadFrame()
	if err != nil {
		a.frameError("read frame", err)
	} else {
		defer frame.Close()
		if obs, err = a.detector.Detect(frame); err != nil {
			a.frameError("detect", err)
			obs = detector.Observation{}
		}
	}

	before := a.classifier.State().Direction
	res := a.classifier.Classify(obs.Hand)
	a.channel.Publish(res.Direction, res.Pinching)

	if res.Direction != before && res.Direction != control.None {
		a.metrics.IncDirection(res.Direction)
		a.log.Debugw("direction committed", "direction", res.Direction.String())
	}
	a.metrics.ObserveFrame(obs.HasHand(), res.Pinching, time.Since(start))

	a.mu.RLock()
	preview, recorder := a.preview, a.recorder
	a.mu.RUnlock()

	if recorder != nil {
		if err := recorder.Record(obs, res); err != nil {
			a.log.Warnw("record frame", "error", err)
		}
	}

	if preview != nil && frame != nil {
		st := capture.PreviewState{Observation: obs, Direction: res.Direction, Pinching: res.Pinching}
		if preview.Show(frame, st) {
			a.log.Infow("quit requested from preview")
			a.RequestQuit()
		}
	}
}

func (a *App) frameError(stage string, err error) {
	a.metrics.IncFrameErrors()

	if errors.Is(err, io.EOF) {
		if !a.replayDone {
			a.replayDone = true
			a.log.Infow("replay finished")
		}
		return
	}
	a.log.Debugw("frame dropped", "stage", stage, "error", err)
}

// runGame redraws at DisplayFPS until ctx is done, the renderer quits, or
// RequestQuit is called.
func (a *App) runGame(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(a.config.DisplayFPS))
	defer ticker.Stop()

	var rendererQuit <-chan struct{}
	if a.renderer != nil {
		rendererQuit = a.renderer.Quit()
	}

	a.lastTick = time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-rendererQuit:
			a.log.Infow("quit requested from renderer")
			return
		case <-a.quit:
			return
		case now := <-ticker.C:
			a.step(now)
		}
	}
}

// step is one display frame: apply the latest command, advance the
// simulation if a tick is due, then draw.
func (a *App) step(now time.Time) {
	cmd := a.channel.Latest()
	if a.engine.Apply(cmd) {
		a.metrics.IncRestarts()
		a.wasOver = false
		a.lastTick = now
		a.log.Infow("round restarted", "round", a.engine.RoundID())
	}

	if !a.engine.GameOver() && now.Sub(a.lastTick) >= a.engine.TickInterval() {
		score := a.engine.Score()
		a.engine.Update()
		a.lastTick = now
		a.metrics.IncTicks()

		if a.engine.Score() > score {
			a.metrics.IncFruit()
		}
		if over := a.engine.GameOver(); over && !a.wasOver {
			a.wasOver = true
			a.log.Infow("game over", "round", a.engine.RoundID(), "score", a.engine.Score())
		}
	}

	snap := a.engine.Snapshot()
	a.metrics.SetScore(snap.Score)

	a.mu.Lock()
	a.snapshot = snap
	observers := a.observers
	a.mu.Unlock()

	if a.renderer != nil {
		a.renderer.Draw(snap)
	}
	for _, o := range observers {
		o.Observe(snap)
	}
}
