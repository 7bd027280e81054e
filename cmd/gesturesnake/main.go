package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ayusman/gesturesnake/internal/app"
	"github.com/ayusman/gesturesnake/internal/capture"
	"github.com/ayusman/gesturesnake/internal/config"
	"github.com/ayusman/gesturesnake/internal/detector"
	"github.com/ayusman/gesturesnake/internal/game"
	"github.com/ayusman/gesturesnake/internal/gesture"
	"github.com/ayusman/gesturesnake/internal/logger"
	"github.com/ayusman/gesturesnake/internal/render"
	"github.com/ayusman/gesturesnake/internal/sound"
	"github.com/ayusman/gesturesnake/internal/store"
	"github.com/ayusman/gesturesnake/internal/tray"
)

const controls = `Gesture Snake
  Move your hand to steer the snake
  Pinch thumb and index finger for a speed boost
  Show UP after game over to restart
  ESC or q to quit`

type options struct {
	configPath string
	camera     int
	record     string
	replay     string
	tray       bool
	preview    bool
	listTraces bool
	logStderr  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "config file (default ~/.gesturesnake/config.yaml)")
	flag.IntVar(&opts.camera, "camera", -1, "camera device index")
	flag.StringVar(&opts.record, "record", "", "record observed frames under this label")
	flag.StringVar(&opts.replay, "replay", "", "replay a recorded trace session instead of using the camera")
	flag.BoolVar(&opts.tray, "tray", false, "show a system tray menu")
	flag.BoolVar(&opts.preview, "preview", false, "show the annotated camera window")
	flag.BoolVar(&opts.listTraces, "list-traces", false, "list recorded trace sessions and exit")
	flag.BoolVar(&opts.logStderr, "log-stderr", false, "log to stderr instead of the log file")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "gesturesnake: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	dir := config.Dir()
	cfg, err := config.Load(opts.configPath, dir)
	if err != nil {
		return err
	}
	if opts.camera >= 0 {
		cfg.Camera.DeviceID = opts.camera
	}
	if opts.logStderr {
		cfg.Log.Stderr = true
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	var st *store.Store
	if opts.record != "" || opts.replay != "" || opts.listTraces {
		if st, err = store.New(cfg.Store.Path); err != nil {
			return fmt.Errorf("open trace store: %w", err)
		}
		defer st.Close()
	}

	if opts.listTraces {
		return listTraces(st)
	}

	camera, det, err := sources(cfg, opts, st, log)
	if err != nil {
		return err
	}

	fmt.Println(controls)

	term, err := render.New()
	if err != nil {
		det.Close()
		return err
	}

	engine := game.New(cfg.Game, nil)
	a := app.New(cfg.App, camera, det, gesture.NewClassifier(cfg.Gesture), engine, term, log)

	speaker := sound.NewSpeaker(cfg.Sound, log)
	defer speaker.Close()
	a.AddObserver(sound.NewCues(speaker))

	if opts.record != "" {
		rec, err := store.NewRecorder(st.Traces(), opts.record, cfg.Store.BatchSize, log)
		if err != nil {
			term.Close()
			det.Close()
			return fmt.Errorf("start recording: %w", err)
		}
		log.Infow("recording trace", "session", rec.SessionID(), "label", opts.record)
		a.SetRecorder(rec)
	}
	if opts.preview {
		a.SetPreview(capture.NewPreview())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.tray {
		err = runWithTray(ctx, a, speaker)
	} else {
		err = a.Run(ctx)
	}
	term.Close()

	if errors.Is(err, app.ErrCameraUnavailable) {
		det.Close()
		return fmt.Errorf("%w (is a webcam connected? try -camera N)", err)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Final score: %d\n", a.Snapshot().Score)
	return nil
}

// sources returns the live camera and MediaPipe detector, or a blank
// camera feeding recorded observations when replaying.
func sources(cfg *config.Config, opts options, st *store.Store, log *zap.SugaredLogger) (capture.Camera, detector.Detector, error) {
	if opts.replay != "" {
		frames, err := st.Traces().Frames(opts.replay)
		if err != nil {
			return nil, nil, fmt.Errorf("load trace %s: %w", opts.replay, err)
		}
		log.Infow("replaying trace", "session", opts.replay, "frames", len(frames))
		camera := capture.NewBlankCamera(cfg.Camera.Width, cfg.Camera.Height)
		return camera, detector.NewScriptedDetector(store.Observations(frames), false), nil
	}

	det, err := detector.NewMediaPipeDetector(cfg.Detector, log)
	if err != nil {
		return nil, nil, fmt.Errorf("hand detector: %w", err)
	}
	return capture.NewCamera(cfg.Camera), det, nil
}

// runWithTray runs the game off the main goroutine, which the tray event
// loop needs.
func runWithTray(ctx context.Context, a *app.App, speaker *sound.Speaker) error {
	t := tray.New()
	t.OnQuit(a.RequestQuit)
	t.OnSound(func(enabled bool) { speaker.SetMuted(!enabled) })
	a.AddObserver(t)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run(ctx)
		t.Quit()
	}()

	t.Run()
	a.RequestQuit()
	return <-errCh
}

func listTraces(st *store.Store) error {
	sessions, err := st.Traces().List()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("no recorded traces")
		return nil
	}
	for _, s := range sessions {
		fmt.Printf("%s  %-20s %6d frames  %s\n", s.ID, s.Label, s.Frames, s.StartedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
