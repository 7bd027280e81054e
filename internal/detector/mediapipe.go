package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// idleShutdown is how long the Python service may sit unused before it is stopped.
const idleShutdown = 30 * time.Second

const scriptName = "mediapipe_service.py"

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
//
// Wire protocol: each request is a 4-byte big-endian length followed by a
// JPEG frame on stdin; each response is one JSON line on stdout.
type MediaPipeDetector struct {
	config    Config
	script    string
	log       *zap.SugaredLogger
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	lastUsed  time.Time
	idleTimer *time.Timer
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config, log *zap.SugaredLogger) (*MediaPipeDetector, error) {
	script := config.ScriptPath
	if script == "" {
		script = findMediaPipeScript()
	}
	if script == "" {
		return nil, fmt.Errorf("%s not found", scriptName)
	}
	if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("mediapipe script: %w", err)
	}

	return &MediaPipeDetector{
		config: config,
		script: script,
		log:    log,
	}, nil
}

// Detect encodes the frame, sends it to the service and decodes the reply.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) (Observation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if frame == nil || frame.Empty() {
		return Observation{}, nil
	}

	if err := d.ensureStarted(); err != nil {
		return Observation{}, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return Observation{}, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		d.abort()
		return Observation{}, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		d.abort()
		return Observation{}, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		d.abort()
		return Observation{}, fmt.Errorf("read response: %w", err)
	}

	obs, err := decodeResponse(line)
	if err != nil {
		return Observation{}, err
	}

	d.lastUsed = time.Now()
	d.resetIdleTimer()

	return obs, nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	args := []string{
		d.script,
		"--max-hands", "1",
		"--min-detection-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', -1, 64),
	}
	if d.config.Faces {
		args = append(args, "--faces")
	}

	d.cmd = exec.Command(pythonPath, args...)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// The terminal belongs to the renderer; route service chatter to the log.
	d.cmd.Stderr = zap.NewStdLog(d.log.Desugar().Named("mediapipe")).Writer()

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start mediapipe service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	d.lastUsed = time.Now()
	d.log.Infow("mediapipe service started", "python", pythonPath, "script", d.script, "pid", d.cmd.Process.Pid)

	return nil
}

// abort tears down a service whose pipe broke so the next Detect restarts it.
func (d *MediaPipeDetector) abort() {
	if err := d.shutdown(); err != nil {
		d.log.Warnw("mediapipe service exited", "error", err)
	}
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(idleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if err := d.shutdown(); err != nil {
			d.log.Debugw("idle mediapipe shutdown", "error", err)
		}
	})
}

func findMediaPipeScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", scriptName),
		filepath.Join("..", "scripts", scriptName),
		filepath.Join(execDir, "scripts", scriptName),
		filepath.Join(os.Getenv("HOME"), ".gesturesnake", "scripts", scriptName),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".gesturesnake/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonResponse is the JSON structure written by the Python service.
type jsonResponse struct {
	Hands []jsonHand `json:"hands"`
	Faces []FaceBox  `json:"faces"`
	Error string     `json:"error,omitempty"`
}

type jsonHand struct {
	Points     []Keypoint `json:"points"`
	Handedness string     `json:"handedness"`
	Score      float64    `json:"score"`
}

// decodeResponse parses one service reply. Only the first hand is kept.
func decodeResponse(line []byte) (Observation, error) {
	var resp jsonResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return Observation{}, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return Observation{}, fmt.Errorf("mediapipe: %s", resp.Error)
	}

	obs := Observation{Faces: resp.Faces}
	if len(resp.Hands) == 0 {
		return obs, nil
	}

	h := resp.Hands[0]
	if len(h.Points) < NumLandmarks {
		return obs, fmt.Errorf("parse response: hand has %d landmarks, want %d", len(h.Points), NumLandmarks)
	}

	hand := &Hand{
		Handedness: h.Handedness,
		Score:      h.Score,
	}
	copy(hand.Points[:], h.Points)
	obs.Hand = hand

	return obs, nil
}
