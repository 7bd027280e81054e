package store

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ayusman/gesturesnake/internal/detector"
	"github.com/ayusman/gesturesnake/internal/gesture"
)

// DefaultBatchSize is the number of frames buffered before a write.
const DefaultBatchSize = 60

// Recorder buffers observed frames and appends them to a session in
// batches.
type Recorder struct {
	repo      *TraceRepository
	sessionID string
	batch     int
	log       *zap.SugaredLogger

	mu      sync.Mutex
	pending []Frame
	next    int
	written int
}

// NewRecorder starts a new session labelled label and returns a recorder
// writing to it.
func NewRecorder(repo *TraceRepository, label string, batch int, log *zap.SugaredLogger) (*Recorder, error) {
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	sess, err := repo.Create(label)
	if err != nil {
		return nil, err
	}
	return &Recorder{
		repo:      repo,
		sessionID: sess.ID,
		batch:     batch,
		log:       log,
		pending:   make([]Frame, 0, batch),
	}, nil
}

// SessionID returns the session being recorded.
func (r *Recorder) SessionID() string {
	return r.sessionID
}

// Record buffers one frame and writes the buffer once it is full. A failed
// write drops the batch so recording never stalls the caller.
func (r *Recorder) Record(obs detector.Observation, res gesture.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending = append(r.pending, NewFrame(r.next, obs, res))
	r.next++

	if len(r.pending) < r.batch {
		return nil
	}
	return r.flushLocked()
}

// Flush writes any buffered frames.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked()
}

func (r *Recorder) flushLocked() error {
	if len(r.pending) == 0 {
		return nil
	}
	frames := r.pending
	r.pending = make([]Frame, 0, r.batch)

	if err := r.repo.Append(r.sessionID, frames); err != nil {
		r.log.Warnw("dropping trace batch", "session", r.sessionID, "frames", len(frames), "error", err)
		return err
	}
	r.written += len(frames)
	return nil
}

// Written returns how many frames have been stored so far.
func (r *Recorder) Written() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}

// Close flushes the remaining frames.
func (r *Recorder) Close() error {
	err := r.Flush()
	r.log.Infow("trace recorded", "session", r.sessionID, "frames", r.Written())
	return err
}
