package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/gesturesnake/internal/control"
	"github.com/ayusman/gesturesnake/internal/detector"
	"github.com/ayusman/gesturesnake/internal/gesture"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Session is one recorded run.
type Session struct {
	ID        string
	Label     string
	Frames    int
	StartedAt time.Time
}

// Frame is one recorded observation: the three tracked keypoints and what
// the classifier made of them.
type Frame struct {
	Index     int
	HasHand   bool
	Wrist     detector.Keypoint
	ThumbTip  detector.Keypoint
	IndexTip  detector.Keypoint
	Direction control.Direction
	Pinch     bool
}

// NewFrame builds a frame from an observation and its classification.
func NewFrame(index int, obs detector.Observation, res gesture.Result) Frame {
	f := Frame{
		Index:     index,
		Direction: res.Direction,
		Pinch:     res.Pinching,
	}
	if obs.Hand != nil {
		f.HasHand = true
		f.Wrist = obs.Hand.Wrist()
		f.ThumbTip = obs.Hand.ThumbTip()
		f.IndexTip = obs.Hand.IndexTip()
	}
	return f
}

// Observation rebuilds a detector observation from the frame. Landmarks
// that were not recorded are placed on the wrist.
func (f Frame) Observation() detector.Observation {
	if !f.HasHand {
		return detector.Observation{}
	}
	h := &detector.Hand{Score: 1}
	for i := range h.Points {
		h.Points[i] = f.Wrist
	}
	h.Points[detector.ThumbTip] = f.ThumbTip
	h.Points[detector.IndexTip] = f.IndexTip
	return detector.Observation{Hand: h}
}

// Observations converts recorded frames for a ScriptedDetector.
func Observations(frames []Frame) []detector.Observation {
	obs := make([]detector.Observation, len(frames))
	for i, f := range frames {
		obs[i] = f.Observation()
	}
	return obs
}

// TraceRepository provides CRUD operations for trace sessions and frames.
type TraceRepository struct {
	db *sql.DB
}

// Traces returns the trace repository for this store.
func (s *Store) Traces() *TraceRepository {
	return &TraceRepository{db: s.db}
}

// Create starts a new empty session.
func (r *TraceRepository) Create(label string) (*Session, error) {
	sess := &Session{
		ID:        uuid.NewString(),
		Label:     label,
		StartedAt: time.Now().UTC(),
	}

	_, err := r.db.Exec(
		`INSERT INTO trace_sessions (id, label, frames, started_at) VALUES (?, ?, 0, ?)`,
		sess.ID, sess.Label, sess.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return sess, nil
}

// Get retrieves a session by its ID.
func (r *TraceRepository) Get(id string) (*Session, error) {
	sess := &Session{}
	err := r.db.QueryRow(
		`SELECT id, label, frames, started_at FROM trace_sessions WHERE id = ?`,
		id,
	).Scan(&sess.ID, &sess.Label, &sess.Frames, &sess.StartedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return sess, nil
}

// Append inserts frames for a session in a single transaction and bumps the
// session's frame count.
func (r *TraceRepository) Append(sessionID string, frames []Frame) error {
	if len(frames) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE trace_sessions SET frames = frames + ? WHERE id = ?`, len(frames), sessionID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}

	stmt, err := tx.Prepare(
		`INSERT INTO trace_frames
		 (session_id, frame_index, has_hand, wrist_x, wrist_y, thumb_x, thumb_y, index_x, index_y, direction, pinch)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range frames {
		_, err := stmt.Exec(
			sessionID, f.Index, f.HasHand,
			f.Wrist.X, f.Wrist.Y, f.ThumbTip.X, f.ThumbTip.Y, f.IndexTip.X, f.IndexTip.Y,
			f.Direction.String(), f.Pinch,
		)
		if err != nil {
			return fmt.Errorf("insert frame %d: %w", f.Index, err)
		}
	}

	return tx.Commit()
}

// Frames retrieves all frames of a session in recording order.
func (r *TraceRepository) Frames(sessionID string) ([]Frame, error) {
	if _, err := r.Get(sessionID); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		`SELECT frame_index, has_hand, wrist_x, wrist_y, thumb_x, thumb_y, index_x, index_y, direction, pinch
		 FROM trace_frames
		 WHERE session_id = ?
		 ORDER BY frame_index`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []Frame
	for rows.Next() {
		var f Frame
		var dir string
		err := rows.Scan(
			&f.Index, &f.HasHand,
			&f.Wrist.X, &f.Wrist.Y, &f.ThumbTip.X, &f.ThumbTip.Y, &f.IndexTip.X, &f.IndexTip.Y,
			&dir, &f.Pinch,
		)
		if err != nil {
			return nil, err
		}
		if f.Direction, err = control.ParseDirection(dir); err != nil {
			return nil, fmt.Errorf("frame %d: %w", f.Index, err)
		}
		frames = append(frames, f)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return frames, nil
}

// List retrieves all sessions, newest first.
func (r *TraceRepository) List() ([]Session, error) {
	rows, err := r.db.Query(
		`SELECT id, label, frames, started_at FROM trace_sessions ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.Label, &s.Frames, &s.StartedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Delete removes a session and its frames.
func (r *TraceRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM trace_sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
