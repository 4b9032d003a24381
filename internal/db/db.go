package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/angle.report/internal/angles"
	"github.com/banshee-data/angle.report/internal/monitoring"
)

var logf = monitoring.Component("db")

// ErrNoSession is returned when a sample is recorded before StartSession.
var ErrNoSession = errors.New("no active session")

type DB struct {
	*sql.DB

	mu      sync.Mutex
	session string
}

// Session is one run of the pipeline between resets.
type Session struct {
	ID           string    `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	MinPoseScore float64   `json:"min_pose_score"`
	MinPartScore float64   `json:"min_part_score"`
	Samples      int       `json:"samples"`
}

// SampleRow is a stored sample.
type SampleRow struct {
	SessionID  string        `json:"session_id"`
	Index      int           `json:"index"`
	RecordedAt time.Time     `json:"recorded_at"`
	Sample     angles.Sample `json:"sample"`
}

// NewDB opens the sqlite database at path and applies the embedded
// migrations.
func NewDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := applyPragmas(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	db := &DB{DB: sqlDB}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func applyPragmas(db *sql.DB) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	return nil
}

// StartSession creates a new session and makes it the target of
// RecordSample.
func (db *DB) StartSession(ctx context.Context, th angles.Thresholds) (string, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, started_ns, min_pose, min_part) VALUES (?, ?, ?, ?)`,
		id, time.Now().UnixNano(), th.MinPoseScore, th.MinPartScore,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert session: %w", err)
	}

	db.mu.Lock()
	db.session = id
	db.mu.Unlock()
	logf("session %s started", id)
	return id, nil
}

// CurrentSession returns the active session ID, or "" before StartSession.
func (db *DB) CurrentSession() string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.session
}

// RecordSample stores one sample in the active session.
func (db *DB) RecordSample(ctx context.Context, index int, at time.Time, s angles.Sample) error {
	session := db.CurrentSession()
	if session == "" {
		return ErrNoSession
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO samples (
			session_id, sample_index, recorded_ns, left_elbow, right_elbow, left_knee, right_knee
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session, index, at.UnixNano(), s.LeftElbow, s.RightElbow, s.LeftKnee, s.RightKnee,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sample: %w", err)
	}
	return nil
}

// Samples returns up to limit of the most recent samples of a session,
// oldest first. limit <= 0 returns all of them.
func (db *DB) Samples(ctx context.Context, sessionID string, limit int) ([]SampleRow, error) {
	query := `SELECT session_id, sample_index, recorded_ns, left_elbow, right_elbow, left_knee, right_knee
		FROM samples WHERE session_id = ? ORDER BY sample_index DESC`
	args := []any{sessionID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SampleRow
	for rows.Next() {
		var r SampleRow
		var ns int64
		if err := rows.Scan(
			&r.SessionID, &r.Index, &ns,
			&r.Sample.LeftElbow, &r.Sample.RightElbow, &r.Sample.LeftKnee, &r.Sample.RightKnee,
		); err != nil {
			return nil, err
		}
		r.RecordedAt = time.Unix(0, ns).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// reverse into chronological order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Sessions lists sessions, newest first, with their sample counts.
func (db *DB) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT s.session_id, s.started_ns, s.min_pose, s.min_part, COUNT(x.sample_index)
		FROM sessions s LEFT JOIN samples x ON x.session_id = s.session_id
		GROUP BY s.session_id
		ORDER BY s.started_ns DESC, s.rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		var ns int64
		if err := rows.Scan(&s.ID, &ns, &s.MinPoseScore, &s.MinPartScore, &s.Samples); err != nil {
			return nil, err
		}
		s.StartedAt = time.Unix(0, ns).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}
