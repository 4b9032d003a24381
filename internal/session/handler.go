package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/angle.report/internal/alert"
	"github.com/banshee-data/angle.report/internal/angles"
	"github.com/banshee-data/angle.report/internal/chart"
	"github.com/banshee-data/angle.report/internal/mailbox"
	"github.com/banshee-data/angle.report/internal/monitoring"
	"github.com/banshee-data/angle.report/internal/pose"
	"github.com/banshee-data/angle.report/internal/timeutil"
)

var logf = monitoring.Component("session")

// Store persists samples. internal/db implements it.
type Store interface {
	RecordSample(ctx context.Context, index int, at time.Time, s angles.Sample) error
}

// SessionStarter is implemented by stores that group samples by session.
// Reset starts a new one since sample indices restart at zero.
type SessionStarter interface {
	StartSession(ctx context.Context, th angles.Thresholds) (string, error)
}

// Resetter is implemented by chart sinks that can be cleared.
type Resetter interface {
	Reset()
}

// Handler runs the angle pipeline for each pose batch and is the only
// writer of its State. Chart, Notifier and Store are optional.
//
// HandleDetections and Reset are serialized: a frame is never split across
// a reset, so it lands wholly in the old session or wholly in the new one.
type Handler struct {
	State      *State
	Thresholds angles.Thresholds
	Chart      chart.Sink
	Notifier   alert.Notifier
	Store      Store
	Clock      timeutil.Clock

	mu      sync.Mutex
	tracker angles.Tracker
}

// NewHandler returns a handler over a fresh State with the default
// thresholds and the real clock.
func NewHandler() *Handler {
	return &Handler{
		State:      NewState(),
		Thresholds: angles.DefaultThresholds(),
		Clock:      timeutil.RealClock{},
	}
}

// HandleDetections processes one batch. When the frame is Visible exactly
// one entry is appended and the left elbow angle is sent to the chart; when
// it is Occluded the history is untouched and the notifier is warned.
func (h *Handler) HandleDetections(ctx context.Context, detections []pose.Detection) angles.Result {
	h.mu.Lock()
	defer h.mu.Unlock()

	res := angles.Derive(detections, h.Thresholds)

	if tr := h.tracker.Observe(res.State); tr.Changed() {
		if res.Visible() {
			logf("body in view")
		} else {
			logf("body out of view: %s %s", res.Reason, res.Part)
		}
	}

	e := h.State.record(detections, res, h.now())
	if e == nil {
		if h.Notifier != nil {
			h.Notifier.Warn(alert.OutOfViewMessage)
		}
		return res
	}

	if h.Chart != nil {
		h.Chart.Append(e.Index, e.Sample.LeftElbow)
	}
	if h.Store != nil {
		if err := h.Store.RecordSample(ctx, e.Index, e.Time, e.Sample); err != nil {
			logf("failed to record sample %d: %v", e.Index, err)
		}
	}
	return res
}

// Reset starts a new store session when the store supports it, then clears
// the history and the chart. If the session cannot be started nothing is
// cleared, so indices keep counting inside the current session.
func (h *Handler) Reset(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s, ok := h.Store.(SessionStarter); ok {
		id, err := s.StartSession(ctx, h.Thresholds)
		if err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
		logf("started session %s", id)
	}
	h.State.Reset()
	if r, ok := h.Chart.(Resetter); ok {
		r.Reset()
	}
	return nil
}

// Run consumes pose batches from slot until ctx is cancelled or the slot is
// closed and drained.
func (h *Handler) Run(ctx context.Context, slot *mailbox.Slot[[]pose.Detection]) error {
	for {
		detections, ok := slot.Take(ctx)
		if !ok {
			if err := ctx.Err(); err != nil {
				return err
			}
			return nil
		}
		h.HandleDetections(ctx, detections)
	}
}

func (h *Handler) now() time.Time {
	if h.Clock == nil {
		return time.Now()
	}
	return h.Clock.Now()
}
