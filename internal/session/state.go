// Package session owns the per-run angle state: the sample history, the
// latest detections and the visibility flag. A single Handler writes it;
// HTTP, gRPC and render readers get copies.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/angle.report/internal/angles"
	"github.com/banshee-data/angle.report/internal/pose"
)

// Entry is one appended sample.
type Entry struct {
	Index  int           `json:"index"`
	Time   time.Time     `json:"time"`
	Sample angles.Sample `json:"sample"`
}

// Update is delivered to subscribers after every handled batch.
type Update struct {
	Result angles.Result
	// Entry is set only when Result is Visible.
	Entry *Entry
}

// Status is a snapshot of the session for status reporting.
type Status struct {
	Visible    bool      `json:"visible"`
	State      string    `json:"state"`
	Reason     string    `json:"reason,omitempty"`
	Part       pose.Part `json:"part,omitempty"`
	HistoryLen int       `json:"history_len"`
	ModelReady bool      `json:"model_ready"`
	Frames     uint64    `json:"frames"`
}

// State holds everything the pipeline has produced for one run. The zero value
// is not usable; use NewState.
type State struct {
	mu         sync.RWMutex
	history    []Entry
	detections []pose.Detection
	last       angles.Result
	ready      bool
	frames     uint64

	subMu       sync.Mutex
	subscribers map[string]chan Update
}

// NewState returns an empty, Occluded state.
func NewState() *State {
	return &State{subscribers: make(map[string]chan Update)}
}

// record stores the outcome of one batch. A Visible result appends an entry
// stamped with now; an Occluded result leaves the history untouched.
func (s *State) record(detections []pose.Detection, res angles.Result, now time.Time) *Entry {
	s.mu.Lock()
	s.detections = detections
	s.last = res
	s.ready = true
	s.frames++
	var e *Entry
	if res.Visible() {
		s.history = append(s.history, Entry{Index: len(s.history), Time: now, Sample: res.Sample})
		cp := s.history[len(s.history)-1]
		e = &cp
	}
	s.mu.Unlock()

	s.publish(Update{Result: res, Entry: e})
	return e
}

// History returns up to limit of the most recent entries, oldest first.
// limit <= 0 returns everything.
func (s *State) History(limit int) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h := s.history
	if limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	out := make([]Entry, len(h))
	copy(out, h)
	return out
}

// Samples returns every sample in history order.
func (s *State) Samples() []angles.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]angles.Sample, len(s.history))
	for i, e := range s.history {
		out[i] = e.Sample
	}
	return out
}

// Len returns the number of samples in history.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// Latest returns the most recent entry, if any.
func (s *State) Latest() (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.history) == 0 {
		return Entry{}, false
	}
	return s.history[len(s.history)-1], true
}

// Result returns the outcome of the most recent batch.
func (s *State) Result() angles.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Visible reports whether the most recent batch was Visible.
func (s *State) Visible() bool {
	return s.Result().Visible()
}

// Frame is the most recent batch together with its visibility, read under
// one lock so the two always describe the same batch.
type Frame struct {
	Visible bool
	// Detections is shared with the handler and must not be modified.
	Detections []pose.Detection
}

// Frame returns the most recent batch and whether it was Visible.
func (s *State) Frame() Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Frame{Visible: s.last.Visible(), Detections: s.detections}
}

// Status returns a snapshot for the status endpoint.
func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{
		Visible:    s.last.Visible(),
		State:      s.last.State.String(),
		HistoryLen: len(s.history),
		ModelReady: s.ready,
		Frames:     s.frames,
	}
	if !st.Visible && s.ready {
		st.Reason = s.last.Reason.String()
		st.Part = s.last.Part
	}
	return st
}

// Reset clears the history. Visibility and readiness are kept.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

// Subscribe returns a channel of updates. Slow subscribers miss updates
// rather than stall the handler.
func (s *State) Subscribe() (string, <-chan Update) {
	id := uuid.NewString()
	ch := make(chan Update, 16)

	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes and closes a subscriber channel.
func (s *State) Unsubscribe(id string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if ch, ok := s.subscribers[id]; ok {
		close(ch)
		delete(s.subscribers, id)
	}
}

func (s *State) publish(u Update) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- u:
		default:
		}
	}
}
