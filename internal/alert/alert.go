// Package alert presents the "body not in view" warning to the user.
package alert

import (
	"sync"
	"time"

	"github.com/banshee-data/angle.report/internal/monitoring"
	"github.com/banshee-data/angle.report/internal/timeutil"
)

// OutOfViewMessage is shown while required keypoints are not visible.
const OutOfViewMessage = "Please make sure that all your body parts are in the view of the camera."

// Notifier presents a user-facing warning.
type Notifier interface {
	Warn(message string)
}

// Debounced forwards at most one warning per window to next. The window
// matches the lifetime of the on-screen toast.
type Debounced struct {
	next   Notifier
	clock  timeutil.Clock
	window time.Duration

	mu   sync.Mutex
	last time.Time
	sent bool
}

// NewDebounced wraps next.
func NewDebounced(next Notifier, clock timeutil.Clock, window time.Duration) *Debounced {
	return &Debounced{next: next, clock: clock, window: window}
}

// Warn forwards message unless another warning was forwarded within the
// window.
func (d *Debounced) Warn(message string) {
	d.mu.Lock()
	now := d.clock.Now()
	if d.sent && now.Sub(d.last) < d.window {
		d.mu.Unlock()
		return
	}
	d.last = now
	d.sent = true
	d.mu.Unlock()

	d.next.Warn(message)
}

// LogNotifier writes warnings to the diagnostic log.
type LogNotifier struct{}

var logf = monitoring.Component("alert")

// Warn logs the message.
func (LogNotifier) Warn(message string) {
	logf("%s", message)
}

// Multi fans a warning out to several notifiers.
type Multi []Notifier

// Warn forwards to every notifier in order.
func (m Multi) Warn(message string) {
	for _, n := range m {
		n.Warn(message)
	}
}
