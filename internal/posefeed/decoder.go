package posefeed

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/banshee-data/angle.report/internal/mailbox"
	"github.com/banshee-data/angle.report/internal/monitoring"
	"github.com/banshee-data/angle.report/internal/pose"
)

var logf = monitoring.Component("posefeed")

const (
	LineTypeBatch   = "batch"
	LineTypeReady   = "ready"
	LineTypeComment = "comment"
	LineTypeUnknown = "unknown"
)

// ClassifyLine returns the kind of an estimator line. Batches are JSON
// arrays or objects; the estimator announces a loaded model with READY.
func ClassifyLine(line string) string {
	line = strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(line, "[") || strings.HasPrefix(line, "{"):
		return LineTypeBatch
	case strings.EqualFold(line, "ready"):
		return LineTypeReady
	case line == "" || strings.HasPrefix(line, "#"):
		return LineTypeComment
	default:
		return LineTypeUnknown
	}
}

// DecoderStats counts what the decoder has seen.
type DecoderStats struct {
	Lines   uint64 `json:"lines"`
	Batches uint64 `json:"batches"`
	Errors  uint64 `json:"errors"`
	Ready   bool   `json:"ready"`
}

// Decoder turns estimator lines into detection batches and puts each one in
// a latest-wins slot.
type Decoder struct {
	feed  Feed
	id    string
	lines chan string
	slot  *mailbox.Slot[[]pose.Detection]

	linesSeen atomic.Uint64
	batches   atomic.Uint64
	errors    atomic.Uint64
	ready     atomic.Bool
}

// NewDecoder subscribes to feed immediately so no line written after it
// returns is missed.
func NewDecoder(feed Feed, slot *mailbox.Slot[[]pose.Detection]) *Decoder {
	id, lines := feed.Subscribe()
	return &Decoder{feed: feed, id: id, lines: lines, slot: slot}
}

// Run decodes lines until ctx is done or the feed closes the subscription.
func (d *Decoder) Run(ctx context.Context) error {
	defer d.feed.Unsubscribe(d.id)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-d.lines:
			if !ok {
				return nil
			}
			d.HandleLine(line)
		}
	}
}

// HandleLine processes a single line. Undecodable batches are logged and
// counted, never fatal.
func (d *Decoder) HandleLine(line string) {
	d.linesSeen.Add(1)
	switch ClassifyLine(line) {
	case LineTypeBatch:
		detections, err := pose.DecodeBatch([]byte(line))
		if err != nil {
			d.errors.Add(1)
			logf("dropping undecodable batch: %v", err)
			return
		}
		if !d.ready.Swap(true) {
			logf("estimator model ready")
		}
		d.batches.Add(1)
		d.slot.Put(detections)
	case LineTypeReady:
		if !d.ready.Swap(true) {
			logf("estimator model ready")
		}
	case LineTypeComment:
	default:
		logf("unknown estimator line: %q", line)
	}
}

// Stats returns the decoder counters.
func (d *Decoder) Stats() DecoderStats {
	return DecoderStats{
		Lines:   d.linesSeen.Load(),
		Batches: d.batches.Load(),
		Errors:  d.errors.Load(),
		Ready:   d.ready.Load(),
	}
}
