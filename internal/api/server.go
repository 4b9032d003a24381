package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/banshee-data/angle.report/internal/alert"
	"github.com/banshee-data/angle.report/internal/angles"
	"github.com/banshee-data/angle.report/internal/chart"
	"github.com/banshee-data/angle.report/internal/config"
	"github.com/banshee-data/angle.report/internal/db"
	"github.com/banshee-data/angle.report/internal/httputil"
	"github.com/banshee-data/angle.report/internal/mailbox"
	"github.com/banshee-data/angle.report/internal/overlay"
	"github.com/banshee-data/angle.report/internal/posefeed"
	"github.com/banshee-data/angle.report/internal/session"
	"github.com/banshee-data/angle.report/internal/units"
)

// MailboxStats reports pose mailbox counters.
type MailboxStats interface {
	Stats() mailbox.Stats
}

// FeedStats reports estimator decoder counters.
type FeedStats interface {
	Stats() posefeed.DecoderStats
}

// SessionStore lists persisted sessions. *db.DB implements it.
type SessionStore interface {
	Sessions(ctx context.Context) ([]db.Session, error)
	Samples(ctx context.Context, sessionID string, limit int) ([]db.SampleRow, error)
}

type Server struct {
	handler  *session.Handler
	series   *chart.Series
	warnings *alert.Broadcaster
	mailbox  MailboxStats
	feed     FeedStats
	store    SessionStore
	tuning   *config.TuningConfig
}

// Options wires a Server. Handler and Series are required; the rest may be
// nil.
type Options struct {
	Handler  *session.Handler
	Series   *chart.Series
	Warnings *alert.Broadcaster
	Mailbox  MailboxStats
	Feed     FeedStats
	Store    SessionStore
	Tuning   *config.TuningConfig
}

func NewServer(o Options) *Server {
	tuning := o.Tuning
	if tuning == nil {
		tuning = config.DefaultTuningConfig()
	}
	return &Server{
		handler:  o.Handler,
		series:   o.Series,
		warnings: o.Warnings,
		mailbox:  o.Mailbox,
		feed:     o.Feed,
		store:    o.Store,
		tuning:   tuning,
	}
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/angles", s.listAngles)
	mux.HandleFunc("/api/angles/latest", s.latestAngles)
	mux.HandleFunc("/api/angles/stats", s.angleStats)
	mux.HandleFunc("/api/status", s.showStatus)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/api/reset", s.reset)
	mux.HandleFunc("/api/chart", s.chartHTML)
	mux.HandleFunc("/api/chart.png", s.chartPNG)
	mux.HandleFunc("/api/overlay.png", s.overlayPNG)
	mux.HandleFunc("/api/warnings", s.streamWarnings)
	mux.HandleFunc("/api/sessions", s.listSessions)
	mux.HandleFunc("GET /api/sessions/{id}/samples", s.listSessionSamples)
	return mux
}

// sampleJSON is a sample with its angles in the requested units.
type sampleJSON struct {
	Index      int       `json:"index"`
	Time       time.Time `json:"time"`
	LeftElbow  float64   `json:"left_elbow"`
	RightElbow float64   `json:"right_elbow"`
	LeftKnee   float64   `json:"left_knee"`
	RightKnee  float64   `json:"right_knee"`
}

func toSampleJSON(index int, at time.Time, a angles.Sample, unit string) sampleJSON {
	return sampleJSON{
		Index:      index,
		Time:       at,
		LeftElbow:  units.ConvertAngle(a.LeftElbow, unit),
		RightElbow: units.ConvertAngle(a.RightElbow, unit),
		LeftKnee:   units.ConvertAngle(a.LeftKnee, unit),
		RightKnee:  units.ConvertAngle(a.RightKnee, unit),
	}
}

// requestUnits returns the units query parameter, defaulting to degrees.
func requestUnits(w http.ResponseWriter, r *http.Request) (string, bool) {
	u := r.URL.Query().Get("units")
	if u == "" {
		return units.Degrees, true
	}
	if !units.IsValid(u) {
		httputil.BadRequest(w, fmt.Sprintf("Invalid 'units' parameter: must be one of %s", units.GetValidUnitsString()))
		return "", false
	}
	return u, true
}

func (s *Server) listAngles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	limit, err := httputil.QueryInt(r, "limit", s.tuning.GetHistoryLimit())
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	unit, ok := requestUnits(w, r)
	if !ok {
		return
	}

	history := s.handler.State.History(limit)
	samples := make([]sampleJSON, len(history))
	for i, e := range history {
		samples[i] = toSampleJSON(e.Index, e.Time, e.Sample, unit)
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"units":   unit,
		"visible": s.handler.State.Visible(),
		"total":   s.handler.State.Len(),
		"samples": samples,
	})
}

func (s *Server) latestAngles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	unit, ok := requestUnits(w, r)
	if !ok {
		return
	}
	e, ok := s.handler.State.Latest()
	if !ok {
		httputil.NotFound(w, "no samples yet")
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"units":   unit,
		"visible": s.handler.State.Visible(),
		"sample":  toSampleJSON(e.Index, e.Time, e.Sample, unit),
	})
}

func (s *Server) angleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	unit, ok := requestUnits(w, r)
	if !ok {
		return
	}

	stats := angles.Summarize(s.handler.State.Samples())
	for i := range stats {
		stats[i].Mean = units.ConvertAngle(stats[i].Mean, unit)
		stats[i].StdDev = units.ConvertAngle(stats[i].StdDev, unit)
		stats[i].Min = units.ConvertAngle(stats[i].Min, unit)
		stats[i].Max = units.ConvertAngle(stats[i].Max, unit)
		stats[i].P50 = units.ConvertAngle(stats[i].P50, unit)
		stats[i].P85 = units.ConvertAngle(stats[i].P85, unit)
		stats[i].P98 = units.ConvertAngle(stats[i].P98, unit)
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"units":  unit,
		"joints": stats,
	})
}

type statusJSON struct {
	session.Status
	Mailbox *mailbox.Stats          `json:"mailbox,omitempty"`
	Feed    *posefeed.DecoderStats `json:"feed,omitempty"`
}

func (s *Server) showStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	out := statusJSON{Status: s.handler.State.Status()}
	if s.mailbox != nil {
		st := s.mailbox.Stats()
		out.Mailbox = &st
	}
	if s.feed != nil {
		st := s.feed.Stats()
		out.Feed = &st
		// the estimator may announce readiness before the first frame
		out.ModelReady = out.ModelReady || st.Ready
	}
	httputil.WriteJSONOK(w, out)
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	width, height := s.tuning.GetCaptureSize()
	httputil.WriteJSONOK(w, map[string]interface{}{
		"min_pose_score":      s.tuning.GetMinPoseScore(),
		"min_part_score":      s.tuning.GetMinPartScore(),
		"draw_keypoint_score": s.tuning.GetDrawKeypointScore(),
		"capture_width":       width,
		"capture_height":      height,
		"warning_debounce":    s.tuning.GetWarningDebounce().String(),
		"history_limit":       s.tuning.GetHistoryLimit(),
		"estimator":           s.tuning.GetEstimator(),
	})
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if err := s.handler.Reset(r.Context()); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to reset: %v", err))
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"status": "reset"})
}

func (s *Server) chartHTML(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	var buf bytes.Buffer
	if err := chart.RenderHTML(&buf, s.series, chart.HTMLOptions{}); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func (s *Server) chartPNG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	var buf bytes.Buffer
	if err := chart.RenderPNG(&buf, s.series, chart.PNGOptions{}); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to render chart: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	buf.WriteTo(w)
}

// overlayPNG draws the latest detections onto a frame-sized raster. While
// the body is out of view nothing is drawn.
func (s *Server) overlayPNG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	width, height := s.tuning.GetCaptureSize()
	surface := overlay.NewRasterSurface(width, height)
	if frame := s.handler.State.Frame(); frame.Visible {
		overlay.Draw(surface, frame.Detections, overlay.Options{
			MinKeypointScore: s.tuning.GetDrawKeypointScore(),
			KeypointSize:     s.tuning.GetKeypointSize(),
		})
	}

	var buf bytes.Buffer
	if err := surface.WritePNG(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to render overlay: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	buf.WriteTo(w)
}

func (s *Server) streamWarnings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.warnings == nil {
		httputil.NotFound(w, "warnings are not enabled")
		return
	}

	id, c := s.warnings.Subscribe()
	defer s.warnings.Unsubscribe(id)

	stream, err := httputil.NewEventStream(w)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	for {
		select {
		case msg, ok := <-c:
			if !ok {
				return
			}
			if err := stream.Send("warning", msg); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.store == nil {
		httputil.NotFound(w, "database is disabled")
		return
	}
	sessions, err := s.store.Sessions(r.Context())
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to list sessions: %v", err))
		return
	}
	if sessions == nil {
		sessions = []db.Session{}
	}
	httputil.WriteJSONOK(w, sessions)
}

func (s *Server) listSessionSamples(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		httputil.NotFound(w, "database is disabled")
		return
	}
	limit, err := httputil.QueryInt(r, "limit", s.tuning.GetHistoryLimit())
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	unit, ok := requestUnits(w, r)
	if !ok {
		return
	}

	rows, err := s.store.Samples(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("Failed to list samples: %v", err))
		return
	}
	samples := make([]sampleJSON, len(rows))
	for i, row := range rows {
		samples[i] = toSampleJSON(row.Index, row.RecordedAt, row.Sample, unit)
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"units":   unit,
		"samples": samples,
	})
}
