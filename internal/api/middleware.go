package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/angle.report/internal/monitoring"
)

var accessLogf = monitoring.Component("http")

const (
	ansiReset = "\033[0m"
	ansiPath  = "\033[36m"
)

// statusPalette colours a response status by its class (code / 100).
var statusPalette = map[int]string{
	2: "\033[1;32m",
	3: "\033[33m",
	4: "\033[1;31m",
	5: "\033[1;31m",
}

func paintStatus(code int) string {
	s := strconv.Itoa(code)
	if c, ok := statusPalette[code/100]; ok {
		return c + s + ansiReset
	}
	return s
}

// statusRecorder remembers the status and counts body bytes on the way out.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int64
}

func (rec *statusRecorder) WriteHeader(code int) {
	if rec.status == 0 {
		rec.status = code
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(b)
	rec.written += int64(n)
	return n, err
}

// Flush keeps the SSE warning stream working behind AccessLog.
func (rec *statusRecorder) Flush() {
	if f, ok := rec.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rec *statusRecorder) Unwrap() http.ResponseWriter { return rec.ResponseWriter }

// AccessLog writes one line per request: status, method, URI, body size and
// elapsed time.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		accessLogf("%s %s %s%s%s %dB %s",
			paintStatus(rec.status), r.Method,
			ansiPath, r.RequestURI, ansiReset,
			rec.written, time.Since(start).Round(time.Microsecond))
	})
}
