package api

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/angle.report/internal/monitoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureAccessLog(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() { monitoring.SetLogger(nil) })
	return &lines
}

func TestPaintStatus(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, statusPalette[2] + "200" + ansiReset},
		{302, statusPalette[3] + "302" + ansiReset},
		{404, statusPalette[4] + "404" + ansiReset},
		{500, statusPalette[5] + "500" + ansiReset},
		{101, "101"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, paintStatus(tt.code))
	}
}

func TestAccessLog(t *testing.T) {
	lines := captureAccessLog(t)

	h := AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		io.WriteString(w, "short and stout")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/angles?limit=5", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	require.Len(t, *lines, 1)
	line := (*lines)[0]
	assert.Contains(t, line, "[http] ")
	assert.Contains(t, line, paintStatus(http.StatusTeapot))
	assert.Contains(t, line, "GET")
	assert.Contains(t, line, "/api/angles?limit=5")
	assert.Contains(t, line, " 15B ")
}

func TestAccessLog_ImplicitStatus(t *testing.T) {
	lines := captureAccessLog(t)

	h := AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/reset", nil))

	require.Len(t, *lines, 1)
	assert.Contains(t, (*lines)[0], paintStatus(http.StatusOK))
	assert.Contains(t, (*lines)[0], " 0B ")
}

func TestStatusRecorder_FirstStatusWins(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	rec.Write([]byte("x"))
	rec.WriteHeader(http.StatusInternalServerError)
	assert.Equal(t, http.StatusOK, rec.status)
	assert.Equal(t, int64(1), rec.written)
}

func TestStatusRecorder_Flush(t *testing.T) {
	w := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: w}
	var f http.Flusher = rec
	f.Flush()
	assert.True(t, w.Flushed)
	assert.Same(t, w, rec.Unwrap())
}
