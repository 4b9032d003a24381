package posefeed

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/banshee-data/angle.report/internal/timeutil"
)

// ReplayPort is a Porter that writes recorded estimator lines on every
// clock tick, cycling through them until closed. Commands written to it are
// kept for inspection.
type ReplayPort struct {
	r *io.PipeReader
	w *io.PipeWriter

	mu       sync.Mutex
	commands bytes.Buffer

	stop chan struct{}
	once sync.Once
}

// NewReplayPort starts replaying lines at the given interval.
func NewReplayPort(lines []string, clock timeutil.Clock, interval time.Duration) *ReplayPort {
	r, w := io.Pipe()
	p := &ReplayPort{r: r, w: w, stop: make(chan struct{})}
	ticker := clock.NewTicker(interval)
	go p.run(lines, ticker)
	return p
}

func (p *ReplayPort) run(lines []string, ticker timeutil.Ticker) {
	defer p.w.Close()
	defer ticker.Stop()
	if len(lines) == 0 {
		<-p.stop
		return
	}

	for i := 0; ; i = (i + 1) % len(lines) {
		select {
		case <-p.stop:
			return
		case <-ticker.C():
		}
		if _, err := io.WriteString(p.w, lines[i]+"\n"); err != nil {
			return
		}
	}
}

func (p *ReplayPort) Read(b []byte) (int, error) { return p.r.Read(b) }

func (p *ReplayPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.commands.Write(b)
}

// Commands returns everything written to the port.
func (p *ReplayPort) Commands() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.commands.String()
}

func (p *ReplayPort) Close() error {
	p.once.Do(func() {
		close(p.stop)
		p.r.Close()
	})
	return nil
}

// NewReplayMux returns a Mux replaying lines, for development without an
// estimator attached.
func NewReplayMux(lines []string, clock timeutil.Clock, interval time.Duration) *Mux[*ReplayPort] {
	return NewMux(NewReplayPort(lines, clock, interval))
}

// LoadFixtures reads a JSON-lines fixtures file. Blank lines and lines
// starting with # are skipped.
func LoadFixtures(path string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open fixtures: %w", err)
	}
	defer f.Close()

	var lines []string
	scan := bufio.NewScanner(f)
	scan.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scan.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no fixtures in %s", path)
	}
	return lines, nil
}
