// Package chart holds the live angle series and renders it as an HTML
// (go-echarts) or PNG (gonum/plot) line chart.
package chart

import (
	"sync"
)

// Sink receives one (index, value) point per produced angle sample.
type Sink interface {
	Append(index int, value float64)
}

// Point is one plotted value. X is the running sample index.
type Point struct {
	X int     `json:"x"`
	Y float64 `json:"y"`
}

// Series is an in-memory, append-only chart series safe for one writer and
// many readers.
type Series struct {
	mu     sync.RWMutex
	label  string
	color  string
	points []Point
}

// NewSeries returns an empty series drawn with the given legend label and
// CSS colour.
func NewSeries(label, color string) *Series {
	return &Series{label: label, color: color}
}

// Label returns the legend label.
func (s *Series) Label() string { return s.label }

// Color returns the line colour.
func (s *Series) Color() string { return s.color }

// Append adds a point. It implements Sink.
func (s *Series) Append(index int, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append(s.points, Point{X: index, Y: value})
}

// Points returns a copy of the series.
func (s *Series) Points() []Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Len returns the number of points.
func (s *Series) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

// Reset removes every point.
func (s *Series) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = nil
}
