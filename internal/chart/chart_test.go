package chart

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeries_AppendAndPoints(t *testing.T) {
	s := NewSeries("Left Elbow", "green")
	s.Append(0, 90)
	s.Append(1, 45.5)

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []Point{{X: 0, Y: 90}, {X: 1, Y: 45.5}}, s.Points())

	pts := s.Points()
	pts[0].Y = -1
	assert.Equal(t, 90.0, s.Points()[0].Y, "Points must return a copy")

	s.Reset()
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Points())
}

func TestSeries_ConcurrentReaders(t *testing.T) {
	s := NewSeries("Left Elbow", "green")
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			s.Append(i, float64(i))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			_ = s.Points()
		}
	}()
	wg.Wait()
	assert.Equal(t, 500, s.Len())
}

func TestRenderHTML(t *testing.T) {
	s := NewSeries("Left Elbow", "green")
	s.Append(0, 90)
	s.Append(1, 80)

	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, s, HTMLOptions{}))

	html := buf.String()
	assert.True(t, strings.Contains(html, "<html"), "expected an HTML page")
	assert.Contains(t, html, "Left Elbow")
	assert.Contains(t, html, "points=2")
}

func TestRenderPNG(t *testing.T) {
	pngMagic := []byte("\x89PNG\r\n\x1a\n")

	s := NewSeries("Left Elbow", "green")
	var empty bytes.Buffer
	require.NoError(t, RenderPNG(&empty, s, PNGOptions{}))
	assert.True(t, bytes.HasPrefix(empty.Bytes(), pngMagic), "empty series still renders a PNG")

	for i := 0; i < 20; i++ {
		s.Append(i, float64(i*5))
	}
	var buf bytes.Buffer
	require.NoError(t, RenderPNG(&buf, s, PNGOptions{Title: "elbow"}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}
