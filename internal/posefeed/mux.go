// Package posefeed multiplexes the line-oriented link to a pose estimator.
// Each line the estimator writes is fanned out to subscribers; batches of
// detections are decoded and handed to the angle pipeline by a Decoder.
package posefeed

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/banshee-data/angle.report/internal/config"
)

var ErrWriteFailed = fmt.Errorf("failed to write to estimator port")

// maxLineSize bounds a single estimator line. Multi-pose batches with
// skeletons run to tens of kilobytes.
const maxLineSize = 1 << 20

// Feed is the estimator link as seen by the rest of the program.
type Feed interface {
	// Subscribe creates a new channel for receiving lines from the
	// estimator. The ID identifies the channel when unsubscribing.
	Subscribe() (string, chan string)
	// Unsubscribe removes a channel from the list of subscribers.
	Unsubscribe(string)
	// SendCommand writes the provided command to the estimator.
	SendCommand(string) error
	// Monitor reads lines from the estimator and sends them to the
	// subscribers until ctx is done or the link closes.
	Monitor(context.Context) error
	// Close closes all subscribed channels and the underlying port.
	Close() error
	// Initialize forwards the model options to the estimator.
	Initialize(config.EstimatorOptions) error
	// AttachAdminRoutes attaches debugging endpoints under /debug/.
	AttachAdminRoutes(*http.ServeMux)
}

// Mux is a Feed over any Porter.
type Mux[T Porter] struct {
	port         T
	subscribers  map[string]chan string
	subscriberMu sync.Mutex
	commandMu    sync.Mutex
	closing      bool
	closingMu    sync.Mutex
}

// NewMux wraps port.
func NewMux[T Porter](port T) *Mux[T] {
	return &Mux[T]{
		port:        port,
		subscribers: make(map[string]chan string),
	}
}

// randomID generates a random channel ID
func randomID() string {
	return uuid.NewString()
}

func (s *Mux[T]) Subscribe() (string, chan string) {
	id := randomID()
	ch := make(chan string, 1)

	s.closingMu.Lock()
	closing := s.closing
	s.closingMu.Unlock()
	if closing {
		close(ch)
		return id, ch
	}

	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	s.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber from the mux.
func (s *Mux[T]) Unsubscribe(id string) {
	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	if ch, ok := s.subscribers[id]; ok {
		close(ch)
		delete(s.subscribers, id)
	}
}

// EstimatorCommand formats the model options as the estimator's OPTIONS
// command.
func EstimatorCommand(opts config.EstimatorOptions) (string, error) {
	b, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("failed to encode estimator options: %w", err)
	}
	return "OPTIONS " + string(b), nil
}

// Initialize sends the model options once; the estimator answers with a
// ready line followed by detection batches.
func (s *Mux[T]) Initialize(opts config.EstimatorOptions) error {
	command, err := EstimatorCommand(opts)
	if err != nil {
		return err
	}
	if err := s.SendCommand(command); err != nil {
		return fmt.Errorf("failed to send estimator options: %w", err)
	}
	return nil
}

// SendCommand writes a newline-terminated command to the port.
func (s *Mux[T]) SendCommand(command string) error {
	s.commandMu.Lock()
	defer s.commandMu.Unlock()
	if !strings.HasSuffix(command, "\n") {
		command += "\n"
	}
	n, err := s.port.Write([]byte(command))
	if err != nil {
		return err
	}
	if n != len(command) {
		return ErrWriteFailed
	}
	return nil
}

// Monitor reads lines from the port and fans them out to subscribers. A
// subscriber that is not ready misses the line.
func (s *Mux[T]) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(s.port)
	scan.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// the blocking scan.Scan runs on its own goroutine so the loop below can
	// still observe cancellation
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			if !ok {
				select {
				case err := <-scanErrChan:
					return err
				default:
				}
				return nil
			}
			s.closingMu.Lock()
			if s.closing {
				s.closingMu.Unlock()
				return nil
			}
			s.closingMu.Unlock()

			s.subscriberMu.Lock()
			for _, ch := range s.subscribers {
				select {
				case ch <- line:
				default:
				}
			}
			s.subscriberMu.Unlock()
		}
	}
}

func (s *Mux[T]) Close() error {
	s.closingMu.Lock()
	s.closing = true
	s.closingMu.Unlock()

	s.subscriberMu.Lock()
	defer s.subscriberMu.Unlock()
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	return s.port.Close()
}
