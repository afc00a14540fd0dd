// Package voice abstracts speech output and recognized speech input.
package voice

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// ErrQueueFull is returned when recognized commands arrive faster than they are handled.
var ErrQueueFull = errors.New("voice: command queue full")

// Output speaks a message to the driver.
type Output interface {
	Speak(text string)
}

// Input yields recognized utterances.
type Input interface {
	Recognize(ctx context.Context) (string, error)
}

// Speaker is an Output that only speaks while voice is enabled.
// Spoken lines are logged and handed to the sink, if any.
type Speaker struct {
	enabled atomic.Bool
	logger  *zap.Logger

	mu   sync.RWMutex
	sink func(text string)
}

// NewSpeaker returns a speaker; enabled is the initial voice setting.
func NewSpeaker(enabled bool, logger *zap.Logger) *Speaker {
	s := &Speaker{logger: logger}
	s.enabled.Store(enabled)
	return s
}

// SetSink registers where spoken text is delivered, typically connected browsers.
func (s *Speaker) SetSink(sink func(text string)) {
	s.mu.Lock()
	s.sink = sink
	s.mu.Unlock()
}

// SetEnabled toggles voice output.
func (s *Speaker) SetEnabled(enabled bool) {
	s.enabled.Store(enabled)
}

// Enabled reports the voice setting.
func (s *Speaker) Enabled() bool {
	return s.enabled.Load()
}

// Speak delivers text when voice is enabled and drops it otherwise.
func (s *Speaker) Speak(text string) {
	if !s.enabled.Load() {
		return
	}
	s.logger.Info("voice assistant", zap.String("text", text))

	s.mu.RLock()
	sink := s.sink
	s.mu.RUnlock()
	if sink != nil {
		sink(text)
	}
}

// Nop discards everything.
type Nop struct{}

// Speak implements Output.
func (Nop) Speak(string) {}

// QueueInput is an Input fed by transcripts submitted over HTTP or websocket.
type QueueInput struct {
	ch chan string
}

// NewQueueInput buffers up to size pending commands.
func NewQueueInput(size int) *QueueInput {
	if size <= 0 {
		size = 16
	}
	return &QueueInput{ch: make(chan string, size)}
}

// Submit enqueues a transcript without blocking.
func (q *QueueInput) Submit(text string) error {
	select {
	case q.ch <- text:
		return nil
	default:
		return ErrQueueFull
	}
}

// Recognize blocks until a transcript is available or ctx ends.
func (q *QueueInput) Recognize(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case text := <-q.ch:
		return text, nil
	}
}
