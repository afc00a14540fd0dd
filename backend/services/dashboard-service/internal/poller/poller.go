// Package poller runs a fetch on a fixed interval with last-request-wins semantics.
package poller

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"evsense/backend/services/dashboard-service/internal/loop"
	"evsense/backend/services/dashboard-service/internal/models"
)

// Kind classifies a fetch outcome.
type Kind int

const (
	Success Kind = iota
	Empty
	Failure
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Empty:
		return "empty"
	default:
		return "failure"
	}
}

// Outcome is delivered on the loop for the most recent request only.
type Outcome[T any] struct {
	Kind  Kind
	Value T
	Err   error
	Seq   uint64
}

// Message is the user-visible failure text.
func (o Outcome[T]) Message() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// FetchFunc performs one request. Return models.ErrEmptyResult for a valid empty response.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Observer receives poll accounting.
type Observer interface {
	ObservePoll(feed string, kind Kind)
	ObserveDiscard(feed string)
}

// Poller issues fetches immediately and then every interval. All methods except
// the constructor must run on the owning loop.
type Poller[T any] struct {
	name      string
	loop      *loop.Loop
	interval  time.Duration
	fetch     FetchFunc[T]
	onOutcome func(Outcome[T])
	observer  Observer
	logger    *zap.Logger

	seq     uint64
	cancel  context.CancelFunc
	timer   *loop.Timer
	running bool
}

// New builds a stopped poller.
func New[T any](name string, l *loop.Loop, interval time.Duration, fetch FetchFunc[T], onOutcome func(Outcome[T]), observer Observer, logger *zap.Logger) *Poller[T] {
	return &Poller[T]{
		name:      name,
		loop:      l,
		interval:  interval,
		fetch:     fetch,
		onOutcome: onOutcome,
		observer:  observer,
		logger:    logger.With(zap.String("feed", name)),
	}
}

// Start issues the first fetch and arms the interval timer. Starting twice is a no-op.
func (p *Poller[T]) Start() {
	if p.running {
		return
	}
	p.running = true
	p.Tick()
	p.timer = p.loop.Every(p.interval, p.Tick)
}

// Tick cancels the in-flight fetch, if any, and issues a new one.
func (p *Poller[T]) Tick() {
	if !p.running {
		return
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.seq++
	seq := p.seq
	ctx, cancel := context.WithCancel(p.loop.Context())
	p.cancel = cancel

	go func() {
		value, err := p.fetch(ctx)
		p.loop.Post(func() { p.complete(seq, value, err) })
	}()
}

func (p *Poller[T]) complete(seq uint64, value T, err error) {
	if !p.running || seq != p.seq {
		p.logger.Debug("discarding superseded outcome", zap.Uint64("seq", seq), zap.Uint64("current", p.seq))
		if p.observer != nil {
			p.observer.ObserveDiscard(p.name)
		}
		return
	}
	p.cancel()
	p.cancel = nil

	out := Outcome[T]{Seq: seq}
	switch {
	case err == nil:
		out.Kind = Success
		out.Value = value
	case errors.Is(err, models.ErrEmptyResult):
		out.Kind = Empty
	default:
		out.Kind = Failure
		out.Err = err
		p.logger.Warn("poll failed", zap.Error(err))
	}
	if p.observer != nil {
		p.observer.ObservePoll(p.name, out.Kind)
	}
	p.onOutcome(out)
}

// Stop halts the timer and aborts the in-flight fetch. No outcome is delivered afterwards.
func (p *Poller[T]) Stop() {
	if !p.running {
		return
	}
	p.running = false
	p.timer.Stop()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// Running reports whether the poller is started.
func (p *Poller[T]) Running() bool {
	return p.running
}
