// Package debounce delays propagation of a rapidly changing value until it
// has been stable for a fixed interval.
package debounce

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler runs f once after d. The returned function cancels the pending
// call and reports whether it was still pending.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// RealScheduler returns a Scheduler backed by time.AfterFunc.
func RealScheduler() Scheduler { return realScheduler{} }

// Option configures a Debouncer.
type Option func(*options)

type options struct {
	scheduler Scheduler
	logger    *zap.Logger
}

// WithScheduler overrides the timer source (tests use a manual clock).
func WithScheduler(s Scheduler) Option {
	return func(o *options) { o.scheduler = s }
}

// WithLogger attaches a logger for settle events.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Debouncer holds a debounced copy of an input value. The output only moves
// to the latest input once delay elapses with no further input change.
type Debouncer[T comparable] struct {
	mu        sync.Mutex
	delay     time.Duration
	scheduler Scheduler
	logger    *zap.Logger

	input   T
	output  T
	gen     uint64
	cancel  func() bool
	stopped bool

	subs   map[int]func(T)
	nextID int
}

// New returns a Debouncer whose output starts at initial.
func New[T comparable](initial T, delay time.Duration, opts ...Option) *Debouncer[T] {
	o := options{scheduler: RealScheduler(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if delay < 0 {
		delay = 0
	}
	return &Debouncer[T]{
		delay:     delay,
		scheduler: o.scheduler,
		logger:    o.logger,
		input:     initial,
		output:    initial,
		subs:      make(map[int]func(T)),
	}
}

// Set records a new input value and restarts the timer. The output is never
// updated synchronously, even with a zero delay.
func (d *Debouncer[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || v == d.input {
		return
	}
	d.input = v

	if d.cancel != nil {
		d.cancel()
	}
	d.gen++
	gen := d.gen
	d.cancel = d.scheduler.AfterFunc(d.delay, func() { d.fire(gen) })
}

// fire settles the output if gen is still the latest scheduled timer.
// Superseded timers that could not be cancelled in time land here and drop.
func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.cancel = nil
	if d.output == d.input {
		d.mu.Unlock()
		return
	}
	d.output = d.input
	value := d.output
	subs := make([]func(T), 0, len(d.subs))
	for _, fn := range d.subs {
		subs = append(subs, fn)
	}
	d.mu.Unlock()

	d.logger.Debug("debounced value settled", zap.Any("value", value))
	for _, fn := range subs {
		fn(value)
	}
}

// Value returns the current debounced output.
func (d *Debouncer[T]) Value() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.output
}

// Pending returns the latest input, which may not have settled yet.
func (d *Debouncer[T]) Pending() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.input
}

// Subscribe registers fn to receive every settled output. The returned
// function removes the subscription.
func (d *Debouncer[T]) Subscribe(fn func(T)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextID
	d.nextID++
	d.subs[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.subs, id)
	}
}

// Stop cancels any pending timer. No output update happens after Stop returns.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.gen++
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}
