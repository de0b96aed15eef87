// Package resendtimer is the client-side countdown that gates the "resend code" action.
// It is advisory only: the server decides expiry on its own clock.
package resendtimer

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

// DefaultDuration matches the server's code lifetime.
const DefaultDuration = 300 * time.Second

// Ticker delivers one tick per interval. *time.Ticker satisfies it through NewTicker.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewTicker wraps time.NewTicker.
func NewTicker(d time.Duration) Ticker { return realTicker{time.NewTicker(d)} }

// Option configures a Timer.
type Option func(*Timer)

// WithDuration sets the countdown length. Non-positive values are ignored.
func WithDuration(d time.Duration) Option {
	return func(t *Timer) {
		if d > 0 {
			t.total = d
		}
	}
}

// WithTicker replaces the one-second ticker, for tests.
func WithTicker(newTicker func(time.Duration) Ticker) Option {
	return func(t *Timer) { t.newTicker = newTicker }
}

// OnTick registers fn to run after every tick with the time left. fn must not call Stop.
func OnTick(fn func(remaining time.Duration)) Option {
	return func(t *Timer) { t.onTick = fn }
}

// Timer counts down once per second from its duration to zero. Resend is allowed at zero.
type Timer struct {
	mu        sync.Mutex
	total     time.Duration
	remaining time.Duration
	newTicker func(time.Duration) Ticker
	onTick    func(time.Duration)

	parent context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New returns a stopped timer at zero.
func New(opts ...Option) *Timer {
	t := &Timer{total: DefaultDuration, newTicker: NewTicker}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start begins counting down from the full duration. The countdown ends at zero,
// on Stop, or when ctx is cancelled. Calling Start again restarts it.
func (t *Timer) Start(ctx context.Context) {
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	t.parent = ctx
	t.remaining = t.total
	t.runLocked()
	t.mu.Unlock()
}

// Reset puts the countdown back to the full duration after a fresh code was issued,
// restarting the ticker if it had already reached zero.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.remaining = t.total
	if t.cancel == nil && t.parent != nil && t.parent.Err() == nil {
		t.runLocked()
	}
}

// Stop halts the countdown and waits for the ticker goroutine to exit. The remaining time is kept.
func (t *Timer) Stop() {
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	done := t.done
	t.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Remaining returns the time left before resend is allowed.
func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// CanResend reports whether the countdown has reached zero.
func (t *Timer) CanResend() bool {
	return t.Remaining() <= 0
}

// String renders the remaining time as m:ss.
func (t *Timer) String() string {
	return Format(t.Remaining())
}

func (t *Timer) runLocked() {
	ctx, cancel := context.WithCancel(t.parent)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done
	go t.run(ctx, t.newTicker(time.Second), done)
}

func (t *Timer) run(ctx context.Context, ticker Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			t.release(done)
			return
		case <-ticker.C():
			t.mu.Lock()
			if t.done != done || ctx.Err() != nil {
				t.mu.Unlock()
				return
			}
			if t.remaining > 0 {
				t.remaining -= time.Second
				if t.remaining < 0 {
					t.remaining = 0
				}
			}
			left := t.remaining
			finished := left == 0
			if finished {
				t.cancel()
				t.cancel = nil
			}
			t.mu.Unlock()
			if t.onTick != nil {
				t.onTick(left)
			}
			if finished {
				return
			}
		}
	}
}

func (t *Timer) release(done chan struct{}) {
	t.mu.Lock()
	if t.done == done {
		t.cancel = nil
	}
	t.mu.Unlock()
}

// Format renders d as m:ss, rounding partial seconds up (e.g. 4:59, 0:07).
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(math.Ceil(d.Seconds()))
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
