package clock

import (
	"sync"
	"time"
)

// Fake is a manually driven Clock. Tickers it creates only fire when Tick
// is called on them.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*FakeTicker
}

// NewFake creates a fake clock starting at now
func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the fake time forward
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func (f *Fake) NewTicker(d time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &FakeTicker{
		clock:    f,
		interval: d,
		ch:       make(chan time.Time),
		stopped:  make(chan struct{}),
	}
	f.tickers = append(f.tickers, t)
	return t
}

// Tickers returns every ticker created so far, oldest first
func (f *Fake) Tickers() []*FakeTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*FakeTicker, len(f.tickers))
	copy(out, f.tickers)
	return out
}

// Latest returns the most recently created ticker, or nil
func (f *Fake) Latest() *FakeTicker {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.tickers) == 0 {
		return nil
	}
	return f.tickers[len(f.tickers)-1]
}

// FakeTicker delivers ticks on demand. Its channel is unbuffered, so a
// successful Tick means a receiver took the value.
type FakeTicker struct {
	clock    *Fake
	interval time.Duration
	ch       chan time.Time

	mu       sync.Mutex
	stopped  chan struct{}
	stops    int
	received int
}

func (t *FakeTicker) C() <-chan time.Time {
	return t.ch
}

func (t *FakeTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stops == 0 {
		close(t.stopped)
	}
	t.stops++
}

// Interval returns the period the ticker was created with
func (t *FakeTicker) Interval() time.Duration {
	return t.interval
}

// Stopped reports whether Stop has been called
func (t *FakeTicker) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stops > 0
}

// Delivered returns how many ticks a receiver accepted
func (t *FakeTicker) Delivered() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.received
}

// Tick advances the clock by one interval and offers a tick, waiting at
// most timeout for a receiver. It reports whether the tick was taken.
func (t *FakeTicker) Tick(timeout time.Duration) bool {
	t.clock.Advance(t.interval)
	now := t.clock.Now()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case t.ch <- now:
		t.mu.Lock()
		t.received++
		t.mu.Unlock()
		return true
	case <-t.stopped:
		return false
	case <-timer.C:
		return false
	}
}
