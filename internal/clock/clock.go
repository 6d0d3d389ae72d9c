package clock

import "time"

// Ticker is the part of *time.Ticker the poll loops need
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock is an interface for getting the current time and creating tickers.
// This allows injecting a fake clock for deterministic testing.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Real implements Clock using the system time
type Real struct{}

func (Real) Now() time.Time {
	return time.Now()
}

func (Real) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time {
	return r.t.C
}

func (r realTicker) Stop() {
	r.t.Stop()
}

// OrReal returns c if non-nil, otherwise the system clock
func OrReal(c Clock) Clock {
	if c == nil {
		return Real{}
	}
	return c
}
