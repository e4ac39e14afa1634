package intake

import "time"

// Clock abstracts wall time so the QR window can be driven by tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) func() bool {
	t := time.AfterFunc(d, f)
	return t.Stop
}

// SystemClock is the real-time clock.
var SystemClock Clock = systemClock{}

// DefaultQRTimeout is how long the QR panel stays open before auto-advancing.
const DefaultQRTimeout = 30 * time.Second

// qrTimer is a single-shot window. Every window gets a new generation; the
// expiry callback only carries its generation back to the owner, which accepts
// it through expire. A window that was cancelled or already fired rejects it.
type qrTimer struct {
	clock    Clock
	timeout  time.Duration
	notify   func(gen uint64)
	gen      uint64
	active   bool
	deadline time.Time
	stop     func() bool
}

func newQRTimer(clock Clock, timeout time.Duration, notify func(uint64)) *qrTimer {
	if clock == nil {
		clock = SystemClock
	}
	if timeout <= 0 {
		timeout = DefaultQRTimeout
	}
	return &qrTimer{clock: clock, timeout: timeout, notify: notify}
}

// start cancels any open window and opens a fresh one.
func (t *qrTimer) start() uint64 {
	t.cancel()
	t.gen++
	gen := t.gen
	t.active = true
	t.deadline = t.clock.Now().Add(t.timeout)
	notify := t.notify
	t.stop = t.clock.AfterFunc(t.timeout, func() {
		if notify != nil {
			notify(gen)
		}
	})
	return gen
}

func (t *qrTimer) cancel() {
	if !t.active {
		return
	}
	t.active = false
	if t.stop != nil {
		t.stop()
		t.stop = nil
	}
}

// expire reports whether gen belongs to the open window, closing it.
func (t *qrTimer) expire(gen uint64) bool {
	if !t.active || gen != t.gen {
		return false
	}
	t.active = false
	t.stop = nil
	return true
}
