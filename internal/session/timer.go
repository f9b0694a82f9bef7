package session

import "time"

// TimerMode is fixed at session start.
type TimerMode int

const (
	Countdown TimerMode = iota
	CountUp
)

func (m TimerMode) String() string {
	if m == Countdown {
		return "countdown"
	}
	return "count-up"
}

// Timer is a one-second-granularity clock. It holds no goroutine; the
// controller loop calls Tick once per second while the session is active.
//
// A countdown fires onExpire exactly once when it reaches zero and then
// stops for good. A count-up timer never expires.
type Timer struct {
	mode     TimerMode
	seconds  int
	running  bool
	fired    bool
	onExpire func()
}

// NewCountdown returns a suspended countdown from seconds.
func NewCountdown(seconds int, onExpire func()) *Timer {
	return &Timer{mode: Countdown, seconds: seconds, onExpire: onExpire}
}

// NewCountUp returns a suspended count-up timer at zero.
func NewCountUp() *Timer {
	return &Timer{mode: CountUp}
}

// Resume starts or restarts ticking. An expired countdown stays stopped.
func (t *Timer) Resume() {
	if t.fired {
		return
	}
	t.running = true
}

// Suspend stops ticking until Resume.
func (t *Timer) Suspend() { t.running = false }

// Tick advances by one second and reports whether this tick expired the
// countdown. Ticks while suspended are ignored.
func (t *Timer) Tick() bool {
	if !t.running {
		return false
	}
	if t.mode == CountUp {
		t.seconds++
		return false
	}

	if t.seconds > 0 {
		t.seconds--
	}
	if t.seconds > 0 {
		return false
	}

	t.running = false
	if t.fired {
		return false
	}
	t.fired = true
	if t.onExpire != nil {
		t.onExpire()
	}
	return true
}

func (t *Timer) Mode() TimerMode { return t.mode }

// Seconds is the remaining time for a countdown, elapsed time for count-up.
func (t *Timer) Seconds() int { return t.seconds }

// Duration is Seconds as a time.Duration.
func (t *Timer) Duration() time.Duration { return time.Duration(t.seconds) * time.Second }

func (t *Timer) Running() bool { return t.running }

// Expired reports whether a countdown has fired.
func (t *Timer) Expired() bool { return t.fired }
