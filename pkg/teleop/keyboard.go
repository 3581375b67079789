package teleop

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Key identifies a recognized control input.
type Key int

const (
	KeyUnknown Key = iota
	KeyForward
	KeyBackward
	KeyLeft
	KeyRight
	KeyRotateLeft
	KeyRotateRight
	KeyQuit
)

func (k Key) String() string {
	switch k {
	case KeyForward:
		return "forward"
	case KeyBackward:
		return "backward"
	case KeyLeft:
		return "left"
	case KeyRight:
		return "right"
	case KeyRotateLeft:
		return "rotate-left"
	case KeyRotateRight:
		return "rotate-right"
	case KeyQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// EvictionPolicy selects how key-release detection treats the eviction
// window. SharedWindow reproduces the historical behavior where one
// window is shared by all keys, so a repeat of any key tightens the
// release timing of every key. PerKeyWindow gives each key its own.
type EvictionPolicy int

const (
	SharedWindow EvictionPolicy = iota
	PerKeyWindow
)

const (
	// A first press gets a long grace period so a single tap is not
	// mistaken for noise before the terminal's auto-repeat kicks in.
	debounceFirst  = 500 * time.Millisecond
	debounceRepeat = 100 * time.Millisecond
	pollInterval   = 50 * time.Millisecond

	eventBuffer = 64
)

type keyHold struct {
	lastSeen time.Time
	holding  bool
	window   time.Duration
}

// Debouncer turns the terminal's discrete press/repeat events into a
// live held-key set and a target velocity. Terminals never report key
// releases, so a key counts as released once its repeats stop arriving
// within the eviction window.
type Debouncer struct {
	linear  float32
	angular float32
	policy  EvictionPolicy
	poll    time.Duration

	now func() time.Time

	inMu     sync.Mutex
	events   chan Key
	inClosed bool

	heldMu sync.Mutex
	held   map[Key]*keyHold
	window time.Duration

	targetMu sync.Mutex
	target   Speed

	exit atomic.Bool
}

// NewDebouncer creates a debouncer producing velocities of the given
// magnitudes (linear in m/s, angular in rad/s).
func NewDebouncer(linear, angular float32, policy EvictionPolicy) *Debouncer {
	return &Debouncer{
		linear:  linear,
		angular: angular,
		policy:  policy,
		poll:    pollInterval,
		now:     time.Now,
		events:  make(chan Key, eventBuffer),
		held:    make(map[Key]*keyHold),
		window:  debounceFirst,
	}
}

// Press feeds one key event in. It never blocks; events beyond the
// buffer are dropped, the next repeat will land.
func (d *Debouncer) Press(k Key) {
	d.inMu.Lock()
	defer d.inMu.Unlock()
	if d.inClosed {
		return
	}
	select {
	case d.events <- k:
	default:
	}
}

// CloseInput signals that no further key events will arrive. Run then
// returns without setting the exit flag, freezing the last target.
func (d *Debouncer) CloseInput() {
	d.inMu.Lock()
	defer d.inMu.Unlock()
	if d.inClosed {
		return
	}
	d.inClosed = true
	close(d.events)
}

// ShouldExit reports whether the quit key has been seen.
func (d *Debouncer) ShouldExit() bool {
	return d.exit.Load()
}

// Speed returns the current target velocity.
func (d *Debouncer) Speed() Speed {
	d.targetMu.Lock()
	defer d.targetMu.Unlock()
	return d.target
}

// HeldKeys returns the keys currently considered held, in stable order.
func (d *Debouncer) HeldKeys() []Key {
	d.heldMu.Lock()
	defer d.heldMu.Unlock()
	keys := make([]Key, 0, len(d.held))
	for k := range d.held {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Run consumes key events until the quit key arrives, the input is
// closed, or ctx is cancelled. It waits at most one poll interval at a
// time; a quiet interval triggers an eviction scan so released keys
// drop out even when no events arrive at all.
func (d *Debouncer) Run(ctx context.Context) {
	timer := time.NewTimer(d.poll)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case k, ok := <-d.events:
			if !ok {
				return
			}
			if d.observe(k, d.now()) {
				return
			}
			d.refreshTarget()
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(d.poll)
		case <-timer.C:
			d.evict(d.now())
			d.refreshTarget()
			timer.Reset(d.poll)
		}
	}
}

// observe folds one key event into the held set. It reports true when
// the event was the quit key, which is never tracked as held.
func (d *Debouncer) observe(k Key, at time.Time) bool {
	switch k {
	case KeyQuit:
		d.exit.Store(true)
		return true
	case KeyUnknown:
		return false
	}

	d.heldMu.Lock()
	defer d.heldMu.Unlock()
	if rec, ok := d.held[k]; ok {
		// A repeat confirms an actual hold; from here on releases
		// should be detected quickly.
		rec.holding = true
		rec.lastSeen = at
		rec.window = debounceRepeat
		d.window = debounceRepeat
	} else {
		d.held[k] = &keyHold{lastSeen: at, window: debounceFirst}
		d.window = debounceFirst
	}
	return false
}

// evict drops keys whose last event is older than the eviction window.
func (d *Debouncer) evict(at time.Time) {
	d.heldMu.Lock()
	defer d.heldMu.Unlock()
	for k, rec := range d.held {
		window := d.window
		if d.policy == PerKeyWindow {
			window = rec.window
		}
		if at.Sub(rec.lastSeen) > window {
			delete(d.held, k)
		}
	}
}

// refreshTarget recomputes the target velocity from the held set.
func (d *Debouncer) refreshTarget() {
	d.heldMu.Lock()
	forward := d.held[KeyForward] != nil
	backward := d.held[KeyBackward] != nil
	left := d.held[KeyLeft] != nil
	right := d.held[KeyRight] != nil
	rotateLeft := d.held[KeyRotateLeft] != nil
	rotateRight := d.held[KeyRotateRight] != nil
	d.heldMu.Unlock()

	t := Speed{
		X: axisValue(forward, backward, d.linear),
		Y: axisValue(left, right, d.linear),
		Z: axisValue(rotateLeft, rotateRight, d.angular),
	}

	d.targetMu.Lock()
	d.target = t
	d.targetMu.Unlock()
}

// axisValue folds a pair of opposing keys into one axis component.
// Opposite keys held together cancel to zero.
func axisValue(positive, negative bool, speed float32) float32 {
	switch {
	case positive && negative:
		return 0
	case positive:
		return speed
	case negative:
		return -speed
	default:
		return 0
	}
}
