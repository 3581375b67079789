// Package teleop drives a remote mobile base from keyboard input: it
// tracks who holds control authority, debounces key repeats into a
// target velocity, and reconciles the two into the command stream the
// base expects.
package teleop

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhishengyifeng/community-robot-demos/pkg/base"
	"github.com/zhishengyifeng/community-robot-demos/pkg/basepb"
)

// Speed is a velocity in the base frame: X forward in m/s, Y leftward
// in m/s, Z counter-clockwise in rad/s.
type Speed struct {
	X float32
	Y float32
	Z float32
}

// Snapshot is the per-tick view handed to the UI. Fields are read from
// independently locked state, so they can be a few milliseconds apart;
// at the loop's rate that skew is invisible to an operator.
type Snapshot struct {
	State     ControlState
	Target    Speed
	Actual    Speed
	HasActual bool
	HeldKeys  []Key
	Notice    Notice
	Emergency bool
}

// Transport is the duplex channel to the base. *base.Base implements
// it; tests substitute their own.
type Transport interface {
	Send(*basepb.ApiDown) error
	Receive() (*basepb.ApiUp, error)
	Close() error
}

const (
	defaultTick = 10 * time.Millisecond
	// After the quit key, the release frame gets this long to flush
	// before the connection goes away.
	releaseGrace = 100 * time.Millisecond

	reportRate = basepb.ReportFrequency50Hz
)

// Config holds configuration for the controller.
type Config struct {
	URL          string
	LinearSpeed  float32        // m/s per pressed key, default 0.1
	AngularSpeed float32        // rad/s per pressed key, default 0.5
	Tick         time.Duration  // command loop interval, default 10ms
	Eviction     EvictionPolicy // key release detection, default SharedWindow
	Logger       zerolog.Logger
}

// Controller manages the teleoperation control loop.
type Controller struct {
	transport Transport
	tracker   *Tracker
	keys      *Debouncer
	tick      time.Duration
	log       zerolog.Logger

	mu      sync.Mutex
	running bool

	// Only the loop goroutine touches lastState.
	lastState ControlState

	snapshotCh chan Snapshot
}

// NewController connects to the base and prepares a controller.
func NewController(cfg Config) (*Controller, error) {
	conn, err := base.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to base: %w", err)
	}
	return newController(conn, cfg), nil
}

func newController(transport Transport, cfg Config) *Controller {
	if cfg.LinearSpeed == 0 {
		cfg.LinearSpeed = base.DefaultLinearSpeed
	}
	if cfg.AngularSpeed == 0 {
		cfg.AngularSpeed = base.DefaultAngularSpeed
	}
	if cfg.Tick <= 0 {
		cfg.Tick = defaultTick
	}

	return &Controller{
		transport:  transport,
		tracker:    NewTracker(),
		keys:       NewDebouncer(cfg.LinearSpeed, cfg.AngularSpeed, cfg.Eviction),
		tick:       cfg.Tick,
		log:        cfg.Logger,
		snapshotCh: make(chan Snapshot, 1),
	}
}

// Close closes the connection to the base.
func (c *Controller) Close() error {
	return c.transport.Close()
}

// Press feeds one key event into the debouncer.
func (c *Controller) Press(k Key) {
	c.keys.Press(k)
}

// Snapshots returns a channel that receives per-tick state snapshots.
// A slow consumer only ever misses intermediate snapshots, never the
// latest one.
func (c *Controller) Snapshots() <-chan Snapshot {
	return c.snapshotCh
}

// SessionID returns the identity the base assigned to this connection.
func (c *Controller) SessionID() uint32 {
	return c.tracker.SessionID()
}

// Start runs the receiver, the key debouncer, and the command loop.
// It returns nil after a graceful quit, or the first send error.
// Cancelling ctx is the immediate path out: no release command is
// sent, the base's own holder timeout has to clean up after us.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("already running")
	}
	c.running = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	go c.receive()
	go c.keys.Run(ctx)

	c.log.Info().Str("state", c.tracker.State().String()).Msg("control loop started")

	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			done, err := c.step()
			if err != nil {
				c.log.Error().Err(err).Msg("control loop failed")
				return err
			}
			if done {
				return nil
			}
		}
	}
}

// receive decodes frames as they arrive and folds them into the
// tracker. It stops on the first read or decode error; the command
// loop finds out when its own sends start failing.
func (c *Controller) receive() {
	for {
		up, err := c.transport.Receive()
		if err != nil {
			c.log.Warn().Err(err).Msg("receiver stopped")
			return
		}
		c.tracker.Apply(up)
	}
}

// step runs one tick: publish a snapshot, honor a pending quit, then
// emit the command the current control state calls for.
func (c *Controller) step() (done bool, err error) {
	c.sendSnapshot(c.snapshot())

	if c.keys.ShouldExit() {
		// Best effort. Whether or not the release makes it out, this
		// session is over.
		_ = c.transport.Send(base.ReleaseControl())
		time.Sleep(releaseGrace)
		c.log.Info().Msg("control released")
		return true, nil
	}

	state := c.tracker.State()
	if state != c.lastState {
		c.log.Debug().Stringer("from", c.lastState).Stringer("to", state).Msg("control state changed")
		c.lastState = state
	}

	switch state {
	case Uninitialized:
		// Resent every tick until a status frame confirms; the base
		// ignores redundant acquisitions.
		if err := c.transport.Send(base.SetReportFrequency(reportRate)); err != nil {
			return false, fmt.Errorf("set report frequency: %w", err)
		}
		if err := c.transport.Send(base.AcquireControl()); err != nil {
			return false, fmt.Errorf("acquire control: %w", err)
		}
	case CanMove:
		// A zero vector is a deliberate "hold position", not a no-op.
		t := c.keys.Speed()
		if err := c.transport.Send(base.Move(t.X, t.Y, t.Z)); err != nil {
			return false, fmt.Errorf("send move: %w", err)
		}
	case InitializedButNotHold:
		// Someone else is driving. Stay quiet until a frame says otherwise.
	}

	return false, nil
}

func (c *Controller) snapshot() Snapshot {
	actual, hasActual := c.tracker.Actual()
	return Snapshot{
		State:     c.tracker.State(),
		Target:    c.keys.Speed(),
		Actual:    actual,
		HasActual: hasActual,
		HeldKeys:  c.keys.HeldKeys(),
		Notice:    c.tracker.CurrentNotice(),
		Emergency: c.tracker.Emergency(),
	}
}

func (c *Controller) sendSnapshot(s Snapshot) {
	select {
	case c.snapshotCh <- s:
	default:
		// Drop the stale snapshot if the UI hasn't picked it up yet.
		select {
		case <-c.snapshotCh:
		default:
		}
		c.snapshotCh <- s
	}
}
