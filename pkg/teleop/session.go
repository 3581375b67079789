package teleop

import (
	"fmt"
	"sync"
	"time"

	"github.com/zhishengyifeng/community-robot-demos/pkg/basepb"
)

// ControlState says who may drive the base right now. It is recomputed
// from every status frame, never carried over.
type ControlState int

const (
	// Uninitialized means the base has not accepted API control yet.
	Uninitialized ControlState = iota
	// InitializedButNotHold means API control is active but this
	// session does not hold authority, or the base is parked.
	InitializedButNotHold
	// CanMove means this session holds control authority.
	CanMove
)

func (s ControlState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case InitializedButNotHold:
		return "initialized, not holding"
	case CanMove:
		return "can move"
	default:
		return "invalid"
	}
}

// How long a notice stays on screen once raised.
const noticeTTL = 3 * time.Second

// Notice is a transient operator-facing message. The zero value means
// no notice.
type Notice struct {
	Message  string
	RaisedAt time.Time
}

// Expired reports whether the notice has outlived ttl as of now.
func (n Notice) Expired(now time.Time, ttl time.Duration) bool {
	return !n.RaisedAt.IsZero() && now.Sub(n.RaisedAt) >= ttl
}

// Tracker folds incoming status frames into this session's view of the
// base: control state, emergency flag, operator notice, and the last
// odometry reading. Each field sits behind its own lock so a reader
// never waits on an unrelated write.
type Tracker struct {
	now func() time.Time

	stateMu sync.Mutex
	state   ControlState

	sessionMu sync.Mutex
	sessionID uint32

	actualMu  sync.Mutex
	actual    Speed
	hasActual bool

	emergencyMu sync.Mutex
	emergency   bool

	noticeMu sync.Mutex
	notice   Notice
}

// NewTracker creates a tracker in the Uninitialized state.
func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// Apply folds one inbound frame into the tracker. The rule order is
// part of the protocol contract: the holder and version notices land
// after the expiry pass and overwrite whatever it left behind.
func (t *Tracker) Apply(up *basepb.ApiUp) {
	now := t.now()

	if up.Log != nil {
		t.setNotice(fmt.Sprintf("Log: %v", *up.Log), now)
	}

	status := up.GetBaseStatus()
	if status == nil {
		return
	}

	t.sessionMu.Lock()
	t.sessionID = up.SessionId
	t.sessionMu.Unlock()

	if status.ParkingStopDetail != nil {
		t.setEmergency(true)
		t.setNotice(fmt.Sprintf("Emergency Stop: %v", *status.ParkingStopDetail), now)
	} else {
		t.setEmergency(false)
		t.clearExpiredNotice(now)
	}

	state := stateFor(status, up.SessionId)
	t.stateMu.Lock()
	t.state = state
	t.stateMu.Unlock()

	// Odometry is only trusted while this session is driving. It goes
	// stale otherwise, it is not cleared.
	if state == CanMove && status.EstimatedOdometry != nil {
		t.actualMu.Lock()
		t.actual = Speed{
			X: status.EstimatedOdometry.SpeedX,
			Y: status.EstimatedOdometry.SpeedY,
			Z: status.EstimatedOdometry.SpeedZ,
		}
		t.hasActual = true
		t.actualMu.Unlock()
	}

	if state == InitializedButNotHold {
		t.setNotice("Control in hands of another user", now)
	}
	if state == CanMove && up.ProtocolMajorVersion != basepb.MajorVersion {
		t.setNotice("Protocol version mismatch", now)
	}
}

// stateFor derives the control state from a single status frame.
func stateFor(status *basepb.BaseStatus, session uint32) ControlState {
	switch {
	case !status.ApiControlInitialized:
		return Uninitialized
	case status.ParkingStopDetail == nil && status.SessionHolder == session:
		return CanMove
	default:
		return InitializedButNotHold
	}
}

// State returns the current control state.
func (t *Tracker) State() ControlState {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	return t.state
}

// SessionID returns the identity the base assigned to this connection.
func (t *Tracker) SessionID() uint32 {
	t.sessionMu.Lock()
	defer t.sessionMu.Unlock()
	return t.sessionID
}

// Actual returns the last odometry reading and whether one has ever
// been received.
func (t *Tracker) Actual() (Speed, bool) {
	t.actualMu.Lock()
	defer t.actualMu.Unlock()
	return t.actual, t.hasActual
}

// Emergency reports whether the base is currently in a parking stop.
func (t *Tracker) Emergency() bool {
	t.emergencyMu.Lock()
	defer t.emergencyMu.Unlock()
	return t.emergency
}

// CurrentNotice returns the active notice, or the zero Notice.
func (t *Tracker) CurrentNotice() Notice {
	t.noticeMu.Lock()
	defer t.noticeMu.Unlock()
	return t.notice
}

func (t *Tracker) setEmergency(v bool) {
	t.emergencyMu.Lock()
	t.emergency = v
	t.emergencyMu.Unlock()
}

func (t *Tracker) setNotice(msg string, at time.Time) {
	t.noticeMu.Lock()
	t.notice = Notice{Message: msg, RaisedAt: at}
	t.noticeMu.Unlock()
}

// clearExpiredNotice drops the notice once its time is up. Expiry is
// purely time based: a notice raised for a condition that has since
// cleared still lingers until its own deadline.
func (t *Tracker) clearExpiredNotice(at time.Time) {
	t.noticeMu.Lock()
	if t.notice.Expired(at, noticeTTL) {
		t.notice = Notice{}
	}
	t.noticeMu.Unlock()
}
