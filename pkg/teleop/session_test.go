package teleop

import (
	"testing"
	"time"

	"github.com/zhishengyifeng/community-robot-demos/pkg/basepb"
)

func ptr[T any](v T) *T { return &v }

// statusFrame builds an ApiUp carrying a status section.
func statusFrame(session, holder uint32, initialized bool, parking *basepb.ParkingStopReason) *basepb.ApiUp {
	return &basepb.ApiUp{
		SessionId:            session,
		ProtocolMajorVersion: basepb.MajorVersion,
		BaseStatus: &basepb.BaseStatus{
			ApiControlInitialized: initialized,
			SessionHolder:         holder,
			ParkingStopDetail:     parking,
		},
	}
}

func newTestTracker(start time.Time) (*Tracker, *time.Time) {
	clock := start
	tr := NewTracker()
	tr.now = func() time.Time { return clock }
	return tr, &clock
}

func TestTracker_StateFromFrame(t *testing.T) {
	parked := ptr(basepb.ParkingStopButton)

	tests := []struct {
		name  string
		frame *basepb.ApiUp
		want  ControlState
	}{
		{"not initialized", statusFrame(7, 7, false, nil), Uninitialized},
		{"not initialized wins over parking", statusFrame(7, 7, false, parked), Uninitialized},
		{"holder matches", statusFrame(7, 7, true, nil), CanMove},
		{"another session holds", statusFrame(7, 9, true, nil), InitializedButNotHold},
		{"parked while holding", statusFrame(7, 7, true, parked), InitializedButNotHold},
	}

	for _, tt := range tests {
		tr, _ := newTestTracker(time.Now())
		tr.Apply(tt.frame)
		if got := tr.State(); got != tt.want {
			t.Errorf("%s: State() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestTracker_StateDependsOnLatestFrameOnly(t *testing.T) {
	tr, _ := newTestTracker(time.Now())

	tr.Apply(statusFrame(7, 7, true, nil))
	tr.Apply(statusFrame(7, 9, true, nil))
	tr.Apply(statusFrame(7, 7, false, nil))
	tr.Apply(statusFrame(7, 7, true, nil))

	if got := tr.State(); got != CanMove {
		t.Errorf("State() = %v after replay, want %v regardless of history", got, CanMove)
	}
}

func TestTracker_EmergencyRaisesAndClears(t *testing.T) {
	tr, clock := newTestTracker(time.Now())

	tr.Apply(statusFrame(7, 7, true, ptr(basepb.ParkingStopBumper)))
	if !tr.Emergency() {
		t.Fatal("Emergency() = false during a parking stop")
	}
	notice := tr.CurrentNotice()
	if notice.Message != "Emergency Stop: bumper triggered" {
		t.Errorf("notice = %q, want the emergency text", notice.Message)
	}

	// Parking clears, but the notice lingers until its own deadline.
	*clock = clock.Add(time.Second)
	tr.Apply(statusFrame(7, 7, true, nil))
	if tr.Emergency() {
		t.Error("Emergency() = true after parking cleared")
	}
	if tr.CurrentNotice().Message == "" {
		t.Error("notice cleared before its expiry")
	}
}

func TestTracker_NoticeExpiresAfterTTL(t *testing.T) {
	tr, clock := newTestTracker(time.Now())

	tr.Apply(statusFrame(7, 7, true, ptr(basepb.ParkingStopCliff)))

	*clock = clock.Add(noticeTTL - time.Millisecond)
	tr.Apply(statusFrame(7, 7, true, nil))
	if tr.CurrentNotice().Message == "" {
		t.Fatal("notice cleared before the TTL elapsed")
	}

	*clock = clock.Add(time.Millisecond)
	tr.Apply(statusFrame(7, 7, true, nil))
	if got := tr.CurrentNotice(); got.Message != "" {
		t.Errorf("notice = %q, want cleared at the TTL boundary", got.Message)
	}
}

func TestTracker_HolderNoticeOverridesUnexpired(t *testing.T) {
	tr, clock := newTestTracker(time.Now())

	tr.Apply(statusFrame(7, 7, true, ptr(basepb.ParkingStopButton)))

	// Well inside the emergency notice's lifetime, losing authority
	// still replaces it.
	*clock = clock.Add(time.Second)
	tr.Apply(statusFrame(7, 9, true, nil))

	if got := tr.CurrentNotice().Message; got != "Control in hands of another user" {
		t.Errorf("notice = %q, want the holder notice", got)
	}
	if got := tr.State(); got != InitializedButNotHold {
		t.Errorf("State() = %v, want %v", got, InitializedButNotHold)
	}
}

func TestTracker_VersionMismatchNotice(t *testing.T) {
	tr, _ := newTestTracker(time.Now())

	frame := statusFrame(7, 7, true, nil)
	frame.ProtocolMajorVersion = basepb.MajorVersion + 1
	tr.Apply(frame)

	if got := tr.CurrentNotice().Message; got != "Protocol version mismatch" {
		t.Errorf("notice = %q, want the version notice", got)
	}
	// Mismatch is surfaced, not acted on.
	if got := tr.State(); got != CanMove {
		t.Errorf("State() = %v, want %v", got, CanMove)
	}
}

func TestTracker_OdometryOnlyWhileCanMove(t *testing.T) {
	tr, _ := newTestTracker(time.Now())

	if _, ok := tr.Actual(); ok {
		t.Fatal("Actual() reports a reading before any frame")
	}

	frame := statusFrame(7, 7, true, nil)
	frame.BaseStatus.EstimatedOdometry = &basepb.XyzSpeed{SpeedX: 0.1}
	tr.Apply(frame)

	actual, ok := tr.Actual()
	if !ok || actual != (Speed{X: 0.1}) {
		t.Fatalf("Actual() = %+v, %v, want {0.1 0 0}, true", actual, ok)
	}

	// Odometry on a frame where another session holds control is
	// ignored; the previous reading stays, stale.
	lost := statusFrame(7, 9, true, nil)
	lost.BaseStatus.EstimatedOdometry = &basepb.XyzSpeed{SpeedX: 9}
	tr.Apply(lost)

	actual, ok = tr.Actual()
	if !ok || actual != (Speed{X: 0.1}) {
		t.Errorf("Actual() = %+v, %v, want the stale {0.1 0 0}, true", actual, ok)
	}
}

func TestTracker_LogFrame(t *testing.T) {
	tr, _ := newTestTracker(time.Now())

	tr.Apply(&basepb.ApiUp{SessionId: 7, Log: ptr("motor driver overheat")})

	if got := tr.CurrentNotice().Message; got != "Log: motor driver overheat" {
		t.Errorf("notice = %q, want the log text", got)
	}
	// A log-only frame carries no status and must not touch the state.
	if got := tr.State(); got != Uninitialized {
		t.Errorf("State() = %v, want %v", got, Uninitialized)
	}
}

func TestTracker_SessionID(t *testing.T) {
	tr, _ := newTestTracker(time.Now())

	tr.Apply(statusFrame(42, 9, true, nil))
	if got := tr.SessionID(); got != 42 {
		t.Errorf("SessionID() = %d, want 42", got)
	}
}
