package teleop

import (
	"context"
	"testing"
	"time"
)

func TestAxisValue(t *testing.T) {
	tests := []struct {
		positive bool
		negative bool
		want     float32
	}{
		{false, false, 0},
		{true, false, 0.1},
		{false, true, -0.1},
		{true, true, 0}, // opposite keys cancel
	}
	for _, tt := range tests {
		got := axisValue(tt.positive, tt.negative, 0.1)
		if got != tt.want {
			t.Errorf("axisValue(%v, %v) = %f, want %f", tt.positive, tt.negative, got, tt.want)
		}
	}
}

func TestDebouncer_TargetFromHeldKeys(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		keys []Key
		want Speed
	}{
		{"forward", []Key{KeyForward}, Speed{X: 0.1}},
		{"backward", []Key{KeyBackward}, Speed{X: -0.1}},
		{"forward and backward cancel", []Key{KeyForward, KeyBackward}, Speed{}},
		{"left", []Key{KeyLeft}, Speed{Y: 0.1}},
		{"rotate right", []Key{KeyRotateRight}, Speed{Z: -0.5}},
		{"diagonal with spin", []Key{KeyForward, KeyLeft, KeyRotateRight}, Speed{X: 0.1, Y: 0.1, Z: -0.5}},
		{"nothing held", nil, Speed{}},
	}

	for _, tt := range tests {
		d := NewDebouncer(0.1, 0.5, SharedWindow)
		for _, k := range tt.keys {
			d.observe(k, now)
		}
		d.refreshTarget()
		if got := d.Speed(); got != tt.want {
			t.Errorf("%s: Speed() = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestDebouncer_TargetAllCombinations(t *testing.T) {
	// Every subset of the six motion keys must fold to a per-axis value
	// of +speed, -speed, or 0, with opposite keys cancelling.
	axes := []struct {
		positive Key
		negative Key
		speed    float32
		get      func(Speed) float32
	}{
		{KeyForward, KeyBackward, 0.1, func(s Speed) float32 { return s.X }},
		{KeyLeft, KeyRight, 0.1, func(s Speed) float32 { return s.Y }},
		{KeyRotateLeft, KeyRotateRight, 0.5, func(s Speed) float32 { return s.Z }},
	}
	all := []Key{KeyForward, KeyBackward, KeyLeft, KeyRight, KeyRotateLeft, KeyRotateRight}

	now := time.Now()
	for mask := 0; mask < 1<<len(all); mask++ {
		d := NewDebouncer(0.1, 0.5, SharedWindow)
		held := make(map[Key]bool)
		for i, k := range all {
			if mask&(1<<i) != 0 {
				d.observe(k, now)
				held[k] = true
			}
		}
		d.refreshTarget()
		got := d.Speed()

		for _, ax := range axes {
			var want float32
			switch {
			case held[ax.positive] && !held[ax.negative]:
				want = ax.speed
			case held[ax.negative] && !held[ax.positive]:
				want = -ax.speed
			}
			if v := ax.get(got); v != want {
				t.Fatalf("held %06b: axis %v/%v = %f, want %f",
					mask, ax.positive, ax.negative, v, want)
			}
		}
	}
}

func TestDebouncer_FirstPressEvictsAfterLongWindow(t *testing.T) {
	d := NewDebouncer(0.1, 0.5, SharedWindow)
	t0 := time.Now()

	d.observe(KeyForward, t0)

	d.evict(t0.Add(400 * time.Millisecond))
	if len(d.HeldKeys()) != 1 {
		t.Fatal("key evicted before the 500ms first-press window elapsed")
	}

	d.evict(t0.Add(501 * time.Millisecond))
	if len(d.HeldKeys()) != 0 {
		t.Fatal("key still held after the first-press window elapsed")
	}
	d.refreshTarget()
	if got := d.Speed(); got != (Speed{}) {
		t.Errorf("Speed() after eviction = %+v, want zero", got)
	}
}

func TestDebouncer_RepeatShrinksEvictionWindow(t *testing.T) {
	d := NewDebouncer(0.1, 0.5, SharedWindow)
	t0 := time.Now()

	d.observe(KeyForward, t0)
	d.observe(KeyForward, t0.Add(50*time.Millisecond)) // repeat

	d.evict(t0.Add(140 * time.Millisecond)) // 90ms since repeat
	if len(d.HeldKeys()) != 1 {
		t.Fatal("key evicted inside the 100ms repeat window")
	}

	d.evict(t0.Add(151 * time.Millisecond)) // 101ms since repeat
	if len(d.HeldKeys()) != 0 {
		t.Fatal("key still held after the repeat window elapsed")
	}
}

func TestDebouncer_SharedWindowCrossTalk(t *testing.T) {
	// With the shared policy, a repeat of any key tightens the eviction
	// window for every key.
	d := NewDebouncer(0.1, 0.5, SharedWindow)
	t0 := time.Now()

	d.observe(KeyForward, t0)
	d.observe(KeyRotateLeft, t0.Add(10*time.Millisecond))
	d.observe(KeyRotateLeft, t0.Add(20*time.Millisecond)) // repeat shrinks shared window

	d.evict(t0.Add(115 * time.Millisecond))

	held := d.HeldKeys()
	if len(held) != 1 || held[0] != KeyRotateLeft {
		t.Errorf("held = %v, want forward evicted by the shared window, rotate-left kept", held)
	}
}

func TestDebouncer_PerKeyWindowIsolatesKeys(t *testing.T) {
	d := NewDebouncer(0.1, 0.5, PerKeyWindow)
	t0 := time.Now()

	d.observe(KeyForward, t0)
	d.observe(KeyRotateLeft, t0.Add(10*time.Millisecond))
	d.observe(KeyRotateLeft, t0.Add(20*time.Millisecond))

	// Forward never repeated, so its own window is still 500ms.
	d.evict(t0.Add(115 * time.Millisecond))
	held := d.HeldKeys()
	if len(held) != 2 {
		t.Fatalf("held = %v, want both keys inside their own windows", held)
	}

	// 110ms after rotate-left's repeat, only it is past its window.
	d.evict(t0.Add(130 * time.Millisecond))
	held = d.HeldKeys()
	if len(held) != 1 || held[0] != KeyForward {
		t.Errorf("held = %v, want only forward", held)
	}
}

func TestDebouncer_QuitKeyNotTracked(t *testing.T) {
	d := NewDebouncer(0.1, 0.5, SharedWindow)

	if quit := d.observe(KeyQuit, time.Now()); !quit {
		t.Error("observe(KeyQuit) = false, want true")
	}
	if !d.ShouldExit() {
		t.Error("ShouldExit() = false after quit key")
	}
	if len(d.HeldKeys()) != 0 {
		t.Error("quit key was tracked as held")
	}
}

func TestDebouncer_UnknownKeyIgnored(t *testing.T) {
	d := NewDebouncer(0.1, 0.5, SharedWindow)

	if quit := d.observe(KeyUnknown, time.Now()); quit {
		t.Error("observe(KeyUnknown) = true, want false")
	}
	if len(d.HeldKeys()) != 0 {
		t.Error("unknown key was tracked as held")
	}
}

func TestDebouncer_RunEvictsReleasedKey(t *testing.T) {
	d := NewDebouncer(0.1, 0.5, SharedWindow)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	d.Press(KeyForward)
	time.Sleep(100 * time.Millisecond)
	if got := d.Speed(); got != (Speed{X: 0.1}) {
		t.Fatalf("Speed() = %+v, want {0.1 0 0} while held", got)
	}

	// No repeats arrive, so the poll cycle must evict the key once the
	// first-press window has passed.
	time.Sleep(700 * time.Millisecond)
	if got := d.Speed(); got != (Speed{}) {
		t.Fatalf("Speed() = %+v, want zero after eviction", got)
	}

	d.Press(KeyQuit)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after the quit key")
	}
	if !d.ShouldExit() {
		t.Error("ShouldExit() = false after quit key")
	}
}

func TestDebouncer_ClosedInputFreezesTarget(t *testing.T) {
	d := NewDebouncer(0.1, 0.5, SharedWindow)
	t0 := time.Now()
	d.observe(KeyForward, t0)
	d.observe(KeyForward, t0.Add(30*time.Millisecond))
	d.refreshTarget()

	done := make(chan struct{})
	go func() {
		d.Run(context.Background())
		close(done)
	}()

	d.CloseInput()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after input close")
	}

	// A dead input source is not an exit request; the last target just
	// stays in place.
	if d.ShouldExit() {
		t.Error("ShouldExit() = true after input close")
	}
	if got := d.Speed(); got != (Speed{X: 0.1}) {
		t.Errorf("Speed() = %+v, want frozen {0.1 0 0}", got)
	}
	d.Press(KeyBackward)
	if len(d.HeldKeys()) != 1 {
		t.Error("Press after close changed the held set")
	}
}
