package sched

import (
	"testing"
	"time"

	"github.com/trifaze/tetriskart/internal/calibrate"
	"github.com/trifaze/tetriskart/internal/sample"
)

type fakeHardware struct {
	pinA, pinB bool
	tiltX      float64
	tiltY      float64
	tiltErr    error
	btnA, btnB bool
	pot        int
	potErr     error

	pinReads int
}

func (h *fakeHardware) ReadPins() (bool, bool) {
	h.pinReads++
	return h.pinA, h.pinB
}
func (h *fakeHardware) ReadTilt() (float64, float64, error) { return h.tiltX, h.tiltY, h.tiltErr }
func (h *fakeHardware) ReadButtons() (bool, bool)           { return h.btnA, h.btnB }
func (h *fakeHardware) ReadPot() (int, error)               { return h.pot, h.potErr }

type harness struct {
	hw  *fakeHardware
	s   *Scheduler
	now time.Time
	out []sample.SensorSample
}

func newHarness() *harness {
	h := &harness{hw: &fakeHardware{pot: 32768}, now: time.Unix(500, 0)}
	h.s = &Scheduler{
		Pins:    h.hw,
		Tilt:    h.hw,
		Buttons: h.hw,
		Pot:     h.hw,
		Emit:    func(rec sample.SensorSample) { h.out = append(h.out, rec) },
	}
	h.s.Start(h.now)
	return h
}

func (h *harness) step(d time.Duration) {
	h.now = h.now.Add(d)
	h.s.Tick(h.now)
}

func TestEncoderPolledBetweenSamples(t *testing.T) {
	h := newHarness()
	// Ten 1 ms steps cover one 10 ms sample period.
	for i := 0; i < 10; i++ {
		h.step(time.Millisecond)
	}
	if h.hw.pinReads < 10 {
		t.Errorf("pin reads = %d, want >= 10 (one per encoder period)", h.hw.pinReads)
	}
	if len(h.out) != 1 {
		t.Fatalf("samples emitted = %d, want 1", len(h.out))
	}
}

func TestEncoderDeltaDrainedPerSample(t *testing.T) {
	h := newHarness()
	// Drive one full forward cycle across the first sample period.
	seq := [][2]bool{{false, true}, {true, true}, {true, false}, {false, false}}
	for i := 0; i < 10; i++ {
		if i < len(seq) {
			h.hw.pinA, h.hw.pinB = seq[i][0], seq[i][1]
		}
		h.step(time.Millisecond)
	}
	if len(h.out) != 1 {
		t.Fatalf("samples emitted = %d, want 1", len(h.out))
	}
	if got := h.out[0].Encoder; got.Delta != 4 || got.Position != 4 {
		t.Errorf("encoder = %+v, want delta 4 position 4", got)
	}
	for i := 0; i < 10; i++ {
		h.step(time.Millisecond)
	}
	if got := h.out[1].Encoder; got.Delta != 0 || got.Position != 4 {
		t.Errorf("second sample encoder = %+v, want delta 0 position 4", got)
	}
}

func TestTimestampsNonDecreasing(t *testing.T) {
	h := newHarness()
	for i := 0; i < 50; i++ {
		h.step(5 * time.Millisecond)
	}
	var prev int64 = -1
	for i, rec := range h.out {
		if rec.Timestamp < prev {
			t.Fatalf("sample %d: timestamp %d < %d", i, rec.Timestamp, prev)
		}
		prev = rec.Timestamp
	}
	if len(h.out) < 10 {
		t.Errorf("samples emitted = %d, want >= 10", len(h.out))
	}
}

func TestTiltCalibrationAppliedAndClamped(t *testing.T) {
	h := newHarness()
	h.s.Cal = calibrate.New(2)
	h.hw.tiltX, h.hw.tiltY = 5, 1

	h.s.Cal.Start()
	h.step(10 * time.Millisecond) // feeds reading 1, reported against old offset
	if got := h.out[0].Tilt.X; got != 5 {
		t.Errorf("tilt.x during collection = %v, want 5 (previous offset stays active)", got)
	}
	h.step(10 * time.Millisecond) // feeds reading 2, burst completes
	h.step(10 * time.Millisecond)
	if got := h.out[2].Tilt; got.X != 0 || got.Y != 0 {
		t.Errorf("post-calibration tilt = %+v, want zero", got)
	}

	h.hw.tiltX = 90 // way past the clamp after offset subtraction
	h.step(10 * time.Millisecond)
	if got := h.out[3].Tilt.X; got != sample.TiltClamp {
		t.Errorf("tilt.x = %v, want clamped to %v", got, sample.TiltClamp)
	}
}

func TestSensorErrorReusesLastGoodReading(t *testing.T) {
	h := newHarness()
	h.hw.tiltX = 12
	h.hw.pot = 100
	h.step(10 * time.Millisecond)

	h.hw.tiltErr = errFake
	h.hw.potErr = errFake
	h.step(10 * time.Millisecond)

	if len(h.out) != 2 {
		t.Fatalf("samples emitted = %d, want 2 (stream must keep flowing)", len(h.out))
	}
	if h.out[1].Tilt.X != 12 || h.out[1].Pot != 100 {
		t.Errorf("sample after read error = %+v, want last good readings", h.out[1])
	}
}

func TestStallSnapsForwardInsteadOfBursting(t *testing.T) {
	h := newHarness()
	h.step(10 * time.Millisecond)
	// A 500 ms stall (command handler, say) then normal stepping.
	h.step(500 * time.Millisecond)
	before := len(h.out)
	for i := 0; i < 5; i++ {
		h.step(time.Millisecond)
	}
	// Without snapping this would emit ~50 catch-up samples.
	if burst := len(h.out) - before; burst > 2 {
		t.Errorf("emitted %d samples right after a stall, want <= 2", burst)
	}
}

func TestButtonsOnWire(t *testing.T) {
	h := newHarness()
	h.hw.btnA = true
	h.step(10 * time.Millisecond)
	if got := h.out[0].Buttons; got.A != 1 || got.B != 0 {
		t.Errorf("buttons = %+v, want {1 0}", got)
	}
}

var errFake = errTest("sensor unavailable")

type errTest string

func (e errTest) Error() string { return string(e) }
