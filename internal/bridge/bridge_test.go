package bridge

import (
	"testing"
	"time"

	"github.com/trifaze/tetriskart/internal/sample"
	"github.com/trifaze/tetriskart/internal/wire"
)

// scriptedSource hands out queued samples and records what was sent to it.
type scriptedSource struct {
	name    string
	pending []sample.SensorSample
	sent    [][]byte
	closed  bool
}

func (s *scriptedSource) Next() (sample.SensorSample, bool) {
	if len(s.pending) == 0 {
		return sample.SensorSample{}, false
	}
	rec := s.pending[0]
	s.pending = s.pending[1:]
	return rec, true
}

func (s *scriptedSource) Send(line []byte) { s.sent = append(s.sent, line) }
func (s *scriptedSource) Name() string     { return s.name }
func (s *scriptedSource) Close() error     { s.closed = true; return nil }

func (s *scriptedSource) queue(ts int64) {
	s.pending = append(s.pending, sample.SensorSample{Timestamp: ts, Pot: 32768})
}

type clock struct{ now time.Time }

func (c *clock) get() time.Time       { return c.now }
func (c *clock) tick(d time.Duration) { c.now = c.now.Add(d) }

func newTestBridge() (*Bridge, *scriptedSource, *scriptedSource, *clock) {
	live := &scriptedSource{name: "live"}
	synth := &scriptedSource{name: "synth"}
	b := New(live, synth)
	c := &clock{now: time.Unix(2000, 0)}
	b.SetClock(c.get)
	return b, live, synth, c
}

func TestDrainOrderAndBound(t *testing.T) {
	b, live, _, _ := newTestBridge()
	for ts := int64(1); ts <= 12; ts++ {
		live.queue(ts)
	}
	got := b.Drain(8)
	if len(got) != 8 {
		t.Fatalf("drained %d samples, want 8 (bounded)", len(got))
	}
	for i, in := range got {
		if in.Timestamp != int64(i+1) {
			t.Errorf("sample %d: ts = %d, want %d (arrival order)", i, in.Timestamp, i+1)
		}
		if in.Synthetic {
			t.Errorf("sample %d flagged synthetic", i)
		}
	}
	if rest := b.Drain(8); len(rest) != 4 {
		t.Errorf("second drain = %d samples, want 4", len(rest))
	}
}

func TestNormalization(t *testing.T) {
	b, live, _, _ := newTestBridge()
	live.pending = append(live.pending, sample.SensorSample{
		Timestamp: 5,
		Tilt:      sample.Tilt{X: -12.5, Y: 3},
		Buttons:   sample.Buttons{A: 1},
		Encoder:   sample.Encoder{Delta: 2, Position: -7},
		Pot:       sample.PotMax,
	})
	got := b.Drain(1)
	if len(got) != 1 {
		t.Fatal("no sample drained")
	}
	in := got[0]
	if !in.ButtonA || in.ButtonB {
		t.Errorf("buttons = %v/%v, want true/false", in.ButtonA, in.ButtonB)
	}
	if in.Pot != 1.0 || in.PotRaw != sample.PotMax {
		t.Errorf("pot = %v raw %d, want 1.0 raw %d", in.Pot, in.PotRaw, sample.PotMax)
	}
	if in.TiltX != -12.5 || in.EncPos != -7 {
		t.Errorf("unexpected normalization: %+v", in)
	}
}

func TestTimeoutSwitchesToFallback(t *testing.T) {
	b, live, synth, c := newTestBridge()
	b.SetTimeout(time.Second)

	live.queue(1)
	if got := b.Drain(8); len(got) != 1 {
		t.Fatalf("live drain = %d, want 1", len(got))
	}
	if b.FallbackActive() {
		t.Fatal("fallback active while the device is talking")
	}

	c.tick(1500 * time.Millisecond)
	synth.queue(99)
	got := b.Drain(8)
	if !b.FallbackActive() {
		t.Fatal("fallback not active after timeout")
	}
	if len(got) != 1 || !got[0].Synthetic {
		t.Fatalf("post-timeout samples = %+v, want one synthetic sample", got)
	}

	// A live record ends the fallback immediately.
	live.queue(2)
	got = b.Drain(8)
	if b.FallbackActive() {
		t.Error("fallback still active after device resumed")
	}
	if len(got) != 1 || got[0].Synthetic {
		t.Errorf("resumed samples = %+v, want one live sample", got)
	}
}

func TestNoLiveSourceStartsOnFallback(t *testing.T) {
	synth := &scriptedSource{name: "synth"}
	b := New(nil, synth)
	if !b.FallbackActive() {
		t.Fatal("bridge without a live source must start on fallback")
	}
	synth.queue(1)
	if got := b.Drain(4); len(got) != 1 || !got[0].Synthetic {
		t.Errorf("drained %+v, want one synthetic sample", got)
	}
}

func TestFeedbackCadence(t *testing.T) {
	b, live, _, c := newTestBridge()
	b.SetFeedbackInterval(20 * time.Millisecond)

	fb := sample.Feedback{Score: 10, Level: 1}
	if !b.MaybeSendFeedback(fb) {
		t.Fatal("first feedback suppressed")
	}
	if b.MaybeSendFeedback(fb) {
		t.Error("feedback sent again before the interval elapsed")
	}
	c.tick(25 * time.Millisecond)
	if !b.MaybeSendFeedback(fb) {
		t.Error("feedback suppressed after the interval elapsed")
	}
	if len(live.sent) != 2 {
		t.Errorf("device received %d records, want 2", len(live.sent))
	}
}

func TestEventsBypassCadence(t *testing.T) {
	b, live, _, _ := newTestBridge()
	b.MaybeSendFeedback(sample.Feedback{Score: 1})
	sent := b.MaybeSendFeedback(sample.Feedback{
		Score:  2,
		Events: []string{sample.EventLineCleared},
	})
	if !sent {
		t.Fatal("event-carrying feedback was held for the cadence")
	}
	fb, err := wire.DecodeFeedback(live.sent[len(live.sent)-1])
	if err != nil {
		t.Fatalf("decode sent record: %v", err)
	}
	if len(fb.Events) != 1 || fb.Events[0] != sample.EventLineCleared {
		t.Errorf("events on wire = %v", fb.Events)
	}
}

func TestCommandsGoToLiveDeviceDuringFallback(t *testing.T) {
	b, live, synth, c := newTestBridge()
	b.SetTimeout(time.Second)
	c.tick(2 * time.Second)
	b.Drain(1) // trips the fallback
	if !b.FallbackActive() {
		t.Fatal("fallback not active")
	}
	b.SendCommand(sample.CmdCalibrate)
	if len(live.sent) != 1 || len(synth.sent) != 0 {
		t.Errorf("command routing: live=%d synth=%d, want 1/0 (device must recover on return)",
			len(live.sent), len(synth.sent))
	}
}
