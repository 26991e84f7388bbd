package bridge

import (
	"log"
	"math"
	"time"

	"github.com/trifaze/tetriskart/internal/sample"
	"github.com/trifaze/tetriskart/internal/wire"
)

// SyntheticSource generates smooth, plausible input when no device is
// connected: a slow tilt oscillation, a sweeping potentiometer, and a gently
// advancing encoder. It paces itself to the device's sampling cadence.
type SyntheticSource struct {
	start    time.Time
	now      func() time.Time
	period   time.Duration
	nextTick time.Time
	position int64
	phase    float64
}

// NewSynthetic returns a fallback source producing one sample per device
// sampling period.
func NewSynthetic() *SyntheticSource {
	now := time.Now()
	return &SyntheticSource{
		start:  now,
		now:    time.Now,
		period: 10 * time.Millisecond,
	}
}

// Next returns a generated sample, at most one per sampling period.
func (m *SyntheticSource) Next() (sample.SensorSample, bool) {
	now := m.now()
	if now.Before(m.nextTick) {
		return sample.SensorSample{}, false
	}
	m.nextTick = now.Add(m.period)

	elapsed := now.Sub(m.start).Seconds()
	var delta int
	m.phase += 0.02
	if m.phase >= 1 {
		m.phase = 0
		delta = 1
		m.position++
	}

	// Brief scripted A press every five seconds, so button paths get
	// exercised without a device.
	var btnA int
	if math.Mod(elapsed, 5) < 0.2 {
		btnA = 1
	}

	return sample.SensorSample{
		Timestamp: now.Sub(m.start).Milliseconds(),
		Tilt: sample.Tilt{
			X: 20 * math.Sin(elapsed*0.8),
			Y: 15 * math.Cos(elapsed*0.7),
		},
		Buttons: sample.Buttons{A: btnA},
		Encoder: sample.Encoder{Delta: delta, Position: m.position},
		Pot:     int((math.Sin(elapsed*0.3) + 1) / 2 * sample.PotMax),
	}, true
}

// Send logs commands so operators can see what would have reached the
// device; plain feedback records are discarded quietly.
func (m *SyntheticSource) Send(line []byte) {
	fb, err := wire.DecodeFeedback(line)
	if err != nil || fb.Command == "" {
		return
	}
	log.Printf("bridge: synthetic sink swallowed command %q", fb.Command)
}

// Name identifies the source in logs.
func (m *SyntheticSource) Name() string { return "synthetic" }

// Close is a no-op.
func (m *SyntheticSource) Close() error { return nil }
