// Package sched runs the device's cooperative sampling loop: a short-period
// encoder poll and a longer-period full-sample assembly, with deadline
// accounting that never lets slower duties starve the encoder.
package sched

import (
	"log"
	"time"

	"github.com/trifaze/tetriskart/internal/calibrate"
	"github.com/trifaze/tetriskart/internal/quadrature"
	"github.com/trifaze/tetriskart/internal/sample"
)

// Default duty periods, matching the firmware.
const (
	DefaultEncoderPeriod = time.Millisecond
	DefaultSamplePeriod  = 10 * time.Millisecond
)

// maxBacklog bounds catch-up work: when a duty falls further behind than
// this many periods (a long command handler, say), the schedule snaps
// forward. Sampling degrades to skipped ticks, never to a burst.
const maxBacklog = 4

// EncoderPins reads the two quadrature pins.
type EncoderPins interface {
	ReadPins() (a, b bool)
}

// TiltReader reads raw, uncalibrated tilt angles in degrees.
type TiltReader interface {
	ReadTilt() (x, y float64, err error)
}

// ButtonReader reads the two push buttons.
type ButtonReader interface {
	ReadButtons() (a, b bool)
}

// PotReader reads the potentiometer, already normalized to 0..PotMax.
type PotReader interface {
	ReadPot() (int, error)
}

// Scheduler assembles sensor samples. It is single-goroutine: Tick must be
// called from one loop, and Emit must never block (drop instead).
type Scheduler struct {
	Pins    EncoderPins
	Tilt    TiltReader
	Buttons ButtonReader
	Pot     PotReader

	Encoder *quadrature.Encoder
	Cal     *calibrate.Calibrator

	// Emit receives each assembled sample. It must not block; a sink that
	// cannot keep up drops the sample (the stream is lossy by contract).
	Emit func(sample.SensorSample)

	EncoderPeriod time.Duration
	SamplePeriod  time.Duration

	epoch       time.Time
	nextEncoder time.Time
	nextSample  time.Time
	lastStamp   int64

	// last good readings, reused when a sensor read fails so the stream
	// keeps flowing
	lastTiltX float64
	lastTiltY float64
	lastPot   int
}

// Start primes the duty deadlines one period out and seeds the encoder state
// from the current pin levels, so powering up mid-detent does not count as a
// step.
func (s *Scheduler) Start(now time.Time) {
	if s.EncoderPeriod <= 0 {
		s.EncoderPeriod = DefaultEncoderPeriod
	}
	if s.SamplePeriod <= 0 {
		s.SamplePeriod = DefaultSamplePeriod
	}
	if s.Encoder == nil {
		a, b := s.Pins.ReadPins()
		s.Encoder = quadrature.NewEncoder(a, b)
	}
	if s.Cal == nil {
		s.Cal = calibrate.New(0)
	}
	s.epoch = now
	s.nextEncoder = now.Add(s.EncoderPeriod)
	s.nextSample = now.Add(s.SamplePeriod)
	s.lastStamp = -1
}

// NextDeadline returns the earliest pending duty deadline, so the caller can
// sleep instead of spinning.
func (s *Scheduler) NextDeadline() time.Time {
	if s.nextEncoder.Before(s.nextSample) {
		return s.nextEncoder
	}
	return s.nextSample
}

// Tick services every duty that is due at now. The encoder poll is serviced
// first so rotational input is never starved by sample assembly or by the
// I/O latency of a pending transmission.
func (s *Scheduler) Tick(now time.Time) {
	if !now.Before(s.nextEncoder) {
		a, b := s.Pins.ReadPins()
		s.Encoder.Poll(a, b)
		s.nextEncoder = advance(s.nextEncoder, s.EncoderPeriod, now)
	}
	if !now.Before(s.nextSample) {
		s.emitSample(now)
		s.nextSample = advance(s.nextSample, s.SamplePeriod, now)
	}
}

// advance moves a duty deadline one period forward, snapping to now when the
// backlog exceeds the budget.
func advance(next time.Time, period time.Duration, now time.Time) time.Time {
	next = next.Add(period)
	if now.Sub(next) > maxBacklog*period {
		return now.Add(period)
	}
	return next
}

func (s *Scheduler) emitSample(now time.Time) {
	rawX, rawY, err := s.Tilt.ReadTilt()
	if err != nil {
		log.Printf("sched: tilt read error: %v", err)
		rawX, rawY = s.lastTiltX, s.lastTiltY
	} else {
		s.lastTiltX, s.lastTiltY = rawX, rawY
	}

	// Calibration consumes the same raw readings the sample is built from;
	// reporting continues against the previous offset until the burst lands.
	if s.Cal.Collecting() {
		if s.Cal.Feed(rawX, rawY) {
			off := s.Cal.Offset()
			log.Printf("sched: tilt calibration complete, offset x=%.2f y=%.2f", off.X, off.Y)
		}
	}

	x, y := s.Cal.Apply(rawX, rawY)
	// Only x is clamped: it steers, y is informational.
	x = clamp(x, -sample.TiltClamp, sample.TiltClamp)

	pot, err := s.Pot.ReadPot()
	if err != nil {
		log.Printf("sched: pot read error: %v", err)
		pot = s.lastPot
	} else {
		s.lastPot = pot
	}

	a, b := s.Buttons.ReadButtons()

	s.Emit(sample.SensorSample{
		Timestamp: s.stamp(now),
		Tilt:      sample.Tilt{X: x, Y: y},
		Buttons:   sample.Buttons{A: boolToInt(a), B: boolToInt(b)},
		Encoder: sample.Encoder{
			Delta:    s.Encoder.Drain(),
			Position: s.Encoder.Position(),
		},
		Pot: pot,
	})
}

// stamp returns monotonic milliseconds since Start, never decreasing.
func (s *Scheduler) stamp(now time.Time) int64 {
	ts := now.Sub(s.epoch).Milliseconds()
	if ts < s.lastStamp {
		ts = s.lastStamp
	}
	s.lastStamp = ts
	return ts
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
