// Package bridge links the host to the device stream: it drains decoded
// records, normalizes them, falls back to a synthetic input source when the
// link goes silent, and emits feedback on its own cadence.
package bridge

import (
	"log"
	"time"

	"github.com/trifaze/tetriskart/internal/game"
	"github.com/trifaze/tetriskart/internal/sample"
	"github.com/trifaze/tetriskart/internal/wire"
)

// Default cadences. Feedback runs at ~50 records/second independent of the
// device's sampling rate; silence past the timeout is the sole disconnect
// signal.
const (
	DefaultTimeout       = time.Second
	DefaultFeedbackEvery = 20 * time.Millisecond
)

// Bridge multiplexes the live and synthetic sources and owns the feedback
// cadence. It belongs to the sync loop goroutine.
type Bridge struct {
	live  Source // nil when the host started in synthetic-only mode
	synth Source

	timeout       time.Duration
	feedbackEvery time.Duration
	now           func() time.Time

	usingFallback bool
	lastRx        time.Time
	lastFeedback  time.Time
}

// New builds a bridge over a live source and its fallback. live may be nil,
// in which case the bridge runs on the synthetic source from the start.
func New(live Source, synth Source) *Bridge {
	b := &Bridge{
		live:          live,
		synth:         synth,
		timeout:       DefaultTimeout,
		feedbackEvery: DefaultFeedbackEvery,
		now:           time.Now,
	}
	b.lastRx = b.now()
	if live == nil {
		b.usingFallback = true
		log.Printf("bridge: no live source, fallback active from start")
	}
	return b
}

// SetClock replaces the wall clock, for tests.
func (b *Bridge) SetClock(now func() time.Time) {
	b.now = now
	b.lastRx = now()
}

// SetTimeout overrides the disconnect window.
func (b *Bridge) SetTimeout(d time.Duration) { b.timeout = d }

// SetFeedbackInterval overrides the periodic feedback cadence.
func (b *Bridge) SetFeedbackInterval(d time.Duration) { b.feedbackEvery = d }

// FallbackActive reports whether samples currently originate from the
// synthetic source.
func (b *Bridge) FallbackActive() bool { return b.usingFallback }

// Drain returns up to max normalized samples, oldest first. A silent live
// link past the timeout switches to the synthetic source; any live record
// switches back.
func (b *Bridge) Drain(max int) []game.InputState {
	now := b.now()
	var out []game.InputState

	if b.live != nil {
		for len(out) < max {
			rec, ok := b.live.Next()
			if !ok {
				break
			}
			out = append(out, game.Normalize(rec, false))
		}
		if len(out) > 0 {
			b.lastRx = now
			if b.usingFallback {
				b.usingFallback = false
				log.Printf("bridge: device stream resumed, leaving fallback")
			}
			return out
		}
		if !b.usingFallback && now.Sub(b.lastRx) > b.timeout {
			b.usingFallback = true
			log.Printf("bridge: no device record for %v, fallback active", b.timeout)
		}
	}

	if b.usingFallback {
		for len(out) < max {
			rec, ok := b.synth.Next()
			if !ok {
				break
			}
			out = append(out, game.Normalize(rec, true))
		}
	}
	return out
}

// active returns the source feedback should reach. The live device keeps
// receiving feedback even while input runs on the fallback, so its displays
// recover the moment it comes back.
func (b *Bridge) active() Source {
	if b.live != nil {
		return b.live
	}
	return b.synth
}

// SendFeedback transmits one feedback record immediately.
func (b *Bridge) SendFeedback(fb sample.Feedback) {
	line, err := wire.EncodeFeedback(fb)
	if err != nil {
		log.Printf("bridge: feedback encode error: %v", err)
		return
	}
	b.active().Send(line)
	b.lastFeedback = b.now()
}

// SendCommand transmits one command record immediately; commands are never
// held for the periodic cadence.
func (b *Bridge) SendCommand(tag string) {
	line, err := wire.EncodeCommand(tag)
	if err != nil {
		log.Printf("bridge: command encode error: %v", err)
		return
	}
	b.active().Send(line)
}

// MaybeSendFeedback applies the cadence: the record goes out when it carries
// events (state-changing, sent immediately) or when the periodic interval
// has elapsed. Reports whether a send happened.
func (b *Bridge) MaybeSendFeedback(fb sample.Feedback) bool {
	if len(fb.Events) == 0 && b.now().Sub(b.lastFeedback) < b.feedbackEvery {
		return false
	}
	b.SendFeedback(fb)
	return true
}

// Close releases both sources.
func (b *Bridge) Close() {
	if b.live != nil {
		if err := b.live.Close(); err != nil {
			log.Printf("bridge: closing live source: %v", err)
		}
	}
	if err := b.synth.Close(); err != nil {
		log.Printf("bridge: closing synthetic source: %v", err)
	}
}
