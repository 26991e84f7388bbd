// Package effects arbitrates the controller's buzzer and lights between a
// looping background music channel and one-shot foreground effects keyed to
// game events. One-shots preempt the buzzer for their duration; the
// background track keeps advancing on wall time during preemption and
// resumes at the offset it would have reached anyway.
package effects

import (
	"log"
	"time"

	"github.com/trifaze/tetriskart/internal/sample"
)

// Buzzer drives the tone output. Implementations log their own hardware
// errors; the coordinator runs inside the device tick loop and never blocks.
type Buzzer interface {
	Tone(freqHz int)
	Off()
}

// Lights drives the visual feedback channel.
type Lights interface {
	Set(on bool)
}

// Coordinator owns both effect channels. It belongs to the device scheduler
// goroutine and is driven by Tick.
type Coordinator struct {
	buzzer Buzzer
	lights Lights
	now    func() time.Time

	track      *Track
	trackStart time.Time

	oneShotFreq  int
	oneShotUntil time.Time

	soundOn  bool // gates all audio
	musicOn  bool // gates the background channel only
	lightsOn bool // gates the visual channel only
}

// New returns a coordinator with both channels enabled and nothing playing.
func New(b Buzzer, l Lights) *Coordinator {
	return &Coordinator{
		buzzer:   b,
		lights:   l,
		now:      time.Now,
		soundOn:  true,
		musicOn:  true,
		lightsOn: true,
	}
}

// SetClock replaces the wall clock, for tests.
func (c *Coordinator) SetClock(now func() time.Time) {
	c.now = now
}

// Play starts the named background track from the beginning. Unknown names
// are ignored.
func (c *Coordinator) Play(name string) {
	t := TrackByName(name)
	if t == nil {
		log.Printf("effects: unknown track %q ignored", name)
		return
	}
	c.track = t
	c.trackStart = c.now()
}

// Stop silences the background channel.
func (c *Coordinator) Stop() {
	c.track = nil
}

// Trigger fires a one-shot effect: the lights pulse and, when audio is
// enabled, the tone preempts the background channel for the duration.
func (c *Coordinator) Trigger(spec ToneSpec) {
	c.oneShotFreq = spec.Freq
	c.oneShotUntil = c.now().Add(time.Duration(spec.Ms) * time.Millisecond)
}

// TriggerEvent fires the configured effect for a game event tag. Unknown
// tags are ignored, never fatal.
func (c *Coordinator) TriggerEvent(tag string) {
	spec, ok := EventEffects[tag]
	if !ok {
		log.Printf("effects: unknown event %q ignored", tag)
		return
	}
	c.Trigger(spec)
}

// HandleCommand applies a music/sound command and reports whether the tag
// was one the coordinator owns.
func (c *Coordinator) HandleCommand(tag string) bool {
	switch tag {
	case sample.CmdMusicMenu:
		c.Play("menu")
	case sample.CmdMusicGame:
		c.Play("game")
	case sample.CmdMusicScoring:
		c.Play("scoring")
	case sample.CmdMusicStop:
		c.Stop()
	case sample.CmdMusicMute:
		c.musicOn = false
	case sample.CmdMusicUnmute:
		c.musicOn = true
	case sample.CmdSoundOn:
		c.soundOn = true
		c.musicOn = true
	case sample.CmdSoundOff:
		c.soundOn = false
	default:
		return false
	}
	return true
}

// Reset returns both channels to their initial state. Safe to call twice.
func (c *Coordinator) Reset() {
	c.track = nil
	c.oneShotFreq = 0
	c.oneShotUntil = time.Time{}
	c.soundOn = true
	c.musicOn = true
	c.lightsOn = true
	c.buzzer.Off()
	c.lights.Set(false)
}

// SoundEnabled reports whether the audio channel is live.
func (c *Coordinator) SoundEnabled() bool {
	return c.soundOn
}

// Tick drives both channels. Call it every scheduler iteration.
func (c *Coordinator) Tick() {
	now := c.now()

	if now.Before(c.oneShotUntil) {
		c.lights.Set(c.lightsOn)
		if c.soundOn {
			c.buzzer.Tone(c.oneShotFreq)
		} else {
			c.buzzer.Off()
		}
		return
	}
	c.lights.Set(false)

	note, playing := c.musicNote(now)
	if !playing || !c.soundOn || !c.musicOn || note.Freq == 0 {
		c.buzzer.Off()
		return
	}
	c.buzzer.Tone(note.Freq)
}

// musicNote resolves the background note sounding now. The position is a
// pure function of elapsed time since Play, so preemption and muting do not
// pause the track. A looping track retires after MaxLoops passes.
func (c *Coordinator) musicNote(now time.Time) (Note, bool) {
	if c.track == nil {
		return Note{}, false
	}
	total := c.track.Total()
	if total <= 0 {
		c.track = nil
		return Note{}, false
	}
	elapsed := now.Sub(c.trackStart)
	if elapsed < 0 {
		return Note{}, false
	}
	pass := int(elapsed / total)
	if c.track.MaxLoops > 0 && pass >= c.track.MaxLoops {
		c.track = nil
		return Note{}, false
	}
	return c.track.NoteAt(elapsed % total), true
}
