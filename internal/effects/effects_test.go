package effects

import (
	"testing"
	"time"

	"github.com/trifaze/tetriskart/internal/sample"
)

type fakeBuzzer struct {
	freq int // 0 when off
}

func (b *fakeBuzzer) Tone(f int) { b.freq = f }
func (b *fakeBuzzer) Off()       { b.freq = 0 }

type fakeLights struct {
	on bool
}

func (l *fakeLights) Set(on bool) { l.on = on }

type fixture struct {
	c   *Coordinator
	b   *fakeBuzzer
	l   *fakeLights
	now time.Time
}

func newFixture() *fixture {
	f := &fixture{b: &fakeBuzzer{}, l: &fakeLights{}, now: time.Unix(1000, 0)}
	f.c = New(f.b, f.l)
	f.c.SetClock(func() time.Time { return f.now })
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
	f.c.Tick()
}

func TestMenuTrackPlaysNotesInOrder(t *testing.T) {
	f := newFixture()
	f.c.Play("menu")
	f.advance(0)
	if f.b.freq != 659 {
		t.Errorf("first note freq = %d, want 659", f.b.freq)
	}
	f.advance(166 * time.Millisecond)
	if f.b.freq != 587 {
		t.Errorf("second note freq = %d, want 587", f.b.freq)
	}
}

func TestOneShotPreemptsAndBackgroundAdvances(t *testing.T) {
	f := newFixture()
	f.c.Play("menu")
	f.advance(100 * time.Millisecond) // inside note 0 (659 Hz)

	f.c.Trigger(ToneSpec{1400, 120})
	f.advance(50 * time.Millisecond)
	if f.b.freq != 1400 {
		t.Errorf("during one-shot freq = %d, want 1400", f.b.freq)
	}
	if !f.l.on {
		t.Error("lights off during one-shot")
	}

	// 230 ms into the track: the one-shot has ended and the background is in
	// note 1 (166..332 ms window) - elapsed time kept running while preempted.
	f.advance(80 * time.Millisecond)
	if f.b.freq != 587 {
		t.Errorf("post-preemption freq = %d, want 587 (track must resume at elapsed offset)", f.b.freq)
	}
	if f.l.on {
		t.Error("lights still on after one-shot expired")
	}
}

func TestLoopingTrackRetiresAfterMaxLoops(t *testing.T) {
	f := newFixture()
	f.c.Play("menu")
	total := MenuTrack.Total()

	f.advance(total + 10*time.Millisecond) // second pass, note 0
	if f.b.freq != 659 {
		t.Errorf("second pass freq = %d, want 659", f.b.freq)
	}
	f.advance(total) // past MaxLoops passes
	if f.b.freq != 0 {
		t.Errorf("freq after final loop = %d, want 0", f.b.freq)
	}
}

func TestScoringTrackPlaysOnce(t *testing.T) {
	f := newFixture()
	f.c.Play("scoring")
	f.advance(0)
	if f.b.freq != 523 {
		t.Errorf("freq = %d, want 523", f.b.freq)
	}
	f.advance(ScoringTrack.Total() + time.Millisecond)
	if f.b.freq != 0 {
		t.Errorf("scoring track looped: freq = %d", f.b.freq)
	}
}

func TestSoundOffKeepsLights(t *testing.T) {
	f := newFixture()
	f.c.HandleCommand(sample.CmdSoundOff)
	f.c.Play("menu")
	f.c.TriggerEvent(sample.EventLineCleared)
	f.advance(10 * time.Millisecond)
	if f.b.freq != 0 {
		t.Errorf("buzzer audible with sound off: %d Hz", f.b.freq)
	}
	if !f.l.on {
		t.Error("visual channel silenced by sound-off; channels must be independent")
	}
}

func TestMusicMuteSilencesBackgroundOnly(t *testing.T) {
	f := newFixture()
	f.c.Play("menu")
	f.c.HandleCommand(sample.CmdMusicMute)
	f.advance(10 * time.Millisecond)
	if f.b.freq != 0 {
		t.Errorf("muted music audible: %d Hz", f.b.freq)
	}
	f.c.TriggerEvent(sample.EventLevelUp)
	f.advance(10 * time.Millisecond)
	if f.b.freq != 800 {
		t.Errorf("one-shot freq = %d, want 800 (mute is music-only)", f.b.freq)
	}
	// Unmute mid-track: position reflects all elapsed time, not a restart.
	f.now = f.now.Add(250 * time.Millisecond) // one-shot expired; 270 ms in: note 1
	f.c.HandleCommand(sample.CmdMusicUnmute)
	f.c.Tick()
	if f.b.freq != 587 {
		t.Errorf("freq after unmute = %d, want 587", f.b.freq)
	}
}

func TestUnknownTagsIgnored(t *testing.T) {
	f := newFixture()
	f.c.Play("jazz")
	f.c.TriggerEvent("CONFETTI")
	if f.c.HandleCommand("warp_drive") {
		t.Error("unknown command reported as handled")
	}
	f.advance(10 * time.Millisecond)
	if f.b.freq != 0 || f.l.on {
		t.Error("unknown tags produced output")
	}
}

func TestResetIsIdempotent(t *testing.T) {
	f := newFixture()
	f.c.Play("game")
	f.c.TriggerEvent(sample.EventGameOver)
	f.c.HandleCommand(sample.CmdSoundOff)

	f.c.Reset()
	f.c.Reset()

	if !f.c.SoundEnabled() {
		t.Error("sound not re-enabled by reset")
	}
	f.advance(10 * time.Millisecond)
	if f.b.freq != 0 || f.l.on {
		t.Error("output still active after reset")
	}
	// The coordinator is fully usable after a double reset.
	f.c.Play("menu")
	f.advance(0)
	if f.b.freq != 659 {
		t.Errorf("freq after reset+play = %d, want 659", f.b.freq)
	}
}
