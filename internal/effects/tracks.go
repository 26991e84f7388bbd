package effects

import "time"

// Note is one step of a background track: a tone frequency (0 = rest) held
// for a duration. Tracks are configuration data, not derived logic.
type Note struct {
	Freq int // Hz, 0 for a rest
	Ms   int
}

// Track is a named note sequence. Looping tracks replay from the start until
// MaxLoops passes have elapsed; MaxLoops 0 loops forever.
type Track struct {
	Name     string
	Notes    []Note
	MaxLoops int
}

// Total returns the duration of one pass through the track.
func (t *Track) Total() time.Duration {
	var ms int
	for _, n := range t.Notes {
		ms += n.Ms
	}
	return time.Duration(ms) * time.Millisecond
}

// NoteAt returns the note sounding at the given offset into one pass.
// Offsets beyond the pass return a rest.
func (t *Track) NoteAt(off time.Duration) Note {
	ms := int(off / time.Millisecond)
	for _, n := range t.Notes {
		if ms < n.Ms {
			return n
		}
		ms -= n.Ms
	}
	return Note{}
}

// ToneSpec is a fixed one-shot effect: frequency and hold time.
type ToneSpec struct {
	Freq int
	Ms   int
}

// EventEffects binds each game event tag to its one-shot effect. These pairs
// are effect configuration, not protocol payload.
var EventEffects = map[string]ToneSpec{
	"LINE_CLEARED": {1400, 120},
	"LEVEL_UP":     {800, 200},
	"GAME_OVER":    {200, 400},
}

// MenuTrack is the menu/pause loop (Nokia ringtone, 180 BPM).
var MenuTrack = Track{
	Name:     "menu",
	MaxLoops: 2,
	Notes: []Note{
		{659, 166}, {587, 166}, {740, 333}, {831, 333},
		{554, 166}, {494, 166}, {294, 333}, {330, 333},
		{494, 166}, {440, 166}, {277, 333}, {330, 333},
		{440, 666}, {0, 200},
	},
}

// GameTrack is the in-game loop (Star Wars main theme, 108 BPM).
var GameTrack = Track{
	Name:     "game",
	MaxLoops: 2,
	Notes: []Note{
		{466, 277}, {466, 277}, {466, 277}, {698, 1111}, {1047, 1111},
		{932, 277}, {880, 277}, {784, 277}, {1397, 1111}, {1047, 555},
		{932, 277}, {880, 277}, {784, 277}, {1397, 1111}, {1047, 555},
		{932, 277}, {880, 277}, {932, 277}, {784, 1111},
		{523, 277}, {523, 277}, {523, 277}, {698, 1111}, {1047, 1111},
		{932, 277}, {880, 277}, {784, 277}, {1397, 1111}, {1047, 555},
		{932, 277}, {880, 277}, {784, 277}, {1397, 1111}, {1047, 555},
		{932, 277}, {880, 277}, {932, 277}, {784, 1111},
		{523, 416}, {523, 138}, {587, 833}, {587, 277},
		{932, 277}, {880, 277}, {784, 277}, {698, 277},
		{698, 277}, {784, 277}, {880, 277}, {784, 555},
		{587, 277}, {659, 555},
		{523, 416}, {523, 138}, {587, 833}, {587, 277},
		{932, 277}, {880, 277}, {784, 277}, {698, 277},
		{1047, 416}, {784, 138}, {784, 2222}, {0, 277},
		{523, 277}, {587, 1111}, {587, 277},
		{932, 277}, {880, 277}, {784, 277}, {698, 277},
		{698, 277}, {784, 277}, {880, 277}, {784, 555},
		{587, 277}, {659, 555},
		{1047, 416}, {1047, 138}, {1397, 555}, {1245, 277},
		{1109, 555}, {1047, 277}, {932, 555}, {831, 277},
		{784, 555}, {698, 277}, {1047, 2222}, {0, 200},
	},
}

// ScoringTrack is the short line-clear fanfare; it never loops.
var ScoringTrack = Track{
	Name:     "scoring",
	MaxLoops: 1,
	Notes: []Note{
		{523, 100}, {659, 100}, {784, 100}, {1047, 200},
		{784, 100}, {1047, 300}, {0, 100},
	},
}

// TrackByName resolves a track tag; unknown tags return nil.
func TrackByName(name string) *Track {
	switch name {
	case "menu":
		return &MenuTrack
	case "game":
		return &GameTrack
	case "scoring":
		return &ScoringTrack
	}
	return nil
}
