// Package game defines the boundary to the external game engine. The rules
// themselves (piece geometry, scoring, levels) live outside this repository;
// the host only feeds normalized input in and carries state and events back
// to the device.
package game

import "github.com/trifaze/tetriskart/internal/sample"

// InputState is the host-side normalized view of one device sample.
type InputState struct {
	Timestamp int64   `json:"ts"` // device milliseconds
	TiltX     float64 `json:"tilt_x"`
	TiltY     float64 `json:"tilt_y"`
	ButtonA   bool    `json:"button_a"`
	ButtonB   bool    `json:"button_b"`
	EncDelta  int     `json:"enc_delta"`
	EncPos    int64   `json:"enc_pos"`
	Pot       float64 `json:"pot"` // 0..1
	PotRaw    int     `json:"pot_raw"`
	Synthetic bool    `json:"synthetic"` // true when the fallback source produced it
}

// Normalize converts a wire record into the host representation.
func Normalize(rec sample.SensorSample, synthetic bool) InputState {
	return InputState{
		Timestamp: rec.Timestamp,
		TiltX:     rec.Tilt.X,
		TiltY:     rec.Tilt.Y,
		ButtonA:   rec.Buttons.A != 0,
		ButtonB:   rec.Buttons.B != 0,
		EncDelta:  rec.Encoder.Delta,
		EncPos:    rec.Encoder.Position,
		Pot:       float64(rec.Pot) / float64(sample.PotMax),
		PotRaw:    rec.Pot,
		Synthetic: synthetic,
	}
}

// State is the engine-reported game state mirrored to the device.
type State struct {
	Score int `json:"score"`
	Level int `json:"level"`
	Lines int `json:"lines"`
}

// Engine is the external rule engine as the sync loop sees it.
// Implementations must be safe for use from the sync loop goroutine only.
type Engine interface {
	// Apply feeds the most recent input sample and the frame delta time.
	Apply(in InputState, dt float64)
	// Snapshot returns the current game state.
	Snapshot() State
	// TakeEvents returns events raised since the previous call and clears
	// them. Order is preserved.
	TakeEvents() []string
	// TakeCommands returns device-bound commands (calibrate, music, sound,
	// exit) requested by the engine or its UI since the previous call.
	TakeCommands() []string
	// Reset returns the engine to its initial state. Idempotent.
	Reset()
}
