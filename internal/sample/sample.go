// Package sample defines the records exchanged between the controller and
// the host, plus the enumerated commands and events they carry.
package sample

// Version is the wire schema version stamped on every record. A record with
// a missing version field is treated as version 1 for compatibility with the
// original firmware.
const Version = 1

// Tilt holds the calibrated tilt angles in degrees.
type Tilt struct {
	X float64 `json:"x"` // roll, drives horizontal movement
	Y float64 `json:"y"` // pitch, unused by the game but reported
}

// Buttons holds the two push-button states as 0/1 on the wire.
type Buttons struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Encoder holds the rotary encoder reading for one sample period.
type Encoder struct {
	Delta    int   `json:"delta"`    // steps since the previous sample
	Position int64 `json:"position"` // cumulative steps since boot
}

// SensorSample is one device->host record. All values are post-normalization:
// tilt is calibrated degrees, pot is 0..65535 regardless of the ADC behind it.
type SensorSample struct {
	Version   int     `json:"v,omitempty"`
	Timestamp int64   `json:"ts"` // device monotonic milliseconds
	Tilt      Tilt    `json:"tilt"`
	Buttons   Buttons `json:"buttons"`
	Encoder   Encoder `json:"encoder"`
	Pot       int     `json:"pot"`
}

// Feedback is one host->device record reflecting game state. Events is
// ordered; the device fires one effect per recognized tag.
type Feedback struct {
	Version int      `json:"v,omitempty"`
	Score   int      `json:"score"`
	Level   int      `json:"level"`
	Lines   int      `json:"lines"`
	Events  []string `json:"events,omitempty"`
	Command string   `json:"command,omitempty"`
}

// Command tags understood by the device. Unknown tags are ignored.
const (
	CmdCalibrate    = "calibrate"
	CmdMusicMenu    = "music_menu"
	CmdMusicGame    = "music_game"
	CmdMusicScoring = "music_scoring"
	CmdMusicStop    = "music_stop"
	CmdMusicMute    = "music_mute"
	CmdMusicUnmute  = "music_unmute"
	CmdSoundOn      = "sound_on"
	CmdSoundOff     = "sound_off"
	CmdExit         = "exit" // reset for a new game; the device keeps running
)

// Event tags emitted by the game engine.
const (
	EventLineCleared = "LINE_CLEARED"
	EventLevelUp     = "LEVEL_UP"
	EventGameOver    = "GAME_OVER"
)

// KnownCommand reports whether tag is one of the enumerated commands.
func KnownCommand(tag string) bool {
	switch tag {
	case CmdCalibrate, CmdMusicMenu, CmdMusicGame, CmdMusicScoring,
		CmdMusicStop, CmdMusicMute, CmdMusicUnmute,
		CmdSoundOn, CmdSoundOff, CmdExit:
		return true
	}
	return false
}

// KnownEvent reports whether tag is one of the enumerated events.
func KnownEvent(tag string) bool {
	switch tag {
	case EventLineCleared, EventLevelUp, EventGameOver:
		return true
	}
	return false
}

// PotMax is the upper bound of the normalized potentiometer range.
const PotMax = 65535

// TiltClamp is the reported tilt.x range in degrees; readings outside are
// clamped before transmission.
const TiltClamp = 30.0
