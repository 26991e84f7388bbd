// Package quadrature decodes a two-pin rotary encoder signal into signed
// step counts using a fixed transition table.
package quadrature

// transitions maps (previous<<2 | current) to a step delta. The four
// Gray-adjacent forward pairs count +1, the four backward pairs -1. A repeated
// state or a two-bit jump means no information (or a missed sample) and
// counts 0, so electrical noise can never move the position.
var transitions = [16]int8{
	0b0001: +1, // 00 -> 01
	0b0111: +1, // 01 -> 11
	0b1110: +1, // 11 -> 10
	0b1000: +1, // 10 -> 00

	0b0010: -1, // 00 -> 10
	0b1011: -1, // 10 -> 11
	0b1101: -1, // 11 -> 01
	0b0100: -1, // 01 -> 00

	// 0b0000, 0b0101, 0b1010, 0b1111: no change
	// 0b0011, 0b1100, 0b0110, 0b1001: two-bit jump, direction unknowable
}

// Decode returns the step delta for a previous/current 2-bit pin pair.
// Only the low two bits of each argument are considered.
func Decode(prev, cur uint8) int {
	return int(transitions[(prev&0b11)<<2|cur&0b11])
}

// Encoder accumulates decoded steps. It is owned by a single goroutine (the
// device scheduler) and is not safe for concurrent use.
type Encoder struct {
	state    uint8
	position int64
	delta    int
}

// NewEncoder returns an encoder seeded with the current pin reading so the
// first poll does not register a phantom transition.
func NewEncoder(a, b bool) *Encoder {
	return &Encoder{state: pins(a, b)}
}

func pins(a, b bool) uint8 {
	var s uint8
	if a {
		s |= 0b10
	}
	if b {
		s |= 0b01
	}
	return s
}

// Poll applies one pin reading and returns the step delta it produced.
func (e *Encoder) Poll(a, b bool) int {
	cur := pins(a, b)
	d := Decode(e.state, cur)
	e.state = cur
	if d != 0 {
		e.position += int64(d)
		e.delta += d
	}
	return d
}

// Drain returns the delta accumulated since the previous Drain and resets it.
func (e *Encoder) Drain() int {
	d := e.delta
	e.delta = 0
	return d
}

// Position returns the cumulative step count since construction.
func (e *Encoder) Position() int64 {
	return e.position
}

// Reset zeroes the position and pending delta, keeping the pin state.
func (e *Encoder) Reset() {
	e.position = 0
	e.delta = 0
}
