// Package calibrate computes the tilt rest-offset baseline. Calibration is
// all-or-nothing: the installed offset only ever changes when a full burst of
// readings has been averaged, so consumers see either the old offset or the
// complete new one, never a partial blend.
package calibrate

// DefaultSamples matches the firmware's 50-reading rest burst.
const DefaultSamples = 50

// Offset is the baseline subtracted from raw tilt readings.
type Offset struct {
	X float64
	Y float64
}

// Calibrator accumulates raw tilt readings while a calibration request is in
// flight. It is owned by the device scheduler goroutine; at most one
// calibration is in flight at a time by construction.
type Calibrator struct {
	offset Offset

	collecting bool
	need       int
	count      int
	sumX       float64
	sumY       float64
}

// New returns a calibrator with a zero offset. samples <= 0 selects
// DefaultSamples.
func New(samples int) *Calibrator {
	if samples <= 0 {
		samples = DefaultSamples
	}
	return &Calibrator{need: samples}
}

// Offset returns the currently installed baseline.
func (c *Calibrator) Offset() Offset {
	return c.offset
}

// Collecting reports whether a calibration burst is in progress.
func (c *Calibrator) Collecting() bool {
	return c.collecting
}

// Start begins a new collection burst. A burst already in progress is
// discarded first, so back-to-back requests behave like a single fresh one.
func (c *Calibrator) Start() {
	c.collecting = true
	c.count = 0
	c.sumX = 0
	c.sumY = 0
}

// Feed adds one raw tilt reading to an in-flight burst and reports whether
// the burst completed and installed a new offset. Readings fed while no
// burst is active are ignored.
func (c *Calibrator) Feed(x, y float64) bool {
	if !c.collecting {
		return false
	}
	c.sumX += x
	c.sumY += y
	c.count++
	if c.count < c.need {
		return false
	}
	c.offset = Offset{X: c.sumX / float64(c.count), Y: c.sumY / float64(c.count)}
	c.collecting = false
	return true
}

// Abort discards a partial burst; the installed offset is untouched.
func (c *Calibrator) Abort() {
	c.collecting = false
	c.count = 0
	c.sumX = 0
	c.sumY = 0
}

// Reset aborts any burst and restores the zero offset (new-game reset).
func (c *Calibrator) Reset() {
	c.Abort()
	c.offset = Offset{}
}

// Apply subtracts the installed baseline from a raw reading.
func (c *Calibrator) Apply(x, y float64) (float64, float64) {
	return x - c.offset.X, y - c.offset.Y
}
