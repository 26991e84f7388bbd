package device

import (
	"fmt"
	"image"
	"log"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Scoreboard renders game feedback on the SSD1306. Redraws happen only when
// a value changes; the I2C transfer is too slow for the 10ms sample loop to
// pay on every tick.
type Scoreboard struct {
	dev *ssd1306.Dev

	haveScore bool
	score     int
	level     int
	lines     int
}

// NewScoreboard opens the display on the default I2C bus and shows the
// title screen.
func NewScoreboard() (*Scoreboard, error) {
	bus, err := i2creg.Open("")
	if err != nil {
		return nil, fmt.Errorf("scoreboard: open I2C bus: %w", err)
	}

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("scoreboard: SSD1306 init: %w", err)
	}

	sb := &Scoreboard{dev: dev}
	if err := sb.ShowSplash(); err != nil {
		log.Printf("scoreboard: splash: %v", err)
	}
	log.Printf("scoreboard: SSD1306 initialized")
	return sb, nil
}

func blankImage() *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))
	for i := range img.Pix {
		img.Pix[i] = 0
	}
	return img
}

func newDrawer(img *image1bit.VerticalLSB) *font.Drawer {
	return &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
}

// ShowSplash draws the title screen and forgets any displayed score, so the
// next feedback record always redraws.
func (s *Scoreboard) ShowSplash() error {
	s.haveScore = false

	img := blankImage()
	drawer := newDrawer(img)

	drawer.Dot = fixed.P(35, 26)
	drawer.DrawBytes([]byte("TRIFAZE"))

	drawer.Dot = fixed.P(15, 43)
	drawer.DrawBytes([]byte("Dentist Tetris"))

	return s.dev.Draw(s.dev.Bounds(), img, image.Point{})
}

// Update redraws the scoreboard when any of the three values changed since
// the last draw. A negative score means "keep the current one" and only
// refreshes level and lines.
func (s *Scoreboard) Update(score, level, lines int) {
	if score < 0 {
		score = s.score
	}
	if s.haveScore && score == s.score && level == s.level && lines == s.lines {
		return
	}
	s.haveScore = true
	s.score, s.level, s.lines = score, level, lines

	img := blankImage()
	drawer := newDrawer(img)

	drawer.Dot = fixed.P(0, 13)
	drawer.DrawBytes([]byte(fmt.Sprintf("Score %6d", score)))

	drawer.Dot = fixed.P(0, 33)
	drawer.DrawBytes([]byte(fmt.Sprintf("Level %6d", level)))

	drawer.Dot = fixed.P(0, 53)
	drawer.DrawBytes([]byte(fmt.Sprintf("Lines %6d", lines)))

	if err := s.dev.Draw(s.dev.Bounds(), img, image.Point{}); err != nil {
		log.Printf("scoreboard: draw: %v", err)
	}
}

// Halt blanks the panel.
func (s *Scoreboard) Halt() {
	if err := s.dev.Halt(); err != nil {
		log.Printf("scoreboard: halt: %v", err)
	}
}
