package device

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/trifaze/tetriskart/internal/config"
)

// inputPin resolves a named GPIO and configures it as an input.
func inputPin(name string, pull gpio.Pull) (gpio.PinIO, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("gpio pin %q not found", name)
	}
	if err := pin.In(pull, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("gpio pin %s: %w", name, err)
	}
	return pin, nil
}

// ButtonPair reads the two action buttons. The buttons pull the line high
// when pressed, so the pins idle low.
type ButtonPair struct {
	a, b gpio.PinIO
}

// NewButtonPair configures the two button pins from the config.
func NewButtonPair() (*ButtonPair, error) {
	cfg := config.Get()
	a, err := inputPin(cfg.ButtonAPin, gpio.PullDown)
	if err != nil {
		return nil, fmt.Errorf("button A: %w", err)
	}
	b, err := inputPin(cfg.ButtonBPin, gpio.PullDown)
	if err != nil {
		return nil, fmt.Errorf("button B: %w", err)
	}
	return &ButtonPair{a: a, b: b}, nil
}

// ReadButtons samples both buttons.
func (p *ButtonPair) ReadButtons() (a, b bool) {
	return p.a.Read() == gpio.High, p.b.Read() == gpio.High
}

// EncoderPins reads the rotary encoder's quadrature pair. The encoder
// switches the lines to ground, so the pins idle high.
type EncoderPins struct {
	a, b gpio.PinIO
}

// NewEncoderPins configures the two encoder pins from the config.
func NewEncoderPins() (*EncoderPins, error) {
	cfg := config.Get()
	a, err := inputPin(cfg.EncoderAPin, gpio.PullUp)
	if err != nil {
		return nil, fmt.Errorf("encoder A: %w", err)
	}
	b, err := inputPin(cfg.EncoderBPin, gpio.PullUp)
	if err != nil {
		return nil, fmt.Errorf("encoder B: %w", err)
	}
	return &EncoderPins{a: a, b: b}, nil
}

// ReadPins samples both quadrature lines, active low.
func (p *EncoderPins) ReadPins() (a, b bool) {
	return p.a.Read() == gpio.Low, p.b.Read() == gpio.Low
}
