package device

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"

	"github.com/trifaze/tetriskart/internal/config"
)

// LEDBank drives the effect LEDs as one visual channel: all on or all off.
type LEDBank struct {
	pins []gpio.PinIO
}

// NewLEDBank resolves the configured LED pins and switches them off.
func NewLEDBank() (*LEDBank, error) {
	cfg := config.Get()
	bank := &LEDBank{}
	for _, name := range cfg.LEDPins {
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, fmt.Errorf("led: pin %q not found", name)
		}
		if err := pin.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("led: pin %s: %w", name, err)
		}
		bank.pins = append(bank.pins, pin)
	}
	log.Printf("led: %d pins configured", len(bank.pins))
	return bank, nil
}

// Set switches the whole bank.
func (b *LEDBank) Set(on bool) {
	level := gpio.Low
	if on {
		level = gpio.High
	}
	for _, pin := range b.pins {
		if err := pin.Out(level); err != nil {
			log.Printf("led: pin %s: %v", pin.Name(), err)
		}
	}
}

// PWMBuzzer drives a piezo buzzer on a PWM-capable pin at half duty, so the
// frequency alone sets the pitch.
type PWMBuzzer struct {
	pin gpio.PinIO
}

// NewPWMBuzzer resolves the configured buzzer pin and silences it.
func NewPWMBuzzer() (*PWMBuzzer, error) {
	cfg := config.Get()
	pin := gpioreg.ByName(cfg.BuzzerPin)
	if pin == nil {
		return nil, fmt.Errorf("buzzer: pin %q not found", cfg.BuzzerPin)
	}
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("buzzer: pin %s: %w", cfg.BuzzerPin, err)
	}
	return &PWMBuzzer{pin: pin}, nil
}

// Tone starts a square wave at the given frequency. Zero or negative
// frequencies silence the pin.
func (z *PWMBuzzer) Tone(freqHz int) {
	if freqHz <= 0 {
		z.Off()
		return
	}
	f := physic.Frequency(freqHz) * physic.Hertz
	if err := z.pin.PWM(gpio.DutyHalf, f); err != nil {
		log.Printf("buzzer: pwm %d Hz: %v", freqHz, err)
	}
}

// Off silences the buzzer.
func (z *PWMBuzzer) Off() {
	if err := z.pin.Out(gpio.Low); err != nil {
		log.Printf("buzzer: off: %v", err)
	}
}
