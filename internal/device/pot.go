package device

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"

	"github.com/trifaze/tetriskart/internal/config"
	"github.com/trifaze/tetriskart/internal/sample"
)

// PotSensor reads the speed potentiometer through an ADS1115 and rescales
// the conversion to the 16-bit range the wire format carries.
type PotSensor struct {
	bus    i2c.BusCloser
	pin    analog.PinADC
	minRaw int32
	maxRaw int32
}

// NewPotSensor opens the I2C bus and binds the configured ADC channel. The
// pot runs off the 3.3V rail, so conversions are scaled against that.
func NewPotSensor() (*PotSensor, error) {
	cfg := config.Get()

	bus, err := i2creg.Open("")
	if err != nil {
		return nil, fmt.Errorf("pot: open I2C bus: %w", err)
	}

	adc, err := ads1x15.NewADS1115(bus, &ads1x15.Opts{I2cAddress: cfg.ADCI2CAddr})
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("pot: ADS1115 at %#x: %w", cfg.ADCI2CAddr, err)
	}

	channels := [...]ads1x15.Channel{
		ads1x15.Channel0, ads1x15.Channel1, ads1x15.Channel2, ads1x15.Channel3,
	}
	pin, err := adc.PinForChannel(channels[cfg.PotADCChannel],
		3300*physic.MilliVolt, 250*physic.Hertz, ads1x15.SaveEnergy)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("pot: channel %d: %w", cfg.PotADCChannel, err)
	}

	min, max := pin.Range()
	log.Printf("pot: ADS1115 channel %d bound, raw range %d..%d",
		cfg.PotADCChannel, min.Raw, max.Raw)
	return &PotSensor{bus: bus, pin: pin, minRaw: min.Raw, maxRaw: max.Raw}, nil
}

// ReadPot returns the wiper position normalized to 0..PotMax.
func (p *PotSensor) ReadPot() (int, error) {
	conv, err := p.pin.Read()
	if err != nil {
		return 0, fmt.Errorf("pot: read: %w", err)
	}
	raw := conv.Raw
	if raw < p.minRaw {
		raw = p.minRaw
	}
	if raw > p.maxRaw {
		raw = p.maxRaw
	}
	span := int64(p.maxRaw) - int64(p.minRaw)
	if span == 0 {
		return 0, nil
	}
	return int(int64(raw-p.minRaw) * sample.PotMax / span), nil
}

// Close releases the ADC pin and the bus.
func (p *PotSensor) Close() error {
	if err := p.pin.Halt(); err != nil {
		log.Printf("pot: halt: %v", err)
	}
	return p.bus.Close()
}
