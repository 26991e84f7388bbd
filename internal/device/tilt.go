// Package device binds the controller's hardware: the MPU9250 tilt sensor,
// the GPIO buttons and encoder, the LED bank, the PWM buzzer, the ADS1115
// potentiometer and the SSD1306 scoreboard.
package device

import (
	"fmt"
	"log"
	"math"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"

	"github.com/trifaze/tetriskart/internal/config"
)

// TiltSensor reads the MPU9250 accelerometer over SPI and converts gravity
// direction into the two tilt angles the controller reports.
type TiltSensor struct {
	imu *mpu9250.MPU9250
}

// NewTiltSensor initializes the MPU9250 on the configured SPI device.
func NewTiltSensor() (*TiltSensor, error) {
	cfg := config.Get()

	cs := gpioreg.ByName(cfg.TiltCSPin)
	if cs == nil {
		return nil, fmt.Errorf("tilt: CS pin %q not found", cfg.TiltCSPin)
	}

	tr, err := mpu9250.NewSpiTransport(cfg.TiltSPIDevice, cs)
	if err != nil {
		return nil, fmt.Errorf("tilt: SPI transport (%s): %w", cfg.TiltSPIDevice, err)
	}

	imu, err := mpu9250.New(tr)
	if err != nil {
		return nil, fmt.Errorf("tilt: device creation: %w", err)
	}
	if err := imu.Init(); err != nil {
		return nil, fmt.Errorf("tilt: initialization: %w", err)
	}

	if err := imu.Calibrate(); err != nil {
		log.Printf("tilt: WARNING: gyro calibration failed: %v", err)
	}

	log.Printf("tilt: MPU9250 initialized on %s", cfg.TiltSPIDevice)
	return &TiltSensor{imu: imu}, nil
}

// ReadTilt returns the lean angles in degrees, derived from the gravity
// vector: X is roll (side to side), Y is pitch (forward and back). Raw
// counts cancel out of the atan2 ratios, so no unit conversion is needed.
func (t *TiltSensor) ReadTilt() (x, y float64, err error) {
	ax, err := t.imu.GetAccelerationX()
	if err != nil {
		return 0, 0, fmt.Errorf("tilt: accel X: %w", err)
	}
	ay, err := t.imu.GetAccelerationY()
	if err != nil {
		return 0, 0, fmt.Errorf("tilt: accel Y: %w", err)
	}
	az, err := t.imu.GetAccelerationZ()
	if err != nil {
		return 0, 0, fmt.Errorf("tilt: accel Z: %w", err)
	}

	fx, fy, fz := float64(ax), float64(ay), float64(az)
	roll := math.Atan2(fy, fz) * 180 / math.Pi
	pitch := math.Atan2(-fx, math.Sqrt(fy*fy+fz*fz)) * 180 / math.Pi
	return roll, pitch, nil
}
