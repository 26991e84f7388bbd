package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values, shared by the device
// agent and the host-side programs. Each machine loads its own copy of the
// file; unused sections cost nothing.
type Config struct {
	// Serial link
	SerialPort string
	SerialBaud int

	// Device timing (milliseconds)
	SampleInterval      int
	EncoderPollInterval int
	CalibrationSamples  int

	// Host timing (milliseconds)
	InputTimeout     int
	FeedbackInterval int
	SyncInterval     int
	MaxDrainPerFrame int

	// MQTT
	MQTTBroker          string
	MQTTClientIDHost    string
	MQTTClientIDConsole string
	MQTTClientIDWeb     string

	// Topics
	TopicInput   string
	TopicState   string
	TopicCommand string

	// Web monitor
	WebServerPort     int
	WebUpdateInterval int // milliseconds

	// Device hardware
	TiltSPIDevice string
	TiltCSPin     string
	ButtonAPin    string
	ButtonBPin    string
	EncoderAPin   string
	EncoderBPin   string
	LEDPins       []string
	BuzzerPin     string
	ADCI2CAddr    uint16
	PotADCChannel int
}

// Package-level unexported variables for the config singleton. External code
// must use InitGlobal() to set and Get() to read.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaults returns a config pre-filled with values that match the original
// firmware where one exists.
func defaults() *Config {
	return &Config{
		SerialBaud:          115200,
		SampleInterval:      10,
		EncoderPollInterval: 1,
		CalibrationSamples:  50,
		InputTimeout:        1000,
		FeedbackInterval:    20,
		SyncInterval:        4,
		MaxDrainPerFrame:    8,
		MQTTClientIDHost:    "tetriskart-host",
		MQTTClientIDConsole: "tetriskart-console",
		MQTTClientIDWeb:     "tetriskart-web",
		TopicInput:          "tetriskart/input",
		TopicState:          "tetriskart/state",
		TopicCommand:        "tetriskart/command",
		WebServerPort:       8080,
		WebUpdateInterval:   100,
		ADCI2CAddr:          0x48,
	}
}

func (c *Config) setInt(dst *int, key, value string, min, max int) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < min || v > max {
		return fmt.Errorf("%s must be %d-%d, got %d", key, min, max, v)
	}
	*dst = v
	return nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Serial link
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD":
		return c.setInt(&c.SerialBaud, key, value, 300, 4000000)

	// Device timing
	case "SAMPLE_INTERVAL":
		return c.setInt(&c.SampleInterval, key, value, 1, 1000)
	case "ENCODER_POLL_INTERVAL":
		return c.setInt(&c.EncoderPollInterval, key, value, 1, 100)
	case "CALIBRATION_SAMPLES":
		return c.setInt(&c.CalibrationSamples, key, value, 1, 1000)

	// Host timing
	case "INPUT_TIMEOUT":
		return c.setInt(&c.InputTimeout, key, value, 10, 60000)
	case "FEEDBACK_INTERVAL":
		return c.setInt(&c.FeedbackInterval, key, value, 1, 10000)
	case "SYNC_INTERVAL":
		return c.setInt(&c.SyncInterval, key, value, 1, 1000)
	case "MAX_DRAIN_PER_FRAME":
		return c.setInt(&c.MaxDrainPerFrame, key, value, 1, 256)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_HOST":
		c.MQTTClientIDHost = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value

	// Topics
	case "TOPIC_INPUT":
		c.TopicInput = value
	case "TOPIC_STATE":
		c.TopicState = value
	case "TOPIC_COMMAND":
		c.TopicCommand = value

	// Web monitor
	case "WEB_SERVER_PORT":
		return c.setInt(&c.WebServerPort, key, value, 1, 65535)
	case "WEB_UPDATE_INTERVAL":
		return c.setInt(&c.WebUpdateInterval, key, value, 10, 60000)

	// Device hardware
	case "TILT_SPI_DEVICE":
		c.TiltSPIDevice = value
	case "TILT_CS_PIN":
		c.TiltCSPin = value
	case "BUTTON_A_PIN":
		c.ButtonAPin = value
	case "BUTTON_B_PIN":
		c.ButtonBPin = value
	case "ENCODER_A_PIN":
		c.EncoderAPin = value
	case "ENCODER_B_PIN":
		c.EncoderBPin = value
	case "LED_PINS":
		c.LEDPins = nil
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				c.LEDPins = append(c.LEDPins, p)
			}
		}
	case "BUZZER_PIN":
		c.BuzzerPin = value
	case "ADC_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid ADC_I2C_ADDR %q: %w", value, err)
		}
		c.ADCI2CAddr = uint16(addr)
	case "POT_ADC_CHANNEL":
		return c.setInt(&c.PotADCChannel, key, value, 0, 3)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks cross-field consistency. Per-program required fields
// (serial port, broker) are checked by the program that needs them, since
// the same file serves both machines.
func (c *Config) validate() error {
	if c.EncoderPollInterval > c.SampleInterval {
		return fmt.Errorf("ENCODER_POLL_INTERVAL (%d) must not exceed SAMPLE_INTERVAL (%d)",
			c.EncoderPollInterval, c.SampleInterval)
	}
	if c.SyncInterval > c.SampleInterval {
		return fmt.Errorf("SYNC_INTERVAL (%d) must not exceed SAMPLE_INTERVAL (%d): the host loop must outrun the device cadence",
			c.SyncInterval, c.SampleInterval)
	}
	return nil
}

// InitGlobal initializes the global configuration from file. Uses sync.Once
// so repeated calls are harmless.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance. InitGlobal must be called
// first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
