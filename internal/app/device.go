package app

import (
	"fmt"
	"io"
	"log"
	"time"

	serial "github.com/jacobsa/go-serial/serial"
	"periph.io/x/host/v3"

	"github.com/trifaze/tetriskart/internal/calibrate"
	"github.com/trifaze/tetriskart/internal/config"
	"github.com/trifaze/tetriskart/internal/device"
	"github.com/trifaze/tetriskart/internal/effects"
	"github.com/trifaze/tetriskart/internal/sample"
	"github.com/trifaze/tetriskart/internal/sched"
	"github.com/trifaze/tetriskart/internal/wire"
)

// RunDevice runs the controller agent: the cooperative sampling loop feeding
// the serial link, and the feedback path driving the scoreboard, buzzer and
// lights. Serial reads and writes live on their own goroutines so the timing
// loop never blocks on the link.
func RunDevice() error {
	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("device: periph host init: %w", err)
	}

	tilt, err := device.NewTiltSensor()
	if err != nil {
		return err
	}
	buttons, err := device.NewButtonPair()
	if err != nil {
		return err
	}
	encoderPins, err := device.NewEncoderPins()
	if err != nil {
		return err
	}
	pot, err := device.NewPotSensor()
	if err != nil {
		return err
	}
	defer pot.Close()
	leds, err := device.NewLEDBank()
	if err != nil {
		return err
	}
	buzzer, err := device.NewPWMBuzzer()
	if err != nil {
		return err
	}
	scoreboard, err := device.NewScoreboard()
	if err != nil {
		return err
	}

	if cfg.SerialPort == "" {
		return fmt.Errorf("device: SERIAL_PORT not configured")
	}
	port, err := serial.Open(serial.OpenOptions{
		PortName:        cfg.SerialPort,
		BaudRate:        uint(cfg.SerialBaud),
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	})
	if err != nil {
		return fmt.Errorf("device: open serial port %s: %w", cfg.SerialPort, err)
	}
	defer port.Close()
	log.Printf("device: serial port %s opened at %d baud", cfg.SerialPort, cfg.SerialBaud)

	// Feedback records arrive on their own goroutine; newest wins when the
	// loop falls behind.
	feedbackCh := make(chan sample.Feedback, 16)
	go readFeedback(port, feedbackCh)

	// Outbound lines are fire-and-forget. A full queue drops the sample,
	// never stalls the tick.
	txCh := make(chan []byte, 64)
	go writeLines(port, txCh)

	fx := effects.New(buzzer, leds)
	cal := calibrate.New(cfg.CalibrationSamples)

	dropped := 0
	s := &sched.Scheduler{
		Pins:          encoderPins,
		Tilt:          tilt,
		Buttons:       buttons,
		Pot:           pot,
		Cal:           cal,
		EncoderPeriod: time.Duration(cfg.EncoderPollInterval) * time.Millisecond,
		SamplePeriod:  time.Duration(cfg.SampleInterval) * time.Millisecond,
		Emit: func(rec sample.SensorSample) {
			line, err := wire.EncodeSample(rec)
			if err != nil {
				log.Printf("device: sample encode error: %v", err)
				return
			}
			select {
			case txCh <- line:
			default:
				dropped++
				if dropped%100 == 1 {
					log.Printf("device: serial backlog, %d samples dropped", dropped)
				}
			}
		},
	}
	s.Start(time.Now())
	log.Printf("device: sampling every %v, encoder every %v", s.SamplePeriod, s.EncoderPeriod)

	for {
		now := time.Now()
		s.Tick(now)

	drain:
		for {
			select {
			case fb := <-feedbackCh:
				handleFeedback(fb, cal, fx, scoreboard)
			default:
				break drain
			}
		}

		fx.Tick()

		if wait := time.Until(s.NextDeadline()); wait > 0 {
			time.Sleep(wait)
		}
	}
}

// handleFeedback applies one host record: commands first, then effects,
// then the scoreboard.
func handleFeedback(fb sample.Feedback, cal *calibrate.Calibrator, fx *effects.Coordinator, scoreboard *device.Scoreboard) {
	switch fb.Command {
	case "":
		// plain state record
	case sample.CmdCalibrate:
		cal.Start()
		log.Printf("device: tilt calibration started")
	case sample.CmdExit:
		// Idempotent: a second exit finds everything already reset.
		cal.Reset()
		fx.Reset()
		if err := scoreboard.ShowSplash(); err != nil {
			log.Printf("device: splash: %v", err)
		}
		log.Printf("device: session ended, back to title screen")
	default:
		if !fx.HandleCommand(fb.Command) {
			log.Printf("device: ignoring unknown command %q", fb.Command)
		}
	}

	for _, ev := range fb.Events {
		fx.TriggerEvent(ev)
	}

	// Command-only records carry no state and leave the scoreboard alone.
	if fb.Command == "" {
		scoreboard.Update(fb.Score, fb.Level, fb.Lines)
	}
}

// readFeedback pumps the serial RX side through the line splitter. Decode
// failures cost one record; the splitter resynchronizes on the next
// terminator.
func readFeedback(port io.Reader, out chan sample.Feedback) {
	var splitter wire.Splitter
	buf := make([]byte, 256)
	for {
		n, err := port.Read(buf)
		if err != nil {
			log.Printf("device: serial read error: %v", err)
			return
		}
		for _, line := range splitter.Feed(buf[:n]) {
			fb, err := wire.DecodeFeedback(line)
			if err != nil {
				log.Printf("device: bad feedback record: %v", err)
				continue
			}
			select {
			case out <- fb:
			default:
				// behind on feedback; the next record supersedes this one
				select {
				case <-out:
				default:
				}
				out <- fb
			}
		}
	}
}

// writeLines pumps encoded records onto the serial link.
func writeLines(port io.Writer, in <-chan []byte) {
	for line := range in {
		if _, err := port.Write(line); err != nil {
			log.Printf("device: serial write error: %v", err)
		}
	}
}
