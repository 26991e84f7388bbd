package app

import (
	"fmt"
	"log"
	"time"

	"github.com/trifaze/tetriskart/internal/bridge"
	"github.com/trifaze/tetriskart/internal/config"
	"github.com/trifaze/tetriskart/internal/game"
	"github.com/trifaze/tetriskart/internal/sample"
)

// RunHost runs the host sync loop: it drains device samples through the
// bridge, feeds the newest one to the game engine, mirrors engine state back
// to the device, and relays engine-side commands. With mockInput set the
// loop runs entirely on the synthetic source.
func RunHost(portName string, mockInput bool) error {
	cfg := config.Get()

	if portName == "" {
		portName = cfg.SerialPort
	}
	if portName == "" && !mockInput {
		return fmt.Errorf("host: no serial port configured and mock input not requested")
	}

	engine, err := game.NewMQTTEngine(cfg.MQTTBroker, cfg.MQTTClientIDHost,
		cfg.TopicInput, cfg.TopicState, cfg.TopicCommand)
	if err != nil {
		return fmt.Errorf("host: engine connection: %w", err)
	}
	defer engine.Close()

	var live bridge.Source
	if mockInput {
		log.Printf("host: mock input requested, running on the synthetic source")
	} else {
		live, err = bridge.OpenSerial(portName, uint(cfg.SerialBaud))
		if err != nil {
			return fmt.Errorf("host: open device link: %w", err)
		}
		log.Printf("host: device link open on %s at %d baud", portName, cfg.SerialBaud)
	}

	br := bridge.New(live, bridge.NewSynthetic())
	br.SetTimeout(time.Duration(cfg.InputTimeout) * time.Millisecond)
	br.SetFeedbackInterval(time.Duration(cfg.FeedbackInterval) * time.Millisecond)
	defer br.Close()

	return SyncLoop(br, engine, cfg.SyncInterval, cfg.MaxDrainPerFrame)
}

// SyncLoop is the host's frame loop. Each frame drains a bounded batch of
// input, applies the newest sample to the engine, and sends feedback on the
// bridge's cadence. It returns only on engine-requested shutdown.
func SyncLoop(br *bridge.Bridge, engine game.Engine, syncIntervalMS, maxDrain int) error {
	ticker := time.NewTicker(time.Duration(syncIntervalMS) * time.Millisecond)
	defer ticker.Stop()

	last := time.Now()
	for now := range ticker.C {
		dt := now.Sub(last).Seconds()
		last = now
		if done := syncFrame(br, engine, dt, maxDrain); done {
			return nil
		}
	}
	return nil
}

// syncFrame runs one frame of the sync loop. It reports true when the engine
// requested shutdown.
func syncFrame(br *bridge.Bridge, engine game.Engine, dt float64, maxDrain int) bool {
	inputs := br.Drain(maxDrain)
	if len(inputs) > 0 {
		// Older samples in the batch are superseded; tilt and pot are
		// absolute readings and the encoder carries its own position.
		engine.Apply(inputs[len(inputs)-1], dt)
	}

	events := engine.TakeEvents()
	st := engine.Snapshot()
	br.MaybeSendFeedback(sample.Feedback{
		Score:  st.Score,
		Level:  st.Level,
		Lines:  st.Lines,
		Events: events,
	})

	for _, cmd := range engine.TakeCommands() {
		if !sample.KnownCommand(cmd) {
			log.Printf("host: dropping unknown engine command %q", cmd)
			continue
		}
		br.SendCommand(cmd)
		if cmd == sample.CmdExit {
			log.Printf("host: exit requested, resetting engine and stopping")
			engine.Reset()
			return true
		}
	}
	return false
}
