package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/trifaze/tetriskart/internal/config"
	"github.com/trifaze/tetriskart/internal/game"
)

// RunConsole subscribes to the link topics and pretty-prints the traffic,
// for watching a session from a terminal.
func RunConsole() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	inputToken := client.Subscribe(cfg.TopicInput, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var in game.InputState
		if err := json.Unmarshal(msg.Payload(), &in); err != nil {
			log.Printf("console: input unmarshal error: %v", err)
			return
		}
		src := "live"
		if in.Synthetic {
			src = "synt"
		}
		fmt.Printf(
			"[IN-%s] ts=%8d tilt=%6.2f/%6.2f btn=%s%s enc=%+3d@%-6d pot=%.2f\n",
			src, in.Timestamp, in.TiltX, in.TiltY,
			mark(in.ButtonA, "A"), mark(in.ButtonB, "B"),
			in.EncDelta, in.EncPos, in.Pot,
		)
	})
	inputToken.Wait()
	if inputToken.Error() != nil {
		return inputToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicInput)

	stateToken := client.Subscribe(cfg.TopicState, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var st struct {
			game.State
			Events []string `json:"events,omitempty"`
		}
		if err := json.Unmarshal(msg.Payload(), &st); err != nil {
			log.Printf("console: state unmarshal error: %v", err)
			return
		}
		fmt.Printf(
			"[STATE] score=%6d level=%2d lines=%4d events=%v\n",
			st.Score, st.Level, st.Lines, st.Events,
		)
	})
	stateToken.Wait()
	if stateToken.Error() != nil {
		return stateToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicState)

	cmdToken := client.Subscribe(cfg.TopicCommand, 0, func(_ mqtt.Client, msg mqtt.Message) {
		fmt.Printf("[CMD]   %s\n", msg.Payload())
	})
	cmdToken.Wait()
	if cmdToken.Error() != nil {
		return cmdToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicCommand)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	client.Disconnect(250)
	return nil
}

func mark(on bool, label string) string {
	if on {
		return label
	}
	return "-"
}
