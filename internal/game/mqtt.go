package game

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTEngine bridges the sync loop to a rule engine running as a separate
// process behind an MQTT broker: normalized input goes out on the input
// topic, game state and device-bound commands come back.
type MQTTEngine struct {
	client     mqtt.Client
	inputTopic string

	publishEvery time.Duration
	lastPublish  time.Time

	mu       sync.Mutex
	state    State
	events   []string
	commands []string
}

// enginePayload is the state record the engine publishes.
type enginePayload struct {
	Score  int      `json:"score"`
	Level  int      `json:"level"`
	Lines  int      `json:"lines"`
	Events []string `json:"events,omitempty"`
}

// NewMQTTEngine connects to the broker and subscribes to the engine's state
// and command topics.
func NewMQTTEngine(broker, clientID, inputTopic, stateTopic, commandTopic string) (*MQTTEngine, error) {
	e := &MQTTEngine{
		inputTopic:   inputTopic,
		publishEvery: 10 * time.Millisecond,
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	e.client = client
	log.Printf("game: connected to MQTT broker at %s", broker)

	token := client.Subscribe(stateTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p enginePayload
		if err := json.Unmarshal(msg.Payload(), &p); err != nil {
			log.Printf("game: state unmarshal error: %v", err)
			return
		}
		e.mu.Lock()
		e.state = State{Score: p.Score, Level: p.Level, Lines: p.Lines}
		e.events = append(e.events, p.Events...)
		e.mu.Unlock()
	})
	if token.Wait(); token.Error() != nil {
		client.Disconnect(250)
		return nil, token.Error()
	}
	log.Printf("game: subscribed to %s", stateTopic)

	token = client.Subscribe(commandTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var p struct {
			Command string `json:"command"`
		}
		if err := json.Unmarshal(msg.Payload(), &p); err != nil || p.Command == "" {
			// Tolerate a bare command tag as the payload.
			p.Command = string(msg.Payload())
		}
		e.mu.Lock()
		e.commands = append(e.commands, p.Command)
		e.mu.Unlock()
	})
	if token.Wait(); token.Error() != nil {
		client.Disconnect(250)
		return nil, token.Error()
	}
	log.Printf("game: subscribed to %s", commandTopic)

	return e, nil
}

// Apply publishes the normalized input for the engine process, rate-limited
// to the device cadence so the 240 Hz frame loop does not flood the broker.
func (e *MQTTEngine) Apply(in InputState, dt float64) {
	now := time.Now()
	if now.Sub(e.lastPublish) < e.publishEvery {
		return
	}
	e.lastPublish = now

	payload, err := json.Marshal(in)
	if err != nil {
		log.Printf("game: input marshal error: %v", err)
		return
	}
	if token := e.client.Publish(e.inputTopic, 0, true, payload); token.Wait() && token.Error() != nil {
		log.Printf("game: input publish error: %v", token.Error())
	}
}

// Snapshot returns the last state reported by the engine.
func (e *MQTTEngine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// TakeEvents drains events raised since the previous call.
func (e *MQTTEngine) TakeEvents() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ev := e.events
	e.events = nil
	return ev
}

// TakeCommands drains device-bound commands requested by the engine or UI.
func (e *MQTTEngine) TakeCommands() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	cmds := e.commands
	e.commands = nil
	return cmds
}

// Reset clears mirrored state. Idempotent; the engine process owns its own
// reset and republishes state afterwards.
func (e *MQTTEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = State{}
	e.events = nil
	e.commands = nil
}

// Close disconnects from the broker.
func (e *MQTTEngine) Close() {
	e.client.Disconnect(250)
}
