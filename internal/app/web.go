package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"

	"github.com/trifaze/tetriskart/internal/config"
	"github.com/trifaze/tetriskart/internal/game"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The monitor is served off the same host; cross-origin pages are fine.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// monitorState is the combined snapshot the web monitor renders.
type monitorState struct {
	Input     game.InputState `json:"input"`
	HaveInput bool            `json:"have_input"`
	State     game.State      `json:"state"`
	HaveState bool            `json:"have_state"`
	Events    []string        `json:"events,omitempty"`
}

// RunWeb serves the browser monitor: a JSON API and a websocket stream of
// the latest input and game state, fed from the MQTT link topics.
func RunWeb() error {
	cfg := config.Get()

	var (
		mu     sync.RWMutex
		latest monitorState
	)

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	inputToken := client.Subscribe(cfg.TopicInput, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var in game.InputState
		if err := json.Unmarshal(msg.Payload(), &in); err != nil {
			log.Printf("web: input unmarshal error: %v", err)
			return
		}
		mu.Lock()
		latest.Input = in
		latest.HaveInput = true
		mu.Unlock()
	})
	inputToken.Wait()
	if inputToken.Error() != nil {
		return inputToken.Error()
	}
	log.Printf("web: subscribed to %s", cfg.TopicInput)

	stateToken := client.Subscribe(cfg.TopicState, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var st struct {
			game.State
			Events []string `json:"events,omitempty"`
		}
		if err := json.Unmarshal(msg.Payload(), &st); err != nil {
			log.Printf("web: state unmarshal error: %v", err)
			return
		}
		mu.Lock()
		latest.State = st.State
		latest.HaveState = true
		if len(st.Events) > 0 {
			latest.Events = append(latest.Events, st.Events...)
			if len(latest.Events) > 32 {
				latest.Events = latest.Events[len(latest.Events)-32:]
			}
		}
		mu.Unlock()
	})
	stateToken.Wait()
	if stateToken.Error() != nil {
		return stateToken.Error()
	}
	log.Printf("web: subscribed to %s", cfg.TopicState)

	snapshot := func() monitorState {
		mu.RLock()
		defer mu.RUnlock()
		st := latest
		st.Events = append([]string(nil), latest.Events...)
		return st
	}

	http.HandleFunc("/api/state", func(w http.ResponseWriter, r *http.Request) {
		st := snapshot()
		if !st.HaveInput && !st.HaveState {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(st); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("web: websocket upgrade error: %v", err)
			return
		}
		defer conn.Close()

		ticker := time.NewTicker(time.Duration(cfg.WebUpdateInterval) * time.Millisecond)
		defer ticker.Stop()

		for range ticker.C {
			if err := conn.WriteJSON(snapshot()); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("web: websocket error: %v", err)
				}
				return
			}
		}
	})

	http.Handle("/", http.FileServer(http.Dir("web")))

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: monitor listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}
