package main

import (
	"flag"
	"log"

	"github.com/trifaze/tetriskart/internal/app"
	"github.com/trifaze/tetriskart/internal/config"
)

func main() {
	configPath := flag.String("config", "./tetriskart_config.txt", "path to configuration file")
	port := flag.String("port", "", "serial port of the controller (overrides SERIAL_PORT)")
	mockInput := flag.Bool("mock-input", false, "run without a controller, on synthetic input")
	flag.Parse()

	log.Println("starting tetriskart host (controller -> game engine sync)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunHost(*port, *mockInput); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
