package main

import (
	"flag"
	"log"

	"github.com/trifaze/tetriskart/internal/app"
	"github.com/trifaze/tetriskart/internal/config"
)

func main() {
	configPath := flag.String("config", "./tetriskart_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting tetriskart console monitor (MQTT subscriber)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsole(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
