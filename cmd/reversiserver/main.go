// Command reversiserver runs the reversi analysis REST API server.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/yourusername/reversi/pkg/api"
	"github.com/yourusername/reversi/pkg/engine"
	"github.com/yourusername/reversi/pkg/external"
)

const version = "0.1.0"

func main() {
	defaults := api.DefaultConfig()

	host := flag.String("host", defaults.Host, "Host to bind to (use 0.0.0.0 for all interfaces)")
	port := flag.Int("port", defaults.Port, "Port to listen on")
	evaluator := flag.String("eval", engine.EvalDisk, "Evaluator: disk, positional or neural")
	weightsFile := flag.String("weights", "", "Neural network JSON (with -eval neural)")
	workers := flag.Int("workers", 0, "Root moves searched in parallel per request (0 = serial)")
	cacheSize := flag.Int("cache", 0, "Static evaluation cache entries (0 = default, -1 = off)")
	maxFast := flag.Int("max-fast", defaults.MaxFastWorkers, "Max concurrent rule queries")
	maxSlow := flag.Int("max-slow", defaults.MaxSlowWorkers, "Max concurrent searches and rollouts")
	readTimeout := flag.Duration("read-timeout", defaults.ReadTimeout, "HTTP read timeout")
	writeTimeout := flag.Duration("write-timeout", defaults.WriteTimeout, "HTTP write timeout")
	textPort := flag.Int("text-port", 0, "TCP port for the line-based text protocol (0 = off)")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("Reversi API Server v%s\n", version)
		os.Exit(0)
	}

	log.Printf("Reversi API Server v%s", version)

	eng, err := engine.NewEngine(engine.EngineOptions{
		Evaluator:         *evaluator,
		NeuralWeightsFile: *weightsFile,
		CacheSize:         *cacheSize,
		Workers:           *workers,
	})
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	log.Printf("Engine ready (%s evaluator)", eng.Evaluator().Name())

	config := api.ServerConfig{
		Host:           *host,
		Port:           *port,
		ReadTimeout:    *readTimeout,
		WriteTimeout:   *writeTimeout,
		IdleTimeout:    60 * time.Second,
		MaxFastWorkers: *maxFast,
		MaxSlowWorkers: *maxSlow,
	}

	if *textPort > 0 {
		textOpts := external.DefaultServerOptions()
		textOpts.Host = *host
		textOpts.Port = *textPort
		text := external.NewServer(eng, textOpts)
		if err := text.Start(); err != nil {
			log.Fatalf("Failed to start text protocol server: %v", err)
		}
		defer text.Stop()
		log.Printf("Text protocol listening on %s", text.Addr())
	}

	server := api.NewServer(eng, config, version)

	if err := server.ListenAndServeWithGracefulShutdown(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
