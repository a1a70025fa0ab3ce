package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"nmeabridge/internal/config"
	"nmeabridge/internal/session"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "./dev.yaml", "Path to YAML config")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sess := session.New(logSessionState, nil)

	log.Printf("nmeabridge starting")
	log.Printf("input kind=%s", cfg.Input.Kind)

	if err := sess.Start(ctx, cfg); err != nil {
		log.Fatalf("session start failed: %v", err)
	}

	<-ctx.Done()
	log.Printf("nmeabridge stopping")
	sess.Stop()
}

func logSessionState(old, new session.State, message string) {
	if message != "" {
		log.Printf("session state %s -> %s: %s", old, new, message)
		return
	}
	log.Printf("session state %s -> %s", old, new)
}
