package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	joymixer "github.com/CogniPilot/joy-test-mixer-actuators"
)

func main() {
	flow, err := joymixer.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := flow.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("mixer runtime exited: %v", err)
	}
}
