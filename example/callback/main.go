package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/CogniPilot/joy-test-mixer-actuators/pkg/joymixer"
)

func main() {
	flow, err := joymixer.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	callback := func(cmd *joymixer.ActuatorCommand) error {
		fmt.Printf("%s frame=%s seq=%d velocity=%v\n",
			cmd.Header.Stamp.Format(time.RFC3339Nano),
			cmd.Header.FrameID,
			cmd.Seq,
			cmd.Velocity,
		)
		return nil
	}

	if err := flow.Run(ctx, joymixer.StreamOutCallback("stdout", callback)); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}
