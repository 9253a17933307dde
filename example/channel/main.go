package main

import (
	"context"
	"fmt"
	"log"
	"time"

	joymixer "github.com/CogniPilot/joy-test-mixer-actuators"
)

// Drives the mixer from a scripted stick sequence instead of a real joystick
// and prints the resulting commands.
func main() {
	cfg := joymixer.DefaultConfig()
	cfg.Input.OnFull = "block"

	sink, commands, closeCommands := joymixer.NewChannelSink("fanout", 32)
	defer closeCommands()

	events := make(chan *joymixer.JoystickEvent)

	flow, err := joymixer.ConfFromConfig(cfg)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go script(ctx, cfg, events)
	go printer(commands)

	if err := flow.StreamIN(joymixer.StreamInChannel(events)).
		Run(ctx, joymixer.StreamOutSink(sink)); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}

func script(ctx context.Context, cfg *joymixer.Config, out chan<- *joymixer.JoystickEvent) {
	steps := []struct {
		thrust, yaw float64
		button      int
	}{
		{0.5, 0, cfg.Mixer.ArmButton},
		{0.5, 0.2, -1},
		{1, 1, -1},
		{0, 0, cfg.Mixer.DisarmButton},
		{1, 0, -1},
	}
	for _, st := range steps {
		ev := &joymixer.JoystickEvent{
			Axes:    make([]float64, 8),
			Buttons: make([]int32, 8),
		}
		ev.Axes[cfg.Mixer.ThrustAxis] = st.thrust
		ev.Axes[cfg.Mixer.YawAxis] = st.yaw
		if st.button >= 0 {
			ev.Buttons[st.button] = 1
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func printer(commands <-chan *joymixer.ActuatorCommand) {
	for cmd := range commands {
		fmt.Printf("seq=%d velocity=%v\n", cmd.Seq, cmd.Velocity)
	}
}
