package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/frudas24/touchpad/internal/config"
	"github.com/frudas24/touchpad/internal/evdev"
	"github.com/frudas24/touchpad/internal/gesture"
	"github.com/frudas24/touchpad/internal/replay"
	"github.com/frudas24/touchpad/internal/touchpad"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const lingerAfterScript = 500 * time.Millisecond

// clientOptions holds the client command flags.
type clientOptions struct {
	configPath string
	host       string
	script     string
	device     string
}

// newClientCmd returns the command that forwards gestures to a remote controller.
func newClientCmd() *cobra.Command {
	var opts clientOptions
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Recognize touch gestures and forward them to a remote controller",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClient(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	cmd.Flags().StringVar(&opts.host, "host", "", "host label from the config, or host:port")
	cmd.Flags().StringVar(&opts.script, "script", "", "replay a YAML gesture script instead of reading a device")
	cmd.Flags().StringVar(&opts.device, "device", "", "input event device (overrides config)")
	return cmd
}

// runClient wires the recognizer and controller and blocks until shutdown.
func runClient(parent context.Context, opts clientOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.host != "" {
		if cfg.Address, err = cfg.Resolve(opts.host); err != nil {
			return err
		}
	}
	if opts.device != "" {
		cfg.Device = opts.device
	}

	log, sync, err := newLogger()
	if err != nil {
		return err
	}
	defer sync()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	recog := gesture.NewRecognizer(
		gesture.Geometry{Width: cfg.Surface.Width, Height: cfg.Surface.Height},
		gesture.SwipeOptions{Threshold: cfg.Swipe.Threshold, Velocity: cfg.Swipe.Velocity, Pointers: 1},
	)
	ctrl, err := touchpad.New(cfg.Address, recog,
		touchpad.WithLogger(log),
		touchpad.WithPendingPolicy(touchpad.PendingPolicy(cfg.Pending), cfg.QueueLimit),
	)
	if err != nil {
		return err
	}
	if err := ctrl.Start(ctx); err != nil {
		return err
	}
	defer ctrl.Close()

	feedErr := make(chan error, 1)
	if opts.script != "" {
		script, err := replay.Load(opts.script)
		if err != nil {
			return err
		}
		go func() { feedErr <- playScript(ctx, ctrl, script, recog, log) }()
	} else {
		dev, err := evdev.Open(cfg.Device, cfg.GrabDevice, log)
		if err != nil {
			return err
		}
		defer dev.Close()
		go func() { feedErr <- dev.Run(ctx, recog) }()
	}

	runErr := make(chan error, 1)
	go func() { runErr <- ctrl.Run(ctx) }()

	select {
	case err := <-runErr:
		return err
	case err := <-feedErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		log.Infow("input finished")
		return nil
	}
}

// playScript waits for the handshake, plays the script in real time, and
// gives the controller a moment to flush.
func playScript(ctx context.Context, ctrl *touchpad.Controller, script replay.Script, sink gesture.SampleSink, log *zap.SugaredLogger) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ctrl.Ready():
	}
	log.Infow("replaying script", "steps", len(script.Steps))
	if err := replay.Play(ctx, script, sink, true); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case <-time.After(lingerAfterScript):
	}
	return nil
}
