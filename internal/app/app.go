// Package app wires the touch pad receiver, input injection, and HTTP API together.
package app

import (
	"errors"

	"github.com/frudas24/touchpad/internal/config"
	"github.com/frudas24/touchpad/internal/logging"
	"github.com/frudas24/touchpad/internal/receiver"
	"github.com/frudas24/touchpad/internal/wininput"
	"go.uber.org/zap"
)

// App coordinates the touch pad websocket server and the injector behind it.
type App struct {
	cfg      config.Config
	handler  *receiver.InjectorHandler
	receiver *receiver.Server
	log      *zap.SugaredLogger
}

// New creates a new application with its dependencies wired.
func New(cfg config.Config, injector wininput.Injector, log *zap.SugaredLogger) (*App, error) {
	if injector == nil {
		return nil, errors.New("injector is required")
	}
	if cfg.Receiver.WheelStep <= 0 {
		return nil, errors.New("wheel step must be > 0")
	}
	log = logging.OrNop(log)

	policy := receiver.PolicyReject
	if cfg.Receiver.ReplacePad {
		policy = receiver.PolicyReplace
	}
	handler := receiver.NewInjectorHandler(injector, cfg.Receiver.WheelStep, log)
	return &App{
		cfg:      cfg,
		handler:  handler,
		receiver: receiver.NewServer(handler, policy, log),
		log:      log,
	}, nil
}

// Receiver returns the touch pad websocket server.
func (a *App) Receiver() *receiver.Server {
	return a.receiver
}

// SetInputEnabled toggles injection.
func (a *App) SetInputEnabled(enabled bool) {
	a.handler.SetEnabled(enabled)
	a.log.Infow("input injection toggled", "enabled", enabled)
}

// InputEnabled reports whether injection is active.
func (a *App) InputEnabled() bool {
	return a.handler.Enabled()
}
