//go:build !linux

package evdev

import (
	"context"
	"errors"

	"github.com/frudas24/touchpad/internal/gesture"
	"go.uber.org/zap"
)

// ErrUnsupported indicates event devices are not available.
var ErrUnsupported = errors.New("evdev is only supported on Linux")

// Device is a placeholder for non-Linux builds.
type Device struct{}

// Open returns ErrUnsupported.
func Open(path string, grab bool, log *zap.SugaredLogger) (*Device, error) {
	_, _, _ = path, grab, log
	return nil, ErrUnsupported
}

// Run returns ErrUnsupported.
func (d *Device) Run(ctx context.Context, sink gesture.SampleSink) error {
	_, _ = ctx, sink
	return ErrUnsupported
}

// Close does nothing.
func (d *Device) Close() error {
	return nil
}
