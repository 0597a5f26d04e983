// Package wininput injects pointer input into the local desktop.
package wininput

import "errors"

// ErrUnsupported indicates WinAPI input injection is not available.
var ErrUnsupported = errors.New("wininput is only supported on Windows")

// Injector defines the input operations driven by touch pad updates.
type Injector interface {
	LeftDown() error
	LeftUp() error
	Wheel(delta int) error
}
