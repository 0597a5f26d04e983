//go:build windows

package wininput

import "github.com/lxn/win"

// LeftDown presses the left mouse button at the current cursor position.
func (w *WinInjector) LeftDown() error {
	return sendMouseInput(win.MOUSEEVENTF_LEFTDOWN, 0)
}

// LeftUp releases the left mouse button.
func (w *WinInjector) LeftUp() error {
	return sendMouseInput(win.MOUSEEVENTF_LEFTUP, 0)
}

// Wheel scrolls by delta; positive values scroll away from the user.
func (w *WinInjector) Wheel(delta int) error {
	return sendMouseInput(win.MOUSEEVENTF_WHEEL, uint32(int32(delta)))
}
