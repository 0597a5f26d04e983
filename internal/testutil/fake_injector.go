// Package testutil provides fakes shared by package tests.
package testutil

import (
	"sync"

	"github.com/frudas24/touchpad/internal/wininput"
)

// Call records a single injected action.
type Call struct {
	Name  string
	Delta int
}

// FakeInjector implements wininput.Injector and records calls for tests.
type FakeInjector struct {
	mu    sync.Mutex
	calls []Call
	Err   error
}

// Ensure FakeInjector implements the interface.
var _ wininput.Injector = (*FakeInjector)(nil)

// LeftDown records a left mouse down.
func (f *FakeInjector) LeftDown() error {
	return f.record(Call{Name: "LeftDown"})
}

// LeftUp records a left mouse up.
func (f *FakeInjector) LeftUp() error {
	return f.record(Call{Name: "LeftUp"})
}

// Wheel records a mouse wheel delta.
func (f *FakeInjector) Wheel(delta int) error {
	return f.record(Call{Name: "Wheel", Delta: delta})
}

// Calls returns a copy of the recorded calls.
func (f *FakeInjector) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// record appends c and returns the configured error.
func (f *FakeInjector) record(c Call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.Err
}
