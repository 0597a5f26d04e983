package receiver

import (
	"sync"

	"github.com/frudas24/touchpad/internal/gesture"
	"github.com/frudas24/touchpad/internal/logging"
	"github.com/frudas24/touchpad/internal/wininput"
	"go.uber.org/zap"
)

// InjectorHandler turns touch pad updates into local pointer input.
// touchDown/touchUp drive the left button, swipes drive the wheel.
type InjectorHandler struct {
	mu        sync.Mutex
	injector  wininput.Injector
	wheelStep int
	log       *zap.SugaredLogger
	enabled   bool
	paired    map[string]bool
	held      map[string]bool
}

var _ Handler = (*InjectorHandler)(nil)

// NewInjectorHandler creates an enabled handler.
func NewInjectorHandler(injector wininput.Injector, wheelStep int, log *zap.SugaredLogger) *InjectorHandler {
	return &InjectorHandler{
		injector:  injector,
		wheelStep: wheelStep,
		log:       logging.OrNop(log),
		enabled:   true,
		paired:    make(map[string]bool),
		held:      make(map[string]bool),
	}
}

// SetEnabled toggles injection. Disabling releases held buttons.
func (h *InjectorHandler) SetEnabled(enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.enabled = enabled
	if enabled {
		return
	}
	for id := range h.held {
		h.release(id)
	}
}

// Enabled reports whether injection is active.
func (h *InjectorHandler) Enabled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.enabled
}

// TouchPadCreated pairs the connection.
func (h *InjectorHandler) TouchPadCreated(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paired[id] = true
	h.log.Infow("touch pad paired", "id", id)
}

// TouchUpdate injects the action mapped to kind.
func (h *InjectorHandler) TouchUpdate(id string, kind gesture.Kind) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.paired[id] {
		h.log.Debugw("update from unpaired touch pad ignored", "id", id, "kind", string(kind))
		return
	}
	if !h.enabled {
		return
	}

	var err error
	switch kind {
	case gesture.KindTouchDown:
		if err = h.injector.LeftDown(); err == nil {
			h.held[id] = true
		}
	case gesture.KindTouchUp:
		delete(h.held, id)
		err = h.injector.LeftUp()
	case gesture.KindSwipeUp:
		err = h.injector.Wheel(h.wheelStep)
	case gesture.KindSwipeDown:
		err = h.injector.Wheel(-h.wheelStep)
	default:
		return
	}
	if err != nil {
		h.log.Warnw("input injection failed", "id", id, "kind", string(kind), "error", err)
	}
}

// TouchPadClosed forgets the connection and releases a held button.
func (h *InjectorHandler) TouchPadClosed(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.held[id] {
		h.release(id)
	}
	delete(h.paired, id)
}

// release lifts the button held by id. Callers hold mu.
func (h *InjectorHandler) release(id string) {
	delete(h.held, id)
	if err := h.injector.LeftUp(); err != nil {
		h.log.Warnw("button release failed", "id", id, "error", err)
	}
}
