// Package gesture recognizes touch and swipe gestures on a touch surface.
package gesture

// Kind identifies a recognized gesture.
type Kind string

const (
	// KindTouchDown fires when a pointer touches the surface.
	KindTouchDown Kind = "touchDown"
	// KindTouchUp fires when a pointer leaves the surface.
	KindTouchUp Kind = "touchUp"
	// KindSwipeDown fires for a fast single-pointer swipe towards the bottom edge.
	KindSwipeDown Kind = "swipeDown"
	// KindSwipeUp fires for a fast single-pointer swipe towards the top edge.
	KindSwipeUp Kind = "swipeUp"
)

// Valid reports whether k is part of the gesture vocabulary.
func (k Kind) Valid() bool {
	switch k {
	case KindTouchDown, KindTouchUp, KindSwipeDown, KindSwipeUp:
		return true
	default:
		return false
	}
}

// Event is a single recognized gesture.
type Event struct {
	Kind Kind
}

// Subscription is the handle returned by Source.Subscribe.
type Subscription interface {
	// Unsubscribe stops event delivery. It is safe to call more than once.
	Unsubscribe()
}

// Source emits gesture events for one touch surface.
type Source interface {
	Subscribe(fn func(Event)) Subscription
}
