package gesture

import (
	"math"
	"sync"
	"time"
)

const (
	defaultSwipeThreshold = 10
	defaultSwipeVelocity  = 0.3
	defaultSwipePointers  = 1
)

// SwipeOptions configures swipe recognition.
type SwipeOptions struct {
	// Threshold is the minimal travel distance in surface units.
	Threshold float64
	// Velocity is the minimal speed in surface units per millisecond.
	Velocity float64
	// Pointers is the number of pointers a swipe must use.
	Pointers int
}

// DefaultSwipeOptions returns threshold 10, velocity 0.3, one pointer.
func DefaultSwipeOptions() SwipeOptions {
	return SwipeOptions{
		Threshold: defaultSwipeThreshold,
		Velocity:  defaultSwipeVelocity,
		Pointers:  defaultSwipePointers,
	}
}

// Ensure Recognizer is both a gesture source and a sample sink.
var (
	_ Source     = (*Recognizer)(nil)
	_ SampleSink = (*Recognizer)(nil)
)

// point is a position in surface units.
type point struct {
	x float64
	y float64
}

// session tracks one interaction from the first contact until every pointer lifts.
type session struct {
	start       point
	startAt     time.Time
	maxPointers int
}

// subscriber is a registered event callback.
type subscriber struct {
	id uint64
	fn func(Event)
}

// Recognizer turns pointer samples into gesture events. Raw touch start/end
// and swipes are recognized independently, so a single lift can produce both
// a touchUp and a swipe event.
type Recognizer struct {
	mu       sync.Mutex
	geometry Geometry
	swipe    SwipeOptions
	now      func() time.Time

	active  map[int]point
	session *session

	nextID uint64
	subs   []subscriber
}

// NewRecognizer returns a recognizer bound to a surface of the given size.
// The geometry is a snapshot and is never re-queried.
func NewRecognizer(geometry Geometry, swipe SwipeOptions) *Recognizer {
	if swipe.Pointers <= 0 {
		swipe.Pointers = defaultSwipePointers
	}
	return &Recognizer{
		geometry: geometry,
		swipe:    swipe,
		now:      time.Now,
		active:   make(map[int]point),
	}
}

// SetNowFunc overrides the clock used for samples without a timestamp.
func (r *Recognizer) SetNowFunc(fn func() time.Time) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.now = fn
	r.mu.Unlock()
}

// Geometry returns the surface snapshot.
func (r *Recognizer) Geometry() Geometry {
	return r.geometry
}

// Subscribe registers fn for every recognized event.
func (r *Recognizer) Subscribe(fn func(Event)) Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.subs = append(r.subs, subscriber{id: id, fn: fn})
	return &recognizerSub{r: r, id: id}
}

// Feed processes one sample and emits the resulting events in detection order.
func (r *Recognizer) Feed(s Sample) {
	r.mu.Lock()
	if s.At.IsZero() {
		s.At = r.now()
	}
	events := r.handle(s)
	subs := make([]subscriber, len(r.subs))
	copy(subs, r.subs)
	r.mu.Unlock()

	for _, ev := range events {
		for _, sub := range subs {
			sub.fn(ev)
		}
	}
}

// handle updates pointer state for s. Callers must hold r.mu.
func (r *Recognizer) handle(s Sample) []Event {
	x, y := r.geometry.ToSurface(s.X, s.Y)
	pos := point{x: x, y: y}

	switch s.Phase {
	case PhaseDown:
		if _, ok := r.active[s.Pointer]; ok {
			r.active[s.Pointer] = pos
			return nil
		}
		if len(r.active) == 0 {
			r.session = &session{start: pos, startAt: s.At}
		}
		r.active[s.Pointer] = pos
		if r.session != nil && len(r.active) > r.session.maxPointers {
			r.session.maxPointers = len(r.active)
		}
		return []Event{{Kind: KindTouchDown}}

	case PhaseMove:
		if _, ok := r.active[s.Pointer]; ok {
			r.active[s.Pointer] = pos
		}
		return nil

	case PhaseUp, PhaseCancel:
		if _, ok := r.active[s.Pointer]; !ok {
			return nil
		}
		delete(r.active, s.Pointer)
		events := []Event{{Kind: KindTouchUp}}
		if len(r.active) > 0 {
			return events
		}
		sess := r.session
		r.session = nil
		if s.Phase == PhaseUp && sess != nil {
			if kind, ok := r.swipeKind(sess, pos, s.At); ok {
				events = append(events, Event{Kind: kind})
			}
		}
		return events

	default:
		return nil
	}
}

// swipeKind evaluates a finished session against the swipe options. Only
// vertical swipes map onto the event vocabulary.
func (r *Recognizer) swipeKind(sess *session, end point, at time.Time) (Kind, bool) {
	if sess.maxPointers != r.swipe.Pointers {
		return "", false
	}
	dt := float64(at.Sub(sess.startAt)) / float64(time.Millisecond)
	if dt <= 0 {
		return "", false
	}
	dx := end.x - sess.start.x
	dy := end.y - sess.start.y
	if math.Hypot(dx, dy) <= r.swipe.Threshold {
		return "", false
	}
	velocity := math.Max(math.Abs(dx), math.Abs(dy)) / dt
	if velocity <= r.swipe.Velocity {
		return "", false
	}
	if math.Abs(dx) >= math.Abs(dy) {
		return "", false
	}
	if dy > 0 {
		return KindSwipeDown, true
	}
	return KindSwipeUp, true
}

// unsubscribe removes the subscriber with id.
func (r *Recognizer) unsubscribe(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, sub := range r.subs {
		if sub.id == id {
			r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
			return
		}
	}
}

// recognizerSub is the Subscription handed out by Recognizer.
type recognizerSub struct {
	once sync.Once
	r    *Recognizer
	id   uint64
}

// Unsubscribe implements Subscription.
func (s *recognizerSub) Unsubscribe() {
	s.once.Do(func() { s.r.unsubscribe(s.id) })
}
