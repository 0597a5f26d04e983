package gesture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testGeometry spans 100 units horizontally and 200 units vertically.
var testGeometry = Geometry{Width: 101, Height: 201}

// recorder collects emitted kinds.
type recorder struct {
	kinds []Kind
}

// collect appends ev to the recorder.
func (r *recorder) collect(ev Event) {
	r.kinds = append(r.kinds, ev.Kind)
}

// newTestRecognizer returns a recognizer with default swipe options and a recorder attached.
func newTestRecognizer() (*Recognizer, *recorder) {
	r := NewRecognizer(testGeometry, DefaultSwipeOptions())
	rec := &recorder{}
	r.Subscribe(rec.collect)
	return r, rec
}

// stroke feeds a single-pointer down/move/up sequence lasting d.
func stroke(r *Recognizer, x0, y0, x1, y1 float64, d time.Duration) {
	t0 := time.Unix(100, 0)
	r.Feed(Sample{Phase: PhaseDown, Pointer: 1, X: x0, Y: y0, At: t0})
	r.Feed(Sample{Phase: PhaseMove, Pointer: 1, X: (x0 + x1) / 2, Y: (y0 + y1) / 2, At: t0.Add(d / 2)})
	r.Feed(Sample{Phase: PhaseUp, Pointer: 1, X: x1, Y: y1, At: t0.Add(d)})
}

// TestTouchStart_EmitsTouchDown verifies a contact emits touchDown immediately.
func TestTouchStart_EmitsTouchDown(t *testing.T) {
	r, rec := newTestRecognizer()
	r.Feed(Sample{Phase: PhaseDown, Pointer: 1, X: 0.5, Y: 0.5})
	assert.Equal(t, []Kind{KindTouchDown}, rec.kinds)
}

// TestTap_EmitsDownUpOnly verifies a stationary tap is not a swipe.
func TestTap_EmitsDownUpOnly(t *testing.T) {
	r, rec := newTestRecognizer()
	stroke(r, 0.5, 0.5, 0.5, 0.5, 50*time.Millisecond)
	assert.Equal(t, []Kind{KindTouchDown, KindTouchUp}, rec.kinds)
}

// TestSwipeDown_DetectedAfterTouchUp verifies a downward swipe with velocity 0.5 and distance 20.
func TestSwipeDown_DetectedAfterTouchUp(t *testing.T) {
	r, rec := newTestRecognizer()
	stroke(r, 0.5, 0.1, 0.5, 0.2, 40*time.Millisecond)
	assert.Equal(t, []Kind{KindTouchDown, KindTouchUp, KindSwipeDown}, rec.kinds)
}

// TestSwipeUp_TouchUpThenSwipeUp verifies the lift and the swipe stay two independent events.
func TestSwipeUp_TouchUpThenSwipeUp(t *testing.T) {
	r, rec := newTestRecognizer()
	stroke(r, 0.5, 0.5, 0.5, 0.3, 40*time.Millisecond)
	assert.Equal(t, []Kind{KindTouchDown, KindTouchUp, KindSwipeUp}, rec.kinds)
}

// TestSwipe_TooSlow verifies a velocity below 0.3 units/ms is not a swipe.
func TestSwipe_TooSlow(t *testing.T) {
	r, rec := newTestRecognizer()
	// 20 units in 100ms = 0.2 units/ms.
	stroke(r, 0.5, 0.1, 0.5, 0.2, 100*time.Millisecond)
	assert.Equal(t, []Kind{KindTouchDown, KindTouchUp}, rec.kinds)
}

// TestSwipe_TooShort verifies a distance below 10 units is not a swipe.
func TestSwipe_TooShort(t *testing.T) {
	r, rec := newTestRecognizer()
	// 5 units in 5ms = 1 unit/ms.
	stroke(r, 0.5, 0.1, 0.5, 0.125, 5*time.Millisecond)
	assert.Equal(t, []Kind{KindTouchDown, KindTouchUp}, rec.kinds)
}

// TestSwipe_HorizontalIgnored verifies horizontal swipes are recognized but not emitted.
func TestSwipe_HorizontalIgnored(t *testing.T) {
	r, rec := newTestRecognizer()
	stroke(r, 0.1, 0.5, 0.5, 0.5, 40*time.Millisecond)
	assert.Equal(t, []Kind{KindTouchDown, KindTouchUp}, rec.kinds)
}

// TestSwipe_MultiPointerIgnored verifies two-finger swipes are not single-pointer swipes.
func TestSwipe_MultiPointerIgnored(t *testing.T) {
	r, rec := newTestRecognizer()
	t0 := time.Unix(100, 0)
	r.Feed(Sample{Phase: PhaseDown, Pointer: 1, X: 0.4, Y: 0.1, At: t0})
	r.Feed(Sample{Phase: PhaseDown, Pointer: 2, X: 0.6, Y: 0.1, At: t0})
	r.Feed(Sample{Phase: PhaseUp, Pointer: 2, X: 0.6, Y: 0.3, At: t0.Add(40 * time.Millisecond)})
	r.Feed(Sample{Phase: PhaseUp, Pointer: 1, X: 0.4, Y: 0.3, At: t0.Add(40 * time.Millisecond)})
	assert.Equal(t, []Kind{KindTouchDown, KindTouchDown, KindTouchUp, KindTouchUp}, rec.kinds)
}

// TestCancel_EmitsTouchUpWithoutSwipe verifies a cancelled contact ends without a swipe.
func TestCancel_EmitsTouchUpWithoutSwipe(t *testing.T) {
	r, rec := newTestRecognizer()
	t0 := time.Unix(100, 0)
	r.Feed(Sample{Phase: PhaseDown, Pointer: 1, X: 0.5, Y: 0.1, At: t0})
	r.Feed(Sample{Phase: PhaseCancel, Pointer: 1, X: 0.5, Y: 0.3, At: t0.Add(40 * time.Millisecond)})
	assert.Equal(t, []Kind{KindTouchDown, KindTouchUp}, rec.kinds)
}

// TestUnknownPointer_Ignored verifies moves and lifts of unknown pointers emit nothing.
func TestUnknownPointer_Ignored(t *testing.T) {
	r, rec := newTestRecognizer()
	r.Feed(Sample{Phase: PhaseMove, Pointer: 9, X: 0.1, Y: 0.1})
	r.Feed(Sample{Phase: PhaseUp, Pointer: 9, X: 0.1, Y: 0.1})
	assert.Empty(t, rec.kinds)
}

// TestSwipe_UsesInjectedClock verifies samples without timestamps use the recognizer clock.
func TestSwipe_UsesInjectedClock(t *testing.T) {
	r, rec := newTestRecognizer()
	now := time.Unix(0, 0)
	r.SetNowFunc(func() time.Time { return now })

	r.Feed(Sample{Phase: PhaseDown, Pointer: 1, X: 0.5, Y: 0.1})
	now = now.Add(40 * time.Millisecond)
	r.Feed(Sample{Phase: PhaseUp, Pointer: 1, X: 0.5, Y: 0.2})
	assert.Equal(t, []Kind{KindTouchDown, KindTouchUp, KindSwipeDown}, rec.kinds)
}

// TestUnsubscribe_StopsDelivery verifies released subscriptions receive nothing.
func TestUnsubscribe_StopsDelivery(t *testing.T) {
	r := NewRecognizer(testGeometry, DefaultSwipeOptions())
	first := &recorder{}
	second := &recorder{}
	sub := r.Subscribe(first.collect)
	r.Subscribe(second.collect)

	sub.Unsubscribe()
	sub.Unsubscribe()
	r.Feed(Sample{Phase: PhaseDown, Pointer: 1, X: 0.5, Y: 0.5})

	assert.Empty(t, first.kinds)
	require.Len(t, second.kinds, 1)
}

// TestGeometry_ToSurfaceClamps verifies normalized coordinates are clamped to the surface.
func TestGeometry_ToSurfaceClamps(t *testing.T) {
	x, y := testGeometry.ToSurface(-1, 2)
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 200.0, y)
	assert.Error(t, Geometry{}.Validate())
	assert.NoError(t, testGeometry.Validate())
}

// TestParsePhase verifies phase names round trip.
func TestParsePhase(t *testing.T) {
	for _, p := range []Phase{PhaseDown, PhaseMove, PhaseUp, PhaseCancel} {
		got, err := ParsePhase(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParsePhase("hover")
	assert.Error(t, err)
}
