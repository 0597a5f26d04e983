package replay

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/frudas24/touchpad/internal/gesture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const swipeScript = `
steps:
  - phase: down
    pointer: 1
    x: 0.5
    y: 0.1
  - phase: move
    pointer: 1
    x: 0.5
    y: 0.15
    after: 20ms
  - phase: up
    pointer: 1
    x: 0.5
    y: 0.2
    after: 20ms
`

// sinkFunc adapts a function to gesture.SampleSink.
type sinkFunc func(gesture.Sample)

// Feed calls f.
func (f sinkFunc) Feed(s gesture.Sample) { f(s) }

// TestParse_Swipe verifies a valid script decodes phases and delays.
func TestParse_Swipe(t *testing.T) {
	script, err := Parse([]byte(swipeScript))
	require.NoError(t, err)
	require.Len(t, script.Steps, 3)
	assert.Equal(t, "move", script.Steps[1].Phase)
	assert.Equal(t, 20*time.Millisecond, script.Steps[2].After)
}

// TestParse_Invalid verifies validation failures.
func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":        `steps: []`,
		"phase":        "steps:\n  - phase: hover\n",
		"range":        "steps:\n  - phase: down\n    x: 1.5\n",
		"delay":        "steps:\n  - phase: down\n    after: -1s\n",
		"not yaml map": `- 1`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			assert.Error(t, err)
		})
	}
}

// TestSamples_AccumulateDelays verifies timestamps are offsets from start.
func TestSamples_AccumulateDelays(t *testing.T) {
	script, err := Parse([]byte(swipeScript))
	require.NoError(t, err)
	start := time.Unix(100, 0)

	samples := Samples(script, start)
	require.Len(t, samples, 3)
	assert.Equal(t, gesture.PhaseDown, samples[0].Phase)
	assert.Equal(t, start, samples[0].At)
	assert.Equal(t, start.Add(40*time.Millisecond), samples[2].At)
	assert.Equal(t, gesture.PhaseUp, samples[2].Phase)
	assert.InDelta(t, 0.2, samples[2].Y, 1e-9)
}

// TestPlay_VirtualClockDrivesRecognizer verifies a played swipe is recognized.
func TestPlay_VirtualClockDrivesRecognizer(t *testing.T) {
	script, err := Parse([]byte(swipeScript))
	require.NoError(t, err)

	recog := gesture.NewRecognizer(gesture.Geometry{Width: 101, Height: 201}, gesture.DefaultSwipeOptions())
	var kinds []gesture.Kind
	recog.Subscribe(func(ev gesture.Event) { kinds = append(kinds, ev.Kind) })

	require.NoError(t, Play(context.Background(), script, recog, false))
	assert.Equal(t, []gesture.Kind{gesture.KindTouchDown, gesture.KindTouchUp, gesture.KindSwipeDown}, kinds)
}

// TestPlay_RealtimeHonorsCancel verifies a cancelled context stops playback.
func TestPlay_RealtimeHonorsCancel(t *testing.T) {
	script := Script{Steps: []Step{
		{Phase: "down", Pointer: 1, X: 0.5, Y: 0.5},
		{Phase: "up", Pointer: 1, X: 0.5, Y: 0.5, After: time.Hour},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	var fed int
	sink := sinkFunc(func(gesture.Sample) {
		fed++
		cancel()
	})

	err := Play(ctx, script, sink, true)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, fed)
}

// TestLoad_File verifies scripts load from disk.
func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "swipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(swipeScript), 0o600))
	script, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, script.Steps, 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
