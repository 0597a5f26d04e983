package evdev

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/frudas24/touchpad/internal/gesture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encode builds one input_event of the given size.
func encode(size int, sec, usec int64, typ, code uint16, value int32) []byte {
	order := binary.NativeEndian
	buf := make([]byte, size)
	word := size/2 - 4
	if word == 8 {
		order.PutUint64(buf[0:8], uint64(sec))
		order.PutUint64(buf[8:16], uint64(usec))
	} else {
		order.PutUint32(buf[0:4], uint32(sec))
		order.PutUint32(buf[4:8], uint32(usec))
	}
	tail := buf[2*word:]
	order.PutUint16(tail[0:2], typ)
	order.PutUint16(tail[2:4], code)
	order.PutUint32(tail[4:8], uint32(value))
	return buf
}

// TestParseRecords_BothLayouts verifies 32- and 64-bit timeval layouts decode.
func TestParseRecords_BothLayouts(t *testing.T) {
	for _, size := range []int{16, 24} {
		buf := append(encode(size, 10, 500, EvAbs, AbsY, -3), encode(size, 10, 600, EvSyn, SynReport, 0)...)
		records, err := ParseRecords(buf, size)
		require.NoError(t, err, "size %d", size)
		require.Len(t, records, 2)
		assert.Equal(t, time.Unix(10, 500000), records[0].Time)
		assert.Equal(t, uint16(EvAbs), records[0].Type)
		assert.Equal(t, uint16(AbsY), records[0].Code)
		assert.Equal(t, int32(-3), records[0].Value)
		assert.Equal(t, uint16(EvSyn), records[1].Type)
	}
}

// TestParseRecords_Invalid verifies size checks.
func TestParseRecords_Invalid(t *testing.T) {
	_, err := ParseRecords(make([]byte, 10), 24)
	assert.Error(t, err)
	_, err = ParseRecords(make([]byte, 20), 20)
	assert.Error(t, err)
}

// TestRecordSize verifies the native layout is one of the known sizes.
func TestRecordSize(t *testing.T) {
	assert.Contains(t, []int{16, 24}, RecordSize())
}

// TestAbsRange_Normalize verifies clamping and degenerate ranges.
func TestAbsRange_Normalize(t *testing.T) {
	r := AbsRange{Min: 0, Max: 1000}
	assert.InDelta(t, 0.25, r.Normalize(250), 1e-9)
	assert.Equal(t, 0.0, r.Normalize(-5))
	assert.Equal(t, 1.0, r.Normalize(2000))
	assert.Equal(t, 0.0, AbsRange{Min: 5, Max: 5}.Normalize(5))
}

// TestTracker_DownMoveUp verifies frames produce down, move, and up samples.
func TestTracker_DownMoveUp(t *testing.T) {
	tr := NewTracker(AbsRange{Max: 100}, AbsRange{Max: 200})
	at := time.Unix(1, 0)
	var got []gesture.Sample
	feed := func(recs ...Record) {
		for _, rec := range recs {
			rec.Time = at
			if s, ok := tr.Process(rec); ok {
				got = append(got, s)
			}
		}
	}

	feed(Record{Type: EvAbs, Code: AbsX, Value: 50}, Record{Type: EvAbs, Code: AbsY, Value: 20},
		Record{Type: EvKey, Code: BtnTouch, Value: 1}, Record{Type: EvSyn, Code: SynReport})
	feed(Record{Type: EvSyn, Code: SynReport})
	feed(Record{Type: EvAbs, Code: AbsY, Value: 40}, Record{Type: EvSyn, Code: SynReport})
	feed(Record{Type: EvKey, Code: BtnTouch, Value: 0}, Record{Type: EvSyn, Code: SynReport})
	feed(Record{Type: EvSyn, Code: SynReport})

	require.Len(t, got, 3)
	assert.Equal(t, gesture.PhaseDown, got[0].Phase)
	assert.InDelta(t, 0.5, got[0].X, 1e-9)
	assert.InDelta(t, 0.1, got[0].Y, 1e-9)
	assert.Equal(t, gesture.PhaseMove, got[1].Phase)
	assert.InDelta(t, 0.2, got[1].Y, 1e-9)
	assert.Equal(t, gesture.PhaseUp, got[2].Phase)
	assert.Equal(t, at, got[2].At)
}
