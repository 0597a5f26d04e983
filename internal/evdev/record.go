// Package evdev turns Linux input event records into pointer samples.
package evdev

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"time"

	"github.com/frudas24/touchpad/internal/gesture"
)

// Event types and codes from linux/input-event-codes.h.
const (
	EvSyn = 0x00
	EvKey = 0x01
	EvAbs = 0x03

	SynReport = 0x00
	BtnTouch  = 0x14a
	AbsX      = 0x00
	AbsY      = 0x01
)

// Record is one decoded struct input_event.
type Record struct {
	Time  time.Time
	Type  uint16
	Code  uint16
	Value int32
}

// RecordSize returns the size of struct input_event on this platform: a
// timeval of two longs followed by type, code and value.
func RecordSize() int {
	return strconv.IntSize/8*2 + 8
}

// ParseRecords decodes buf as consecutive records of size bytes.
func ParseRecords(buf []byte, size int) ([]Record, error) {
	if size != 16 && size != 24 {
		return nil, fmt.Errorf("unsupported record size %d", size)
	}
	if len(buf)%size != 0 {
		return nil, fmt.Errorf("short record: %d bytes is not a multiple of %d", len(buf), size)
	}
	order := binary.NativeEndian
	word := size/2 - 4
	out := make([]Record, 0, len(buf)/size)
	for off := 0; off < len(buf); off += size {
		rec := buf[off : off+size]
		var sec, usec int64
		if word == 8 {
			sec = int64(order.Uint64(rec[0:8]))
			usec = int64(order.Uint64(rec[8:16]))
		} else {
			sec = int64(int32(order.Uint32(rec[0:4])))
			usec = int64(int32(order.Uint32(rec[4:8])))
		}
		tail := rec[2*word:]
		out = append(out, Record{
			Time:  time.Unix(sec, usec*int64(time.Microsecond)),
			Type:  order.Uint16(tail[0:2]),
			Code:  order.Uint16(tail[2:4]),
			Value: int32(order.Uint32(tail[4:8])),
		})
	}
	return out, nil
}

// AbsRange is the reported range of an absolute axis.
type AbsRange struct {
	Min int32
	Max int32
}

// Normalize maps v into [0..1].
func (r AbsRange) Normalize(v int32) float64 {
	span := float64(r.Max) - float64(r.Min)
	if span <= 0 {
		return 0
	}
	n := (float64(v) - float64(r.Min)) / span
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

// Tracker folds single-touch records into samples, one per SYN_REPORT.
type Tracker struct {
	xr, yr   AbsRange
	x, y     int32
	touching bool
	reported bool
	moved    bool
}

// NewTracker creates a tracker for the given axis ranges.
func NewTracker(x, y AbsRange) *Tracker {
	return &Tracker{xr: x, yr: y}
}

// Process consumes one record and returns a sample when a frame completes
// with a contact change or movement.
func (t *Tracker) Process(rec Record) (gesture.Sample, bool) {
	switch rec.Type {
	case EvAbs:
		switch rec.Code {
		case AbsX:
			t.moved = t.moved || t.x != rec.Value
			t.x = rec.Value
		case AbsY:
			t.moved = t.moved || t.y != rec.Value
			t.y = rec.Value
		}
	case EvKey:
		if rec.Code == BtnTouch {
			t.touching = rec.Value != 0
		}
	case EvSyn:
		if rec.Code == SynReport {
			return t.frame(rec.Time)
		}
	}
	return gesture.Sample{}, false
}

// frame emits the sample for a completed frame.
func (t *Tracker) frame(at time.Time) (gesture.Sample, bool) {
	moved := t.moved
	t.moved = false

	var phase gesture.Phase
	switch {
	case t.touching && !t.reported:
		phase = gesture.PhaseDown
	case t.touching && moved:
		phase = gesture.PhaseMove
	case !t.touching && t.reported:
		phase = gesture.PhaseUp
	default:
		return gesture.Sample{}, false
	}
	t.reported = t.touching
	return gesture.Sample{
		Phase: phase,
		X:     t.xr.Normalize(t.x),
		Y:     t.yr.Normalize(t.y),
		At:    at,
	}, true
}
