// Package lamparray encodes and decodes the HID LampArray feature reports
// spoken by the ITE 5570 backlight controller. The package is pure: it
// builds and parses byte buffers and performs no device I/O.
package lamparray

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

// Report IDs used by the controller. The attribute reports follow the HID
// LampArray usage page layout; the range update and control reports follow
// the layout observed on the device itself.
const (
	ReportArrayAttributes        = 0x41
	ReportLampAttributesRequest  = 0x42
	ReportLampAttributesResponse = 0x43
	ReportMultiUpdate            = 0x44
	ReportRangeUpdate            = 0x45
	ReportControl                = 0x46
)

// MultiUpdateSlots is the number of lamp slots a single multi-update report
// carries. Larger updates are split across consecutive frames.
const MultiUpdateSlots = 8

// Sizes of the fixed-layout reports, report ID byte included.
const (
	ArrayAttributesSize = 23
	LampAttributesSize  = 30
	MultiUpdateSize     = 1 + 1 + 1 + 2*MultiUpdateSlots + 4*MultiUpdateSlots
	RangeUpdateSize     = 10
	ControlSize         = 2
)

// updateComplete marks the frame after which the device latches the new
// lamp state.
const updateComplete = 0x01

// ErrProtocol reports a malformed or unexpected report buffer.
var ErrProtocol = errors.New("lamparray: malformed report")

// Frame is one encoded feature report, ready to be written to the device.
type Frame []byte

// ID returns the report ID the frame carries, or 0 for an empty frame.
func (f Frame) ID() byte {
	if len(f) == 0 {
		return 0
	}
	return f[0]
}

// Color is an RGB triple. Channel values are full range; intensity scaling
// happens before encoding.
type Color struct {
	R, G, B uint8
}

// EncodeControl builds the autonomous-mode control report. Passing
// autonomous=false switches the controller into host-override mode (the
// firmware stops driving the lamps); autonomous=true hands control back.
func EncodeControl(autonomous bool) Frame {
	f := make(Frame, ControlSize)
	f[0] = ReportControl
	if autonomous {
		f[1] = 0x01
	}
	return f
}

// EncodeRangeUpdate builds a range update assigning one color and intensity
// to the contiguous lamp ID range [start, end]. applyNow sets the
// update-complete flag so the device latches the state immediately.
func EncodeRangeUpdate(start, end uint16, c Color, intensity uint8, applyNow bool) (Frame, error) {
	if start > end {
		return nil, fmt.Errorf("lamparray: invalid lamp range %d..%d", start, end)
	}
	f := make(Frame, RangeUpdateSize)
	f[0] = ReportRangeUpdate
	if applyNow {
		f[1] = updateComplete
	}
	binary.LittleEndian.PutUint16(f[2:], start)
	binary.LittleEndian.PutUint16(f[4:], end)
	f[6] = c.R
	f[7] = c.G
	f[8] = c.B
	f[9] = intensity
	return f, nil
}

// EncodeMultiUpdate builds one or more multi-update reports assigning the
// same color and intensity to the given lamps. Lamps are encoded in
// ascending ID order with duplicates collapsed, eight per frame; a short
// final batch is padded with zeroed slots and the real count in the
// header. Only the last frame carries the update-complete flag.
func EncodeMultiUpdate(lampIDs []uint16, c Color, intensity uint8) ([]Frame, error) {
	if len(lampIDs) == 0 {
		return nil, fmt.Errorf("lamparray: multi update needs at least one lamp")
	}

	ids := make([]uint16, len(lampIDs))
	copy(ids, lampIDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	n := 1
	for i := 1; i < len(ids); i++ {
		if ids[i] != ids[n-1] {
			ids[n] = ids[i]
			n++
		}
	}
	ids = ids[:n]

	var frames []Frame
	for off := 0; off < len(ids); off += MultiUpdateSlots {
		batch := ids[off:min(off+MultiUpdateSlots, len(ids))]
		last := off+MultiUpdateSlots >= len(ids)

		f := make(Frame, MultiUpdateSize)
		f[0] = ReportMultiUpdate
		f[1] = byte(len(batch))
		if last {
			f[2] = updateComplete
		}
		for i, id := range batch {
			binary.LittleEndian.PutUint16(f[3+2*i:], id)
			rgbi := 3 + 2*MultiUpdateSlots + 4*i
			f[rgbi] = c.R
			f[rgbi+1] = c.G
			f[rgbi+2] = c.B
			f[rgbi+3] = intensity
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// MultiUpdate is the decoded form of a multi-update report.
type MultiUpdate struct {
	LampIDs   []uint16
	Colors    []Color
	Intensity []uint8
	Complete  bool
}

// DecodeMultiUpdate parses a multi-update report back into lamp
// assignments. Used to verify encoded frames against the wire layout.
func DecodeMultiUpdate(buf []byte) (MultiUpdate, error) {
	if len(buf) < MultiUpdateSize {
		return MultiUpdate{}, fmt.Errorf("%w: multi update is %d bytes, want %d", ErrProtocol, len(buf), MultiUpdateSize)
	}
	if buf[0] != ReportMultiUpdate {
		return MultiUpdate{}, fmt.Errorf("%w: report ID 0x%02x, want 0x%02x", ErrProtocol, buf[0], ReportMultiUpdate)
	}
	count := int(buf[1])
	if count == 0 || count > MultiUpdateSlots {
		return MultiUpdate{}, fmt.Errorf("%w: lamp count %d out of range", ErrProtocol, count)
	}

	u := MultiUpdate{Complete: buf[2]&updateComplete != 0}
	for i := 0; i < count; i++ {
		u.LampIDs = append(u.LampIDs, binary.LittleEndian.Uint16(buf[3+2*i:]))
		rgbi := 3 + 2*MultiUpdateSlots + 4*i
		u.Colors = append(u.Colors, Color{R: buf[rgbi], G: buf[rgbi+1], B: buf[rgbi+2]})
		u.Intensity = append(u.Intensity, buf[rgbi+3])
	}
	return u, nil
}
