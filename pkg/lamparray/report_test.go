package lamparray

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"
)

func TestEncodeControl(t *testing.T) {
	acquire := EncodeControl(false)
	if len(acquire) != ControlSize {
		t.Fatalf("control frame len = %d, want %d", len(acquire), ControlSize)
	}
	if acquire[0] != ReportControl || acquire[1] != 0x00 {
		t.Errorf("acquire frame = % x, want 46 00", acquire)
	}

	release := EncodeControl(true)
	if release[0] != ReportControl || release[1] != 0x01 {
		t.Errorf("release frame = % x, want 46 01", release)
	}
}

func TestEncodeRangeUpdate(t *testing.T) {
	f, err := EncodeRangeUpdate(0, 127, Color{R: 255, G: 64, B: 0}, 200, true)
	if err != nil {
		t.Fatalf("EncodeRangeUpdate: %v", err)
	}
	if len(f) != RangeUpdateSize {
		t.Fatalf("range frame len = %d, want %d", len(f), RangeUpdateSize)
	}
	if f.ID() != ReportRangeUpdate {
		t.Errorf("report ID = 0x%02x, want 0x%02x", f.ID(), ReportRangeUpdate)
	}
	if f[1] != 0x01 {
		t.Errorf("apply flag = 0x%02x, want 0x01", f[1])
	}
	if start := binary.LittleEndian.Uint16(f[2:]); start != 0 {
		t.Errorf("start = %d, want 0", start)
	}
	if end := binary.LittleEndian.Uint16(f[4:]); end != 127 {
		t.Errorf("end = %d, want 127", end)
	}
	if f[6] != 255 || f[7] != 64 || f[8] != 0 || f[9] != 200 {
		t.Errorf("rgbi = % x, want ff 40 00 c8", f[6:])
	}
}

func TestEncodeRangeUpdateRejectsInvertedRange(t *testing.T) {
	if _, err := EncodeRangeUpdate(10, 5, Color{}, 0, true); err == nil {
		t.Fatal("expected error for start > end")
	}
}

func TestEncodeMultiUpdateRoundTrip(t *testing.T) {
	// Unsorted on purpose: encoding must order lamps ascending.
	ids := []uint16{4, 1, 3, 0, 2}
	c := Color{R: 0, G: 255, B: 32}

	frames, err := EncodeMultiUpdate(ids, c, 180)
	if err != nil {
		t.Fatalf("EncodeMultiUpdate: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(frames))
	}

	u, err := DecodeMultiUpdate(frames[0])
	if err != nil {
		t.Fatalf("DecodeMultiUpdate: %v", err)
	}
	if !u.Complete {
		t.Error("single frame should carry the update-complete flag")
	}
	want := []uint16{0, 1, 2, 3, 4}
	if len(u.LampIDs) != len(want) {
		t.Fatalf("decoded %d lamps, want %d", len(u.LampIDs), len(want))
	}
	for i, id := range want {
		if u.LampIDs[i] != id {
			t.Errorf("lamp[%d] = %d, want %d", i, u.LampIDs[i], id)
		}
		if u.Colors[i] != c {
			t.Errorf("color[%d] = %+v, want %+v", i, u.Colors[i], c)
		}
		if u.Intensity[i] != 180 {
			t.Errorf("intensity[%d] = %d, want 180", i, u.Intensity[i])
		}
	}
}

func TestEncodeMultiUpdateSplitsFrames(t *testing.T) {
	ids := make([]uint16, 19)
	for i := range ids {
		ids[i] = uint16(i)
	}

	frames, err := EncodeMultiUpdate(ids, Color{R: 1}, 255)
	if err != nil {
		t.Fatalf("EncodeMultiUpdate: %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("frames = %d, want 3", len(frames))
	}

	var got []uint16
	for i, f := range frames {
		u, decErr := DecodeMultiUpdate(f)
		if decErr != nil {
			t.Fatalf("frame %d: %v", i, decErr)
		}
		if wantComplete := i == len(frames)-1; u.Complete != wantComplete {
			t.Errorf("frame %d complete = %v, want %v", i, u.Complete, wantComplete)
		}
		got = append(got, u.LampIDs...)
	}
	if len(got) != len(ids) {
		t.Fatalf("decoded %d lamps total, want %d", len(got), len(ids))
	}
	for i := range got {
		if got[i] != ids[i] {
			t.Errorf("lamp[%d] = %d, want %d", i, got[i], ids[i])
		}
	}
	// Last frame carries 3 lamps, header must say so despite padding.
	if frames[2][1] != 3 {
		t.Errorf("final frame lamp count = %d, want 3", frames[2][1])
	}
}

func TestEncodeMultiUpdateDropsDuplicates(t *testing.T) {
	frames, err := EncodeMultiUpdate([]uint16{7, 3, 7, 3, 1}, Color{B: 9}, 64)
	if err != nil {
		t.Fatalf("EncodeMultiUpdate: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(frames))
	}

	u, err := DecodeMultiUpdate(frames[0])
	if err != nil {
		t.Fatalf("DecodeMultiUpdate: %v", err)
	}
	want := []uint16{1, 3, 7}
	if len(u.LampIDs) != len(want) {
		t.Fatalf("decoded %d lamps, want %d (duplicates collapsed)", len(u.LampIDs), len(want))
	}
	for i, id := range want {
		if u.LampIDs[i] != id {
			t.Errorf("lamp[%d] = %d, want %d", i, u.LampIDs[i], id)
		}
	}
}

func TestEncodeMultiUpdateEmpty(t *testing.T) {
	if _, err := EncodeMultiUpdate(nil, Color{}, 0); err == nil {
		t.Fatal("expected error for empty lamp list")
	}
}

func TestDecodeAttributes(t *testing.T) {
	buf := make([]byte, ArrayAttributesSize)
	buf[0] = ReportArrayAttributes
	binary.LittleEndian.PutUint16(buf[1:], 128)
	binary.LittleEndian.PutUint32(buf[3:], 350000)
	binary.LittleEndian.PutUint32(buf[7:], 120000)
	binary.LittleEndian.PutUint32(buf[11:], 5000)
	binary.LittleEndian.PutUint32(buf[15:], 1) // LampArrayKindKeyboard
	binary.LittleEndian.PutUint32(buf[19:], 16000)

	attrs, err := DecodeAttributes(buf)
	if err != nil {
		t.Fatalf("DecodeAttributes: %v", err)
	}
	if attrs.LampCount != 128 {
		t.Errorf("LampCount = %d, want 128", attrs.LampCount)
	}
	if attrs.Kind != 1 {
		t.Errorf("Kind = %d, want 1", attrs.Kind)
	}
	if attrs.MinUpdateInterval != 16*time.Millisecond {
		t.Errorf("MinUpdateInterval = %v, want 16ms", attrs.MinUpdateInterval)
	}
}

func TestDecodeAttributesErrors(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
	}{
		{"short buffer", make([]byte, 4)},
		{"wrong report id", append([]byte{ReportControl}, make([]byte, ArrayAttributesSize-1)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeAttributes(tt.buf)
			if !errors.Is(err, ErrProtocol) {
				t.Errorf("err = %v, want ErrProtocol", err)
			}
		})
	}
}

func TestDecodeLampAttributes(t *testing.T) {
	buf := make([]byte, LampAttributesSize)
	buf[0] = ReportLampAttributesResponse
	binary.LittleEndian.PutUint16(buf[1:], 42)
	binary.LittleEndian.PutUint32(buf[3:], 100)
	binary.LittleEndian.PutUint32(buf[7:], 200)
	binary.LittleEndian.PutUint32(buf[11:], 0)
	binary.LittleEndian.PutUint32(buf[15:], 4000)
	binary.LittleEndian.PutUint32(buf[19:], 2) // purpose: accent
	buf[23], buf[24], buf[25], buf[26] = 255, 255, 255, 255
	buf[27] = 1
	binary.LittleEndian.PutUint16(buf[28:], 0)

	lamp, err := DecodeLampAttributes(buf)
	if err != nil {
		t.Fatalf("DecodeLampAttributes: %v", err)
	}
	if lamp.LampID != 42 {
		t.Errorf("LampID = %d, want 42", lamp.LampID)
	}
	if !lamp.Programmable {
		t.Error("lamp should be programmable")
	}
	if lamp.UpdateLatency != 4*time.Millisecond {
		t.Errorf("UpdateLatency = %v, want 4ms", lamp.UpdateLatency)
	}
}

func TestEncodeLampAttributesRequest(t *testing.T) {
	f := EncodeLampAttributesRequest(513)
	if f[0] != ReportLampAttributesRequest {
		t.Errorf("report ID = 0x%02x, want 0x%02x", f[0], ReportLampAttributesRequest)
	}
	if id := binary.LittleEndian.Uint16(f[1:]); id != 513 {
		t.Errorf("lamp id = %d, want 513", id)
	}
}
