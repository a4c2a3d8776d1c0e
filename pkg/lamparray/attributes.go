package lamparray

import (
	"encoding/binary"
	"fmt"
	"time"
)

// ArrayAttributes is the decoded lamp-array attributes report. It describes
// the whole array and is queried once at startup.
type ArrayAttributes struct {
	LampCount         uint16
	BoundingBoxWidth  uint32 // micrometers
	BoundingBoxHeight uint32
	BoundingBoxDepth  uint32
	Kind              uint32
	MinUpdateInterval time.Duration
}

// LampAttributes is the decoded per-lamp attributes response.
type LampAttributes struct {
	LampID              uint16
	PositionX           uint32 // micrometers
	PositionY           uint32
	PositionZ           uint32
	UpdateLatency       time.Duration
	Purposes            uint32
	RedLevelCount       uint8
	GreenLevelCount     uint8
	BlueLevelCount      uint8
	IntensityLevelCount uint8
	Programmable        bool
	InputBinding        uint16
}

// EncodeAttributesRequest builds the get-feature request buffer for the
// array attributes report. The device fills in everything past the ID.
func EncodeAttributesRequest() Frame {
	f := make(Frame, ArrayAttributesSize)
	f[0] = ReportArrayAttributes
	return f
}

// EncodeLampAttributesRequest builds the set-feature report that selects
// which lamp the next lamp-attributes query returns.
func EncodeLampAttributesRequest(lampID uint16) Frame {
	f := make(Frame, 3)
	f[0] = ReportLampAttributesRequest
	binary.LittleEndian.PutUint16(f[1:], lampID)
	return f
}

// DecodeAttributes parses the array attributes report.
func DecodeAttributes(buf []byte) (ArrayAttributes, error) {
	if len(buf) < ArrayAttributesSize {
		return ArrayAttributes{}, fmt.Errorf("%w: attributes report is %d bytes, want %d", ErrProtocol, len(buf), ArrayAttributesSize)
	}
	if buf[0] != ReportArrayAttributes {
		return ArrayAttributes{}, fmt.Errorf("%w: report ID 0x%02x, want 0x%02x", ErrProtocol, buf[0], ReportArrayAttributes)
	}
	return ArrayAttributes{
		LampCount:         binary.LittleEndian.Uint16(buf[1:]),
		BoundingBoxWidth:  binary.LittleEndian.Uint32(buf[3:]),
		BoundingBoxHeight: binary.LittleEndian.Uint32(buf[7:]),
		BoundingBoxDepth:  binary.LittleEndian.Uint32(buf[11:]),
		Kind:              binary.LittleEndian.Uint32(buf[15:]),
		MinUpdateInterval: time.Duration(binary.LittleEndian.Uint32(buf[19:])) * time.Microsecond,
	}, nil
}

// DecodeLampAttributes parses a per-lamp attributes response.
func DecodeLampAttributes(buf []byte) (LampAttributes, error) {
	if len(buf) < LampAttributesSize {
		return LampAttributes{}, fmt.Errorf("%w: lamp attributes report is %d bytes, want %d", ErrProtocol, len(buf), LampAttributesSize)
	}
	if buf[0] != ReportLampAttributesResponse {
		return LampAttributes{}, fmt.Errorf("%w: report ID 0x%02x, want 0x%02x", ErrProtocol, buf[0], ReportLampAttributesResponse)
	}
	return LampAttributes{
		LampID:              binary.LittleEndian.Uint16(buf[1:]),
		PositionX:           binary.LittleEndian.Uint32(buf[3:]),
		PositionY:           binary.LittleEndian.Uint32(buf[7:]),
		PositionZ:           binary.LittleEndian.Uint32(buf[11:]),
		UpdateLatency:       time.Duration(binary.LittleEndian.Uint32(buf[15:])) * time.Microsecond,
		Purposes:            binary.LittleEndian.Uint32(buf[19:]),
		RedLevelCount:       buf[23],
		GreenLevelCount:     buf[24],
		BlueLevelCount:      buf[25],
		IntensityLevelCount: buf[26],
		Programmable:        buf[27] != 0,
		InputBinding:        binary.LittleEndian.Uint16(buf[28:]),
	}, nil
}
