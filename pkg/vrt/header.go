// Package vrt implements the VITA 49.2 (VRT) packet header word.
//
// Every VRT packet starts with one 32-bit header word, most significant bit first:
//
//	Byte  Bits  Field
//	----  ----  -----
//	0     7-4   packet type        (PacketType)
//	0     3     C bit              (class identifier present)
//	0     2     indicator 0        (meaning depends on packet type)
//	0     1     indicator 1
//	0     0     indicator 2
//	1     7-6   TSI                (IntegerTimestampMode)
//	1     5-4   TSF                (FractionalTimestampMode)
//	1     3-0   packet count       (modulo-16 stream counter)
//	2-3   15-0  packet size        (uint16 big-endian, in 32-bit words)
//
// Header is a plain value; the codec holds no state and never logs.
package vrt

import (
	"encoding/binary"
	"fmt"
)

const (
	// HeaderSize is the wire size of the header word in bytes.
	HeaderSize = 4

	// HeaderWords is the wire size of the header in 32-bit words.
	HeaderWords = 1

	// MaxPacketCount is the largest value the 4-bit packet count can hold.
	MaxPacketCount = 0x0F
)

// Header is the decoded VRT header word. The zero value is the default
// header: DataNoSID, no flags, TSI/TSF None, count 0, size 0.
type Header struct {
	packetType  PacketType
	cBit        bool
	indicator0  bool
	indicator1  bool
	indicator2  bool
	tsi         IntegerTimestampMode
	tsf         FractionalTimestampMode
	packetCount uint8
	packetSize  uint16
}

// NewHeader returns the default header.
func NewHeader() Header {
	return Header{}
}

func (h Header) PacketType() PacketType       { return h.packetType }
func (h Header) CBit() bool                   { return h.cBit }
func (h Header) Indicator0() bool             { return h.indicator0 }
func (h Header) Indicator1() bool             { return h.indicator1 }
func (h Header) Indicator2() bool             { return h.indicator2 }
func (h Header) TSI() IntegerTimestampMode    { return h.tsi }
func (h Header) TSF() FractionalTimestampMode { return h.tsf }
func (h Header) PacketCount() uint8           { return h.packetCount }
func (h Header) PacketSize() uint16           { return h.packetSize }

// SetPacketType sets the packet type. Undefined codes are rejected and leave h unchanged.
func (h *Header) SetPacketType(t PacketType) error {
	if !t.Valid() {
		return &EnumCodeError{Field: "packet_type", Code: uint8(t)}
	}
	h.packetType = t
	return nil
}

func (h *Header) SetCBit(v bool)       { h.cBit = v }
func (h *Header) SetIndicator0(v bool) { h.indicator0 = v }
func (h *Header) SetIndicator1(v bool) { h.indicator1 = v }
func (h *Header) SetIndicator2(v bool) { h.indicator2 = v }

// SetTSI sets the integer timestamp mode.
func (h *Header) SetTSI(m IntegerTimestampMode) error {
	if !m.Valid() {
		return &EnumCodeError{Field: "tsi", Code: uint8(m)}
	}
	h.tsi = m
	return nil
}

// SetTSF sets the fractional timestamp mode.
func (h *Header) SetTSF(m FractionalTimestampMode) error {
	if !m.Valid() {
		return &EnumCodeError{Field: "tsf", Code: uint8(m)}
	}
	h.tsf = m
	return nil
}

// SetPacketCount sets the 4-bit packet count. Values above MaxPacketCount
// are rejected, never masked.
func (h *Header) SetPacketCount(n uint8) error {
	if n > MaxPacketCount {
		return &RangeError{Field: "packet_count", Value: uint64(n), Max: MaxPacketCount}
	}
	h.packetCount = n
	return nil
}

// IncrementPacketCount advances the packet count, rolling over from 15 to 0.
func (h *Header) IncrementPacketCount() {
	h.packetCount = (h.packetCount + 1) & MaxPacketCount
}

func (h *Header) SetPacketSize(n uint16) { h.packetSize = n }

// WireSize returns the encoded size in bytes, always HeaderSize.
func (Header) WireSize() int { return HeaderSize }

// NumWords returns the encoded size in 32-bit words, always HeaderWords.
func (Header) NumWords() int { return HeaderWords }

// PacketSizeBytes returns the whole packet length described by the size field.
func (h Header) PacketSizeBytes() int { return int(h.packetSize) * 4 }

func (h Header) String() string {
	return fmt.Sprintf("%s c=%d ind=%d%d%d tsi=%s tsf=%s count=%d size=%d",
		h.packetType, bit(h.cBit), bit(h.indicator0), bit(h.indicator1), bit(h.indicator2),
		h.tsi, h.tsf, h.packetCount, h.packetSize)
}

// Encode packs h into its 4-byte wire form.
func Encode(h Header) [HeaderSize]byte {
	var b [HeaderSize]byte

	// Byte 0: type(7:4) C(3) ind0(2) ind1(1) ind2(0)
	b[0] = h.packetType.Code()<<4 |
		bit(h.cBit)<<3 |
		bit(h.indicator0)<<2 |
		bit(h.indicator1)<<1 |
		bit(h.indicator2)

	// Byte 1: TSI(7:6) TSF(5:4) count(3:0)
	b[1] = (h.tsi.Code()&0x3)<<6 |
		(h.tsf.Code()&0x3)<<4 |
		h.packetCount&MaxPacketCount

	// Bytes 2-3: packet size
	binary.BigEndian.PutUint16(b[2:4], h.packetSize)

	return b
}

// Decode parses the header word from the first HeaderSize bytes of b.
// Trailing bytes are ignored. On error the returned Header is the zero value
// and must not be used.
func Decode(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: got %d bytes, need %d", ErrTruncatedInput, len(b), HeaderSize)
	}

	pt, err := PacketTypeFromCode(b[0] >> 4)
	if err != nil {
		return Header{}, err
	}
	tsi, err := IntegerTimestampModeFromCode((b[1] >> 6) & 0x3)
	if err != nil {
		return Header{}, err
	}
	tsf, err := FractionalTimestampModeFromCode((b[1] >> 4) & 0x3)
	if err != nil {
		return Header{}, err
	}

	return Header{
		packetType:  pt,
		cBit:        b[0]&0x08 != 0,
		indicator0:  b[0]&0x04 != 0,
		indicator1:  b[0]&0x02 != 0,
		indicator2:  b[0]&0x01 != 0,
		tsi:         tsi,
		tsf:         tsf,
		packetCount: b[1] & MaxPacketCount,
		packetSize:  binary.BigEndian.Uint16(b[2:4]),
	}, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (h Header) MarshalBinary() ([]byte, error) {
	b := Encode(h)
	return b[:], nil
}

// AppendBinary implements encoding.BinaryAppender.
func (h Header) AppendBinary(dst []byte) ([]byte, error) {
	b := Encode(h)
	return append(dst, b[:]...), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. h is left
// untouched when data does not decode.
func (h *Header) UnmarshalBinary(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*h = decoded
	return nil
}

func bit(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}
