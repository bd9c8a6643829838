package vrt

import (
	"fmt"
	"strconv"
	"strings"
)

// PacketType is the 4-bit packet classification carried in bits 31-28.
type PacketType uint8

const (
	PacketTypeDataNoSID    PacketType = 0 // IF data, no stream identifier
	PacketTypeDataSID      PacketType = 1 // IF data with stream identifier
	PacketTypeExtDataNoSID PacketType = 2 // extension data, no stream identifier
	PacketTypeExtDataSID   PacketType = 3 // extension data with stream identifier
	PacketTypeContext      PacketType = 4
	PacketTypeExtContext   PacketType = 5
	PacketTypeControl      PacketType = 6
	PacketTypeExtControl   PacketType = 7
)

var packetTypeNames = [...]string{
	PacketTypeDataNoSID:    "DataNoSID",
	PacketTypeDataSID:      "DataSID",
	PacketTypeExtDataNoSID: "ExtDataNoSID",
	PacketTypeExtDataSID:   "ExtDataSID",
	PacketTypeContext:      "Context",
	PacketTypeExtContext:   "ExtContext",
	PacketTypeControl:      "Control",
	PacketTypeExtControl:   "ExtControl",
}

// PacketTypeFromCode maps a wire code to its PacketType.
func PacketTypeFromCode(code uint8) (PacketType, error) {
	if int(code) >= len(packetTypeNames) {
		return 0, &EnumCodeError{Field: "packet_type", Code: code}
	}
	return PacketType(code), nil
}

// ParsePacketType accepts a packet type name (case-insensitive) or its decimal code.
func ParsePacketType(s string) (PacketType, error) {
	idx, err := parseEnum("packet_type", s, packetTypeNames[:])
	return PacketType(idx), err
}

// Code returns the wire code.
func (t PacketType) Code() uint8 { return uint8(t) }

// Valid reports whether t is a defined packet type.
func (t PacketType) Valid() bool { return int(t) < len(packetTypeNames) }

func (t PacketType) String() string {
	if !t.Valid() {
		return "PacketType(" + strconv.Itoa(int(t)) + ")"
	}
	return packetTypeNames[t]
}

// IsData reports whether t is an IF data or extension data packet.
func (t PacketType) IsData() bool { return t <= PacketTypeExtDataSID }

// IsContext reports whether t is a context or extension context packet.
func (t PacketType) IsContext() bool {
	return t == PacketTypeContext || t == PacketTypeExtContext
}

// IsControl reports whether t is a control or extension control packet.
func (t PacketType) IsControl() bool {
	return t == PacketTypeControl || t == PacketTypeExtControl
}

// IsExtension reports whether t is one of the extension packet classes.
func (t PacketType) IsExtension() bool {
	switch t {
	case PacketTypeExtDataNoSID, PacketTypeExtDataSID, PacketTypeExtContext, PacketTypeExtControl:
		return true
	}
	return false
}

// HasStreamID reports whether packets of type t carry a stream identifier word.
// Only the two "no SID" data classes omit it.
func (t PacketType) HasStreamID() bool {
	return t.Valid() && t != PacketTypeDataNoSID && t != PacketTypeExtDataNoSID
}

// parseEnum resolves s against names by case-insensitive name or decimal code.
func parseEnum(field, s string, names []string) (uint8, error) {
	s = strings.TrimSpace(s)
	for i, name := range names {
		if strings.EqualFold(s, name) {
			return uint8(i), nil
		}
	}
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("vrt: unknown %s %q: %w", field, s, ErrInvalidEnumCode)
	}
	if int(n) >= len(names) {
		return 0, &EnumCodeError{Field: field, Code: uint8(n)}
	}
	return uint8(n), nil
}
