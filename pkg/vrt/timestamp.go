package vrt

import "strconv"

// IntegerTimestampMode is the 2-bit TSI field: how the integer-seconds
// timestamp word that may follow the header is interpreted.
type IntegerTimestampMode uint8

const (
	TSINone  IntegerTimestampMode = 0
	TSIUTC   IntegerTimestampMode = 1
	TSIGPS   IntegerTimestampMode = 2
	TSIOther IntegerTimestampMode = 3
)

var tsiNames = [...]string{
	TSINone:  "None",
	TSIUTC:   "UTC",
	TSIGPS:   "GPS",
	TSIOther: "Other",
}

// IntegerTimestampModeFromCode maps a wire code to its IntegerTimestampMode.
func IntegerTimestampModeFromCode(code uint8) (IntegerTimestampMode, error) {
	if int(code) >= len(tsiNames) {
		return 0, &EnumCodeError{Field: "tsi", Code: code}
	}
	return IntegerTimestampMode(code), nil
}

// ParseIntegerTimestampMode accepts a mode name (case-insensitive) or its decimal code.
func ParseIntegerTimestampMode(s string) (IntegerTimestampMode, error) {
	idx, err := parseEnum("tsi", s, tsiNames[:])
	return IntegerTimestampMode(idx), err
}

func (m IntegerTimestampMode) Code() uint8 { return uint8(m) }

func (m IntegerTimestampMode) Valid() bool { return int(m) < len(tsiNames) }

func (m IntegerTimestampMode) String() string {
	if !m.Valid() {
		return "IntegerTimestampMode(" + strconv.Itoa(int(m)) + ")"
	}
	return tsiNames[m]
}

// FractionalTimestampMode is the 2-bit TSF field: how the fractional
// timestamp words that may follow the header are interpreted.
type FractionalTimestampMode uint8

const (
	TSFNone        FractionalTimestampMode = 0
	TSFSampleCount FractionalTimestampMode = 1
	TSFRealTime    FractionalTimestampMode = 2 // picoseconds
	TSFFreeRunning FractionalTimestampMode = 3
)

var tsfNames = [...]string{
	TSFNone:        "None",
	TSFSampleCount: "SampleCount",
	TSFRealTime:    "RealTime",
	TSFFreeRunning: "FreeRunning",
}

// FractionalTimestampModeFromCode maps a wire code to its FractionalTimestampMode.
func FractionalTimestampModeFromCode(code uint8) (FractionalTimestampMode, error) {
	if int(code) >= len(tsfNames) {
		return 0, &EnumCodeError{Field: "tsf", Code: code}
	}
	return FractionalTimestampMode(code), nil
}

// ParseFractionalTimestampMode accepts a mode name (case-insensitive) or its decimal code.
func ParseFractionalTimestampMode(s string) (FractionalTimestampMode, error) {
	idx, err := parseEnum("tsf", s, tsfNames[:])
	return FractionalTimestampMode(idx), err
}

func (m FractionalTimestampMode) Code() uint8 { return uint8(m) }

func (m FractionalTimestampMode) Valid() bool { return int(m) < len(tsfNames) }

func (m FractionalTimestampMode) String() string {
	if !m.Valid() {
		return "FractionalTimestampMode(" + strconv.Itoa(int(m)) + ")"
	}
	return tsfNames[m]
}
