package cmd

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"firestige.xyz/vita49/internal/capture"
	"firestige.xyz/vita49/pkg/vrt"
)

// HeaderView is the printable form of a decoded header.
type HeaderView struct {
	Input       string `json:"input,omitempty" yaml:"input,omitempty"`
	Hex         string `json:"hex,omitempty" yaml:"hex,omitempty"`
	PacketType  string `json:"packet_type,omitempty" yaml:"packet_type,omitempty"`
	Class       string `json:"class,omitempty" yaml:"class,omitempty"`
	HasStreamID bool   `json:"has_stream_id" yaml:"has_stream_id"`
	CBit        bool   `json:"cbit" yaml:"cbit"`
	Indicator0  bool   `json:"ind0" yaml:"ind0"`
	Indicator1  bool   `json:"ind1" yaml:"ind1"`
	Indicator2  bool   `json:"ind2" yaml:"ind2"`
	TSI         string `json:"tsi,omitempty" yaml:"tsi,omitempty"`
	TSF         string `json:"tsf,omitempty" yaml:"tsf,omitempty"`
	PacketCount uint8  `json:"packet_count" yaml:"packet_count"`
	SizeWords   uint16 `json:"packet_size" yaml:"packet_size"`
	SizeBytes   int    `json:"packet_size_bytes" yaml:"packet_size_bytes"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
}

func newHeaderView(h vrt.Header) HeaderView {
	wire := vrt.Encode(h)
	return HeaderView{
		Hex:         hex.EncodeToString(wire[:]),
		PacketType:  h.PacketType().String(),
		Class:       packetClass(h.PacketType()),
		HasStreamID: h.PacketType().HasStreamID(),
		CBit:        h.CBit(),
		Indicator0:  h.Indicator0(),
		Indicator1:  h.Indicator1(),
		Indicator2:  h.Indicator2(),
		TSI:         h.TSI().String(),
		TSF:         h.TSF().String(),
		PacketCount: h.PacketCount(),
		SizeWords:   h.PacketSize(),
		SizeBytes:   h.PacketSizeBytes(),
	}
}

func packetClass(t vrt.PacketType) string {
	class := "data"
	switch {
	case t.IsContext():
		class = "context"
	case t.IsControl():
		class = "control"
	}
	if t.IsExtension() {
		class = "ext-" + class
	}
	return class
}

// Headers and Rows render a single header as a field/value listing.
func (v HeaderView) Headers() []string {
	return []string{"Field", "Value"}
}

func (v HeaderView) Rows() [][]string {
	rows := [][]string{
		{"hex", v.Hex},
		{"packet_type", v.PacketType},
		{"class", v.Class},
		{"stream_id", yesNo(v.HasStreamID)},
		{"cbit", yesNo(v.CBit)},
		{"indicators", indicators(v.Indicator0, v.Indicator1, v.Indicator2)},
		{"tsi", v.TSI},
		{"tsf", v.TSF},
		{"packet_count", strconv.Itoa(int(v.PacketCount))},
		{"packet_size", fmt.Sprintf("%d words (%d bytes)", v.SizeWords, v.SizeBytes)},
	}
	if v.Input != "" {
		rows = append([][]string{{"input", v.Input}}, rows...)
	}
	return rows
}

// HeaderList renders several headers, one per row.
type HeaderList []HeaderView

func (l HeaderList) Headers() []string {
	return []string{"Input", "Type", "C", "Ind", "TSI", "TSF", "Count", "Size", "Error"}
}

func (l HeaderList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, v := range l {
		if v.Error != "" {
			rows = append(rows, []string{v.Input, "-", "-", "-", "-", "-", "-", "-", v.Error})
			continue
		}
		rows = append(rows, []string{
			v.Input,
			v.PacketType,
			bitString(v.CBit),
			indicators(v.Indicator0, v.Indicator1, v.Indicator2),
			v.TSI,
			v.TSF,
			strconv.Itoa(int(v.PacketCount)),
			strconv.Itoa(int(v.SizeWords)),
			"",
		})
	}
	return rows
}

// RecordView is one scanned datagram.
type RecordView struct {
	Frame     int        `json:"frame" yaml:"frame"`
	Timestamp string     `json:"timestamp" yaml:"timestamp"`
	Src       string     `json:"src" yaml:"src"`
	Dst       string     `json:"dst" yaml:"dst"`
	Payload   int        `json:"payload_len" yaml:"payload_len"`
	Header    HeaderView `json:"header" yaml:"header"`
	Gap       string     `json:"gap,omitempty" yaml:"gap,omitempty"`
}

const timestampLayout = "2006-01-02T15:04:05.000000Z07:00"

func newRecordView(rec capture.Record) RecordView {
	v := RecordView{
		Frame:     rec.Index,
		Timestamp: rec.Timestamp.UTC().Format(timestampLayout),
		Src:       rec.Src,
		Dst:       rec.Dst,
		Payload:   rec.PayloadLen,
	}
	if rec.Err != nil {
		v.Header = HeaderView{Error: rec.Err.Error()}
	} else {
		v.Header = newHeaderView(rec.Header)
	}
	if rec.Gap {
		v.Gap = fmt.Sprintf("expected %d, got %d", rec.Expected, rec.Header.PacketCount())
	}
	return v
}

type RecordList []RecordView

func (l RecordList) Headers() []string {
	return []string{"Frame", "Time", "Flow", "Type", "TSI", "TSF", "Count", "Size", "Note"}
}

func (l RecordList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, r := range l {
		flow := r.Src + " -> " + r.Dst
		if r.Header.Error != "" {
			rows = append(rows, []string{strconv.Itoa(r.Frame), r.Timestamp, flow, "-", "-", "-", "-", "-", r.Header.Error})
			continue
		}
		note := ""
		if r.Gap != "" {
			note = "gap: " + r.Gap
		}
		rows = append(rows, []string{
			strconv.Itoa(r.Frame),
			r.Timestamp,
			flow,
			r.Header.PacketType,
			r.Header.TSI,
			r.Header.TSF,
			strconv.Itoa(int(r.Header.PacketCount)),
			strconv.Itoa(int(r.Header.SizeWords)),
			note,
		})
	}
	return rows
}

// ScanReport is the structured output of a scan.
type ScanReport struct {
	Records RecordList    `json:"records" yaml:"records"`
	Stats   capture.Stats `json:"stats" yaml:"stats"`
}

func statsPairs(s capture.Stats) [][2]string {
	return [][2]string{
		{"frames", strconv.Itoa(s.Frames)},
		{"filtered", strconv.Itoa(s.Filtered)},
		{"udp", strconv.Itoa(s.UDP)},
		{"decoded", strconv.Itoa(s.Decoded)},
		{"errors", strconv.Itoa(s.Errors)},
		{"gaps", strconv.Itoa(s.Gaps)},
		{"flows", strconv.Itoa(s.Flows)},
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func bitString(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func indicators(i0, i1, i2 bool) string {
	return bitString(i0) + bitString(i1) + bitString(i2)
}
