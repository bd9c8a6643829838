package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/vita49/internal/cli/output"
	"firestige.xyz/vita49/pkg/vrt"
)

func TestDecodeFields_WeakTypes(t *testing.T) {
	f, err := decodeFields(map[string]interface{}{
		"type": 1,
		"cbit": "true",
		"ind1": "1",
		"tsi":  "UTC",
		"tsf":  3,
		"size": "0x1234",
	})
	require.NoError(t, err)
	assert.Equal(t, HeaderFields{Type: "1", CBit: true, Ind1: true, TSI: "UTC", TSF: "3", Size: 0x1234}, f)

	h, err := f.Build()
	require.NoError(t, err)
	assert.Equal(t, [vrt.HeaderSize]byte{0x1A, 0x70, 0x12, 0x34}, vrt.Encode(h))
}

func TestDecodeFields_UnknownKey(t *testing.T) {
	_, err := decodeFields(map[string]interface{}{"stream_id": 7})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid header fields")
}

func TestHeaderFields_BuildRejects(t *testing.T) {
	tests := []struct {
		name   string
		fields HeaderFields
		target error
	}{
		{"packet type code", HeaderFields{Type: "8"}, vrt.ErrInvalidEnumCode},
		{"packet type name", HeaderFields{Type: "Telemetry"}, vrt.ErrInvalidEnumCode},
		{"tsi", HeaderFields{TSI: "4"}, vrt.ErrInvalidEnumCode},
		{"tsf", HeaderFields{TSF: "Atomic"}, vrt.ErrInvalidEnumCode},
		{"count above 15", HeaderFields{Count: 16}, vrt.ErrOutOfRange},
		{"negative count", HeaderFields{Count: -1}, vrt.ErrOutOfRange},
		{"size above 16 bits", HeaderFields{Size: 0x10000}, vrt.ErrOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := tt.fields.Build()
			assert.ErrorIs(t, err, tt.target)
			assert.Equal(t, vrt.Header{}, h)
		})
	}
}

func TestApplySets(t *testing.T) {
	raw := map[string]interface{}{"count": 1}
	require.NoError(t, applySets(raw, []string{"count=7", " TSI = GPS "}))
	assert.Equal(t, map[string]interface{}{"count": "7", "tsi": "GPS"}, raw)

	assert.Error(t, applySets(raw, []string{"count"}))
	assert.Error(t, applySets(raw, []string{"=3"}))
}

func TestRunEncode(t *testing.T) {
	var buf bytes.Buffer
	err := runEncode(map[string]interface{}{"type": "Context", "count": "3"}, output.NewPrinter(&buf, output.FormatJSON, false))
	require.NoError(t, err)

	var v HeaderView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &v))
	assert.Equal(t, "40030000", v.Hex)
	assert.Equal(t, "Context", v.PacketType)
	assert.Equal(t, uint8(3), v.PacketCount)
}

func TestEncodeCommand_FromFile(t *testing.T) {
	t.Cleanup(func() {
		resetFlags(rootCmd.PersistentFlags())
		resetFlags(encodeCmd.Flags())
	})

	path := filepath.Join(t.TempDir(), "header.yaml")
	require.NoError(t, os.WriteFile(path, []byte("type: DataSID\ncbit: true\ntsf: 3\nsize: 64\ncount: 2\n"), 0o644))

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"encode", "--from", path, "--tsi", "GPS", "--set", "count=7", "-o", "json"})
	t.Cleanup(func() { rootCmd.SetOut(nil); rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())

	var v HeaderView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &v))
	// 0x18: DataSID with C set; 0xB7: GPS, FreeRunning, count 7.
	assert.Equal(t, "18b70040", v.Hex)
	assert.Equal(t, "GPS", v.TSI)
	assert.Equal(t, "FreeRunning", v.TSF)
	assert.Equal(t, uint8(7), v.PacketCount)
}
