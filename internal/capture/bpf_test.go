package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/bpf"
)

func TestPortFilterProgram(t *testing.T) {
	prog, err := portFilterProgram([]uint16{4991, 4992, 4993})
	require.NoError(t, err)
	require.Len(t, prog, 15)

	assert.Equal(t, bpf.RetConstant{Val: bpfReject}, prog[13])
	assert.Equal(t, bpf.RetConstant{Val: bpfAccept}, prog[14])
	// The first port test jumps over the remaining port tests and the reject.
	assert.Equal(t, bpf.JumpIf{Cond: bpf.JumpEqual, Val: 4991, SkipTrue: 3}, prog[10])
	assert.Equal(t, bpf.JumpIf{Cond: bpf.JumpEqual, Val: 4993, SkipTrue: 1}, prog[12])

	_, err = bpf.Assemble(prog)
	assert.NoError(t, err)
}

func TestPortFilterProgram_Limits(t *testing.T) {
	_, err := portFilterProgram(nil)
	assert.Error(t, err)

	_, err = portFilterProgram(make([]uint16, MaxPorts+1))
	assert.Error(t, err)

	full := make([]uint16, MaxPorts)
	for i := range full {
		full[i] = uint16(40000 + i)
	}
	f, err := newPortFilter(full)
	require.NoError(t, err)
	assert.NotNil(t, f)
}

func TestPortFilter_Match(t *testing.T) {
	f, err := newPortFilter([]uint16{4991})
	require.NoError(t, err)

	tests := []struct {
		name  string
		frame []byte
		want  bool
	}{
		{"listed port", udpFrame(t, 5000, 4991, vrtPayload(0x10000001)), true},
		{"other port", udpFrame(t, 5000, 4992, vrtPayload(0x10000001)), false},
		{"source port only", udpFrame(t, 4991, 5000, vrtPayload(0x10000001)), false},
		{"ipv6 passes to slow path", udp6Frame(t, 1234, vrtPayload(0x10000001)), true},
		{"non-first fragment", fragmentFrame(t), false},
		{"arp", arpFrame(t), false},
		{"runt", []byte{0x00, 0x01}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Match(tt.frame))
		})
	}
}
