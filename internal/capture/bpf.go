package capture

import (
	"fmt"

	"golang.org/x/net/bpf"
)

const (
	etherTypeIPv4 = 0x0800
	etherTypeIPv6 = 0x86DD
	etherTypeVLAN = 0x8100
	ipProtoUDP    = 17

	bpfAccept = 0xFFFF
	bpfReject = 0
)

// portFilter runs a classic BPF program over raw Ethernet frames.
type portFilter struct {
	vm *bpf.VM
}

// newPortFilter assembles a filter accepting unfragmented IPv4/UDP datagrams
// addressed to one of ports. IPv6 and 802.1Q frames are accepted unchecked and
// left to the decoded-path port check.
func newPortFilter(ports []uint16) (*portFilter, error) {
	prog, err := portFilterProgram(ports)
	if err != nil {
		return nil, err
	}
	vm, err := bpf.NewVM(prog)
	if err != nil {
		return nil, fmt.Errorf("failed to load BPF program: %w", err)
	}
	return &portFilter{vm: vm}, nil
}

func (f *portFilter) Match(frame []byte) bool {
	n, err := f.vm.Run(frame)
	return err == nil && n > 0
}

func portFilterProgram(ports []uint16) ([]bpf.Instruction, error) {
	if len(ports) == 0 {
		return nil, fmt.Errorf("port filter needs at least one port")
	}
	if len(ports) > MaxPorts {
		return nil, fmt.Errorf("port filter supports at most %d ports, got %d", MaxPorts, len(ports))
	}

	const portBase = 10
	reject := portBase + len(ports)
	accept := reject + 1
	skip := func(from, to int) uint8 { return uint8(to - from - 1) }

	prog := []bpf.Instruction{
		/* 0 */ bpf.LoadAbsolute{Off: 12, Size: 2},
		/* 1 */ bpf.JumpIf{Cond: bpf.JumpEqual, Val: etherTypeIPv6, SkipTrue: skip(1, accept)},
		/* 2 */ bpf.JumpIf{Cond: bpf.JumpEqual, Val: etherTypeVLAN, SkipTrue: skip(2, accept)},
		/* 3 */ bpf.JumpIf{Cond: bpf.JumpEqual, Val: etherTypeIPv4, SkipFalse: skip(3, reject)},
		/* 4 */ bpf.LoadAbsolute{Off: 23, Size: 1},
		/* 5 */ bpf.JumpIf{Cond: bpf.JumpEqual, Val: ipProtoUDP, SkipFalse: skip(5, reject)},
		/* 6 */ bpf.LoadAbsolute{Off: 20, Size: 2},
		/* 7 */ bpf.JumpIf{Cond: bpf.JumpBitsSet, Val: 0x1FFF, SkipTrue: skip(7, reject)},
		/* 8 */ bpf.LoadMemShift{Off: 14},
		/* 9 */ bpf.LoadIndirect{Off: 16, Size: 2},
	}
	for i, port := range ports {
		at := portBase + i
		prog = append(prog, bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(port), SkipTrue: skip(at, accept)})
	}
	prog = append(prog,
		bpf.RetConstant{Val: bpfReject},
		bpf.RetConstant{Val: bpfAccept},
	)
	return prog, nil
}
