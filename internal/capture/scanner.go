// Package capture scans offline pcap and pcapng files for VRT packets carried
// over UDP.
package capture

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"firestige.xyz/vita49/internal/log"
	"firestige.xyz/vita49/pkg/vrt"
)

// MaxPorts bounds the number of destination ports a scan may filter on.
const MaxPorts = 64

var (
	ErrTooManyPorts  = errors.New("capture: too many ports")
	ErrInvalidPort   = errors.New("capture: invalid port")
	ErrUnknownFormat = errors.New("capture: unknown capture format")
)

var pcapngMagic = []byte{0x0A, 0x0D, 0x0D, 0x0A}

type Options struct {
	// Ports restricts the scan to UDP datagrams sent to these ports. Empty means all.
	Ports []uint16
	// MaxPackets stops the scan after this many records. Zero means no limit.
	MaxPackets int
	// SkipErrors delivers failed decodes as records instead of aborting.
	SkipErrors bool
	// CheckContinuity flags packet count discontinuities per flow.
	CheckContinuity bool
}

// Record is one UDP datagram whose payload was handed to the VRT decoder.
type Record struct {
	Index      int // 1-based frame number within the capture
	Timestamp  time.Time
	Src        string
	Dst        string
	Header     vrt.Header
	PayloadLen int
	Err        error

	// Gap is set when Header's packet count is not the successor of the
	// previous count on the same flow. Expected holds the successor.
	Gap      bool
	Expected uint8
}

func (r Record) Flow() string {
	return r.Src + "->" + r.Dst
}

type Stats struct {
	Frames   int `json:"frames" yaml:"frames"`
	Filtered int `json:"filtered" yaml:"filtered"`
	UDP      int `json:"udp" yaml:"udp"`
	Decoded  int `json:"decoded" yaml:"decoded"`
	Errors   int `json:"errors" yaml:"errors"`
	Gaps     int `json:"gaps" yaml:"gaps"`
	Flows    int `json:"flows" yaml:"flows"`
}

type Scanner struct {
	opts   Options
	ports  map[uint16]struct{}
	filter *portFilter
	logger log.Logger
}

func NewScanner(opts Options) (*Scanner, error) {
	if len(opts.Ports) > MaxPorts {
		return nil, fmt.Errorf("%w: %d given, at most %d", ErrTooManyPorts, len(opts.Ports), MaxPorts)
	}
	if opts.MaxPackets < 0 {
		opts.MaxPackets = 0
	}

	s := &Scanner{
		opts:   opts,
		logger: log.GetLogger().WithField("component", "scanner"),
	}
	if len(opts.Ports) > 0 {
		s.ports = make(map[uint16]struct{}, len(opts.Ports))
		for _, p := range opts.Ports {
			if p == 0 {
				return nil, fmt.Errorf("%w: 0", ErrInvalidPort)
			}
			s.ports[p] = struct{}{}
		}
		filter, err := newPortFilter(opts.Ports)
		if err != nil {
			return nil, err
		}
		s.filter = filter
	}
	return s, nil
}

type packetReader interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

func openReader(r io.Reader) (packetReader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(pcapngMagic))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, err)
	}
	if bytes.Equal(magic, pcapngMagic) {
		ng, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, fmt.Errorf("failed to open pcapng: %w", err)
		}
		return ng, nil
	}
	pr, err := pcapgo.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, err)
	}
	return pr, nil
}

// Scan reads every frame from r and calls fn for each VRT record found.
// A non-nil error from fn stops the scan and is returned as is.
func (s *Scanner) Scan(ctx context.Context, r io.Reader, fn func(Record) error) (Stats, error) {
	var stats Stats

	reader, err := openReader(r)
	if err != nil {
		return stats, err
	}
	linkType := reader.LinkType()
	useFilter := s.filter != nil && linkType == layers.LinkTypeEthernet

	var cont *continuity
	if s.opts.CheckContinuity {
		cont = newContinuity()
	}

	delivered := 0
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if s.opts.MaxPackets > 0 && delivered >= s.opts.MaxPackets {
			break
		}

		data, ci, err := reader.ReadPacketData()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("failed to read frame %d: %w", stats.Frames+1, err)
		}
		stats.Frames++

		if useFilter && !s.filter.Match(data) {
			stats.Filtered++
			continue
		}

		rec, ok := s.extract(data, linkType)
		if !ok {
			stats.Filtered++
			continue
		}
		stats.UDP++
		rec.Index = stats.Frames
		rec.Timestamp = ci.Timestamp

		if rec.Err != nil {
			stats.Errors++
			if !s.opts.SkipErrors {
				return stats, fmt.Errorf("frame %d (%s): %w", rec.Index, rec.Flow(), rec.Err)
			}
			s.logger.WithFields(map[string]interface{}{
				"frame": rec.Index,
				"flow":  rec.Flow(),
			}).WithError(rec.Err).Debug("vrt decode failed")
		} else {
			stats.Decoded++
			if cont != nil {
				rec.Expected, rec.Gap = cont.Observe(rec.Flow(), rec.Header.PacketCount())
				if rec.Gap {
					stats.Gaps++
					s.logger.Debugf("packet count gap on %s at frame %d: expected %d, got %d",
						rec.Flow(), rec.Index, rec.Expected, rec.Header.PacketCount())
				}
			}
		}

		delivered++
		if err := fn(rec); err != nil {
			return stats, err
		}
	}

	if cont != nil {
		stats.Flows = cont.Flows()
	}
	s.logger.WithFields(map[string]interface{}{
		"frames":  stats.Frames,
		"decoded": stats.Decoded,
		"errors":  stats.Errors,
		"gaps":    stats.Gaps,
	}).Info("scan finished")
	return stats, nil
}

// extract decodes the frame down to UDP and runs the VRT header decoder over
// the payload. ok is false when the frame carries no matching UDP datagram.
func (s *Scanner) extract(data []byte, linkType layers.LinkType) (rec Record, ok bool) {
	packet := gopacket.NewPacket(data, linkType, gopacket.DecodeOptions{Lazy: true, NoCopy: true})

	udpLayer := packet.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		return rec, false
	}
	udp := udpLayer.(*layers.UDP)
	if s.ports != nil {
		if _, want := s.ports[uint16(udp.DstPort)]; !want {
			return rec, false
		}
	}

	var srcHost, dstHost string
	if nl := packet.NetworkLayer(); nl != nil {
		flow := nl.NetworkFlow()
		srcHost, dstHost = flow.Src().String(), flow.Dst().String()
	}
	rec.Src = net.JoinHostPort(srcHost, strconv.Itoa(int(udp.SrcPort)))
	rec.Dst = net.JoinHostPort(dstHost, strconv.Itoa(int(udp.DstPort)))
	rec.PayloadLen = len(udp.Payload)
	rec.Header, rec.Err = vrt.Decode(udp.Payload)
	return rec, true
}
