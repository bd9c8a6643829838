package capture

import "firestige.xyz/vita49/pkg/vrt"

// continuity remembers the last packet count seen on each flow.
type continuity struct {
	last map[string]uint8
}

func newContinuity() *continuity {
	return &continuity{last: make(map[string]uint8)}
}

// Observe records count for flow and reports the count that was expected.
// The first packet of a flow never reports a gap.
func (c *continuity) Observe(flow string, count uint8) (expected uint8, gap bool) {
	prev, seen := c.last[flow]
	c.last[flow] = count
	if !seen {
		return count, false
	}
	expected = (prev + 1) & vrt.MaxPacketCount
	return expected, expected != count
}

func (c *continuity) Flows() int {
	return len(c.last)
}
