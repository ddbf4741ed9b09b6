package media

// Packet is one unit of compressed data read from a Source.
type Packet struct {
	StreamIndex int
	Data        []byte

	release  func()
	released bool
}

// NewPacket wraps data for streamIndex. release, if non-nil, runs on the
// first call to Release.
func NewPacket(streamIndex int, data []byte, release func()) *Packet {
	return &Packet{
		StreamIndex: streamIndex,
		Data:        data,
		release:     release,
	}
}

// Release hands the packet buffer back to its source. Further calls are no-ops.
func (p *Packet) Release() {
	if p == nil || p.released {
		return
	}
	p.released = true
	p.Data = nil
	if p.release != nil {
		p.release()
	}
}

// Released reports whether Release has been called.
func (p *Packet) Released() bool {
	return p != nil && p.released
}
