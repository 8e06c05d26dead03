package tlp

import (
	"encoding/binary"
	"math/bits"
)

// BeatBytes is the number of payload bytes a beat carries per time unit.
const BeatBytes = 16

// BeatDwords is the number of dword lanes in a beat.
const BeatDwords = BeatBytes / DwordLen

// NumBars is the number of BAR handler slots the bridge can address.
const NumBars = 7

// A Beat is one fixed-size chunk of packet bytes moved per time unit,
// together with its sideband information.
type Beat struct {
	// Payload bytes. Dword lane i occupies bytes [4i, 4i+4), big-endian
	// within the lane as on the TLP wire.
	Data [BeatBytes]byte

	// Keep marks which dword lanes carry meaningful bytes, one bit per
	// lane, lane 0 at bit 0.
	Keep uint8

	// StartOfPacket and Last frame the packet within the beat stream.
	StartOfPacket bool
	Last          bool

	// BarSel is the one-hot target handler select, one bit per BAR slot.
	BarSel uint8
}

// Dword returns the dword in the given lane.
func (b *Beat) Dword(lane int) uint32 {
	return binary.BigEndian.Uint32(b.Data[lane*DwordLen:])
}

// SetDword stores a dword into the given lane and marks the lane as kept.
func (b *Beat) SetDword(lane int, dw uint32) {
	binary.BigEndian.PutUint32(b.Data[lane*DwordLen:], dw)
	b.Keep |= 1 << lane
}

// LaneKept returns true if the lane carries meaningful bytes.
func (b *Beat) LaneKept(lane int) bool {
	return b.Keep&(1<<lane) != 0
}

// NumKept returns the number of kept dword lanes.
func (b *Beat) NumKept() int {
	return bits.OnesCount8(b.Keep & 0xf)
}

// BarIndex returns the index of the selected BAR handler, or -1 when no
// handler is selected.
func (b *Beat) BarIndex() int {
	if b.BarSel == 0 {
		return -1
	}
	return bits.TrailingZeros8(b.BarSel)
}

// Sideband encodes the 9-bit sideband tag: bit 0 is start-of-packet, bits
// [8:2] are the one-hot BAR select.
func (b *Beat) Sideband() uint16 {
	sb := uint16(b.BarSel&0x7f) << 2
	if b.StartOfPacket {
		sb |= 1
	}
	return sb
}

// SetSideband decodes the 9-bit sideband tag into the beat.
func (b *Beat) SetSideband(sb uint16) {
	b.StartOfPacket = sb&1 != 0
	b.BarSel = uint8(sb>>2) & 0x7f
}

// SegmentDwords packs a dword stream into beats, setting the keep masks,
// the start-of-packet flag on the first beat, and the last flag on the
// final beat. All beats carry the given BAR select.
func SegmentDwords(dwords []uint32, barIndex int) []Beat {
	if len(dwords) == 0 {
		return nil
	}

	numBeats := (len(dwords) + BeatDwords - 1) / BeatDwords
	beats := make([]Beat, numBeats)

	for i, dw := range dwords {
		beats[i/BeatDwords].SetDword(i%BeatDwords, dw)
	}

	for i := range beats {
		beats[i].BarSel = 1 << barIndex
	}
	beats[0].StartOfPacket = true
	beats[numBeats-1].Last = true

	return beats
}

// JoinBeats collects the kept dwords of a beat sequence back into a dword
// stream.
func JoinBeats(beats []Beat) []uint32 {
	var dwords []uint32

	for i := range beats {
		for lane := 0; lane < BeatDwords; lane++ {
			if beats[i].LaneKept(lane) {
				dwords = append(dwords, beats[i].Dword(lane))
			}
		}
	}

	return dwords
}
