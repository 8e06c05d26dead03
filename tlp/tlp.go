// Package tlp encodes and decodes PCIe Transaction Layer Packet headers and
// the fixed-width beats that carry them.
package tlp

import (
	"encoding/binary"
	"fmt"
)

// DwordLen is the number of bytes in a dword, the unit of data and address
// granularity in a TLP.
const DwordLen = 4

// MaxReqDwords is the largest data payload a single request can carry.
const MaxReqDwords = 1024

const (
	fmt3DWNoData   = 0b000
	fmt4DWNoData   = 0b001
	fmt3DWWithData = 0b010
	fmt4DWWithData = 0b011
)

// Type is the combined format and type field in the first header dword.
type Type uint8

// The TLP types that the bridge handles. Everything else is dropped.
const (
	// MRd3 is a Memory Read Request with a 3-dword header.
	MRd3 Type = (fmt3DWNoData << 5) | 0b00000
	// MRd4 is a Memory Read Request with a 4-dword header.
	MRd4 Type = (fmt4DWNoData << 5) | 0b00000
	// MWr3 is a Memory Write Request with a 3-dword header.
	MWr3 Type = (fmt3DWWithData << 5) | 0b00000
	// MWr4 is a Memory Write Request with a 4-dword header.
	MWr4 Type = (fmt4DWWithData << 5) | 0b00000
	// CplD is a Completion with Data.
	CplD Type = (fmt3DWWithData << 5) | 0b01010
)

// IsMemRead returns true for memory read request types.
func (t Type) IsMemRead() bool {
	return t == MRd3 || t == MRd4
}

// IsMemWrite returns true for memory write request types.
func (t Type) IsMemWrite() bool {
	return t == MWr3 || t == MWr4
}

// Is4DW returns true if the header of the type occupies 4 dwords.
func (t Type) Is4DW() bool {
	return t>>5 == fmt4DWNoData || t>>5 == fmt4DWWithData
}

// HeaderDwords returns the number of header dwords for the type.
func (t Type) HeaderDwords() int {
	if t.Is4DW() {
		return 4
	}
	return 3
}

// DeviceID identifies a device on the PCIe fabric.
type DeviceID struct {
	Bus      uint8
	Device   uint8
	Function uint8
}

// NewDeviceID builds a DeviceID from its encoded uint16 value.
func NewDeviceID(value uint16) (id DeviceID) {
	id.FromUint16(value)
	return id
}

// ToUint16 encodes the DeviceID into a uint16 value.
func (id DeviceID) ToUint16() uint16 {
	return uint16(int(id.Bus)<<8 | int(id.Device)<<3 | int(id.Function))
}

// FromUint16 assigns the DeviceID from an encoded uint16 value.
func (id *DeviceID) FromUint16(value uint16) {
	id.Bus = uint8(value >> 8)
	id.Device = uint8((value >> 3) & 0x1f)
	id.Function = uint8(value & 0x07)
}

func (id DeviceID) String() string {
	return fmt.Sprintf("%02x:%02x.%01x", id.Bus, id.Device, id.Function)
}

// Header is the first header dword, common to all TLPs. The bridge only
// interprets the fields it needs; processing hints and ordering attributes
// pass through as zero.
type Header struct {
	Type Type

	// Traffic class (3b).
	TC uint8

	// TLP digest present (1b) and poisoned (1b).
	TD bool
	EP bool

	// Address type (2b).
	AT uint8

	// Encoded data payload length in dwords (10b). 0 encodes 1024.
	Length int
}

// EncodedLength converts a dword count (1..1024) to the 10-bit length field.
func EncodedLength(dwords int) int {
	return dwords & 0x3ff
}

// DecodedLength converts the 10-bit length field to a dword count. The value
// 0 encodes 1024 dwords.
func (h Header) DecodedLength() int {
	if h.Length == 0 {
		return MaxReqDwords
	}
	return h.Length
}

func boolBit(value bool, pos int) int {
	if value {
		return 1 << pos
	}
	return 0
}

// ToDword encodes the common header dword.
func (h Header) ToDword() uint32 {
	var dw [DwordLen]byte
	dw[0] = byte(h.Type)
	dw[1] = byte(h.TC&0x7) << 4
	dw[2] = byte(
		boolBit(h.TD, 7) |
			boolBit(h.EP, 6) |
			(int(h.AT&0x3) << 2) |
			((h.Length >> 8) & 0x3))
	dw[3] = byte(h.Length & 0xff)

	return binary.BigEndian.Uint32(dw[:])
}

// HeaderFromDword decodes the common header dword.
func HeaderFromDword(dword uint32) Header {
	var dw [DwordLen]byte
	binary.BigEndian.PutUint32(dw[:], dword)

	return Header{
		Type:   Type(dw[0]),
		TC:     (dw[1] >> 4) & 0x7,
		TD:     dw[2]>>7&1 > 0,
		EP:     dw[2]>>6&1 > 0,
		AT:     (dw[2] >> 2) & 0x3,
		Length: int(dw[2]&0x3)<<8 | int(dw[3]),
	}
}

// RequestHeader is the second header dword of memory request TLPs.
type RequestHeader struct {
	Header

	ReqID DeviceID
	Tag   uint8

	// First and last dword byte enables (4b each).
	FirstBE uint8
	LastBE  uint8
}

// ToDwords encodes a memory request header, excluding the address dwords.
func (h RequestHeader) ToDwords() [2]uint32 {
	var dw [DwordLen]byte
	binary.BigEndian.PutUint16(dw[0:2], h.ReqID.ToUint16())
	dw[2] = h.Tag
	dw[3] = h.LastBE<<4 | h.FirstBE&0xf

	return [2]uint32{h.Header.ToDword(), binary.BigEndian.Uint32(dw[:])}
}

// RequestHeaderFromDwords decodes the first two dwords of a memory request.
func RequestHeaderFromDwords(dw0, dw1 uint32) RequestHeader {
	var dw [DwordLen]byte
	binary.BigEndian.PutUint32(dw[:], dw1)

	return RequestHeader{
		Header:  HeaderFromDword(dw0),
		ReqID:   NewDeviceID(binary.BigEndian.Uint16(dw[0:2])),
		Tag:     dw[2],
		FirstBE: dw[3] & 0xf,
		LastBE:  dw[3] >> 4,
	}
}

// AddressDword returns the dword lane, counted from the start of the header,
// that carries the low 32 address bits: lane 2 for 3DW headers, lane 3 for
// 4DW headers.
func (h RequestHeader) AddressDword() int {
	return h.Type.HeaderDwords() - 1
}

// CplHeader is the 3-dword header of a completion TLP.
type CplHeader struct {
	Header

	// Completer ID.
	CplID DeviceID

	// Byte count: the number of bytes left for transmission, including the
	// bytes in this packet (12b).
	ByteCount int

	// Completion status (3b). The bridge only produces successful
	// completions.
	Status uint8

	// Requester ID and tag echoed from the request.
	ReqID DeviceID
	Tag   uint8

	// Lower address bits of the first byte in this completion (7b).
	LowerAddress uint8
}

// ToDwords encodes the completion header.
func (h CplHeader) ToDwords() [3]uint32 {
	var dw1 [DwordLen]byte
	binary.BigEndian.PutUint16(dw1[0:2], h.CplID.ToUint16())
	dw1[2] = byte((int(h.Status&0x7) << 5) | (h.ByteCount>>8)&0xf)
	dw1[3] = byte(h.ByteCount & 0xff)

	var dw2 [DwordLen]byte
	binary.BigEndian.PutUint16(dw2[0:2], h.ReqID.ToUint16())
	dw2[2] = h.Tag
	dw2[3] = h.LowerAddress & 0x7f

	return [3]uint32{
		h.Header.ToDword(),
		binary.BigEndian.Uint32(dw1[:]),
		binary.BigEndian.Uint32(dw2[:]),
	}
}

// CplHeaderFromDwords decodes a completion header.
func CplHeaderFromDwords(dw0, dw1, dw2 uint32) CplHeader {
	var b1, b2 [DwordLen]byte
	binary.BigEndian.PutUint32(b1[:], dw1)
	binary.BigEndian.PutUint32(b2[:], dw2)

	return CplHeader{
		Header:       HeaderFromDword(dw0),
		CplID:        NewDeviceID(binary.BigEndian.Uint16(b1[0:2])),
		Status:       b1[2] >> 5,
		ByteCount:    int(b1[2]&0xf)<<8 | int(b1[3]),
		ReqID:        NewDeviceID(binary.BigEndian.Uint16(b2[0:2])),
		Tag:          b2[2],
		LowerAddress: b2[3] & 0x7f,
	}
}

// CplByteCount calculates the completion byte count for a read of the given
// dword count with the given byte enables, following the PCIe byte-count
// rules for contiguous enables.
func CplByteCount(firstBE, lastBE uint8, dwords int) int {
	if dwords == 1 {
		return singleDwordByteCount(firstBE)
	}

	count := dwords * DwordLen
	count -= trailingDisabled(firstBE)
	count -= leadingDisabled(lastBE)

	return count
}

func singleDwordByteCount(firstBE uint8) int {
	if firstBE == 0 {
		return 1
	}

	return DwordLen - trailingDisabled(firstBE) - leadingDisabled(firstBE)
}

func trailingDisabled(be uint8) int {
	n := 0
	for i := 0; i < DwordLen; i++ {
		if be&(1<<i) != 0 {
			break
		}
		n++
	}
	return n
}

func leadingDisabled(be uint8) int {
	n := 0
	for i := DwordLen - 1; i >= 0; i-- {
		if be&(1<<i) != 0 {
			break
		}
		n++
	}
	return n
}

// CplLowerAddress calculates the 7-bit lower-address field from the address
// of the first enabled byte of a completion.
func CplLowerAddress(firstBE uint8, addr uint32) uint8 {
	low := uint8(addr) & 0x7c

	if firstBE == 0 {
		return low
	}

	return low + uint8(trailingDisabled(firstBE))
}
