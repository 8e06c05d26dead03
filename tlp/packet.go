package tlp

// MemRead describes a decoded memory read request.
type MemRead struct {
	RequestHeader
	Address uint64
}

// MemWrite describes a decoded memory write request.
type MemWrite struct {
	RequestHeader
	Address uint64
	Data    []uint32
}

// BuildMemRead encodes a memory read request into a dword stream. Addresses
// above 4 GiB use the 4-dword header class.
func BuildMemRead(
	reqID DeviceID,
	tag uint8,
	addr uint64,
	dwords int,
) []uint32 {
	hdr := RequestHeader{
		ReqID: reqID,
		Tag:   tag,
	}
	hdr.Type = MRd3
	if addr > 0xffffffff {
		hdr.Type = MRd4
	}
	hdr.Length = EncodedLength(dwords)
	hdr.FirstBE = 0xf
	if dwords > 1 {
		hdr.LastBE = 0xf
	}

	return appendAddress(hdr, addr, nil)
}

// BuildMemWrite encodes a memory write request into a dword stream.
func BuildMemWrite(
	reqID DeviceID,
	addr uint64,
	data []uint32,
	firstBE, lastBE uint8,
) []uint32 {
	hdr := RequestHeader{
		ReqID:   reqID,
		FirstBE: firstBE,
		LastBE:  lastBE,
	}
	hdr.Type = MWr3
	if addr > 0xffffffff {
		hdr.Type = MWr4
	}
	hdr.Length = EncodedLength(len(data))

	return appendAddress(hdr, addr, data)
}

func appendAddress(hdr RequestHeader, addr uint64, data []uint32) []uint32 {
	hdrDW := hdr.ToDwords()
	out := []uint32{hdrDW[0], hdrDW[1]}

	if hdr.Type.Is4DW() {
		out = append(out, uint32(addr>>32))
	}
	// The two low address bits are reserved on the wire.
	out = append(out, uint32(addr)&0xfffffffc)

	return append(out, data...)
}

// ParseMemRead decodes a memory read request from a dword stream.
func ParseMemRead(dwords []uint32) MemRead {
	hdr := RequestHeaderFromDwords(dwords[0], dwords[1])

	return MemRead{
		RequestHeader: hdr,
		Address:       parseAddress(hdr, dwords),
	}
}

// ParseMemWrite decodes a memory write request from a dword stream.
func ParseMemWrite(dwords []uint32) MemWrite {
	hdr := RequestHeaderFromDwords(dwords[0], dwords[1])

	return MemWrite{
		RequestHeader: hdr,
		Address:       parseAddress(hdr, dwords),
		Data:          dwords[hdr.Type.HeaderDwords():],
	}
}

func parseAddress(hdr RequestHeader, dwords []uint32) uint64 {
	if hdr.Type.Is4DW() {
		return uint64(dwords[2])<<32 | uint64(dwords[3]&0xfffffffc)
	}
	return uint64(dwords[2] & 0xfffffffc)
}
