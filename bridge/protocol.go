// Package bridge defines the messages that flow between the bridge
// components and the BAR handler contract.
package bridge

import (
	"github.com/fabriclab/tlpbridge/sim"
	"github.com/fabriclab/tlpbridge/tlp"
)

// A BeatMsg carries one transport beat.
type BeatMsg struct {
	sim.MsgMeta

	Beat tlp.Beat
}

// Meta returns the meta data of the message.
func (m *BeatMsg) Meta() *sim.MsgMeta {
	return &m.MsgMeta
}

// Clone returns a copy of the message with a different ID.
func (m *BeatMsg) Clone() sim.Msg {
	cloneMsg := *m
	cloneMsg.ID = sim.GetIDGenerator().Generate()

	return &cloneMsg
}

// BeatMsgBuilder can build beat messages.
type BeatMsgBuilder struct {
	src, dst sim.RemotePort
	beat     tlp.Beat
}

// WithSrc sets the source of the message to build.
func (b BeatMsgBuilder) WithSrc(src sim.RemotePort) BeatMsgBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the message to build.
func (b BeatMsgBuilder) WithDst(dst sim.RemotePort) BeatMsgBuilder {
	b.dst = dst
	return b
}

// WithBeat sets the beat that the message carries.
func (b BeatMsgBuilder) WithBeat(beat tlp.Beat) BeatMsgBuilder {
	b.beat = beat
	return b
}

// Build creates a new BeatMsg.
func (b BeatMsgBuilder) Build() *BeatMsg {
	m := &BeatMsg{}
	m.ID = sim.GetIDGenerator().Generate()
	m.Src = b.src
	m.Dst = b.dst
	m.TrafficBytes = tlp.BeatBytes
	m.Beat = b.beat

	return m
}

// A CplBeat accumulates up to 4 completion dwords. The header fields travel
// as sideband next to the data lanes; the transport below the bridge
// performs the final byte packing.
type CplBeat struct {
	// Header is valid only on the first beat of a completion packet.
	Header    tlp.CplHeader
	HasHeader bool

	Data [tlp.BeatDwords]uint32
	Keep uint8
	Last bool
}

// SetDword stores a completion dword into the given lane.
func (b *CplBeat) SetDword(lane int, dw uint32) {
	b.Data[lane] = dw
	b.Keep |= 1 << lane
}

// NumKept returns the number of valid data lanes.
func (b *CplBeat) NumKept() int {
	n := 0
	for lane := 0; lane < tlp.BeatDwords; lane++ {
		if b.Keep&(1<<lane) != 0 {
			n++
		}
	}
	return n
}

// A CplBeatMsg carries one completion beat toward the transport.
type CplBeatMsg struct {
	sim.MsgMeta

	Beat CplBeat
}

// Meta returns the meta data of the message.
func (m *CplBeatMsg) Meta() *sim.MsgMeta {
	return &m.MsgMeta
}

// Clone returns a copy of the message with a different ID.
func (m *CplBeatMsg) Clone() sim.Msg {
	cloneMsg := *m
	cloneMsg.ID = sim.GetIDGenerator().Generate()

	return &cloneMsg
}

// CplBeatMsgBuilder can build completion beat messages.
type CplBeatMsgBuilder struct {
	src, dst sim.RemotePort
	beat     CplBeat
}

// WithSrc sets the source of the message to build.
func (b CplBeatMsgBuilder) WithSrc(src sim.RemotePort) CplBeatMsgBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the message to build.
func (b CplBeatMsgBuilder) WithDst(dst sim.RemotePort) CplBeatMsgBuilder {
	b.dst = dst
	return b
}

// WithBeat sets the completion beat that the message carries.
func (b CplBeatMsgBuilder) WithBeat(beat CplBeat) CplBeatMsgBuilder {
	b.beat = beat
	return b
}

// Build creates a new CplBeatMsg.
func (b CplBeatMsgBuilder) Build() *CplBeatMsg {
	m := &CplBeatMsg{}
	m.ID = sim.GetIDGenerator().Generate()
	m.Src = b.src
	m.Dst = b.dst
	m.TrafficBytes = tlp.BeatBytes
	m.Beat = b.beat

	return m
}

// A BarWriteMsg is one write operation, one dword at a time, toward a BAR
// handler. Handlers consume it immediately; no response is produced.
type BarWriteMsg struct {
	sim.MsgMeta

	BarIndex   int
	Address    uint32
	ByteEnable uint8
	Data       uint32
}

// Meta returns the meta data of the message.
func (m *BarWriteMsg) Meta() *sim.MsgMeta {
	return &m.MsgMeta
}

// Clone returns a copy of the message with a different ID.
func (m *BarWriteMsg) Clone() sim.Msg {
	cloneMsg := *m
	cloneMsg.ID = sim.GetIDGenerator().Generate()

	return &cloneMsg
}

// BarWriteMsgBuilder can build BAR write operations.
type BarWriteMsgBuilder struct {
	src, dst   sim.RemotePort
	barIndex   int
	address    uint32
	byteEnable uint8
	data       uint32
}

// WithSrc sets the source of the message to build.
func (b BarWriteMsgBuilder) WithSrc(src sim.RemotePort) BarWriteMsgBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the message to build.
func (b BarWriteMsgBuilder) WithDst(dst sim.RemotePort) BarWriteMsgBuilder {
	b.dst = dst
	return b
}

// WithBarIndex sets the target BAR handler slot.
func (b BarWriteMsgBuilder) WithBarIndex(i int) BarWriteMsgBuilder {
	b.barIndex = i
	return b
}

// WithAddress sets the dword-aligned address to write.
func (b BarWriteMsgBuilder) WithAddress(addr uint32) BarWriteMsgBuilder {
	b.address = addr
	return b
}

// WithByteEnable sets the 4-bit byte-enable nibble.
func (b BarWriteMsgBuilder) WithByteEnable(be uint8) BarWriteMsgBuilder {
	b.byteEnable = be
	return b
}

// WithData sets the dword to write.
func (b BarWriteMsgBuilder) WithData(data uint32) BarWriteMsgBuilder {
	b.data = data
	return b
}

// Build creates a new BarWriteMsg.
func (b BarWriteMsgBuilder) Build() *BarWriteMsg {
	m := &BarWriteMsg{}
	m.ID = sim.GetIDGenerator().Generate()
	m.Src = b.src
	m.Dst = b.dst
	m.TrafficBytes = 2 * tlp.DwordLen
	m.BarIndex = b.barIndex
	m.Address = b.address
	m.ByteEnable = b.byteEnable
	m.Data = b.data

	return m
}

// A ReadContext is the pending-read token handed to a handler with each
// per-dword read request. Handlers must echo it back unmodified with the
// response; they must not interpret it.
type ReadContext struct {
	// First and Last mark the position of the dword within its
	// sub-request.
	First bool
	Last  bool

	// ByteCount and WordCount describe the whole sub-request.
	ByteCount int
	WordCount int

	// Requester identity echoed into the completion header.
	ReqID uint16
	Tag   uint8

	BarIndex int

	// Address of this dword and the low 7 bits of the sub-request base.
	Address      uint32
	LowerAddress uint8
}

// A BarReadReqMsg requests one dword from a BAR handler. The handler must
// respond after its fixed latency with a BarReadRspMsg echoing the context.
type BarReadReqMsg struct {
	sim.MsgMeta

	Context ReadContext
	Address uint32
}

// Meta returns the meta data of the message.
func (m *BarReadReqMsg) Meta() *sim.MsgMeta {
	return &m.MsgMeta
}

// Clone returns a copy of the message with a different ID.
func (m *BarReadReqMsg) Clone() sim.Msg {
	cloneMsg := *m
	cloneMsg.ID = sim.GetIDGenerator().Generate()

	return &cloneMsg
}

// BarReadReqMsgBuilder can build BAR read requests.
type BarReadReqMsgBuilder struct {
	src, dst sim.RemotePort
	context  ReadContext
	address  uint32
}

// WithSrc sets the source of the message to build.
func (b BarReadReqMsgBuilder) WithSrc(src sim.RemotePort) BarReadReqMsgBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the message to build.
func (b BarReadReqMsgBuilder) WithDst(dst sim.RemotePort) BarReadReqMsgBuilder {
	b.dst = dst
	return b
}

// WithContext sets the pending-read context of the request.
func (b BarReadReqMsgBuilder) WithContext(
	ctx ReadContext,
) BarReadReqMsgBuilder {
	b.context = ctx
	return b
}

// WithAddress sets the dword-aligned address to read.
func (b BarReadReqMsgBuilder) WithAddress(addr uint32) BarReadReqMsgBuilder {
	b.address = addr
	return b
}

// Build creates a new BarReadReqMsg.
func (b BarReadReqMsgBuilder) Build() *BarReadReqMsg {
	m := &BarReadReqMsg{}
	m.ID = sim.GetIDGenerator().Generate()
	m.Src = b.src
	m.Dst = b.dst
	m.TrafficBytes = tlp.DwordLen
	m.Context = b.context
	m.Address = b.address

	return m
}

// A BarReadRspMsg returns one dword from a BAR handler together with the
// echoed pending-read context.
type BarReadRspMsg struct {
	sim.MsgMeta

	Context ReadContext
	Data    uint32

	// RspTo is the ID of the request this response answers.
	RspTo string
}

// Meta returns the meta data of the message.
func (m *BarReadRspMsg) Meta() *sim.MsgMeta {
	return &m.MsgMeta
}

// Clone returns a copy of the message with a different ID.
func (m *BarReadRspMsg) Clone() sim.Msg {
	cloneMsg := *m
	cloneMsg.ID = sim.GetIDGenerator().Generate()

	return &cloneMsg
}

// GetRspTo returns the ID of the request this response answers.
func (m *BarReadRspMsg) GetRspTo() string {
	return m.RspTo
}

// BarReadRspMsgBuilder can build BAR read responses.
type BarReadRspMsgBuilder struct {
	src, dst sim.RemotePort
	context  ReadContext
	data     uint32
	rspTo    string
}

// WithSrc sets the source of the message to build.
func (b BarReadRspMsgBuilder) WithSrc(src sim.RemotePort) BarReadRspMsgBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the message to build.
func (b BarReadRspMsgBuilder) WithDst(dst sim.RemotePort) BarReadRspMsgBuilder {
	b.dst = dst
	return b
}

// WithContext sets the context echoed from the request.
func (b BarReadRspMsgBuilder) WithContext(
	ctx ReadContext,
) BarReadRspMsgBuilder {
	b.context = ctx
	return b
}

// WithData sets the dword read from the handler.
func (b BarReadRspMsgBuilder) WithData(data uint32) BarReadRspMsgBuilder {
	b.data = data
	return b
}

// WithRspTo sets the ID of the request being answered.
func (b BarReadRspMsgBuilder) WithRspTo(id string) BarReadRspMsgBuilder {
	b.rspTo = id
	return b
}

// Build creates a new BarReadRspMsg.
func (b BarReadRspMsgBuilder) Build() *BarReadRspMsg {
	m := &BarReadRspMsg{}
	m.ID = sim.GetIDGenerator().Generate()
	m.Src = b.src
	m.Dst = b.dst
	m.TrafficBytes = tlp.DwordLen
	m.Context = b.context
	m.Data = b.data
	m.RspTo = b.rspTo

	return m
}
