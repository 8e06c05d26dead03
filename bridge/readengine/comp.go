// Package readengine implements the read half of the TLP bridge: a
// four-stage pipeline that parses memory-read request beats, splits large
// reads at the read-completion boundary, issues one per-dword BAR request
// per cycle, and reassembles the responses into completion beats.
package readengine

import (
	"github.com/fabriclab/tlpbridge/bridge"
	"github.com/fabriclab/tlpbridge/sim"
	"github.com/fabriclab/tlpbridge/tlp"
)

// HookPosReqDrop marks when a parsed read request is dropped because the
// request queue is full. The drop is silent toward the requester.
var HookPosReqDrop = &sim.HookPos{Name: "ReadEngine Req Drop"}

// rcbBytes is the read completion boundary. No completion may cross an
// address that is a multiple of this value.
const rcbBytes = 128

// maxSubReqDwords caps a single completion at one RCB worth of dwords.
const maxSubReqDwords = rcbBytes / tlp.DwordLen

// readRequest is a parsed memory-read request waiting to be split.
type readRequest struct {
	barIndex int
	address  uint32
	reqID    uint16
	tag      uint8
	length   int
	firstBE  uint8
	lastBE   uint8
}

// subRequest is one completion-sized slice of a read request.
type subRequest struct {
	barIndex  int
	address   uint32
	reqID     uint16
	tag       uint8
	wordCount int
	byteCount int
	lowerAddr uint8

	first bool
	last  bool
}

// Comp is the read engine.
type Comp struct {
	*sim.TickingComponent
	sim.MiddlewareHolder

	topPort sim.Port
	barPort sim.Port
	cplPort sim.Port

	dispatchDst sim.RemotePort
	cplDst      sim.RemotePort

	deviceID uint16

	// Stage A -> B
	reqQueue sim.Buffer

	// Stage B state
	splitReq       *readRequest
	splitRemaining int
	splitAddr      uint32
	splitFirst     bool

	// Stage C state
	curSub      *subRequest
	wordsIssued int

	// Stage D state
	assembly      bridge.CplBeat
	assemblyLanes int
	outQueue      sim.Buffer
	reservedSlots int
	inflight      int
}

// TopPort returns the port that accepts read-request beats.
func (c *Comp) TopPort() sim.Port {
	return c.topPort
}

// BarPort returns the port that issues per-dword BAR read requests and
// receives the responses.
func (c *Comp) BarPort() sim.Port {
	return c.barPort
}

// CplPort returns the port that emits completion beats to the transport.
func (c *Comp) CplPort() sim.Port {
	return c.cplPort
}

// HasBufferedPacket reports whether at least one fully framed completion
// packet is buffered. It is the flow-control signal for the downstream
// multiplexer; it never causes backpressure by itself.
func (c *Comp) HasBufferedPacket() bool {
	return c.inflight > 0
}

// Tick updates the state of the read engine.
func (c *Comp) Tick() bool {
	return c.MiddlewareHolder.Tick()
}

type middleware struct {
	*Comp
}

// Tick evaluates the stages in reverse pipeline order so that an item can
// traverse at most one stage per cycle.
func (m *middleware) Tick() bool {
	madeProgress := false

	madeProgress = m.drainCompletions() || madeProgress
	madeProgress = m.reassemble() || madeProgress
	madeProgress = m.issueWord() || madeProgress
	madeProgress = m.splitOne() || madeProgress
	madeProgress = m.ingest() || madeProgress

	return madeProgress
}

// ingest is stage A: parse request beats into the request FIFO. Read
// requests carry no payload, so a request is always a single beat. There is
// no backpressure toward the transport: when the FIFO is full, new requests
// are dropped silently.
func (m *middleware) ingest() bool {
	msg := m.topPort.PeekIncoming()
	if msg == nil {
		return false
	}

	beatMsg := msg.(*bridge.BeatMsg)
	m.topPort.RetrieveIncoming()

	beat := &beatMsg.Beat
	hdr := tlp.RequestHeaderFromDwords(beat.Dword(0), beat.Dword(1))
	if !hdr.Type.IsMemRead() {
		return true
	}

	req := readRequest{
		barIndex: beat.BarIndex(),
		address:  beat.Dword(hdr.AddressDword()),
		reqID:    hdr.ReqID.ToUint16(),
		tag:      hdr.Tag,
		length:   hdr.DecodedLength(),
		firstBE:  hdr.FirstBE,
		lastBE:   hdr.LastBE,
	}

	if !m.reqQueue.CanPush() {
		m.InvokeHook(sim.HookCtx{
			Domain: m.Comp,
			Pos:    HookPosReqDrop,
			Item:   beatMsg,
		})
		return true
	}

	m.reqQueue.Push(req)

	return true
}

// splitOne is stage B: produce at most one sub-request per cycle, only when
// stage C is idle and the output queue has room for the whole sub-request.
func (m *middleware) splitOne() bool {
	if m.curSub != nil {
		return false
	}

	if m.splitReq == nil {
		item := m.reqQueue.Peek()
		if item == nil {
			return false
		}
		req := item.(readRequest)
		m.reqQueue.Pop()

		m.splitReq = &req
		m.splitRemaining = req.length
		m.splitAddr = req.address
		m.splitFirst = true
	}

	words := wordsToBoundary(m.splitAddr)
	if words > m.splitRemaining {
		words = m.splitRemaining
	}

	beatsNeeded := (words + tlp.BeatDwords - 1) / tlp.BeatDwords
	if m.outFreeSlots()-m.reservedSlots < beatsNeeded {
		return false
	}
	m.reservedSlots += beatsNeeded

	sub := &subRequest{
		barIndex:  m.splitReq.barIndex,
		address:   m.splitAddr,
		reqID:     m.splitReq.reqID,
		tag:       m.splitReq.tag,
		wordCount: words,
		byteCount: m.subByteCount(words),
		lowerAddr: m.subLowerAddress(),
		first:     m.splitFirst,
		last:      m.splitRemaining == words,
	}

	m.curSub = sub
	m.wordsIssued = 0

	m.splitAddr += uint32(words * tlp.DwordLen)
	m.splitRemaining -= words
	m.splitFirst = false

	if m.splitRemaining == 0 {
		m.splitReq = nil
	}

	return true
}

// wordsToBoundary returns the number of dwords from addr to the next read
// completion boundary. The result is in 1..32.
func wordsToBoundary(addr uint32) int {
	return int(rcbBytes-(addr%rcbBytes)) / tlp.DwordLen
}

func (m *middleware) subByteCount(words int) int {
	if m.splitReq.length == 1 {
		return tlp.CplByteCount(m.splitReq.firstBE, m.splitReq.lastBE, 1)
	}
	return words * tlp.DwordLen
}

func (m *middleware) subLowerAddress() uint8 {
	if m.splitFirst {
		return tlp.CplLowerAddress(m.splitReq.firstBE, m.splitAddr)
	}
	return uint8(m.splitAddr) & 0x7f
}

// issueWord is stage C: issue one per-dword read request per cycle for the
// current sub-request, carrying the pending-read context.
func (m *middleware) issueWord() bool {
	if m.curSub == nil {
		return false
	}

	if !m.barPort.CanSend() {
		return false
	}

	sub := m.curSub
	addr := sub.address + uint32(m.wordsIssued*tlp.DwordLen)

	ctx := bridge.ReadContext{
		First:        m.wordsIssued == 0,
		Last:         m.wordsIssued == sub.wordCount-1,
		ByteCount:    sub.byteCount,
		WordCount:    sub.wordCount,
		ReqID:        sub.reqID,
		Tag:          sub.tag,
		BarIndex:     sub.barIndex,
		Address:      addr,
		LowerAddress: sub.lowerAddr,
	}

	req := bridge.BarReadReqMsgBuilder{}.
		WithSrc(m.barPort.AsRemote()).
		WithDst(m.dispatchDst).
		WithContext(ctx).
		WithAddress(addr).
		Build()

	err := m.barPort.Send(req)
	if err != nil {
		return false
	}

	m.wordsIssued++
	if m.wordsIssued == sub.wordCount {
		m.curSub = nil
	}

	return true
}

// reassemble is stage D: accept at most one response dword per cycle and
// pack it into completion beats. A header is written exactly once per
// sub-request, with its first dword.
func (m *middleware) reassemble() bool {
	msg := m.barPort.PeekIncoming()
	if msg == nil {
		return false
	}

	rsp := msg.(*bridge.BarReadRspMsg)
	m.barPort.RetrieveIncoming()

	ctx := rsp.Context

	if ctx.First {
		m.assembly = bridge.CplBeat{}
		m.assemblyLanes = 0

		hdr := tlp.CplHeader{
			CplID:        tlp.NewDeviceID(m.deviceID),
			ByteCount:    ctx.ByteCount,
			ReqID:        tlp.NewDeviceID(ctx.ReqID),
			Tag:          ctx.Tag,
			LowerAddress: ctx.LowerAddress,
		}
		hdr.Type = tlp.CplD
		hdr.Length = tlp.EncodedLength(ctx.WordCount)

		m.assembly.Header = hdr
		m.assembly.HasHeader = true
	}

	m.assembly.SetDword(m.assemblyLanes, rsp.Data)
	m.assemblyLanes++

	if m.assemblyLanes == tlp.BeatDwords || ctx.Last {
		m.flushAssembly(ctx.Last)
	}

	return true
}

// flushAssembly pushes the in-progress completion beat to the output queue.
// Space is guaranteed by the reservation taken in stage B.
func (m *middleware) flushAssembly(last bool) {
	m.assembly.Last = last
	m.outQueue.Push(m.assembly)

	m.assembly = bridge.CplBeat{}
	m.assemblyLanes = 0
	m.reservedSlots--

	if last {
		m.inflight++
	}
}

// drainCompletions moves buffered completion beats to the transport.
func (m *middleware) drainCompletions() bool {
	item := m.outQueue.Peek()
	if item == nil {
		return false
	}

	beat := item.(bridge.CplBeat)

	if !m.cplPort.CanSend() {
		return false
	}

	msg := bridge.CplBeatMsgBuilder{}.
		WithSrc(m.cplPort.AsRemote()).
		WithDst(m.cplDst).
		WithBeat(beat).
		Build()

	err := m.cplPort.Send(msg)
	if err != nil {
		return false
	}

	m.outQueue.Pop()

	if beat.Last {
		m.inflight--
	}

	return true
}

func (m *middleware) outFreeSlots() int {
	return m.outQueue.Capacity() - m.outQueue.Size()
}
