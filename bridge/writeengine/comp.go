// Package writeengine implements the write half of the TLP bridge. It
// consumes memory-write request beats and emits one BAR write operation per
// dword, one dword per cycle.
package writeengine

import (
	"github.com/fabriclab/tlpbridge/bridge"
	"github.com/fabriclab/tlpbridge/sim"
	"github.com/fabriclab/tlpbridge/tlp"
)

// HookPosBeatDrop marks when an inbound beat is dropped because the beat
// queue is full. Dropping is silent; the hook exists for observability only.
var HookPosBeatDrop = &sim.HookPos{Name: "WriteEngine Beat Drop"}

type state int

const (
	stateAwaitHeader state = iota
	stateTx
	stateSkipPacket
)

// Comp is the write engine. It buffers inbound beats in a bounded queue,
// decodes memory-write headers, and streams the contained dwords to the
// handler dispatch at one dword per cycle.
type Comp struct {
	*sim.TickingComponent
	sim.MiddlewareHolder

	topPort sim.Port
	barPort sim.Port

	dispatchDst sim.RemotePort

	beatQueue     sim.Buffer
	acceptReserve int

	// decode state
	state     state
	barIndex  int
	address   uint32
	firstBE   uint8
	lastBE    uint8
	remaining int
	wordIndex int
	curBeat   *tlp.Beat
	curLane   int
}

// TopPort returns the port that accepts beats from the ingress classifier.
func (c *Comp) TopPort() sim.Port {
	return c.topPort
}

// BarPort returns the port that sends write operations to the dispatch.
func (c *Comp) BarPort() sim.Port {
	return c.barPort
}

// AcceptingBeats is the accept signal toward the ingress side. It deasserts
// when the beat queue crosses its near-full threshold so that the worst case
// queueing latency stays bounded. A producer that ignores it loses beats.
func (c *Comp) AcceptingBeats() bool {
	return c.beatQueue.Capacity()-c.beatQueue.Size() > c.acceptReserve
}

// Tick updates the state of the write engine.
func (c *Comp) Tick() bool {
	return c.MiddlewareHolder.Tick()
}

type middleware struct {
	*Comp
}

func (m *middleware) Tick() bool {
	madeProgress := false

	madeProgress = m.emitOne() || madeProgress
	madeProgress = m.acceptBeats() || madeProgress

	return madeProgress
}

// acceptBeats drains the top port into the beat queue. Beats that arrive
// while the queue is full are dropped without any signal to the requester.
func (m *middleware) acceptBeats() bool {
	madeProgress := false

	for {
		msg := m.topPort.PeekIncoming()
		if msg == nil {
			break
		}

		beatMsg := msg.(*bridge.BeatMsg)

		if !m.beatQueue.CanPush() {
			m.topPort.RetrieveIncoming()
			m.InvokeHook(sim.HookCtx{
				Domain: m.Comp,
				Pos:    HookPosBeatDrop,
				Item:   beatMsg,
			})
			madeProgress = true
			continue
		}

		m.beatQueue.Push(beatMsg.Beat)
		m.topPort.RetrieveIncoming()
		madeProgress = true
	}

	return madeProgress
}

// emitOne advances the decode state machine, producing at most one write
// operation per cycle.
func (m *middleware) emitOne() bool {
	switch m.state {
	case stateAwaitHeader:
		return m.decodeHeader()
	case stateSkipPacket:
		return m.skipBeat()
	case stateTx:
		return m.transferWord()
	}

	return false
}

func (m *middleware) decodeHeader() bool {
	item := m.beatQueue.Peek()
	if item == nil {
		return false
	}

	beat := item.(tlp.Beat)
	m.beatQueue.Pop()

	hdr := tlp.RequestHeaderFromDwords(beat.Dword(0), beat.Dword(1))
	if !hdr.Type.IsMemWrite() {
		// Unsupported format. The packet is ignored and the engine
		// returns to header hunting.
		if !beat.Last {
			m.state = stateSkipPacket
		}
		return true
	}

	m.barIndex = beat.BarIndex()
	m.firstBE = hdr.FirstBE
	m.lastBE = hdr.LastBE
	m.remaining = hdr.DecodedLength()
	m.wordIndex = 0

	if hdr.Type.Is4DW() {
		// The 4-dword header fills the whole beat; the first data word
		// arrives with the next beat. This costs one extra cycle.
		m.address = beat.Dword(3)
		m.state = stateTx
		m.curBeat = nil
		return true
	}

	m.address = beat.Dword(2)
	m.state = stateTx

	// A 3-dword header shares its beat with the first data word.
	if beat.LaneKept(3) {
		b := beat
		m.curBeat = &b
		m.curLane = 3
		return m.transferWord()
	}

	m.curBeat = nil
	return true
}

func (m *middleware) skipBeat() bool {
	item := m.beatQueue.Peek()
	if item == nil {
		return false
	}

	beat := item.(tlp.Beat)
	m.beatQueue.Pop()

	if beat.Last {
		m.state = stateAwaitHeader
	}

	return true
}

func (m *middleware) transferWord() bool {
	if m.curBeat == nil {
		item := m.beatQueue.Peek()
		if item == nil {
			return false
		}

		beat := item.(tlp.Beat)
		m.beatQueue.Pop()
		m.curBeat = &beat
		m.curLane = 0
	}

	if !m.barPort.CanSend() {
		return false
	}

	op := bridge.BarWriteMsgBuilder{}.
		WithSrc(m.barPort.AsRemote()).
		WithDst(m.dispatchDst).
		WithBarIndex(m.barIndex).
		WithAddress(m.address).
		WithByteEnable(m.byteEnableForWord()).
		WithData(m.curBeat.Dword(m.curLane)).
		Build()

	err := m.barPort.Send(op)
	if err != nil {
		return false
	}

	m.address += tlp.DwordLen
	m.remaining--
	m.wordIndex++
	m.curLane++

	if m.remaining == 0 {
		m.state = stateAwaitHeader
		m.curBeat = nil
		return true
	}

	if m.curLane == tlp.BeatDwords || !m.curBeat.LaneKept(m.curLane) {
		m.curBeat = nil
	}

	return true
}

// byteEnableForWord picks the byte enables: header-carried nibbles for the
// first and last words, all bytes valid for interior words.
func (m *middleware) byteEnableForWord() uint8 {
	if m.wordIndex == 0 {
		return m.firstBE
	}
	if m.remaining == 1 {
		return m.lastBE
	}
	return 0xf
}
