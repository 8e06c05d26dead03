// Package dispatch implements the BAR handler multiplexer. It forwards
// write operations and per-dword read requests to one of up to 7 handler
// slots and merges read responses back toward the read engine.
package dispatch

import (
	"github.com/fabriclab/tlpbridge/bridge"
	"github.com/fabriclab/tlpbridge/sim"
	"github.com/fabriclab/tlpbridge/tlp"
)

// HookPosReqLost marks a request addressed to an unpopulated BAR slot. The
// request is discarded and no completion will ever be produced for it.
var HookPosReqLost = &sim.HookPos{Name: "Dispatch Req Lost"}

// HookPosHandlerRsp marks a response arriving from a handler slot. A
// conformance tracer can attach here to check handler latency.
var HookPosHandlerRsp = &sim.HookPos{Name: "Dispatch Handler Rsp"}

// Comp is the handler dispatch.
type Comp struct {
	*sim.TickingComponent
	sim.MiddlewareHolder

	topPort  sim.Port
	barPorts [tlp.NumBars]sim.Port

	barDsts [tlp.NumBars]sim.RemotePort
	rspDst  sim.RemotePort
}

// TopPort returns the port that accepts requests from the engines.
func (c *Comp) TopPort() sim.Port {
	return c.topPort
}

// BarPort returns the port facing handler slot i.
func (c *Comp) BarPort(i int) sim.Port {
	return c.barPorts[i]
}

// RegisterBar populates handler slot i with the handler's port. Slots left
// unregistered silently lose the requests routed to them.
func (c *Comp) RegisterBar(i int, dst sim.RemotePort) {
	c.barDsts[i] = dst
}

// SetRspDst sets the remote port that receives merged read responses.
func (c *Comp) SetRspDst(dst sim.RemotePort) {
	c.rspDst = dst
}

// Tick updates the state of the dispatch.
func (c *Comp) Tick() bool {
	return c.MiddlewareHolder.Tick()
}

type middleware struct {
	*Comp
}

func (m *middleware) Tick() bool {
	madeProgress := false

	madeProgress = m.mergeRsp() || madeProgress
	madeProgress = m.forwardReq() || madeProgress

	return madeProgress
}

// mergeRsp forwards one handler response per cycle toward the read engine.
// Slots are scanned from index 0, so the lowest populated index wins when
// several respond in the same cycle.
func (m *middleware) mergeRsp() bool {
	for i := 0; i < tlp.NumBars; i++ {
		port := m.barPorts[i]

		msg := port.PeekIncoming()
		if msg == nil {
			continue
		}

		rsp := msg.(*bridge.BarReadRspMsg)

		out := bridge.BarReadRspMsgBuilder{}.
			WithSrc(m.topPort.AsRemote()).
			WithDst(m.rspDst).
			WithContext(rsp.Context).
			WithData(rsp.Data).
			WithRspTo(rsp.RspTo).
			Build()

		err := m.topPort.Send(out)
		if err != nil {
			return false
		}

		port.RetrieveIncoming()
		m.InvokeHook(sim.HookCtx{
			Domain: m.Comp,
			Pos:    HookPosHandlerRsp,
			Item:   rsp,
		})

		return true
	}

	return false
}

func (m *middleware) forwardReq() bool {
	msg := m.topPort.PeekIncoming()
	if msg == nil {
		return false
	}

	switch req := msg.(type) {
	case *bridge.BarWriteMsg:
		return m.forwardWrite(req)
	case *bridge.BarReadReqMsg:
		return m.forwardRead(req)
	default:
		m.topPort.RetrieveIncoming()
		return true
	}
}

func (m *middleware) forwardWrite(req *bridge.BarWriteMsg) bool {
	i := req.BarIndex
	if !slotPopulated(i, m.barDsts) {
		m.dropReq(req)
		return true
	}

	out := bridge.BarWriteMsgBuilder{}.
		WithSrc(m.barPorts[i].AsRemote()).
		WithDst(m.barDsts[i]).
		WithBarIndex(req.BarIndex).
		WithAddress(req.Address).
		WithByteEnable(req.ByteEnable).
		WithData(req.Data).
		Build()

	err := m.barPorts[i].Send(out)
	if err != nil {
		return false
	}

	m.topPort.RetrieveIncoming()

	return true
}

func (m *middleware) forwardRead(req *bridge.BarReadReqMsg) bool {
	i := req.Context.BarIndex
	if !slotPopulated(i, m.barDsts) {
		m.dropReq(req)
		return true
	}

	out := bridge.BarReadReqMsgBuilder{}.
		WithSrc(m.barPorts[i].AsRemote()).
		WithDst(m.barDsts[i]).
		WithContext(req.Context).
		WithAddress(req.Address).
		Build()

	err := m.barPorts[i].Send(out)
	if err != nil {
		return false
	}

	m.topPort.RetrieveIncoming()

	return true
}

// slotPopulated reports whether i names a registered handler slot. A beat
// with no BAR selected decodes to index -1 and must be lost, not crash.
func slotPopulated(i int, dsts [tlp.NumBars]sim.RemotePort) bool {
	return i >= 0 && i < tlp.NumBars && dsts[i] != ""
}

func (m *middleware) dropReq(req sim.Msg) {
	m.topPort.RetrieveIncoming()
	m.InvokeHook(sim.HookCtx{
		Domain: m.Comp,
		Pos:    HookPosReqLost,
		Item:   req,
	})
}
