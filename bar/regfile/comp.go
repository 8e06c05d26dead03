// Package regfile provides a register-file BAR handler backed by a paged
// storage. Every access completes in a fixed number of cycles.
package regfile

import (
	"log"
	"reflect"

	"github.com/fabriclab/tlpbridge/bridge"
	"github.com/fabriclab/tlpbridge/mem"
	"github.com/fabriclab/tlpbridge/sim"
	"github.com/fabriclab/tlpbridge/tracing"
)

type readRespondEvent struct {
	*sim.EventBase
	req *bridge.BarReadReqMsg
}

func newReadRespondEvent(
	time sim.VTimeInSec,
	handler sim.Handler,
	req *bridge.BarReadReqMsg,
) *readRespondEvent {
	return &readRespondEvent{sim.NewEventBase(time, handler), req}
}

type writeApplyEvent struct {
	*sim.EventBase
	req *bridge.BarWriteMsg
}

func newWriteApplyEvent(
	time sim.VTimeInSec,
	handler sim.Handler,
	req *bridge.BarWriteMsg,
) *writeApplyEvent {
	return &writeApplyEvent{sim.NewEventBase(time, handler), req}
}

// Comp is a register-file handler. It always responds to a read request in
// a fixed number of cycles. There is no limitation on the concurrency of
// this unit.
type Comp struct {
	*sim.TickingComponent
	sim.MiddlewareHolder

	topPort sim.Port

	Storage *mem.Storage
	Latency int
}

// TopPort returns the port facing the dispatch.
func (c *Comp) TopPort() sim.Port {
	return c.topPort
}

// Handle defines how the Comp handles events.
func (c *Comp) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *readRespondEvent:
		return c.handleReadRespondEvent(e)
	case *writeApplyEvent:
		return c.handleWriteApplyEvent(e)
	case sim.TickEvent:
		return c.TickingComponent.Handle(e)
	default:
		log.Panicf("cannot handle event of %s", reflect.TypeOf(e))
	}

	return nil
}

// Tick updates the state of the handler.
func (c *Comp) Tick() bool {
	return c.MiddlewareHolder.Tick()
}

func (c *Comp) handleReadRespondEvent(e *readRespondEvent) error {
	now := e.Time()
	req := e.req

	data, err := c.Storage.ReadDword(uint64(req.Address))
	if err != nil {
		log.Panic(err)
	}

	rsp := bridge.BarReadRspMsgBuilder{}.
		WithSrc(c.topPort.AsRemote()).
		WithDst(req.Meta().Src).
		WithContext(req.Context).
		WithData(data).
		WithRspTo(req.Meta().ID).
		Build()

	networkErr := c.topPort.Send(rsp)
	if networkErr != nil {
		retry := newReadRespondEvent(c.Freq.NextTick(now), c, req)
		c.Engine.Schedule(retry)
		return nil
	}

	tracing.TraceReqComplete(req, c)
	c.TickLater()

	return nil
}

func (c *Comp) handleWriteApplyEvent(e *writeApplyEvent) error {
	req := e.req

	err := c.Storage.WriteDwordMasked(
		uint64(req.Address), req.Data, req.ByteEnable)
	if err != nil {
		log.Panic(err)
	}

	tracing.TraceReqComplete(req, c)

	return nil
}

type middleware struct {
	*Comp
}

func (m *middleware) Tick() bool {
	msg := m.topPort.RetrieveIncoming()
	if msg == nil {
		return false
	}

	tracing.TraceReqReceive(msg, m.Comp)

	now := m.Engine.CurrentTime()
	applyTime := m.Freq.NCyclesLater(m.Latency, now)

	switch req := msg.(type) {
	case *bridge.BarReadReqMsg:
		m.Engine.Schedule(newReadRespondEvent(applyTime, m.Comp, req))
	case *bridge.BarWriteMsg:
		m.Engine.Schedule(newWriteApplyEvent(applyTime, m.Comp, req))
	default:
		log.Panicf("cannot handle request of type %s", reflect.TypeOf(msg))
	}

	return true
}
