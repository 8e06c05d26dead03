// Package identity provides a BAR handler that answers every read with the
// address of the read itself. It is useful for exercising the full request
// path without a backing memory.
package identity

import (
	"log"
	"reflect"

	"github.com/fabriclab/tlpbridge/bridge"
	"github.com/fabriclab/tlpbridge/sim"
	"github.com/fabriclab/tlpbridge/tracing"
)

type respondEvent struct {
	*sim.EventBase
	req *bridge.BarReadReqMsg
}

func newRespondEvent(
	time sim.VTimeInSec,
	handler sim.Handler,
	req *bridge.BarReadReqMsg,
) *respondEvent {
	return &respondEvent{sim.NewEventBase(time, handler), req}
}

// Comp is an address-echo handler. Writes are accepted and discarded.
type Comp struct {
	*sim.TickingComponent
	sim.MiddlewareHolder

	topPort sim.Port

	Latency int
}

// TopPort returns the port facing the dispatch.
func (c *Comp) TopPort() sim.Port {
	return c.topPort
}

// Handle defines how the Comp handles events.
func (c *Comp) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *respondEvent:
		return c.handleRespondEvent(e)
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

func (c *Comp) handleRespondEvent(e *respondEvent) error {
	now := e.Time()
	req := e.req

	rsp := bridge.BarReadRspMsgBuilder{}.
		WithSrc(c.topPort.AsRemote()).
		WithDst(req.Meta().Src).
		WithContext(req.Context).
		WithData(req.Address).
		WithRspTo(req.Meta().ID).
		Build()

	networkErr := c.topPort.Send(rsp)
	if networkErr != nil {
		retry := newRespondEvent(c.Freq.NextTick(now), c, req)
		c.Engine.Schedule(retry)
		return nil
	}

	tracing.TraceReqComplete(req, c)
	c.TickLater()

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

	switch req := msg.(type) {
	case *bridge.BarReadReqMsg:
		tracing.TraceReqReceive(req, m.Comp)

		now := m.Engine.CurrentTime()
		respondTime := m.Freq.NCyclesLater(m.Latency, now)
		m.Engine.Schedule(newRespondEvent(respondTime, m.Comp, req))
	case *bridge.BarWriteMsg:
		// Posted write with nothing behind it.
	default:
		log.Panicf("cannot handle request of type %s", reflect.TypeOf(msg))
	}

	return true
}
