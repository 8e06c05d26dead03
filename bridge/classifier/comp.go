// Package classifier implements the bridge ingress. It decodes the TLP type
// on each start-of-packet beat and routes whole packets to the read or write
// engine.
package classifier

import (
	"github.com/fabriclab/tlpbridge/bridge"
	"github.com/fabriclab/tlpbridge/sim"
	"github.com/fabriclab/tlpbridge/tlp"
)

// HookPosPacketDrop marks a packet discarded because its type is not
// handled or because the read engine could not take it.
var HookPosPacketDrop = &sim.HookPos{Name: "Classifier Packet Drop"}

// WriteAccepter is the flow-control signal of the write engine. The
// classifier stalls write packets while it deasserts.
type WriteAccepter interface {
	AcceptingBeats() bool
}

type route int

const (
	routeNone route = iota
	routeWrite
	routeRead
	routeDrop
)

// Comp is the ingress classifier.
type Comp struct {
	*sim.TickingComponent
	sim.MiddlewareHolder

	topPort sim.Port
	outPort sim.Port

	writeDst    sim.RemotePort
	readDst     sim.RemotePort
	writeAccept WriteAccepter

	curRoute route
}

// TopPort returns the port that accepts beats from the transport.
func (c *Comp) TopPort() sim.Port {
	return c.topPort
}

// OutPort returns the port that forwards beats to the engines.
func (c *Comp) OutPort() sim.Port {
	return c.outPort
}

// Tick updates the state of the classifier.
func (c *Comp) Tick() bool {
	return c.MiddlewareHolder.Tick()
}

type middleware struct {
	*Comp
}

// Tick moves at most one beat per cycle. Write packets see backpressure
// through the write engine's accept signal; read packets never do, and are
// dropped when they cannot be forwarded.
func (m *middleware) Tick() bool {
	msg := m.topPort.PeekIncoming()
	if msg == nil {
		return false
	}

	beatMsg := msg.(*bridge.BeatMsg)
	beat := &beatMsg.Beat

	if beat.StartOfPacket {
		m.curRoute = classify(beat)
	}

	switch m.curRoute {
	case routeWrite:
		return m.forwardWrite(beatMsg)
	case routeRead:
		return m.forwardRead(beatMsg)
	default:
		m.topPort.RetrieveIncoming()
		m.InvokeHook(sim.HookCtx{
			Domain: m.Comp,
			Pos:    HookPosPacketDrop,
			Item:   beatMsg,
		})
		return true
	}
}

func classify(beat *tlp.Beat) route {
	hdr := tlp.HeaderFromDword(beat.Dword(0))

	switch {
	case hdr.Type.IsMemWrite():
		return routeWrite
	case hdr.Type.IsMemRead():
		return routeRead
	default:
		return routeDrop
	}
}

func (m *middleware) forwardWrite(in *bridge.BeatMsg) bool {
	if !m.writeAccept.AcceptingBeats() {
		return false
	}

	out := bridge.BeatMsgBuilder{}.
		WithSrc(m.outPort.AsRemote()).
		WithDst(m.writeDst).
		WithBeat(in.Beat).
		Build()

	err := m.outPort.Send(out)
	if err != nil {
		return false
	}

	m.topPort.RetrieveIncoming()

	return true
}

func (m *middleware) forwardRead(in *bridge.BeatMsg) bool {
	out := bridge.BeatMsgBuilder{}.
		WithSrc(m.outPort.AsRemote()).
		WithDst(m.readDst).
		WithBeat(in.Beat).
		Build()

	err := m.outPort.Send(out)
	if err != nil {
		m.topPort.RetrieveIncoming()
		m.InvokeHook(sim.HookCtx{
			Domain: m.Comp,
			Pos:    HookPosPacketDrop,
			Item:   in,
		})
		return true
	}

	m.topPort.RetrieveIncoming()

	return true
}
