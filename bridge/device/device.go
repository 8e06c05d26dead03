// Package device assembles the bridge from its parts: the ingress
// classifier, the read and write engines, the handler dispatch, and the
// connection that links them.
package device

import (
	"github.com/fabriclab/tlpbridge/bridge/classifier"
	"github.com/fabriclab/tlpbridge/bridge/dispatch"
	"github.com/fabriclab/tlpbridge/bridge/readengine"
	"github.com/fabriclab/tlpbridge/bridge/writeengine"
	"github.com/fabriclab/tlpbridge/sim"
	"github.com/fabriclab/tlpbridge/sim/directconnection"
)

// A Device is a fully wired bridge.
type Device struct {
	Classifier  *classifier.Comp
	WriteEngine *writeengine.Comp
	ReadEngine  *readengine.Comp
	Dispatch    *dispatch.Comp

	conn *directconnection.Comp
}

// TopPort returns the port that accepts TLP beats from the transport.
func (d *Device) TopPort() sim.Port {
	return d.Classifier.TopPort()
}

// CplPort returns the port that emits completion beats.
func (d *Device) CplPort() sim.Port {
	return d.ReadEngine.CplPort()
}

// Connection returns the internal connection. External agents that
// exchange messages with the device plug their ports in here.
func (d *Device) Connection() *directconnection.Comp {
	return d.conn
}

// RegisterBar populates BAR slot i with a handler port. The handler port is
// plugged into the device connection.
func (d *Device) RegisterBar(i int, handlerPort sim.Port) {
	d.Dispatch.RegisterBar(i, handlerPort.AsRemote())
	d.conn.PlugIn(handlerPort)
}

// Components returns all the components of the device.
func (d *Device) Components() []sim.Component {
	return []sim.Component{
		d.Classifier,
		d.WriteEngine,
		d.ReadEngine,
		d.Dispatch,
		d.conn,
	}
}
