package device

import (
	"github.com/fabriclab/tlpbridge/bridge/classifier"
	"github.com/fabriclab/tlpbridge/bridge/dispatch"
	"github.com/fabriclab/tlpbridge/bridge/readengine"
	"github.com/fabriclab/tlpbridge/bridge/writeengine"
	"github.com/fabriclab/tlpbridge/sim"
	"github.com/fabriclab/tlpbridge/sim/directconnection"
	"github.com/fabriclab/tlpbridge/tlp"
)

// Builder can build bridge devices.
type Builder struct {
	engine   sim.Engine
	freq     sim.Freq
	deviceID uint16
	cplDst   sim.RemotePort
}

// MakeBuilder creates a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq: 1 * sim.GHz,
	}
}

// WithEngine sets the event engine that the device uses.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of all the device components.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithDeviceID sets the completer ID used in completion headers.
func (b Builder) WithDeviceID(id uint16) Builder {
	b.deviceID = id
	return b
}

// WithCplDst sets the remote port that consumes completion beats.
func (b Builder) WithCplDst(dst sim.RemotePort) Builder {
	b.cplDst = dst
	return b
}

// Build builds a bridge device.
func (b Builder) Build(name string) *Device {
	d := &Device{}

	d.Dispatch = dispatch.MakeBuilder().
		WithEngine(b.engine).
		WithFreq(b.freq).
		Build(name + ".Dispatch")

	d.WriteEngine = writeengine.MakeBuilder().
		WithEngine(b.engine).
		WithFreq(b.freq).
		WithDispatchDst(d.Dispatch.TopPort().AsRemote()).
		Build(name + ".WriteEngine")

	d.ReadEngine = readengine.MakeBuilder().
		WithEngine(b.engine).
		WithFreq(b.freq).
		WithDeviceID(b.deviceID).
		WithDispatchDst(d.Dispatch.TopPort().AsRemote()).
		WithCplDst(b.cplDst).
		Build(name + ".ReadEngine")

	d.Classifier = classifier.MakeBuilder().
		WithEngine(b.engine).
		WithFreq(b.freq).
		WithWriteDst(d.WriteEngine.TopPort().AsRemote()).
		WithReadDst(d.ReadEngine.TopPort().AsRemote()).
		WithWriteAccepter(d.WriteEngine).
		Build(name + ".Classifier")

	d.Dispatch.SetRspDst(d.ReadEngine.BarPort().AsRemote())

	d.conn = directconnection.MakeBuilder().
		WithEngine(b.engine).
		WithFreq(b.freq).
		Build(name + ".Conn")

	d.conn.PlugIn(d.Classifier.TopPort())
	d.conn.PlugIn(d.Classifier.OutPort())
	d.conn.PlugIn(d.WriteEngine.TopPort())
	d.conn.PlugIn(d.WriteEngine.BarPort())
	d.conn.PlugIn(d.ReadEngine.TopPort())
	d.conn.PlugIn(d.ReadEngine.BarPort())
	d.conn.PlugIn(d.ReadEngine.CplPort())
	d.conn.PlugIn(d.Dispatch.TopPort())
	for i := 0; i < tlp.NumBars; i++ {
		d.conn.PlugIn(d.Dispatch.BarPort(i))
	}

	return d
}
