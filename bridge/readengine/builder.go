package readengine

import "github.com/fabriclab/tlpbridge/sim"

// Builder can build read engines.
type Builder struct {
	engine       sim.Engine
	freq         sim.Freq
	reqQueueSize int
	outQueueSize int
	deviceID     uint16
	dispatchDst  sim.RemotePort
	cplDst       sim.RemotePort
}

// MakeBuilder creates a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq:         1 * sim.GHz,
		reqQueueSize: 8,
		outQueueSize: 32,
	}
}

// WithEngine sets the event engine that the read engine uses.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the read engine.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithReqQueueSize sets the capacity of the parsed request queue.
func (b Builder) WithReqQueueSize(n int) Builder {
	b.reqQueueSize = n
	return b
}

// WithOutQueueSize sets the capacity, in beats, of the completion output
// queue.
func (b Builder) WithOutQueueSize(n int) Builder {
	b.outQueueSize = n
	return b
}

// WithDeviceID sets the completer ID used in completion headers.
func (b Builder) WithDeviceID(id uint16) Builder {
	b.deviceID = id
	return b
}

// WithDispatchDst sets the remote port of the handler dispatch.
func (b Builder) WithDispatchDst(dst sim.RemotePort) Builder {
	b.dispatchDst = dst
	return b
}

// WithCplDst sets the remote port that receives completion beats.
func (b Builder) WithCplDst(dst sim.RemotePort) Builder {
	b.cplDst = dst
	return b
}

// Build builds a read engine.
func (b Builder) Build(name string) *Comp {
	c := &Comp{}

	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)
	c.dispatchDst = b.dispatchDst
	c.cplDst = b.cplDst
	c.deviceID = b.deviceID
	c.reqQueue = sim.NewBuffer(name+".ReqQueue", b.reqQueueSize)
	c.outQueue = sim.NewBuffer(name+".OutQueue", b.outQueueSize)

	c.topPort = sim.NewPort(c, 4, 4, name+".Top")
	c.AddPort("Top", c.topPort)
	c.barPort = sim.NewPort(c, 1, 4, name+".Bar")
	c.AddPort("Bar", c.barPort)
	c.cplPort = sim.NewPort(c, 1, 4, name+".Cpl")
	c.AddPort("Cpl", c.cplPort)

	m := &middleware{Comp: c}
	c.AddMiddleware(m)

	return c
}
