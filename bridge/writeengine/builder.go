package writeengine

import "github.com/fabriclab/tlpbridge/sim"

// Builder can build write engines.
type Builder struct {
	engine        sim.Engine
	freq          sim.Freq
	queueSize     int
	acceptReserve int
	dispatchDst   sim.RemotePort
}

// MakeBuilder creates a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq:          1 * sim.GHz,
		queueSize:     16,
		acceptReserve: 4,
	}
}

// WithEngine sets the event engine that the write engine uses.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the write engine.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithQueueSize sets the capacity of the inbound beat queue.
func (b Builder) WithQueueSize(n int) Builder {
	b.queueSize = n
	return b
}

// WithAcceptReserve sets the number of free queue slots below which the
// accept signal deasserts.
func (b Builder) WithAcceptReserve(n int) Builder {
	b.acceptReserve = n
	return b
}

// WithDispatchDst sets the remote port of the handler dispatch.
func (b Builder) WithDispatchDst(dst sim.RemotePort) Builder {
	b.dispatchDst = dst
	return b
}

// Build builds a write engine.
func (b Builder) Build(name string) *Comp {
	c := &Comp{}

	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)
	c.dispatchDst = b.dispatchDst
	c.acceptReserve = b.acceptReserve
	c.beatQueue = sim.NewBuffer(name+".BeatQueue", b.queueSize)

	c.topPort = sim.NewPort(c, 4, 4, name+".Top")
	c.AddPort("Top", c.topPort)
	c.barPort = sim.NewPort(c, 1, 4, name+".Bar")
	c.AddPort("Bar", c.barPort)

	m := &middleware{Comp: c}
	c.AddMiddleware(m)

	return c
}
