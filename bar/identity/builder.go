package identity

import "github.com/fabriclab/tlpbridge/sim"

// Builder can build address-echo handlers.
type Builder struct {
	engine  sim.Engine
	freq    sim.Freq
	latency int
	bufSize int
}

// MakeBuilder creates a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq:    1 * sim.GHz,
		latency: 4,
		bufSize: 16,
	}
}

// WithEngine sets the event engine that the handler uses.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the handler.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithLatency sets the number of cycles between accepting a read and
// responding to it.
func (b Builder) WithLatency(latency int) Builder {
	b.latency = latency
	return b
}

// WithBufSize sets the incoming buffer capacity of the top port.
func (b Builder) WithBufSize(n int) Builder {
	b.bufSize = n
	return b
}

// Build builds an address-echo handler.
func (b Builder) Build(name string) *Comp {
	c := &Comp{}

	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)
	c.Latency = b.latency

	c.topPort = sim.NewPort(c, b.bufSize, 4, name+".Top")
	c.AddPort("Top", c.topPort)

	m := &middleware{Comp: c}
	c.AddMiddleware(m)

	return c
}
