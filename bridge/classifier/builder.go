package classifier

import "github.com/fabriclab/tlpbridge/sim"

// Builder can build classifiers.
type Builder struct {
	engine      sim.Engine
	freq        sim.Freq
	writeDst    sim.RemotePort
	readDst     sim.RemotePort
	writeAccept WriteAccepter
}

// MakeBuilder creates a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq: 1 * sim.GHz,
	}
}

// WithEngine sets the event engine that the classifier uses.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the classifier.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithWriteDst sets the remote port of the write engine.
func (b Builder) WithWriteDst(dst sim.RemotePort) Builder {
	b.writeDst = dst
	return b
}

// WithReadDst sets the remote port of the read engine.
func (b Builder) WithReadDst(dst sim.RemotePort) Builder {
	b.readDst = dst
	return b
}

// WithWriteAccepter sets the accept signal that gates write packets.
func (b Builder) WithWriteAccepter(a WriteAccepter) Builder {
	b.writeAccept = a
	return b
}

// Build builds a classifier.
func (b Builder) Build(name string) *Comp {
	c := &Comp{}

	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)
	c.writeDst = b.writeDst
	c.readDst = b.readDst
	c.writeAccept = b.writeAccept

	c.topPort = sim.NewPort(c, 4, 4, name+".Top")
	c.AddPort("Top", c.topPort)
	c.outPort = sim.NewPort(c, 2, 4, name+".Out")
	c.AddPort("Out", c.outPort)

	m := &middleware{Comp: c}
	c.AddMiddleware(m)

	return c
}
