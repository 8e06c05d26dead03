package dispatch

import (
	"github.com/fabriclab/tlpbridge/sim"
	"github.com/fabriclab/tlpbridge/tlp"
)

// Builder can build dispatches.
type Builder struct {
	engine sim.Engine
	freq   sim.Freq
	rspDst sim.RemotePort
}

// MakeBuilder creates a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq: 1 * sim.GHz,
	}
}

// WithEngine sets the event engine that the dispatch uses.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency of the dispatch.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithRspDst sets the remote port that receives merged read responses.
func (b Builder) WithRspDst(dst sim.RemotePort) Builder {
	b.rspDst = dst
	return b
}

// Build builds a dispatch.
func (b Builder) Build(name string) *Comp {
	c := &Comp{}

	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)
	c.rspDst = b.rspDst

	c.topPort = sim.NewPort(c, 4, 4, name+".Top")
	c.AddPort("Top", c.topPort)

	for i := 0; i < tlp.NumBars; i++ {
		portName := sim.BuildNameWithIndex(c.Name(), "Bar", i)
		c.barPorts[i] = sim.NewPort(c, 1, 4, portName)
		c.AddPort(sim.BuildNameWithIndex("", "Bar", i), c.barPorts[i])
	}

	m := &middleware{Comp: c}
	c.AddMiddleware(m)

	return c
}
