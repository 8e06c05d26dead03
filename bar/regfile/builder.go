package regfile

import (
	"github.com/fabriclab/tlpbridge/mem"
	"github.com/fabriclab/tlpbridge/sim"
)

// Builder can build register-file handlers.
type Builder struct {
	engine  sim.Engine
	freq    sim.Freq
	latency int
	storage *mem.Storage
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

// WithLatency sets the number of cycles between accepting an access and
// completing it.
func (b Builder) WithLatency(latency int) Builder {
	b.latency = latency
	return b
}

// WithStorage sets the backing storage. When unset, Build creates a 1 MiB
// storage.
func (b Builder) WithStorage(storage *mem.Storage) Builder {
	b.storage = storage
	return b
}

// WithBufSize sets the incoming buffer capacity of the top port.
func (b Builder) WithBufSize(n int) Builder {
	b.bufSize = n
	return b
}

// Build builds a register-file handler.
func (b Builder) Build(name string) *Comp {
	c := &Comp{}

	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)
	c.Latency = b.latency

	c.Storage = b.storage
	if c.Storage == nil {
		c.Storage = mem.NewStorage(1 << 20)
	}

	c.topPort = sim.NewPort(c, b.bufSize, 4, name+".Top")
	c.AddPort("Top", c.topPort)

	m := &middleware{Comp: c}
	c.AddMiddleware(m)

	return c
}
