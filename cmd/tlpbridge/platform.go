package main

import (
	"log"

	"github.com/fabriclab/tlpbridge/bar/identity"
	"github.com/fabriclab/tlpbridge/bar/regfile"
	"github.com/fabriclab/tlpbridge/bridge/agent"
	"github.com/fabriclab/tlpbridge/bridge/device"
	"github.com/fabriclab/tlpbridge/sim"
	"github.com/fabriclab/tlpbridge/simulation"
	"github.com/fabriclab/tlpbridge/tracing"
)

const platformFreq = 1 * sim.GHz

// A platform is a simulation with a bridge, two BAR handlers, and a traffic
// agent.
type platform struct {
	sim    *simulation.Simulation
	device *device.Device
	agent  *agent.Comp

	regfile  *regfile.Comp
	identity *identity.Comp
}

func buildSimulation() *simulation.Simulation {
	b := simulation.MakeBuilder()

	if !monitorOn {
		b = b.WithoutMonitoring()
	}
	if monitorPort > 0 {
		b = b.WithMonitorPort(monitorPort)
	}
	if openBrowser {
		b = b.WithBrowser()
	}

	switch traceFormat {
	case "":
	case "csv":
		b = b.WithCSVTracing(traceFile)
	case "sqlite":
		b = b.WithSQLiteTracing(traceFile)
	default:
		log.Fatalf("unknown trace format %q", traceFormat)
	}

	return b.Build()
}

// buildPlatform wires a bridge with a register file on BAR 0 and an
// address-echo handler on BAR 1.
func buildPlatform() *platform {
	p := &platform{}

	p.sim = buildSimulation()
	engine := p.sim.GetEngine()

	p.agent = agent.NewComp("Agent", engine, platformFreq)

	p.device = device.MakeBuilder().
		WithEngine(engine).
		WithFreq(platformFreq).
		WithDeviceID(0x0100).
		WithCplDst(p.agent.RxPort().AsRemote()).
		Build("Bridge")

	p.agent.SetBridgeDst(p.device.TopPort().AsRemote())
	p.device.Connection().PlugIn(p.agent.TxPort())
	p.device.Connection().PlugIn(p.agent.RxPort())

	p.regfile = regfile.MakeBuilder().
		WithEngine(engine).
		WithFreq(platformFreq).
		WithLatency(4).
		Build("Bridge.Bar0")
	p.device.RegisterBar(0, p.regfile.TopPort())

	p.identity = identity.MakeBuilder().
		WithEngine(engine).
		WithFreq(platformFreq).
		WithLatency(4).
		Build("Bridge.Bar1")
	p.device.RegisterBar(1, p.identity.TopPort())

	for _, c := range p.device.Components() {
		p.sim.RegisterComponent(c)
	}
	p.sim.RegisterComponent(p.regfile)
	p.sim.RegisterComponent(p.identity)
	p.sim.RegisterComponent(p.agent)

	if tracer := p.sim.GetVisTracer(); tracer != nil {
		tracing.CollectTrace(p.regfile, tracer)
		tracing.CollectTrace(p.identity, tracer)
	}

	return p
}
