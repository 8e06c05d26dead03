package simulation

import (
	"github.com/rs/xid"

	"github.com/fabriclab/tlpbridge/monitoring"
	"github.com/fabriclab/tlpbridge/sim"
	"github.com/fabriclab/tlpbridge/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	monitorOn     bool
	monitorPort   int
	openBrowser   bool
	traceOn       bool
	traceFileName string
	traceToSQLite bool
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		monitorOn: true,
	}
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithBrowser makes the monitor open the dashboard in a browser.
func (b Builder) WithBrowser() Builder {
	b.openBrowser = true
	return b
}

// WithCSVTracing enables task tracing to a CSV file.
func (b Builder) WithCSVTracing(fileName string) Builder {
	b.traceOn = true
	b.traceToSQLite = false
	b.traceFileName = fileName
	return b
}

// WithSQLiteTracing enables task tracing to a SQLite database.
func (b Builder) WithSQLiteTracing(fileName string) Builder {
	b.traceOn = true
	b.traceToSQLite = true
	b.traceFileName = fileName
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	b.parametersMustBeValid()

	s := &Simulation{
		compNameIndex: make(map[string]int),
		portNameIndex: make(map[string]int),
	}

	s.id = xid.New().String()
	s.engine = sim.NewSerialEngine()

	if b.traceOn {
		fileName := b.traceFileName
		if fileName == "" {
			fileName = "tlpbridge_" + s.id
		}

		var backend tracing.TraceWriter
		if b.traceToSQLite {
			backend = tracing.NewSQLiteTracerBackend(fileName)
		} else {
			backend = tracing.NewCSVTracerBackend(fileName)
		}
		backend.Init()

		s.visTracer = tracing.NewDBTracer(s.engine, backend)
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
		s.monitor.RegisterEngine(s.engine)
		s.monitor.StartServer(b.openBrowser)
	}

	return s
}
