package main

import (
	"log"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run demo traffic through the bridge.",
	Run: func(_ *cobra.Command, _ []string) {
		runDemo()
	},
}

func runDemo() {
	p := buildPlatform()
	engine := p.sim.GetEngine()

	// First phase: fill the register file.
	data := make([]uint32, 16)
	for i := range data {
		data[i] = 0xcafe0000 + uint32(i)
	}
	p.agent.EnqueueWrite(0, 0x100, data, 0xf, 0xf)
	p.agent.EnqueueWrite(0, 0x200, []uint32{0x12345678}, 0x3, 0x0)

	err := engine.Run()
	if err != nil {
		log.Fatal(err)
	}

	// Second phase: read everything back, plus an echo read that crosses
	// the read completion boundary.
	p.agent.EnqueueRead(0, 1, 0x100, 16)
	p.agent.EnqueueRead(0, 2, 0x200, 1)
	p.agent.EnqueueRead(1, 3, 0x1004, 40)

	err = engine.Run()
	if err != nil {
		log.Fatal(err)
	}

	for _, c := range p.agent.Completions {
		log.Printf("tag %d: %d dwords, first 0x%08x",
			c.Tag, len(c.Data), c.Data[0])
	}

	log.Printf("simulated time: %.9f s, pending reads: %d",
		float64(engine.CurrentTime()), p.agent.PendingReads())
}

func init() {
	rootCmd.AddCommand(runCmd)
}
