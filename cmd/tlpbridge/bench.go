package main

import (
	"log"

	"github.com/spf13/cobra"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Sweep read request lengths and report cycles per request.",
	Run: func(_ *cobra.Command, _ []string) {
		runBench()
	},
}

func runBench() {
	p := buildPlatform()
	engine := p.sim.GetEngine()

	var bar *progressTracker
	if m := p.sim.GetMonitor(); m != nil {
		bar = &progressTracker{m: m}
		bar.start()
	}

	for length := 1; length <= 1024; length *= 2 {
		start := engine.CurrentTime()

		p.agent.EnqueueRead(1, 1, 0x10000, length)

		err := engine.Run()
		if err != nil {
			log.Fatal(err)
		}

		cycles := platformFreq.Cycle(engine.CurrentTime() - start)
		log.Printf("length %4d dwords: %6d cycles", length, cycles)

		if bar != nil {
			bar.step()
		}
	}

	if bar != nil {
		bar.finish()
	}
}

func init() {
	rootCmd.AddCommand(benchCmd)
}
