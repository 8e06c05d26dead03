package main

import "github.com/fabriclab/tlpbridge/monitoring"

// sweepSteps is the number of length points in the benchmark sweep,
// lengths 1 to 1024 doubling each step.
const sweepSteps = 11

// progressTracker reports benchmark progress on the monitoring dashboard.
type progressTracker struct {
	m   *monitoring.Monitor
	bar *monitoring.ProgressBar
}

func (t *progressTracker) start() {
	t.bar = t.m.CreateProgressBar("length sweep", sweepSteps)
}

func (t *progressTracker) step() {
	t.bar.IncrementFinished(1)
}

func (t *progressTracker) finish() {
	t.m.CompleteProgressBar(t.bar)
}
