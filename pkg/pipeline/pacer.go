package pipeline

import (
	"time"
)

// Pacer blocks between calls to the generation service.
type Pacer interface {
	Wait()
}

// IntervalPacer sleeps for a fixed interval on every Wait.
type IntervalPacer time.Duration

func (p IntervalPacer) Wait() {
	if p > 0 {
		time.Sleep(time.Duration(p))
	}
}

// NoPacer never blocks.
type NoPacer struct{}

func (NoPacer) Wait() {}
