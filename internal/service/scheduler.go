package service

import (
	"time"

	"github.com/bep/debounce"
)

// Recomputer coalesces recompute triggers. Bursts of uploads collapse
// into a single run after the debounce window instead of recomputing
// server stats once per event.
type Recomputer struct {
	run       func()
	debounced func(func())
	sync      bool
}

func NewRecomputer(delay time.Duration, run func()) *Recomputer {
	return &Recomputer{
		run:       run,
		debounced: debounce.New(delay),
	}
}

// NewSyncRecomputer runs every trigger inline. Used by tests so stats
// assertions don't depend on wall clock delays.
func NewSyncRecomputer(run func()) *Recomputer {
	return &Recomputer{run: run, sync: true}
}

// Trigger schedules a recompute. Calls arriving while one is pending
// are merged into the next run.
func (r *Recomputer) Trigger() {
	if r.sync {
		r.run()
		return
	}

	r.debounced(r.run)
}

// Flush runs the recompute immediately, bypassing the debounce window
func (r *Recomputer) Flush() {
	r.run()
}
