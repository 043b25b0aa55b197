// Package signalcoord runs the dedicated SIGINT-handling goroutine and
// owns the two termination flags main and QueryDispatcher read.
//
// Go has no per-goroutine signal mask, so the C source's "block SIGINT
// everywhere except the signal-handler thread" becomes: nothing but this
// package calls signal.Notify. Every other goroutine simply never asks
// for SIGINT, which has the same effect.
package signalcoord

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"code.hybscloud.com/atomix"
)

// Flags are the two single-writer/multi-reader termination flags the
// system coordinates shutdown through: FinishedGraph flips false→true
// exactly once, by main, after GraphLoader returns; MustShutdown flips
// false→true exactly once, by the Coordinator, on SIGINT received after
// FinishedGraph is true.
type Flags struct {
	finishedGraph atomix.Bool
	mustShutdown  atomix.Bool
}

// FinishedGraph reports whether the graph build has completed.
func (f *Flags) FinishedGraph() bool { return f.finishedGraph.LoadAcquire() }

// SetFinishedGraph is called exactly once, by main, once GraphLoader
// returns successfully.
func (f *Flags) SetFinishedGraph() { f.finishedGraph.StoreRelease(true) }

// MustShutdown reports whether an orderly shutdown has been requested.
func (f *Flags) MustShutdown() bool { return f.mustShutdown.LoadAcquire() }

// Coordinator runs as a detached goroutine, consuming SIGINT and driving
// Flags through a two-phase state machine:
//
//   - while !FinishedGraph: each SIGINT logs and is otherwise ignored
//     (graph loading is all-or-nothing and not resumable).
//   - once FinishedGraph: the first SIGINT sets MustShutdown and the
//     goroutine returns; further signals use the process default.
type Coordinator struct {
	flags *Flags
	log   *slog.Logger
}

// New creates a Coordinator sharing flags, ready to Run.
func New(flags *Flags, log *slog.Logger) *Coordinator {
	return &Coordinator{flags: flags, log: log}
}

// Run blocks consuming SIGINT until MustShutdown is set, then returns.
// It is meant to be launched with `go coordinator.Run()` and left
// detached — nothing joins it; the process exits with it still blocked
// on the signal channel if shutdown happens via FIFO EOF instead of
// SIGINT.
func (c *Coordinator) Run() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT)
	defer signal.Stop(sigCh)

	for sig := range sigCh {
		if sig != syscall.SIGINT {
			continue
		}

		if !c.flags.FinishedGraph() {
			c.log.Info("graph build in progress")
			continue
		}

		c.flags.mustShutdown.StoreRelease(true)
		return
	}
}
