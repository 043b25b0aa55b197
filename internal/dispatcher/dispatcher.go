// Package dispatcher implements QueryDispatcher: it owns the query FIFO,
// reads fixed-size query records off it, and spawns a BfsWorker per query
// through a bounded worker pool.
package dispatcher

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/JekaMas/workerpool"
	"golang.org/x/sys/unix"

	"code.hybscloud.com/cammini/internal/bfsworker"
	"code.hybscloud.com/cammini/internal/signalcoord"
)

// messageSize is the FIFO wire record: two little-endian int32 values.
const messageSize = 8

// Dispatcher owns the FIFO lifecycle and the BfsWorker pool.
type Dispatcher struct {
	fifoPath          string
	pollInterval      time.Duration
	openRetryInterval time.Duration
	shutdownGrace     time.Duration
	flags             *signalcoord.Flags
	log               *slog.Logger
	worker            *bfsworker.Worker
	pool              *workerpool.WorkerPool
}

// Options configures a Dispatcher. Zero-value durations fall back to
// their documented defaults.
type Options struct {
	FifoPath          string
	PollInterval      time.Duration
	OpenRetryInterval time.Duration
	ShutdownGrace     time.Duration
	MaxWorkers        int
}

// New creates a Dispatcher. worker is shared (read-only, immutable
// VertexStore) across every spawned query; each Process call still runs
// on its own goroutine via the pool.
func New(opts Options, flags *signalcoord.Flags, worker *bfsworker.Worker, log *slog.Logger) *Dispatcher {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	if opts.OpenRetryInterval <= 0 {
		opts.OpenRetryInterval = 1 * time.Second
	}
	if opts.ShutdownGrace <= 0 {
		opts.ShutdownGrace = 20 * time.Second
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 64
	}

	return &Dispatcher{
		fifoPath:          opts.FifoPath,
		pollInterval:      opts.PollInterval,
		openRetryInterval: opts.OpenRetryInterval,
		shutdownGrace:     opts.ShutdownGrace,
		flags:             flags,
		log:               log,
		worker:            worker,
		pool:              workerpool.New(opts.MaxWorkers),
	}
}

// Run creates the FIFO if needed, opens it for reading, and services
// queries until EOF (the last writer closed the pipe) or mustShutdown is
// set. It always ends with the grace-period drain, whether it exits via
// EOF or via shutdown.
func (d *Dispatcher) Run() error {
	if err := unix.Mkfifo(d.fifoPath, 0o660); err != nil && err != unix.EEXIST {
		return fmt.Errorf("dispatcher: creating fifo %s: %w", d.fifoPath, err)
	}

	fd, opened, err := d.openNonBlocking()
	if err != nil {
		return fmt.Errorf("dispatcher: opening fifo %s: %w", d.fifoPath, err)
	}
	if !opened {
		d.drain()
		return nil
	}
	defer unix.Close(fd)

	d.log.Info("fifo reader starting")

	for !d.flags.MustShutdown() {
		ready, err := d.pollReadable(fd)
		if err != nil {
			return fmt.Errorf("dispatcher: polling fifo: %w", err)
		}
		if !ready {
			continue // timeout elapsed, recheck mustShutdown
		}

		buf := make([]byte, messageSize)
		n, err := unix.Read(fd, buf)
		if err != nil {
			return fmt.Errorf("dispatcher: reading fifo: %w", err)
		}
		if n == 0 {
			break // writer closed the pipe
		}
		if n < messageSize {
			return fmt.Errorf("dispatcher: incomplete query record: got %d of %d bytes", n, messageSize)
		}

		a := int32(binary.LittleEndian.Uint32(buf[0:4]))
		b := int32(binary.LittleEndian.Uint32(buf[4:8]))
		d.dispatch(a, b)
	}

	d.drain()
	return nil
}

// openNonBlocking loops opening the FIFO with O_NONBLOCK, tolerating
// ENXIO (no writer connected yet) by retrying after openRetryInterval. It
// gives up and returns false if mustShutdown is observed first, so a
// shutdown signal arriving before any writer connects doesn't wait
// forever. Any other open error is returned.
func (d *Dispatcher) openNonBlocking() (int, bool, error) {
	for {
		if d.flags.MustShutdown() {
			return 0, false, nil
		}

		fd, err := unix.Open(d.fifoPath, unix.O_RDONLY|unix.O_NONBLOCK, 0)
		if err == nil {
			return fd, true, nil
		}
		if err != unix.ENXIO {
			return 0, false, err
		}

		time.Sleep(d.openRetryInterval)
	}
}

// pollReadable blocks up to pollInterval waiting for fd to become
// readable, via unix.Select — the same 500ms-timeout pattern as the
// source, needed because the FIFO's writer (an external process) cannot
// be trusted to make the pipe itself non-blocking.
func (d *Dispatcher) pollReadable(fd int) (bool, error) {
	var readFds unix.FdSet
	fdSet(&readFds, fd)

	timeout := unix.NsecToTimeval(d.pollInterval.Nanoseconds())

	n, err := unix.Select(fd+1, &readFds, nil, nil, &timeout)
	if err != nil {
		if err == unix.EINTR {
			return false, nil
		}
		return false, err
	}
	return n > 0, nil
}

// dispatch hands one query off to the worker pool, which runs it on a
// pool goroutine and logs its summary line to stdout.
func (d *Dispatcher) dispatch(a, b int32) {
	d.log.Debug("query received", "a", a, "b", b)
	d.pool.Submit(func() {
		start := time.Now()
		status, err := d.worker.Process(a, b)
		if err != nil {
			d.log.Error("query failed", "a", a, "b", b, "error", err)
			return
		}
		fmt.Fprintln(os.Stdout, bfsworker.Summary(a, b, status, time.Since(start)))
	})
}

// fdSet marks fd as the sole member of an FdSet. golang.org/x/sys/unix
// exposes FdSet as a raw bitmask with no Zero/Set helpers of its own.
func fdSet(set *unix.FdSet, fd int) {
	set.Bits[fd/64] |= 1 << (uint(fd) % 64)
}

// drain waits up to shutdownGrace for in-flight queries to finish, then
// returns regardless — a worker still running when the timer fires is
// abandoned.
func (d *Dispatcher) drain() {
	d.log.Info("shutdown grace period starting", "grace", d.shutdownGrace)

	done := make(chan struct{})
	go func() {
		d.pool.StopWait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(d.shutdownGrace):
		d.log.Warn("grace period elapsed with workers still running")
	}

	d.log.Info("shutdown grace period complete")
}
