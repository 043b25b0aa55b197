// Package graphload implements GraphLoader: a single-producer/N-consumer
// pipeline that parses grafo.txt and fills in each vertex's neighbor list.
package graphload

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"code.hybscloud.com/iox"

	"code.hybscloud.com/cammini/internal/model"
	"code.hybscloud.com/cammini/internal/queue"
)

// defaultBufferCapacity is the pipeline's declared capacity absent an
// override; the underlying Ring rounds it up to the next power of two (32).
const defaultBufferCapacity = 20

// Load parses path's lines (`code\tk\tn1…nk\t\n`), looking up and filling
// in each referenced vertex's Neighbors/NeighborCount in store. workers
// consumer goroutines share a bounded ring buffer of bufferCapacity
// (defaultBufferCapacity if <= 0) with one producer goroutine; the
// producer closes the ring once the file is exhausted, and every consumer
// exits on the resulting queue.ErrClosed once it has drained what's left.
//
// Any malformed line, neighbor-count mismatch, unknown vertex code, or I/O
// error aborts the whole load and is returned as the first error observed
// (goroutines still in flight are asked to stop via ctx cancellation, but
// Load does not itself call os.Exit — that decision belongs to main).
func Load(ctx context.Context, log *slog.Logger, path string, store *model.VertexStore, workers, bufferCapacity int) error {
	if workers <= 0 {
		return fmt.Errorf("graphload: workers must be positive, got %d", workers)
	}
	if bufferCapacity <= 0 {
		bufferCapacity = defaultBufferCapacity
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("graphload: opening graph-file: %w", err)
	}
	defer f.Close()

	ring := queue.New[string](bufferCapacity)

	loadCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var errOnce sync.Once
	var firstErr error
	recordErr := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			consume(loadCtx, ring, store, recordErr)
			log.Debug("graph-loader consumer exiting", "worker", workerID)
		}(i)
	}

	produce(loadCtx, f, ring, recordErr)

	wg.Wait()

	return firstErr
}

// produce reads lines from f and deposits them into ring, then closes it.
// It stops early if ctx is cancelled (a consumer hit a fatal parse error),
// still closing the ring so no consumer is left retrying forever.
func produce(ctx context.Context, f *os.File, ring *queue.Ring[string], recordErr func(error)) {
	defer ring.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	backoff := iox.Backoff{}
	enqueue := func(line string) bool {
		for {
			if ctx.Err() != nil {
				return false
			}
			if err := ring.Enqueue(&line); err == nil {
				backoff.Reset()
				return true
			}
			backoff.Wait()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		if !enqueue(line) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		recordErr(fmt.Errorf("graphload: reading graph-file: %w", err))
		return
	}
}

// consume retrieves lines until ring reports ErrClosed (the producer is
// done and the ring is drained) or ctx is cancelled.
func consume(ctx context.Context, ring *queue.Ring[string], store *model.VertexStore, recordErr func(error)) {
	backoff := iox.Backoff{}
	for {
		if ctx.Err() != nil {
			return
		}

		line, err := ring.Dequeue()
		if err != nil {
			if err == queue.ErrClosed {
				return
			}
			backoff.Wait()
			continue
		}
		backoff.Reset()

		if err := updateNeighbors(line, store); err != nil {
			recordErr(err)
			return
		}
	}
}

// updateNeighbors parses one grafo.txt line and fills the referenced
// vertex's Neighbors/NeighborCount.
func updateNeighbors(line string, store *model.VertexStore) error {
	fields := strings.Split(line, "\t")
	// Tolerate a trailing tab before the newline.
	if len(fields) > 0 && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}
	if len(fields) < 2 {
		return fmt.Errorf("graphload: malformed line, expected at least code and count: %q", line)
	}

	code, err := strconv.ParseInt(fields[0], 10, 32)
	if err != nil {
		return fmt.Errorf("graphload: invalid code %q: %w", fields[0], err)
	}

	actor, ok := store.Lookup(int32(code))
	if !ok {
		return fmt.Errorf("graphload: code %d has no matching vertex", code)
	}

	k, err := strconv.Atoi(fields[1])
	if err != nil {
		return fmt.Errorf("graphload: invalid neighbor count %q for code %d: %w", fields[1], code, err)
	}

	neighborFields := fields[2:]
	if len(neighborFields) != k {
		return fmt.Errorf("graphload: neighbor-count mismatch for code %d: found %d, expected %d", code, len(neighborFields), k)
	}

	neighbors := make([]int32, k)
	for i, nf := range neighborFields {
		n, err := strconv.ParseInt(nf, 10, 32)
		if err != nil {
			return fmt.Errorf("graphload: invalid neighbor code %q for code %d: %w", nf, code, err)
		}
		neighbors[i] = int32(n)
	}

	actor.NeighborCount = k
	actor.Neighbors = neighbors

	return nil
}
