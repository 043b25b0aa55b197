// Package bfsworker computes the shortest collaboration path between two
// actor codes and writes it to a per-query output file.
package bfsworker

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"code.hybscloud.com/cammini/internal/model"
)

// noParent marks the BFS root in a parentTable: it has no predecessor.
const noParent = -1

// Worker computes one (a, b) shortest-path query and writes its result.
// A single Worker is shared by every query: main constructs one and
// QueryDispatcher calls Process on it from its pool goroutines. Process
// keeps all per-query state local, so concurrent calls do not interfere.
type Worker struct {
	store            *model.VertexStore
	outputDir        string
	strategy         Strategy
	frontierCapacity int
	log              *slog.Logger
}

// New builds a Worker. outputDir is where `a.b` result files land;
// frontierCapacity <= 0 falls back to frontierInitialCapacity.
func New(store *model.VertexStore, outputDir string, strategy Strategy, frontierCapacity int, log *slog.Logger) *Worker {
	return &Worker{
		store:            store,
		outputDir:        outputDir,
		strategy:         strategy,
		frontierCapacity: frontierCapacity,
		log:              log,
	}
}

// Process runs the full query: validates a and b, searches if needed,
// writes the output file, and returns the status clause of the stdout
// summary line (the caller formats the final "a.b: <status>. Tempo di
// elaborazione %.3f secondi." line).
//
// Process never returns an error for invalid codes or an unreachable
// target — those are documented query outcomes, not failures. It returns
// an error only for I/O failure writing the output file; every exit path
// still releases what it acquired, aggregated here via multierror instead
// of silent best-effort frees.
func (w *Worker) Process(a, b int32) (status string, err error) {
	var buf bytes.Buffer

	actorA, okA := w.store.Lookup(a)
	if !okA {
		fmt.Fprintf(&buf, "Codice %d non valido\n", a)
		return "Codici invalidi", w.write(a, b, &buf)
	}

	if a == b {
		fmt.Fprintln(&buf, actorA.Format())
		return "Lunghezza minima 0", w.write(a, b, &buf)
	}

	actorB, okB := w.store.Lookup(b)
	if !okB {
		fmt.Fprintf(&buf, "Codice %d non valido\n", b)
		return "Codici invalidi", w.write(a, b, &buf)
	}

	parents, found := w.search(actorA, actorB)
	if !found {
		fmt.Fprintf(&buf, "Non esistono cammini da %d a %d\n", a, b)
		return "Nessun cammino", w.write(a, b, &buf)
	}

	pathLen := writePath(&buf, actorB, parents, w.store)
	return fmt.Sprintf("Lunghezza minima %d", pathLen), w.write(a, b, &buf)
}

// search runs BFS from actorA looking for actorB, returning the parent
// table and whether actorB was reached.
func (w *Worker) search(actorA, actorB *model.Actor) (parentTable, bool) {
	explored := NewExploredSet()
	explored.Add(actorA.Code)

	q := newFrontier(w.frontierCapacity)
	q.Enqueue(actorA.Code)

	parents := newParentTable(w.strategy, w.store.MaxCode())
	parents.Set(actorA.Code, noParent)

	found := false
	for !q.Empty() && !found {
		currentCode := q.Dequeue()
		current, ok := w.store.Lookup(currentCode)
		if !ok {
			continue // graphload does not check neighbor codes against the store; skip an unknown one
		}

		for _, neighborCode := range current.Neighbors {
			if neighborCode == actorB.Code {
				parents.Set(neighborCode, currentCode)
				found = true
				break
			}
			if explored.Contains(neighborCode) {
				continue
			}
			explored.Add(neighborCode)
			q.Enqueue(neighborCode)
			parents.Set(neighborCode, currentCode)
		}
	}

	return parents, found
}

// writePath walks parents from target back to the root and writes each
// actor, in root-to-target order, to buf. Returns the path length: the
// number of edges, i.e. lines written minus one.
func writePath(buf *bytes.Buffer, target *model.Actor, parents parentTable, store *model.VertexStore) int {
	var stack []*model.Actor
	current := target
	for {
		stack = append(stack, current)
		parent, ok := parents.Get(current.Code)
		if !ok || parent == noParent {
			break
		}
		next, ok := store.Lookup(parent)
		if !ok {
			break
		}
		current = next
	}

	for i := len(stack) - 1; i >= 0; i-- {
		fmt.Fprintln(buf, stack[i].Format())
	}

	return len(stack) - 1
}

// write atomically lands buf's contents as "a.b" in outputDir: it writes
// to a uuid-suffixed sibling temp file and renames it into place, so a
// concurrent reader never observes a partially-written result file.
// Cleanup (temp file removal on a failed rename, file-handle close) is
// aggregated via multierror rather than silently ignored.
func (w *Worker) write(a, b int32, buf *bytes.Buffer) (err error) {
	finalPath := filepath.Join(w.outputDir, fmt.Sprintf("%d.%d", a, b))
	tmpPath := finalPath + "." + uuid.NewString() + ".tmp"

	f, openErr := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if openErr != nil {
		return fmt.Errorf("bfsworker: creating temp output file: %w", openErr)
	}

	var result *multierror.Error
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			result = multierror.Append(result, fmt.Errorf("closing temp output file: %w", closeErr))
		}
		if result != nil && len(result.Errors) > 0 {
			if removeErr := os.Remove(tmpPath); removeErr != nil && !os.IsNotExist(removeErr) {
				result = multierror.Append(result, fmt.Errorf("removing stale temp output file: %w", removeErr))
			}
			err = result.ErrorOrNil()
		}
	}()

	if _, writeErr := f.Write(buf.Bytes()); writeErr != nil {
		result = multierror.Append(result, fmt.Errorf("writing temp output file: %w", writeErr))
		return nil // err is set by the deferred func above
	}

	if renameErr := os.Rename(tmpPath, finalPath); renameErr != nil {
		result = multierror.Append(result, fmt.Errorf("renaming temp output file into place: %w", renameErr))
		return nil
	}

	return nil
}

// Summary formats Process's status clause into the full stdout line,
// given the query pair and elapsed wall time.
func Summary(a, b int32, status string, elapsed time.Duration) string {
	return fmt.Sprintf("%d.%d: %s. Tempo di elaborazione %.3f secondi.", a, b, status, elapsed.Seconds())
}
