// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package queue provides the bounded single-producer/multi-consumer ring
// buffer GraphLoader's pipeline is built on: one goroutine parses
// grafo.txt lines and deposits them, W goroutines retrieve and apply them
// to the vertex store.
//
// Ring is a non-blocking, lock-free adaptation of an SCQ-style FAA ring
// buffer. "Non-blocking" means Enqueue/Dequeue never park a goroutine
// inside the queue itself — GraphLoader supplies the wait-on-full/wait-on-
// empty semantics a semaphore-based queue would give for free, by retrying
// with an iox Backoff around ErrWouldBlock. Close/ErrClosed give the N
// consumers a way to learn the producer is done without requiring a
// sentinel value of T, which the generic producer/consumer pipeline this
// package backs would otherwise have to agree on per element type.
package queue

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Ring is an FAA-based single-producer/multi-consumer bounded queue.
//
// Exactly one goroutine may call Enqueue; any number may call Dequeue
// concurrently. Capacity rounds up to the next power of two — the
// algorithm's 2n-physical-slots-for-capacity-n precondition — so a caller
// asking for the traditional 20-slot pipeline buffer gets 32.
type Ring[T any] struct {
	_         pad
	head      atomix.Uint64 // consumer index (FAA)
	_         pad
	tail      atomix.Uint64 // producer index (single writer)
	_         pad
	threshold atomix.Int64 // livelock prevention for consumers
	_         pad
	buffer    []slot[T]
	capacity  uint64 // n, usable capacity
	size      uint64 // 2n, physical slots
	mask      uint64 // 2n - 1
	closed    atomix.Bool
}

type slot[T any] struct {
	cycle atomix.Uint64
	data  T
	_     padShort
}

type pad [64]byte
type padShort [24]byte

// New creates a Ring with at least the requested capacity.
// Panics if capacity < 2.
func New[T any](capacity int) *Ring[T] {
	if capacity < 2 {
		panic("queue: capacity must be >= 2")
	}

	n := uint64(roundToPow2(capacity))
	size := n * 2

	q := &Ring[T]{
		buffer:   make([]slot[T], size),
		capacity: n,
		size:     size,
		mask:     size - 1,
	}

	q.threshold.StoreRelaxed(3*int64(n) - 1)

	for i := uint64(0); i < size; i++ {
		q.buffer[i].cycle.StoreRelaxed(i / n)
	}

	return q
}

// Enqueue adds an element to the queue (producer only, single caller).
// Returns ErrWouldBlock if the queue is full.
func (q *Ring[T]) Enqueue(elem *T) error {
	tail := q.tail.LoadRelaxed()
	head := q.head.LoadAcquire()

	if tail >= head+q.capacity {
		return ErrWouldBlock
	}

	cycle := tail / q.capacity
	s := &q.buffer[tail&q.mask]

	if s.cycle.LoadAcquire() != cycle {
		return ErrWouldBlock
	}

	s.data = *elem
	s.cycle.StoreRelease(cycle + 1)
	q.tail.StoreRelaxed(tail + 1)

	q.threshold.StoreRelaxed(3*int64(q.capacity) - 1)

	return nil
}

// Dequeue removes and returns an element (any number of concurrent callers).
// Returns (zero-value, ErrWouldBlock) if the queue is merely empty, or
// (zero-value, ErrClosed) if it is empty and Close has been called — the
// latter is permanent, the former is not.
func (q *Ring[T]) Dequeue() (T, error) {
	if q.threshold.LoadRelaxed() < 0 {
		var zero T
		return zero, q.emptyErr()
	}

	sw := spin.Wait{}
	for {
		myHead := q.head.AddAcqRel(1) - 1

		s := &q.buffer[myHead&q.mask]
		expectedCycle := myHead/q.capacity + 1
		slotCycle := s.cycle.LoadAcquire()

		if slotCycle == expectedCycle {
			elem := s.data
			var zero T
			s.data = zero
			s.cycle.StoreRelease((myHead + q.size) / q.capacity)
			return elem, nil
		}

		if int64(slotCycle) < int64(expectedCycle) {
			s.cycle.CompareAndSwapAcqRel(slotCycle, (myHead+q.size)/q.capacity)

			tail := q.tail.LoadRelaxed()
			if tail <= myHead+1 {
				q.catchup(tail, myHead+1)
				q.threshold.AddAcqRel(-1)
				var zero T
				return zero, q.emptyErr()
			}
			if q.threshold.AddAcqRel(-1) <= 0 {
				var zero T
				return zero, q.emptyErr()
			}
		}
		sw.Once()
	}
}

// Close marks the ring as permanently drained: once empty, Dequeue reports
// ErrClosed instead of ErrWouldBlock. Close itself never blocks and does
// not discard elements already queued — consumers still drain whatever
// was enqueued before Close, and only then see ErrClosed.
//
// The producer calls Close exactly once, after its last Enqueue; it
// replaces threading a nil-valued T through the ring as an end-of-stream
// marker, which required every consumer to agree in advance on what "nil"
// meant for T.
func (q *Ring[T]) Close() {
	q.closed.StoreRelease(true)
}

// Closed reports whether Close has been called.
func (q *Ring[T]) Closed() bool {
	return q.closed.LoadAcquire()
}

func (q *Ring[T]) emptyErr() error {
	if q.closed.LoadAcquire() {
		return ErrClosed
	}
	return ErrWouldBlock
}

func (q *Ring[T]) catchup(tail, head uint64) {
	for tail < head {
		if q.tail.CompareAndSwapRelaxed(tail, head) {
			break
		}
		tail = q.tail.LoadRelaxed()
		head = q.head.LoadRelaxed()
	}
}

// Cap returns the queue's usable capacity (rounded up from the requested one).
func (q *Ring[T]) Cap() int {
	return int(q.capacity)
}

func roundToPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
