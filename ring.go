// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package broadq

import (
	"code.hybscloud.com/atomix"
)

// cell is one ring slot. seq is the write-count tag: a producer that
// reserved position p publishes by storing p+1; a consumer that has
// fully drained position p (freeing the slot for position p+capacity)
// stores p+capacity. A reader comparing seq against p+1 knows the value
// is present; a producer comparing seq against p knows the slot is free.
type cell[T any] struct {
	seq atomix.Uint64
	val T
	_   padShort
}

// ring is the fixed-capacity, power-of-two storage array shared by every
// mode built on top of it (shared MPMC, broadcast). Only seq is atomic;
// val is protected by the seq handshake and the minTail bound, never
// accessed concurrently by a writer and a reader.
type ring[T any] struct {
	mask  uint64
	cells []cell[T]
}

// newRing allocates the cell array. The effective capacity is the next
// power of two >= capacity, with a floor of 2: the free tag p+N and the
// published tag p+1 must be distinct values, which a one-cell ring
// cannot provide.
func newRing[T any](capacity int) *ring[T] {
	if capacity < 1 {
		panic("broadq: capacity must be positive")
	}
	n := uint64(roundToPow2(capacity))
	r := &ring[T]{
		mask:  n - 1,
		cells: make([]cell[T], n),
	}
	for i := range r.cells {
		r.cells[i].seq.StoreRelaxed(uint64(i))
	}
	return r
}

func (r *ring[T]) capacity() uint64 { return r.mask + 1 }

func (r *ring[T]) at(pos uint64) *cell[T] { return &r.cells[pos&r.mask] }

// cursor is a 64-bit monotonic logical position, padded so that two
// cursors advanced by opposite sides never share a cache line. Physical
// indices derive by masking; the logical value never wraps in practice.
type cursor struct {
	_ pad
	v atomix.Uint64
	_ pad
}

func (c *cursor) load() uint64 { return c.v.LoadAcquire() }

func (c *cursor) loadRelaxed() uint64 { return c.v.LoadRelaxed() }

// core holds the fields shared by every queue mode built on this ring:
// the storage, the producer-side cursor, the two wait-strategy sides,
// and the reference counts that drive last-sender / last-receiver
// termination.
type core[T any] struct {
	ring *ring[T]

	writeCursor cursor

	// producers/receivers reaching zero is the terminal signal both
	// sides' wait loops re-check on every wakeup.
	producers atomix.Int64 // live sender handles
	receivers atomix.Int64 // live receiver handles (meaning is mode-specific)

	// producerWait/consumerWait are the two sides of the wait strategy.
	// Producers never synchronously park on this engine (TrySend always
	// returns immediately), but PollSend registers async wakers on
	// producerWait so a consumer's progress can resume a parked async
	// sender task.
	producerWait *side
	consumerWait *side

	ws WaitStrategy

	// pinnedSingleProducer/pinnedSingleConsumer record a Builder hint:
	// when set, Clone on that side panics instead of silently promoting
	// the queue to multi-producer/consumer.
	pinnedSingleProducer bool
	pinnedSingleConsumer bool
}

func newCore[T any](capacity int, ws WaitStrategy) *core[T] {
	c := &core[T]{
		ring:         newRing[T](capacity),
		producerWait: newSide(),
		consumerWait: newSide(),
		ws:           ws,
	}
	c.producers.StoreRelaxed(1)
	c.receivers.StoreRelaxed(1)
	return c
}

// singleProducer selects between the CAS advance and the plain-store
// advance of writeCursor per operation, so a Clone is observed by the
// very next TrySend.
func (c *core[T]) singleProducer() bool { return c.producers.LoadAcquire() == 1 }

func (c *core[T]) senderDisconnected() bool { return c.receivers.LoadAcquire() == 0 }
