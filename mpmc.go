// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package broadq

import (
	"context"

	"code.hybscloud.com/spin"
)

// mpmcQueue is the shared state behind every MPMCSender/MPMCReceiver
// handle cloned from the same NewMPMC call. Its readCursor is the only
// consumer-side cursor in this mode, so it doubles as the aggregate
// minimum tail with no caching needed — reading it is already O(1),
// unlike the registry walk broadcast mode needs.
type mpmcQueue[T any] struct {
	*core[T]
	readCursor cursor
}

func newMPMCQueue[T any](capacity int, ws WaitStrategy) *mpmcQueue[T] {
	return &mpmcQueue[T]{core: newCore[T](capacity, ws)}
}

// MPMCSender enqueues into a shared MPMC queue. Every enqueued value is
// delivered to exactly one MPMCReceiver clone.
type MPMCSender[T any] struct {
	q *mpmcQueue[T]
}

// MPMCReceiver dequeues from a shared MPMC queue.
type MPMCReceiver[T any] struct {
	q *mpmcQueue[T]
}

// NewMPMC creates a bounded shared MPMC queue with the default wait
// strategy (park immediately, no spinning). Capacity rounds up to the
// next power of two, minimum 2; panics if capacity < 1.
func NewMPMC[T any](capacity int) (*MPMCSender[T], *MPMCReceiver[T]) {
	return NewMPMCWithWaitStrategy[T](capacity, DefaultWaitStrategy)
}

// NewMPMCWithWaitStrategy is NewMPMC with an explicit wait strategy.
func NewMPMCWithWaitStrategy[T any](capacity int, ws WaitStrategy) (*MPMCSender[T], *MPMCReceiver[T]) {
	q := newMPMCQueue[T](capacity, ws)
	return &MPMCSender[T]{q: q}, &MPMCReceiver[T]{q: q}
}

// Cap returns the queue's rounded-up capacity.
func (s *MPMCSender[T]) Cap() int { return int(s.q.ring.capacity()) }

// TrySend enqueues v without blocking: ErrFull when the ring has no
// room, ErrDisconnected when no receiver remains. Disconnection is
// checked unconditionally, ahead of the fullness test, so that every
// send after the last receiver drops fails as disconnected, not merely
// the ones that also happen to find the ring full.
func (s *MPMCSender[T]) TrySend(v T) error {
	q := s.q
	r := q.ring
	if q.senderDisconnected() {
		return ErrDisconnected
	}
	for {
		w := q.writeCursor.load()
		rd := q.readCursor.load() // this mode's aggregate tail; no registry to walk
		if w-rd >= r.capacity() {
			if q.senderDisconnected() {
				return ErrDisconnected
			}
			return ErrFull
		}

		single := q.singleProducer()
		myW := w
		if single {
			q.writeCursor.v.StoreRelease(w + 1)
		} else if !q.writeCursor.v.CompareAndSwapAcqRel(w, w+1) {
			continue
		}

		// readCursor advances at claim time, one lap before the claimer
		// has necessarily finished copying the old value out. Wait for
		// the slot's free tag before overwriting.
		cell := r.at(myW)
		sw := spin.Wait{}
		for cell.seq.LoadAcquire() != myW {
			sw.Once()
		}
		cell.val = v
		cell.seq.StoreRelease(myW + 1)
		q.consumerWait.notify()
		return nil
	}
}

// Clone returns another sender handle sharing this queue. Panics if the
// queue was built with Builder.SingleProducer().
func (s *MPMCSender[T]) Clone() Sender[T] {
	if s.q.pinnedSingleProducer {
		panic("broadq: Clone called on a queue built with SingleProducer()")
	}
	s.q.producers.AddAcqRel(1)
	return &MPMCSender[T]{q: s.q}
}

// Close releases this sender handle. The last Close makes every parked
// or future Recv observe ErrDisconnected once drained.
func (s *MPMCSender[T]) Close() {
	if s.q.producers.AddAcqRel(-1) == 0 {
		s.q.consumerWait.notifyAll()
	}
}

// Cap returns the queue's rounded-up capacity.
func (r *MPMCReceiver[T]) Cap() int { return int(r.q.ring.capacity()) }

// singleConsumer reports whether this receiver is the queue's only live
// consumer handle, enabling the plain-store fast path on readCursor.
func (q *mpmcQueue[T]) singleConsumer() bool { return q.receivers.LoadAcquire() == 1 }

// TryRecv dequeues without blocking: ErrEmpty when nothing is
// available, ErrDisconnected when no sender remains and the ring is
// drained. The only wait inside is the brief spin between a producer's
// cursor claim and its publish of the same position.
func (r *MPMCReceiver[T]) TryRecv() (T, error) {
	q := r.q
	var zero T
	for {
		rd := q.readCursor.load()
		w := q.writeCursor.load()
		if rd == w {
			if q.producers.LoadAcquire() == 0 {
				return zero, ErrDisconnected
			}
			return zero, ErrEmpty
		}

		single := q.singleConsumer()
		myR := rd
		if single {
			q.readCursor.v.StoreRelease(rd + 1)
		} else if !q.readCursor.v.CompareAndSwapAcqRel(rd, rd+1) {
			continue
		}

		cell := q.ring.at(myR)
		expected := myR + 1
		sw := spin.Wait{}
		for cell.seq.LoadAcquire() != expected {
			sw.Once()
		}
		val := cell.val
		cell.val = zero
		cell.seq.StoreRelease(myR + q.ring.capacity())
		q.producerWait.notify()
		return val, nil
	}
}

// Recv dequeues, parking the calling goroutine via the queue's wait
// strategy while empty. It wakes on producer progress, on the last
// sender's Close, or on ctx cancellation.
func (r *MPMCReceiver[T]) Recv(ctx context.Context) (T, error) {
	q := r.q
	var out T
	var recvErr error
	err := q.consumerWait.wait(ctx, q.ws,
		func() bool {
			v, e := r.TryRecv()
			if e == nil {
				out, recvErr = v, nil
				return true
			}
			if IsDisconnected(e) {
				recvErr = e
				return true
			}
			return false
		},
		func() bool { return q.producers.LoadAcquire() == 0 },
	)
	if err != nil {
		return out, err
	}
	return out, recvErr
}

// Clone returns another receiver handle sharing this queue. Panics if
// the queue was built with Builder.SingleConsumer().
func (r *MPMCReceiver[T]) Clone() Receiver[T] {
	if r.q.pinnedSingleConsumer {
		panic("broadq: Clone called on a queue built with SingleConsumer()")
	}
	r.q.receivers.AddAcqRel(1)
	return &MPMCReceiver[T]{q: r.q}
}

// Close releases this receiver handle. The last Close makes every
// future TrySend observe ErrDisconnected.
func (r *MPMCReceiver[T]) Close() {
	if r.q.receivers.AddAcqRel(-1) == 0 {
		r.q.producerWait.notifyAll()
	}
}
