// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package broadq

import (
	"context"

	"code.hybscloud.com/spin"
	"github.com/google/uuid"
)

// broadcastQueue is the shared state behind every broadcast handle: the
// ring and producer-side bookkeeping from core[T], plus the stream
// registry that replaces mpmcQueue's single readCursor.
type broadcastQueue[T any] struct {
	*core[T]
	registry *streamRegistry
}

func newBroadcastQueue[T any](capacity int, ws WaitStrategy) *broadcastQueue[T] {
	return &broadcastQueue[T]{
		core:     newCore[T](capacity, ws),
		registry: newStreamRegistry(),
	}
}

// BroadcastSender enqueues into a broadcast queue. Every enqueued value
// is delivered once to every live stream.
type BroadcastSender[T any] struct {
	q *broadcastQueue[T]
}

// BroadcastReceiver is the bootstrap handle returned alongside a
// BroadcastSender, and also the handle type returned by AddStream and
// Clone. It reads from exactly one stream: the handle returned directly
// by NewBroadcast owns an implicit stream of its own, and Unsubscribe
// detaches it without affecting any other stream.
type BroadcastReceiver[T any] struct {
	q        *broadcastQueue[T]
	stream   *streamRecord
	consumer *consumerRecord
}

// NewBroadcast creates a broadcast queue with one initial stream and the
// default wait strategy. Capacity rounds up to the next power of two,
// minimum 2; panics if capacity < 1.
func NewBroadcast[T any](capacity int) (*BroadcastSender[T], *BroadcastReceiver[T]) {
	return NewBroadcastWithWaitStrategy[T](capacity, DefaultWaitStrategy)
}

// NewBroadcastWithWaitStrategy is NewBroadcast with explicit spin
// thresholds for the wait strategy.
func NewBroadcastWithWaitStrategy[T any](capacity int, ws WaitStrategy) (*BroadcastSender[T], *BroadcastReceiver[T]) {
	q := newBroadcastQueue[T](capacity, ws)
	st := q.registry.addStream(q.writeCursor.loadRelaxed())
	return &BroadcastSender[T]{q: q}, &BroadcastReceiver[T]{q: q, stream: st, consumer: st.consumers[0]}
}

// Cap returns the queue's rounded-up capacity.
func (s *BroadcastSender[T]) Cap() int { return int(s.q.ring.capacity()) }

// TrySend enqueues v without blocking, bounded by the slowest stream:
// the registry's cached minimum head is re-derived only on full-queue
// observations, keeping the registry walk off the fast path.
// Disconnection (every stream removed) is checked unconditionally ahead
// of the fullness test, as in the shared MPMC engine.
func (s *BroadcastSender[T]) TrySend(v T) error {
	q := s.q
	r := q.ring
	if q.registry.streamCount() == 0 {
		return ErrDisconnected
	}
	for {
		w := q.writeCursor.load()
		min := q.registry.minTail.LoadAcquire()
		if w-min >= r.capacity() {
			q.registry.recomputeMinTail()
			min = q.registry.minTail.LoadAcquire()
			if w-min >= r.capacity() {
				if q.registry.streamCount() == 0 {
					return ErrDisconnected
				}
				return ErrFull
			}
		}

		single := q.singleProducer()
		myW := w
		if single {
			q.writeCursor.v.StoreRelease(w + 1)
		} else if !q.writeCursor.v.CompareAndSwapAcqRel(w, w+1) {
			continue
		}

		cell := r.at(myW)
		cell.val = v
		cell.seq.StoreRelease(myW + 1)
		q.consumerWait.notify()
		return nil
	}
}

// Clone returns another sender handle sharing this broadcast queue.
// Panics if the queue was built with Builder.SingleProducer().
func (s *BroadcastSender[T]) Clone() Sender[T] {
	if s.q.pinnedSingleProducer {
		panic("broadq: Clone called on a queue built with SingleProducer()")
	}
	s.q.producers.AddAcqRel(1)
	return &BroadcastSender[T]{q: s.q}
}

// Close releases this sender handle. The last Close wakes every parked
// consumer on every stream so they can observe ErrDisconnected.
func (s *BroadcastSender[T]) Close() {
	if s.q.producers.AddAcqRel(-1) == 0 {
		s.q.consumerWait.notifyAll()
	}
}

// Cap returns the queue's rounded-up capacity.
func (r *BroadcastReceiver[T]) Cap() int { return int(r.q.ring.capacity()) }

// StreamID returns the identity of the stream this handle reads from,
// stable for the stream's lifetime and shared by every consumer handle
// registered on it. Useful for a caller inspecting topology, e.g.
// correlating which handles are dividing the same stream's items.
func (r *BroadcastReceiver[T]) StreamID() uuid.UUID { return r.stream.StreamID() }

// ConsumerID returns this handle's own identity within its stream,
// distinct from every other handle on the same stream.
func (r *BroadcastReceiver[T]) ConsumerID() uuid.UUID { return r.consumer.ConsumerID() }

// TryRecv dequeues the stream's next item without blocking: ErrEmpty
// when the stream has caught up with the producers, ErrDisconnected
// when no sender remains and the stream is drained.
//
// In a multi-consumer stream the claim CAS races the copy-out against
// producers a lap ahead, so the consumer pins its claimed position in
// its consumer record first; the registry's minimum accounts for pinned
// positions, keeping producers away from the cell until the copy
// completes and the pin clears. A sole consumer advances the head only
// after copying, which pins implicitly.
func (r *BroadcastReceiver[T]) TryRecv() (T, error) {
	q := r.q
	var zero T
	for {
		h := r.stream.head.load()
		w := q.writeCursor.load()
		if h == w {
			if q.producers.LoadAcquire() == 0 {
				return zero, ErrDisconnected
			}
			return zero, ErrEmpty
		}

		if r.stream.singleConsumer() {
			cell := q.ring.at(h)
			expected := h + 1
			sw := spin.Wait{}
			for cell.seq.LoadAcquire() != expected {
				sw.Once()
			}
			val := cell.val
			r.stream.head.v.StoreRelease(h + 1)
			q.registry.recomputeMinTail()
			q.producerWait.notify()
			return val, nil
		}

		r.consumer.inflight.StoreRelease(h)
		if !r.stream.head.v.CompareAndSwapAcqRel(h, h+1) {
			r.consumer.inflight.StoreRelease(inflightIdle)
			continue
		}

		cell := q.ring.at(h)
		expected := h + 1
		sw := spin.Wait{}
		for cell.seq.LoadAcquire() != expected {
			sw.Once()
		}
		val := cell.val
		r.consumer.inflight.StoreRelease(inflightIdle)

		q.registry.recomputeMinTail()
		q.producerWait.notify()
		return val, nil
	}
}

// Recv dequeues from this handle's stream, parking the calling
// goroutine via the queue's wait strategy while the stream is empty.
func (r *BroadcastReceiver[T]) Recv(ctx context.Context) (T, error) {
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

// Clone adds another cooperating consumer to this handle's stream. The
// new handle and the original divide that stream's items between them.
// Panics if the queue was built with Builder.SingleConsumer().
func (r *BroadcastReceiver[T]) Clone() Receiver[T] {
	if r.q.pinnedSingleConsumer {
		panic("broadq: Clone called on a queue built with SingleConsumer()")
	}
	c := r.q.registry.addConsumer(r.stream)
	return &BroadcastReceiver[T]{q: r.q, stream: r.stream, consumer: c}
}

// Close removes this handle from its stream. If it was the stream's
// last consumer, the stream itself is removed so it stops bounding the
// producers, and if that leaves the registry with no streams at all,
// the sender side becomes disconnected.
func (r *BroadcastReceiver[T]) Close() {
	r.q.registry.removeConsumer(r.stream, r.consumer)
	if r.q.registry.streamCount() == 0 {
		r.q.producerWait.notifyAll()
	}
}

// AddStream creates a new stream that will see every item sent from
// this point on, none sent earlier. The returned handle is that
// stream's sole initial consumer.
func (r *BroadcastReceiver[T]) AddStream() *BroadcastReceiver[T] {
	st := r.q.registry.addStream(r.q.writeCursor.load())
	return &BroadcastReceiver[T]{q: r.q, stream: st, consumer: st.consumers[0]}
}

// Unsubscribe detaches this handle from its stream without affecting
// any other stream. The bootstrap receiver returned by NewBroadcast is
// the usual caller: if nothing ever reads from it, detaching it keeps
// its never-advancing stream from blocking producers on behalf of
// streams added later. Equivalent to Close.
func (r *BroadcastReceiver[T]) Unsubscribe() {
	r.Close()
}

// IntoSingle promotes this handle to a SingleStreamReceiver exposing the
// in-place view API. It fails with ErrNotSingleConsumer if another
// consumer is currently registered on the same stream. The original
// handle must not be used (or cloned) after a successful promotion; the
// view contract assumes the stream stays single-consumer.
func (r *BroadcastReceiver[T]) IntoSingle() (*SingleStreamReceiver[T], error) {
	if !r.stream.singleConsumer() {
		return nil, ErrNotSingleConsumer
	}
	return &SingleStreamReceiver[T]{r: r}, nil
}

// SingleStreamReceiver is a broadcast stream handle known to be the only
// consumer of its stream, exposing the IterWith/TryIterWith borrowed-view
// API in place of TryRecv/Recv's copy-out API.
type SingleStreamReceiver[T any] struct {
	r *BroadcastReceiver[T]
}

// Close releases this handle, same as BroadcastReceiver.Close.
func (r *SingleStreamReceiver[T]) Close() { r.r.Close() }

// claimAndApply invokes f against the next cell in place if one is
// ready, advances the head only after f returns, and reports whether it
// made progress. The head staying put while f runs is what keeps
// producers (which respect the registry's minimum head) away from the
// viewed cell. The stream's exclusive ownership, checked at IntoSingle
// time, means no CAS is needed.
func claimAndApply[T, R any](r *SingleStreamReceiver[T], f func(v *T) R) (R, bool) {
	var zero R
	st := r.r.stream
	q := r.r.q

	h := st.head.loadRelaxed()
	w := q.writeCursor.load()
	if h == w {
		return zero, false
	}

	cell := q.ring.at(h)
	expected := h + 1
	sw := spin.Wait{}
	for cell.seq.LoadAcquire() != expected {
		sw.Once()
	}

	out := f(&cell.val)

	st.head.v.StoreRelease(h + 1)
	q.registry.recomputeMinTail()
	q.producerWait.notify()
	return out, true
}

// IterWith claims the next item, invokes f with a pointer to it while
// it is still resident in the ring cell, and returns f's result as an
// owned value. The borrow is live for exactly the call to f: the stream
// head advances only after f returns. Parks via the queue's wait
// strategy while the stream is empty.
func IterWith[T, R any](r *SingleStreamReceiver[T], ctx context.Context, f func(v *T) R) (R, error) {
	q := r.r.q
	var out R
	var applyErr error
	err := q.consumerWait.wait(ctx, q.ws,
		func() bool {
			v, ok := claimAndApply(r, f)
			if ok {
				out, applyErr = v, nil
				return true
			}
			return false
		},
		func() bool {
			if q.producers.LoadAcquire() == 0 {
				applyErr = ErrDisconnected
				return true
			}
			return false
		},
	)
	if err != nil {
		var zero R
		return zero, err
	}
	return out, applyErr
}

// TryIterWith is IterWith without parking: it returns ErrEmpty instead
// of blocking when nothing is available yet.
func TryIterWith[T, R any](r *SingleStreamReceiver[T], f func(v *T) R) (R, error) {
	if out, ok := claimAndApply(r, f); ok {
		return out, nil
	}
	var zero R
	q := r.r.q
	h := r.r.stream.head.loadRelaxed()
	w := q.writeCursor.load()
	if h == w && q.producers.LoadAcquire() == 0 {
		return zero, ErrDisconnected
	}
	return zero, ErrEmpty
}
