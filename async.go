// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package broadq

// The Poll variants adapt the engine to task runtimes: where the
// synchronous surface would park an OS thread (or, for senders, refuse
// to), they register a wake callback on the same waiter structure the
// condition-variable park uses, so progress on the opposite side fires
// pending task wakers and parked goroutines alike.
//
// Registration races the opposite side's progress: a publish landing
// between the failed try and registerWaker would find no waker to fire.
// Each Poll therefore re-checks after registering and, if the condition
// changed, notifies its own side, which drains the just-registered
// waker. A spurious wake costs one extra poll; a lost wake would stall
// the task forever.
//
// wake callbacks run on whichever goroutine makes the opposite side's
// progress, possibly while engine locks are held. A callback must only
// schedule its task and return; performing queue operations inside it
// can deadlock.

// PollSend tries to send once and, on ErrFull, arranges for wake to be
// invoked when a consumer next makes progress, instead of parking the
// calling goroutine. Unlike the synchronous surface, an async sender
// can afford to "park" on full this way, because a parked task does not
// occupy an OS thread.
func (s *MPMCSender[T]) PollSend(v T, wake func()) error {
	err := s.TrySend(v)
	if err == nil {
		return nil
	}
	if IsWouldBlock(err) {
		q := s.q
		q.producerWait.registerWaker(wake)
		if q.writeCursor.load()-q.readCursor.load() < q.ring.capacity() || q.senderDisconnected() {
			q.producerWait.notify()
		}
	}
	return err
}

// PollRecv tries to receive once and, on ErrEmpty, arranges for wake to
// be invoked when a producer next publishes.
func (r *MPMCReceiver[T]) PollRecv(wake func()) (T, error) {
	v, err := r.TryRecv()
	if err == nil {
		return v, nil
	}
	if IsWouldBlock(err) {
		q := r.q
		q.consumerWait.registerWaker(wake)
		if q.readCursor.load() != q.writeCursor.load() || q.producers.LoadAcquire() == 0 {
			q.consumerWait.notify()
		}
	}
	return v, err
}

// PollSend is PollSend against a broadcast queue: wake fires on any
// stream's consumer making progress, which is sufficient to re-check
// room against the registry's minimum head.
func (s *BroadcastSender[T]) PollSend(v T, wake func()) error {
	err := s.TrySend(v)
	if err == nil {
		return nil
	}
	if IsWouldBlock(err) {
		q := s.q
		q.producerWait.registerWaker(wake)
		if q.writeCursor.load()-q.registry.minTail.LoadAcquire() < q.ring.capacity() || q.registry.streamCount() == 0 {
			q.producerWait.notify()
		}
	}
	return err
}

// PollRecv is PollRecv against this handle's broadcast stream.
func (r *BroadcastReceiver[T]) PollRecv(wake func()) (T, error) {
	v, err := r.TryRecv()
	if err == nil {
		return v, nil
	}
	if IsWouldBlock(err) {
		q := r.q
		q.consumerWait.registerWaker(wake)
		if r.stream.head.load() != q.writeCursor.load() || q.producers.LoadAcquire() == 0 {
			q.consumerWait.notify()
		}
	}
	return v, err
}
