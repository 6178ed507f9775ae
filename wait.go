// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package broadq

import (
	"context"
	"runtime"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// WaitStrategy configures the escalation a blocked party goes through
// before parking: TrySpins tight re-reads of the blocking cursor, then
// YieldSpins cooperative-yield re-reads, then a condition variable
// park. The zero value parks immediately, trading latency for CPU, and
// is this package's default.
type WaitStrategy struct {
	TrySpins   int
	YieldSpins int
}

// DefaultWaitStrategy parks immediately without spinning first.
var DefaultWaitStrategy = WaitStrategy{TrySpins: 0, YieldSpins: 0}

// side is one direction's wait/wake coordination: either "producers
// waiting for room" or "consumers waiting for data". It backs the
// synchronous condition-variable park and the asynchronous waker list
// with the same structure: a party making progress wakes parked
// goroutines and fires registered task wakers in one notify call, even
// in a mixed sync/async topology.
type side struct {
	mu      sync.Mutex
	cond    *sync.Cond
	waiting atomix.Int64
	wakers  []func()
}

func newSide() *side {
	s := &side{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// notify wakes any parked synchronous waiter and fires every registered
// async waker. Called by the opposite party after it makes progress:
// a producer that published, a consumer that freed a slot.
func (s *side) notify() {
	s.mu.Lock()
	wakers := s.wakers
	s.wakers = nil
	hasWaiters := s.waiting.LoadAcquire() > 0
	s.mu.Unlock()

	for _, w := range wakers {
		w()
	}
	if hasWaiters {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	}
}

// notifyAll is used for terminal transitions (last sender/receiver
// dropped): every parked waiter must wake up and re-check, since the
// condition they were waiting on can no longer become true on its own.
func (s *side) notifyAll() {
	s.notify()
}

// registerWaker records an async wake callback, invoked exactly once
// the next time notify runs. Used by PollSend/PollRecv.
func (s *side) registerWaker(w func()) {
	s.mu.Lock()
	s.wakers = append(s.wakers, w)
	s.mu.Unlock()
}

// wait blocks the calling goroutine until ready() reports true or
// terminal() reports true, escalating through try-spin, yield-spin, and
// condition-variable park. ctx, if non-nil, can cancel the park stage
// early; wait then returns ctx.Err(). ready is re-checked once more
// after terminal() becomes true, since the terminal condition (e.g. last
// sender closed) can be observed concurrently with the final publish.
func (s *side) wait(ctx context.Context, ws WaitStrategy, ready func() bool, terminal func() bool) error {
	if ready() {
		return nil
	}
	if terminal() {
		if ready() {
			return nil
		}
		return ErrDisconnected
	}

	sw := spin.Wait{}
	for i := 0; i < ws.TrySpins; i++ {
		sw.Once()
		if ready() {
			return nil
		}
		if terminal() {
			if ready() {
				return nil
			}
			return ErrDisconnected
		}
	}
	for i := 0; i < ws.YieldSpins; i++ {
		runtime.Gosched()
		if ready() {
			return nil
		}
		if terminal() {
			if ready() {
				return nil
			}
			return ErrDisconnected
		}
	}

	if ctx != nil && ctx.Err() != nil {
		return ctx.Err()
	}

	s.waiting.AddAcqRel(1)
	defer s.waiting.AddAcqRel(-1)

	s.mu.Lock()
	defer s.mu.Unlock()

	var stopWatch func()
	if ctx != nil {
		done := make(chan struct{})
		stopWatch = func() { close(done) }
		go func() {
			select {
			case <-ctx.Done():
				s.mu.Lock()
				s.cond.Broadcast()
				s.mu.Unlock()
			case <-done:
			}
		}()
	}
	defer func() {
		if stopWatch != nil {
			stopWatch()
		}
	}()

	for {
		if ready() {
			return nil
		}
		if terminal() {
			if ready() {
				return nil
			}
			return ErrDisconnected
		}
		if ctx != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		s.cond.Wait()
	}
}
