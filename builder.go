// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package broadq

// Builder configures queue creation via a fluent API. The entire
// configuration surface is three numbers — capacity and the two spin
// thresholds — plus the single-producer/single-consumer pinning hints.
//
// Example:
//
//	b := broadq.New(1024).WithWaitStrategy(broadq.WaitStrategy{TrySpins: 64})
//	tx, rx := broadq.Build[Event](b)
//	btx, brx0 := broadq.BuildBroadcast[Event](broadq.New(1024))
type Builder struct {
	capacity       int
	ws             WaitStrategy
	singleProducer bool
	singleConsumer bool
}

// New creates a queue builder with the given capacity and the default
// wait strategy (immediate parking). Capacity rounds up to the next
// power of two, minimum 2; panics if capacity < 1.
func New(capacity int) *Builder {
	if capacity < 1 {
		panic("broadq: capacity must be positive")
	}
	return &Builder{capacity: capacity, ws: DefaultWaitStrategy}
}

// WithWaitStrategy overrides the escalation thresholds used when a
// party cannot make progress.
func (b *Builder) WithWaitStrategy(ws WaitStrategy) *Builder {
	b.ws = ws
	return b
}

// SingleProducer declares that only one goroutine will ever hold a
// sender handle. Clone on the resulting sender panics rather than
// silently promoting to multi, so the producer count stays at one and
// the per-operation refcount read in TrySend always selects the
// plain-store fast path.
func (b *Builder) SingleProducer() *Builder {
	b.singleProducer = true
	return b
}

// SingleConsumer declares that only one goroutine will ever hold a
// receiver handle (or, in broadcast mode, a handle on any one stream).
// Clone on the resulting receiver panics rather than silently promoting
// to multi.
func (b *Builder) SingleConsumer() *Builder {
	b.singleConsumer = true
	return b
}

// Build creates a shared MPMC queue from the builder's configuration.
func Build[T any](b *Builder) (*MPMCSender[T], *MPMCReceiver[T]) {
	q := newMPMCQueue[T](b.capacity, b.ws)
	q.pinnedSingleProducer = b.singleProducer
	q.pinnedSingleConsumer = b.singleConsumer
	return &MPMCSender[T]{q: q}, &MPMCReceiver[T]{q: q}
}

// BuildBroadcast creates a broadcast queue from the builder's
// configuration, with one initial stream.
func BuildBroadcast[T any](b *Builder) (*BroadcastSender[T], *BroadcastReceiver[T]) {
	q := newBroadcastQueue[T](b.capacity, b.ws)
	q.pinnedSingleProducer = b.singleProducer
	q.pinnedSingleConsumer = b.singleConsumer
	st := q.registry.addStream(q.writeCursor.loadRelaxed())
	return &BroadcastSender[T]{q: q}, &BroadcastReceiver[T]{q: q, stream: st, consumer: st.consumers[0]}
}
