// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package broadq

import (
	"sync"

	"code.hybscloud.com/atomix"
	"github.com/google/uuid"
)

// inflightIdle marks a consumer record with no claim in progress. Real
// positions stay far below it: they are bounded by the write cursor,
// which would take centuries to saturate 64 bits.
const inflightIdle = ^uint64(0)

// streamRecord is one broadcast stream: an independent view over the
// shared ring with its own head cursor and its own set of cooperating
// consumer handles. consumers is guarded by the registry's mutex, not
// lock-free, since stream/consumer membership changes are rare next to
// sends and receives; refs mirrors len(consumers) as an atomix.Int64 so
// singleConsumer() can be read from the hot TryRecv/IntoSingle paths
// without taking reg.mu.
type streamRecord struct {
	id   uuid.UUID
	head cursor

	consumers []*consumerRecord
	refs      atomix.Int64
}

// consumerRecord is one receiver handle within a stream. Handles within
// the same stream divide that stream's items; handles across different
// streams each see every item. inflight pins the position the handle
// has claimed but not yet copied out, so the minimum-head computation
// holds producers back from a cell still being read.
type consumerRecord struct {
	id       uuid.UUID
	inflight atomix.Uint64
}

// StreamID returns this stream's identity, stable for its lifetime and
// shared by every consumer handle registered on it.
func (s *streamRecord) StreamID() uuid.UUID { return s.id }

// ConsumerID returns this consumer handle's identity, distinct from
// every other handle on the same stream.
func (c *consumerRecord) ConsumerID() uuid.UUID { return c.id }

func (s *streamRecord) singleConsumer() bool { return s.refs.LoadAcquire() == 1 }

// streamRegistry tracks every live stream of a broadcast queue and
// caches the minimum position still unread across them, which is the
// aggregate tail a producer must respect.
type streamRegistry struct {
	mu      sync.RWMutex
	streams []*streamRecord

	minTail atomix.Uint64
}

func newStreamRegistry() *streamRegistry {
	return &streamRegistry{}
}

func newConsumerRecord() *consumerRecord {
	c := &consumerRecord{id: uuid.New()}
	c.inflight.StoreRelaxed(inflightIdle)
	return c
}

// addStream creates a new stream whose head starts at writeFloor, the
// write cursor at creation time: it will see every item sent from that
// point on, none sent earlier.
func (reg *streamRegistry) addStream(writeFloor uint64) *streamRecord {
	st := &streamRecord{id: uuid.New()}
	st.head.v.StoreRelease(writeFloor)
	st.consumers = append(st.consumers, newConsumerRecord())
	st.refs.StoreRelaxed(1)

	reg.mu.Lock()
	reg.streams = append(reg.streams, st)
	reg.mu.Unlock()

	reg.recomputeMinTail()
	return st
}

// addConsumer registers another cooperating consumer handle on an
// existing stream.
func (reg *streamRegistry) addConsumer(st *streamRecord) *consumerRecord {
	c := newConsumerRecord()
	reg.mu.Lock()
	st.consumers = append(st.consumers, c)
	st.refs.AddAcqRel(1)
	reg.mu.Unlock()
	return c
}

// removeConsumer drops one consumer handle from a stream. If that was
// the stream's last handle (refs reaching zero), the stream itself is
// compacted out of the registry: a stream with no remaining reader must
// not hold producers back.
func (reg *streamRegistry) removeConsumer(st *streamRecord, c *consumerRecord) {
	reg.mu.Lock()
	for i, existing := range st.consumers {
		if existing == c {
			st.consumers = append(st.consumers[:i], st.consumers[i+1:]...)
			st.refs.AddAcqRel(-1)
			break
		}
	}
	streamEmpty := st.refs.LoadAcquire() == 0
	if streamEmpty {
		for i, existing := range reg.streams {
			if existing == st {
				reg.streams = append(reg.streams[:i], reg.streams[i+1:]...)
				break
			}
		}
	}
	reg.mu.Unlock()

	reg.recomputeMinTail()
}

// streamCount reports how many streams are currently registered. Used
// by senders to detect the "every stream removed" terminal transition.
func (reg *streamRegistry) streamCount() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.streams)
}

// recomputeMinTail walks every live stream and publishes the minimum
// position still unread, which bounds how far a producer may advance.
// Called by consumers after every head advance and by producers on
// full-queue observations, never on the producer fast path.
//
// Per stream the minimum is the head lowered by any consumer's pinned
// in-flight claim. The head is read before the pins: a pin stored
// before a successful head CAS is therefore visible to any walk that
// already sees the advanced head, so a claimed-but-uncopied position
// never counts as read.
func (reg *streamRegistry) recomputeMinTail() {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	if len(reg.streams) == 0 {
		return
	}
	min := inflightIdle
	for _, st := range reg.streams {
		m := st.head.load()
		for _, c := range st.consumers {
			if inf := c.inflight.LoadAcquire(); inf < m {
				m = inf
			}
		}
		if m < min {
			min = m
		}
	}

	// Publish monotonically. A concurrent walk may have computed a newer
	// (larger) minimum after this one's reads; storing the stale smaller
	// value over it would only shrink the producers' view of free slots,
	// but there is no need to ever regress: the true minimum is
	// non-decreasing.
	for {
		cur := reg.minTail.LoadAcquire()
		if min <= cur {
			return
		}
		if reg.minTail.CompareAndSwapAcqRel(cur, min) {
			return
		}
	}
}
