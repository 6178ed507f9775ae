// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package broadq provides a bounded, lock-free-in-the-fast-path
// multi-producer multi-consumer queue with an optional broadcast mode.
//
// # Quick Start
//
// Shared MPMC, one logical queue, every item delivered to exactly one
// consumer:
//
//	tx, rx := broadq.NewMPMC[Event](1024)
//
//	go func() {
//		for {
//			err := tx.TrySend(ev)
//			if broadq.IsWouldBlock(err) {
//				// backpressure: retry later
//			}
//		}
//	}()
//
//	go func() {
//		for {
//			ev, err := rx.Recv(ctx)
//			if broadq.IsDisconnected(err) {
//				return
//			}
//		}
//	}()
//
// Broadcast, one or more independent streams, every stream sees every
// item exactly once, and a stream's own consumers divide its items among
// themselves:
//
//	tx, rx0 := broadq.NewBroadcast[Event](1024)
//	rx1 := rx0.AddStream() // rx1 only sees items produced from here on
//
//	// rx0's bootstrap handle reads from an implicit stream of its own;
//	// if nothing ever reads from it, call Unsubscribe so that stream
//	// doesn't hold back minTail for everyone else.
//	rx0.Unsubscribe()
//
// # Backpressure
//
// Senders never block. TrySend returns ErrFull when the ring has no
// room; callers retry with backoff (see [code.hybscloud.com/iox.Backoff])
// or propagate the signal upstream. There is no blocking send — only
// PollSend, which lets an async task park instead of the OS thread.
//
// # Async adapter
//
// PollSend/PollRecv give a task-runtime-compatible, non-blocking surface:
// instead of parking the calling goroutine, they register a wake
// callback that fires the next time the opposite side makes progress.
//
//	elem, err := rx.PollRecv(func() { scheduler.Wake(taskID) })
//	if broadq.IsWouldBlock(err) {
//		return // the registered wake callback will re-poll us
//	}
//
// # Single-consumer streams and in-place views
//
// A broadcast stream with exactly one consumer can be promoted to
// [SingleStreamReceiver], which exposes IterWith: the callback runs
// against a reference still resident in the ring cell, avoiding a copy.
//
//	single, err := rx1.IntoSingle()
//	size, err := broadq.IterWith(single, ctx, func(ev *Event) int {
//		return ev.Size
//	})
//
// IntoSingle fails if another consumer is registered on the same stream.
//
// # Capacity
//
// Capacity rounds up to the next power of two, with a floor of 2 cells.
// Construction panics if capacity < 1.
//
// # Thread safety
//
// Give each goroutine its own handle: Clone is cheap, and the live
// handle count is what selects between the CAS advance and the faster
// plain-store advance. Sharing one un-cloned handle between goroutines
// makes that selection wrong and can duplicate deliveries. Handles are
// reference-counted; closing the last sender handle lets receivers
// drain and then observe ErrDisconnected, closing the last receiver of
// the last stream makes subsequent TrySend calls return
// ErrDisconnected.
package broadq
