// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package broadq

import "context"

// Sender is the interface for enqueueing elements.
//
// Implemented by [MPMCSender] and [BroadcastSender].
type Sender[T any] interface {
	// TrySend adds an element to the queue (non-blocking).
	// Returns nil on success, ErrFull if the ring has no room, or
	// ErrDisconnected if no receiver remains.
	TrySend(v T) error

	// Clone returns another sender handle sharing this queue. The
	// underlying producer count is incremented; closing either handle
	// only decrements it.
	Clone() Sender[T]

	// Close releases this sender handle. When the last sender handle
	// is closed, receivers observe ErrDisconnected once drained.
	Close()
}

// Receiver is the interface for dequeueing elements.
//
// Implemented by [MPMCReceiver] and [BroadcastReceiver].
type Receiver[T any] interface {
	// TryRecv removes and returns an element (non-blocking).
	// Returns ErrEmpty if nothing is available, or ErrDisconnected if
	// no sender remains and everything has been drained.
	TryRecv() (T, error)

	// Recv removes and returns an element, parking the calling
	// goroutine (via the queue's wait strategy) while empty. Returns
	// early with ctx.Err() if ctx is cancelled before an element or a
	// disconnect is observed.
	Recv(ctx context.Context) (T, error)

	// Close releases this receiver handle.
	Close()
}

// pad is cache line padding to prevent false sharing.
type pad [64]byte

// padShort is padding to fill a cache line after an 8-byte field.
type padShort [64 - 8]byte

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
