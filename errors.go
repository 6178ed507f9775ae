// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package broadq

import (
	"errors"
	"fmt"

	"code.hybscloud.com/iox"
)

// ErrFull indicates TrySend/PollSend could not proceed because the ring
// has no room for another write. Transient: the caller should retry.
//
// Wraps [iox.ErrWouldBlock] for ecosystem-consistent classification via
// IsWouldBlock, IsSemantic, IsNonFailure.
var ErrFull = fmt.Errorf("broadq: queue is full: %w", iox.ErrWouldBlock)

// ErrEmpty indicates TryRecv/PollRecv could not proceed because there is
// nothing to claim yet. Transient: the caller should retry.
//
// Wraps [iox.ErrWouldBlock] for ecosystem-consistent classification.
var ErrEmpty = fmt.Errorf("broadq: queue is empty: %w", iox.ErrWouldBlock)

// ErrDisconnected is terminal: for a receiver it means the last sender
// handle is gone and everything produced before that has been drained;
// for a sender it means the last receiver of the last stream is gone.
// Unlike ErrFull/ErrEmpty, retrying will never succeed.
var ErrDisconnected = errors.New("broadq: disconnected")

// IsWouldBlock reports whether err indicates the operation would block
// (ErrFull or ErrEmpty). Delegates to [iox.IsWouldBlock] for wrapped
// error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal rather than a
// failure. Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition:
// nil, ErrFull, or ErrEmpty. Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}

// IsDisconnected reports whether err is, or wraps, ErrDisconnected.
func IsDisconnected(err error) bool {
	return errors.Is(err, ErrDisconnected)
}

// ErrNotSingleConsumer is returned by IntoSingle when another consumer
// is registered on the same stream at promotion time.
var ErrNotSingleConsumer = errors.New("broadq: stream has more than one consumer")
