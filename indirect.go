// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package broadq

import "unsafe"

// NewMPMCIndirect creates a shared MPMC queue over uintptr, for callers
// that want to move already-boxed values (pointers cast via uintptr, or
// arena/handle indices) through the ring without the compiler emitting a
// per-type instantiation. The cost is that the caller owns lifetime
// management of whatever the uintptr denotes; this engine never
// dereferences it.
func NewMPMCIndirect(capacity int) (*MPMCSender[uintptr], *MPMCReceiver[uintptr]) {
	return NewMPMC[uintptr](capacity)
}

// NewBroadcastIndirect is NewMPMCIndirect's broadcast-mode counterpart.
func NewBroadcastIndirect(capacity int) (*BroadcastSender[uintptr], *BroadcastReceiver[uintptr]) {
	return NewBroadcast[uintptr](capacity)
}

// NewMPMCPtr creates a shared MPMC queue over unsafe.Pointer, for
// callers transferring ownership of already-allocated values without
// boxing them a second time into an interface or a generic T.
func NewMPMCPtr(capacity int) (*MPMCSender[unsafe.Pointer], *MPMCReceiver[unsafe.Pointer]) {
	return NewMPMC[unsafe.Pointer](capacity)
}

// NewBroadcastPtr is NewMPMCPtr's broadcast-mode counterpart.
func NewBroadcastPtr(capacity int) (*BroadcastSender[unsafe.Pointer], *BroadcastReceiver[unsafe.Pointer]) {
	return NewBroadcast[unsafe.Pointer](capacity)
}
