// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package broadq_test

import (
	"testing"
	"unsafe"

	"github.com/broadq-io/broadq"
)

func TestIndirectRoundTrip(t *testing.T) {
	tx, rx := broadq.NewMPMCIndirect(4)
	if err := tx.TrySend(uintptr(0xbeef)); err != nil {
		t.Fatalf("TrySend: %v", err)
	}
	v, err := rx.TryRecv()
	if err != nil || v != 0xbeef {
		t.Fatalf("TryRecv() = (%#x, %v), want (0xbeef, nil)", v, err)
	}
}

func TestBroadcastIndirectFansOut(t *testing.T) {
	tx, rx0 := broadq.NewBroadcastIndirect(4)
	rx1 := rx0.AddStream()

	if err := tx.TrySend(uintptr(7)); err != nil {
		t.Fatalf("TrySend: %v", err)
	}
	for _, rx := range []*broadq.BroadcastReceiver[uintptr]{rx0, rx1} {
		v, err := rx.TryRecv()
		if err != nil || v != 7 {
			t.Fatalf("TryRecv() = (%d, %v), want (7, nil)", v, err)
		}
	}
}

func TestPtrRoundTripPreservesIdentity(t *testing.T) {
	tx, rx := broadq.NewMPMCPtr(4)
	x := new(int)
	*x = 41

	if err := tx.TrySend(unsafe.Pointer(x)); err != nil {
		t.Fatalf("TrySend: %v", err)
	}
	p, err := rx.TryRecv()
	if err != nil {
		t.Fatalf("TryRecv: %v", err)
	}
	if (*int)(p) != x {
		t.Fatal("received pointer does not denote the sent allocation")
	}
}

func TestBroadcastPtrFansOut(t *testing.T) {
	tx, rx0 := broadq.NewBroadcastPtr(4)
	rx1 := rx0.AddStream()

	x := new(int)
	if err := tx.TrySend(unsafe.Pointer(x)); err != nil {
		t.Fatalf("TrySend: %v", err)
	}
	for _, rx := range []*broadq.BroadcastReceiver[unsafe.Pointer]{rx0, rx1} {
		p, err := rx.TryRecv()
		if err != nil || (*int)(p) != x {
			t.Fatalf("TryRecv() = (%v, %v), want the sent pointer", p, err)
		}
	}
}
