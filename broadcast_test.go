// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package broadq_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/iox"
	"github.com/broadq-io/broadq"
	"github.com/stretchr/testify/require"
)

// With two streams over a capacity-4 ring, each stream sees every item
// in order, and the ring stays full until the slower stream reads.
func TestBroadcastCapacity4TwoStreams(t *testing.T) {
	tx, rx0 := broadq.NewBroadcast[int](4)
	rx1 := rx0.AddStream()

	for i := 0; i < 4; i++ {
		require.NoError(t, tx.TrySend(i))
	}
	require.ErrorIs(t, tx.TrySend(4), broadq.ErrFull)

	for i := 0; i < 4; i++ {
		v, err := rx0.TryRecv()
		require.NoError(t, err)
		require.Equal(t, i, v)
	}
	// still full: rx1 has not read anything yet, min_tail is unmoved.
	require.ErrorIs(t, tx.TrySend(4), broadq.ErrFull)

	for i := 0; i < 4; i++ {
		v, err := rx1.TryRecv()
		require.NoError(t, err)
		require.Equal(t, i, v)
	}
	require.NoError(t, tx.TrySend(4))
}

// A stream added mid-traffic starts at the write cursor: it sees items
// sent after its creation, never items sent before.
func TestBroadcastAddStreamAfterSends(t *testing.T) {
	tx, rx0 := broadq.NewBroadcast[int](8)

	require.NoError(t, tx.TrySend(0))
	require.NoError(t, tx.TrySend(1))

	rx1 := rx0.AddStream()

	require.NoError(t, tx.TrySend(2))
	require.NoError(t, tx.TrySend(3))

	v, err := rx1.TryRecv()
	require.NoError(t, err)
	require.Equal(t, 2, v, "new stream must not see items enqueued before its creation")

	v, err = rx1.TryRecv()
	require.NoError(t, err)
	require.Equal(t, 3, v)

	_, err = rx1.TryRecv()
	require.ErrorIs(t, err, broadq.ErrEmpty)
}

func TestBroadcastUnsubscribeDoesNotStarveOtherStreams(t *testing.T) {
	tx, rx0 := broadq.NewBroadcast[int](4)
	rx1 := rx0.AddStream()
	rx0.Unsubscribe()

	for i := 0; i < 4; i++ {
		require.NoError(t, tx.TrySend(i))
	}

	v, err := rx1.TryRecv()
	require.NoError(t, err)
	require.Equal(t, 0, v)

	// rx0 never reads and is gone; if it still counted toward min_tail
	// this would be Full (min would still be 0, not rx1's advanced 1).
	require.NoError(t, tx.TrySend(4))
}

func TestBroadcastLastStreamRemovedDisconnectsSender(t *testing.T) {
	tx, rx0 := broadq.NewBroadcast[int](4)
	rx0.Close()

	err := tx.TrySend(1)
	require.ErrorIs(t, err, broadq.ErrDisconnected)
}

func TestBroadcastIntoSingleFailsWithMultipleConsumers(t *testing.T) {
	_, rx0 := broadq.NewBroadcast[int](4)
	rx0Clone := rx0.Clone()
	defer rx0Clone.Close()

	_, err := rx0.IntoSingle()
	require.ErrorIs(t, err, broadq.ErrNotSingleConsumer)
}

// IterWith hands the callback a pointer into the ring cell and returns
// the callback's owned result.
func TestBroadcastIterWithInPlaceView(t *testing.T) {
	tx, rx0 := broadq.NewBroadcast[int](8)
	single, err := rx0.IntoSingle()
	require.NoError(t, err)

	require.NoError(t, tx.TrySend(1))
	require.NoError(t, tx.TrySend(2))
	require.NoError(t, tx.TrySend(3))

	ctx := context.Background()
	for _, want := range []int{10, 20, 30} {
		got, err := broadq.IterWith(single, ctx, func(v *int) int { return 10 * *v })
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestBroadcastTryIterWithReturnsEmpty(t *testing.T) {
	_, rx0 := broadq.NewBroadcast[int](4)
	single, err := rx0.IntoSingle()
	require.NoError(t, err)

	_, err = broadq.TryIterWith(single, func(v *int) int { return *v })
	require.ErrorIs(t, err, broadq.ErrEmpty)
}

func TestBroadcastCloneDividesStreamItems(t *testing.T) {
	tx, rx0 := broadq.NewBroadcast[int](8)
	rx0b := rx0.Clone().(*broadq.BroadcastReceiver[int])

	for i := 0; i < 4; i++ {
		require.NoError(t, tx.TrySend(i))
	}

	seen := map[int]bool{}
	for len(seen) < 4 {
		if v, err := rx0.TryRecv(); err == nil {
			seen[v] = true
			continue
		}
		if v, err := rx0b.TryRecv(); err == nil {
			seen[v] = true
			continue
		}
		break
	}
	require.Len(t, seen, 4, "the stream's two consumer handles must together see every item exactly once")
}

// Two consumers dividing one stream, racing a producer across many
// laps: together they must see every item exactly once, while a second
// single-consumer stream independently sees every item in order.
func TestBroadcastConcurrentDivideAndFanOut(t *testing.T) {
	if broadq.RaceEnabled {
		t.Skip("cross-goroutine handoff through the lock-free ring false-positives under -race")
	}
	const total = 2000
	tx, rxA := broadq.NewBroadcast[int](16)
	rxA2 := rxA.Clone().(*broadq.BroadcastReceiver[int])
	rxB := rxA.AddStream()

	var wg sync.WaitGroup
	divided := make([][]int, 2)
	for i, rx := range []*broadq.BroadcastReceiver[int]{rxA, rxA2} {
		i, rx := i, rx
		wg.Add(1)
		go func() {
			defer wg.Done()
			backoff := iox.Backoff{}
			for {
				v, err := rx.TryRecv()
				if err == nil {
					divided[i] = append(divided[i], v)
					backoff = iox.Backoff{}
					continue
				}
				if broadq.IsDisconnected(err) {
					return
				}
				backoff.Wait()
			}
		}()
	}

	var ordered []int
	wg.Add(1)
	go func() {
		defer wg.Done()
		backoff := iox.Backoff{}
		for {
			v, err := rxB.TryRecv()
			if err == nil {
				ordered = append(ordered, v)
				backoff = iox.Backoff{}
				continue
			}
			if broadq.IsDisconnected(err) {
				return
			}
			backoff.Wait()
		}
	}()

	backoff := iox.Backoff{}
	for i := 0; i < total; i++ {
		for {
			err := tx.TrySend(i)
			if err == nil {
				break
			}
			require.ErrorIs(t, err, broadq.ErrFull)
			backoff.Wait()
		}
		backoff = iox.Backoff{}
	}
	tx.Close()
	wg.Wait()

	require.Len(t, ordered, total)
	for i, v := range ordered {
		require.Equal(t, i, v, "single-consumer stream must observe enqueue order")
	}

	combined := append(append([]int(nil), divided[0]...), divided[1]...)
	require.Len(t, combined, total)
	sort.Ints(combined)
	for i, v := range combined {
		require.Equal(t, i, v, "the divided stream's handles must together see every item exactly once")
	}
}

func TestBroadcastRecvWakesOnSend(t *testing.T) {
	if broadq.RaceEnabled {
		t.Skip("cross-goroutine handoff through the lock-free ring false-positives under -race")
	}
	tx, rx0 := broadq.NewBroadcast[int](4)
	defer tx.Close()
	defer rx0.Close()

	done := make(chan int, 1)
	go func() {
		v, err := rx0.Recv(context.Background())
		if err != nil {
			t.Errorf("Recv: %v", err)
			return
		}
		done <- v
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, tx.TrySend(7))

	select {
	case v := <-done:
		require.Equal(t, 7, v)
	case <-time.After(time.Second):
		t.Fatal("Recv did not wake within timeout")
	}
}
