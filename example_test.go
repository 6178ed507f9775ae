// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package broadq_test

import (
	"context"
	"fmt"

	"github.com/broadq-io/broadq"
)

// ExampleNewMPMC demonstrates the shared-consumer queue: each value is
// delivered to exactly one receiver.
func ExampleNewMPMC() {
	tx, rx := broadq.NewMPMC[int](8)

	for i := 1; i <= 3; i++ {
		tx.TrySend(i * 10)
	}

	for {
		v, err := rx.TryRecv()
		if err != nil {
			break
		}
		fmt.Println(v)
	}

	// Output:
	// 10
	// 20
	// 30
}

// ExampleNewBroadcast demonstrates fan-out: every stream sees every
// value, and a stream added later only sees values sent after it.
func ExampleNewBroadcast() {
	tx, logStream := broadq.NewBroadcast[string](8)

	tx.TrySend("alpha")

	metricsStream := logStream.AddStream()
	tx.TrySend("beta")

	for {
		v, err := logStream.TryRecv()
		if err != nil {
			break
		}
		fmt.Println("log:", v)
	}
	for {
		v, err := metricsStream.TryRecv()
		if err != nil {
			break
		}
		fmt.Println("metrics:", v)
	}

	// Output:
	// log: alpha
	// log: beta
	// metrics: beta
}

// ExampleIterWith demonstrates the in-place view on a single-consumer
// stream: the callback reads the value where it sits in the ring and
// returns an owned result.
func ExampleIterWith() {
	tx, rx := broadq.NewBroadcast[[]byte](8)
	single, _ := rx.IntoSingle()

	tx.TrySend([]byte("payload"))

	n, _ := broadq.IterWith(single, context.Background(), func(v *[]byte) int {
		return len(*v)
	})
	fmt.Println(n)

	// Output:
	// 7
}

// ExampleMPMCReceiver_Recv demonstrates draining after the sender side
// closes: buffered values are still delivered, then the disconnect.
func ExampleMPMCReceiver_Recv() {
	tx, rx := broadq.NewMPMC[int](8)
	tx.TrySend(1)
	tx.TrySend(2)
	tx.Close()

	ctx := context.Background()
	for {
		v, err := rx.Recv(ctx)
		if broadq.IsDisconnected(err) {
			fmt.Println("disconnected")
			return
		}
		fmt.Println(v)
	}

	// Output:
	// 1
	// 2
	// disconnected
}
