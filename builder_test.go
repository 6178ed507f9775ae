// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package broadq_test

import (
	"testing"

	"github.com/broadq-io/broadq"
	"github.com/stretchr/testify/require"
)

func TestBuilderBuildsWorkingQueue(t *testing.T) {
	b := broadq.New(8).WithWaitStrategy(broadq.WaitStrategy{TrySpins: 16, YieldSpins: 4})
	tx, rx := broadq.Build[string](b)

	require.NoError(t, tx.TrySend("a"))
	v, err := rx.TryRecv()
	require.NoError(t, err)
	require.Equal(t, "a", v)
}

func TestBuilderBuildBroadcast(t *testing.T) {
	tx, rx0 := broadq.BuildBroadcast[int](broadq.New(4))
	rx1 := rx0.AddStream()

	require.NoError(t, tx.TrySend(1))
	v, err := rx0.TryRecv()
	require.NoError(t, err)
	require.Equal(t, 1, v)
	v, err = rx1.TryRecv()
	require.NoError(t, err)
	require.Equal(t, 1, v)
}

func TestBuilderSingleProducerPinsClone(t *testing.T) {
	tx, _ := broadq.Build[int](broadq.New(4).SingleProducer())
	require.Panics(t, func() { tx.Clone() })
}

func TestBuilderSingleConsumerPinsClone(t *testing.T) {
	_, rx := broadq.Build[int](broadq.New(4).SingleConsumer())
	require.Panics(t, func() { rx.Clone() })
}

func TestBuilderPanicsOnNonPositiveCapacity(t *testing.T) {
	require.Panics(t, func() { broadq.New(0) })
}
