// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package broadq_test

import (
	"testing"

	"github.com/broadq-io/broadq"
	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	assert.True(t, broadq.IsWouldBlock(broadq.ErrFull))
	assert.True(t, broadq.IsWouldBlock(broadq.ErrEmpty))
	assert.False(t, broadq.IsWouldBlock(broadq.ErrDisconnected))
	assert.False(t, broadq.IsWouldBlock(nil))

	assert.True(t, broadq.IsDisconnected(broadq.ErrDisconnected))
	assert.False(t, broadq.IsDisconnected(broadq.ErrFull))
	assert.False(t, broadq.IsDisconnected(broadq.ErrEmpty))
	assert.False(t, broadq.IsDisconnected(nil))

	assert.True(t, broadq.IsNonFailure(nil))
	assert.True(t, broadq.IsNonFailure(broadq.ErrFull))
	assert.True(t, broadq.IsNonFailure(broadq.ErrEmpty))
}
