// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package broadq

// RaceEnabled is true when the race detector is active.
// Used by tests to skip stress tests whose timing assumptions the race
// detector's instrumentation invalidates.
const RaceEnabled = true
