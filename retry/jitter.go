// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

var (
	jitterLock sync.Mutex
	jitterRand = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// Jitter returns a signed random offset in the range [-max, max]
// seconds. The magnitude follows a log-normal distribution whose
// median is roughly 5% of max and whose spread widens slowly with max,
// so most offsets are small but occasional large ones decorrelate
// callers that fail in lockstep. A non-positive max returns zero.
func Jitter(max float64) float64 {
	if max <= 0 {
		return 0
	}

	// Sigma scales with max, clamped to keep the tail sane.
	const (
		ref      = 1e-3 // 1ms
		sigmaMin = 0.3
		sigmaMax = 1.5
	)
	sigma := 0.4 + 0.3*math.Log1p(max/ref)
	sigma = math.Min(math.Max(sigma, sigmaMin), sigmaMax)

	// Median of the magnitude is about 5% of max.
	mu := math.Log(0.05*max + 1e-12)

	jitterLock.Lock()
	mag := math.Exp(mu + sigma*jitterRand.NormFloat64())
	negative := jitterRand.Intn(2) == 0
	jitterLock.Unlock()

	if mag > max {
		mag = max
	}
	if negative {
		return -mag
	}
	return mag
}
