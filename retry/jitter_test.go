// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJitter(t *testing.T) {
	t.Run("bounded", func(t *testing.T) {
		const max = 2.0
		for i := 0; i < 1000; i++ {
			j := Jitter(max)
			assert.LessOrEqual(t, math.Abs(j), max)
		}
	})

	t.Run("zero and negative max", func(t *testing.T) {
		assert.Equal(t, 0.0, Jitter(0))
		assert.Equal(t, 0.0, Jitter(-1))
	})

	t.Run("both signs occur", func(t *testing.T) {
		var pos, neg int
		for i := 0; i < 1000; i++ {
			if j := Jitter(1); j > 0 {
				pos++
			} else if j < 0 {
				neg++
			}
		}
		assert.Greater(t, pos, 0)
		assert.Greater(t, neg, 0)
	})

	t.Run("magnitudes skew small", func(t *testing.T) {
		// The log-normal median is about 5% of max, so well over half
		// of all samples should be below a quarter of max.
		small := 0
		for i := 0; i < 1000; i++ {
			if math.Abs(Jitter(1)) < 0.25 {
				small++
			}
		}
		assert.Greater(t, small, 500)
	})
}
