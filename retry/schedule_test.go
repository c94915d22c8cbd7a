// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ctxWithAttempts(n int, lastCompleteAt float64) *Context {
	c := &Context{}
	for i := 0; i < n; i++ {
		c.Attempts = append(c.Attempts, AttemptRecord{CompleteAt: lastCompleteAt})
	}
	return c
}

func TestExponential(t *testing.T) {
	t.Run("no jitter", func(t *testing.T) {
		sched := Exponential(1, 10, 2, 0)
		assert.Equal(t, 1002.0, sched(ctxWithAttempts(1, 1000)))
		assert.Equal(t, 1004.0, sched(ctxWithAttempts(2, 1000)))
		assert.Equal(t, 1008.0, sched(ctxWithAttempts(3, 1000)))
		// Capped at max.
		assert.Equal(t, 1010.0, sched(ctxWithAttempts(10, 1000)))
	})

	t.Run("jitter bounded", func(t *testing.T) {
		sched := Exponential(1, 10, 2, 0.5)
		for i := 0; i < 100; i++ {
			at := sched(ctxWithAttempts(1, 1000))
			// Delay 2s with jitter in [-1, 1], floored at zero.
			assert.GreaterOrEqual(t, at, 1001.0)
			assert.LessOrEqual(t, at, 1003.0)
		}
	})

	t.Run("bad arguments", func(t *testing.T) {
		assert.Panics(t, func() { Exponential(0, 10, 2, 0) })
		assert.Panics(t, func() { Exponential(5, 1, 2, 0) })
	})
}

func TestLinear(t *testing.T) {
	sched := Linear(1, 0.5, 3)
	assert.Equal(t, 1001.5, sched(ctxWithAttempts(1, 1000)))
	assert.Equal(t, 1002.0, sched(ctxWithAttempts(2, 1000)))
	// Capped at max.
	assert.Equal(t, 1003.0, sched(ctxWithAttempts(100, 1000)))
}

func TestFixed(t *testing.T) {
	sched := Fixed(2.5)
	assert.Equal(t, 1002.5, sched(ctxWithAttempts(1, 1000)))
	assert.Equal(t, 1002.5, sched(ctxWithAttempts(7, 1000)))
}

func TestImmediate(t *testing.T) {
	sched := Immediate()
	assert.Equal(t, 1000.0, sched(ctxWithAttempts(1, 1000)))
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 3, p.MaxRetries)
	assert.Equal(t, 0.0, p.TotalTimeout)
	assert.NotNil(t, p.ShouldRetry)
	assert.NotNil(t, p.NextRetryTime)
}

func TestNormalized(t *testing.T) {
	p := Policy{MaxRetries: 1}.Normalized()
	assert.NotNil(t, p.ShouldRetry)
	assert.NotNil(t, p.NextRetryTime)

	custom := Condition(func(*Context) bool { return true })
	p = Policy{ShouldRetry: custom}.Normalized()
	assert.True(t, p.ShouldRetry(&Context{}))
}
