// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package muxfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlidingWindow(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		w := newSlidingWindow(4)
		assert.Equal(t, 0.0, w.mean())
		assert.Equal(t, 0.0, w.max())
	})

	t.Run("partial fill", func(t *testing.T) {
		w := newSlidingWindow(4)
		w.push(2)
		w.push(4)
		assert.Equal(t, 3.0, w.mean())
		assert.Equal(t, 4.0, w.max())
	})

	t.Run("wraparound evicts oldest", func(t *testing.T) {
		w := newSlidingWindow(3)
		w.push(10)
		w.push(20)
		w.push(30)
		w.push(40) // evicts 10
		assert.Equal(t, 30.0, w.mean())
		assert.Equal(t, 40.0, w.max())

		w.push(1) // evicts 20
		w.push(1) // evicts 30
		w.push(1) // evicts 40
		assert.Equal(t, 1.0, w.mean())
		assert.Equal(t, 1.0, w.max())
	})

	t.Run("clear", func(t *testing.T) {
		w := newSlidingWindow(2)
		w.push(5)
		w.push(7)
		w.clear()
		assert.Equal(t, 0.0, w.mean())
		assert.Equal(t, 0.0, w.max())
		w.push(3)
		assert.Equal(t, 3.0, w.mean())
	})

	t.Run("bad capacity", func(t *testing.T) {
		assert.Panics(t, func() { newSlidingWindow(0) })
	})
}
