// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package muxfer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedSemaphore(t *testing.T) {
	t.Run("try acquire", func(t *testing.T) {
		s := newBoundedSemaphore(2, 2)
		assert.True(t, s.tryAcquire())
		assert.True(t, s.tryAcquire())
		assert.False(t, s.tryAcquire())
		s.release()
		assert.True(t, s.tryAcquire())
	})

	t.Run("release clamps at capacity", func(t *testing.T) {
		s := newBoundedSemaphore(1, 1)
		s.release()
		s.release()
		assert.True(t, s.tryAcquire())
		// The extra releases must not have overcounted.
		assert.False(t, s.tryAcquire())
	})

	t.Run("acquire blocks until release", func(t *testing.T) {
		s := newBoundedSemaphore(0, 1)
		acquired := make(chan struct{})
		go func() {
			s.acquire()
			close(acquired)
		}()

		select {
		case <-acquired:
			t.Fatal("acquire did not block on an empty semaphore")
		case <-time.After(50 * time.Millisecond):
		}

		s.release()
		select {
		case <-acquired:
		case <-time.After(time.Second):
			t.Fatal("release did not wake the blocked acquirer")
		}
	})

	t.Run("initial above capacity panics", func(t *testing.T) {
		require.Panics(t, func() { newBoundedSemaphore(2, 1) })
	})
}
