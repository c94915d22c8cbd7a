// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package muxfer

import "sync"

// boundedSemaphore is a counting semaphore bounded above by a fixed
// capacity. Release clamps at the capacity instead of overcounting,
// which lets pause and cancel paths return permits without tracking
// whether a matching acquire happened in the same epoch.
type boundedSemaphore struct {
	mu    sync.Mutex
	cond  *sync.Cond
	count int
	max   int
}

func newBoundedSemaphore(initial, max int) *boundedSemaphore {
	if initial > max {
		panic("muxfer: semaphore initial count above capacity")
	}
	s := &boundedSemaphore{count: initial, max: max}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// acquire blocks until a permit is available and takes it.
func (s *boundedSemaphore) acquire() {
	s.mu.Lock()
	for s.count == 0 {
		s.cond.Wait()
	}
	s.count--
	s.mu.Unlock()
}

// tryAcquire takes a permit if one is available, without blocking.
func (s *boundedSemaphore) tryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count > 0 {
		s.count--
		return true
	}
	return false
}

// release returns a permit, clamped at the capacity, and wakes one
// waiter.
func (s *boundedSemaphore) release() {
	s.mu.Lock()
	if s.count < s.max {
		s.count++
	}
	s.mu.Unlock()
	s.cond.Signal()
}
