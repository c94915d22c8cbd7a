// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package muxfer

import "time"

// wallClock produces wall-clock seconds since the Unix epoch from a
// monotonic reading anchored at construction, so retry scheduling is
// immune to NTP step adjustments after the client starts.
type wallClock struct {
	wall float64
	base time.Time
}

func newWallClock() *wallClock {
	now := time.Now()
	return &wallClock{
		wall: float64(now.UnixNano()) / float64(time.Second),
		base: now,
	}
}

// now returns the current wall-clock time in seconds since the Unix
// epoch.
func (c *wallClock) now() float64 {
	return c.wall + time.Since(c.base).Seconds()
}
