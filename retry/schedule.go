// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import "math"

// Exponential constructs a schedule implementing exponential backoff
// with optional jitter.
//
// The delay before the next attempt is
//
//	d = min(base * mult^attempts, max)
//
// in seconds, where attempts is the number of attempts made so far. If
// jitterFactor is positive, a signed log-normal jitter bounded by
// d * jitterFactor is added and the result is floored at zero. The
// returned time is the last attempt's completion time plus the delay.
//
// Base must be positive and max must be at least base.
func Exponential(base, max, mult, jitterFactor float64) Schedule {
	if base <= 0 {
		panic("muxfer/retry: base must be positive")
	}
	if max < base {
		panic("muxfer/retry: max must be at least base")
	}
	return func(c *Context) float64 {
		d := base * math.Pow(mult, float64(c.AttemptCount()))
		d = math.Min(d, max)
		if jitterFactor > 0 {
			d += Jitter(d * jitterFactor)
			d = math.Max(0, d)
		}
		return c.LastCompleteAt() + d
	}
}

// Linear constructs a schedule whose delay grows linearly with each
// attempt:
//
//	d = min(initial + increment * attempts, max)
//
// in seconds. The returned time is the last attempt's completion time
// plus the delay.
func Linear(initial, increment, max float64) Schedule {
	return func(c *Context) float64 {
		d := initial + increment*float64(c.AttemptCount())
		d = math.Min(d, max)
		return c.LastCompleteAt() + d
	}
}

// Fixed constructs a schedule with a constant delay of d seconds after
// each attempt.
func Fixed(d float64) Schedule {
	return func(c *Context) float64 {
		return c.LastCompleteAt() + d
	}
}

// Immediate constructs a schedule that retries as soon as the previous
// attempt completed.
func Immediate() Schedule {
	return func(c *Context) float64 {
		return c.LastCompleteAt()
	}
}
