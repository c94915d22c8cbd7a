// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"github.com/muxfer/muxfer/request"
	"github.com/muxfer/muxfer/transport"
)

// An AttemptRecord captures one physical HTTP attempt: the response as
// it stood when the attempt completed, the transport's terminal code,
// and the wall-clock completion time in seconds since the Unix epoch.
type AttemptRecord struct {
	Response   request.Response
	Code       transport.Code
	CompleteAt float64
}

// A Context is the accumulated attempt history handed to the retry
// decision functions. Attempts are ordered oldest first; the last
// element is the most recent attempt.
//
// The scheduler is the only writer of a Context. Conditions and
// Schedules must treat it as read-only.
type Context struct {
	// FirstAttemptAt is the wall-clock time at which the first attempt
	// began, in seconds since the Unix epoch.
	FirstAttemptAt float64

	// Attempts is the history of all attempts made so far.
	Attempts []AttemptRecord
}

// AttemptCount returns the number of attempts made so far.
func (c *Context) AttemptCount() int {
	return len(c.Attempts)
}

// LastAttempt returns the most recent attempt record, or nil if no
// attempt has completed yet.
func (c *Context) LastAttempt() *AttemptRecord {
	if len(c.Attempts) == 0 {
		return nil
	}
	return &c.Attempts[len(c.Attempts)-1]
}

// LastCompleteAt returns the completion time of the most recent
// attempt, or zero if no attempt has completed yet.
func (c *Context) LastCompleteAt() float64 {
	if len(c.Attempts) == 0 {
		return 0
	}
	return c.Attempts[len(c.Attempts)-1].CompleteAt
}

// A Condition decides whether a failed attempt should be retried,
// based on the attempt history.
//
// Every Condition must be safe for concurrent use by multiple
// goroutines. Compose conditions with AnyOf and AllOf.
type Condition func(c *Context) bool

// A Schedule computes when the next retry attempt is due, as an
// absolute wall-clock time in seconds since the Unix epoch. The
// scheduler keys its retry queue on the returned time.
//
// Every Schedule must be safe for concurrent use by multiple
// goroutines.
type Schedule func(c *Context) float64

// A Policy controls if and when retries are done.
//
// MaxRetries does not count the initial attempt, so a zero MaxRetries
// permits exactly one attempt. TotalTimeout bounds the whole sequence
// in seconds measured from the start of the first attempt; zero
// disables the bound. ShouldRetry and NextRetryTime may be nil, in
// which case the defaults used by DefaultPolicy apply.
type Policy struct {
	MaxRetries   int
	TotalTimeout float64

	// ShouldRetry decides whether the last attempt warrants a retry.
	ShouldRetry Condition

	// NextRetryTime schedules the next attempt.
	NextRetryTime Schedule
}

// DefaultPolicy returns the general-purpose retry policy: up to 3
// retries, no overall deadline, retrying on transient transport errors
// or retryable HTTP status codes, with jittered exponential backoff.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: 3}.Normalized()
}

// Normalized returns a copy of p with nil decision functions replaced
// by the defaults: AnyOf(TransientErr, StatusCode()) for the
// condition, and Exponential(0.1, 30, 2, 0.3) for the schedule.
func (p Policy) Normalized() Policy {
	if p.ShouldRetry == nil {
		p.ShouldRetry = AnyOf(TransientErr, StatusCode())
	}
	if p.NextRetryTime == nil {
		p.NextRetryTime = Exponential(0.1, 30, 2, 0.3)
	}
	return p
}
