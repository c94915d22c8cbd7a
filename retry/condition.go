// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import "github.com/muxfer/muxfer/transport"

// TransientErr is a condition that indicates a retry if the last
// attempt ended with a transport error class that has some prospect of
// succeeding on a later attempt: resolution failure, connect failure,
// operation timeout, TLS connect failure, send error, receive error,
// or an empty reply.
//
// TransientErr only looks at the transport code, so it always returns
// false when a valid HTTP response was received. Compose it with
// StatusCode to also retry on retryable HTTP statuses.
var TransientErr Condition = transientErr

func transientErr(c *Context) bool {
	last := c.LastAttempt()
	if last == nil {
		return false
	}
	switch last.Code {
	case transport.ResolveError,
		transport.ConnectError,
		transport.TimeoutError,
		transport.TLSError,
		transport.SendError,
		transport.RecvError,
		transport.EmptyReply:
		return true
	default:
		return false
	}
}

// defaultStatusCodes are the statuses StatusCode retries on when none
// are given: 429 plus the retryable 5xx family.
var defaultStatusCodes = []int{429, 500, 502, 503, 504}

// StatusCode constructs a condition allowing retries based on the HTTP
// response status of the last attempt. With no arguments it uses the
// default set: 429 (Too Many Requests), 500, 502, 503, and 504.
func StatusCode(ss ...int) Condition {
	if len(ss) == 0 {
		ss = defaultStatusCodes
	}
	ss2 := make([]int, len(ss))
	copy(ss2, ss)
	return func(c *Context) bool {
		last := c.LastAttempt()
		if last == nil {
			return false
		}
		for _, s := range ss2 {
			if last.Response.Status == s {
				return true
			}
		}
		return false
	}
}

// AnyOf composes conditions with short-circuit OR logic: the returned
// condition is true if any sub-condition is true. With no conditions
// it always returns false.
func AnyOf(conds ...Condition) Condition {
	conds2 := make([]Condition, len(conds))
	copy(conds2, conds)
	return func(c *Context) bool {
		for _, cond := range conds2 {
			if cond != nil && cond(c) {
				return true
			}
		}
		return false
	}
}

// AllOf composes conditions with short-circuit AND logic: the returned
// condition is true if every sub-condition is true. With no conditions
// it always returns true.
func AllOf(conds ...Condition) Condition {
	conds2 := make([]Condition, len(conds))
	copy(conds2, conds)
	return func(c *Context) bool {
		for _, cond := range conds2 {
			if cond != nil && !cond(c) {
				return false
			}
		}
		return true
	}
}
