// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package retry provides flexible policies for retrying failed
// transfer attempts, and ready-made conditions and backoff schedules
// for assembling them.
//
// A Policy combines attempt limits with two functions: a Condition
// deciding whether the last attempt warrants a retry, and a Schedule
// computing the absolute wall-clock time at which the next attempt is
// due. The scheduler orders pending retries by that time, so schedules
// return absolute seconds rather than wait durations.
//
// Conditions compose: use the built-in TransientErr and StatusCode
// conditions with the AnyOf and AllOf combinators, or supply your own
// function over the attempt Context:
//
//	policy := retry.Policy{
//		MaxRetries:    3,
//		ShouldRetry:   retry.AnyOf(retry.TransientErr, retry.StatusCode(503)),
//		NextRetryTime: retry.Exponential(1, 10, 2, 0.2),
//	}
//
// Exponential, Linear, Fixed, and Immediate cover the usual backoff
// shapes; Exponential and the Jitter helper add a signed log-normal
// jitter so synchronized failures fan out on retry.
package retry
