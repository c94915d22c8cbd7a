// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package muxfer provides an asynchronous HTTP client engine: a single
scheduler goroutine drives many in-flight transfers concurrently over
a multiplexed transport on behalf of caller goroutines.

Create a Client to begin making requests.

	client, err := muxfer.NewClient(muxfer.DefaultSettings())
	...
	resp, err := client.Get("https://www.example.com")

For asynchronous use, submit a transfer and keep its state handle. The
handle carries the future of the eventual response and the cooperative
lifecycle triggers:

	req, _ := request.New("GET", "https://www.example.com/archive", nil)
	ts, err := client.SendRequest(req, request.Policy{})
	...
	ts.Pause()
	...
	ts.Resume()
	resp, err := ts.Await(ctx)

Cancellation, pausing, and resuming are cooperative: the trigger
records the caller's intent and wakes the scheduler, which applies it
at its next epoch. Requests from an incompatible state (for example
resuming a transfer that is not paused) are silent no-ops.

For automatic retries, submit with a retry policy built from the
components in package retry:

	policy := retry.Policy{
		MaxRetries:    3,
		ShouldRetry:   retry.AnyOf(retry.TransientErr, retry.StatusCode(503)),
		NextRetryTime: retry.Exponential(1, 10, 2, 0.2),
	}
	resp, err := client.RequestWithRetry(req, request.Policy{}, policy)

Failed attempts are retried at absolute due times computed by the
policy's schedule; the response returned is the final attempt's. A
transport-level failure is data on the response (status zero, error
string set), not a Go error: only cancellation and client shutdown
fail a future.

The per-request tunables (timeouts, bandwidth caps, low-speed abort)
live on request.Policy; the client-wide tunables (connection caps,
poll interval, speed window) live on Settings.
*/
package muxfer
