// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package muxfer

import (
	"regexp"
	"strconv"
	"time"

	"github.com/muxfer/muxfer/request"
	"github.com/muxfer/muxfer/transport"
)

var contentLengthRe = regexp.MustCompile(`(?i)^content-length:\s*(\d+)`)

// A transfer owns one pending or in-flight HTTP exchange: its
// transport handle, the request, the accumulating response, and the
// per-request policy. A transfer is exclusively owned by either the
// scheduler (while queued, active, or awaiting retry) or by one caller
// (blocking mode); it is never shared.
type transfer struct {
	handle   transport.Handle
	req      request.Request
	policy   request.Policy
	settings *Settings
	clock    *wallClock

	resp request.Response

	// contentLength is the parsed Content-Length hint used to
	// pre-reserve the response body, or -1 when unknown.
	contentLength int64
}

// newTransfer acquires a fresh handle from the multi and configures it
// with the settings-derived defaults overlaid by the non-zero policy
// fields.
func newTransfer(m transport.Multi, req request.Request, policy request.Policy, settings *Settings, clock *wallClock) *transfer {
	t := &transfer{
		handle:        m.NewHandle(),
		req:           req,
		policy:        policy,
		settings:      settings,
		clock:         clock,
		contentLength: -1,
	}

	opts := transport.Options{
		URL:             req.URL,
		Headers:         req.Headers,
		FollowRedirects: true,
		KeepAlive:       true,
		Timeout:         policy.Timeout,
		ConnTimeout:     policy.ConnTimeout,
		LowSpeedLimit:   policy.LowSpeedLimit,
		LowSpeedTime:    policy.LowSpeedTime,
		SendSpeedLimit:  policy.SendSpeedLimit,
		RecvSpeedLimit:  policy.RecvSpeedLimit,
		BufferSize:      policy.BufferSize,
		HeaderFunc:      t.onHeader,
		BodyFunc:        t.onBody,
	}

	switch req.Method() {
	case request.GET, request.HEAD:
		opts.Method = req.Method().String()
		opts.NoBody = true
	case request.POST:
		opts.Method = "POST"
		opts.Body = req.Body
	default:
		opts.Method = req.MethodName
		if len(req.Body) > 0 {
			opts.Body = req.Body
		} else {
			opts.NoBody = true
		}
	}

	t.handle.Apply(opts)
	t.resp.Info.StartAt = clock.now()
	return t
}

// onBody receives one chunk of response body from the transport.
func (t *transfer) onBody(chunk []byte) {
	if t.resp.Info.TTFB == 0 {
		delta := t.clock.now() - t.resp.Info.StartAt
		t.resp.Info.TTFB = time.Duration(delta * float64(time.Second))
	}
	if t.contentLength > int64(cap(t.resp.Body)) {
		grown := make([]byte, len(t.resp.Body), t.contentLength)
		copy(grown, t.resp.Body)
		t.resp.Body = grown
	}
	t.resp.Body = append(t.resp.Body, chunk...)
}

// onHeader receives one raw response header line from the transport.
// Status lines and blank separators are dropped; everything else is
// recorded verbatim, and Content-Length is parsed as the body
// pre-allocation hint.
func (t *transfer) onHeader(line []byte) {
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	if len(line) == 0 {
		return
	}
	s := string(line)
	if len(s) >= 5 && s[:5] == "HTTP/" {
		return
	}
	t.resp.Headers = append(t.resp.Headers, s)

	if m := contentLengthRe.FindStringSubmatch(s); m != nil {
		if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			t.contentLength = n
		}
	}
}

// finalize snapshots status and timing from the handle after an
// attempt completes, converting the cumulative phase counters into
// per-phase deltas. It must be called exactly once per attempt; it is
// the only writer of the response's duration fields.
func (t *transfer) finalize(code transport.Code) {
	info := t.handle.Info()
	t.resp.Status = info.ResponseCode

	ti := &t.resp.Info
	ti.Total = info.Total
	ti.Redirect = info.Redirect
	ti.ReceiveTransfer = info.Total - info.StartTransfer
	ti.StartTransfer = info.StartTransfer - info.PostTransfer
	ti.PostTransfer = info.PostTransfer - info.PreTransfer
	ti.PreTransfer = info.PreTransfer - info.AppConnect
	ti.AppConnect = info.AppConnect - info.Connect
	ti.Connect = info.Connect - info.Queue
	ti.Queue = info.Queue
	ti.CompleteAt = t.clock.now()

	if code != transport.OK {
		t.resp.Err = t.handle.Err()
		if t.resp.Err == "" {
			t.resp.Err = code.String()
		}
	}
}

// performBlocking executes the transfer synchronously to completion
// and finalizes it. It never returns partial progress.
func (t *transfer) performBlocking() {
	code := t.handle.Perform()
	t.finalize(code)
}

// reset restores the transfer for another attempt, keeping the
// handle's identity so stored handle references stay valid across
// retries.
func (t *transfer) reset() {
	t.handle.Reset()
	t.resp = request.Response{}
	t.resp.Info.StartAt = t.clock.now()
	t.contentLength = -1
}
