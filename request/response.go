// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import "time"

// TransferInfo records the timing of one physical transfer attempt.
//
// StartAt and CompleteAt are absolute wall-clock times in seconds
// since the Unix epoch. The remaining fields are per-phase durations:
// each one covers only its own phase, not the cumulative time since
// the attempt started. They are derived by differencing the
// transport's cumulative counters when the attempt is finalized.
type TransferInfo struct {
	// StartAt is the wall-clock time at which the attempt started.
	StartAt float64

	// Queue is the time spent waiting for a connection slot.
	Queue time.Duration

	// Connect is the time spent establishing the TCP connection. Zero
	// when an idle connection was reused.
	Connect time.Duration

	// AppConnect is the time spent in the TLS handshake.
	AppConnect time.Duration

	// PreTransfer is the time between the connection becoming usable
	// and the first byte of the request going out.
	PreTransfer time.Duration

	// PostTransfer is the time spent sending the request, including
	// the body.
	PostTransfer time.Duration

	// TTFB is the wall-clock delta from StartAt to the first response
	// body byte delivered by the transport.
	TTFB time.Duration

	// StartTransfer is the time between the request being fully sent
	// and the first response byte arriving.
	StartTransfer time.Duration

	// ReceiveTransfer is the time spent receiving the response after
	// the first byte arrived.
	ReceiveTransfer time.Duration

	// Total is the complete duration of the attempt.
	Total time.Duration

	// Redirect is the time consumed by redirect hops before the final
	// transfer.
	Redirect time.Duration

	// CompleteAt is the wall-clock time at which the attempt was
	// finalized.
	CompleteAt float64
}

// A Response is the outcome of one transfer attempt, successful or
// not.
//
// A transport-level failure is data, not an error: it produces a
// Response with Status zero and a non-empty Err, and still carries
// whatever headers, body bytes, and timing the transport accumulated
// before failing. A valid HTTP response with a non-2xx status is a
// normal Response.
type Response struct {
	// Status is the HTTP status code, or zero if the transport failed
	// before any status was received.
	Status int

	// Headers contains the response header fields as raw "Name: value"
	// lines in arrival order. Status lines and blank separator lines
	// are stripped.
	Headers []string

	// Body is the response body received so far.
	Body []byte

	// Err describes the transport failure. It is empty exactly when
	// the transport completed the attempt successfully.
	Err string

	// Info is the timing record of the attempt.
	Info TransferInfo
}

// OK reports whether the transport completed the attempt without
// failing. It says nothing about the HTTP status code.
func (r *Response) OK() bool {
	return r.Err == ""
}
