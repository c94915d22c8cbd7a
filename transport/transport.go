// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"crypto/tls"
	"time"
)

// A Code is the terminal condition of one transfer attempt. OK means
// the attempt completed the HTTP exchange; every other value
// identifies a transport-level failure class.
type Code int

const (
	// OK indicates the attempt completed the HTTP exchange. The
	// response status code may still be an HTTP error.
	OK Code = iota
	// ResolveError indicates host name resolution failed.
	ResolveError
	// ConnectError indicates the connection could not be established.
	ConnectError
	// TimeoutError indicates the attempt exceeded a timeout, including
	// the low-speed abort.
	TimeoutError
	// TLSError indicates the TLS handshake or certificate verification
	// failed.
	TLSError
	// SendError indicates the request could not be fully sent.
	SendError
	// RecvError indicates the response could not be fully received.
	RecvError
	// EmptyReply indicates the server closed the connection without
	// sending any response.
	EmptyReply
	// Failed indicates any other transport failure.
	Failed
)

var codeNames = []string{
	"",
	"could not resolve host",
	"could not connect to server",
	"operation timed out",
	"TLS connect error",
	"send error",
	"receive error",
	"empty reply from server",
	"transfer failed",
}

// String returns a short description of the code, or the empty string
// for OK.
func (c Code) String() string {
	if c < 0 || int(c) >= len(codeNames) {
		return "unknown error"
	}
	return codeNames[c]
}

// Options configures a Handle for one logical transfer. Apply installs
// the whole set at once; a zero field means the transport default.
type Options struct {
	URL    string
	Method string
	// NoBody suppresses the request body (GET and HEAD semantics).
	NoBody bool
	Body   []byte
	// Headers are raw "Name: value" request header lines, in order.
	Headers []string

	FollowRedirects bool
	KeepAlive       bool

	// Timeout bounds the whole attempt. ConnTimeout bounds dialing.
	Timeout     time.Duration
	ConnTimeout time.Duration

	// LowSpeedLimit/LowSpeedTime arm the slow-transfer abort.
	LowSpeedLimit int64
	LowSpeedTime  time.Duration

	// SendSpeedLimit/RecvSpeedLimit cap per-direction byte rates.
	SendSpeedLimit int64
	RecvSpeedLimit int64

	// BufferSize is the read chunk size for the response body.
	BufferSize int

	// HeaderFunc receives each raw response header line, including the
	// status line and the blank separator line, with line terminators
	// intact. It is called from the transport's I/O context.
	HeaderFunc func(line []byte)

	// BodyFunc receives each chunk of the response body as it arrives.
	// The chunk is only valid for the duration of the call.
	BodyFunc func(chunk []byte)
}

// Info is the post-attempt query surface of a Handle. The eight phase
// counters are cumulative durations measured from the start of the
// attempt, in the libcurl style: each counter records the elapsed time
// at which its phase finished, so differencing adjacent counters
// yields per-phase durations.
type Info struct {
	// ResponseCode is the HTTP status code, or zero if none arrived.
	ResponseCode int

	Queue         time.Duration
	Connect       time.Duration
	AppConnect    time.Duration
	PreTransfer   time.Duration
	PostTransfer  time.Duration
	StartTransfer time.Duration
	Total         time.Duration
	Redirect      time.Duration

	// UploadSpeed and DownloadSpeed are the attempt's byte rates in
	// bytes per second.
	UploadSpeed   float64
	DownloadSpeed float64
}

// A Message reports one completed attempt harvested from a Multi.
type Message struct {
	Handle Handle
	Code   Code
}

// A Handle owns the transport-level state of one transfer. A Handle is
// configured once with Apply, then either driven concurrently by the
// Multi that created it (Add/Remove) or executed synchronously with
// Perform. The same Handle may be reused for another attempt after
// Reset; its identity (interface equality) is stable across reuse,
// which callers rely on for correlation.
//
// Apart from Pause and Unpause, which only touch the data-plane gate,
// a Handle's methods are not safe for concurrent use.
type Handle interface {
	// Apply installs the transfer configuration.
	Apply(o Options)

	// Perform executes the transfer synchronously and returns its
	// terminal code. It must not be called on a handle currently added
	// to a Multi.
	Perform() Code

	// Reset restores the handle to the just-configured state, keeping
	// its identity and configuration, so it can run another attempt.
	Reset()

	// Pause halts data-plane transfer in both directions. Progress
	// already made (headers and body delivered so far) is preserved.
	Pause()

	// Unpause restarts a paused transfer.
	Unpause()

	// Info returns the attempt's status code, timing counters, and
	// byte rates. It is meaningful after the attempt completed.
	Info() Info

	// Err describes the transport failure of the last attempt. It is
	// empty if the attempt succeeded or has not completed.
	Err() string
}

// A Multi coordinates many concurrent Handles over a shared connection
// pool and exposes the event-loop primitives the scheduler drives:
// Perform advances I/O, Poll blocks for activity, Wakeup interrupts
// Poll from any goroutine, and ReadMessage yields completions.
//
// Except for Wakeup, which is safe from any goroutine, a Multi must
// only be touched by the single goroutine driving it.
type Multi interface {
	// NewHandle returns a fresh Handle backed by this Multi's
	// connection pool.
	NewHandle() Handle

	// Add admits a configured handle and starts driving its I/O.
	Add(h Handle)

	// Remove detaches a handle. If the handle's attempt is still in
	// flight it is aborted and no completion message is delivered.
	Remove(h Handle)

	// Perform advances I/O and returns the number of attempts still
	// running.
	Perform() int

	// Timeout returns the multi's poll timeout hint: zero when a
	// completion is already waiting, negative when it has no opinion.
	Timeout() time.Duration

	// Poll blocks until I/O activity, a Wakeup, or the timeout,
	// whichever comes first. A non-positive timeout returns
	// immediately.
	Poll(timeout time.Duration)

	// Wakeup interrupts a concurrent Poll. It is safe to call from
	// any goroutine and never blocks.
	Wakeup()

	// ReadMessage pops one completion, reporting ok false when none
	// are waiting.
	ReadMessage() (Message, bool)

	// Close aborts all running attempts and releases the connection
	// pool.
	Close() error
}

// Config carries the connection-pool tunables of the default Multi
// implementation.
type Config struct {
	// MaxHostConnections caps concurrent connections per host. Zero
	// means unlimited.
	MaxHostConnections int

	// MaxTotalConnections caps idle connections retained in the pool.
	MaxTotalConnections int

	// TLSClientConfig optionally overrides the TLS settings of the
	// pool, e.g. to trust a test server certificate.
	TLSClientConfig *tls.Config
}
