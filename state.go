// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package muxfer

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/muxfer/muxfer/request"
	"github.com/muxfer/muxfer/retry"
	"github.com/muxfer/muxfer/transport"
)

// A State is the lifecycle state of a submitted transfer.
//
// Submission implies acceptance, so a transfer starts in Ongoing.
// Pause and Resume are transitional: they record a caller's request
// until the scheduler observes it and commits Paused or Ongoing.
// Completed, Failed, and Cancel are terminal once the scheduler has
// processed them.
type State int32

const (
	Pending State = iota
	Ongoing
	Pause
	Paused
	Resume
	Completed
	Failed
	Cancel
)

var stateNames = []string{
	"Pending",
	"Ongoing",
	"Pause",
	"Paused",
	"Resume",
	"Completed",
	"Failed",
	"Cancel",
}

// String returns the name of the state.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

func (s State) terminal() bool {
	return s == Completed || s == Failed || s == Cancel
}

// A TransferState is the caller-facing control and observation object
// for one in-flight transfer: the future of the eventual response,
// the observable lifecycle state, and the pause/resume/cancel triggers
// that route through the owning client's scheduler.
//
// A TransferState is shared between the submitting caller and the
// scheduler and is safe for concurrent use. It remains valid until
// both parties drop it; the client must outlive every state handle it
// issues.
type TransferState struct {
	id     uuid.UUID
	client *Client

	// handle is an opaque identity used by the scheduler to correlate
	// control events with active transfers. It must never be driven
	// directly through this reference.
	handle transport.Handle

	state atomic.Int32
	done  chan struct{}

	// resp and err are written by the scheduler before done is closed
	// and read by callers only after it is closed.
	resp request.Response
	err  error

	// mu guards the retry block, which the scheduler mutates and
	// callers snapshot.
	mu    sync.Mutex
	retry *retryState
}

type retryState struct {
	policy  retry.Policy
	context retry.Context
}

func newTransferState(client *Client, handle transport.Handle) *TransferState {
	ts := &TransferState{
		id:     uuid.New(),
		client: client,
		handle: handle,
		done:   make(chan struct{}),
	}
	ts.state.Store(int32(Ongoing))
	return ts
}

// ID returns the transfer's correlation id, which also appears in the
// client's log and trace output.
func (ts *TransferState) ID() uuid.UUID {
	return ts.id
}

// State returns the transfer's current lifecycle state.
func (ts *TransferState) State() State {
	return State(ts.state.Load())
}

// Await blocks until the transfer reaches a terminal state or ctx is
// done. On completion it returns the final response; a cancelled
// transfer returns ErrCancelled and a stopped client ErrStopped.
func (ts *TransferState) Await(ctx context.Context) (request.Response, error) {
	select {
	case <-ts.done:
		return ts.resp, ts.err
	case <-ctx.Done():
		return request.Response{}, ctx.Err()
	}
}

// Done returns a channel closed when the transfer reaches a terminal
// state.
func (ts *TransferState) Done() <-chan struct{} {
	return ts.done
}

// Pause asks the scheduler to pause the transfer. It succeeds only
// from Ongoing; any other state makes it a silent no-op.
func (ts *TransferState) Pause() {
	if ts.state.CompareAndSwap(int32(Ongoing), int32(Pause)) {
		ts.client.queueEvent(ts.handle)
	}
}

// Resume asks the scheduler to resume a paused transfer. It succeeds
// only from Paused; any other state makes it a silent no-op.
func (ts *TransferState) Resume() {
	if ts.state.CompareAndSwap(int32(Paused), int32(Resume)) {
		ts.client.queueEvent(ts.handle)
	}
}

// Cancel asks the scheduler to cancel the transfer. Cancel overrides
// any pending pause or resume and is idempotent; cancelling a transfer
// that already reached a terminal state has no effect.
func (ts *TransferState) Cancel() {
	for {
		cur := State(ts.state.Load())
		if cur.terminal() {
			return
		}
		if ts.state.CompareAndSwap(int32(cur), int32(Cancel)) {
			ts.client.queueEvent(ts.handle)
			return
		}
	}
}

// HasRetry reports whether the transfer was submitted with a retry
// policy.
func (ts *TransferState) HasRetry() bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.retry != nil
}

// Attempts returns the number of physical attempts recorded in the
// retry context so far. It is always zero for a transfer submitted
// without a retry policy.
func (ts *TransferState) Attempts() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.retry == nil {
		return 0
	}
	return ts.retry.context.AttemptCount()
}

// RetryContext returns a snapshot of the retry context, or nil if the
// transfer has no retry policy.
func (ts *TransferState) RetryContext() *retry.Context {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.retry == nil {
		return nil
	}
	snap := retry.Context{
		FirstAttemptAt: ts.retry.context.FirstAttemptAt,
		Attempts:       make([]retry.AttemptRecord, len(ts.retry.context.Attempts)),
	}
	copy(snap.Attempts, ts.retry.context.Attempts)
	return &snap
}

// resolve publishes the terminal outcome. Called only by the
// scheduler, exactly once.
func (ts *TransferState) resolve(terminal State, resp request.Response, err error) {
	ts.resp = resp
	ts.err = err
	ts.state.Store(int32(terminal))
	close(ts.done)
}
