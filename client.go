// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package muxfer

import (
	"container/heap"
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/muxfer/muxfer/request"
	"github.com/muxfer/muxfer/retry"
	"github.com/muxfer/muxfer/transport"
)

var (
	// ErrCancelled resolves the future of a transfer cancelled through
	// its state handle.
	ErrCancelled = errors.New("muxfer: transfer cancelled")

	// ErrStopped resolves every future still outstanding when the
	// client is stopped, and is returned by submissions attempted
	// after Stop.
	ErrStopped = errors.New("muxfer: client stopped")
)

// A Client is an asynchronous HTTP client engine. One worker goroutine
// owns a multiplexed transport and drives every submitted transfer:
// callers hand requests over a bounded submit queue and await the
// outcome on per-transfer futures, while cancel, pause, and resume
// requests reach the worker out of band through an event queue.
//
// A Client is safe for concurrent use by multiple goroutines. Create
// one with NewClient and reuse it; each Client maintains its own
// connection pool. Stop shuts the worker down and fails all
// outstanding transfers.
type Client struct {
	settings Settings
	log      zerolog.Logger
	tracer   trace.Tracer
	clock    *wallClock
	multi    transport.Multi

	// mu guards the submit and event queues, which producers mutate
	// and the worker splices. It is never held around transport calls.
	mu      sync.Mutex
	submitq []*transferTask
	eventq  []transport.Handle

	stop    atomic.Bool
	stopped chan struct{}

	// sema is the active-transfer budget: producers acquire a permit
	// per submission, the worker returns permits on completion,
	// cancel, and pause.
	sema *boundedSemaphore

	// The fields below are owned by the worker goroutine. active maps
	// transport handle identity to the in-flight task; the invariant
	// is that a handle is attached to the multi iff it is a key here.
	active  map[transport.Handle]*transferTask
	retries retryHeap

	metricsMu sync.Mutex
	uplink    *slidingWindow
	downlink  *slidingWindow
}

// NewClient returns a running client configured by settings. The
// worker goroutine starts immediately and runs until Stop.
func NewClient(settings Settings) (*Client, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	tracer := settings.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("muxfer")
	}
	c := &Client{
		settings: settings,
		log:      settings.Logger,
		tracer:   tracer,
		clock:    newWallClock(),
		multi: transport.NewMulti(transport.Config{
			MaxHostConnections:  settings.MaxHostConnections,
			MaxTotalConnections: settings.MaxTotalConnections,
			TLSClientConfig:     settings.TLSClientConfig,
		}),
		stopped:  make(chan struct{}),
		sema:     newBoundedSemaphore(settings.MaxConnections, settings.MaxConnections),
		active:   make(map[transport.Handle]*transferTask),
		uplink:   newSlidingWindow(settings.SpeedWindowSize),
		downlink: newSlidingWindow(settings.SpeedWindowSize),
	}
	go c.worker()
	return c, nil
}

var (
	defaultOnce   sync.Once
	defaultClient *Client
)

// Default returns the shared client with default settings, creating
// it on first use.
func Default() *Client {
	defaultOnce.Do(func() {
		c, err := NewClient(DefaultSettings())
		if err != nil {
			panic("muxfer: default settings invalid: " + err.Error())
		}
		defaultClient = c
	})
	return defaultClient
}

// Stop shuts the client down: the worker detaches every active
// transfer, resolves every outstanding future with ErrStopped, and
// exits. Stop blocks until the worker has exited and is idempotent.
func (c *Client) Stop() {
	if c.stop.CompareAndSwap(false, true) {
		c.multi.Wakeup()
	}
	<-c.stopped
}

// Request submits a transfer and blocks until it completes, returning
// the final response. A transport-level failure is reported on the
// response, not as an error; the error is non-nil only for
// cancellation, client shutdown, or an invalid request.
func (c *Client) Request(req request.Request, policy request.Policy) (request.Response, error) {
	ts, err := c.SendRequest(req, policy)
	if err != nil {
		return request.Response{}, err
	}
	return ts.Await(context.Background())
}

// RequestWithRetry is Request with a retry policy applied: failed
// attempts are retried per the policy, and the response returned is
// the final attempt's.
func (c *Client) RequestWithRetry(req request.Request, policy request.Policy, rp retry.Policy) (request.Response, error) {
	ts, err := c.SendRequestWithRetry(req, policy, rp)
	if err != nil {
		return request.Response{}, err
	}
	return ts.Await(context.Background())
}

// SendRequest submits a transfer and returns its state handle without
// waiting. SendRequest blocks while the client is at its active
// transfer cap, applying backpressure to producers.
func (c *Client) SendRequest(req request.Request, policy request.Policy) (*TransferState, error) {
	return c.submit(req, policy, nil)
}

// SendRequestWithRetry is SendRequest with a retry policy applied.
func (c *Client) SendRequestWithRetry(req request.Request, policy request.Policy, rp retry.Policy) (*TransferState, error) {
	rp = rp.Normalized()
	return c.submit(req, policy, &rp)
}

func (c *Client) submit(req request.Request, policy request.Policy, rp *retry.Policy) (*TransferState, error) {
	if c.stop.Load() {
		return nil, ErrStopped
	}
	if req.URL == "" {
		return nil, errors.New("muxfer: empty request URL")
	}

	t := newTransfer(c.multi, req, policy, &c.settings, c.clock)
	ts := newTransferState(c, t.handle)
	if rp != nil {
		ts.retry = &retryState{
			policy:  *rp,
			context: retry.Context{FirstAttemptAt: c.clock.now()},
		}
	}
	task := &transferTask{transfer: t, state: ts}

	c.sema.acquire()

	// Decorrelate bursts of simultaneous submitters.
	if d := math.Abs(retry.Jitter(0.010)); d > 0 {
		time.Sleep(time.Duration(d * float64(time.Second)))
	}

	// The stop flag is re-checked under the queue mutex: the worker's
	// shutdown drain holds the same mutex, so a submission either lands
	// before the drain or observes the stop.
	c.mu.Lock()
	if c.stop.Load() {
		c.mu.Unlock()
		c.sema.release()
		return nil, ErrStopped
	}
	c.submitq = append(c.submitq, task)
	c.mu.Unlock()
	c.multi.Wakeup()

	c.log.Debug().
		Stringer("transfer", ts.id).
		Str("method", req.Method().String()).
		Str("url", req.URL).
		Bool("retry", rp != nil).
		Msg("transfer submitted")
	return ts, nil
}

// queueEvent records a control-state change for the worker and
// interrupts its poll.
func (c *Client) queueEvent(h transport.Handle) {
	c.mu.Lock()
	c.eventq = append(c.eventq, h)
	c.mu.Unlock()
	c.multi.Wakeup()
}

// UplinkSpeed returns the mean upload rate in bytes per second over
// the last completed transfers.
func (c *Client) UplinkSpeed() float64 {
	c.metricsMu.Lock()
	defer c.metricsMu.Unlock()
	return c.uplink.mean()
}

// DownlinkSpeed returns the mean download rate in bytes per second
// over the last completed transfers.
func (c *Client) DownlinkSpeed() float64 {
	c.metricsMu.Lock()
	defer c.metricsMu.Unlock()
	return c.downlink.mean()
}

// PeakUplinkSpeed returns the highest upload rate in the window.
func (c *Client) PeakUplinkSpeed() float64 {
	c.metricsMu.Lock()
	defer c.metricsMu.Unlock()
	return c.uplink.max()
}

// PeakDownlinkSpeed returns the highest download rate in the window.
func (c *Client) PeakDownlinkSpeed() float64 {
	c.metricsMu.Lock()
	defer c.metricsMu.Unlock()
	return c.downlink.max()
}

// Settings returns the settings the client was built with.
func (c *Client) Settings() Settings {
	return c.settings
}

// worker is the single goroutine owning the multi and the scheduler
// state. Every iteration drives I/O, harvests completions, services
// due retries, blocks for activity, then applies control events and
// admissions.
func (c *Client) worker() {
	defer close(c.stopped)
	for {
		c.multi.Perform()
		c.harvest()

		poll := c.settings.PollInterval
		if hint := c.multi.Timeout(); hint >= 0 && hint < poll {
			poll = hint
		}
		poll = c.serviceRetries(poll)

		c.multi.Poll(poll)

		if c.stop.Load() {
			c.shutdown()
			return
		}

		c.handleEvents()
		c.admit()
	}
}

// harvest reaps every completion the multi has queued: detach, return
// the permit, record speeds, finalize, then route the outcome.
func (c *Client) harvest() {
	for {
		msg, ok := c.multi.ReadMessage()
		if !ok {
			return
		}
		c.multi.Remove(msg.Handle)
		c.sema.release()

		task, ok := c.active[msg.Handle]
		if !ok {
			// A completion for a handle outside the active map means
			// the bookkeeping invariant broke.
			c.log.Error().Msg("completion for unknown transport handle")
			continue
		}

		info := msg.Handle.Info()
		c.metricsMu.Lock()
		c.uplink.push(info.UploadSpeed)
		c.downlink.push(info.DownloadSpeed)
		c.metricsMu.Unlock()

		task.transfer.finalize(msg.Code)
		c.endSpan(task, msg.Code)
		c.route(task, msg.Code)
	}
}

// serviceRetries resubmits every due retry for which a permit is
// available, and clamps the poll timeout down to the next due time
// when the head of the heap is still pending.
func (c *Client) serviceRetries(poll time.Duration) time.Duration {
	now := c.clock.now()
	resubmitted := false
	for len(c.retries) > 0 {
		head := c.retries[0]
		if head.retryAt > now {
			if wait := time.Duration((head.retryAt - now) * float64(time.Second)); wait < poll {
				poll = wait
			}
			break
		}
		if !c.sema.tryAcquire() {
			break
		}
		task := heap.Pop(&c.retries).(*transferTask)
		task.transfer.reset()
		c.mu.Lock()
		c.submitq = append(c.submitq, task)
		c.mu.Unlock()
		resubmitted = true
		c.log.Debug().
			Stringer("transfer", task.state.id).
			Int("attempt", task.state.Attempts()).
			Msg("retry due, resubmitting")
	}
	if resubmitted {
		// Skip the poll so the resubmission is admitted this epoch.
		return 0
	}
	return poll
}

// route decides what a harvested completion becomes: a resolved
// future, or a retry scheduled on the heap with the handle identity
// preserved.
func (c *Client) route(task *transferTask, code transport.Code) {
	h := task.transfer.handle
	ts := task.state
	delete(c.active, h)

	if ts.retry == nil {
		c.resolveCompleted(task)
		return
	}

	now := c.clock.now()
	ts.mu.Lock()
	rs := ts.retry
	rs.context.Attempts = append(rs.context.Attempts, retry.AttemptRecord{
		Response:   task.transfer.resp,
		Code:       code,
		CompleteAt: now,
	})
	attempts := rs.context.AttemptCount()
	should := rs.policy.ShouldRetry(&rs.context) &&
		attempts <= rs.policy.MaxRetries &&
		(rs.policy.TotalTimeout == 0 || now-rs.context.FirstAttemptAt < rs.policy.TotalTimeout)
	var retryAt float64
	if should {
		retryAt = rs.policy.NextRetryTime(&rs.context)
	}
	ts.mu.Unlock()

	if should {
		task.retryAt = retryAt
		heap.Push(&c.retries, task)
		c.log.Debug().
			Stringer("transfer", ts.id).
			Int("attempt", attempts).
			Float64("retry_in", retryAt-now).
			Msg("retry scheduled")
		return
	}
	c.resolveCompleted(task)
}

func (c *Client) resolveCompleted(task *transferTask) {
	resp := task.transfer.resp
	task.state.resolve(Completed, resp, nil)
	c.log.Debug().
		Stringer("transfer", task.state.id).
		Int("status", resp.Status).
		Str("error", resp.Err).
		Msg("transfer completed")
}

// handleEvents applies every buffered control event exactly once,
// dispatching on the transfer's current observed state rather than on
// insertion order, so a handle appearing more than once across epochs
// stays idempotent.
func (c *Client) handleEvents() {
	c.mu.Lock()
	events := c.eventq
	c.eventq = nil
	c.mu.Unlock()

	for i, h := range events {
		task, ok := c.active[h]
		if !ok {
			// Already completed or cancelled; discard.
			continue
		}
		ts := task.state
		switch ts.State() {
		case Cancel:
			c.multi.Remove(h)
			c.sema.release()
			c.endSpan(task, transport.Failed)
			ts.resolve(Cancel, request.Response{}, ErrCancelled)
			delete(c.active, h)
			c.log.Debug().Stringer("transfer", ts.id).Msg("transfer cancelled")
		case Pause:
			if ts.state.CompareAndSwap(int32(Pause), int32(Paused)) {
				h.Pause()
				c.sema.release()
				c.log.Debug().Stringer("transfer", ts.id).Msg("transfer paused")
			}
		case Resume:
			if !c.sema.tryAcquire() {
				// No permit; push this and the remaining entries back
				// for a later epoch.
				c.mu.Lock()
				c.eventq = append(append([]transport.Handle{}, events[i:]...), c.eventq...)
				c.mu.Unlock()
				return
			}
			if ts.state.CompareAndSwap(int32(Resume), int32(Ongoing)) {
				h.Unpause()
				c.log.Debug().Stringer("transfer", ts.id).Msg("transfer resumed")
			}
			// On CAS failure a cancel overtook the resume; the cancel
			// event keeps the permit we just took and returns it.
		}
	}
}

// admit attaches newly submitted (and retry-resubmitted) tasks to the
// multi.
func (c *Client) admit() {
	c.mu.Lock()
	pending := c.submitq
	c.submitq = nil
	c.mu.Unlock()

	for _, task := range pending {
		if task.state.State() == Cancel {
			// Cancelled before admission (including during a retry
			// backoff); resolve without touching the multi.
			c.sema.release()
			task.state.resolve(Cancel, request.Response{}, ErrCancelled)
			continue
		}
		c.active[task.transfer.handle] = task
		c.startSpan(task)
		c.multi.Add(task.transfer.handle)
		c.log.Debug().
			Stringer("transfer", task.state.id).
			Msg("transfer attached")
	}
}

// shutdown fails every outstanding future and releases the transport.
func (c *Client) shutdown() {
	c.mu.Lock()
	pending := c.submitq
	c.submitq = nil
	c.eventq = nil
	c.mu.Unlock()

	for h, task := range c.active {
		c.multi.Remove(h)
		c.endSpan(task, transport.Failed)
		task.state.resolve(Failed, request.Response{}, ErrStopped)
		delete(c.active, h)
	}
	for _, task := range pending {
		task.state.resolve(Failed, request.Response{}, ErrStopped)
	}
	for _, task := range c.retries {
		task.state.resolve(Failed, request.Response{}, ErrStopped)
	}
	c.retries = nil
	_ = c.multi.Close()

	// Wake producers parked on the admission semaphore so they can
	// observe the stop; release clamps at capacity, so this never
	// overcounts.
	for i := 0; i < c.settings.MaxConnections; i++ {
		c.sema.release()
	}
	c.log.Info().Msg("client stopped")
}

func (c *Client) startSpan(task *transferTask) {
	_, span := c.tracer.Start(context.Background(), "muxfer.attempt",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("muxfer.transfer", task.state.id.String()),
			attribute.String("http.request.method", task.transfer.req.Method().String()),
			attribute.String("url.full", task.transfer.req.URL),
			attribute.Int("muxfer.attempt", task.state.Attempts()),
		))
	task.span = span
}

func (c *Client) endSpan(task *transferTask, code transport.Code) {
	if task.span == nil {
		return
	}
	task.span.SetAttributes(
		attribute.Int("http.response.status_code", task.transfer.resp.Status),
		attribute.String("muxfer.code", code.String()),
	)
	task.span.End()
	task.span = nil
}
