// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// defaultBufferSize is the response read chunk size used when the
// options do not specify one.
const defaultBufferSize = 16 * 1024

const minBufferSize = 1024

// netHandle is the default Handle implementation. One netHandle runs
// one attempt at a time over its multi's shared connection pool.
type netHandle struct {
	multi *netMulti
	opts  Options
	gate  *pauseGate

	// detached is guarded by the multi's mutex: set by Remove,
	// cleared by Add, checked when the attempt goroutine delivers its
	// completion message.
	detached bool

	// mu guards the fields below, which are written from the attempt
	// goroutine and read through Info and Err.
	mu       sync.Mutex
	info     Info
	errstr   string
	code     Code
	start    time.Time
	received bool
	bytesDn  int64

	// bytesUp is written from the request-body reader, which runs on
	// the transport's write goroutine.
	bytesUp atomic.Int64

	connected    atomic.Bool
	connTimedOut atomic.Bool
}

func (h *netHandle) Apply(o Options) {
	h.opts = o
}

func (h *netHandle) Reset() {
	h.gate.reset()
	h.mu.Lock()
	h.info = Info{}
	h.errstr = ""
	h.code = OK
	h.received = false
	h.bytesDn = 0
	h.mu.Unlock()
	h.bytesUp.Store(0)
	h.connected.Store(false)
	h.connTimedOut.Store(false)
}

func (h *netHandle) Perform() Code {
	return h.run(context.Background())
}

func (h *netHandle) Pause() {
	h.gate.pause()
}

func (h *netHandle) Unpause() {
	h.gate.resume()
}

func (h *netHandle) Info() Info {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.info
}

func (h *netHandle) Err() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.errstr
}

// run executes one attempt to completion and records its outcome. It
// is the only writer of the handle's result fields while it runs.
func (h *netHandle) run(ctx context.Context) Code {
	h.start = time.Now()

	if h.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.Timeout)
		defer cancel()
	}
	if h.opts.ConnTimeout > 0 {
		connCtx, connCancel := context.WithCancel(ctx)
		ctx = connCtx
		defer connCancel()
		timer := time.AfterFunc(h.opts.ConnTimeout, func() {
			if !h.connected.Load() {
				h.connTimedOut.Store(true)
				connCancel()
			}
		})
		defer timer.Stop()
	}

	req, err := h.buildRequest(ctx)
	if err != nil {
		return h.fail(Failed, err)
	}

	client := &http.Client{Transport: h.multi.roundTripper()}
	if !h.opts.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	} else {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("stopped after 10 redirects")
			}
			h.stamp(&h.info.Redirect)
			return nil
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		h.stampTotals()
		if h.connTimedOut.Load() {
			return h.fail(TimeoutError, err)
		}
		return h.fail(classify(err, h.receivedAny()), err)
	}
	defer resp.Body.Close()

	h.setReceived()
	h.mu.Lock()
	h.info.ResponseCode = resp.StatusCode
	h.mu.Unlock()
	h.emitHeaders(resp)

	if err := h.readBody(ctx, resp.Body); err != nil {
		h.stampTotals()
		return h.fail(classify(err, true), err)
	}

	h.stampTotals()
	h.mu.Lock()
	h.code = OK
	h.mu.Unlock()
	return OK
}

func (h *netHandle) buildRequest(ctx context.Context) (*http.Request, error) {
	method := strings.ToUpper(h.opts.Method)
	if method == "" {
		method = "GET"
	}

	var body io.Reader
	if !h.opts.NoBody {
		if len(h.opts.Body) == 0 {
			body = http.NoBody
		} else {
			p := &pacedReader{
				r:     bytes.NewReader(h.opts.Body),
				gate:  h.gate,
				ctx:   ctx,
				max:   h.bufferSize(),
				count: &h.bytesUp,
			}
			if h.opts.SendSpeedLimit > 0 {
				p.lim = rate.NewLimiter(rate.Limit(h.opts.SendSpeedLimit), h.bufferSize())
			}
			body = p
		}
	}

	ctx = httptrace.WithClientTrace(ctx, h.trace())
	req, err := http.NewRequestWithContext(ctx, method, h.opts.URL, body)
	if err != nil {
		return nil, err
	}
	if body != nil && body != http.NoBody {
		n := len(h.opts.Body)
		req.ContentLength = int64(n)
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(h.opts.Body)), nil
		}
	}

	for _, line := range h.opts.Headers {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if strings.EqualFold(name, "Host") {
			req.Host = value
			continue
		}
		req.Header.Add(name, value)
	}
	if !h.opts.KeepAlive {
		req.Close = true
	}
	return req, nil
}

// trace wires the httptrace hooks which stamp the cumulative phase
// counters as the attempt progresses.
func (h *netHandle) trace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		ConnectStart: func(string, string) {
			h.stamp(&h.info.Queue)
		},
		ConnectDone: func(string, string, error) {
			h.stamp(&h.info.Connect)
		},
		TLSHandshakeDone: func(tls.ConnectionState, error) {
			h.stamp(&h.info.AppConnect)
		},
		GotConn: func(httptrace.GotConnInfo) {
			h.connected.Store(true)
			h.stamp(&h.info.PreTransfer)
		},
		WroteRequest: func(httptrace.WroteRequestInfo) {
			h.stamp(&h.info.PostTransfer)
		},
		GotFirstResponseByte: func() {
			h.stamp(&h.info.StartTransfer)
			h.setReceived()
		},
	}
}

func (h *netHandle) emitHeaders(resp *http.Response) {
	if h.opts.HeaderFunc == nil {
		return
	}
	h.opts.HeaderFunc([]byte(fmt.Sprintf("HTTP/%d.%d %s\r\n", resp.ProtoMajor, resp.ProtoMinor, resp.Status)))
	keys := make([]string, 0, len(resp.Header))
	for k := range resp.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range resp.Header[k] {
			h.opts.HeaderFunc([]byte(k + ": " + v + "\r\n"))
		}
	}
	h.opts.HeaderFunc([]byte("\r\n"))
}

func (h *netHandle) readBody(ctx context.Context, body io.Reader) error {
	var lim *rate.Limiter
	if h.opts.RecvSpeedLimit > 0 {
		lim = rate.NewLimiter(rate.Limit(h.opts.RecvSpeedLimit), h.bufferSize())
	}

	lowStart := time.Now()
	var lowBytes int64

	buf := make([]byte, h.bufferSize())
	for {
		if err := h.gate.wait(ctx); err != nil {
			return err
		}
		n, err := body.Read(buf)
		if n > 0 {
			h.mu.Lock()
			h.bytesDn += int64(n)
			h.mu.Unlock()
			if h.opts.BodyFunc != nil {
				h.opts.BodyFunc(buf[:n])
			}
			if lim != nil {
				if werr := lim.WaitN(ctx, n); werr != nil {
					return werr
				}
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if h.opts.LowSpeedLimit > 0 && h.opts.LowSpeedTime > 0 {
			lowBytes += int64(n)
			if elapsed := time.Since(lowStart); elapsed >= h.opts.LowSpeedTime {
				if float64(lowBytes) < float64(h.opts.LowSpeedLimit)*elapsed.Seconds() {
					return context.DeadlineExceeded
				}
				lowStart = time.Now()
				lowBytes = 0
			}
		}
	}
}

func (h *netHandle) bufferSize() int {
	n := h.opts.BufferSize
	if n <= 0 {
		return defaultBufferSize
	}
	if n < minBufferSize {
		return minBufferSize
	}
	return n
}

// stamp records the cumulative elapsed time for one phase counter. A
// later stamp never lowers an earlier one.
func (h *netHandle) stamp(field *time.Duration) {
	d := time.Since(h.start)
	h.mu.Lock()
	if d > *field {
		*field = d
	}
	h.mu.Unlock()
}

// stampTotals closes out the attempt: the total counter is stamped,
// zero phase counters inherit their predecessor so the sequence is
// non-decreasing, and the byte rates are computed.
func (h *netHandle) stampTotals() {
	total := time.Since(h.start)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.info.Total = total

	fields := []*time.Duration{
		&h.info.Queue,
		&h.info.Connect,
		&h.info.AppConnect,
		&h.info.PreTransfer,
		&h.info.PostTransfer,
		&h.info.StartTransfer,
	}
	var prev time.Duration
	for _, f := range fields {
		if *f < prev {
			*f = prev
		}
		if *f > total {
			*f = total
		}
		prev = *f
	}

	secs := total.Seconds()
	if secs > 0 {
		h.info.UploadSpeed = float64(h.bytesUp.Load()) / secs
		h.info.DownloadSpeed = float64(h.bytesDn) / secs
	}
}

func (h *netHandle) fail(code Code, err error) Code {
	h.mu.Lock()
	h.code = code
	h.errstr = code.String() + ": " + err.Error()
	h.mu.Unlock()
	return code
}

func (h *netHandle) setReceived() {
	h.mu.Lock()
	h.received = true
	h.mu.Unlock()
}

func (h *netHandle) receivedAny() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.received
}

// pacedReader feeds a request body through the pause gate and an
// optional rate limiter, capping each Read at the configured buffer
// size so pause and pacing stay responsive on large bodies.
type pacedReader struct {
	r     io.Reader
	lim   *rate.Limiter
	gate  *pauseGate
	ctx   context.Context
	max   int
	count *atomic.Int64
}

func (p *pacedReader) Read(b []byte) (int, error) {
	if err := p.gate.wait(p.ctx); err != nil {
		return 0, err
	}
	if len(b) > p.max {
		b = b[:p.max]
	}
	n, err := p.r.Read(b)
	if n > 0 {
		p.count.Add(int64(n))
		if p.lim != nil {
			if werr := p.lim.WaitN(p.ctx, n); werr != nil {
				return n, werr
			}
		}
	}
	return n, err
}

// pauseGate is a reusable data-plane gate. The zero-cost fast path is
// a mutex check; a paused gate parks the I/O goroutine on a channel
// that resume closes.
type pauseGate struct {
	mu sync.Mutex
	ch chan struct{}
}

func newPauseGate() *pauseGate {
	return &pauseGate{}
}

func (g *pauseGate) pause() {
	g.mu.Lock()
	if g.ch == nil {
		g.ch = make(chan struct{})
	}
	g.mu.Unlock()
}

func (g *pauseGate) resume() {
	g.mu.Lock()
	if g.ch != nil {
		close(g.ch)
		g.ch = nil
	}
	g.mu.Unlock()
}

func (g *pauseGate) reset() {
	g.resume()
}

func (g *pauseGate) wait(ctx context.Context) error {
	g.mu.Lock()
	ch := g.ch
	g.mu.Unlock()
	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
