// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/http2"
)

// netMulti is the default Multi implementation. Each added handle is
// driven by its own goroutine over a shared http.Transport; the multi
// collects completions and exposes the poll/wakeup primitives the
// scheduler blocks on.
type netMulti struct {
	rt *http.Transport

	mu       sync.Mutex
	running  map[*netHandle]context.CancelFunc
	pending  []Message
	closed   bool

	msgSig chan struct{}
	wake   chan struct{}
}

// NewMulti returns the default Multi: a net/http connection pool with
// HTTP/2 multiplexing enabled, the per-host connection cap from cfg
// applied, and MaxTotalConnections used as the idle-pool cap.
func NewMulti(cfg Config) Multi {
	rt := &http.Transport{
		MaxConnsPerHost:     cfg.MaxHostConnections,
		MaxIdleConns:        cfg.MaxTotalConnections,
		MaxIdleConnsPerHost: cfg.MaxHostConnections,
		ForceAttemptHTTP2:   true,
	}
	if cfg.TLSClientConfig != nil {
		rt.TLSClientConfig = cfg.TLSClientConfig
	}
	// Enable multiplexed HTTP/2 on the shared pool. An error here
	// means the transport was already configured, which cannot happen
	// on a freshly built one.
	_ = http2.ConfigureTransport(rt)

	return &netMulti{
		rt:      rt,
		running: make(map[*netHandle]context.CancelFunc),
		msgSig:  make(chan struct{}, 1),
		wake:    make(chan struct{}, 1),
	}
}

func (m *netMulti) roundTripper() http.RoundTripper {
	return m.rt
}

func (m *netMulti) NewHandle() Handle {
	return &netHandle{
		multi: m,
		gate:  newPauseGate(),
	}
}

func (m *netMulti) Add(h Handle) {
	nh := h.(*netHandle)
	ctx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		cancel()
		return
	}
	nh.detached = false
	m.running[nh] = cancel
	m.mu.Unlock()

	go func() {
		code := nh.run(ctx)
		cancel()

		m.mu.Lock()
		delete(m.running, nh)
		drop := nh.detached || m.closed
		if !drop {
			m.pending = append(m.pending, Message{Handle: nh, Code: code})
		}
		m.mu.Unlock()

		if !drop {
			m.signal(m.msgSig)
		}
	}()
}

func (m *netMulti) Remove(h Handle) {
	nh := h.(*netHandle)
	m.mu.Lock()
	nh.detached = true
	cancel, ok := m.running[nh]
	m.mu.Unlock()
	if ok {
		// Abort the in-flight attempt. Its completion message is
		// suppressed by the detached flag.
		cancel()
		// A paused attempt is parked on the gate; release it so the
		// goroutine can observe the cancellation and exit.
		nh.gate.resume()
	}
}

func (m *netMulti) Perform() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.running)
}

func (m *netMulti) Timeout() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) > 0 {
		return 0
	}
	return -1
}

func (m *netMulti) Poll(timeout time.Duration) {
	if timeout <= 0 {
		select {
		case <-m.msgSig:
		case <-m.wake:
		default:
		}
		return
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-m.msgSig:
	case <-m.wake:
	case <-timer.C:
	}
}

func (m *netMulti) Wakeup() {
	m.signal(m.wake)
}

func (m *netMulti) ReadMessage() (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) == 0 {
		return Message{}, false
	}
	msg := m.pending[0]
	m.pending = m.pending[1:]
	return msg, true
}

func (m *netMulti) Close() error {
	m.mu.Lock()
	m.closed = true
	cancels := make([]context.CancelFunc, 0, len(m.running))
	for _, cancel := range m.running {
		cancels = append(cancels, cancel)
	}
	m.pending = nil
	m.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	m.rt.CloseIdleConnections()
	return nil
}

func (m *netMulti) signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
