// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package muxfer

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/muxfer/muxfer/request"
)

// The shared test server interprets instructions sent as the request
// body: status code to return, optional pause before the headers, an
// optional echo of the request body, and a body streamed in chunks
// with pauses, so tests can exercise timeouts, pausing, and retries.

var httpServer = httptest.NewUnstartedServer(http.HandlerFunc(serverHandler))

func TestMain(m *testing.M) {
	httpServer.Start()
	defer httpServer.Close()
	os.Exit(m.Run())
}

type bodyChunk struct {
	Pause time.Duration
	Data  []byte
}

type serverInstruction struct {
	HeaderPause time.Duration
	StatusCode  int
	Echo        bool
	Body        []bodyChunk
}

func (i *serverInstruction) toJSON() []byte {
	b, err := json.Marshal(i)
	if err != nil {
		panic(err)
	}
	return b
}

func (i *serverInstruction) toRequest(method string) request.Request {
	req, err := request.New(method, httpServer.URL, i.toJSON())
	if err != nil {
		panic(err)
	}
	return req
}

func (i *serverInstruction) fromRequest(req *http.Request) ([]byte, error) {
	b, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, err
	}
	return b, json.Unmarshal(b, i)
}

func serverHandler(w http.ResponseWriter, req *http.Request) {
	var i serverInstruction
	raw, err := i.fromRequest(req)
	if err != nil {
		w.WriteHeader(400)
		_, _ = io.WriteString(w, fmt.Sprintf("failed to read request: %s", err.Error()))
		return
	}
	if i.StatusCode == 0 {
		w.WriteHeader(400)
		_, _ = io.WriteString(w, fmt.Sprintf("bad StatusCode in instruction: %v", i))
		return
	}

	f, ok := w.(http.Flusher)
	if !ok {
		panic("w does not implement Flusher")
	}

	if i.Echo {
		w.Header().Add("Content-Length", strconv.Itoa(len(raw)))
		time.Sleep(i.HeaderPause)
		w.WriteHeader(i.StatusCode)
		_, _ = w.Write(raw)
		return
	}

	contentLength := 0
	for _, chunk := range i.Body {
		contentLength += len(chunk.Data)
	}
	w.Header().Add("Content-Length", strconv.Itoa(contentLength))

	// Pausing before the headers lets tests play with timeouts and
	// cancellation windows.
	time.Sleep(i.HeaderPause)

	w.WriteHeader(i.StatusCode)
	f.Flush()

	// Stream each chunk a byte at a time, spreading the chunk's pause
	// across its bytes, so pause/resume tests see a steady trickle.
	for _, chunk := range i.Body {
		data := chunk.Data
		pause := chunk.Pause
		ppb := chunk.Pause / time.Duration(len(chunk.Data))
		for j := range data {
			if _, err = w.Write(data[j : j+1]); err != nil {
				return
			}
			f.Flush()
			time.Sleep(ppb)
			pause -= ppb
		}
		if pause > 0 {
			time.Sleep(pause)
		}
	}
}

// newTestClient builds a client on default settings and stops it when
// the test ends.
func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(DefaultSettings())
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	t.Cleanup(c.Stop)
	return c
}

// countingServer responds with each status in sequence, repeating the
// last one, and reports how many requests it served.
func countingServer(t *testing.T, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var n atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = io.ReadAll(req.Body)
		_ = req.Body.Close()
		i := int(n.Add(1)) - 1
		if i >= len(statuses) {
			i = len(statuses) - 1
		}
		w.WriteHeader(statuses[i])
		_, _ = io.WriteString(w, "attempt body")
	}))
	t.Cleanup(server.Close)
	return server, &n
}
