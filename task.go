// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package muxfer

import (
	"go.opentelemetry.io/otel/trace"
)

// A transferTask pairs a transfer with its state handle while the
// scheduler owns it. Tasks move between the submit queue, the active
// map, and the retry heap; the transport handle identity ties the
// three together.
type transferTask struct {
	transfer *transfer
	state    *TransferState

	// retryAt is the absolute wall-clock due time while the task sits
	// in the retry heap.
	retryAt float64

	// span covers the current physical attempt, from admission to
	// harvest.
	span trace.Span
}

// retryHeap is a min-heap of tasks keyed on retryAt. Only the
// scheduler goroutine touches it.
type retryHeap []*transferTask

func (h retryHeap) Len() int            { return len(h) }
func (h retryHeap) Less(i, j int) bool  { return h[i].retryAt < h[j].retryAt }
func (h retryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *retryHeap) Push(x interface{}) { *h = append(*h, x.(*transferTask)) }

func (h *retryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	task := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return task
}
