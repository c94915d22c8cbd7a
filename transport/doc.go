// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package transport defines the narrow contract between the muxfer
scheduler and the HTTP transport layer, and provides the default
net/http-backed implementation.

The contract mirrors a multiplexed-transfer transport: a Multi
coordinates many per-transfer Handles over one connection pool and
exposes the event-loop primitives (Perform, Poll, Wakeup, a completion
queue) that a single driving goroutine consumes. A Handle carries one
transfer's configuration, delivers response headers and body chunks
through callbacks as they arrive, supports pausing the data plane
without losing progress, and answers post-attempt queries for the
status code, cumulative phase timings, and byte rates.

Use NewMulti to obtain the default implementation. Custom
implementations of Multi and Handle may be substituted for testing.
*/
package transport
