// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the plain-value types describing one HTTP
exchange: the Request to send, the per-request transport Policy, and
the Response produced by a transfer attempt.

All three are deliberately simpler than their net/http counterparts.
A Request buffers its whole body as a byte slice and keeps headers as
raw wire lines, so the same value can back several physical attempts
of a retried transfer without re-reading anything. A Response carries
the status, raw header lines, buffered body, a transport error string
(empty on success), and a TransferInfo timing record whose per-phase
durations are derived from the transport's cumulative counters.
*/
package request
