// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"syscall"
)

// classify maps a Go transport error onto a Code. Parameter received
// reports whether any response byte had arrived when the error
// occurred, which separates receive failures from connection-phase
// ones.
//
// In assessing the error, classify looks at wrapped cause errors, not
// just err itself. It never consults Temporary(), as the semantics of
// Temporary() aren't entirely clear.
func classify(err error, received bool) Code {
	if err == nil {
		return OK
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return TimeoutError
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ResolveError
	}

	var hasTimeout hasTimeout
	if errors.As(err, &hasTimeout) && hasTimeout.Timeout() {
		return TimeoutError
	}

	if isTLSError(err) {
		return TLSError
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED:
			return ConnectError
		case syscall.EPIPE:
			return SendError
		case syscall.ECONNRESET:
			if received {
				return RecvError
			}
			return EmptyReply
		}
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		if received {
			return RecvError
		}
		return EmptyReply
	}

	if received {
		return RecvError
	}
	return Failed
}

func isTLSError(err error) bool {
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return true
	}
	var verifyErr *tls.CertificateVerificationError
	if errors.As(err, &verifyErr) {
		return true
	}
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return true
	}
	var hostnameErr x509.HostnameError
	return errors.As(err, &hostnameErr)
}

type hasTimeout interface {
	Timeout() bool
}
