// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/muxfer/muxfer/request"
	"github.com/muxfer/muxfer/transport"
)

func ctxWithCode(code transport.Code) *Context {
	return &Context{Attempts: []AttemptRecord{{Code: code}}}
}

func ctxWithStatus(status int) *Context {
	return &Context{Attempts: []AttemptRecord{{
		Response: request.Response{Status: status},
		Code:     transport.OK,
	}}}
}

func TestTransientErr(t *testing.T) {
	transientCodes := []transport.Code{
		transport.ResolveError,
		transport.ConnectError,
		transport.TimeoutError,
		transport.TLSError,
		transport.SendError,
		transport.RecvError,
		transport.EmptyReply,
	}
	for _, code := range transientCodes {
		assert.True(t, TransientErr(ctxWithCode(code)), "code %v should be transient", code)
	}
	assert.False(t, TransientErr(ctxWithCode(transport.OK)))
	assert.False(t, TransientErr(ctxWithCode(transport.Failed)))
	assert.False(t, TransientErr(&Context{}), "no attempts yet")
}

func TestStatusCode(t *testing.T) {
	t.Run("default set", func(t *testing.T) {
		cond := StatusCode()
		for _, s := range []int{429, 500, 502, 503, 504} {
			assert.True(t, cond(ctxWithStatus(s)), "status %d", s)
		}
		for _, s := range []int{200, 201, 400, 404, 501} {
			assert.False(t, cond(ctxWithStatus(s)), "status %d", s)
		}
	})

	t.Run("explicit set", func(t *testing.T) {
		cond := StatusCode(418)
		assert.True(t, cond(ctxWithStatus(418)))
		assert.False(t, cond(ctxWithStatus(503)))
	})

	t.Run("no attempts", func(t *testing.T) {
		assert.False(t, StatusCode()(&Context{}))
	})
}

func TestAnyOf(t *testing.T) {
	yes := Condition(func(*Context) bool { return true })
	no := Condition(func(*Context) bool { return false })

	assert.True(t, AnyOf(no, yes)(&Context{}))
	assert.False(t, AnyOf(no, no)(&Context{}))
	assert.False(t, AnyOf()(&Context{}))

	// Short-circuit: the second condition must not run once the first
	// said yes.
	ran := false
	probe := Condition(func(*Context) bool { ran = true; return true })
	assert.True(t, AnyOf(yes, probe)(&Context{}))
	assert.False(t, ran)
}

func TestAllOf(t *testing.T) {
	yes := Condition(func(*Context) bool { return true })
	no := Condition(func(*Context) bool { return false })

	assert.True(t, AllOf(yes, yes)(&Context{}))
	assert.False(t, AllOf(yes, no)(&Context{}))
	assert.True(t, AllOf()(&Context{}), "empty AllOf is vacuously true")

	ran := false
	probe := Condition(func(*Context) bool { ran = true; return true })
	assert.False(t, AllOf(no, probe)(&Context{}))
	assert.False(t, ran)
}

func TestContextAccessors(t *testing.T) {
	c := &Context{}
	assert.Equal(t, 0, c.AttemptCount())
	assert.Nil(t, c.LastAttempt())
	assert.Equal(t, 0.0, c.LastCompleteAt())

	c.Attempts = append(c.Attempts,
		AttemptRecord{CompleteAt: 10},
		AttemptRecord{CompleteAt: 20},
	)
	assert.Equal(t, 2, c.AttemptCount())
	assert.Equal(t, 20.0, c.LastAttempt().CompleteAt)
	assert.Equal(t, 20.0, c.LastCompleteAt())
}
