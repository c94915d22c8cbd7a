// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package muxfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateString(t *testing.T) {
	assert.Equal(t, "Pending", Pending.String())
	assert.Equal(t, "Ongoing", Ongoing.String())
	assert.Equal(t, "Pause", Pause.String())
	assert.Equal(t, "Paused", Paused.String())
	assert.Equal(t, "Resume", Resume.String())
	assert.Equal(t, "Completed", Completed.String())
	assert.Equal(t, "Failed", Failed.String())
	assert.Equal(t, "Cancel", Cancel.String())
	assert.Equal(t, "Unknown", State(99).String())
}

func TestStateTerminal(t *testing.T) {
	for _, s := range []State{Completed, Failed, Cancel} {
		assert.True(t, s.terminal(), "%v should be terminal", s)
	}
	for _, s := range []State{Pending, Ongoing, Pause, Paused, Resume} {
		assert.False(t, s.terminal(), "%v should not be terminal", s)
	}
}
