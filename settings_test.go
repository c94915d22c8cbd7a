// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package muxfer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, 8, s.MaxConnections)
	assert.Equal(t, 100*time.Millisecond, s.PollInterval)
	assert.Equal(t, 128, s.SpeedWindowSize)
	assert.Equal(t, 2, s.MaxHostConnections)
	assert.Equal(t, 4, s.MaxTotalConnections)
	assert.NoError(t, s.Validate())
}

func TestSettingsValidate(t *testing.T) {
	s := DefaultSettings()
	s.MaxConnections = 0
	assert.Error(t, s.Validate())

	s = DefaultSettings()
	s.PollInterval = 0
	assert.Error(t, s.Validate())

	s = DefaultSettings()
	s.SpeedWindowSize = -1
	assert.Error(t, s.Validate())
}

func TestLoadSettings(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		s, err := LoadSettings()
		require.NoError(t, err)
		assert.Equal(t, DefaultSettings().MaxConnections, s.MaxConnections)
		assert.Equal(t, DefaultSettings().PollInterval, s.PollInterval)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("MUXFER_MAX_CONNECTIONS", "16")
		t.Setenv("MUXFER_POLL_INTERVAL", "250ms")
		s, err := LoadSettings()
		require.NoError(t, err)
		assert.Equal(t, 16, s.MaxConnections)
		assert.Equal(t, 250*time.Millisecond, s.PollInterval)
		// Untouched keys keep their defaults.
		assert.Equal(t, 128, s.SpeedWindowSize)
	})

	t.Run("invalid environment value", func(t *testing.T) {
		t.Setenv("MUXFER_MAX_CONNECTIONS", "0")
		_, err := LoadSettings()
		assert.Error(t, err)
	})
}

func TestNewClientValidatesSettings(t *testing.T) {
	s := DefaultSettings()
	s.MaxConnections = -1
	_, err := NewClient(s)
	assert.Error(t, err)
}
