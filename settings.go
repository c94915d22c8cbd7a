// Copyright 2026 The muxfer Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package muxfer

import (
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// envPrefix is the prefix of the environment variables LoadSettings
// reads, e.g. MUXFER_MAX_CONNECTIONS.
const envPrefix = "MUXFER_"

// Settings carries the client tunables consulted at construction. Use
// DefaultSettings for the calibrated defaults, or LoadSettings to
// overlay them with MUXFER_* environment variables.
type Settings struct {
	// MaxConnections caps concurrently active transfers. Paused
	// transfers do not count against the cap.
	MaxConnections int `koanf:"max_connections" validate:"gt=0"`

	// PollInterval is the upper bound on one scheduler poll.
	PollInterval time.Duration `koanf:"poll_interval" validate:"gt=0"`

	// SpeedWindowSize is the capacity of the sliding windows tracking
	// per-transfer byte rates.
	SpeedWindowSize int `koanf:"speed_window_size" validate:"gt=0"`

	// MaxHostConnections caps transport connections per host.
	MaxHostConnections int `koanf:"max_host_connections" validate:"gte=0"`

	// MaxTotalConnections caps the idle transport connections retained
	// in the pool. It does not limit how many connections are open at
	// once.
	MaxTotalConnections int `koanf:"max_total_connections" validate:"gte=0"`

	// Logger receives the client's structured log output. The zero
	// value logs nowhere.
	Logger zerolog.Logger `koanf:"-" validate:"-"`

	// Tracer produces one span per physical attempt. Nil disables
	// tracing.
	Tracer trace.Tracer `koanf:"-" validate:"-"`

	// TLSClientConfig optionally overrides the transport pool's TLS
	// settings, e.g. to trust a test server certificate.
	TLSClientConfig *tls.Config `koanf:"-" validate:"-"`
}

// DefaultSettings returns the calibrated general-use defaults: 8
// connections, a 100ms poll interval, a 128-sample speed window, a
// transport cap of 2 connections per host, and an idle-pool cap of 4.
func DefaultSettings() Settings {
	return Settings{
		MaxConnections:      8,
		PollInterval:        100 * time.Millisecond,
		SpeedWindowSize:     128,
		MaxHostConnections:  2,
		MaxTotalConnections: 4,
		Logger:              zerolog.Nop(),
	}
}

// LoadSettings builds Settings from the defaults overlaid with
// MUXFER_* environment variables (highest priority), then validates
// the result.
func LoadSettings() (Settings, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"max_connections":       8,
		"poll_interval":         "100ms",
		"speed_window_size":     128,
		"max_host_connections":  2,
		"max_total_connections": 4,
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return Settings{}, fmt.Errorf("muxfer: loading default settings: %w", err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return Settings{}, fmt.Errorf("muxfer: loading settings from environment: %w", err)
	}

	s := DefaultSettings()
	if err := k.Unmarshal("", &s); err != nil {
		return Settings{}, fmt.Errorf("muxfer: unmarshaling settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

var validate = validator.New()

// Validate checks the settings against their declared constraints.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("muxfer: invalid settings: %w", err)
	}
	return nil
}
