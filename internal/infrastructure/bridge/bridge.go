// Package bridge holds the adapters for the cross-chain bridging service: an
// HTTP client for the real API and an in-process simulator.
package bridge

import (
	"errors"

	"dealmint/pkg/contextx"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

var (
	ErrIntentNotFound = errors.New("intent not found")
	ErrUnavailable    = errors.New("bridge unavailable")
)
