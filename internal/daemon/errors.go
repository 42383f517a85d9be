// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import "errors"

var (
	// ErrManagerNotStarted is returned when trying to shutdown a manager that hasn't started
	ErrManagerNotStarted = errors.New("manager not started")

	// ErrManagerStarted is returned by a second call to Start.
	ErrManagerStarted = errors.New("manager already started")

	// ErrUnknownDriver is returned for a DMX driver name with no implementation.
	ErrUnknownDriver = errors.New("unknown dmx driver")
)
