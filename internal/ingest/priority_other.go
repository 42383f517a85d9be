// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build !linux

package ingest

func raiseThreadPriority() error { return nil }
