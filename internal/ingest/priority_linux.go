// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build linux

package ingest

import "golang.org/x/sys/unix"

// ingestNice is the nice value for the receive thread; the orchestrator runs
// at the default of 0.
const ingestNice = -5

// raiseThreadPriority renices the calling OS thread. The caller must have
// locked the goroutine to its thread.
func raiseThreadPriority() error {
	return unix.Setpriority(unix.PRIO_PROCESS, unix.Gettid(), ingestNice)
}
