// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build !unix

package dmx

import "syscall"

func enableBroadcast(_, _ string, _ syscall.RawConn) error {
	return nil
}
