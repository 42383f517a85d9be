// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"os"
	"strings"
	"testing"
)

func TestMain(m *testing.M) {
	// Start every test from a clean CHUCK_* environment.
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, "CHUCK_") || strings.HasPrefix(e, EnvLogLevel+"=") {
			kv := strings.SplitN(e, "=", 2)
			if err := os.Unsetenv(kv[0]); err != nil {
				panic("failed to unset env: " + err.Error())
			}
		}
	}

	os.Exit(m.Run())
}
