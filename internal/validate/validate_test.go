// SPDX-License-Identifier: MIT
package validate

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestValidator_Port(t *testing.T) {
	tests := []struct {
		name    string
		port    int
		wantErr bool
	}{
		{"valid port 1", 1, false},
		{"valid port 7110", 7110, false},
		{"valid port 65535", 65535, false},
		{"invalid port 0", 0, true},
		{"invalid port -1", -1, true},
		{"invalid port 65536", 65536, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Port("testPort", tt.port)
			if tt.wantErr == v.IsValid() {
				t.Errorf("wantErr=%v, got %v", tt.wantErr, v.Err())
			}
		})
	}
}

func TestValidator_ListenAddr(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{":7110", false},
		{"0.0.0.0:7110", false},
		{"127.0.0.1:7111", false},
		{"[::1]:7111", false},
		{"localhost:7111", false},
		{"7110", true},
		{":0", true},
		{":http", true},
		{"lights.local:7110", true},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			v := New()
			v.ListenAddr("listen", tt.addr)
			if tt.wantErr == v.IsValid() {
				t.Errorf("wantErr=%v, got %v", tt.wantErr, v.Err())
			}
		})
	}
}

func TestValidator_UDPAddr(t *testing.T) {
	v := New()
	v.UDPAddr("target", "255.255.255.255:6454")
	if !v.IsValid() {
		t.Fatalf("unexpected error: %v", v.Err())
	}
	v.UDPAddr("target", "not an address")
	if v.IsValid() {
		t.Fatal("expected error for garbage address")
	}
}

func TestValidator_Range(t *testing.T) {
	v := New()
	v.Range("a", 5, 1, 10)
	v.Range("b", 1, 1, 10)
	v.Range("c", 10, 1, 10)
	if !v.IsValid() {
		t.Fatalf("unexpected error: %v", v.Err())
	}
	v.Range("d", 11, 1, 10)
	v.Range("e", 0, 1, 10)
	if len(v.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(v.Errors()))
	}
}

func TestValidator_DurationRange(t *testing.T) {
	v := New()
	v.DurationRange("delay", 100*time.Millisecond, 10*time.Millisecond, time.Minute)
	if !v.IsValid() {
		t.Fatalf("unexpected error: %v", v.Err())
	}
	v.DurationRange("delay", 0, 10*time.Millisecond, time.Minute)
	if v.IsValid() {
		t.Fatal("expected error for zero duration")
	}
}

func TestValidator_Directory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		path      string
		mustExist bool
		wantErr   bool
	}{
		{"existing", dir, true, false},
		{"missing must exist", filepath.Join(dir, "nope"), true, true},
		{"missing created", filepath.Join(dir, "new", "nested"), false, false},
		{"file", file, false, true},
		{"empty", "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Directory("dir", tt.path, tt.mustExist)
			if tt.wantErr == v.IsValid() {
				t.Errorf("wantErr=%v, got %v", tt.wantErr, v.Err())
			}
		})
	}
	if _, err := os.Stat(filepath.Join(dir, "new", "nested")); err != nil {
		t.Errorf("directory was not created: %v", err)
	}
}

func TestValidator_FileParent(t *testing.T) {
	dir := t.TempDir()
	v := New()
	v.FileParent("file", filepath.Join(dir, "set.csv"))
	if !v.IsValid() {
		t.Fatalf("unexpected error: %v", v.Err())
	}
	v.FileParent("file", filepath.Join(dir, "missing", "set.csv"))
	if v.IsValid() {
		t.Fatal("expected error for missing parent")
	}
}

func TestValidator_OneOf(t *testing.T) {
	v := New()
	v.OneOf("driver", "enttec", []string{"null", "enttec", "artnet"})
	if !v.IsValid() {
		t.Fatalf("unexpected error: %v", v.Err())
	}
	v.OneOf("driver", "usb", []string{"null", "enttec", "artnet"})
	if v.IsValid() || !strings.Contains(v.Err().Error(), "usb") {
		t.Fatalf("expected error naming the value, got %v", v.Err())
	}
}

func TestValidator_NotEmpty(t *testing.T) {
	v := New()
	v.NotEmpty("device", "/dev/ttyUSB0")
	if !v.IsValid() {
		t.Fatalf("unexpected error: %v", v.Err())
	}
	v.NotEmpty("device", "  ")
	if len(v.Errors()) != 1 || v.Errors()[0].Field != "device" {
		t.Fatalf("expected one device error, got %v", v.Errors())
	}
}

func TestValidator_MultipleErrors(t *testing.T) {
	v := New()
	v.Port("port", 0)
	v.Range("size", 0, 1, 10)

	err := v.Err()
	if err == nil {
		t.Fatal("expected error")
	}
	var ve ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(ve.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(ve.Errors()))
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("expected joined message, got %q", err.Error())
	}
}

func TestParseLogLevel(t *testing.T) {
	for _, s := range []string{"trace", "debug", "info", "warn", "error"} {
		if _, err := ParseLogLevel(s); err != nil {
			t.Errorf("ParseLogLevel(%q): %v", s, err)
		}
	}
	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}
