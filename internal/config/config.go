// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config loads the daemon configuration.
//
// Precedence is environment over file over defaults. The YAML file is decoded
// strictly: unknown keys and trailing documents are errors.
package config

import "time"

// DMX driver names.
const (
	DriverNull   = "null"
	DriverEnttec = "enttec"
	DriverArtNet = "artnet"
)

// Config is the complete daemon configuration.
type Config struct {
	Version string `yaml:"-"`

	// Listen is the UDP address for controller commands and heartbeats.
	Listen   string `yaml:"listen"`
	DataDir  string `yaml:"dataDir"`
	LogLevel string `yaml:"logLevel"`

	HTTP      HTTPConfig      `yaml:"http"`
	Profiles  ProfilesConfig  `yaml:"profiles"`
	Scenes    ScenesConfig    `yaml:"scenes"`
	DMX       DMXConfig       `yaml:"dmx"`
	Chase     ChaseConfig     `yaml:"chase"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`
	Queue     QueueConfig     `yaml:"queue"`
	Highlight IntervalConfig  `yaml:"highlight"`
	Preset    IntervalConfig  `yaml:"preset"`
}

// HTTPConfig is the read-only status server. An empty Listen disables it.
type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

// ProfilesConfig locates the fixture set file.
type ProfilesConfig struct {
	File  string `yaml:"file"`
	Watch bool   `yaml:"watch"`
}

// ScenesConfig locates the scene file.
type ScenesConfig struct {
	File              string `yaml:"file"`
	PreviewOnNavigate bool   `yaml:"previewOnNavigate"`
}

// DMXConfig selects and configures the output driver.
type DMXConfig struct {
	Driver       string `yaml:"driver"`
	Device       string `yaml:"device"`
	ArtNetTarget string `yaml:"artnetTarget"`
	Universe     int    `yaml:"universe"`
	FatalOnError bool   `yaml:"fatalOnError"`
}

// ChaseConfig bounds the chase step delay.
type ChaseConfig struct {
	Delay    time.Duration `yaml:"delay"`
	MinDelay time.Duration `yaml:"minDelay"`
	MaxDelay time.Duration `yaml:"maxDelay"`
	Step     time.Duration `yaml:"step"`
}

// HeartbeatConfig sets the liveness ping period.
type HeartbeatConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// QueueConfig sizes the command hand-off queue.
type QueueConfig struct {
	Size int `yaml:"size"`
}

// IntervalConfig is a worker frame interval.
type IntervalConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// Default returns the built-in configuration. File paths derived from
// DataDir are filled in by the loader.
func Default() Config {
	return Config{
		Listen:   ":7110",
		DataDir:  "./data",
		LogLevel: "info",
		HTTP:     HTTPConfig{Listen: "127.0.0.1:7111"},
		Profiles: ProfilesConfig{Watch: true},
		DMX: DMXConfig{
			Driver:       DriverNull,
			Device:       "/dev/ttyUSB0",
			ArtNetTarget: "255.255.255.255:6454",
			FatalOnError: true,
		},
		Chase: ChaseConfig{
			Delay:    100 * time.Millisecond,
			MinDelay: 100 * time.Millisecond,
			MaxDelay: 2 * time.Second,
			Step:     100 * time.Millisecond,
		},
		Heartbeat: HeartbeatConfig{Interval: time.Second},
		Queue:     QueueConfig{Size: 64},
		Highlight: IntervalConfig{Interval: 250 * time.Millisecond},
		Preset:    IntervalConfig{Interval: 50 * time.Millisecond},
	}
}
