// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"time"

	"github.com/ManuGH/chuck/internal/validate"
)

// Art-Net port addresses are 15 bits.
const maxArtNetUniverse = 0x7fff

// Validate checks a fully merged configuration.
func Validate(cfg Config) error {
	v := validate.New()

	v.ListenAddr("listen", cfg.Listen)
	if cfg.HTTP.Listen != "" {
		v.ListenAddr("http.listen", cfg.HTTP.Listen)
	}
	v.Directory("dataDir", cfg.DataDir, false)
	if _, err := validate.ParseLogLevel(cfg.LogLevel); err != nil {
		v.AddError("logLevel", err.Error(), cfg.LogLevel)
	}

	v.FileParent("profiles.file", cfg.Profiles.File)
	v.FileParent("scenes.file", cfg.Scenes.File)

	v.OneOf("dmx.driver", cfg.DMX.Driver, []string{DriverNull, DriverEnttec, DriverArtNet})
	switch cfg.DMX.Driver {
	case DriverEnttec:
		v.NotEmpty("dmx.device", cfg.DMX.Device)
	case DriverArtNet:
		v.UDPAddr("dmx.artnetTarget", cfg.DMX.ArtNetTarget)
		v.Range("dmx.universe", cfg.DMX.Universe, 0, maxArtNetUniverse)
	}

	v.DurationRange("chase.minDelay", cfg.Chase.MinDelay, time.Millisecond, time.Minute)
	v.DurationRange("chase.maxDelay", cfg.Chase.MaxDelay, cfg.Chase.MinDelay, time.Hour)
	v.DurationRange("chase.delay", cfg.Chase.Delay, cfg.Chase.MinDelay, cfg.Chase.MaxDelay)
	v.DurationRange("chase.step", cfg.Chase.Step, time.Millisecond, time.Minute)

	v.DurationRange("heartbeat.interval", cfg.Heartbeat.Interval, 10*time.Millisecond, time.Minute)
	v.Range("queue.size", cfg.Queue.Size, 1, 4096)
	v.DurationRange("highlight.interval", cfg.Highlight.Interval, time.Millisecond, 10*time.Second)
	v.DurationRange("preset.interval", cfg.Preset.Interval, time.Millisecond, 10*time.Second)

	return v.Err()
}
