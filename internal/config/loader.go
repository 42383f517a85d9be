// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader loads configuration with precedence ENV > file > defaults.
type Loader struct {
	configPath string
	version    string

	// ConsumedEnvKeys records every environment key the loader looked at.
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader returns a loader for the YAML file at configPath ("" for none).
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, def string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, def)
}

func (l *Loader) envBool(key string, def bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, def)
}

func (l *Loader) envInt(key string, def int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, def)
}

func (l *Loader) envDuration(key string, def time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, def)
}

// Load builds the configuration: defaults, then the file, then the
// environment, then derived paths, then validation.
func (l *Loader) Load() (Config, error) {
	cfg := Default()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnv(&cfg)

	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}
	if cfg.Profiles.File == "" {
		cfg.Profiles.File = filepath.Join(cfg.DataDir, "set.csv")
	}
	if cfg.Scenes.File == "" {
		cfg.Scenes.File = filepath.Join(cfg.DataDir, "scenes.yaml")
	}
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile decodes the YAML file at path over cfg. Keys absent from the file
// keep their current values.
func (l *Loader) loadFile(path string, cfg *Config) error {
	path = filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("%w: %s (only YAML supported)", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("%w: %w", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

func (l *Loader) mergeEnv(cfg *Config) {
	cfg.Listen = l.envString(EnvListen, cfg.Listen)
	cfg.HTTP.Listen = l.envHTTPListen(cfg.HTTP.Listen)
	cfg.DataDir = l.envString(EnvDataDir, cfg.DataDir)
	cfg.LogLevel = l.envString(EnvLogLevel, cfg.LogLevel)

	cfg.Profiles.File = l.envString(EnvProfileFile, cfg.Profiles.File)
	cfg.Profiles.Watch = l.envBool(EnvProfileWatch, cfg.Profiles.Watch)
	cfg.Scenes.File = l.envString(EnvSceneFile, cfg.Scenes.File)
	cfg.Scenes.PreviewOnNavigate = l.envBool(EnvScenePreview, cfg.Scenes.PreviewOnNavigate)

	cfg.DMX.Driver = strings.ToLower(l.envString(EnvDMXDriver, cfg.DMX.Driver))
	cfg.DMX.Device = l.envString(EnvDMXDevice, cfg.DMX.Device)
	cfg.DMX.ArtNetTarget = l.envString(EnvArtNetTarget, cfg.DMX.ArtNetTarget)
	cfg.DMX.Universe = l.envInt(EnvArtNetUniverse, cfg.DMX.Universe)
	cfg.DMX.FatalOnError = l.envBool(EnvDMXFatal, cfg.DMX.FatalOnError)

	cfg.Chase.Delay = l.envDuration(EnvChaseDelay, cfg.Chase.Delay)
	cfg.Chase.MinDelay = l.envDuration(EnvChaseMinDelay, cfg.Chase.MinDelay)
	cfg.Chase.MaxDelay = l.envDuration(EnvChaseMaxDelay, cfg.Chase.MaxDelay)
	cfg.Chase.Step = l.envDuration(EnvChaseStep, cfg.Chase.Step)

	cfg.Heartbeat.Interval = l.envDuration(EnvHeartbeatInterval, cfg.Heartbeat.Interval)
	cfg.Queue.Size = l.envInt(EnvQueueSize, cfg.Queue.Size)
	cfg.Highlight.Interval = l.envDuration(EnvHighlightInterval, cfg.Highlight.Interval)
	cfg.Preset.Interval = l.envDuration(EnvPresetInterval, cfg.Preset.Interval)
}

// envHTTPListen lets CHUCK_HTTP_LISTEN="" switch the status server off,
// which the generic helpers would treat as "use the default".
func (l *Loader) envHTTPListen(def string) string {
	l.ConsumedEnvKeys[EnvHTTPListen] = struct{}{}
	if v, ok := os.LookupEnv(EnvHTTPListen); ok {
		return v
	}
	return def
}
