// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/chuck/internal/log"
)

// Environment keys.
const (
	EnvListen            = "CHUCK_LISTEN"
	EnvHTTPListen        = "CHUCK_HTTP_LISTEN"
	EnvDataDir           = "CHUCK_DATA"
	EnvProfileFile       = "CHUCK_PROFILE_FILE"
	EnvProfileWatch      = "CHUCK_PROFILE_WATCH"
	EnvSceneFile         = "CHUCK_SCENE_FILE"
	EnvScenePreview      = "CHUCK_SCENE_PREVIEW"
	EnvDMXDriver         = "CHUCK_DMX_DRIVER"
	EnvDMXDevice         = "CHUCK_DMX_DEVICE"
	EnvArtNetTarget      = "CHUCK_ARTNET_TARGET"
	EnvArtNetUniverse    = "CHUCK_ARTNET_UNIVERSE"
	EnvDMXFatal          = "CHUCK_DMX_FATAL"
	EnvChaseDelay        = "CHUCK_CHASE_DELAY"
	EnvChaseMinDelay     = "CHUCK_CHASE_MIN_DELAY"
	EnvChaseMaxDelay     = "CHUCK_CHASE_MAX_DELAY"
	EnvChaseStep         = "CHUCK_CHASE_STEP"
	EnvHeartbeatInterval = "CHUCK_HEARTBEAT_INTERVAL"
	EnvQueueSize         = "CHUCK_QUEUE_SIZE"
	EnvHighlightInterval = "CHUCK_HIGHLIGHT_INTERVAL"
	EnvPresetInterval    = "CHUCK_PRESET_INTERVAL"
	EnvLogLevel          = "LOG_LEVEL"
)

// parseEnv reads key and converts it with parse. Empty or unparsable values
// fall back to def; the chosen source is logged either way.
func parseEnv[T any](logger zerolog.Logger, key string, def T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok {
		logger.Debug().Str("key", key).Interface("default", def).Str("source", "default").Msg("using default value")
		return def
	}
	if raw == "" {
		logger.Debug().Str("key", key).Interface("default", def).Str("source", "default").
			Msg("using default value (environment variable is empty)")
		return def
	}
	v, err := parse(raw)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Str("value", raw).Interface("default", def).
			Msg("invalid environment variable, using default")
		return def
	}
	logger.Debug().Str("key", key).Interface("value", v).Str("source", "environment").Msg("using environment variable")
	return v
}

// ParseString reads a string variable.
func ParseString(key, defaultValue string) string {
	return parseEnv(log.WithComponent("config"), key, defaultValue, func(s string) (string, error) { return s, nil })
}

// ParseInt reads an integer variable.
func ParseInt(key string, defaultValue int) int {
	return parseEnv(log.WithComponent("config"), key, defaultValue, strconv.Atoi)
}

// ParseDuration reads a Go duration such as "250ms".
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	return parseEnv(log.WithComponent("config"), key, defaultValue, time.ParseDuration)
}

// ParseBool reads a boolean; true/false, 1/0 and yes/no are accepted.
func ParseBool(key string, defaultValue bool) bool {
	return parseEnv(log.WithComponent("config"), key, defaultValue, parseBool)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}
