// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldInstanceID = "instance_id"
	FieldRunID      = "run_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldWorker    = "worker"

	// State fields
	FieldMode    = "mode"
	FieldOldMode = "old_mode"
	FieldNewMode = "new_mode"

	// Command fields
	FieldPacket = "packet"
	FieldData   = "data"
	FieldAction = "action"
	FieldSender = "sender"

	// Lighting fields
	FieldSceneIndex  = "scene_index"
	FieldSceneCount  = "scene_count"
	FieldLightIndex  = "light_index"
	FieldLightCount  = "light_count"
	FieldPresetIndex = "preset_index"
	FieldDelayMS     = "delay_ms"
	FieldDevice      = "device"

	// Path fields
	FieldPath = "path"
)
