// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package profile

// Presets is the fixed colour palette cycled in preset mode.
var Presets = []Color{
	{R: 255, G: 0, B: 0},     // red
	{R: 0, G: 255, B: 0},     // green
	{R: 0, G: 0, B: 255},     // blue
	{R: 255, G: 191, B: 0},   // amber
	{R: 0, G: 255, B: 255},   // cyan
	{R: 255, G: 0, B: 255},   // magenta
	{R: 255, G: 255, B: 0},   // yellow
	{R: 255, G: 255, B: 255}, // white
	{R: 255, G: 69, B: 0},    // orange
	{R: 128, G: 0, B: 128},   // purple
}

// Step moves index by delta over n entries with wraparound.
func Step(index, delta, n int) int {
	if n <= 0 {
		return 0
	}
	index = (index + delta) % n
	if index < 0 {
		index += n
	}
	return index
}
