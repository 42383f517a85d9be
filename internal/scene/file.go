// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package scene

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"

	"github.com/ManuGH/chuck/internal/dmx"
)

type fileFormat struct {
	Scenes [][]int `yaml:"scenes"`
}

// Load replaces the stored scenes with the contents of the YAML scene file at
// path. A missing file leaves an empty list.
func (s *Store) Load(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied scene file
	if errors.Is(err, os.ErrNotExist) {
		s.replace(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read scene file: %w", err)
	}

	var ff fileFormat
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&ff); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse scene file %s: %w", path, err)
	}

	scenes := make([]dmx.Frame, 0, len(ff.Scenes))
	for i, slots := range ff.Scenes {
		f, err := dmx.FrameFromSlice(slots)
		if err != nil {
			return fmt.Errorf("scene %d in %s: %w", i, path, err)
		}
		scenes = append(scenes, f)
	}
	s.replace(scenes)
	return nil
}

// Save writes every stored scene to path, replacing it atomically.
func (s *Store) Save(path string) error {
	ff := fileFormat{Scenes: [][]int{}}
	for _, f := range s.All() {
		ff.Scenes = append(ff.Scenes, f.Slots())
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(ff); err != nil {
		return fmt.Errorf("encode scenes: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode scenes: %w", err)
	}

	pf, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending scene file: %w", err)
	}
	defer func() { _ = pf.Cleanup() }()

	if _, err := pf.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write scene file: %w", err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace scene file: %w", err)
	}
	return nil
}
