// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package profile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/renameio/v2"
)

// Columns is the set-file header.
var Columns = []string{
	"name", "address", "channels",
	"dimmer", "red", "green", "blue", "amber", "white",
	"strobe", "zoom", "pan", "panFine", "tilt", "tiltFine",
}

const fixedColumns = 3

// Parse reads a set file. The header row is required; blank lines and lines
// starting with '#' are skipped.
func Parse(r io.Reader) ([]*Profile, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var out []*Profile
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		line, _ := cr.FieldPos(0)
		p, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func checkHeader(header []string) error {
	if len(header) != len(Columns) {
		return fmt.Errorf("header has %d columns, want %d", len(header), len(Columns))
	}
	for i, want := range Columns {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return fmt.Errorf("header column %d is %q, want %q", i+1, header[i], want)
		}
	}
	return nil
}

func parseRecord(rec []string) (*Profile, error) {
	if len(rec) != len(Columns) {
		return nil, fmt.Errorf("got %d fields, want %d", len(rec), len(Columns))
	}
	ints := make([]int, len(rec))
	for i := 1; i < len(rec); i++ {
		v, err := strconv.Atoi(strings.TrimSpace(rec[i]))
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", Columns[i], err)
		}
		ints[i] = v
	}
	p, err := New(strings.TrimSpace(rec[0]), ints[1], ints[2])
	if err != nil {
		return nil, err
	}
	for fn := Function(0); fn < numFunctions; fn++ {
		if err := p.SetOffset(fn, ints[fixedColumns+int(fn)]); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Write serialises ps in set-file format.
func Write(w io.Writer, ps []*Profile) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	rec := make([]string, len(Columns))
	for _, p := range ps {
		rec[0] = p.Name
		rec[1] = strconv.Itoa(p.Address)
		rec[2] = strconv.Itoa(p.Channels)
		for fn := Function(0); fn < numFunctions; fn++ {
			rec[fixedColumns+int(fn)] = strconv.Itoa(p.Offset(fn))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// LoadFile parses the set file at path. A missing file yields no profiles.
func LoadFile(path string) ([]*Profile, error) {
	f, err := os.Open(path) // #nosec G304 -- operator-supplied set file
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open set file: %w", err)
	}
	defer func() { _ = f.Close() }()

	ps, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return ps, nil
}

// SaveFile replaces the set file atomically.
func SaveFile(path string, ps []*Profile) error {
	pf, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending set file: %w", err)
	}
	defer func() { _ = pf.Cleanup() }()

	if err := Write(pf, ps); err != nil {
		return fmt.Errorf("write set file: %w", err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace set file: %w", err)
	}
	return nil
}
