package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	mwerrors "github.com/tschomay/mindweb/pkg/errors"
)

// Format selects a snapshot encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the encoding from a file name: .yaml and .yml are YAML,
// anything else is JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseFormat converts a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", mwerrors.New(mwerrors.ErrCodeInvalidInput, "unknown snapshot format %q (want json or yaml)", s)
	}
}

// Write encodes snap to w in the given format.
func Write(w io.Writer, snap Snapshot, format Format) error {
	if format == FormatYAML {
		return WriteYAML(w, snap)
	}
	return WriteJSON(w, snap)
}

// Read decodes a snapshot from r in the given format. Read failures carry
// IO_ERROR and undecodable input carries MALFORMED_SNAPSHOT.
func Read(r io.Reader, format Format) (Snapshot, error) {
	if format == FormatYAML {
		return ReadYAML(r)
	}
	return ReadJSON(r)
}

// WriteJSON encodes snap as indented JSON.
func WriteJSON(w io.Writer, snap Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a JSON snapshot. The input must be an object with a
// "nodes" array; "edges" may be omitted. Unknown fields are ignored so that
// files written by other tools load as long as they carry ids and endpoints.
func ReadJSON(r io.Reader) (Snapshot, error) {
	data, err := readAll(r)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, mwerrors.Wrap(mwerrors.ErrCodeMalformedSnapshot, err, "decode json")
	}
	return snap, nil
}

// WriteYAML encodes snap as YAML.
func WriteYAML(w io.Writer, snap Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadYAML decodes a YAML snapshot.
func ReadYAML(r io.Reader) (Snapshot, error) {
	data, err := readAll(r)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, mwerrors.Wrap(mwerrors.ErrCodeMalformedSnapshot, err, "decode yaml")
	}
	return snap, nil
}

func readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, mwerrors.Wrap(mwerrors.ErrCodeIO, err, "read snapshot")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, mwerrors.New(mwerrors.ErrCodeMalformedSnapshot, "snapshot is empty")
	}
	return data, nil
}
