package io

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	mwerrors "github.com/tschomay/mindweb/pkg/errors"
	"github.com/tschomay/mindweb/pkg/mindmap"
)

const filePermissions = 0o644

// ExportFile writes g to path, choosing the encoding with [FormatFor].
//
// The snapshot is written to a temporary file next to path and renamed into
// place, so readers and file watchers never observe a half-written file.
func ExportFile(g *mindmap.Graph, path string) error {
	return WriteFile(path, Export(g))
}

// WriteFile atomically writes snap to path.
func WriteFile(path string, snap Snapshot) error {
	_, err := WriteFileSum(path, snap)
	return err
}

// WriteFileSum is WriteFile that also returns the [FileSum] of the bytes
// written.
func WriteFileSum(path string, snap Snapshot) (string, error) {
	if err := mwerrors.ValidatePath(path); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := Write(&buf, snap, FormatFor(path)); err != nil {
		return "", mwerrors.Wrap(mwerrors.ErrCodeInternal, err, "encode %s", path)
	}
	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return "", err
	}
	return sum(buf.Bytes()), nil
}

// FileSum returns the hex SHA-256 of the file at path.
func FileSum(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", mwerrors.Wrap(mwerrors.ErrCodeFileNotFound, err, "read %s", path)
	}
	if err != nil {
		return "", mwerrors.Wrap(mwerrors.ErrCodeIO, err, "read %s", path)
	}
	return sum(data), nil
}

func sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return mwerrors.Wrap(mwerrors.ErrCodeIO, err, "create %s", path)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return mwerrors.Wrap(mwerrors.ErrCodeIO, err, "write %s", path)
	}
	if err := tmp.Chmod(filePermissions); err != nil {
		tmp.Close()
		return mwerrors.Wrap(mwerrors.ErrCodeIO, err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return mwerrors.Wrap(mwerrors.ErrCodeIO, err, "write %s", path)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return mwerrors.Wrap(mwerrors.ErrCodeIO, err, "rename %s", path)
	}
	return nil
}

// ReadFile decodes the snapshot stored at path.
func ReadFile(path string) (Snapshot, error) {
	if err := mwerrors.ValidatePath(path); err != nil {
		return Snapshot{}, err
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, mwerrors.Wrap(mwerrors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return Snapshot{}, mwerrors.Wrap(mwerrors.ErrCodeIO, err, "open %s", path)
	}
	defer f.Close()
	return Read(f, FormatFor(path))
}

// ImportFile replaces the contents of g with the snapshot stored at path.
// On error g is unchanged.
func ImportFile(g *mindmap.Graph, path string) error {
	snap, err := ReadFile(path)
	if err != nil {
		return err
	}
	return Import(g, snap)
}
