package session

import (
	"context"
	"errors"
	"io/fs"
	"os"

	mwerrors "github.com/tschomay/mindweb/pkg/errors"
	pio "github.com/tschomay/mindweb/pkg/io"
	"github.com/tschomay/mindweb/pkg/observability"
)

// Open imports the snapshot stored at path and makes it the session's file.
// The encoding follows the file extension.
func (s *Session) Open(ctx context.Context, path string) error {
	return s.open(ctx, path, false)
}

func (s *Session) open(ctx context.Context, path string, reload bool) error {
	if err := mwerrors.ValidatePath(path); err != nil {
		return err
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return mwerrors.Wrap(mwerrors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return mwerrors.Wrap(mwerrors.ErrCodeIO, err, "open %s", path)
	}

	results, err := s.startImport(ctx, f, pio.FormatFor(path), path, reload)
	if err != nil {
		f.Close()
		return err
	}
	return s.CompleteImport(ctx, <-results)
}

// Reload re-imports the session's snapshot file. The selection survives
// when the selected node is still present.
func (s *Session) Reload(ctx context.Context) error {
	path := s.Path()
	if path == "" {
		return mwerrors.New(mwerrors.ErrCodeInvalidPath, "session has no snapshot file")
	}
	return s.open(ctx, path, true)
}

// ChangedOnDisk reports whether the session file differs from what the
// session last saved there. A file the session never saved counts as
// changed.
func (s *Session) ChangedOnDisk() bool {
	s.mu.Lock()
	path, saved := s.path, s.savedSum
	s.mu.Unlock()
	if path == "" || saved == "" {
		return true
	}
	current, err := pio.FileSum(path)
	return err != nil || current != saved
}

// Save exports the graph to path, or to the session's file when path is
// empty, and returns the path written. The file is replaced atomically.
func (s *Session) Save(ctx context.Context, path string) (string, error) {
	s.mu.Lock()
	if path == "" {
		path = s.path
	}
	if path == "" {
		s.mu.Unlock()
		return "", mwerrors.New(mwerrors.ErrCodeInvalidPath, "no snapshot file given")
	}
	snap := pio.Export(s.graph)
	s.mu.Unlock()

	digest, err := pio.WriteFileSum(path, snap)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.path = path
	s.savedSum = digest
	s.mu.Unlock()

	observability.Graph().OnExport(ctx, len(snap.Nodes), len(snap.Edges))
	s.logger.Info("saved snapshot", "session", s.id, "path", path, "nodes", len(snap.Nodes))
	return path, nil
}
