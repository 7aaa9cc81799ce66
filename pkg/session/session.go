// Package session is the entry point a host UI uses to drive one open mind
// map.
//
// A [Session] owns a [mindmap.Graph] for its whole lifetime together with the
// current selection and the snapshot file it was opened from. Hosts forward
// user gestures as [Event] values to [Session.Handle] and re-render from the
// [mindmap.View] carried by the returned [Result].
//
// # Imports
//
// Importing is the only operation that waits on I/O. It runs in two phases:
// [Session.StartImport] reads and decodes the snapshot on its own goroutine,
// and [Session.CompleteImport] swaps the decoded graph in. Between the two
// the session is busy: every mutation and any second import fail with
// BUSY_IMPORTING while selection and export keep working.
//
//	results, err := sess.StartImport(ctx, file, io.FormatJSON)
//	if err != nil {
//	    return err // BUSY_IMPORTING
//	}
//	// ... keep serving events ...
//	err = sess.CompleteImport(ctx, <-results)
//
// # Concurrency
//
// All methods are safe for concurrent use. Events are applied one at a time,
// in the order their callers acquire the session.
package session

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	mwerrors "github.com/tschomay/mindweb/pkg/errors"
	pio "github.com/tschomay/mindweb/pkg/io"
	"github.com/tschomay/mindweb/pkg/mindmap"
	"github.com/tschomay/mindweb/pkg/observability"
)

// Session holds the state of one open mind map.
type Session struct {
	mu       sync.Mutex
	id       string
	graph    *mindmap.Graph
	selected mindmap.NodeID
	path     string
	pending  bool
	// savedSum is the FileSum of the last snapshot written to path.
	savedSum string
	logger   *log.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithGraph starts the session from g instead of an empty graph.
func WithGraph(g *mindmap.Graph) Option {
	return func(s *Session) {
		if g != nil {
			s.graph = g
		}
	}
}

// WithLogger sets the session's logger. A nil logger is ignored.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPath records the snapshot file the session saves to by default.
func WithPath(path string) Option {
	return func(s *Session) { s.path = path }
}

// New creates a session with a fresh ID.
func New(opts ...Option) *Session {
	s := &Session{
		id:     uuid.NewString(),
		graph:  mindmap.New(),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// View returns the current node and edge collections.
func (s *Session) View() mindmap.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.View()
}

// Snapshot exports the current graph.
func (s *Session) Snapshot() pio.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pio.Export(s.graph)
}

// Selected returns the selected node, if any.
func (s *Session) Selected() (mindmap.NodeID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.selected != 0
}

// Path returns the snapshot file the session was opened from or last saved to.
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Importing reports whether an import has started and not yet completed.
func (s *Session) Importing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Marker returns the collapse marker glyph of the session's graph.
func (s *Session) Marker() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Marker()
}

// ImportResult is the outcome of the read phase of an import.
type ImportResult struct {
	Snapshot pio.Snapshot
	Source   string
	Err      error
	Started  time.Time

	// reload keeps the selection when the selected node survives.
	reload bool
}

// StartImport begins reading a snapshot from r in the background and marks
// the session busy. The returned channel delivers exactly one result, which
// must be passed to [Session.CompleteImport]. If r is an io.Closer it is
// closed once reading finishes.
func (s *Session) StartImport(ctx context.Context, r io.Reader, format pio.Format) (<-chan ImportResult, error) {
	return s.startImport(ctx, r, format, "", false)
}

func (s *Session) startImport(ctx context.Context, r io.Reader, format pio.Format, source string, reload bool) (<-chan ImportResult, error) {
	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return nil, busy()
	}
	s.pending = true
	s.mu.Unlock()

	s.logger.Debug("import started", "session", s.id, "source", source, "format", format)
	results := make(chan ImportResult, 1)
	go func() {
		res := ImportResult{Source: source, Started: time.Now(), reload: reload}
		res.Snapshot, res.Err = pio.Read(r, format)
		if c, ok := r.(io.Closer); ok {
			_ = c.Close()
		}
		if res.Err == nil && ctx.Err() != nil {
			res.Err = mwerrors.Wrap(mwerrors.ErrCodeIO, ctx.Err(), "import cancelled")
		}
		results <- res
		close(results)
	}()
	return results, nil
}

// CompleteImport applies the result of [Session.StartImport] and clears the
// busy state. A failed read or an invalid snapshot leaves the graph as it
// was. A successful import replaces the graph and clears the selection; a
// reload of the session file keeps it while the selected node exists.
func (s *Session) CompleteImport(ctx context.Context, res ImportResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pending {
		return mwerrors.New(mwerrors.ErrCodeInvalidInput, "no import in progress")
	}
	s.pending = false

	err := res.Err
	if err == nil {
		err = pio.Import(s.graph, res.Snapshot)
	}
	observability.Graph().OnImport(ctx, s.graph.NodeCount(), s.graph.EdgeCount(), time.Since(res.Started), err)
	if err != nil {
		s.logger.Warn("import failed", "session", s.id, "source", res.Source, "err", err)
		return err
	}
	if !res.reload || !s.graph.HasNode(s.selected) {
		s.selected = 0
	}
	if res.Source != "" {
		if res.Source != s.path {
			s.savedSum = ""
		}
		s.path = res.Source
	}
	s.logger.Info("imported snapshot",
		"session", s.id,
		"nodes", s.graph.NodeCount(),
		"edges", s.graph.EdgeCount(),
		"duration", time.Since(res.Started).Round(time.Millisecond))
	return nil
}

// Import reads a snapshot from r and applies it, waiting for both phases.
func (s *Session) Import(ctx context.Context, r io.Reader, format pio.Format) error {
	results, err := s.StartImport(ctx, r, format)
	if err != nil {
		return err
	}
	return s.CompleteImport(ctx, <-results)
}

func busy() error {
	return mwerrors.New(mwerrors.ErrCodeBusyImporting, "an import is in progress")
}
