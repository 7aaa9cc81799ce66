package session

import (
	"context"
	"slices"

	mwerrors "github.com/tschomay/mindweb/pkg/errors"
	"github.com/tschomay/mindweb/pkg/mindmap"
	"github.com/tschomay/mindweb/pkg/observability"
)

// EventKind names a user gesture.
type EventKind string

const (
	EventSelect   EventKind = "select"    // single click
	EventToggle   EventKind = "toggle"    // double click
	EventAddChild EventKind = "add_child" // Label names the new node
	EventRemove   EventKind = "remove"
	EventRelabel  EventKind = "relabel"
	EventImport   EventKind = "import" // Path names the file
	EventExport   EventKind = "export" // Path may be empty to reuse the session path
)

// Event is a gesture forwarded by a host.
type Event struct {
	Kind   EventKind      `json:"kind" validate:"required,oneof=select toggle add_child remove relabel import export"`
	NodeID mindmap.NodeID `json:"node_id,omitempty"`
	Label  string         `json:"label,omitempty"`
	Path   string         `json:"path,omitempty"`
}

// Result describes what an event did. View is the graph after the event.
type Result struct {
	Kind      EventKind        `json:"kind"`
	NodeID    mindmap.NodeID   `json:"node_id,omitempty"`
	Collapsed bool             `json:"collapsed,omitempty"`
	Removed   []mindmap.NodeID `json:"removed,omitempty"`
	Path      string           `json:"path,omitempty"`
	View      mindmap.View     `json:"view"`
}

// Handle applies ev to the session.
//
// Mutating events fail with BUSY_IMPORTING while an import is pending. Every
// failure leaves the graph unchanged.
func (s *Session) Handle(ctx context.Context, ev Event) (Result, error) {
	switch ev.Kind {
	case EventImport:
		if err := s.Open(ctx, ev.Path); err != nil {
			return Result{}, err
		}
		return s.result(ev.Kind, 0), nil
	case EventExport:
		path, err := s.Save(ctx, ev.Path)
		if err != nil {
			return Result{}, err
		}
		res := s.result(ev.Kind, 0)
		res.Path = path
		return res, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.Debug("event", "session", s.id, "kind", ev.Kind, "node", ev.NodeID)

	res := Result{Kind: ev.Kind, NodeID: ev.NodeID}
	switch ev.Kind {
	case EventSelect:
		if !s.graph.HasNode(ev.NodeID) {
			return Result{}, mwerrors.New(mwerrors.ErrCodeNodeNotFound, "node %d does not exist", ev.NodeID)
		}
		s.selected = ev.NodeID

	case EventToggle:
		if s.pending {
			return Result{}, busy()
		}
		collapsed, err := s.graph.Toggle(ev.NodeID)
		if err != nil {
			return Result{}, err
		}
		res.Collapsed = collapsed
		observability.Graph().OnToggle(ctx, int(ev.NodeID), collapsed)

	case EventAddChild:
		if s.pending {
			return Result{}, busy()
		}
		id, err := s.graph.AddChild(ev.NodeID, ev.Label)
		observability.Graph().OnMutation(ctx, string(ev.Kind), err)
		if err != nil {
			return Result{}, err
		}
		res.NodeID = id

	case EventRemove:
		if s.pending {
			return Result{}, busy()
		}
		removed, err := s.graph.RemoveSubtree(ev.NodeID)
		observability.Graph().OnMutation(ctx, string(ev.Kind), err)
		if err != nil {
			return Result{}, err
		}
		if slices.Contains(removed, s.selected) {
			s.selected = 0
		}
		res.Removed = removed

	case EventRelabel:
		if s.pending {
			return Result{}, busy()
		}
		err := s.graph.RelabelNode(ev.NodeID, ev.Label)
		observability.Graph().OnMutation(ctx, string(ev.Kind), err)
		if err != nil {
			return Result{}, err
		}

	default:
		return Result{}, mwerrors.New(mwerrors.ErrCodeInvalidInput, "unknown event kind %q", ev.Kind)
	}

	res.View = s.graph.View()
	return res, nil
}

func (s *Session) result(kind EventKind, id mindmap.NodeID) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Result{Kind: kind, NodeID: id, View: s.graph.View()}
}
