package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	mwerrors "github.com/tschomay/mindweb/pkg/errors"
	pio "github.com/tschomay/mindweb/pkg/io"
	"github.com/tschomay/mindweb/pkg/mindmap"
	"github.com/tschomay/mindweb/pkg/pipeline"
	"github.com/tschomay/mindweb/pkg/render"
	"github.com/tschomay/mindweb/pkg/session"
)

const maxBodyBytes = 4 << 20

var validate = validator.New()

// LabelRequest is the body of the add-child and relabel routes.
type LabelRequest struct {
	Label string `json:"label"`
}

// SaveResponse is returned by POST /api/save.
type SaveResponse struct {
	Path string `json:"path"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"session":   s.sess.ID(),
		"importing": s.sess.Importing(),
	})
}

func (s *Server) graph(w http.ResponseWriter, r *http.Request) {
	v := s.sess.View()
	if visible, _ := strconv.ParseBool(r.URL.Query().Get("visible")); visible {
		v = v.Visible()
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) event(w http.ResponseWriter, r *http.Request) {
	var ev session.Event
	if err := decode(w, r, &ev); err != nil {
		s.writeError(w, r, err)
		return
	}
	// Paths on the server's disk are not the client's to choose.
	if ev.Kind == session.EventImport || ev.Kind == session.EventExport {
		s.writeError(w, r, mwerrors.New(mwerrors.ErrCodeUnsupported, "%s events are not accepted over HTTP", ev.Kind))
		return
	}
	s.handle(w, r, http.StatusOK, ev)
}

func (s *Server) nodeEvent(kind session.EventKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := nodeID(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.handle(w, r, http.StatusOK, session.Event{Kind: kind, NodeID: id})
	}
}

func (s *Server) addChild(w http.ResponseWriter, r *http.Request) {
	s.labelEvent(w, r, session.EventAddChild, http.StatusCreated)
}

func (s *Server) relabel(w http.ResponseWriter, r *http.Request) {
	s.labelEvent(w, r, session.EventRelabel, http.StatusOK)
}

func (s *Server) labelEvent(w http.ResponseWriter, r *http.Request, kind session.EventKind, status int) {
	id, err := nodeID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req LabelRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.handle(w, r, status, session.Event{Kind: kind, NodeID: id, Label: req.Label})
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request, status int, ev session.Event) {
	res, err := s.sess.Handle(r.Context(), ev)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, res)
}

func (s *Server) getSnapshot(w http.ResponseWriter, r *http.Request) {
	format := pio.FormatJSON
	if q := r.URL.Query().Get("format"); q != "" {
		f, err := pio.ParseFormat(q)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		format = f
	}
	w.Header().Set("Content-Type", contentType(format))
	if err := pio.Write(w, s.sess.Snapshot(), format); err != nil {
		s.logger.Warn("write snapshot response", "err", err)
	}
}

func (s *Server) putSnapshot(w http.ResponseWriter, r *http.Request) {
	format := pio.FormatJSON
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		format = pio.FormatYAML
	}
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := s.sess.Import(r.Context(), body, format); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = mwerrors.New(mwerrors.ErrCodeMalformedSnapshot, "snapshot exceeds %d bytes", tooLarge.Limit)
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.sess.View())
}

func (s *Server) save(w http.ResponseWriter, r *http.Request) {
	path, err := s.sess.Save(r.Context(), "")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SaveResponse{Path: path})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	format, err := render.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	opts := pipeline.Options{Format: format, RankDir: s.rankDir}
	if dir := q.Get("rankdir"); dir != "" {
		opts.RankDir = strings.ToUpper(dir)
	}
	opts.ShowHidden, _ = strconv.ParseBool(q.Get("hidden"))
	opts.Refresh, _ = strconv.ParseBool(q.Get("refresh"))
	if id, ok := s.sess.Selected(); ok {
		opts.Selected = id
	}

	res, err := s.runner.Execute(r.Context(), s.sess.View(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("ETag", strconv.Quote(res.DOTHash))
	if res.CacheHit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	_, _ = w.Write(res.Artifact)
}

func nodeID(r *http.Request) (mindmap.NodeID, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, mwerrors.New(mwerrors.ErrCodeInvalidInput, "invalid node id %q", raw)
	}
	return mindmap.NodeID(id), nil
}

// decode reads a JSON body into v and validates its struct tags.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return mwerrors.New(mwerrors.ErrCodeInvalidInput, "request body is empty")
		}
		return mwerrors.Wrap(mwerrors.ErrCodeInvalidInput, err, "invalid request body")
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return mwerrors.New(mwerrors.ErrCodeInvalidInput, "field %s failed %s", strings.ToLower(fe.Field()), fe.Tag())
		}
		return mwerrors.Wrap(mwerrors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func contentType(f pio.Format) string {
	if f == pio.FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}
