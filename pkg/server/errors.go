package server

import (
	"encoding/json"
	"net/http"

	mwerrors "github.com/tschomay/mindweb/pkg/errors"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    mwerrors.Code `json:"code"`
	Message string        `json:"message"`
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(code mwerrors.Code) int {
	switch code {
	case mwerrors.ErrCodeNodeNotFound, mwerrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case mwerrors.ErrCodeInvalidParent, mwerrors.ErrCodeInvalidInput:
		return http.StatusUnprocessableEntity
	case mwerrors.ErrCodeMalformedSnapshot, mwerrors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case mwerrors.ErrCodeBusyImporting:
		return http.StatusConflict
	case mwerrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := mwerrors.GetCode(err)
	if code == "" {
		code = mwerrors.ErrCodeInternal
	}
	status := StatusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, ErrorBody{Error: ErrorDetail{Code: code, Message: mwerrors.UserMessage(err)}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
