package server

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/photostudio/pkg/errors"
)

// errorBody is the JSON body of every error response.
type errorBody struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code"`
}

// statusFor maps error codes to HTTP statuses.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidImage, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidPreset, errors.ErrCodeInvalidColor, errors.ErrCodeInvalidAnchor:
		return http.StatusBadRequest
	case errors.ErrCodeNoActiveDocument, errors.ErrCodeNoSelection, errors.ErrCodeMergeIncomplete,
		errors.ErrCodeToolInactive, errors.ErrCodeBusy:
		return http.StatusConflict
	case errors.ErrCodeLayerNotFound, errors.ErrCodeDocumentNotFound, errors.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeServiceFailure, errors.ErrCodeNetwork:
		return http.StatusBadGateway
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeUnauthorized:
		return http.StatusServiceUnavailable
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusFor(code)
	msg := errors.UserMessage(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "code", code, "error", err)
		if code == errors.ErrCodeInternal {
			msg = "internal error"
		}
	}
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}

// decode reads a JSON request body into v.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid JSON body")
	}
	return nil
}
