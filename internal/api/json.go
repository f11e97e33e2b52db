package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"jasper-go/internal/jasper"
)

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("json encode failed", "error", err)
	}
}

// decode reads a JSON request body of at most 1 MiB into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &jasper.InvalidInputError{Field: "body", Reason: err.Error()}
	}
	return nil
}

type errResponse struct {
	Error      string `json:"error"`
	ExistingID string `json:"existing_id,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// statusFor maps the domain error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, jasper.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, jasper.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, jasper.ErrDuplicateContent),
		errors.Is(err, jasper.ErrLastLocation),
		errors.Is(err, jasper.ErrConcurrentArchival):
		return http.StatusConflict
	case errors.Is(err, jasper.ErrArchivalTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with its mapped status. Unclassified errors are logged
// and reported without detail.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		h.writeJSON(w, status, errorBody("internal error"))
		return
	}
	body := errorBody(err.Error())
	var dup *jasper.DuplicateContentError
	if errors.As(err, &dup) {
		body.ExistingID = dup.ExistingID
	}
	h.writeJSON(w, status, body)
}
