package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/doc-site/pkg/utils"
)

// envelope is the success body of every API response
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// errorBody is the failure body of every API response
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, errorBody{Error: message, Details: details})
}

// statusFor maps sentinel errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, utils.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, utils.ErrInvalidInput), errors.Is(err, utils.ErrParsing):
		return http.StatusBadRequest
	case errors.Is(err, utils.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, utils.ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with the status its category maps to. Not-found errors use
// notFound as the message; client errors carry err as details; server errors
// are logged and answered with message only.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, message, notFound string) {
	status := statusFor(err)
	switch {
	case status == http.StatusNotFound:
		writeError(w, status, notFound, "")
	case status < http.StatusInternalServerError:
		writeError(w, status, message, err.Error())
	default:
		s.log.WithFields(logrus.Fields{
			"path":       r.URL.Path,
			"error_type": utils.CategorizeError(err),
		}).Errorf("%s: %v", message, err)
		writeError(w, status, message, "")
	}
}

// decodeJSON reads a JSON request body of at most limit bytes into v
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request body exceeds %d bytes", utils.ErrBodyTooLarge, tooLarge.Limit)
		}
		return fmt.Errorf("%w: invalid JSON body: %w", utils.ErrParsing, err)
	}
	return nil
}
