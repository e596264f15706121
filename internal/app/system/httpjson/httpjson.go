// Package httpjson writes JSON responses and maps application errors onto
// HTTP status codes.
package httpjson

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/cmsdesk/internal/app/system/apperr"
	"go.uber.org/zap"
)

// MaxBody caps request bodies read by Decode.
const MaxBody = 1 << 20

// ErrorBody is the shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// Write encodes v with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes {"error": msg} with the given status.
func Error(w http.ResponseWriter, status int, msg string) {
	Write(w, status, ErrorBody{Error: msg})
}

// Fail maps err through apperr. Validation, not-found and duplicate errors
// expose their message; anything else is logged and replaced by fallback.
func Fail(w http.ResponseWriter, log *zap.Logger, err error, fallback string) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		log.Error(fallback, zap.Error(err))
	}
	Error(w, status, apperr.Message(err, fallback))
}

// Decode reads a JSON body into v. An empty or malformed body is a
// validation error.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is required")
		}
		return apperr.Validation("invalid JSON body")
	}
	return nil
}
