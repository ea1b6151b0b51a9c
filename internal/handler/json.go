package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go-community-app/internal/middleware"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, code int, v interface{}) *middleware.AppError {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are gone; the error can only be logged.
		return &middleware.AppError{Error: err, Message: "failed to encode response", Code: http.StatusInternalServerError}
	}
	return nil
}

// decodeJSON reads a JSON body into dst. Unknown fields are rejected.
func decodeJSON(r *http.Request, dst interface{}) *middleware.AppError {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("request body is empty")
		}
		return &middleware.AppError{Error: err, Message: "invalid request body: " + err.Error(), Code: http.StatusBadRequest}
	}
	return nil
}

// idParam parses a positive int64 URL parameter.
func idParam(r *http.Request, name string) (int64, *middleware.AppError) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &middleware.AppError{
			Error:   fmt.Errorf("bad %s %q", name, raw),
			Message: fmt.Sprintf("invalid %s", name),
			Code:    http.StatusBadRequest,
		}
	}
	return id, nil
}
