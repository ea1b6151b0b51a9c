package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go-community-app/internal/apperr"
	"go-community-app/internal/logger"
)

// AppError represents a custom error type for the application.
type AppError struct {
	Error   error
	Message string
	Code    int
}

// FromErr classifies err into an AppError, or returns nil for a nil err.
func FromErr(err error) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Error:   err,
		Message: apperr.Message(err),
		Code:    apperr.KindOf(err).Status(),
	}
}

// AppHandler is a custom handler function type that returns an AppError.
type AppHandler func(http.ResponseWriter, *http.Request) *AppError

// Error is a middleware that turns handler errors and panics into JSON
// error bodies. Server errors are logged; client errors are not.
func Error(log logger.Logger) func(AppHandler) http.Handler {
	return func(next AppHandler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err, ok := rec.(error)
					if !ok {
						err = fmt.Errorf("%v", rec)
					}
					log.Error(err, "Panic recovered")
					WriteError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			if appErr := next(w, r); appErr != nil {
				if appErr.Code >= http.StatusInternalServerError {
					log.With(map[string]interface{}{"method": r.Method, "path": r.URL.Path}).Error(appErr.Error, appErr.Message)
				}
				WriteError(w, appErr.Code, appErr.Message)
			}
		})
	}
}

// WriteError writes {"error": message} with the given status.
func WriteError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
