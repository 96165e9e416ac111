// Package httputil provides shared HTTP response and request helpers.
package httputil

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/ufukayyildiz/tocwtr2b/internal/errors"
)

// WriteJSON writes data as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes the standard `{error: message}` envelope.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// WriteServiceError maps a ServiceError onto the wire.
func WriteServiceError(w http.ResponseWriter, err *apperrors.ServiceError) {
	if err.HTTPStatus >= http.StatusInternalServerError {
		WriteJSON(w, err.HTTPStatus, map[string]string{
			"error":     err.Code,
			"message":   err.Message,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	WriteError(w, err.HTTPStatus, err.Message)
}

// BadRequest writes a 400 error envelope.
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

// Unauthorized writes a 401 error envelope.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message)
}

// NotFound writes a 404 error envelope.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

// Conflict writes a 409 error envelope.
func Conflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, message)
}

// InternalError writes the 500 envelope with a timestamp.
func InternalError(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusInternalServerError, map[string]string{
		"error":     apperrors.CodeInternal,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// DecodeJSON decodes the request body into dst, writing a 400 and returning
// false on malformed input.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		BadRequest(w, "invalid JSON body")
		return false
	}
	return true
}

// BearerToken extracts a bearer token from the Authorization header, or ""
// when none is present.
func BearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(auth[len("Bearer "):])
	}
	return ""
}

// ClientIP extracts the originating client address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if idx := strings.LastIndex(r.RemoteAddr, ":"); idx > 0 {
		return r.RemoteAddr[:idx]
	}
	return r.RemoteAddr
}
