package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"capacitor/pkg/platform/sentinel"
)

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates err into a JSON error envelope. Internal failures never
// expose their description.
func WriteError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	body := map[string]string{"error": code}
	if status < http.StatusInternalServerError {
		body["error_description"] = err.Error()
	}
	WriteJSON(w, status, body)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, sentinel.ErrInvalidInput):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, sentinel.ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
