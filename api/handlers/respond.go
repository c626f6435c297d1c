// Package handlers holds one constructor-injected handler struct per
// feature area. Every handler assumes the session middleware already ran.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"safeflow/core/auth"
	"safeflow/core/store"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// currentSession pulls the session injected by the middleware. A nil return
// means the route was wired outside the session group, which is a bug.
func currentSession(r *http.Request) *auth.Session {
	if v := r.Context().Value(auth.SessionContextKey); v != nil {
		return v.(*auth.Session)
	}
	return nil
}

// respondStoreError maps the store error taxonomy onto HTTP statuses.
func respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrUnauthorized):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, store.ErrInvalidReference):
		http.Error(w, "invalid reference", http.StatusUnprocessableEntity)
	case errors.Is(err, store.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
