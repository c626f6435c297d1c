package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"safeflow/core/audit"
	"safeflow/core/auth"
	"safeflow/core/rbac"
	"safeflow/core/utils"
)

// SessionCookie is the browser-side session handle.
const SessionCookie = "safeflow_session"

type AuthHandler struct {
	sessions *auth.SessionManager
	trail    *audit.Trail
	logger   *utils.Logger
}

func NewAuthHandler(sessions *auth.SessionManager, trail *audit.Trail, logger *utils.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, trail: trail, logger: logger}
}

type loginRequest struct {
	Role string `json:"role"`
}

// Login is a role selection, not a credential check. The demo directory
// resolves the role to a fixed user.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	role, ok := rbac.ParseRole(req.Role)
	if !ok {
		http.Error(w, "unknown role", http.StatusBadRequest)
		return
	}
	sess, err := h.sessions.Login(role)
	if err != nil {
		h.logger.Errorf("login failed: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  sess.ExpiresAt,
	})
	h.trail.Record(r.Context(), sess.User.Actor(), audit.ActionLogin, "", string(role))
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": sess.User})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if sess == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	h.sessions.Logout(sess.ID)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
	h.trail.Record(r.Context(), sess.User.Actor(), audit.ActionLogout, "", "")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if sess == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": sess.User})
}

func (h *AuthHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": h.sessions.Feed().All()})
}

func (h *AuthHandler) ClearNotifications(w http.ResponseWriter, r *http.Request) {
	h.sessions.Feed().Clear()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
