package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"safeflow/core/assist"
	"safeflow/core/utils"
)

type AssistHandler struct {
	client *assist.Client
	logger *utils.Logger
}

func NewAssistHandler(client *assist.Client, logger *utils.Logger) *AssistHandler {
	return &AssistHandler{client: client, logger: logger}
}

type chatRequest struct {
	Message string            `json:"message"`
	History []assist.ChatTurn `json:"history"`
}

// Chat is session-scoped: the session id doubles as the conversation id, so
// one in-flight request per session is enforced.
func (h *AssistHandler) Chat(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if sess == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "empty message", http.StatusBadRequest)
		return
	}
	reply, err := h.client.ChatReply(r.Context(), sess.ID, req.Message, string(sess.User.Role), req.History)
	if err != nil {
		if errors.Is(err, assist.ErrConversationBusy) {
			http.Error(w, "a reply is already being generated", http.StatusConflict)
			return
		}
		h.logger.Errorf("chat failed: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}
