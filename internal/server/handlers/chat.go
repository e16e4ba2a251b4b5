package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"nearby/internal/domain/chat"
)

// ChatHandler handles chat-related HTTP requests
type ChatHandler struct {
	dispatcher   chat.Dispatcher
	historyLimit int
	validate     *validator.Validate
}

// NewChatHandler creates a new chat handler
func NewChatHandler(dispatcher chat.Dispatcher, historyLimit int) *ChatHandler {
	return &ChatHandler{
		dispatcher:   dispatcher,
		historyLimit: historyLimit,
		validate:     validator.New(),
	}
}

// SendMessage sends a one-to-one or group message
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	type sendMessageRequest struct {
		FromUserID string `json:"from_user_id" validate:"required"`
		ToUserID   string `json:"to_user_id"`
		GroupID    string `json:"group_id"`
		Text       string `json:"text" validate:"required"`
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing required fields", err)
		return
	}

	msg, err := h.dispatcher.Send(r.Context(), chat.SendInput{
		FromUserID: req.FromUserID,
		ToUserID:   req.ToUserID,
		GroupID:    req.GroupID,
		Text:       req.Text,
	})
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, msg)
}

// GetHistory returns the one-to-one history with a partner
func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	partnerID := chi.URLParam(r, "partnerID")
	userID := r.URL.Query().Get("user_id")

	if userID == "" || partnerID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing user or partner ID", nil)
		return
	}

	messages, err := h.dispatcher.History(r.Context(), userID, partnerID, h.historyLimit)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, messages)
}

// GetGroupHistory returns a group's history
func (h *ChatHandler) GetGroupHistory(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	if groupID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing group ID", nil)
		return
	}

	messages, err := h.dispatcher.GroupHistory(r.Context(), groupID, h.historyLimit)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, messages)
}

// GetInbox returns the caller's conversation summaries
func (h *ChatHandler) GetInbox(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing user ID", nil)
		return
	}

	inbox, err := h.dispatcher.Inbox(r.Context(), userID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, inbox)
}

// MarkRead records that the caller has read a conversation
func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	type markReadRequest struct {
		UserID    string `json:"user_id" validate:"required"`
		PartnerID string `json:"partner_id" validate:"required"`
	}

	var req markReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Missing required fields", err)
		return
	}

	if err := h.dispatcher.MarkRead(r.Context(), req.UserID, req.PartnerID); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetUnreadCount returns the caller's total unread message count
func (h *ChatHandler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "Missing user ID", nil)
		return
	}

	count, err := h.dispatcher.UnreadCount(r.Context(), userID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"unread": count})
}
