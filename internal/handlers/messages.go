package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/middleware"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	conversations, err := h.messages.ListConversations(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load conversations")
		return
	}
	respondJSON(w, http.StatusOK, conversations)
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	conversationID := chi.URLParam(r, "id")
	conv, err := h.messages.GetConversation(r.Context(), conversationID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "conversation not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load conversation")
		return
	}
	if conv.UserAID != userID && conv.UserBID != userID {
		respondError(w, http.StatusForbidden, "not a participant")
		return
	}
	messages, err := h.messages.ListMessages(r.Context(), conversationID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load messages")
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

func (h *Handler) MarkConversationRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	conversationID := chi.URLParam(r, "id")
	conv, err := h.messages.GetConversation(r.Context(), conversationID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "conversation not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load conversation")
		return
	}
	if conv.UserAID != userID && conv.UserBID != userID {
		respondError(w, http.StatusForbidden, "not a participant")
		return
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		return h.messages.MarkRead(r.Context(), tx, conversationID, userID)
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to mark conversation read")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type sendMessageRequest struct {
	ReceiverID        string  `json:"receiver_id"`
	Content           string  `json:"content"`
	RelatedProposalID *string `json:"related_proposal_id"`
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.ReceiverID == "" || req.ReceiverID == userID {
		respondError(w, http.StatusBadRequest, "invalid receiver")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		respondError(w, http.StatusBadRequest, "message content is required")
		return
	}
	if _, err := h.users.GetByID(r.Context(), req.ReceiverID); err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "receiver not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to resolve receiver")
		return
	}
	var message models.Message
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		now := time.Now().UTC()
		conv, err := h.messages.GetConversationBetween(r.Context(), tx, userID, req.ReceiverID)
		if err != nil {
			if err != sql.ErrNoRows {
				return err
			}
			conv = models.Conversation{
				ID:                uuid.NewString(),
				UserAID:           userID,
				UserBID:           req.ReceiverID,
				RelatedProposalID: req.RelatedProposalID,
				UpdatedAt:         now,
			}
			if err := h.messages.CreateConversation(r.Context(), tx, conv); err != nil {
				return err
			}
		}
		message = models.Message{
			ID:             uuid.NewString(),
			ConversationID: conv.ID,
			SenderID:       userID,
			ReceiverID:     req.ReceiverID,
			Content:        req.Content,
			CreatedAt:      now,
		}
		if err := h.messages.CreateMessage(r.Context(), tx, message); err != nil {
			return err
		}
		return h.messages.TouchConversation(r.Context(), tx, conv.ID, now)
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to send message")
		return
	}
	respondJSON(w, http.StatusCreated, message)
}
