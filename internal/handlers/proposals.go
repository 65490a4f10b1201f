package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/middleware"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/models"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/services"

	"github.com/go-chi/chi/v5"
)

type createProposalRequest struct {
	ToUserID            string `json:"to_user_id"`
	ProposalType        string `json:"proposal_type"`
	OfferedSkillID      string `json:"offered_skill_id"`
	OfferedSkillTitle   string `json:"offered_skill_title"`
	OfferedCredits      int64  `json:"offered_credits"`
	RequestedSkillID    string `json:"requested_skill_id"`
	RequestedSkillTitle string `json:"requested_skill_title"`
	RequestedCredits    int64  `json:"requested_credits"`
	Message             string `json:"message"`
}

func (h *Handler) CreateProposal(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	proposal, err := h.proposals.Create(r.Context(), services.CreateProposalInput{
		FromUserID:          userID,
		ToUserID:            req.ToUserID,
		ProposalType:        models.ProposalType(req.ProposalType),
		OfferedSkillID:      req.OfferedSkillID,
		OfferedSkillTitle:   req.OfferedSkillTitle,
		OfferedCredits:      req.OfferedCredits,
		RequestedSkillID:    req.RequestedSkillID,
		RequestedSkillTitle: req.RequestedSkillTitle,
		RequestedCredits:    req.RequestedCredits,
		Message:             req.Message,
	})
	if err != nil {
		respondProposalError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, proposal)
}

func (h *Handler) ListProposals(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	inbox, err := h.proposals.ListForUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load proposals")
		return
	}
	respondJSON(w, http.StatusOK, inbox)
}

func (h *Handler) GetProposal(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	proposal, err := h.proposals.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondProposalError(w, err)
		return
	}
	if proposal.FromUserID != userID && proposal.ToUserID != userID {
		respondError(w, http.StatusForbidden, "not a participant")
		return
	}
	respondJSON(w, http.StatusOK, proposal)
}

type acceptProposalRequest struct {
	Meeting *models.MeetingDetails `json:"meeting_details"`
}

func (h *Handler) AcceptProposal(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req acceptProposalRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid payload")
			return
		}
	}
	proposal, err := h.proposals.Accept(r.Context(), chi.URLParam(r, "id"), userID, req.Meeting)
	if err != nil {
		respondProposalError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, proposal)
}

func (h *Handler) DeclineProposal(w http.ResponseWriter, r *http.Request) {
	h.respondToProposal(w, r, h.proposals.Decline)
}

func (h *Handler) CancelProposal(w http.ResponseWriter, r *http.Request) {
	h.respondToProposal(w, r, h.proposals.Cancel)
}

func (h *Handler) CompleteProposal(w http.ResponseWriter, r *http.Request) {
	h.respondToProposal(w, r, h.proposals.Complete)
}

func (h *Handler) respondToProposal(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, proposalID, actorID string) (models.BarterProposal, error)) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	proposal, err := action(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		respondProposalError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, proposal)
}

func respondProposalError(w http.ResponseWriter, err error) {
	var transferErr *services.CreditTransferError
	if errors.As(err, &transferErr) {
		err = transferErr.Unwrap()
	}
	switch {
	case errors.Is(err, services.ErrProposalNotFound), errors.Is(err, services.ErrUserNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrNotParticipant):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrInsufficientCredits):
		respondError(w, http.StatusBadRequest, "insufficient_credits")
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrSelfTransfer),
		errors.Is(err, services.ErrSelfProposal),
		errors.Is(err, services.ErrInvalidProposalType),
		errors.Is(err, services.ErrMissingOfferedSkill),
		errors.Is(err, services.ErrMissingRequestedSkill),
		errors.Is(err, services.ErrInvalidOfferedCredits),
		errors.Is(err, services.ErrInvalidRequestedCredits):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "proposal operation failed")
	}
}
