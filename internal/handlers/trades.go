package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/middleware"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/services"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListTrades(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	board, err := h.trades.ListForUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load trades")
		return
	}
	respondJSON(w, http.StatusOK, board)
}

func (h *Handler) TradeStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	stats, err := h.trades.StatsFor(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to compute stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

type rateTradeRequest struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

func (h *Handler) RateTrade(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req rateTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	rating, err := h.ratings.RateTrade(r.Context(), chi.URLParam(r, "proposalID"), userID, req.Score, req.Feedback)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProposalNotFound):
			respondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, services.ErrNotParticipant):
			respondError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, services.ErrAlreadyRated):
			respondError(w, http.StatusConflict, err.Error())
		case errors.Is(err, services.ErrInvalidScore), errors.Is(err, services.ErrTradeNotRated):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "unable to rate trade")
		}
		return
	}
	respondJSON(w, http.StatusCreated, rating)
}
