package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/middleware"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/models"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/validator"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func (h *Handler) ListSkills(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	skills, err := h.skills.ListActive(r.Context(), query.Get("category"), query.Get("q"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load skills")
		return
	}
	respondJSON(w, http.StatusOK, skills)
}

type createSkillRequest struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	Category          string `json:"category"`
	CreditsPerSession int64  `json:"credits_per_session"`
}

func (h *Handler) CreateSkill(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createSkillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidateSkillOffer(req.Title, req.Category); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.CreditsPerSession < 0 {
		respondError(w, http.StatusBadRequest, "credits_per_session must not be negative")
		return
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load user")
		return
	}
	offer := models.SkillOffer{
		ID:                uuid.NewString(),
		UserID:            userID,
		UserName:          user.Name,
		UserAvatar:        user.Avatar,
		Title:             req.Title,
		Description:       req.Description,
		Category:          req.Category,
		CreditsPerSession: req.CreditsPerSession,
		IsActive:          true,
		CreatedAt:         time.Now().UTC(),
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		return h.skills.Create(r.Context(), tx, offer)
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create skill offer")
		return
	}
	respondJSON(w, http.StatusCreated, offer)
}

func (h *Handler) ListUserSkills(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	skills, err := h.skills.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load skills")
		return
	}
	respondJSON(w, http.StatusOK, skills)
}
