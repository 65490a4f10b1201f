package handlers

import (
	"net/http"

	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/config"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/db"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/middleware"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	cfg       config.Config
	txRunner  db.TxRunner
	users     UserStore
	skills    SkillStore
	messages  MessageStore
	proposals ProposalService
	credits   CreditService
	trades    TradeService
	ratings   RatingService
	hub       *websocket.Hub
}

func New(cfg config.Config, txRunner db.TxRunner, users UserStore, skills SkillStore, messages MessageStore, proposals ProposalService, credits CreditService, trades TradeService, ratings RatingService, hub *websocket.Hub) *Handler {
	return &Handler{
		cfg:       cfg,
		txRunner:  txRunner,
		users:     users,
		skills:    skills,
		messages:  messages,
		proposals: proposals,
		credits:   credits,
		trades:    trades,
		ratings:   ratings,
		hub:       hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Get("/me", h.Me)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))

		r.Get("/users", h.ListUsers)
		r.Get("/users/{id}", h.GetUser)
		r.Put("/users/me", h.UpdateMe)
		r.Get("/users/{id}/skills", h.ListUserSkills)

		r.Get("/skills", h.ListSkills)
		r.Post("/skills", h.CreateSkill)

		r.Post("/proposals", h.CreateProposal)
		r.Get("/proposals", h.ListProposals)
		r.Get("/proposals/{id}", h.GetProposal)
		r.Post("/proposals/{id}/accept", h.AcceptProposal)
		r.Post("/proposals/{id}/decline", h.DeclineProposal)
		r.Post("/proposals/{id}/cancel", h.CancelProposal)
		r.Post("/proposals/{id}/complete", h.CompleteProposal)

		r.Get("/trades", h.ListTrades)
		r.Get("/trades/stats", h.TradeStats)
		r.Post("/trades/{proposalID}/rating", h.RateTrade)

		r.Get("/credits/balance", h.GetBalance)
		r.Get("/credits/transactions", h.ListTransactions)
		r.Get("/credits/transactions/all", h.ListAllTransactions)

		r.Get("/conversations", h.ListConversations)
		r.Get("/conversations/{id}/messages", h.ListMessages)
		r.Post("/conversations/{id}/read", h.MarkConversationRead)
		r.Post("/messages", h.SendMessage)
	})

	router.Get("/ws/credits", h.WSCredits)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
