package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/config"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/db"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/handlers"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/logger"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/services"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/store"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/websocket"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("skill-exchange", "development", false)
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Init("skill-exchange", cfg.AppEnv, cfg.Debug)

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	defer database.Close()
	log.Info().Msg("database connection established")

	users := store.NewUserStore(database)
	transactions := store.NewTransactionStore(database)
	proposals := store.NewProposalStore(database)
	skills := store.NewSkillStore(database)
	messages := store.NewMessageStore(database)
	ratings := store.NewRatingStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	creditService := services.NewCreditService(txRunner, users, transactions, hub)
	proposalService := services.NewProposalService(txRunner, users, proposals, creditService)
	tradeService := services.NewTradeService(proposals, transactions, skills)
	ratingService := services.NewRatingService(txRunner, users, proposals, ratings)

	handler := handlers.New(cfg, txRunner, users, skills, messages, proposalService, creditService, tradeService, ratingService, hub)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("skill exchange API listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("shutdown error")
	}
}
