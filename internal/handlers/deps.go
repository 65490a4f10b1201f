package handlers

import (
	"context"
	"time"

	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/models"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/services"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, user models.User) error
	GetByID(ctx context.Context, userID string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, tx store.Execer, user models.User) error
	UpdateCredits(ctx context.Context, tx store.Execer, userID string, credits int64) error
}

type SkillStore interface {
	Create(ctx context.Context, tx store.Execer, offer models.SkillOffer) error
	ListActive(ctx context.Context, category, query string) ([]models.SkillOffer, error)
	ListByUser(ctx context.Context, userID string) ([]models.SkillOffer, error)
}

type MessageStore interface {
	GetConversationBetween(ctx context.Context, tx store.Getter, userA, userB string) (models.Conversation, error)
	GetConversation(ctx context.Context, conversationID string) (models.Conversation, error)
	CreateConversation(ctx context.Context, tx store.Execer, conv models.Conversation) error
	TouchConversation(ctx context.Context, tx store.Execer, conversationID string, at time.Time) error
	CreateMessage(ctx context.Context, tx store.Execer, msg models.Message) error
	ListConversations(ctx context.Context, userID string) ([]store.ConversationSummary, error)
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	MarkRead(ctx context.Context, tx store.Execer, conversationID, readerID string) error
}

type ProposalService interface {
	Create(ctx context.Context, input services.CreateProposalInput) (models.BarterProposal, error)
	Get(ctx context.Context, proposalID string) (models.BarterProposal, error)
	ListForUser(ctx context.Context, userID string) (services.ProposalInbox, error)
	Accept(ctx context.Context, proposalID, actorID string, meeting *models.MeetingDetails) (models.BarterProposal, error)
	Decline(ctx context.Context, proposalID, actorID string) (models.BarterProposal, error)
	Cancel(ctx context.Context, proposalID, actorID string) (models.BarterProposal, error)
	Complete(ctx context.Context, proposalID, actorID string) (models.BarterProposal, error)
}

type CreditService interface {
	BalanceOf(ctx context.Context, userID string) (int64, error)
	TransactionsFor(ctx context.Context, userID string) ([]models.CreditTransaction, error)
	AllTransactions(ctx context.Context) ([]models.CreditTransaction, error)
}

type TradeService interface {
	ListForUser(ctx context.Context, userID string) (services.TradeBoard, error)
	StatsFor(ctx context.Context, userID string) (models.TradeStats, error)
}

type RatingService interface {
	RateTrade(ctx context.Context, proposalID, raterID string, score int, feedback string) (models.TradeRating, error)
}
