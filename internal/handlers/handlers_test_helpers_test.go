package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/auth"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/config"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/models"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/services"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/store"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubUserStore struct {
	createFn        func(ctx context.Context, tx store.Execer, user models.User) error
	getByIDFn       func(ctx context.Context, userID string) (models.User, error)
	getByEmailFn    func(ctx context.Context, email string) (models.User, error)
	listFn          func(ctx context.Context) ([]models.User, error)
	updateProfileFn func(ctx context.Context, tx store.Execer, user models.User) error
	updateCreditsFn func(ctx context.Context, tx store.Execer, userID string, credits int64) error
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, user models.User) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, user)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	if s.getByIDFn == nil {
		return models.User{ID: userID}, nil
	}
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	if s.getByEmailFn == nil {
		return models.User{}, nil
	}
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) List(ctx context.Context) ([]models.User, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx)
}

func (s stubUserStore) UpdateProfile(ctx context.Context, tx store.Execer, user models.User) error {
	if s.updateProfileFn == nil {
		return nil
	}
	return s.updateProfileFn(ctx, tx, user)
}

func (s stubUserStore) UpdateCredits(ctx context.Context, tx store.Execer, userID string, credits int64) error {
	if s.updateCreditsFn == nil {
		return nil
	}
	return s.updateCreditsFn(ctx, tx, userID, credits)
}

type stubSkillStore struct {
	createFn     func(ctx context.Context, tx store.Execer, offer models.SkillOffer) error
	listActiveFn func(ctx context.Context, category, query string) ([]models.SkillOffer, error)
	listByUserFn func(ctx context.Context, userID string) ([]models.SkillOffer, error)
}

func (s stubSkillStore) Create(ctx context.Context, tx store.Execer, offer models.SkillOffer) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, offer)
}

func (s stubSkillStore) ListActive(ctx context.Context, category, query string) ([]models.SkillOffer, error) {
	if s.listActiveFn == nil {
		return nil, nil
	}
	return s.listActiveFn(ctx, category, query)
}

func (s stubSkillStore) ListByUser(ctx context.Context, userID string) ([]models.SkillOffer, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID)
}

type stubMessageStore struct {
	getBetweenFn         func(ctx context.Context, tx store.Getter, userA, userB string) (models.Conversation, error)
	getConversationFn    func(ctx context.Context, conversationID string) (models.Conversation, error)
	createConversationFn func(ctx context.Context, tx store.Execer, conv models.Conversation) error
	touchConversationFn  func(ctx context.Context, tx store.Execer, conversationID string, at time.Time) error
	createMessageFn      func(ctx context.Context, tx store.Execer, msg models.Message) error
	listConversationsFn  func(ctx context.Context, userID string) ([]store.ConversationSummary, error)
	listMessagesFn       func(ctx context.Context, conversationID string) ([]models.Message, error)
	markReadFn           func(ctx context.Context, tx store.Execer, conversationID, readerID string) error
}

func (s stubMessageStore) GetConversationBetween(ctx context.Context, tx store.Getter, userA, userB string) (models.Conversation, error) {
	if s.getBetweenFn == nil {
		return models.Conversation{}, nil
	}
	return s.getBetweenFn(ctx, tx, userA, userB)
}

func (s stubMessageStore) GetConversation(ctx context.Context, conversationID string) (models.Conversation, error) {
	if s.getConversationFn == nil {
		return models.Conversation{ID: conversationID}, nil
	}
	return s.getConversationFn(ctx, conversationID)
}

func (s stubMessageStore) CreateConversation(ctx context.Context, tx store.Execer, conv models.Conversation) error {
	if s.createConversationFn == nil {
		return nil
	}
	return s.createConversationFn(ctx, tx, conv)
}

func (s stubMessageStore) TouchConversation(ctx context.Context, tx store.Execer, conversationID string, at time.Time) error {
	if s.touchConversationFn == nil {
		return nil
	}
	return s.touchConversationFn(ctx, tx, conversationID, at)
}

func (s stubMessageStore) CreateMessage(ctx context.Context, tx store.Execer, msg models.Message) error {
	if s.createMessageFn == nil {
		return nil
	}
	return s.createMessageFn(ctx, tx, msg)
}

func (s stubMessageStore) ListConversations(ctx context.Context, userID string) ([]store.ConversationSummary, error) {
	if s.listConversationsFn == nil {
		return nil, nil
	}
	return s.listConversationsFn(ctx, userID)
}

func (s stubMessageStore) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	if s.listMessagesFn == nil {
		return nil, nil
	}
	return s.listMessagesFn(ctx, conversationID)
}

func (s stubMessageStore) MarkRead(ctx context.Context, tx store.Execer, conversationID, readerID string) error {
	if s.markReadFn == nil {
		return nil
	}
	return s.markReadFn(ctx, tx, conversationID, readerID)
}

type stubProposalService struct {
	createFn      func(ctx context.Context, input services.CreateProposalInput) (models.BarterProposal, error)
	getFn         func(ctx context.Context, proposalID string) (models.BarterProposal, error)
	listForUserFn func(ctx context.Context, userID string) (services.ProposalInbox, error)
	acceptFn      func(ctx context.Context, proposalID, actorID string, meeting *models.MeetingDetails) (models.BarterProposal, error)
	declineFn     func(ctx context.Context, proposalID, actorID string) (models.BarterProposal, error)
	cancelFn      func(ctx context.Context, proposalID, actorID string) (models.BarterProposal, error)
	completeFn    func(ctx context.Context, proposalID, actorID string) (models.BarterProposal, error)
}

func (s stubProposalService) Create(ctx context.Context, input services.CreateProposalInput) (models.BarterProposal, error) {
	if s.createFn == nil {
		return models.BarterProposal{}, nil
	}
	return s.createFn(ctx, input)
}

func (s stubProposalService) Get(ctx context.Context, proposalID string) (models.BarterProposal, error) {
	if s.getFn == nil {
		return models.BarterProposal{ID: proposalID}, nil
	}
	return s.getFn(ctx, proposalID)
}

func (s stubProposalService) ListForUser(ctx context.Context, userID string) (services.ProposalInbox, error) {
	if s.listForUserFn == nil {
		return services.ProposalInbox{}, nil
	}
	return s.listForUserFn(ctx, userID)
}

func (s stubProposalService) Accept(ctx context.Context, proposalID, actorID string, meeting *models.MeetingDetails) (models.BarterProposal, error) {
	if s.acceptFn == nil {
		return models.BarterProposal{ID: proposalID}, nil
	}
	return s.acceptFn(ctx, proposalID, actorID, meeting)
}

func (s stubProposalService) Decline(ctx context.Context, proposalID, actorID string) (models.BarterProposal, error) {
	if s.declineFn == nil {
		return models.BarterProposal{ID: proposalID}, nil
	}
	return s.declineFn(ctx, proposalID, actorID)
}

func (s stubProposalService) Cancel(ctx context.Context, proposalID, actorID string) (models.BarterProposal, error) {
	if s.cancelFn == nil {
		return models.BarterProposal{ID: proposalID}, nil
	}
	return s.cancelFn(ctx, proposalID, actorID)
}

func (s stubProposalService) Complete(ctx context.Context, proposalID, actorID string) (models.BarterProposal, error) {
	if s.completeFn == nil {
		return models.BarterProposal{ID: proposalID}, nil
	}
	return s.completeFn(ctx, proposalID, actorID)
}

type stubCreditService struct {
	balanceOfFn       func(ctx context.Context, userID string) (int64, error)
	transactionsForFn func(ctx context.Context, userID string) ([]models.CreditTransaction, error)
	allFn             func(ctx context.Context) ([]models.CreditTransaction, error)
}

func (s stubCreditService) BalanceOf(ctx context.Context, userID string) (int64, error) {
	if s.balanceOfFn == nil {
		return 0, nil
	}
	return s.balanceOfFn(ctx, userID)
}

func (s stubCreditService) TransactionsFor(ctx context.Context, userID string) ([]models.CreditTransaction, error) {
	if s.transactionsForFn == nil {
		return nil, nil
	}
	return s.transactionsForFn(ctx, userID)
}

func (s stubCreditService) AllTransactions(ctx context.Context) ([]models.CreditTransaction, error) {
	if s.allFn == nil {
		return nil, nil
	}
	return s.allFn(ctx)
}

type stubTradeService struct {
	listForUserFn func(ctx context.Context, userID string) (services.TradeBoard, error)
	statsForFn    func(ctx context.Context, userID string) (models.TradeStats, error)
}

func (s stubTradeService) ListForUser(ctx context.Context, userID string) (services.TradeBoard, error) {
	if s.listForUserFn == nil {
		return services.TradeBoard{}, nil
	}
	return s.listForUserFn(ctx, userID)
}

func (s stubTradeService) StatsFor(ctx context.Context, userID string) (models.TradeStats, error) {
	if s.statsForFn == nil {
		return models.TradeStats{}, nil
	}
	return s.statsForFn(ctx, userID)
}

type stubRatingService struct {
	rateTradeFn func(ctx context.Context, proposalID, raterID string, score int, feedback string) (models.TradeRating, error)
}

func (s stubRatingService) RateTrade(ctx context.Context, proposalID, raterID string, score int, feedback string) (models.TradeRating, error) {
	if s.rateTradeFn == nil {
		return models.TradeRating{ProposalID: proposalID, RaterID: raterID}, nil
	}
	return s.rateTradeFn(ctx, proposalID, raterID, score, feedback)
}

func newTestHandler(txRunner fakeTxRunner, users stubUserStore, skills stubSkillStore, messages stubMessageStore, proposals stubProposalService, credits stubCreditService, trades stubTradeService, ratings stubRatingService) *Handler {
	cfg := config.Config{
		AppEnv:          "test",
		Port:            "0",
		JWTSecret:       "secret",
		TokenTTLMinutes: 1,
		AllowedOrigins:  "*",
	}
	return New(cfg, txRunner, users, skills, messages, proposals, credits, trades, ratings, websocket.NewHub())
}

func authedRequest(t *testing.T, method, target, userID string, body []byte) *http.Request {
	t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	}
	token, err := auth.GenerateToken("secret", userID, time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func withRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func stringPtr(value string) *string {
	return &value
}
