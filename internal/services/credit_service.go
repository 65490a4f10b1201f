package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/db"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/models"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/store"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrSelfTransfer        = errors.New("cannot transfer credits to yourself")
)

type UserStore interface {
	GetByID(ctx context.Context, userID string) (models.User, error)
	GetForUpdate(ctx context.Context, tx store.Getter, userID string) (models.User, error)
	UpdateCredits(ctx context.Context, tx store.Execer, userID string, credits int64) error
	IncrementCompletedTrades(ctx context.Context, tx store.Execer, userID string) error
	UpdateRating(ctx context.Context, tx store.Execer, userID string, rating float64) error
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, txn models.CreditTransaction) error
	ListByUser(ctx context.Context, userID string) ([]models.CreditTransaction, error)
	ListAll(ctx context.Context) ([]models.CreditTransaction, error)
	SumBonusesTo(ctx context.Context, userID string) (int64, error)
}

type CreditHub interface {
	BroadcastCredits(userID string, update websocket.CreditUpdate)
}

// CreditService is the credit ledger: every balance mutation debits and
// credits through here and leaves exactly one transaction record behind.
type CreditService struct {
	txRunner     db.TxRunner
	users        UserStore
	transactions TransactionStore
	hub          CreditHub
}

func NewCreditService(txRunner db.TxRunner, users UserStore, transactions TransactionStore, hub CreditHub) *CreditService {
	return &CreditService{
		txRunner:     txRunner,
		users:        users,
		transactions: transactions,
		hub:          hub,
	}
}

type TransferParams struct {
	FromUserID        string
	ToUserID          string
	Amount            int64
	Description       string
	RelatedTradeID    *string
	RelatedProposalID *string
}

func (s *CreditService) Transfer(ctx context.Context, params TransferParams) (models.CreditTransaction, error) {
	var txn models.CreditTransaction
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		txn, err = s.TransferTx(ctx, tx, params)
		return err
	})
	if err != nil {
		return models.CreditTransaction{}, err
	}
	s.NotifyBalances(ctx, params.FromUserID, params.ToUserID)
	return txn, nil
}

// TransferTx runs a transfer inside the caller's transaction so a
// status transition and its credit movement commit or roll back as one
// unit. Validation order: both users exist, then the balance covers the
// amount, then the amount itself. A transfer never touches the same row
// twice, so the sender and receiver must differ.
func (s *CreditService) TransferTx(ctx context.Context, tx store.Tx, params TransferParams) (models.CreditTransaction, error) {
	if params.FromUserID == params.ToUserID {
		return models.CreditTransaction{}, ErrSelfTransfer
	}
	fromUser, toUser, err := s.lockTwoUsers(ctx, tx, params.FromUserID, params.ToUserID)
	if err != nil {
		return models.CreditTransaction{}, err
	}
	if fromUser.Credits < params.Amount {
		return models.CreditTransaction{}, ErrInsufficientCredits
	}
	if params.Amount <= 0 {
		return models.CreditTransaction{}, ErrInvalidAmount
	}
	if err := s.users.UpdateCredits(ctx, tx, fromUser.ID, fromUser.Credits-params.Amount); err != nil {
		return models.CreditTransaction{}, err
	}
	if err := s.users.UpdateCredits(ctx, tx, toUser.ID, toUser.Credits+params.Amount); err != nil {
		return models.CreditTransaction{}, err
	}
	kind := models.KindTransfer
	if params.RelatedTradeID != nil {
		kind = models.KindTradeCompletion
	}
	txn := models.CreditTransaction{
		ID:                uuid.NewString(),
		FromUserID:        params.FromUserID,
		ToUserID:          params.ToUserID,
		Amount:            params.Amount,
		Kind:              kind,
		Description:       params.Description,
		RelatedTradeID:    params.RelatedTradeID,
		RelatedProposalID: params.RelatedProposalID,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.transactions.Create(ctx, tx, txn); err != nil {
		return models.CreditTransaction{}, err
	}
	return txn, nil
}

func (s *CreditService) AwardBonus(ctx context.Context, userID string, amount int64, description string) (models.CreditTransaction, error) {
	var txn models.CreditTransaction
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		txn, err = s.AwardBonusTx(ctx, tx, userID, amount, description)
		return err
	})
	if err != nil {
		return models.CreditTransaction{}, err
	}
	s.NotifyBalances(ctx, userID)
	return txn, nil
}

// AwardBonusTx credits the user from the system sentinel: nothing is
// debited and no balance check applies on the sending side.
func (s *CreditService) AwardBonusTx(ctx context.Context, tx store.Tx, userID string, amount int64, description string) (models.CreditTransaction, error) {
	return s.systemCreditTx(ctx, tx, models.KindBonus, userID, amount, description, nil, nil)
}

func (s *CreditService) Refund(ctx context.Context, userID string, amount int64, description string, relatedTradeID, relatedProposalID *string) (models.CreditTransaction, error) {
	var txn models.CreditTransaction
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		txn, err = s.RefundTx(ctx, tx, userID, amount, description, relatedTradeID, relatedProposalID)
		return err
	})
	if err != nil {
		return models.CreditTransaction{}, err
	}
	s.NotifyBalances(ctx, userID)
	return txn, nil
}

func (s *CreditService) RefundTx(ctx context.Context, tx store.Tx, userID string, amount int64, description string, relatedTradeID, relatedProposalID *string) (models.CreditTransaction, error) {
	return s.systemCreditTx(ctx, tx, models.KindRefund, userID, amount, description, relatedTradeID, relatedProposalID)
}

func (s *CreditService) systemCreditTx(ctx context.Context, tx store.Tx, kind models.TransactionKind, userID string, amount int64, description string, relatedTradeID, relatedProposalID *string) (models.CreditTransaction, error) {
	if amount <= 0 {
		return models.CreditTransaction{}, ErrInvalidAmount
	}
	user, err := s.users.GetForUpdate(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.CreditTransaction{}, ErrUserNotFound
		}
		return models.CreditTransaction{}, err
	}
	if err := s.users.UpdateCredits(ctx, tx, user.ID, user.Credits+amount); err != nil {
		return models.CreditTransaction{}, err
	}
	txn := models.CreditTransaction{
		ID:                uuid.NewString(),
		FromUserID:        models.SystemUserID,
		ToUserID:          userID,
		Amount:            amount,
		Kind:              kind,
		Description:       description,
		RelatedTradeID:    relatedTradeID,
		RelatedProposalID: relatedProposalID,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.transactions.Create(ctx, tx, txn); err != nil {
		return models.CreditTransaction{}, err
	}
	return txn, nil
}

// BalanceOf reports the user's balance, zero when the user is missing.
func (s *CreditService) BalanceOf(ctx context.Context, userID string) (int64, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return user.Credits, nil
}

func (s *CreditService) TransactionsFor(ctx context.Context, userID string) ([]models.CreditTransaction, error) {
	return s.transactions.ListByUser(ctx, userID)
}

func (s *CreditService) AllTransactions(ctx context.Context) ([]models.CreditTransaction, error) {
	return s.transactions.ListAll(ctx)
}

// NotifyBalances pushes fresh balances to any connected clients. Best
// effort: a read failure only loses the push, never the mutation.
func (s *CreditService) NotifyBalances(ctx context.Context, userIDs ...string) {
	for _, userID := range userIDs {
		if userID == models.SystemUserID {
			continue
		}
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("credit update push skipped")
			continue
		}
		s.hub.BroadcastCredits(userID, websocket.CreditUpdate{
			UserID:  userID,
			Credits: user.Credits,
		})
	}
}

func (s *CreditService) lockTwoUsers(ctx context.Context, tx store.Getter, firstID, secondID string) (models.User, models.User, error) {
	leftID, rightID := orderedIDs(firstID, secondID)
	left, err := s.users.GetForUpdate(ctx, tx, leftID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, models.User{}, ErrUserNotFound
		}
		return models.User{}, models.User{}, err
	}
	right, err := s.users.GetForUpdate(ctx, tx, rightID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, models.User{}, ErrUserNotFound
		}
		return models.User{}, models.User{}, err
	}
	if firstID == leftID {
		return left, right, nil
	}
	return right, left, nil
}

// Rows are always locked in ascending id order to avoid deadlocks
// between concurrent transfers.
func orderedIDs(firstID, secondID string) (string, string) {
	if firstID <= secondID {
		return firstID, secondID
	}
	return secondID, firstID
}
