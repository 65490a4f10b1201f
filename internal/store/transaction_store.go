package store

import (
	"context"

	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/models"
)

// TransactionStore is the append-only credit transaction log. There is
// deliberately no update or delete.
type TransactionStore struct {
	db DB
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

func (s *TransactionStore) Create(ctx context.Context, tx Execer, txn models.CreditTransaction) error {
	query := `
		INSERT INTO credit_transactions (id, from_user_id, to_user_id, amount, kind,
		                                 description, related_trade_id, related_proposal_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.ExecContext(ctx, query,
		txn.ID, txn.FromUserID, txn.ToUserID, txn.Amount, txn.Kind,
		txn.Description, txn.RelatedTradeID, txn.RelatedProposalID, txn.CreatedAt,
	)
	return err
}

const transactionColumns = `id, from_user_id, to_user_id, amount, kind,
	       description, related_trade_id, related_proposal_id, created_at`

func (s *TransactionStore) ListByUser(ctx context.Context, userID string) ([]models.CreditTransaction, error) {
	var txns []models.CreditTransaction
	err := s.db.SelectContext(ctx, &txns, `
		SELECT `+transactionColumns+`
		FROM credit_transactions
		WHERE from_user_id = $1 OR to_user_id = $1
		ORDER BY created_at DESC
	`, userID)
	return txns, err
}

func (s *TransactionStore) ListAll(ctx context.Context) ([]models.CreditTransaction, error) {
	var txns []models.CreditTransaction
	err := s.db.SelectContext(ctx, &txns, `
		SELECT `+transactionColumns+`
		FROM credit_transactions
		ORDER BY created_at DESC
	`)
	return txns, err
}

func (s *TransactionStore) SumBonusesTo(ctx context.Context, userID string) (int64, error) {
	var sum int64
	err := s.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(amount), 0)
		FROM credit_transactions
		WHERE to_user_id = $1 AND kind = 'bonus'
	`, userID)
	return sum, err
}
