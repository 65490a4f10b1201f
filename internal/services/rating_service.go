package services

import (
	"context"
	"errors"
	"time"

	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/db"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/models"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidScore  = errors.New("score must be between 1 and 5")
	ErrTradeNotRated = errors.New("trade must be completed before rating")
	ErrAlreadyRated  = errors.New("trade already rated by this user")
)

type RatingStore interface {
	Create(ctx context.Context, tx store.Execer, rating models.TradeRating) error
	ExistsForRater(ctx context.Context, tx store.Getter, proposalID, raterID string) (bool, error)
	SumScoresFor(ctx context.Context, tx store.Getter, rateeID string) (int64, int64, error)
}

// RatingService records post-trade ratings and keeps the rated user's
// directory rating equal to the mean of all scores they have received.
type RatingService struct {
	txRunner  db.TxRunner
	users     UserStore
	proposals ProposalStore
	ratings   RatingStore
}

func NewRatingService(txRunner db.TxRunner, users UserStore, proposals ProposalStore, ratings RatingStore) *RatingService {
	return &RatingService{
		txRunner:  txRunner,
		users:     users,
		proposals: proposals,
		ratings:   ratings,
	}
}

func (s *RatingService) RateTrade(ctx context.Context, proposalID, raterID string, score int, feedback string) (models.TradeRating, error) {
	if score < 1 || score > 5 {
		return models.TradeRating{}, ErrInvalidScore
	}
	var rating models.TradeRating
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		proposal, err := s.proposals.GetForUpdate(ctx, tx, proposalID)
		if err != nil {
			if isNoRows(err) {
				return ErrProposalNotFound
			}
			return err
		}
		if proposal.Status != models.ProposalCompleted {
			return ErrTradeNotRated
		}
		var rateeID string
		switch raterID {
		case proposal.FromUserID:
			rateeID = proposal.ToUserID
		case proposal.ToUserID:
			rateeID = proposal.FromUserID
		default:
			return ErrNotParticipant
		}
		exists, err := s.ratings.ExistsForRater(ctx, tx, proposalID, raterID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyRated
		}
		rating = models.TradeRating{
			ID:         uuid.NewString(),
			ProposalID: proposalID,
			RaterID:    raterID,
			RateeID:    rateeID,
			Score:      score,
			CreatedAt:  time.Now().UTC(),
		}
		if feedback != "" {
			rating.Feedback = &feedback
		}
		if err := s.ratings.Create(ctx, tx, rating); err != nil {
			return err
		}
		total, count, err := s.ratings.SumScoresFor(ctx, tx, rateeID)
		if err != nil {
			return err
		}
		mean := decimal.NewFromInt(total).
			Div(decimal.NewFromInt(count)).
			RoundBank(2)
		return s.users.UpdateRating(ctx, tx, rateeID, mean.InexactFloat64())
	})
	if err != nil {
		return models.TradeRating{}, err
	}
	return rating, nil
}
