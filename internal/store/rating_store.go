package store

import (
	"context"

	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/models"
)

type RatingStore struct {
	db DB
}

func NewRatingStore(db DB) *RatingStore {
	return &RatingStore{db: db}
}

func (s *RatingStore) Create(ctx context.Context, tx Execer, rating models.TradeRating) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO trade_ratings (id, proposal_id, rater_id, ratee_id, score, feedback, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rating.ID, rating.ProposalID, rating.RaterID, rating.RateeID, rating.Score, rating.Feedback, rating.CreatedAt)
	return err
}

func (s *RatingStore) ExistsForRater(ctx context.Context, tx Getter, proposalID, raterID string) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM trade_ratings
			WHERE proposal_id = $1 AND rater_id = $2
		)
	`, proposalID, raterID)
	return exists, err
}

// SumScoresFor returns the total and count of scores the user has
// received, for recomputing their mean rating.
func (s *RatingStore) SumScoresFor(ctx context.Context, tx Getter, rateeID string) (int64, int64, error) {
	var agg struct {
		Total int64 `db:"total"`
		Count int64 `db:"count"`
	}
	err := tx.GetContext(ctx, &agg, `
		SELECT COALESCE(SUM(score), 0) AS total, COUNT(*) AS count
		FROM trade_ratings
		WHERE ratee_id = $1
	`, rateeID)
	if err != nil {
		return 0, 0, err
	}
	return agg.Total, agg.Count, nil
}
