package store

import (
	"context"

	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/models"
)

type SkillStore struct {
	db DB
}

func NewSkillStore(db DB) *SkillStore {
	return &SkillStore{db: db}
}

const skillColumns = `id, user_id, user_name, user_avatar, title, description,
	       category, credits_per_session, is_active, created_at`

func (s *SkillStore) Create(ctx context.Context, tx Execer, offer models.SkillOffer) error {
	query := `
		INSERT INTO skills (id, user_id, user_name, user_avatar, title, description,
		                    category, credits_per_session, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.ExecContext(ctx, query,
		offer.ID, offer.UserID, offer.UserName, offer.UserAvatar, offer.Title,
		offer.Description, offer.Category, offer.CreditsPerSession, offer.IsActive,
	)
	return err
}

func (s *SkillStore) GetByID(ctx context.Context, skillID string) (models.SkillOffer, error) {
	var offer models.SkillOffer
	err := s.db.GetContext(ctx, &offer, `
		SELECT `+skillColumns+`
		FROM skills
		WHERE id = $1
	`, skillID)
	return offer, err
}

// ListActive filters by category and/or a case-insensitive title match.
// Empty filters list everything active.
func (s *SkillStore) ListActive(ctx context.Context, category, query string) ([]models.SkillOffer, error) {
	var offers []models.SkillOffer
	err := s.db.SelectContext(ctx, &offers, `
		SELECT `+skillColumns+`
		FROM skills
		WHERE is_active = TRUE
		  AND ($1 = '' OR category = $1)
		  AND ($2 = '' OR title ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%')
		ORDER BY created_at DESC
	`, category, query)
	return offers, err
}

func (s *SkillStore) ListByUser(ctx context.Context, userID string) ([]models.SkillOffer, error) {
	var offers []models.SkillOffer
	err := s.db.SelectContext(ctx, &offers, `
		SELECT `+skillColumns+`
		FROM skills
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	return offers, err
}
