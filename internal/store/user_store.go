package store

import (
	"context"

	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/models"
	"github.com/lib/pq"
)

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, name, email, password_hash, avatar, bio, location,
	       skills_offered, skills_wanted, credits, rating, completed_trades, joined_at`

func (s *UserStore) Create(ctx context.Context, tx Execer, user models.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, avatar, bio, location,
		                   skills_offered, skills_wanted, credits, rating, completed_trades)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := tx.ExecContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Avatar, user.Bio, user.Location,
		pq.Array(user.SkillsOffered), pq.Array(user.SkillsWanted),
		user.Credits, user.Rating, user.CompletedTrades,
	)
	return err
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, userID)
	return user, err
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, email)
	return user, err
}

func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.SelectContext(ctx, &users, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY joined_at
	`)
	return users, err
}

func (s *UserStore) GetForUpdate(ctx context.Context, tx Getter, userID string) (models.User, error) {
	var user models.User
	err := tx.GetContext(ctx, &user, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
		FOR UPDATE
	`, userID)
	return user, err
}

// UpdateProfile replaces the caller-editable part of the record. Credits,
// rating and completed_trades are owned by the ledger and engine and are
// updated only through the dedicated methods below.
func (s *UserStore) UpdateProfile(ctx context.Context, tx Execer, user models.User) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET name = $1, avatar = $2, bio = $3, location = $4,
		    skills_offered = $5, skills_wanted = $6
		WHERE id = $7
	`, user.Name, user.Avatar, user.Bio, user.Location,
		pq.Array(user.SkillsOffered), pq.Array(user.SkillsWanted), user.ID)
	return err
}

func (s *UserStore) UpdateCredits(ctx context.Context, tx Execer, userID string, credits int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET credits = $1
		WHERE id = $2
	`, credits, userID)
	return err
}

func (s *UserStore) IncrementCompletedTrades(ctx context.Context, tx Execer, userID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET completed_trades = completed_trades + 1
		WHERE id = $1
	`, userID)
	return err
}

func (s *UserStore) UpdateRating(ctx context.Context, tx Execer, userID string, rating float64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET rating = $1
		WHERE id = $2
	`, rating, userID)
	return err
}
