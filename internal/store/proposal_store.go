package store

import (
	"context"
	"time"

	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/models"
)

type ProposalStore struct {
	db DB
}

func NewProposalStore(db DB) *ProposalStore {
	return &ProposalStore{db: db}
}

const proposalColumns = `id, from_user_id, from_user_name, from_user_avatar,
	       to_user_id, to_user_name, to_user_avatar,
	       offered_skill_id, offered_skill_title, offered_credits,
	       requested_skill_id, requested_skill_title, requested_credits,
	       message, proposal_type, status, created_at, responded_at, completed_at,
	       meeting_location, meeting_time, meeting_notes`

func (s *ProposalStore) Create(ctx context.Context, tx Execer, p models.BarterProposal) error {
	query := `
		INSERT INTO proposals (id, from_user_id, from_user_name, from_user_avatar,
		                       to_user_id, to_user_name, to_user_avatar,
		                       offered_skill_id, offered_skill_title, offered_credits,
		                       requested_skill_id, requested_skill_title, requested_credits,
		                       message, proposal_type, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := tx.ExecContext(ctx, query,
		p.ID, p.FromUserID, p.FromUserName, p.FromUserAvatar,
		p.ToUserID, p.ToUserName, p.ToUserAvatar,
		p.OfferedSkillID, p.OfferedSkillTitle, p.OfferedCredits,
		p.RequestedSkillID, p.RequestedSkillTitle, p.RequestedCredits,
		p.Message, p.ProposalType, p.Status, p.CreatedAt,
	)
	return err
}

func (s *ProposalStore) GetByID(ctx context.Context, proposalID string) (models.BarterProposal, error) {
	var p models.BarterProposal
	err := s.db.GetContext(ctx, &p, `
		SELECT `+proposalColumns+`
		FROM proposals
		WHERE id = $1
	`, proposalID)
	return p, err
}

func (s *ProposalStore) GetForUpdate(ctx context.Context, tx Getter, proposalID string) (models.BarterProposal, error) {
	var p models.BarterProposal
	err := tx.GetContext(ctx, &p, `
		SELECT `+proposalColumns+`
		FROM proposals
		WHERE id = $1
		FOR UPDATE
	`, proposalID)
	return p, err
}

func (s *ProposalStore) ListSentBy(ctx context.Context, userID string) ([]models.BarterProposal, error) {
	var proposals []models.BarterProposal
	err := s.db.SelectContext(ctx, &proposals, `
		SELECT `+proposalColumns+`
		FROM proposals
		WHERE from_user_id = $1
		ORDER BY created_at DESC
	`, userID)
	return proposals, err
}

func (s *ProposalStore) ListReceivedBy(ctx context.Context, userID string) ([]models.BarterProposal, error) {
	var proposals []models.BarterProposal
	err := s.db.SelectContext(ctx, &proposals, `
		SELECT `+proposalColumns+`
		FROM proposals
		WHERE to_user_id = $1
		ORDER BY created_at DESC
	`, userID)
	return proposals, err
}

// MarkResponded flips a pending proposal into accepted, declined or
// cancelled. Meeting details are only ever written here.
func (s *ProposalStore) MarkResponded(ctx context.Context, tx Execer, proposalID string, status models.ProposalStatus, respondedAt time.Time, meeting *models.MeetingDetails) error {
	var location, notes *string
	var meetingTime *time.Time
	if meeting != nil {
		location = meeting.Location
		meetingTime = meeting.Time
		notes = meeting.Notes
	}
	_, err := tx.ExecContext(ctx, `
		UPDATE proposals
		SET status = $1, responded_at = $2,
		    meeting_location = COALESCE($3, meeting_location),
		    meeting_time = COALESCE($4, meeting_time),
		    meeting_notes = COALESCE($5, meeting_notes)
		WHERE id = $6
	`, status, respondedAt, location, meetingTime, notes, proposalID)
	return err
}

func (s *ProposalStore) MarkCompleted(ctx context.Context, tx Execer, proposalID string, completedAt time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE proposals
		SET status = $1, completed_at = $2
		WHERE id = $3
	`, models.ProposalCompleted, completedAt, proposalID)
	return err
}
