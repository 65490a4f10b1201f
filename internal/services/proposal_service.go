package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/db"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/models"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrProposalNotFound        = errors.New("proposal not found")
	ErrInvalidTransition       = errors.New("invalid status transition")
	ErrNotParticipant          = errors.New("not a participant in this proposal")
	ErrSelfProposal            = errors.New("cannot send a proposal to yourself")
	ErrInvalidProposalType     = errors.New("invalid proposal type")
	ErrMissingOfferedSkill     = errors.New("offered skill is required")
	ErrMissingRequestedSkill   = errors.New("requested skill is required")
	ErrInvalidOfferedCredits   = errors.New("offered credits must be positive")
	ErrInvalidRequestedCredits = errors.New("requested credits must be positive")
)

// CreditTransferError marks an acceptance that failed because the
// credit movement could not be applied. The status transition is
// rolled back together with the transfer.
type CreditTransferError struct {
	Err error
}

func (e *CreditTransferError) Error() string {
	return fmt.Sprintf("credit transfer failed: %v", e.Err)
}

func (e *CreditTransferError) Unwrap() error {
	return e.Err
}

type ProposalStore interface {
	Create(ctx context.Context, tx store.Execer, p models.BarterProposal) error
	GetByID(ctx context.Context, proposalID string) (models.BarterProposal, error)
	GetForUpdate(ctx context.Context, tx store.Getter, proposalID string) (models.BarterProposal, error)
	ListSentBy(ctx context.Context, userID string) ([]models.BarterProposal, error)
	ListReceivedBy(ctx context.Context, userID string) ([]models.BarterProposal, error)
	MarkResponded(ctx context.Context, tx store.Execer, proposalID string, status models.ProposalStatus, respondedAt time.Time, meeting *models.MeetingDetails) error
	MarkCompleted(ctx context.Context, tx store.Execer, proposalID string, completedAt time.Time) error
}

// CreditLedger is the slice of the credit service the engine composes
// into its own transactions.
type CreditLedger interface {
	TransferTx(ctx context.Context, tx store.Tx, params TransferParams) (models.CreditTransaction, error)
	AwardBonusTx(ctx context.Context, tx store.Tx, userID string, amount int64, description string) (models.CreditTransaction, error)
	NotifyBalances(ctx context.Context, userIDs ...string)
}

// ProposalService owns the barter proposal state machine. Status is the
// sole driver: pending may move to accepted, declined or cancelled,
// accepted may move to completed, and terminal states never move again.
type ProposalService struct {
	txRunner  db.TxRunner
	users     UserStore
	proposals ProposalStore
	ledger    CreditLedger
	now       func() time.Time
}

func NewProposalService(txRunner db.TxRunner, users UserStore, proposals ProposalStore, ledger CreditLedger) *ProposalService {
	return &ProposalService{
		txRunner:  txRunner,
		users:     users,
		proposals: proposals,
		ledger:    ledger,
		now:       time.Now,
	}
}

type CreateProposalInput struct {
	FromUserID          string
	ToUserID            string
	ProposalType        models.ProposalType
	OfferedSkillID      string
	OfferedSkillTitle   string
	OfferedCredits      int64
	RequestedSkillID    string
	RequestedSkillTitle string
	RequestedCredits    int64
	Message             string
}

// Create validates that the payload carries exactly the fields its
// declared type needs, then persists the proposal as pending. Fields
// that do not belong to the variant are dropped rather than stored.
func (s *ProposalService) Create(ctx context.Context, input CreateProposalInput) (models.BarterProposal, error) {
	if input.FromUserID == input.ToUserID {
		return models.BarterProposal{}, ErrSelfProposal
	}
	fromUser, err := s.users.GetByID(ctx, input.FromUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.BarterProposal{}, ErrUserNotFound
		}
		return models.BarterProposal{}, err
	}
	toUser, err := s.users.GetByID(ctx, input.ToUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.BarterProposal{}, ErrUserNotFound
		}
		return models.BarterProposal{}, err
	}

	proposal := models.BarterProposal{
		ID:             uuid.NewString(),
		FromUserID:     fromUser.ID,
		FromUserName:   fromUser.Name,
		FromUserAvatar: fromUser.Avatar,
		ToUserID:       toUser.ID,
		ToUserName:     toUser.Name,
		ToUserAvatar:   toUser.Avatar,
		Message:        input.Message,
		ProposalType:   input.ProposalType,
		Status:         models.ProposalPending,
		CreatedAt:      s.now().UTC(),
	}

	switch input.ProposalType {
	case models.SkillForSkill:
		if input.OfferedSkillID == "" || input.OfferedSkillTitle == "" {
			return models.BarterProposal{}, ErrMissingOfferedSkill
		}
		if input.RequestedSkillID == "" || input.RequestedSkillTitle == "" {
			return models.BarterProposal{}, ErrMissingRequestedSkill
		}
		proposal.OfferedSkillID = &input.OfferedSkillID
		proposal.OfferedSkillTitle = &input.OfferedSkillTitle
		proposal.RequestedSkillID = &input.RequestedSkillID
		proposal.RequestedSkillTitle = &input.RequestedSkillTitle
	case models.CreditsForSkill:
		if input.OfferedCredits <= 0 {
			return models.BarterProposal{}, ErrInvalidOfferedCredits
		}
		if input.RequestedSkillID == "" || input.RequestedSkillTitle == "" {
			return models.BarterProposal{}, ErrMissingRequestedSkill
		}
		proposal.OfferedCredits = &input.OfferedCredits
		proposal.RequestedSkillID = &input.RequestedSkillID
		proposal.RequestedSkillTitle = &input.RequestedSkillTitle
	case models.SkillForCredits:
		if input.OfferedSkillID == "" || input.OfferedSkillTitle == "" {
			return models.BarterProposal{}, ErrMissingOfferedSkill
		}
		if input.RequestedCredits <= 0 {
			return models.BarterProposal{}, ErrInvalidRequestedCredits
		}
		proposal.OfferedSkillID = &input.OfferedSkillID
		proposal.OfferedSkillTitle = &input.OfferedSkillTitle
		proposal.RequestedCredits = &input.RequestedCredits
	default:
		return models.BarterProposal{}, ErrInvalidProposalType
	}

	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.proposals.Create(ctx, tx, proposal)
	})
	if err != nil {
		return models.BarterProposal{}, err
	}
	return proposal, nil
}

func (s *ProposalService) Get(ctx context.Context, proposalID string) (models.BarterProposal, error) {
	proposal, err := s.proposals.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.BarterProposal{}, ErrProposalNotFound
		}
		return models.BarterProposal{}, err
	}
	return proposal, nil
}

type ProposalInbox struct {
	Sent     []models.BarterProposal `json:"sent"`
	Received []models.BarterProposal `json:"received"`
}

func (s *ProposalService) ListForUser(ctx context.Context, userID string) (ProposalInbox, error) {
	sent, err := s.proposals.ListSentBy(ctx, userID)
	if err != nil {
		return ProposalInbox{}, err
	}
	received, err := s.proposals.ListReceivedBy(ctx, userID)
	if err != nil {
		return ProposalInbox{}, err
	}
	return ProposalInbox{Sent: sent, Received: received}, nil
}

// Accept moves a pending proposal to accepted. For credit-carrying
// types the transfer happens in the same transaction: if it fails the
// proposal stays pending.
func (s *ProposalService) Accept(ctx context.Context, proposalID, actorID string, meeting *models.MeetingDetails) (models.BarterProposal, error) {
	var accepted models.BarterProposal
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		proposal, err := s.lockPending(ctx, tx, proposalID)
		if err != nil {
			return err
		}
		if proposal.ToUserID != actorID {
			return ErrNotParticipant
		}
		switch proposal.ProposalType {
		case models.CreditsForSkill:
			_, err = s.ledger.TransferTx(ctx, tx, TransferParams{
				FromUserID:        proposal.FromUserID,
				ToUserID:          proposal.ToUserID,
				Amount:            derefInt64(proposal.OfferedCredits),
				Description:       "Payment for " + derefString(proposal.RequestedSkillTitle),
				RelatedProposalID: &proposal.ID,
			})
			if err != nil {
				return &CreditTransferError{Err: err}
			}
		case models.SkillForCredits:
			_, err = s.ledger.TransferTx(ctx, tx, TransferParams{
				FromUserID:        proposal.ToUserID,
				ToUserID:          proposal.FromUserID,
				Amount:            derefInt64(proposal.RequestedCredits),
				Description:       "Payment for " + derefString(proposal.OfferedSkillTitle),
				RelatedProposalID: &proposal.ID,
			})
			if err != nil {
				return &CreditTransferError{Err: err}
			}
		}
		respondedAt := s.now().UTC()
		if err := s.proposals.MarkResponded(ctx, tx, proposal.ID, models.ProposalAccepted, respondedAt, meeting); err != nil {
			return err
		}
		accepted = proposal
		accepted.Status = models.ProposalAccepted
		accepted.RespondedAt = &respondedAt
		applyMeeting(&accepted, meeting)
		return nil
	})
	if err != nil {
		return models.BarterProposal{}, err
	}
	s.ledger.NotifyBalances(ctx, accepted.FromUserID, accepted.ToUserID)
	return accepted, nil
}

func (s *ProposalService) Decline(ctx context.Context, proposalID, actorID string) (models.BarterProposal, error) {
	return s.respond(ctx, proposalID, actorID, models.ProposalDeclined)
}

// Cancel withdraws a pending proposal. Only the proposer may cancel;
// the recipient's path out is Decline.
func (s *ProposalService) Cancel(ctx context.Context, proposalID, actorID string) (models.BarterProposal, error) {
	return s.respond(ctx, proposalID, actorID, models.ProposalCancelled)
}

func (s *ProposalService) respond(ctx context.Context, proposalID, actorID string, status models.ProposalStatus) (models.BarterProposal, error) {
	var updated models.BarterProposal
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		proposal, err := s.lockPending(ctx, tx, proposalID)
		if err != nil {
			return err
		}
		switch status {
		case models.ProposalDeclined:
			if proposal.ToUserID != actorID {
				return ErrNotParticipant
			}
		case models.ProposalCancelled:
			if proposal.FromUserID != actorID {
				return ErrNotParticipant
			}
		}
		respondedAt := s.now().UTC()
		if err := s.proposals.MarkResponded(ctx, tx, proposal.ID, status, respondedAt, nil); err != nil {
			return err
		}
		updated = proposal
		updated.Status = status
		updated.RespondedAt = &respondedAt
		return nil
	})
	if err != nil {
		return models.BarterProposal{}, err
	}
	return updated, nil
}

// Complete closes an accepted proposal: both participants earn a
// 1-credit completion bonus (two separate transactions) and have their
// completed-trade counts bumped.
func (s *ProposalService) Complete(ctx context.Context, proposalID, actorID string) (models.BarterProposal, error) {
	var completed models.BarterProposal
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		proposal, err := s.lock(ctx, tx, proposalID)
		if err != nil {
			return err
		}
		if proposal.Status != models.ProposalAccepted {
			return ErrInvalidTransition
		}
		if proposal.FromUserID != actorID && proposal.ToUserID != actorID {
			return ErrNotParticipant
		}
		if _, err := s.ledger.AwardBonusTx(ctx, tx, proposal.FromUserID, 1,
			"Trade completion bonus for "+titleOrCreditTrade(proposal.OfferedSkillTitle)); err != nil {
			return err
		}
		if _, err := s.ledger.AwardBonusTx(ctx, tx, proposal.ToUserID, 1,
			"Trade completion bonus for "+titleOrCreditTrade(proposal.RequestedSkillTitle)); err != nil {
			return err
		}
		if err := s.users.IncrementCompletedTrades(ctx, tx, proposal.FromUserID); err != nil {
			return err
		}
		if err := s.users.IncrementCompletedTrades(ctx, tx, proposal.ToUserID); err != nil {
			return err
		}
		completedAt := s.now().UTC()
		if err := s.proposals.MarkCompleted(ctx, tx, proposal.ID, completedAt); err != nil {
			return err
		}
		completed = proposal
		completed.Status = models.ProposalCompleted
		completed.CompletedAt = &completedAt
		return nil
	})
	if err != nil {
		return models.BarterProposal{}, err
	}
	s.ledger.NotifyBalances(ctx, completed.FromUserID, completed.ToUserID)
	return completed, nil
}

func (s *ProposalService) lock(ctx context.Context, tx store.Tx, proposalID string) (models.BarterProposal, error) {
	proposal, err := s.proposals.GetForUpdate(ctx, tx, proposalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.BarterProposal{}, ErrProposalNotFound
		}
		return models.BarterProposal{}, err
	}
	return proposal, nil
}

func (s *ProposalService) lockPending(ctx context.Context, tx store.Tx, proposalID string) (models.BarterProposal, error) {
	proposal, err := s.lock(ctx, tx, proposalID)
	if err != nil {
		return models.BarterProposal{}, err
	}
	if proposal.Status != models.ProposalPending {
		return models.BarterProposal{}, ErrInvalidTransition
	}
	return proposal, nil
}

func applyMeeting(p *models.BarterProposal, meeting *models.MeetingDetails) {
	if meeting == nil {
		return
	}
	if meeting.Location != nil {
		p.MeetingLocation = meeting.Location
	}
	if meeting.Time != nil {
		p.MeetingTime = meeting.Time
	}
	if meeting.Notes != nil {
		p.MeetingNotes = meeting.Notes
	}
}

func titleOrCreditTrade(title *string) string {
	if title == nil || *title == "" {
		return "credit trade"
	}
	return *title
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func derefInt64(value *int64) int64 {
	if value == nil {
		return 0
	}
	return *value
}
