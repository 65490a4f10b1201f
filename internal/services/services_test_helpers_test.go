package services

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/models"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/store"
	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/websocket"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

// memUserStore keeps user records in a map so tests can run whole
// lifecycles against real balance arithmetic.
type memUserStore struct {
	users map[string]*models.User
}

func newMemUserStore(users ...models.User) *memUserStore {
	s := &memUserStore{users: make(map[string]*models.User)}
	for i := range users {
		user := users[i]
		s.users[user.ID] = &user
	}
	return s
}

func (s *memUserStore) GetByID(_ context.Context, userID string) (models.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return models.User{}, sql.ErrNoRows
	}
	return *user, nil
}

func (s *memUserStore) GetForUpdate(_ context.Context, _ store.Getter, userID string) (models.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return models.User{}, sql.ErrNoRows
	}
	return *user, nil
}

func (s *memUserStore) UpdateCredits(_ context.Context, _ store.Execer, userID string, credits int64) error {
	user, ok := s.users[userID]
	if !ok {
		return sql.ErrNoRows
	}
	user.Credits = credits
	return nil
}

func (s *memUserStore) IncrementCompletedTrades(_ context.Context, _ store.Execer, userID string) error {
	user, ok := s.users[userID]
	if !ok {
		return sql.ErrNoRows
	}
	user.CompletedTrades++
	return nil
}

func (s *memUserStore) UpdateRating(_ context.Context, _ store.Execer, userID string, rating float64) error {
	user, ok := s.users[userID]
	if !ok {
		return sql.ErrNoRows
	}
	user.Rating = rating
	return nil
}

type memTransactionStore struct {
	txns []models.CreditTransaction
}

func (s *memTransactionStore) Create(_ context.Context, _ store.Execer, txn models.CreditTransaction) error {
	s.txns = append(s.txns, txn)
	return nil
}

func (s *memTransactionStore) ListByUser(_ context.Context, userID string) ([]models.CreditTransaction, error) {
	var out []models.CreditTransaction
	for _, txn := range s.txns {
		if txn.FromUserID == userID || txn.ToUserID == userID {
			out = append(out, txn)
		}
	}
	return out, nil
}

func (s *memTransactionStore) ListAll(_ context.Context) ([]models.CreditTransaction, error) {
	return append([]models.CreditTransaction(nil), s.txns...), nil
}

func (s *memTransactionStore) SumBonusesTo(_ context.Context, userID string) (int64, error) {
	var sum int64
	for _, txn := range s.txns {
		if txn.ToUserID == userID && txn.Kind == models.KindBonus {
			sum += txn.Amount
		}
	}
	return sum, nil
}

type memProposalStore struct {
	proposals map[string]*models.BarterProposal
}

func newMemProposalStore(proposals ...models.BarterProposal) *memProposalStore {
	s := &memProposalStore{proposals: make(map[string]*models.BarterProposal)}
	for i := range proposals {
		p := proposals[i]
		s.proposals[p.ID] = &p
	}
	return s
}

func (s *memProposalStore) Create(_ context.Context, _ store.Execer, p models.BarterProposal) error {
	stored := p
	s.proposals[p.ID] = &stored
	return nil
}

func (s *memProposalStore) GetByID(_ context.Context, proposalID string) (models.BarterProposal, error) {
	p, ok := s.proposals[proposalID]
	if !ok {
		return models.BarterProposal{}, sql.ErrNoRows
	}
	return *p, nil
}

func (s *memProposalStore) GetForUpdate(_ context.Context, _ store.Getter, proposalID string) (models.BarterProposal, error) {
	p, ok := s.proposals[proposalID]
	if !ok {
		return models.BarterProposal{}, sql.ErrNoRows
	}
	return *p, nil
}

func (s *memProposalStore) ListSentBy(_ context.Context, userID string) ([]models.BarterProposal, error) {
	return s.list(func(p *models.BarterProposal) bool { return p.FromUserID == userID }), nil
}

func (s *memProposalStore) ListReceivedBy(_ context.Context, userID string) ([]models.BarterProposal, error) {
	return s.list(func(p *models.BarterProposal) bool { return p.ToUserID == userID }), nil
}

func (s *memProposalStore) list(match func(*models.BarterProposal) bool) []models.BarterProposal {
	var out []models.BarterProposal
	for _, p := range s.proposals {
		if match(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *memProposalStore) MarkResponded(_ context.Context, _ store.Execer, proposalID string, status models.ProposalStatus, respondedAt time.Time, meeting *models.MeetingDetails) error {
	p, ok := s.proposals[proposalID]
	if !ok {
		return sql.ErrNoRows
	}
	p.Status = status
	p.RespondedAt = &respondedAt
	if meeting != nil {
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
	return nil
}

func (s *memProposalStore) MarkCompleted(_ context.Context, _ store.Execer, proposalID string, completedAt time.Time) error {
	p, ok := s.proposals[proposalID]
	if !ok {
		return sql.ErrNoRows
	}
	p.Status = models.ProposalCompleted
	p.CompletedAt = &completedAt
	return nil
}

type memRatingStore struct {
	ratings []models.TradeRating
}

func (s *memRatingStore) Create(_ context.Context, _ store.Execer, rating models.TradeRating) error {
	s.ratings = append(s.ratings, rating)
	return nil
}

func (s *memRatingStore) ExistsForRater(_ context.Context, _ store.Getter, proposalID, raterID string) (bool, error) {
	for _, rating := range s.ratings {
		if rating.ProposalID == proposalID && rating.RaterID == raterID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memRatingStore) SumScoresFor(_ context.Context, _ store.Getter, rateeID string) (int64, int64, error) {
	var total, count int64
	for _, rating := range s.ratings {
		if rating.RateeID == rateeID {
			total += int64(rating.Score)
			count++
		}
	}
	return total, count, nil
}

type stubSkillCatalog struct {
	skills map[string]models.SkillOffer
}

func (s stubSkillCatalog) GetByID(_ context.Context, skillID string) (models.SkillOffer, error) {
	offer, ok := s.skills[skillID]
	if !ok {
		return models.SkillOffer{}, sql.ErrNoRows
	}
	return offer, nil
}

type stubHub struct {
	updates []websocket.CreditUpdate
}

func (s *stubHub) BroadcastCredits(_ string, update websocket.CreditUpdate) {
	s.updates = append(s.updates, update)
}

func stringPtr(value string) *string {
	return &value
}

func int64Ptr(value int64) *int64 {
	return &value
}

func timePtr(value time.Time) *time.Time {
	return &value
}

// totalCredits sums every user balance for conservation checks.
func totalCredits(users *memUserStore) int64 {
	var total int64
	for _, user := range users.users {
		total += user.Credits
	}
	return total
}
