package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/models"
)

// SkillCatalog resolves skill offers for stat attribution. A missing
// skill is not an error for the projector, just an unknown category.
type SkillCatalog interface {
	GetByID(ctx context.Context, skillID string) (models.SkillOffer, error)
}

// TradeService derives trade views and statistics from proposal state.
// It persists nothing: every read recomputes the projection, so a trade
// can never drift from its source proposal.
type TradeService struct {
	proposals    ProposalStore
	transactions TransactionStore
	skills       SkillCatalog
}

func NewTradeService(proposals ProposalStore, transactions TransactionStore, skills SkillCatalog) *TradeService {
	return &TradeService{
		proposals:    proposals,
		transactions: transactions,
		skills:       skills,
	}
}

type TradeBoard struct {
	Active    []models.Trade `json:"active"`
	Completed []models.Trade `json:"completed"`
}

func (s *TradeService) ListForUser(ctx context.Context, userID string) (TradeBoard, error) {
	proposals, err := s.allProposalsFor(ctx, userID)
	if err != nil {
		return TradeBoard{}, err
	}
	var board TradeBoard
	for _, proposal := range proposals {
		if proposal.Status != models.ProposalAccepted && proposal.Status != models.ProposalCompleted {
			continue
		}
		trade := ToTrade(proposal)
		if trade.Status == models.TradeCompleted {
			board.Completed = append(board.Completed, trade)
		} else {
			board.Active = append(board.Active, trade)
		}
	}
	sort.SliceStable(board.Active, func(i, j int) bool {
		return board.Active[i].StartedAt.After(board.Active[j].StartedAt)
	})
	sort.SliceStable(board.Completed, func(i, j int) bool {
		left, right := board.Completed[i].CompletedAt, board.Completed[j].CompletedAt
		if left == nil {
			return false
		}
		if right == nil {
			return true
		}
		return left.After(*right)
	})
	return board, nil
}

// ToTrade is a pure projection: the same proposal state always yields a
// structurally identical trade.
func ToTrade(proposal models.BarterProposal) models.Trade {
	isCompleted := proposal.Status == models.ProposalCompleted

	status := models.TradeActive
	stage := models.StagePlanning
	if isCompleted {
		status = models.TradeCompleted
		stage = models.StageCompleted
	}

	startedAt := proposal.CreatedAt
	if proposal.RespondedAt != nil {
		startedAt = *proposal.RespondedAt
	}

	var meeting *models.MeetingDetails
	if proposal.MeetingLocation != nil || proposal.MeetingTime != nil {
		meeting = &models.MeetingDetails{
			Location: proposal.MeetingLocation,
			Time:     proposal.MeetingTime,
			Notes:    proposal.MeetingNotes,
		}
	}

	return models.Trade{
		ID:         "trade_" + proposal.ID,
		ProposalID: proposal.ID,
		Participants: models.TradeParticipants{
			Offerer: models.TradeParticipant{
				ID:     proposal.FromUserID,
				Name:   proposal.FromUserName,
				Avatar: proposal.FromUserAvatar,
			},
			Receiver: models.TradeParticipant{
				ID:     proposal.ToUserID,
				Name:   proposal.ToUserName,
				Avatar: proposal.ToUserAvatar,
			},
		},
		TradeDetails: models.TradeDetails{
			Offered:   tradeSide(proposal.OfferedSkillID, proposal.OfferedSkillTitle, proposal.OfferedCredits),
			Requested: tradeSide(proposal.RequestedSkillID, proposal.RequestedSkillTitle, proposal.RequestedCredits),
		},
		Status: status,
		Progress: models.TradeProgress{
			Stage:      stage,
			Milestones: GenerateMilestones(proposal),
			SkillsDelivered: models.SkillsDelivered{
				OffererSkillDelivered:  isCompleted && proposal.ProposalType != models.CreditsForSkill,
				ReceiverSkillDelivered: isCompleted && proposal.ProposalType != models.SkillForCredits,
			},
		},
		MeetingDetails: meeting,
		StartedAt:      startedAt,
		CompletedAt:    proposal.CompletedAt,
	}
}

func tradeSide(skillID, skillTitle *string, credits *int64) models.TradeSide {
	if skillID != nil {
		return models.TradeSide{
			Type:       models.SideSkill,
			SkillID:    skillID,
			SkillTitle: skillTitle,
		}
	}
	return models.TradeSide{
		Type:    models.SideCredits,
		Credits: credits,
	}
}

// GenerateMilestones builds the progress checklist. Completion of every
// milestone is a function of (proposalType, status, respondedAt,
// completedAt) only, so regenerating is idempotent.
func GenerateMilestones(proposal models.BarterProposal) []models.TradeMilestone {
	agreed := proposal.Status == models.ProposalAccepted || proposal.Status == models.ProposalCompleted
	done := proposal.Status == models.ProposalCompleted

	milestones := []models.TradeMilestone{
		{
			ID:          "agreement",
			Title:       "Agreement Reached",
			Description: "Both parties have agreed to the trade terms",
			IsCompleted: agreed,
			CompletedAt: proposal.RespondedAt,
		},
		{
			ID:           "meeting_scheduled",
			Title:        "Meeting Scheduled",
			Description:  "Time and place for the skill exchange has been set",
			IsCompleted:  agreed,
			CompletedAt:  proposal.RespondedAt,
			SkillRelated: true,
		},
	}

	switch proposal.ProposalType {
	case models.SkillForSkill:
		milestones = append(milestones,
			models.TradeMilestone{
				ID:           "skill_1_delivered",
				Title:        fmt.Sprintf("%s Session Completed", derefString(proposal.OfferedSkillTitle)),
				Description:  fmt.Sprintf("%s has taught their skill", proposal.FromUserName),
				IsCompleted:  done,
				CompletedAt:  proposal.CompletedAt,
				SkillRelated: true,
			},
			models.TradeMilestone{
				ID:           "skill_2_delivered",
				Title:        fmt.Sprintf("%s Session Completed", derefString(proposal.RequestedSkillTitle)),
				Description:  fmt.Sprintf("%s has taught their skill", proposal.ToUserName),
				IsCompleted:  done,
				CompletedAt:  proposal.CompletedAt,
				SkillRelated: true,
			},
		)
	case models.CreditsForSkill:
		milestones = append(milestones,
			models.TradeMilestone{
				ID:          "credits_transferred",
				Title:       "Credits Transferred",
				Description: fmt.Sprintf("%d credits transferred to %s", derefInt64(proposal.OfferedCredits), proposal.ToUserName),
				IsCompleted: agreed,
				CompletedAt: proposal.RespondedAt,
			},
			models.TradeMilestone{
				ID:           "skill_delivered",
				Title:        fmt.Sprintf("%s Session Completed", derefString(proposal.RequestedSkillTitle)),
				Description:  fmt.Sprintf("%s has taught their skill", proposal.ToUserName),
				IsCompleted:  done,
				CompletedAt:  proposal.CompletedAt,
				SkillRelated: true,
			},
			models.TradeMilestone{
				ID:          "payment_settled",
				Title:       "Payment Settled",
				Description: "The credit payment for the session is confirmed",
				IsCompleted: done,
				CompletedAt: proposal.CompletedAt,
			},
		)
	case models.SkillForCredits:
		milestones = append(milestones,
			models.TradeMilestone{
				ID:           "skill_delivered",
				Title:        fmt.Sprintf("%s Session Completed", derefString(proposal.OfferedSkillTitle)),
				Description:  fmt.Sprintf("%s has taught their skill", proposal.FromUserName),
				IsCompleted:  done,
				CompletedAt:  proposal.CompletedAt,
				SkillRelated: true,
			},
			models.TradeMilestone{
				ID:          "credits_transferred",
				Title:       "Credits Received",
				Description: fmt.Sprintf("%d credits transferred to %s", derefInt64(proposal.RequestedCredits), proposal.FromUserName),
				IsCompleted: agreed,
				CompletedAt: proposal.RespondedAt,
			},
			models.TradeMilestone{
				ID:          "payment_settled",
				Title:       "Payment Settled",
				Description: "The credit payment for the session is confirmed",
				IsCompleted: done,
				CompletedAt: proposal.CompletedAt,
			},
		)
	}

	milestones = append(milestones, models.TradeMilestone{
		ID:           "trade_completed",
		Title:        "Trade Completed & Rated",
		Description:  "Both parties have confirmed the successful skill exchange",
		IsCompleted:  done,
		CompletedAt:  proposal.CompletedAt,
		SkillRelated: true,
	})

	return milestones
}

// StatsFor aggregates a user's completed-trade history. Skill-for-skill
// trades count one taught and one learned for each side: both skills
// change hands in the same exchange.
func (s *TradeService) StatsFor(ctx context.Context, userID string) (models.TradeStats, error) {
	proposals, err := s.allProposalsFor(ctx, userID)
	if err != nil {
		return models.TradeStats{}, err
	}

	var stats models.TradeStats
	categoryCount := map[string]int{}

	for _, proposal := range proposals {
		switch proposal.Status {
		case models.ProposalAccepted:
			stats.ActiveTrades++
			continue
		case models.ProposalCompleted:
			stats.CompletedTrades++
		default:
			continue
		}

		isProposer := proposal.FromUserID == userID
		switch proposal.ProposalType {
		case models.SkillForSkill:
			stats.SkillsTaught++
			stats.SkillsLearned++
		case models.CreditsForSkill:
			if isProposer {
				stats.SkillsLearned++
				stats.TotalCreditsSpent += derefInt64(proposal.OfferedCredits)
			} else {
				stats.SkillsTaught++
				stats.TotalCreditsEarned += derefInt64(proposal.OfferedCredits)
			}
		case models.SkillForCredits:
			if isProposer {
				stats.SkillsTaught++
				stats.TotalCreditsEarned += derefInt64(proposal.RequestedCredits)
			} else {
				stats.SkillsLearned++
				stats.TotalCreditsSpent += derefInt64(proposal.RequestedCredits)
			}
		}

		skillID := proposal.RequestedSkillID
		if isProposer {
			skillID = proposal.OfferedSkillID
		}
		if skillID != nil {
			if skill, err := s.skills.GetByID(ctx, *skillID); err == nil {
				categoryCount[skill.Category]++
			} else if !errors.Is(err, sql.ErrNoRows) {
				return models.TradeStats{}, err
			}
		}
	}

	bonuses, err := s.transactions.SumBonusesTo(ctx, userID)
	if err != nil {
		return models.TradeStats{}, err
	}
	stats.TotalCreditsEarned += bonuses

	stats.TotalTrades = stats.ActiveTrades + stats.CompletedTrades
	if stats.TotalTrades > 0 {
		stats.SuccessRate = int(math.Round(100 * float64(stats.CompletedTrades) / float64(stats.TotalTrades)))
	}

	if best := favoriteCategory(categoryCount); best != "" {
		stats.FavoriteCategory = &best
	}
	return stats, nil
}

func (s *TradeService) allProposalsFor(ctx context.Context, userID string) ([]models.BarterProposal, error) {
	sent, err := s.proposals.ListSentBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	received, err := s.proposals.ListReceivedBy(ctx, userID)
	if err != nil {
		return nil, err
	}
	return append(sent, received...), nil
}

func favoriteCategory(counts map[string]int) string {
	var best string
	var bestCount int
	for category, count := range counts {
		if count > bestCount || (count == bestCount && category < best) {
			best = category
			bestCount = count
		}
	}
	return best
}
