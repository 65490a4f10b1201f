package models

import (
	"time"

	"github.com/lib/pq"
)

// SystemUserID is the sentinel sender recorded on bonus and refund
// transactions. It is not a directory user and is never debited.
const SystemUserID = "system"

type ProposalType string

const (
	SkillForSkill   ProposalType = "skill-for-skill"
	CreditsForSkill ProposalType = "credits-for-skill"
	SkillForCredits ProposalType = "skill-for-credits"
)

type ProposalStatus string

const (
	ProposalPending   ProposalStatus = "pending"
	ProposalAccepted  ProposalStatus = "accepted"
	ProposalDeclined  ProposalStatus = "declined"
	ProposalCompleted ProposalStatus = "completed"
	ProposalCancelled ProposalStatus = "cancelled"
)

// Terminal reports whether no further status transition is allowed.
func (s ProposalStatus) Terminal() bool {
	return s == ProposalDeclined || s == ProposalCompleted || s == ProposalCancelled
}

type TransactionKind string

const (
	KindTransfer        TransactionKind = "transfer"
	KindTradeCompletion TransactionKind = "trade_completion"
	KindBonus           TransactionKind = "bonus"
	KindRefund          TransactionKind = "refund"
)

type User struct {
	ID              string         `db:"id" json:"id"`
	Name            string         `db:"name" json:"name"`
	Email           string         `db:"email" json:"email"`
	PasswordHash    string         `db:"password_hash" json:"-"`
	Avatar          *string        `db:"avatar" json:"avatar,omitempty"`
	Bio             *string        `db:"bio" json:"bio,omitempty"`
	Location        *string        `db:"location" json:"location,omitempty"`
	SkillsOffered   pq.StringArray `db:"skills_offered" json:"skills_offered"`
	SkillsWanted    pq.StringArray `db:"skills_wanted" json:"skills_wanted"`
	Credits         int64          `db:"credits" json:"credits"`
	Rating          float64        `db:"rating" json:"rating"`
	CompletedTrades int64          `db:"completed_trades" json:"completed_trades"`
	JoinedAt        time.Time      `db:"joined_at" json:"joined_at"`
}

// CreditTransaction is an append-only ledger record. Rows are never
// mutated or deleted once written.
type CreditTransaction struct {
	ID                string          `db:"id" json:"id"`
	FromUserID        string          `db:"from_user_id" json:"from_user_id"`
	ToUserID          string          `db:"to_user_id" json:"to_user_id"`
	Amount            int64           `db:"amount" json:"amount"`
	Kind              TransactionKind `db:"kind" json:"kind"`
	Description       string          `db:"description" json:"description"`
	RelatedTradeID    *string         `db:"related_trade_id" json:"related_trade_id,omitempty"`
	RelatedProposalID *string         `db:"related_proposal_id" json:"related_proposal_id,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}

type BarterProposal struct {
	ID             string  `db:"id" json:"id"`
	FromUserID     string  `db:"from_user_id" json:"from_user_id"`
	FromUserName   string  `db:"from_user_name" json:"from_user_name"`
	FromUserAvatar *string `db:"from_user_avatar" json:"from_user_avatar,omitempty"`
	ToUserID       string  `db:"to_user_id" json:"to_user_id"`
	ToUserName     string  `db:"to_user_name" json:"to_user_name"`
	ToUserAvatar   *string `db:"to_user_avatar" json:"to_user_avatar,omitempty"`

	OfferedSkillID    *string `db:"offered_skill_id" json:"offered_skill_id,omitempty"`
	OfferedSkillTitle *string `db:"offered_skill_title" json:"offered_skill_title,omitempty"`
	OfferedCredits    *int64  `db:"offered_credits" json:"offered_credits,omitempty"`

	RequestedSkillID    *string `db:"requested_skill_id" json:"requested_skill_id,omitempty"`
	RequestedSkillTitle *string `db:"requested_skill_title" json:"requested_skill_title,omitempty"`
	RequestedCredits    *int64  `db:"requested_credits" json:"requested_credits,omitempty"`

	Message      string         `db:"message" json:"message"`
	ProposalType ProposalType   `db:"proposal_type" json:"proposal_type"`
	Status       ProposalStatus `db:"status" json:"status"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	RespondedAt  *time.Time     `db:"responded_at" json:"responded_at,omitempty"`
	CompletedAt  *time.Time     `db:"completed_at" json:"completed_at,omitempty"`

	MeetingLocation *string    `db:"meeting_location" json:"meeting_location,omitempty"`
	MeetingTime     *time.Time `db:"meeting_time" json:"meeting_time,omitempty"`
	MeetingNotes    *string    `db:"meeting_notes" json:"meeting_notes,omitempty"`
}

type TradeStatus string

const (
	TradeActive    TradeStatus = "active"
	TradeCompleted TradeStatus = "completed"
)

// Trade is the read-side projection of an accepted or completed
// proposal. It carries no identity of its own and is recomputed on
// every read.
type Trade struct {
	ID             string            `json:"id"`
	ProposalID     string            `json:"proposal_id"`
	Participants   TradeParticipants `json:"participants"`
	TradeDetails   TradeDetails      `json:"trade_details"`
	Status         TradeStatus       `json:"status"`
	Progress       TradeProgress     `json:"progress"`
	MeetingDetails *MeetingDetails   `json:"meeting_details,omitempty"`
	StartedAt      time.Time         `json:"started_at"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
}

type TradeParticipants struct {
	Offerer  TradeParticipant `json:"offerer"`
	Receiver TradeParticipant `json:"receiver"`
}

type TradeParticipant struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar,omitempty"`
}

type TradeDetails struct {
	Offered   TradeSide `json:"offered"`
	Requested TradeSide `json:"requested"`
}

type TradeSideType string

const (
	SideSkill   TradeSideType = "skill"
	SideCredits TradeSideType = "credits"
)

type TradeSide struct {
	Type       TradeSideType `json:"type"`
	SkillID    *string       `json:"skill_id,omitempty"`
	SkillTitle *string       `json:"skill_title,omitempty"`
	Credits    *int64        `json:"credits,omitempty"`
}

type TradeStage string

const (
	StagePlanning  TradeStage = "planning"
	StageCompleted TradeStage = "completed"
)

type TradeProgress struct {
	Stage           TradeStage       `json:"stage"`
	Milestones      []TradeMilestone `json:"milestones"`
	SkillsDelivered SkillsDelivered  `json:"skills_delivered"`
}

type SkillsDelivered struct {
	OffererSkillDelivered  bool `json:"offerer_skill_delivered"`
	ReceiverSkillDelivered bool `json:"receiver_skill_delivered"`
}

type TradeMilestone struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	IsCompleted  bool       `json:"is_completed"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	SkillRelated bool       `json:"skill_related"`
}

type MeetingDetails struct {
	Location *string    `json:"location,omitempty"`
	Time     *time.Time `json:"time,omitempty"`
	Notes    *string    `json:"notes,omitempty"`
}

type TradeStats struct {
	TotalTrades        int     `json:"total_trades"`
	ActiveTrades       int     `json:"active_trades"`
	CompletedTrades    int     `json:"completed_trades"`
	SuccessRate        int     `json:"success_rate"`
	TotalCreditsEarned int64   `json:"total_credits_earned"`
	TotalCreditsSpent  int64   `json:"total_credits_spent"`
	SkillsLearned      int     `json:"skills_learned"`
	SkillsTaught       int     `json:"skills_taught"`
	FavoriteCategory   *string `json:"favorite_category,omitempty"`
}

type SkillOffer struct {
	ID                string    `db:"id" json:"id"`
	UserID            string    `db:"user_id" json:"user_id"`
	UserName          string    `db:"user_name" json:"user_name"`
	UserAvatar        *string   `db:"user_avatar" json:"user_avatar,omitempty"`
	Title             string    `db:"title" json:"title"`
	Description       string    `db:"description" json:"description"`
	Category          string    `db:"category" json:"category"`
	CreditsPerSession int64     `db:"credits_per_session" json:"credits_per_session"`
	IsActive          bool      `db:"is_active" json:"is_active"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

type Conversation struct {
	ID                string    `db:"id" json:"id"`
	UserAID           string    `db:"user_a_id" json:"user_a_id"`
	UserBID           string    `db:"user_b_id" json:"user_b_id"`
	RelatedProposalID *string   `db:"related_proposal_id" json:"related_proposal_id,omitempty"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

type Message struct {
	ID             string    `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversation_id"`
	SenderID       string    `db:"sender_id" json:"sender_id"`
	ReceiverID     string    `db:"receiver_id" json:"receiver_id"`
	Content        string    `db:"content" json:"content"`
	IsRead         bool      `db:"is_read" json:"is_read"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

type TradeRating struct {
	ID         string    `db:"id" json:"id"`
	ProposalID string    `db:"proposal_id" json:"proposal_id"`
	RaterID    string    `db:"rater_id" json:"rater_id"`
	RateeID    string    `db:"ratee_id" json:"ratee_id"`
	Score      int       `db:"score" json:"score"`
	Feedback   *string   `db:"feedback" json:"feedback,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
