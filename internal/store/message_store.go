package store

import (
	"context"
	"time"

	"github.com/PradhyumnJadhao/CommunitySkillExchange/internal/models"
)

type MessageStore struct {
	db DB
}

func NewMessageStore(db DB) *MessageStore {
	return &MessageStore{db: db}
}

// ConversationSummary is a conversation as the inbox shows it: the
// other side, the latest message and how many are unread.
type ConversationSummary struct {
	ID                 string     `db:"id" json:"id"`
	OtherUserID        string     `db:"other_user_id" json:"other_user_id"`
	RelatedProposalID  *string    `db:"related_proposal_id" json:"related_proposal_id,omitempty"`
	LastMessageContent *string    `db:"last_message_content" json:"last_message_content,omitempty"`
	LastMessageAt      *time.Time `db:"last_message_at" json:"last_message_at,omitempty"`
	UnreadCount        int        `db:"unread_count" json:"unread_count"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

func (s *MessageStore) GetConversationBetween(ctx context.Context, tx Getter, userA, userB string) (models.Conversation, error) {
	var conv models.Conversation
	err := tx.GetContext(ctx, &conv, `
		SELECT id, user_a_id, user_b_id, related_proposal_id, updated_at
		FROM conversations
		WHERE (user_a_id = $1 AND user_b_id = $2) OR (user_a_id = $2 AND user_b_id = $1)
	`, userA, userB)
	return conv, err
}

func (s *MessageStore) GetConversation(ctx context.Context, conversationID string) (models.Conversation, error) {
	var conv models.Conversation
	err := s.db.GetContext(ctx, &conv, `
		SELECT id, user_a_id, user_b_id, related_proposal_id, updated_at
		FROM conversations
		WHERE id = $1
	`, conversationID)
	return conv, err
}

func (s *MessageStore) CreateConversation(ctx context.Context, tx Execer, conv models.Conversation) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO conversations (id, user_a_id, user_b_id, related_proposal_id, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, conv.ID, conv.UserAID, conv.UserBID, conv.RelatedProposalID, conv.UpdatedAt)
	return err
}

func (s *MessageStore) TouchConversation(ctx context.Context, tx Execer, conversationID string, at time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE conversations
		SET updated_at = $1
		WHERE id = $2
	`, at, conversationID)
	return err
}

func (s *MessageStore) CreateMessage(ctx context.Context, tx Execer, msg models.Message) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, receiver_id, content, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, msg.ID, msg.ConversationID, msg.SenderID, msg.ReceiverID, msg.Content, msg.IsRead, msg.CreatedAt)
	return err
}

func (s *MessageStore) ListConversations(ctx context.Context, userID string) ([]ConversationSummary, error) {
	var summaries []ConversationSummary
	err := s.db.SelectContext(ctx, &summaries, `
		SELECT c.id,
		       CASE WHEN c.user_a_id = $1 THEN c.user_b_id ELSE c.user_a_id END AS other_user_id,
		       c.related_proposal_id,
		       lm.content AS last_message_content,
		       lm.created_at AS last_message_at,
		       COALESCE(u.unread, 0) AS unread_count,
		       c.updated_at
		FROM conversations c
		LEFT JOIN LATERAL (
			SELECT content, created_at
			FROM messages
			WHERE conversation_id = c.id
			ORDER BY created_at DESC
			LIMIT 1
		) lm ON TRUE
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS unread
			FROM messages
			WHERE conversation_id = c.id AND receiver_id = $1 AND is_read = FALSE
		) u ON TRUE
		WHERE c.user_a_id = $1 OR c.user_b_id = $1
		ORDER BY c.updated_at DESC
	`, userID)
	return summaries, err
}

func (s *MessageStore) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.SelectContext(ctx, &messages, `
		SELECT id, conversation_id, sender_id, receiver_id, content, is_read, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at
	`, conversationID)
	return messages, err
}

func (s *MessageStore) MarkRead(ctx context.Context, tx Execer, conversationID, readerID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE messages
		SET is_read = TRUE
		WHERE conversation_id = $1 AND receiver_id = $2 AND is_read = FALSE
	`, conversationID, readerID)
	return err
}
