package repository

import (
	"context"
	"database/sql"
	"time"
)

// Message mirrors the 'messages' table. Messages are immutable once created
// except for the read flag, which flips to true when the receiver opens the
// conversation.
type Message struct {
	ID         uint64    `json:"id"`
	ListingID  uint64    `json:"listing_id"`
	SenderID   uint64    `json:"sender_id"`
	ReceiverID uint64    `json:"receiver_id"`
	Content    string    `json:"content"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

type MessageRepo struct{ db *sql.DB }

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{db: db} }

const messageCols = "id, listing_id, sender_id, receiver_id, content, `read`, created_at"

// Create inserts a message with read=false and populates its ID.
func (r *MessageRepo) Create(ctx context.Context, m *Message) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO messages (listing_id, sender_id, receiver_id, content, `read`) VALUES (?,?,?,?,0)",
		m.ListingID, m.SenderID, m.ReceiverID, m.Content)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	m.Read = false
	return nil
}

// ListConversation returns both directions of traffic between two users
// about one listing, oldest first.
func (r *MessageRepo) ListConversation(ctx context.Context, listingID, userA, userB uint64) ([]Message, error) {
	const q = "SELECT " + messageCols + ` FROM messages
	           WHERE listing_id=?
	             AND ((sender_id=? AND receiver_id=?) OR (sender_id=? AND receiver_id=?))
	           ORDER BY id`
	return r.queryMessages(ctx, q, listingID, userA, userB, userB, userA)
}

// ListForUser returns every message the user sent or received, newest first.
// This is the input of the conversation aggregation, which relies on the
// newest-first ordering to pick last messages.
func (r *MessageRepo) ListForUser(ctx context.Context, userID uint64) ([]Message, error) {
	const q = "SELECT " + messageCols + ` FROM messages
	           WHERE sender_id=? OR receiver_id=?
	           ORDER BY id DESC`
	return r.queryMessages(ctx, q, userID, userID)
}

// MarkConversationRead flips read=true on every message in the conversation
// addressed to the given receiver. Repeating the call is harmless.
func (r *MessageRepo) MarkConversationRead(ctx context.Context, listingID, receiverID, otherUserID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE messages SET `read`=1 WHERE listing_id=? AND receiver_id=? AND sender_id=? AND `read`=0",
		listingID, receiverID, otherUserID)
	return err
}

func (r *MessageRepo) queryMessages(ctx context.Context, q string, args ...any) ([]Message, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ListingID, &m.SenderID, &m.ReceiverID,
			&m.Content, &m.Read, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
