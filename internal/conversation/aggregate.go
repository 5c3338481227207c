// Package conversation derives a user's conversation list from a flat
// message log. A conversation is the set of messages between the caller and
// one other participant about one listing, regardless of direction. The
// aggregation is a read-only in-memory fold; no aggregate table is kept.
package conversation

import "github.com/tradepost/tradepost/internal/repository"

// Key identifies one conversation from the caller's point of view. Using a
// typed composite key instead of a formatted string rules out collisions
// between the two fields.
type Key struct {
	ListingID   uint64
	OtherUserID uint64
}

// Summary is one row of the caller's conversation list.
type Summary struct {
	ListingID   uint64             `json:"listing_id"`
	OtherUserID uint64             `json:"other_user_id"`
	LastMessage repository.Message `json:"last_message"`
	UnreadCount int                `json:"unread_count"`
}

// Aggregate folds the caller's messages into conversation summaries.
//
// The input must be ordered newest first; the first message seen for a key
// is therefore the conversation's most recent one and becomes LastMessage.
// UnreadCount counts messages addressed to the caller that are still
// unread. Summaries are returned in first-occurrence order, i.e. ordered by
// recency of last message.
func Aggregate(messages []repository.Message, callerID uint64) []Summary {
	byKey := make(map[Key]int) // key -> index into out
	var out []Summary

	for _, m := range messages {
		other := m.SenderID
		if m.SenderID == callerID {
			other = m.ReceiverID
		}
		k := Key{ListingID: m.ListingID, OtherUserID: other}

		idx, ok := byKey[k]
		if !ok {
			idx = len(out)
			byKey[k] = idx
			out = append(out, Summary{
				ListingID:   m.ListingID,
				OtherUserID: other,
				LastMessage: m,
			})
		}
		if !m.Read && m.ReceiverID == callerID {
			out[idx].UnreadCount++
		}
	}
	return out
}
