package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepost/tradepost/internal/repository"
)

func msg(id, listingID, senderID, receiverID uint64, content string, read bool) repository.Message {
	return repository.Message{
		ID: id, ListingID: listingID,
		SenderID: senderID, ReceiverID: receiverID,
		Content: content, Read: read,
	}
}

func TestAggregateSingleConversation(t *testing.T) {
	// Caller 1 wrote to 2 about listing 10, then 2 replied "hey" unread.
	// Input is newest first, as the repository returns it.
	msgs := []repository.Message{
		msg(2, 10, 2, 1, "hey", false),
		msg(1, 10, 1, 2, "is this available?", true),
	}
	out := Aggregate(msgs, 1)
	require.Len(t, out, 1)
	assert.Equal(t, uint64(10), out[0].ListingID)
	assert.Equal(t, uint64(2), out[0].OtherUserID)
	assert.Equal(t, "hey", out[0].LastMessage.Content)
	assert.Equal(t, 1, out[0].UnreadCount)
}

func TestAggregateKeysByListingAndParticipant(t *testing.T) {
	// Same participant on two listings, plus a second participant on one of
	// them: three distinct conversations.
	msgs := []repository.Message{
		msg(5, 11, 3, 1, "still for sale?", false),
		msg(4, 10, 3, 1, "other listing", false),
		msg(3, 10, 1, 2, "sure", true),
		msg(2, 10, 2, 1, "can you ship it?", true),
	}
	out := Aggregate(msgs, 1)
	require.Len(t, out, 3)
	assert.Equal(t, Key{ListingID: 11, OtherUserID: 3}, Key{out[0].ListingID, out[0].OtherUserID})
	assert.Equal(t, Key{ListingID: 10, OtherUserID: 3}, Key{out[1].ListingID, out[1].OtherUserID})
	assert.Equal(t, Key{ListingID: 10, OtherUserID: 2}, Key{out[2].ListingID, out[2].OtherUserID})
}

func TestAggregateOrderedByRecency(t *testing.T) {
	// The conversation with the newest message comes first, regardless of
	// which conversation started earlier.
	msgs := []repository.Message{
		msg(9, 20, 5, 1, "newest", false),
		msg(8, 10, 1, 2, "older", true),
		msg(1, 20, 1, 5, "oldest", true),
	}
	out := Aggregate(msgs, 1)
	require.Len(t, out, 2)
	assert.Equal(t, uint64(20), out[0].ListingID)
	assert.Equal(t, "newest", out[0].LastMessage.Content)
	assert.Equal(t, uint64(10), out[1].ListingID)
}

func TestAggregateUnreadCountsOnlyInbound(t *testing.T) {
	// Unread messages the caller sent do not count against the caller.
	msgs := []repository.Message{
		msg(4, 10, 1, 2, "unread but outbound", false),
		msg(3, 10, 2, 1, "unread inbound", false),
		msg(2, 10, 2, 1, "another unread inbound", false),
		msg(1, 10, 2, 1, "read inbound", true),
	}
	out := Aggregate(msgs, 1)
	require.Len(t, out, 1)
	assert.Equal(t, 2, out[0].UnreadCount)
	assert.Equal(t, "unread but outbound", out[0].LastMessage.Content)
}

func TestAggregateEmpty(t *testing.T) {
	assert.Empty(t, Aggregate(nil, 1))
	assert.Empty(t, Aggregate([]repository.Message{}, 1))
}
