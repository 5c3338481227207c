// Messaging endpoints: sending messages about a listing, reading one
// conversation, the aggregated conversation list, and marking a
// conversation read.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tradepost/tradepost/internal/conversation"
	"github.com/tradepost/tradepost/internal/repository"
)

// MessageHandler bundles repositories for the messaging endpoints.
type MessageHandler struct {
	Messages *repository.MessageRepo
	Listings *repository.ListingRepo
	Users    *repository.UserRepo
}

func NewMessageHandler(messages *repository.MessageRepo, listings *repository.ListingRepo, users *repository.UserRepo) *MessageHandler {
	if messages == nil || listings == nil || users == nil {
		panic("nil repository passed to NewMessageHandler")
	}
	return &MessageHandler{Messages: messages, Listings: listings, Users: users}
}

// messageView is a message joined with its sender identity for conversation
// detail responses.
type messageView struct {
	repository.Message
	Sender *sellerPart `json:"sender"`
}

// Send handles POST /v1/messages. Messages are immutable and start unread.
func (h *MessageHandler) Send(c echo.Context) error {
	senderID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		ListingID  uint64 `json:"listing_id"`
		ReceiverID uint64 `json:"receiver_id"`
		Content    string `json:"content"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Content = strings.TrimSpace(body.Content)
	if body.ListingID == 0 || body.ReceiverID == 0 || body.Content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "listing_id, receiver_id and content are required"})
	}
	if body.ReceiverID == senderID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot message yourself"})
	}

	ctx := c.Request().Context()
	if _, err := h.Listings.GetByID(ctx, body.ListingID); err != nil {
		if errors.Is(err, repository.ErrListingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if _, err := h.Users.GetByID(ctx, body.ReceiverID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "receiver not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	m := &repository.Message{
		ListingID:  body.ListingID,
		SenderID:   senderID,
		ReceiverID: body.ReceiverID,
		Content:    body.Content,
	}
	if err := h.Messages.Create(ctx, m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not send message"})
	}
	return c.JSON(http.StatusCreated, m)
}

// GetConversation handles GET /v1/listings/:id/messages?with=<userID>: both
// directions between the caller and the other participant, oldest first.
func (h *MessageHandler) GetConversation(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	listingID, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	otherID, err := strconv.ParseUint(c.QueryParam("with"), 10, 64)
	if err != nil || otherID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "with parameter is required"})
	}

	ctx := c.Request().Context()
	msgs, err := h.Messages.ListConversation(ctx, listingID, callerID, otherID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	// Join sender identity once per participant, not per message.
	senders := map[uint64]*sellerPart{}
	for _, id := range []uint64{callerID, otherID} {
		if u, err := h.Users.GetByID(ctx, id); err == nil {
			senders[id] = &sellerPart{ID: u.ID, Name: u.Name, Email: u.Email}
		}
	}
	out := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageView{Message: m, Sender: senders[m.SenderID]})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// conversationView is one aggregated conversation row joined with the
// listing title and the other participant's identity. Either join may be
// null when the referenced record is gone.
type conversationView struct {
	conversation.Summary
	Listing *struct {
		ID    uint64 `json:"id"`
		Title string `json:"title"`
	} `json:"listing"`
	OtherUser *sellerPart `json:"other_user"`
}

// ListConversations handles GET /v1/conversations: the in-memory fold of
// the caller's message log into one row per (listing, other participant),
// ordered by recency of last message.
func (h *MessageHandler) ListConversations(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	msgs, err := h.Messages.ListForUser(ctx, callerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	summaries := conversation.Aggregate(msgs, callerID)

	out := make([]conversationView, 0, len(summaries))
	for _, s := range summaries {
		v := conversationView{Summary: s}
		if l, err := h.Listings.GetByID(ctx, s.ListingID); err == nil {
			v.Listing = &struct {
				ID    uint64 `json:"id"`
				Title string `json:"title"`
			}{ID: l.ID, Title: l.Title}
		}
		if u, err := h.Users.GetByID(ctx, s.OtherUserID); err == nil {
			v.OtherUser = &sellerPart{ID: u.ID, Name: u.Name, Email: u.Email}
		}
		out = append(out, v)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// MarkRead handles POST /v1/conversations/read. Only messages addressed to
// the caller flip; repeating the call is harmless.
func (h *MessageHandler) MarkRead(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		ListingID   uint64 `json:"listing_id"`
		OtherUserID uint64 `json:"other_user_id"`
	}
	if err := c.Bind(&body); err != nil || body.ListingID == 0 || body.OtherUserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "listing_id and other_user_id are required"})
	}
	if err := h.Messages.MarkConversationRead(c.Request().Context(), body.ListingID, callerID, body.OtherUserID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.NoContent(http.StatusNoContent)
}
