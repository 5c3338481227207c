// Package queue defines message payloads exchanged over the message broker.
package queue

// ListingModeratedEvent is published when a moderator approves or rejects a
// listing. It carries enough information for downstream consumers to log or
// notify without querying the primary database.
type ListingModeratedEvent struct {
	ListingID   uint64  `json:"listing_id"`
	Title       string  `json:"title"`
	SellerID    uint64  `json:"seller_id"`
	CategoryID  uint64  `json:"category_id"`
	Price       float64 `json:"price"`
	Status      string  `json:"status"` // "approved" or "rejected"
	ModeratorID uint64  `json:"moderator_id"`
	DecidedAt   string  `json:"decided_at"`
}
