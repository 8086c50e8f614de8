package domain

import (
	"context"
	"time"
)

// CartItem is one line of the guest cart snapshot. Items are unique per
// product id; slice order is insertion order.
type CartItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Image     string  `json:"image,omitempty"`
}

// GuestSession is the durable identity of an unauthenticated shopper.
// GuestToken decodes to {sub: GuestID, type: "guest", iat, exp}; its exp
// tracks ExpiresAt to within refresh granularity.
type GuestSession struct {
	GuestID    string     `json:"guest_id"`
	GuestToken string     `json:"guest_token"`
	Email      string     `json:"email,omitempty"`
	CartItems  []CartItem `json:"cart_items"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`

	// Ephemeral marks a session that could not be persisted (store
	// unavailable). It is still fully usable for the current request.
	Ephemeral bool `json:"ephemeral,omitempty"`
}

// SessionPatch carries a partial session update. Nil fields are left
// untouched; a non-nil empty CartItems replaces the cart with an empty
// snapshot.
type SessionPatch struct {
	Email     *string    `json:"email,omitempty"`
	CartItems []CartItem `json:"cart_items,omitempty"`
}

// GuestSessionRepository defines the data-access contract for guest
// sessions. Implementations live in internal/core/repository.
type GuestSessionRepository interface {
	// Get returns the session for the given guest id.
	// Returns (nil, nil) when no session is stored.
	Get(ctx context.Context, guestID string) (*GuestSession, error)

	// Save upserts the session record.
	Save(ctx context.Context, s *GuestSession) error

	// Delete removes the session and its cart snapshot. Deleting an
	// absent session is not an error.
	Delete(ctx context.Context, guestID string) error
}
