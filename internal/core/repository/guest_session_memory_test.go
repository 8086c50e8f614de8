package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jeet-12/pashupatinath-storefront/internal/core/domain"
)

func TestMemoryRepositoryGetMissing(t *testing.T) {
	r := NewMemoryGuestSessionRepository()

	s, err := r.Get(context.Background(), "guest_nope")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestMemoryRepositorySaveUpsert(t *testing.T) {
	r := NewMemoryGuestSessionRepository()
	ctx := context.Background()

	sess := &domain.GuestSession{
		GuestID:   "guest_1",
		Email:     "first@example.com",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, r.Save(ctx, sess))

	sess.Email = "second@example.com"
	require.NoError(t, r.Save(ctx, sess))

	got, err := r.Get(ctx, "guest_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "second@example.com", got.Email)
}

func TestMemoryRepositoryCopiesCart(t *testing.T) {
	r := NewMemoryGuestSessionRepository()
	ctx := context.Background()

	items := []domain.CartItem{{ProductID: "p1", Quantity: 1, Price: 99}}
	require.NoError(t, r.Save(ctx, &domain.GuestSession{GuestID: "guest_1", CartItems: items}))

	// Mutating the caller's slice must not reach the stored record.
	items[0].Quantity = 50

	got, err := r.Get(ctx, "guest_1")
	require.NoError(t, err)
	require.Len(t, got.CartItems, 1)
	assert.Equal(t, 1, got.CartItems[0].Quantity)

	// Nor must mutating a read result.
	got.CartItems[0].Quantity = 99
	again, err := r.Get(ctx, "guest_1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.CartItems[0].Quantity)
}

func TestMemoryRepositoryDeleteIdempotent(t *testing.T) {
	r := NewMemoryGuestSessionRepository()
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, &domain.GuestSession{GuestID: "guest_1"}))
	require.NoError(t, r.Delete(ctx, "guest_1"))
	require.NoError(t, r.Delete(ctx, "guest_1"))

	got, err := r.Get(ctx, "guest_1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
