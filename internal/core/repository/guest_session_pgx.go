package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jeet-12/pashupatinath-storefront/internal/core/domain"
)

// PgxGuestSessionRepository implements domain.GuestSessionRepository
// using pgxpool. The cart snapshot is stored alongside the session as
// jsonb, so Delete removes both in one statement.
type PgxGuestSessionRepository struct {
	pool *pgxpool.Pool
}

// NewGuestSessionRepository creates a new PgxGuestSessionRepository.
func NewGuestSessionRepository(pool *pgxpool.Pool) *PgxGuestSessionRepository {
	return &PgxGuestSessionRepository{pool: pool}
}

// Get returns the session for the given guest id.
// Returns (nil, nil) when no session is stored.
func (r *PgxGuestSessionRepository) Get(ctx context.Context, guestID string) (*domain.GuestSession, error) {
	query := `
		SELECT guest_id, token, COALESCE(email, ''), cart_items, created_at, expires_at
		FROM guest_sessions
		WHERE guest_id = $1
	`

	var (
		s    domain.GuestSession
		cart []byte
	)
	err := r.pool.QueryRow(ctx, query, guestID).Scan(
		&s.GuestID, &s.GuestToken, &s.Email, &cart, &s.CreatedAt, &s.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if len(cart) > 0 {
		if err := json.Unmarshal(cart, &s.CartItems); err != nil {
			return nil, fmt.Errorf("decode cart snapshot: %w", err)
		}
	}

	return &s, nil
}

// Save upserts the session record.
func (r *PgxGuestSessionRepository) Save(ctx context.Context, s *domain.GuestSession) error {
	cart, err := json.Marshal(s.CartItems)
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}

	query := `
		INSERT INTO guest_sessions (guest_id, token, email, cart_items, created_at, expires_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
		ON CONFLICT (guest_id) DO UPDATE SET
			token      = EXCLUDED.token,
			email      = EXCLUDED.email,
			cart_items = EXCLUDED.cart_items,
			expires_at = EXCLUDED.expires_at
	`
	_, err = r.pool.Exec(ctx, query,
		s.GuestID, s.GuestToken, s.Email, cart, s.CreatedAt, s.ExpiresAt,
	)
	return err
}

// Delete removes the session. Deleting an absent session is a no-op.
func (r *PgxGuestSessionRepository) Delete(ctx context.Context, guestID string) error {
	query := `DELETE FROM guest_sessions WHERE guest_id = $1`
	_, err := r.pool.Exec(ctx, query, guestID)
	return err
}
