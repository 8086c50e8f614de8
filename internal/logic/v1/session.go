package v1

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Jeet-12/pashupatinath-storefront/internal/core/domain"
	"github.com/Jeet-12/pashupatinath-storefront/internal/core/token"
	"github.com/Jeet-12/pashupatinath-storefront/middleware"
)

// GuestTokenType is the type claim stamped into every guest token.
const GuestTokenType = "guest"

// SessionService owns the guest session lifecycle: mint, refresh on
// token expiry, partial update, and teardown. It never surfaces storage
// failures to the caller; a session that cannot be persisted is handed
// out as ephemeral instead. This preserves the storefront contract that
// a broken session store must not break the page.
type SessionService struct {
	repo  domain.GuestSessionRepository
	codec *token.Codec
	ttl   time.Duration
	now   func() time.Time
}

// NewSessionService creates a SessionService. ttl is the session
// validity window (30 days in the storefront).
func NewSessionService(repo domain.GuestSessionRepository, codec *token.Codec, ttl time.Duration) *SessionService {
	return &SessionService{
		repo:  repo,
		codec: codec,
		ttl:   ttl,
		now:   time.Now,
	}
}

// GetOrCreate returns the stored session for guestID, refreshing its
// token when expired. An empty guestID, an unknown guestID, or any
// repository failure yields a freshly minted session; only the failure
// case marks it ephemeral.
func (s *SessionService) GetOrCreate(ctx context.Context, guestID string) *domain.GuestSession {
	ctx, span := middleware.StartSpan(ctx, "session.get_or_create", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	if guestID == "" {
		guestID = s.newGuestID()
	}

	stored, err := s.repo.Get(ctx, guestID)
	if err != nil {
		span.RecordError(err)
		logger.Warn().Err(err).Str("guest_id", guestID).Msg("Session store read failed, serving ephemeral session")
		sess := s.mint(guestID)
		sess.Ephemeral = true
		return sess
	}

	if stored == nil {
		sess := s.mint(guestID)
		s.persist(ctx, sess)
		span.SetAttributes(attribute.Bool("session.created", true))
		return sess
	}

	if s.codec.IsExpired(stored.GuestToken) {
		refreshed, err := s.refresh(stored)
		if err != nil {
			span.RecordError(err)
			logger.Error().Err(err).Str("guest_id", guestID).Msg("Token refresh failed, reminting session")
			sess := s.mint(guestID)
			s.persist(ctx, sess)
			return sess
		}
		s.persist(ctx, refreshed)
		span.SetAttributes(attribute.Bool("session.refreshed", true))
		return refreshed
	}

	return stored
}

// Token returns the current guest token for guestID, minting a session
// if needed.
func (s *SessionService) Token(ctx context.Context, guestID string) string {
	return s.GetOrCreate(ctx, guestID).GuestToken
}

// IsGuest reports whether raw decodes to a token with type "guest".
// Any decode failure yields false.
func (s *SessionService) IsGuest(raw string) bool {
	claims, err := s.codec.Decode(raw)
	if err != nil {
		return false
	}
	typ, _ := claims["type"].(string)
	return typ == GuestTokenType
}

// Update merges patch into the session for guestID and writes it back.
// A non-nil cart replaces the stored snapshot, deduplicated per product
// id with insertion order preserved (first occurrence wins position,
// last occurrence wins content).
func (s *SessionService) Update(ctx context.Context, guestID string, patch domain.SessionPatch) *domain.GuestSession {
	ctx, span := middleware.StartSpan(ctx, "session.update", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	sess := s.GetOrCreate(ctx, guestID)

	if patch.Email != nil {
		sess.Email = *patch.Email
	}
	if patch.CartItems != nil {
		sess.CartItems = dedupeCartItems(patch.CartItems)
	}

	s.persist(ctx, sess)
	return sess
}

// Clear removes the session and its cart snapshot. Safe to call when
// nothing is stored; storage failures are logged and swallowed.
func (s *SessionService) Clear(ctx context.Context, guestID string) {
	ctx, span := middleware.StartSpan(ctx, "session.clear", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if guestID == "" {
		return
	}
	if err := s.repo.Delete(ctx, guestID); err != nil {
		span.RecordError(err)
		zerolog.Ctx(ctx).Warn().Err(err).Str("guest_id", guestID).Msg("Session delete failed")
	}
}

// GuestIDFromToken extracts the subject claim from a guest token.
// Returns "" when the token does not decode or is not a guest token.
func (s *SessionService) GuestIDFromToken(raw string) string {
	claims, err := s.codec.Decode(raw)
	if err != nil {
		return ""
	}
	if typ, _ := claims["type"].(string); typ != GuestTokenType {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}

func (s *SessionService) newGuestID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("guest_%d_%s", s.now().UnixMilli(), suffix)
}

func (s *SessionService) mint(guestID string) *domain.GuestSession {
	now := s.now()
	expires := now.Add(s.ttl)

	tok, err := s.codec.Encode(jwt.MapClaims{
		"sub":  guestID,
		"type": GuestTokenType,
		"iat":  now.Unix(),
		"exp":  expires.Unix(),
	})
	if err != nil {
		// Encode only fails on unserializable claims; these never are.
		tok = ""
	}

	return &domain.GuestSession{
		GuestID:    guestID,
		GuestToken: tok,
		CartItems:  []domain.CartItem{},
		CreatedAt:  now,
		ExpiresAt:  expires,
	}
}

// refresh mints a replacement token for the same guest id and pushes
// the session expiry ttl out from now. Cart and email carry over.
func (s *SessionService) refresh(stored *domain.GuestSession) (*domain.GuestSession, error) {
	now := s.now()
	expires := now.Add(s.ttl)

	tok, err := s.codec.Encode(jwt.MapClaims{
		"sub":  stored.GuestID,
		"type": GuestTokenType,
		"iat":  now.Unix(),
		"exp":  expires.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode refreshed token: %w", err)
	}

	refreshed := *stored
	refreshed.GuestToken = tok
	refreshed.ExpiresAt = expires
	refreshed.Ephemeral = false
	return &refreshed, nil
}

// persist writes the session, downgrading to ephemeral on failure.
func (s *SessionService) persist(ctx context.Context, sess *domain.GuestSession) {
	if err := s.repo.Save(ctx, sess); err != nil {
		sess.Ephemeral = true
		zerolog.Ctx(ctx).Warn().Err(err).Str("guest_id", sess.GuestID).Msg("Session store write failed, session is ephemeral")
	}
}

func dedupeCartItems(items []domain.CartItem) []domain.CartItem {
	index := make(map[string]int, len(items))
	out := make([]domain.CartItem, 0, len(items))

	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			out[i] = item
			continue
		}
		index[item.ProductID] = len(out)
		out = append(out, item)
	}
	return out
}
