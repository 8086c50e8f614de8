package v1

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Jeet-12/pashupatinath-storefront/internal/core/commerce"
	"github.com/Jeet-12/pashupatinath-storefront/internal/core/domain"
	"github.com/Jeet-12/pashupatinath-storefront/middleware"
)

// TrackingService forwards visit and dwell-time telemetry to the
// commerce backend's analytics endpoints. Delivery is best effort: a
// failed report is logged and dropped, never surfaced to the shopper.
// Cancellation rides the request context, so a navigation that aborts
// the caller also aborts an in-flight report.
type TrackingService struct {
	commerce *commerce.Client
	site     string
}

// NewTrackingService creates a TrackingService. site identifies this
// storefront in visit events that omit it.
func NewTrackingService(commerceClient *commerce.Client, site string) *TrackingService {
	return &TrackingService{commerce: commerceClient, site: site}
}

// TrackTime reports how long a page was viewed. bearer, when non-empty,
// is the caller's guest or account token.
func (s *TrackingService) TrackTime(ctx context.Context, req domain.TrackTimeRequest, bearer string) {
	ctx, span := middleware.StartSpan(ctx, "tracking.time", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	body := map[string]any{
		"url":       req.URL,
		"timeSpent": req.TimeSpent,
		"pageTitle": req.PageTitle,
	}

	if _, err := s.commerce.Post(ctx, "/analytics/time", body, commerce.WithBearer(bearer)); err != nil {
		span.RecordError(err)
		zerolog.Ctx(ctx).Debug().Err(err).Str("url", req.URL).Msg("Dwell-time report dropped")
	}
}

// TrackVisit reports a page visit.
func (s *TrackingService) TrackVisit(ctx context.Context, req domain.TrackVisitRequest, bearer string) {
	ctx, span := middleware.StartSpan(ctx, "tracking.visit", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	site := req.Site
	if site == "" {
		site = s.site
	}

	body := map[string]any{
		"page_url": req.PageURL,
		"site":     site,
	}

	if _, err := s.commerce.Post(ctx, "/analytics/visits", body, commerce.WithBearer(bearer)); err != nil {
		span.RecordError(err)
		zerolog.Ctx(ctx).Debug().Err(err).Str("page_url", req.PageURL).Msg("Visit report dropped")
	}
}
