package v1

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Jeet-12/pashupatinath-storefront/internal/core/cache"
	"github.com/Jeet-12/pashupatinath-storefront/internal/core/commerce"
	"github.com/Jeet-12/pashupatinath-storefront/middleware"
)

// CatalogService proxies catalog and content reads to the commerce
// backend, memoizing responses in a TTL cache keyed by path and query.
type CatalogService struct {
	commerce *commerce.Client
	cache    *cache.Cache[json.RawMessage]
	ttl      time.Duration
}

// NewCatalogService creates a CatalogService with the given read cache.
func NewCatalogService(commerceClient *commerce.Client, c *cache.Cache[json.RawMessage], ttl time.Duration) *CatalogService {
	return &CatalogService{commerce: commerceClient, cache: c, ttl: ttl}
}

// Products lists products. Query parameters (category, search, sort,
// pagination) pass through to the backend untouched.
func (s *CatalogService) Products(ctx context.Context, query url.Values) (json.RawMessage, error) {
	return s.cachedGet(ctx, "/products", query)
}

// ProductByID fetches a single product by id or slug.
func (s *CatalogService) ProductByID(ctx context.Context, id string) (json.RawMessage, error) {
	return s.cachedGet(ctx, "/products/"+url.PathEscape(id), nil)
}

// Categories lists product categories.
func (s *CatalogService) Categories(ctx context.Context) (json.RawMessage, error) {
	return s.cachedGet(ctx, "/categories", nil)
}

// Posts lists blog/CMS posts.
func (s *CatalogService) Posts(ctx context.Context, query url.Values) (json.RawMessage, error) {
	return s.cachedGet(ctx, "/content/posts", query)
}

func (s *CatalogService) cachedGet(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	ctx, span := middleware.StartSpan(ctx, "catalog.get", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("catalog.path", path),
	))
	defer span.End()

	key := path
	if len(query) > 0 {
		key += "?" + query.Encode()
	}

	if data, ok := s.cache.Get(key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return data, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	data, err := s.commerce.Get(ctx, path, query)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.cache.Set(key, data, s.ttl)
	return data, nil
}
