package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Jeet-12/pashupatinath-storefront/internal/core/commerce"
	"github.com/Jeet-12/pashupatinath-storefront/internal/core/domain"
	"github.com/Jeet-12/pashupatinath-storefront/internal/core/oauth"
	logicv1 "github.com/Jeet-12/pashupatinath-storefront/internal/logic/v1"
	"github.com/Jeet-12/pashupatinath-storefront/middleware"
)

const genericErrorMessage = "Something went wrong. Please try again."

// Handler groups HTTP handlers for the storefront API v1.
// Dependencies are injected via the constructor — no global state.
type Handler struct {
	sessions   *logicv1.SessionService
	catalog    *logicv1.CatalogService
	payments   *logicv1.PaymentService
	tracking   *logicv1.TrackingService
	google     *oauth.Google
	commerce   *commerce.Client
	appOrigin  string
	production bool
}

// NewHandler creates a new Handler with the given services.
func NewHandler(
	sessions *logicv1.SessionService,
	catalog *logicv1.CatalogService,
	payments *logicv1.PaymentService,
	tracking *logicv1.TrackingService,
	google *oauth.Google,
	commerceClient *commerce.Client,
	appOrigin string,
	production bool,
) *Handler {
	return &Handler{
		sessions:   sessions,
		catalog:    catalog,
		payments:   payments,
		tracking:   tracking,
		google:     google,
		commerce:   commerceClient,
		appOrigin:  appOrigin,
		production: production,
	}
}

// RegisterRoutes registers all storefront API v1 routes on the given
// router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/session", h.GetOrCreateSession)
	rg.GET("/session/token", h.GetSessionToken)
	rg.PATCH("/session", h.UpdateSession)
	rg.DELETE("/session", h.ClearSession)

	rg.GET("/catalog/products", h.ListProducts)
	rg.GET("/catalog/products/:id", h.GetProduct)
	rg.GET("/catalog/categories", h.ListCategories)
	rg.GET("/content/posts", h.ListPosts)

	rg.POST("/payment/orders", h.CreateOrder)
	rg.POST("/payment/verify", h.VerifyPayment)

	rg.POST("/track/time", h.TrackTime)
	rg.POST("/track/visit", h.TrackVisit)

	rg.GET("/auth/google/url", h.GoogleAuthURL)
	rg.GET("/auth/google/callback", h.GoogleCallback)
}

// bearerToken pulls the raw bearer token from the Authorization header,
// or "" when absent or malformed.
func bearerToken(c *gin.Context) string {
	const prefix = "Bearer "
	header := c.GetHeader("Authorization")
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}

// guestID resolves the caller's guest identity: a guest bearer token
// wins, then the X-Guest-Id header. "" means no identity yet; the
// session service will mint one.
func (h *Handler) guestID(c *gin.Context) string {
	if tok := bearerToken(c); tok != "" {
		if id := h.sessions.GuestIDFromToken(tok); id != "" {
			return id
		}
	}
	return c.GetHeader("X-Guest-Id")
}

// GetOrCreateSession handles POST /session: returns the caller's guest
// session, minting or refreshing it as needed.
func (h *Handler) GetOrCreateSession(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	sess := h.sessions.GetOrCreate(ctx, h.guestID(c))
	span.SetAttributes(attribute.Bool("session.ephemeral", sess.Ephemeral))
	respond(c, http.StatusOK, sess)
}

// GetSessionToken handles GET /session/token.
func (h *Handler) GetSessionToken(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	sess := h.sessions.GetOrCreate(ctx, h.guestID(c))
	respond(c, http.StatusOK, gin.H{
		"guest_id": sess.GuestID,
		"token":    sess.GuestToken,
	})
}

// UpdateSession handles PATCH /session: merges email and cart updates
// into the stored session.
func (h *Handler) UpdateSession(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	var req domain.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		respondError(c, http.StatusBadRequest, "Invalid request body", err, h.production)
		return
	}

	sess := h.sessions.Update(ctx, h.guestID(c), domain.SessionPatch{
		Email:     req.Email,
		CartItems: req.CartItems,
	})
	respond(c, http.StatusOK, sess)
}

// ClearSession handles DELETE /session: removes the stored session and
// cart snapshot. Idempotent.
func (h *Handler) ClearSession(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	h.sessions.Clear(ctx, h.guestID(c))
	respond(c, http.StatusOK, gin.H{"cleared": true})
}

// ListProducts handles GET /catalog/products.
func (h *Handler) ListProducts(c *gin.Context) {
	h.proxyCatalog(c, func(ctx *gin.Context) (any, error) {
		return h.catalog.Products(ctx.Request.Context(), ctx.Request.URL.Query())
	})
}

// GetProduct handles GET /catalog/products/:id.
func (h *Handler) GetProduct(c *gin.Context) {
	h.proxyCatalog(c, func(ctx *gin.Context) (any, error) {
		return h.catalog.ProductByID(ctx.Request.Context(), ctx.Param("id"))
	})
}

// ListCategories handles GET /catalog/categories.
func (h *Handler) ListCategories(c *gin.Context) {
	h.proxyCatalog(c, func(ctx *gin.Context) (any, error) {
		return h.catalog.Categories(ctx.Request.Context())
	})
}

// ListPosts handles GET /content/posts.
func (h *Handler) ListPosts(c *gin.Context) {
	h.proxyCatalog(c, func(ctx *gin.Context) (any, error) {
		return h.catalog.Posts(ctx.Request.Context(), ctx.Request.URL.Query())
	})
}

// proxyCatalog runs a catalog read and maps upstream failures to a 500
// with a generic message per the storefront error contract.
func (h *Handler) proxyCatalog(c *gin.Context, fetch func(*gin.Context) (any, error)) {
	_, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	data, err := fetch(c)
	if err != nil {
		span.RecordError(err)
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("Catalog read failed")
		respondError(c, http.StatusInternalServerError, genericErrorMessage, err, h.production)
		return
	}
	respond(c, http.StatusOK, data)
}

// CreateOrder handles POST /payment/orders.
func (h *Handler) CreateOrder(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	var req domain.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		respondError(c, http.StatusBadRequest, "Invalid request body", err, h.production)
		return
	}

	order, err := h.payments.CreateOrder(ctx, req)
	if err != nil {
		span.RecordError(err)
		logger.Error().Err(err).Int64("amount", req.Amount).Msg("Order creation failed")

		switch {
		case errors.Is(err, logicv1.ErrMinimumAmount):
			respondError(c, http.StatusBadRequest, "Minimum order amount is 100 paise (₹1)", err, h.production)
		case errors.Is(err, logicv1.ErrGatewayUnavailable):
			respondError(c, http.StatusBadGateway, genericErrorMessage, err, h.production)
		default:
			respondError(c, http.StatusInternalServerError, genericErrorMessage, err, h.production)
		}
		return
	}

	logger.Info().Int64("amount", req.Amount).Msg("Payment order created")
	respond(c, http.StatusCreated, order)
}

// VerifyPayment handles POST /payment/verify.
func (h *Handler) VerifyPayment(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	var req domain.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		respondError(c, http.StatusBadRequest, "Invalid request body", err, h.production)
		return
	}

	result, err := h.payments.VerifyPayment(ctx, req)
	if err != nil {
		span.RecordError(err)

		switch {
		case errors.Is(err, logicv1.ErrSignatureMismatch):
			logger.Warn().Err(err).Msg("Payment verification rejected")
			respondError(c, http.StatusBadRequest, "Payment verification failed", err, h.production)
		case errors.Is(err, logicv1.ErrOrderConfirmationFailed):
			// The payment went through; only the order record is missing.
			// Surface this explicitly so the shopper contacts support
			// instead of paying again.
			logger.Error().Err(err).Str("order_id", req.OrderID).Msg("Verified payment with unconfirmed order")
			respondError(c, http.StatusBadGateway,
				"Payment received but order confirmation failed. Please contact support with payment id "+req.RazorpayPaymentID+".",
				err, h.production)
		default:
			respondError(c, http.StatusInternalServerError, genericErrorMessage, err, h.production)
		}
		return
	}

	logger.Info().Str("order_id", req.OrderID).Msg("Payment verified")
	respond(c, http.StatusOK, result)
}

// TrackTime handles POST /track/time. Reports are best effort: the
// response is 202 once the payload parses, whatever the backend does.
func (h *Handler) TrackTime(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	var req domain.TrackTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		respondError(c, http.StatusBadRequest, "Invalid request body", err, h.production)
		return
	}

	h.tracking.TrackTime(ctx, req, bearerToken(c))
	respond(c, http.StatusAccepted, gin.H{"recorded": true})
}

// TrackVisit handles POST /track/visit.
func (h *Handler) TrackVisit(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	var req domain.TrackVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		respondError(c, http.StatusBadRequest, "Invalid request body", err, h.production)
		return
	}

	h.tracking.TrackVisit(ctx, req, bearerToken(c))
	respond(c, http.StatusAccepted, gin.H{"recorded": true})
}

// GoogleAuthURL handles GET /auth/google/url?redirect_to=/path.
func (h *Handler) GoogleAuthURL(c *gin.Context) {
	_, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	respond(c, http.StatusOK, gin.H{
		"url": h.google.BuildAuthURL(c.Query("redirect_to")),
	})
}

// GoogleCallback handles GET /auth/google/callback: hands the
// authorization code to the commerce backend (which owns auth), then
// sends the browser back to where the login started.
func (h *Handler) GoogleCallback(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	code := c.Query("code")
	if code == "" {
		respondError(c, http.StatusBadRequest, "Missing authorization code", nil, h.production)
		return
	}

	state := oauth.DecodeState(c.Query("state"))
	redirectTo := state["redirect_to"]
	if redirectTo == "" || !strings.HasPrefix(redirectTo, "/") {
		redirectTo = "/"
	}

	if _, err := h.commerce.Post(ctx, "/auth/google", gin.H{"code": code}); err != nil {
		span.RecordError(err)
		zerolog.Ctx(ctx).Error().Err(err).Msg("Google code exchange failed")
		respondError(c, http.StatusBadGateway, "Login failed. Please try again.", err, h.production)
		return
	}

	c.Redirect(http.StatusFound, h.appOrigin+redirectTo)
}
