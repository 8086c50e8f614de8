package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jeet-12/pashupatinath-storefront/internal/core/cache"
	"github.com/Jeet-12/pashupatinath-storefront/internal/core/commerce"
	"github.com/Jeet-12/pashupatinath-storefront/internal/core/oauth"
	"github.com/Jeet-12/pashupatinath-storefront/internal/core/repository"
	"github.com/Jeet-12/pashupatinath-storefront/internal/core/token"
	logicv1 "github.com/Jeet-12/pashupatinath-storefront/internal/logic/v1"
)

type stubGateway struct {
	calls int
}

func (g *stubGateway) CreateOrder(ctx context.Context, data map[string]any) (map[string]any, error) {
	g.calls++
	return map[string]any{"id": "order_abc", "status": "created"}, nil
}

type failingGateway struct{}

func (failingGateway) CreateOrder(context.Context, map[string]any) (map[string]any, error) {
	return nil, errors.New("gateway unreachable")
}

func newTestRouter(t *testing.T, backendURL string, gateway logicv1.Gateway, production bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	client := commerce.New(backendURL, time.Second)
	codec := token.NewCodec("test-secret")
	repo := repository.NewMemoryGuestSessionRepository()

	sessions := logicv1.NewSessionService(repo, codec, 30*24*time.Hour)
	catalog := logicv1.NewCatalogService(client, cache.New[json.RawMessage](), 5*time.Minute)
	payments := logicv1.NewPaymentService(gateway, client, "rzp_test_secret")
	tracking := logicv1.NewTrackingService(client, "pashupatinath")
	google := oauth.NewGoogle("client-123", "secret", "https://shop.example.com")

	h := NewHandler(sessions, catalog, payments, tracking, google, client, "https://shop.example.com", production)

	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doJSON(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSessionEndpointRoundTrip(t *testing.T) {
	r := newTestRouter(t, "http://backend.invalid", &stubGateway{}, false)

	w := doJSON(r, http.MethodPost, "/api/v1/session", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeEnvelope(t, w)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	guestID := data["guest_id"].(string)
	tok := data["guest_token"].(string)
	assert.True(t, strings.HasPrefix(guestID, "guest_"))
	require.NotEmpty(t, tok)

	// Same bearer token resolves to the same session.
	w = doJSON(r, http.MethodPost, "/api/v1/session", "", map[string]string{
		"Authorization": "Bearer " + tok,
	})
	require.Equal(t, http.StatusOK, w.Code)
	data = decodeEnvelope(t, w)["data"].(map[string]any)
	assert.Equal(t, guestID, data["guest_id"])
	assert.Equal(t, tok, data["guest_token"])
}

func TestUpdateAndClearSession(t *testing.T) {
	r := newTestRouter(t, "http://backend.invalid", &stubGateway{}, false)

	created := decodeEnvelope(t, doJSON(r, http.MethodPost, "/api/v1/session", "", nil))
	tok := created["data"].(map[string]any)["guest_token"].(string)
	auth := map[string]string{"Authorization": "Bearer " + tok}

	w := doJSON(r, http.MethodPatch, "/api/v1/session",
		`{"email":"devotee@example.com","cart_items":[{"product_id":"rudraksha-108","quantity":2,"price":499}]}`, auth)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeEnvelope(t, w)["data"].(map[string]any)
	assert.Equal(t, "devotee@example.com", data["email"])
	items := data["cart_items"].([]any)
	require.Len(t, items, 1)

	w = doJSON(r, http.MethodDelete, "/api/v1/session", "", auth)
	require.Equal(t, http.StatusOK, w.Code)

	// Clearing again is fine.
	w = doJSON(r, http.MethodDelete, "/api/v1/session", "", auth)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestGetSessionToken(t *testing.T) {
	r := newTestRouter(t, "http://backend.invalid", &stubGateway{}, false)

	w := doJSON(r, http.MethodGet, "/api/v1/session/token", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeEnvelope(t, w)["data"].(map[string]any)
	assert.NotEmpty(t, data["guest_id"])
	assert.NotEmpty(t, data["token"])
}

func TestCreateOrderBelowMinimum(t *testing.T) {
	gw := &stubGateway{}
	r := newTestRouter(t, "http://backend.invalid", gw, false)

	w := doJSON(r, http.MethodPost, "/api/v1/payment/orders", `{"amount":50,"currency":"INR"}`, nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "Minimum order amount")
	assert.Zero(t, gw.calls)
}

func TestCreateOrderAtMinimum(t *testing.T) {
	gw := &stubGateway{}
	r := newTestRouter(t, "http://backend.invalid", gw, false)

	w := doJSON(r, http.MethodPost, "/api/v1/payment/orders", `{"amount":100,"currency":"INR"}`, nil)

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, 1, gw.calls)
}

func TestCreateOrderMissingAmount(t *testing.T) {
	gw := &stubGateway{}
	r := newTestRouter(t, "http://backend.invalid", gw, false)

	w := doJSON(r, http.MethodPost, "/api/v1/payment/orders", `{"currency":"INR"}`, nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, gw.calls)
}

func TestCreateOrderGatewayDown(t *testing.T) {
	r := newTestRouter(t, "http://backend.invalid", failingGateway{}, false)

	w := doJSON(r, http.MethodPost, "/api/v1/payment/orders", `{"amount":100}`, nil)
	require.Equal(t, http.StatusBadGateway, w.Code)
}

func TestVerifyPaymentTamperedSignature(t *testing.T) {
	var confirmed bool
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		confirmed = true
	}))
	defer backend.Close()

	r := newTestRouter(t, backend.URL, &stubGateway{}, false)

	w := doJSON(r, http.MethodPost, "/api/v1/payment/verify",
		`{"razorpay_order_id":"order_abc","razorpay_payment_id":"pay_xyz","razorpay_signature":"deadbeef","order_id":"ord_1"}`, nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeEnvelope(t, w)
	assert.Equal(t, false, body["success"])
	assert.False(t, confirmed, "confirmation must not run for a tampered signature")
}

func TestVerifyPaymentMissingFields(t *testing.T) {
	r := newTestRouter(t, "http://backend.invalid", &stubGateway{}, false)

	w := doJSON(r, http.MethodPost, "/api/v1/payment/verify", `{"razorpay_order_id":"order_abc"}`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalogUpstreamFailureIsGeneric(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"success":false,"message":"catalog exploded"}`))
	}))
	defer backend.Close()

	// Production: the message stays generic with no error detail.
	r := newTestRouter(t, backend.URL, &stubGateway{}, true)

	w := doJSON(r, http.MethodGet, "/api/v1/catalog/products", "", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	body := decodeEnvelope(t, w)
	assert.Equal(t, false, body["success"])
	assert.NotContains(t, body["message"], "exploded")
	assert.NotContains(t, body, "error")
}

func TestCatalogUpstreamFailureShowsDetailInDev(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"success":false,"message":"catalog exploded"}`))
	}))
	defer backend.Close()

	r := newTestRouter(t, backend.URL, &stubGateway{}, false)

	w := doJSON(r, http.MethodGet, "/api/v1/catalog/products", "", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	body := decodeEnvelope(t, w)
	assert.Contains(t, body["error"], "catalog exploded")
}

func TestCatalogSuccess(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":[{"id":"p1","name":"Brass Shivling"}]}`))
	}))
	defer backend.Close()

	r := newTestRouter(t, backend.URL, &stubGateway{}, false)

	w := doJSON(r, http.MethodGet, "/api/v1/catalog/products?category=idols", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeEnvelope(t, w)
	assert.Equal(t, true, body["success"])
}

func TestTrackingAlwaysAccepted(t *testing.T) {
	// Backend unreachable: the storefront still answers 202.
	r := newTestRouter(t, "http://backend.invalid", &stubGateway{}, false)

	w := doJSON(r, http.MethodPost, "/api/v1/track/visit", `{"page_url":"/"}`, nil)
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = doJSON(r, http.MethodPost, "/api/v1/track/time",
		`{"url":"/products/rudraksha-108","timeSpent":12,"pageTitle":"Rudraksha"}`, nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestTrackingRejectsMalformedBody(t *testing.T) {
	r := newTestRouter(t, "http://backend.invalid", &stubGateway{}, false)

	w := doJSON(r, http.MethodPost, "/api/v1/track/visit", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGoogleAuthURL(t *testing.T) {
	r := newTestRouter(t, "http://backend.invalid", &stubGateway{}, false)

	w := doJSON(r, http.MethodGet, "/api/v1/auth/google/url?redirect_to=/checkout", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeEnvelope(t, w)["data"].(map[string]any)
	u := data["url"].(string)
	assert.Contains(t, u, "client_id=client-123")
	assert.Contains(t, u, "access_type=offline")
	assert.Contains(t, u, "state=")
}

func TestGoogleCallbackMissingCode(t *testing.T) {
	r := newTestRouter(t, "http://backend.invalid", &stubGateway{}, false)

	w := doJSON(r, http.MethodGet, "/api/v1/auth/google/callback", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGoogleCallbackRedirects(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/google", r.URL.Path)
		w.Write([]byte(`{"success":true,"data":{"token":"account-token"}}`))
	}))
	defer backend.Close()

	r := newTestRouter(t, backend.URL, &stubGateway{}, false)

	state := oauth.NewGoogle("client-123", "secret", "https://shop.example.com").BuildAuthURL("/checkout")
	// Pull the state parameter out of a freshly built URL.
	idx := strings.Index(state, "state=")
	require.Greater(t, idx, 0)
	stateVal := state[idx+len("state="):]
	if amp := strings.Index(stateVal, "&"); amp >= 0 {
		stateVal = stateVal[:amp]
	}

	w := doJSON(r, http.MethodGet, "/api/v1/auth/google/callback?code=authcode&state="+stateVal, "", nil)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://shop.example.com/checkout", w.Header().Get("Location"))
}
