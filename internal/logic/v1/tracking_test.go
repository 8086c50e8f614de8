package v1

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jeet-12/pashupatinath-storefront/internal/core/commerce"
	"github.com/Jeet-12/pashupatinath-storefront/internal/core/domain"
)

func TestTrackTimeForwardsPayloadAndBearer(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotBody map[string]any
	)
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))
		w.Write([]byte(`{"success":true,"data":{}}`))
	}))
	defer backend.Close()

	svc := NewTrackingService(commerce.New(backend.URL, time.Second), "pashupatinath")

	svc.TrackTime(context.Background(), domain.TrackTimeRequest{
		URL:       "/products/rudraksha-108",
		TimeSpent: 42.5,
		PageTitle: "Rudraksha Mala 108 Beads",
	}, "guest-token-1")

	assert.Equal(t, "/analytics/time", gotPath)
	assert.Equal(t, "Bearer guest-token-1", gotAuth)
	assert.Equal(t, "/products/rudraksha-108", gotBody["url"])
	assert.Equal(t, 42.5, gotBody["timeSpent"])
	assert.Equal(t, "Rudraksha Mala 108 Beads", gotBody["pageTitle"])
}

func TestTrackVisitDefaultsSite(t *testing.T) {
	var gotBody map[string]any
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))
		w.Write([]byte(`{"success":true,"data":{}}`))
	}))
	defer backend.Close()

	svc := NewTrackingService(commerce.New(backend.URL, time.Second), "pashupatinath")

	svc.TrackVisit(context.Background(), domain.TrackVisitRequest{PageURL: "/"}, "")

	assert.Equal(t, "/", gotBody["page_url"])
	assert.Equal(t, "pashupatinath", gotBody["site"])
}

func TestTrackingSwallowsBackendFailure(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer backend.Close()

	svc := NewTrackingService(commerce.New(backend.URL, time.Second), "pashupatinath")

	// Must not panic or surface anything.
	svc.TrackVisit(context.Background(), domain.TrackVisitRequest{PageURL: "/"}, "")
	svc.TrackTime(context.Background(), domain.TrackTimeRequest{URL: "/"}, "")
}
