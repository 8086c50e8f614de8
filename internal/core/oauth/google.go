// Package oauth builds the Google authorization redirect used by the
// storefront login flow and round-trips the post-login return path
// through the OAuth state parameter.
package oauth

import (
	"encoding/base64"
	"encoding/json"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// callbackPath is fixed: the identity provider is configured with this
// exact redirect URI.
const callbackPath = "/auth/google/callback"

// Google constructs authorization URLs for the Google identity provider.
type Google struct {
	config *oauth2.Config
}

// NewGoogle creates a Google URL builder. appOrigin is the public origin
// of the storefront (scheme + host), used to derive the redirect URI.
func NewGoogle(clientID, clientSecret, appOrigin string) *Google {
	return &Google{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  appOrigin + callbackPath,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "profile", "email"},
		},
	}
}

// BuildAuthURL assembles the provider authorization URL: response type
// code, offline access, forced consent. When returnPath is non-empty it
// is carried through the state parameter so the callback can send the
// user back where they started.
func (g *Google) BuildAuthURL(returnPath string) string {
	opts := []oauth2.AuthCodeOption{
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
	}

	state := ""
	if returnPath != "" {
		state = encodeState(map[string]string{"redirect_to": returnPath})
	}
	return g.config.AuthCodeURL(state, opts...)
}

func encodeState(m map[string]string) string {
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeState reverses BuildAuthURL's state encoding. Any failure (bad
// base64, bad JSON) yields an empty map rather than an error: a broken
// state only costs the user their return path.
func DecodeState(state string) map[string]string {
	raw, err := base64.StdEncoding.DecodeString(state)
	if err != nil {
		return map[string]string{}
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return map[string]string{}
	}
	return m
}
