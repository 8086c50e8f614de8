// Package payment adapts the Razorpay gateway: order creation through
// the official SDK and checkout signature verification.
package payment

import (
	"context"

	razorpay "github.com/razorpay/razorpay-go"
)

// RazorpayGateway creates payment orders via the Razorpay Orders API.
type RazorpayGateway struct {
	client *razorpay.Client
}

// NewRazorpayGateway creates a gateway bound to the given API key pair.
func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{client: razorpay.NewClient(keyID, keySecret)}
}

// CreateOrder submits the order payload to the gateway and returns the
// created order object as-is. The SDK carries its own HTTP timeout; ctx
// is accepted for interface symmetry but cannot cancel the call.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, data map[string]any) (map[string]any, error) {
	return g.client.Order.Create(data, nil)
}
