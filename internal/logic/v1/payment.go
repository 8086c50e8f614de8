package v1

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Jeet-12/pashupatinath-storefront/internal/core/commerce"
	"github.com/Jeet-12/pashupatinath-storefront/internal/core/domain"
	"github.com/Jeet-12/pashupatinath-storefront/internal/core/payment"
	"github.com/Jeet-12/pashupatinath-storefront/middleware"
)

// MinOrderAmountPaise is the gateway's minimum order value (₹1).
const MinOrderAmountPaise = 100

// Gateway is the payment gateway contract used for order creation.
// internal/core/payment provides the Razorpay implementation.
type Gateway interface {
	CreateOrder(ctx context.Context, data map[string]any) (map[string]any, error)
}

// VerifyResult reports the outcome of a payment verification.
type VerifyResult struct {
	Verified       bool `json:"verified"`
	OrderConfirmed bool `json:"order_confirmed"`
}

// PaymentService validates and creates payment orders and verifies
// checkout callbacks.
type PaymentService struct {
	gateway   Gateway
	commerce  *commerce.Client
	keySecret string
}

// NewPaymentService creates a PaymentService. keySecret is the
// server-held gateway API secret used for signature verification.
func NewPaymentService(gateway Gateway, commerceClient *commerce.Client, keySecret string) *PaymentService {
	return &PaymentService{
		gateway:   gateway,
		commerce:  commerceClient,
		keySecret: keySecret,
	}
}

// CreateOrder validates the request and creates a gateway order.
// Amounts below MinOrderAmountPaise are rejected before any external
// call is made.
func (s *PaymentService) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (map[string]any, error) {
	ctx, span := middleware.StartSpan(ctx, "payment.create_order", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.Int64("order.amount", req.Amount),
	))
	defer span.End()

	if req.Amount < MinOrderAmountPaise {
		span.SetAttributes(attribute.Bool("order.created", false))
		return nil, fmt.Errorf("amount %d paise: %w", req.Amount, ErrMinimumAmount)
	}

	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}

	data := map[string]any{
		"amount":   req.Amount,
		"currency": currency,
	}
	if req.Receipt != "" {
		data["receipt"] = req.Receipt
	}

	notes := map[string]any{}
	if req.AddressID != "" {
		notes["address_id"] = req.AddressID
	}
	if req.CouponCode != "" {
		notes["coupon_code"] = req.CouponCode
	}
	if req.ReferralCode != "" {
		notes["referral_code"] = req.ReferralCode
	}
	if len(notes) > 0 {
		data["notes"] = notes
	}

	order, err := s.gateway.CreateOrder(ctx, data)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("create gateway order: %w: %w", ErrGatewayUnavailable, err)
	}

	span.SetAttributes(attribute.Bool("order.created", true))
	return order, nil
}

// VerifyPayment checks the checkout callback signature and, when an
// order id is supplied, asks the commerce backend to finalize the
// order. A finalize failure after a valid signature is the
// verified-but-unconfirmed state: it is returned as
// ErrOrderConfirmationFailed and is never retried here — money has
// moved, so the user must be told to contact support, not resubmitted.
func (s *PaymentService) VerifyPayment(ctx context.Context, req domain.VerifyPaymentRequest) (*VerifyResult, error) {
	ctx, span := middleware.StartSpan(ctx, "payment.verify", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("payment.order_id", req.RazorpayOrderID),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	if !payment.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature, s.keySecret) {
		span.SetAttributes(attribute.Bool("payment.verified", false))
		logger.Warn().
			Str("razorpay_order_id", req.RazorpayOrderID).
			Str("razorpay_payment_id", req.RazorpayPaymentID).
			Msg("Payment signature mismatch")
		return nil, fmt.Errorf("verify payment %s: %w", req.RazorpayPaymentID, ErrSignatureMismatch)
	}

	span.SetAttributes(attribute.Bool("payment.verified", true))

	if req.OrderID == "" {
		return &VerifyResult{Verified: true}, nil
	}

	body := map[string]any{
		"razorpay_order_id":   req.RazorpayOrderID,
		"razorpay_payment_id": req.RazorpayPaymentID,
	}
	if req.OrderData != nil {
		body["order_data"] = req.OrderData
	}

	if _, err := s.commerce.Post(ctx, "/orders/"+req.OrderID+"/confirm", body); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("order.confirmed", false))
		logger.Error().Err(err).
			Str("order_id", req.OrderID).
			Str("razorpay_payment_id", req.RazorpayPaymentID).
			Msg("Order confirmation failed after verified payment")
		return &VerifyResult{Verified: true},
			fmt.Errorf("confirm order %s: %w", req.OrderID, ErrOrderConfirmationFailed)
	}

	span.SetAttributes(attribute.Bool("order.confirmed", true))
	return &VerifyResult{Verified: true, OrderConfirmed: true}, nil
}
