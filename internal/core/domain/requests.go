package domain

// UpdateSessionRequest is the PATCH /session body.
type UpdateSessionRequest struct {
	Email     *string    `json:"email"`
	CartItems []CartItem `json:"cart_items"`
}

// CreateOrderRequest is the POST /payment/orders body. Amount is in
// paise; the gateway minimum is 100 (₹1).
type CreateOrderRequest struct {
	Amount       int64  `json:"amount" binding:"required"`
	Currency     string `json:"currency"`
	Receipt      string `json:"receipt"`
	AddressID    string `json:"address_id"`
	CouponCode   string `json:"coupon_code"`
	ReferralCode string `json:"referral_code"`
}

// VerifyPaymentRequest is the POST /payment/verify body. Field names
// follow the gateway's checkout callback payload.
type VerifyPaymentRequest struct {
	RazorpayOrderID   string         `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string         `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string         `json:"razorpay_signature" binding:"required"`
	OrderID           string         `json:"order_id"`
	OrderData         map[string]any `json:"order_data"`
}

// TrackTimeRequest reports dwell time for a page, in seconds.
type TrackTimeRequest struct {
	URL       string  `json:"url" binding:"required"`
	TimeSpent float64 `json:"timeSpent"`
	PageTitle string  `json:"pageTitle"`
}

// TrackVisitRequest reports a page visit.
type TrackVisitRequest struct {
	PageURL string `json:"page_url" binding:"required"`
	Site    string `json:"site"`
}
