package models

// TransactionRequest is the upstream purchase/subscription webhook payload.
// TransactionID must be stable across upstream retries; delivery is
// at-least-once.
type TransactionRequest struct {
	UserID          string  `json:"userId" validate:"required"`
	TransactionID   string  `json:"transactionId" validate:"required"`
	TransactionType string  `json:"transactionType" validate:"required,oneof=subscription course_purchase upgrade"`
	GrossAmount     float64 `json:"grossAmount" validate:"gte=0"`
	Currency        string  `json:"currency" validate:"required,len=3"`
}

type TrackClickRequest struct {
	Code string `json:"code" validate:"required"`
}

type RecordSignupRequest struct {
	UserID        string `json:"userId" validate:"required"`
	Code          string `json:"code" validate:"required"`
	ReferrerClass string `json:"referrerClass,omitempty" validate:"omitempty,oneof=normal subscribed"`
}

type PayoutRequestBody struct {
	Amount         float64           `json:"amount" validate:"required,gt=0"`
	Currency       string            `json:"currency" validate:"required,len=3"`
	PaymentMethod  string            `json:"paymentMethod" validate:"required,oneof=paypal bank_transfer whish"`
	PaymentDetails map[string]string `json:"paymentDetails,omitempty"`
}

// ProcessPayoutBody carries an admin decision on a payout request.
type ProcessPayoutBody struct {
	Status    string `json:"status" validate:"required,oneof=approved rejected paid cancelled"`
	AdminNote string `json:"adminNote,omitempty"`
}

// UpdateCommissionSettingsBody uses pointers so the handler can tell "field
// absent" apart from a zero value.
type UpdateCommissionSettingsBody struct {
	InitialRate   *float64 `json:"initialRate,omitempty" validate:"omitempty,gte=0,lte=100"`
	RecurringRate *float64 `json:"recurringRate,omitempty" validate:"omitempty,gte=0,lte=100"`
	PaymentModel  *string  `json:"paymentModel,omitempty" validate:"omitempty,oneof=recurring one-time"`
	Active        *bool    `json:"active,omitempty"`
}
