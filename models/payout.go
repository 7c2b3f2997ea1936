package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payout request statuses. pending -> approved|rejected,
// approved -> paid|cancelled; rejected/paid/cancelled are terminal.
const (
	PayoutStatusPending   = "pending"
	PayoutStatusApproved  = "approved"
	PayoutStatusRejected  = "rejected"
	PayoutStatusPaid      = "paid"
	PayoutStatusCancelled = "cancelled"
)

const (
	PaymentMethodPaypal       = "paypal"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodWhish        = "whish"
)

// PayoutRequest references the FIFO-reserved set of earnings that back a
// referrer's payout. ReservedAmount is the sum of the reserved earnings and
// is always >= RequestedAmount at creation.
type PayoutRequest struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	ReferrerID      primitive.ObjectID   `bson:"referrerId" json:"referrerId"`
	RequestedAmount float64              `bson:"requestedAmount" json:"requestedAmount"`
	ReservedAmount  float64              `bson:"reservedAmount" json:"reservedAmount"`
	Currency        string               `bson:"currency" json:"currency"`
	EarningIDs      []primitive.ObjectID `bson:"earningIds" json:"earningIds"`
	Status          string               `bson:"status" json:"status"`
	PaymentMethod   string               `bson:"paymentMethod" json:"paymentMethod"`
	PaymentDetails  map[string]string    `bson:"paymentDetails,omitempty" json:"paymentDetails,omitempty"`
	AdminNote       string               `bson:"adminNote,omitempty" json:"adminNote,omitempty"`
	ProcessedAt     *time.Time           `bson:"processedAt,omitempty" json:"processedAt,omitempty"`
	ProcessedBy     *primitive.ObjectID  `bson:"processedBy,omitempty" json:"processedBy,omitempty"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// PayoutTotals is a count/amount rollup over payout requests in one status.
type PayoutTotals struct {
	Count  int64   `json:"count"`
	Amount float64 `json:"amount"`
}
