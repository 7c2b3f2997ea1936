package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Earning statuses. "approved" means reserved by an active payout request.
const (
	EarningStatusPending   = "pending"
	EarningStatusApproved  = "approved"
	EarningStatusPaid      = "paid"
	EarningStatusCancelled = "cancelled"
)

const (
	EarningTypeInitial   = "initial"
	EarningTypeRecurring = "recurring"
)

const (
	TransactionTypeSubscription   = "subscription"
	TransactionTypeCoursePurchase = "course_purchase"
	TransactionTypeUpgrade        = "upgrade"
)

// Earning is one ledger row: commission owed to a referrer for a single
// upstream transaction. Rows are immutable except for status; the unique
// transactionId index is the idempotency guard against duplicate delivery.
type Earning struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReferrerID      primitive.ObjectID `bson:"referrerId" json:"referrerId"`
	ReferredUserID  primitive.ObjectID `bson:"referredUserId" json:"referredUserId"`
	TransactionID   string             `bson:"transactionId" json:"transactionId"`
	TransactionType string             `bson:"transactionType" json:"transactionType"`
	EarningType     string             `bson:"earningType" json:"earningType"`
	GrossAmount     float64            `bson:"grossAmount" json:"grossAmount"`
	CommissionRate  float64            `bson:"commissionRate" json:"commissionRate"`
	EarningAmount   float64            `bson:"earningAmount" json:"earningAmount"`
	Currency        string             `bson:"currency" json:"currency"`
	Status          string             `bson:"status" json:"status"`
	EligibleAt      time.Time          `bson:"eligibleAt" json:"eligibleAt"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// EarningSummary is the aggregated view of a referrer's ledger used by the
// stats endpoints.
type EarningSummary struct {
	TotalAmount     float64 `json:"totalAmount"`
	PendingAmount   float64 `json:"pendingAmount"`
	ApprovedAmount  float64 `json:"approvedAmount"`
	PaidAmount      float64 `json:"paidAmount"`
	EligibleAmount  float64 `json:"eligibleAmount"`
	ThisMonthAmount float64 `json:"thisMonthAmount"`
	ActiveReferrals int64   `json:"activeReferrals"`
}
