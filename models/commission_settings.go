package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Referrer classes and their default commission rates.
const (
	ReferrerClassNormal     = "normal"
	ReferrerClassSubscribed = "subscribed"
)

// Payment models. Under the one-time model only the initial transaction of a
// referred user earns commission.
const (
	PaymentModelRecurring = "recurring"
	PaymentModelOneTime   = "one-time"
)

// CommissionSettings holds the per-referrer commission configuration. Rates
// are percentages in [0,100]. Earnings snapshot the rate at credit time, so
// editing these never changes already-recorded earnings.
type CommissionSettings struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReferrerID    primitive.ObjectID `bson:"referrerId" json:"referrerId"`
	ReferrerClass string             `bson:"referrerClass" json:"referrerClass"`
	InitialRate   float64            `bson:"initialRate" json:"initialRate"`
	RecurringRate float64            `bson:"recurringRate" json:"recurringRate"`
	PaymentModel  string             `bson:"paymentModel" json:"paymentModel"`
	Active        bool               `bson:"active" json:"active"`
	CustomRates   bool               `bson:"customRates" json:"customRates"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
