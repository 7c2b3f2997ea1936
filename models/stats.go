package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// ReferralStats is the referrer-facing dashboard rollup. ActiveReferrals
// counts referred users with at least one recorded earning; ConversionRate is
// ActiveReferrals over TotalReferrals as a percentage.
type ReferralStats struct {
	ReferralCode       string  `json:"referralCode"`
	TotalReferrals     int64   `json:"totalReferrals"`
	ActiveReferrals    int64   `json:"activeReferrals"`
	TotalEarnings      float64 `json:"totalEarnings"`
	PendingEarnings    float64 `json:"pendingEarnings"`
	PaidEarnings       float64 `json:"paidEarnings"`
	EligibleEarnings   float64 `json:"eligibleEarnings"`
	ConversionRate     float64 `json:"conversionRate"`
	ThisMonthReferrals int64   `json:"thisMonthReferrals"`
	ThisMonthEarnings  float64 `json:"thisMonthEarnings"`
}

// PlatformOverview is the admin dashboard rollup across all referrers.
type PlatformOverview struct {
	TotalReferrers  int64        `json:"totalReferrers"`
	TotalEarnings   float64      `json:"totalEarnings"`
	PendingEarnings float64      `json:"pendingEarnings"`
	PaidEarnings    float64      `json:"paidEarnings"`
	PendingPayouts  PayoutTotals `json:"pendingPayouts"`
	PaidPayouts     PayoutTotals `json:"paidPayouts"`
}

// ReferrerPerformance is one row of the admin per-referrer listing.
type ReferrerPerformance struct {
	ReferrerID      primitive.ObjectID `json:"referrerId"`
	ReferrerClass   string             `json:"referrerClass"`
	Active          bool               `json:"active"`
	CustomRates     bool               `json:"customRates"`
	InitialRate     float64            `json:"initialRate"`
	RecurringRate   float64            `json:"recurringRate"`
	TotalReferrals  int64              `json:"totalReferrals"`
	ActiveReferrals int64              `json:"activeReferrals"`
	TotalEarnings   float64            `json:"totalEarnings"`
	PendingEarnings float64            `json:"pendingEarnings"`
	PaidEarnings    float64            `json:"paidEarnings"`
}
