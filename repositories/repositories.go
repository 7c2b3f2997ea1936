package repositories

import (
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/skillforge/referral_backend/services"
)

// Collection names used by the referral subsystem.
const (
	CollReferralLinks      = "referral_links"
	CollReferrals          = "referrals"
	CollCommissionSettings = "commission_settings"
	CollEarnings           = "earnings"
	CollPayoutRequests     = "payout_requests"
)

// findErr maps driver lookup errors to the service-level sentinels.
func findErr(err error) error {
	if err == mongo.ErrNoDocuments {
		return services.ErrNotFound
	}
	return err
}

// insertErr maps unique-index violations to the service-level sentinel.
func insertErr(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return services.ErrDuplicate
	}
	return err
}
