package services

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillforge/referral_backend/models"
	"github.com/skillforge/referral_backend/utils"
)

// DefaultMaturationWindow is how long an earning stays immature before it can
// be reserved for payout, guarding against chargebacks and refunds.
const DefaultMaturationWindow = 30 * 24 * time.Hour

// Credit outcomes. Duplicate, skipped and no-referral are successes, not
// errors: upstream delivery is at-least-once and most purchasers were never
// referred.
const (
	OutcomeCredited   = "credited"
	OutcomeDuplicate  = "duplicate"
	OutcomeSkipped    = "skipped"
	OutcomeNoReferral = "no_referral"
)

// CreditResult reports what CreditEarning did. Earning is set for credited
// and duplicate outcomes.
type CreditResult struct {
	Outcome string          `json:"outcome"`
	Earning *models.Earning `json:"earning,omitempty"`
}

// EarningService is the commission ledger. It credits earnings from upstream
// purchase events, exactly once per transaction id.
type EarningService struct {
	earnings   EarningStore
	settings   SettingsStore
	referrals  ReferralStore
	maturation time.Duration
	now        func() time.Time
}

func NewEarningService(earnings EarningStore, settings SettingsStore, referrals ReferralStore, maturation time.Duration) *EarningService {
	if maturation <= 0 {
		maturation = DefaultMaturationWindow
	}
	return &EarningService{
		earnings:   earnings,
		settings:   settings,
		referrals:  referrals,
		maturation: maturation,
		now:        time.Now,
	}
}

// CreditForPurchase resolves the purchasing user's referrer from the referral
// attribution and credits the earning. Purchases by non-referred users return
// OutcomeNoReferral.
func (s *EarningService) CreditForPurchase(ctx context.Context, referredUserID primitive.ObjectID, transactionID, transactionType string, grossAmount float64, currency string) (*CreditResult, error) {
	referral, err := s.referrals.FindByReferredUser(ctx, referredUserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &CreditResult{Outcome: OutcomeNoReferral}, nil
		}
		return nil, err
	}
	return s.CreditEarning(ctx, referral.ReferrerID, referredUserID, transactionID, transactionType, grossAmount, currency)
}

// CreditEarning records commission for one upstream transaction. For a fixed
// transactionId exactly one earning (or explicit skip) is ever produced,
// regardless of how many times the event is delivered.
func (s *EarningService) CreditEarning(ctx context.Context, referrerID, referredUserID primitive.ObjectID, transactionID, transactionType string, grossAmount float64, currency string) (*CreditResult, error) {
	if transactionID == "" {
		return nil, validationf("transactionId is required")
	}
	if grossAmount < 0 {
		return nil, validationf("grossAmount must not be negative")
	}

	if existing, err := s.earnings.FindByTransactionID(ctx, transactionID); err == nil {
		return &CreditResult{Outcome: OutcomeDuplicate, Earning: existing}, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	settings, err := s.settings.FindByReferrer(ctx, referrerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &CreditResult{Outcome: OutcomeNoReferral}, nil
		}
		return nil, err
	}
	if !settings.Active {
		return &CreditResult{Outcome: OutcomeNoReferral}, nil
	}

	earningType := models.EarningTypeInitial
	prior, err := s.earnings.CountByPair(ctx, referrerID, referredUserID)
	if err != nil {
		return nil, err
	}
	if prior > 0 {
		earningType = models.EarningTypeRecurring
	}

	if earningType == models.EarningTypeRecurring && settings.PaymentModel == models.PaymentModelOneTime {
		// Commission was fully paid on the initial transaction.
		return &CreditResult{Outcome: OutcomeSkipped}, nil
	}

	rate := settings.InitialRate
	if earningType == models.EarningTypeRecurring {
		rate = settings.RecurringRate
	}

	now := s.now()
	earning := &models.Earning{
		ID:              primitive.NewObjectID(),
		ReferrerID:      referrerID,
		ReferredUserID:  referredUserID,
		TransactionID:   transactionID,
		TransactionType: transactionType,
		EarningType:     earningType,
		GrossAmount:     grossAmount,
		CommissionRate:  rate,
		EarningAmount:   utils.CommissionAmount(grossAmount, rate, currency),
		Currency:        currency,
		Status:          models.EarningStatusPending,
		EligibleAt:      now.Add(s.maturation),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.earnings.Insert(ctx, earning); err != nil {
		if errors.Is(err, ErrDuplicate) {
			// Concurrent delivery of the same transaction won the insert
			// race; return its row to preserve the idempotency contract.
			existing, ferr := s.earnings.FindByTransactionID(ctx, transactionID)
			if ferr != nil {
				return nil, ferr
			}
			return &CreditResult{Outcome: OutcomeDuplicate, Earning: existing}, nil
		}
		return nil, err
	}

	log.Printf("Credited %s earning %.2f %s to referrer %s (txn %s)",
		earningType, earning.EarningAmount, currency, referrerID.Hex(), transactionID)
	return &CreditResult{Outcome: OutcomeCredited, Earning: earning}, nil
}

// ListEarnings pages through a referrer's ledger, optionally filtered by
// status.
func (s *EarningService) ListEarnings(ctx context.Context, referrerID primitive.ObjectID, status string, page, limit int64) ([]models.Earning, int64, error) {
	if status != "" {
		switch status {
		case models.EarningStatusPending, models.EarningStatusApproved,
			models.EarningStatusPaid, models.EarningStatusCancelled:
		default:
			return nil, 0, validationf("unknown earning status: %s", status)
		}
	}
	page, limit = normalizePage(page, limit)
	return s.earnings.FindByReferrer(ctx, referrerID, status, page, limit)
}

// normalizePage clamps paging parameters to sane bounds.
func normalizePage(page, limit int64) (int64, int64) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
