package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillforge/referral_backend/models"
)

// Store interfaces the services operate against. The mongo implementations
// live in the repositories package; tests use in-memory fakes.

type LinkStore interface {
	Insert(ctx context.Context, link *models.ReferralLink) error
	FindByReferrer(ctx context.Context, referrerID primitive.ObjectID) (*models.ReferralLink, error)
	FindByCode(ctx context.Context, code string) (*models.ReferralLink, error)
	// IncrementClicks / IncrementConversions are atomic counter updates;
	// they return ErrNotFound when the code does not exist.
	IncrementClicks(ctx context.Context, code string, at time.Time) error
	IncrementConversions(ctx context.Context, code string, at time.Time) error
}

type ReferralStore interface {
	Insert(ctx context.Context, ref *models.Referral) error
	FindByReferredUser(ctx context.Context, referredUserID primitive.ObjectID) (*models.Referral, error)
	CountByReferrer(ctx context.Context, referrerID primitive.ObjectID, since time.Time) (int64, error)
}

type SettingsStore interface {
	Insert(ctx context.Context, s *models.CommissionSettings) error
	FindByReferrer(ctx context.Context, referrerID primitive.ObjectID) (*models.CommissionSettings, error)
	Update(ctx context.Context, s *models.CommissionSettings) error
	// List pages through settings, optionally filtered by referrer class and
	// sorted by one of the settings fields (createdAt descending by default).
	List(ctx context.Context, class, sortBy string, page, limit int64) ([]models.CommissionSettings, int64, error)
	Count(ctx context.Context) (int64, error)
}

type EarningStore interface {
	Insert(ctx context.Context, e *models.Earning) error
	FindByTransactionID(ctx context.Context, transactionID string) (*models.Earning, error)
	CountByPair(ctx context.Context, referrerID, referredUserID primitive.ObjectID) (int64, error)
	// FindEligible returns pending earnings with eligibleAt <= asOf, oldest
	// first.
	FindEligible(ctx context.Context, referrerID primitive.ObjectID, asOf time.Time) ([]models.Earning, error)
	// Reserve flips one earning pending -> approved with a status-guarded
	// conditional write. It reports false when another request already
	// claimed the earning.
	Reserve(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error)
	// Release flips earnings approved -> pending, returning them to the
	// eligible pool.
	Release(ctx context.Context, ids []primitive.ObjectID, at time.Time) error
	FindByReferrer(ctx context.Context, referrerID primitive.ObjectID, status string, page, limit int64) ([]models.Earning, int64, error)
	SummaryByReferrer(ctx context.Context, referrerID primitive.ObjectID, asOf time.Time) (models.EarningSummary, error)
	GlobalSummary(ctx context.Context) (models.EarningSummary, error)
}

type PayoutStore interface {
	Insert(ctx context.Context, p *models.PayoutRequest) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.PayoutRequest, error)
	FindByReferrer(ctx context.Context, referrerID primitive.ObjectID, page, limit int64) ([]models.PayoutRequest, int64, error)
	FindByStatus(ctx context.Context, status string, page, limit int64) ([]models.PayoutRequest, int64, error)
	// Resolve applies the payout status change and the earning status change
	// as one atomic unit. The payout update is guarded on `from`; when the
	// payout was concurrently moved out of `from`, Resolve returns
	// ErrInvalidTransition and nothing is written. earningTo may be empty
	// when the transition does not touch earnings (pending -> approved).
	Resolve(ctx context.Context, payoutID primitive.ObjectID, from, to string,
		earningIDs []primitive.ObjectID, earningTo string,
		adminID primitive.ObjectID, note string, at time.Time) error
	TotalsByStatus(ctx context.Context, status string) (models.PayoutTotals, error)
}
