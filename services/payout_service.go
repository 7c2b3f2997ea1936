package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillforge/referral_backend/models"
	"github.com/skillforge/referral_backend/utils"
)

// payoutTransitions is the administrative state machine over payout
// requests. Missing keys are terminal states.
var payoutTransitions = map[string][]string{
	models.PayoutStatusPending:  {models.PayoutStatusApproved, models.PayoutStatusRejected},
	models.PayoutStatusApproved: {models.PayoutStatusPaid, models.PayoutStatusCancelled},
}

// PayoutService reserves eligible earnings for payout requests and drives the
// administrative lifecycle over them.
type PayoutService struct {
	payouts  PayoutStore
	earnings EarningStore
	now      func() time.Time
	notify   bool
}

func NewPayoutService(payouts PayoutStore, earnings EarningStore) *PayoutService {
	return &PayoutService{payouts: payouts, earnings: earnings, now: time.Now, notify: true}
}

// RequestPayout reserves the oldest eligible earnings of the referrer until
// the requested amount is covered, then creates the payout request. Each
// earning is claimed with a status-guarded conditional write, so two
// concurrent requests can never both capture the same earning; an earning
// lost to a concurrent request is simply skipped and the walk continues.
func (s *PayoutService) RequestPayout(ctx context.Context, referrerID primitive.ObjectID, amount float64, currency, method string, details map[string]string) (*models.PayoutRequest, error) {
	if amount <= 0 {
		return nil, validationf("payout amount must be positive")
	}
	switch method {
	case models.PaymentMethodPaypal, models.PaymentMethodBankTransfer, models.PaymentMethodWhish:
	default:
		return nil, validationf("unknown payment method: %s", method)
	}

	now := s.now()
	eligible, err := s.earnings.FindEligible(ctx, referrerID, now)
	if err != nil {
		return nil, err
	}

	var eligibleTotal float64
	for _, e := range eligible {
		eligibleTotal += e.EarningAmount
	}
	if eligibleTotal < amount {
		return nil, &InsufficientFundsError{Requested: amount, Eligible: eligibleTotal}
	}

	var (
		reservedIDs    []primitive.ObjectID
		reservedAmount float64
	)
	for _, e := range eligible {
		if reservedAmount >= amount {
			break
		}
		ok, err := s.earnings.Reserve(ctx, e.ID, now)
		if err != nil {
			s.release(ctx, reservedIDs)
			return nil, err
		}
		if !ok {
			// Claimed by a concurrent payout request; move on to the next
			// eligible earning to compensate.
			continue
		}
		reservedIDs = append(reservedIDs, e.ID)
		reservedAmount += e.EarningAmount
	}

	if reservedAmount < amount {
		// Concurrent requests drained the pool mid-walk. No partial
		// reservation survives.
		s.release(ctx, reservedIDs)
		return nil, &InsufficientFundsError{Requested: amount, Eligible: s.eligibleTotal(ctx, referrerID)}
	}

	payout := &models.PayoutRequest{
		ID:              primitive.NewObjectID(),
		ReferrerID:      referrerID,
		RequestedAmount: amount,
		ReservedAmount:  reservedAmount,
		Currency:        currency,
		EarningIDs:      reservedIDs,
		Status:          models.PayoutStatusPending,
		PaymentMethod:   method,
		PaymentDetails:  details,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.payouts.Insert(ctx, payout); err != nil {
		s.release(ctx, reservedIDs)
		return nil, err
	}

	log.Printf("Payout request %s created for referrer %s: %.2f %s over %d earnings",
		payout.ID.Hex(), referrerID.Hex(), amount, currency, len(reservedIDs))
	if s.notify {
		go utils.NotifyAdminOfPayoutRequest(referrerID.Hex(), amount, currency, method)
	}
	return payout, nil
}

// ProcessPayout applies an admin decision. Terminal transitions propagate to
// the reserved earnings in the same atomic unit as the payout update: paid
// finalizes them, rejected/cancelled releases them back to the eligible pool.
func (s *PayoutService) ProcessPayout(ctx context.Context, payoutID, adminID primitive.ObjectID, newStatus, note string) (*models.PayoutRequest, error) {
	payout, err := s.payouts.FindByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, next := range payoutTransitions[payout.Status] {
		if next == newStatus {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, ErrInvalidTransition
	}

	var earningTo string
	switch newStatus {
	case models.PayoutStatusPaid:
		earningTo = models.EarningStatusPaid
	case models.PayoutStatusRejected, models.PayoutStatusCancelled:
		earningTo = models.EarningStatusPending
	}

	now := s.now()
	if err := s.payouts.Resolve(ctx, payout.ID, payout.Status, newStatus, payout.EarningIDs, earningTo, adminID, note, now); err != nil {
		return nil, err
	}

	payout.Status = newStatus
	payout.AdminNote = note
	payout.ProcessedAt = &now
	payout.ProcessedBy = &adminID
	payout.UpdatedAt = now

	log.Printf("Payout request %s marked %s by admin %s", payout.ID.Hex(), newStatus, adminID.Hex())
	if s.notify {
		go utils.NotifyAdminOfPayoutDecision(payout.ID.Hex(), newStatus, note)
	}
	return payout, nil
}

// ListByReferrer pages through a referrer's payout requests, newest first.
func (s *PayoutService) ListByReferrer(ctx context.Context, referrerID primitive.ObjectID, page, limit int64) ([]models.PayoutRequest, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.payouts.FindByReferrer(ctx, referrerID, page, limit)
}

// ListByStatus pages through payout requests platform-wide for the admin
// queue. An empty status lists everything.
func (s *PayoutService) ListByStatus(ctx context.Context, status string, page, limit int64) ([]models.PayoutRequest, int64, error) {
	if status != "" {
		switch status {
		case models.PayoutStatusPending, models.PayoutStatusApproved,
			models.PayoutStatusRejected, models.PayoutStatusPaid, models.PayoutStatusCancelled:
		default:
			return nil, 0, validationf("unknown payout status: %s", status)
		}
	}
	page, limit = normalizePage(page, limit)
	return s.payouts.FindByStatus(ctx, status, page, limit)
}

func (s *PayoutService) release(ctx context.Context, ids []primitive.ObjectID) {
	if len(ids) == 0 {
		return
	}
	if err := s.earnings.Release(ctx, ids, s.now()); err != nil {
		// The reservation is only recorded on the earnings themselves at
		// this point, so a failed release leaves them claimable by nobody.
		// Loud log; this needs operator attention.
		log.Printf("ERROR: failed to release %d reserved earnings: %v", len(ids), err)
	}
}

func (s *PayoutService) eligibleTotal(ctx context.Context, referrerID primitive.ObjectID) float64 {
	eligible, err := s.earnings.FindEligible(ctx, referrerID, s.now())
	if err != nil {
		return 0
	}
	var total float64
	for _, e := range eligible {
		total += e.EarningAmount
	}
	return total
}
