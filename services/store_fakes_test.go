package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillforge/referral_backend/models"
)

// memStore is an in-memory implementation of all store interfaces, with the
// same uniqueness and conditional-write semantics as the mongo repositories.
type memStore struct {
	mu        sync.Mutex
	links     []*models.ReferralLink
	referrals []*models.Referral
	settings  []*models.CommissionSettings
	earnings  []*models.Earning
	payouts   []*models.PayoutRequest

	// failLinkInserts makes the next n link inserts fail with ErrDuplicate,
	// to exercise the code-collision retry path.
	failLinkInserts int
}

func newMemStore() *memStore {
	return &memStore{}
}

// --- LinkStore ---

func (m *memStore) Insert(ctx context.Context, link *models.ReferralLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failLinkInserts > 0 {
		m.failLinkInserts--
		return ErrDuplicate
	}
	for _, l := range m.links {
		if l.Code == link.Code || l.ReferrerID == link.ReferrerID {
			return ErrDuplicate
		}
	}
	cp := *link
	m.links = append(m.links, &cp)
	return nil
}

func (m *memStore) FindByReferrer(ctx context.Context, referrerID primitive.ObjectID) (*models.ReferralLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.links {
		if l.ReferrerID == referrerID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) FindByCode(ctx context.Context, code string) (*models.ReferralLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.links {
		if l.Code == code {
			cp := *l
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) IncrementClicks(ctx context.Context, code string, at time.Time) error {
	return m.increment(code, true, at)
}

func (m *memStore) IncrementConversions(ctx context.Context, code string, at time.Time) error {
	return m.increment(code, false, at)
}

func (m *memStore) increment(code string, clicks bool, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.links {
		if l.Code == code {
			if clicks {
				l.Clicks++
			} else {
				l.Conversions++
			}
			l.LastUsedAt = &at
			l.UpdatedAt = at
			return nil
		}
	}
	return ErrNotFound
}

// --- ReferralStore ---

func (m *memStore) insertReferral(ref *models.Referral) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.referrals {
		if r.ReferredUserID == ref.ReferredUserID {
			return ErrDuplicate
		}
	}
	cp := *ref
	m.referrals = append(m.referrals, &cp)
	return nil
}

func (m *memStore) FindByReferredUser(ctx context.Context, referredUserID primitive.ObjectID) (*models.Referral, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.referrals {
		if r.ReferredUserID == referredUserID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) CountByReferrer(ctx context.Context, referrerID primitive.ObjectID, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, r := range m.referrals {
		if r.ReferrerID == referrerID && (since.IsZero() || !r.CreatedAt.Before(since)) {
			count++
		}
	}
	return count, nil
}

// referralStore adapts memStore's referral methods to the ReferralStore
// interface (Insert collides with LinkStore's otherwise).
type referralStore struct{ *memStore }

func (s referralStore) Insert(ctx context.Context, ref *models.Referral) error {
	return s.insertReferral(ref)
}

// --- SettingsStore ---

type settingsStore struct{ *memStore }

func (s settingsStore) Insert(ctx context.Context, cs *models.CommissionSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.memStore.settings {
		if existing.ReferrerID == cs.ReferrerID {
			return ErrDuplicate
		}
	}
	cp := *cs
	s.memStore.settings = append(s.memStore.settings, &cp)
	return nil
}

func (s settingsStore) FindByReferrer(ctx context.Context, referrerID primitive.ObjectID) (*models.CommissionSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cs := range s.memStore.settings {
		if cs.ReferrerID == referrerID {
			cp := *cs
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s settingsStore) Update(ctx context.Context, cs *models.CommissionSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.memStore.settings {
		if existing.ID == cs.ID {
			cp := *cs
			s.memStore.settings[i] = &cp
			return nil
		}
	}
	return ErrNotFound
}

func (s settingsStore) List(ctx context.Context, class, sortBy string, page, limit int64) ([]models.CommissionSettings, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.CommissionSettings
	for _, cs := range s.memStore.settings {
		if class == "" || cs.ReferrerClass == class {
			matched = append(matched, *cs)
		}
	}
	switch sortBy {
	case "initialRate":
		sort.Slice(matched, func(i, j int) bool { return matched[i].InitialRate > matched[j].InitialRate })
	case "recurringRate":
		sort.Slice(matched, func(i, j int) bool { return matched[i].RecurringRate > matched[j].RecurringRate })
	case "class":
		sort.Slice(matched, func(i, j int) bool { return matched[i].ReferrerClass < matched[j].ReferrerClass })
	default:
		sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	}
	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= total {
		return nil, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s settingsStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.memStore.settings)), nil
}

// --- EarningStore ---

type earningStore struct{ *memStore }

func (s earningStore) Insert(ctx context.Context, e *models.Earning) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.memStore.earnings {
		if existing.TransactionID == e.TransactionID {
			return ErrDuplicate
		}
	}
	cp := *e
	s.memStore.earnings = append(s.memStore.earnings, &cp)
	return nil
}

func (s earningStore) FindByTransactionID(ctx context.Context, transactionID string) (*models.Earning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.memStore.earnings {
		if e.TransactionID == transactionID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s earningStore) CountByPair(ctx context.Context, referrerID, referredUserID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, e := range s.memStore.earnings {
		if e.ReferrerID == referrerID && e.ReferredUserID == referredUserID {
			count++
		}
	}
	return count, nil
}

func (s earningStore) FindEligible(ctx context.Context, referrerID primitive.ObjectID, asOf time.Time) ([]models.Earning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var eligible []models.Earning
	for _, e := range s.memStore.earnings {
		if e.ReferrerID == referrerID && e.Status == models.EarningStatusPending && !e.EligibleAt.After(asOf) {
			eligible = append(eligible, *e)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].CreatedAt.Before(eligible[j].CreatedAt)
	})
	return eligible, nil
}

func (s earningStore) Reserve(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.memStore.earnings {
		if e.ID == id {
			if e.Status != models.EarningStatusPending {
				return false, nil
			}
			e.Status = models.EarningStatusApproved
			e.UpdatedAt = at
			return true, nil
		}
	}
	return false, nil
}

func (s earningStore) Release(ctx context.Context, ids []primitive.ObjectID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked(ids, at)
	return nil
}

func (s *earningStore) releaseLocked(ids []primitive.ObjectID, at time.Time) {
	for _, id := range ids {
		for _, e := range s.memStore.earnings {
			if e.ID == id && e.Status == models.EarningStatusApproved {
				e.Status = models.EarningStatusPending
				e.UpdatedAt = at
			}
		}
	}
}

func (s earningStore) FindByReferrer(ctx context.Context, referrerID primitive.ObjectID, status string, page, limit int64) ([]models.Earning, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.Earning
	for _, e := range s.memStore.earnings {
		if e.ReferrerID == referrerID && (status == "" || e.Status == status) {
			matched = append(matched, *e)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= total {
		return nil, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s earningStore) SummaryByReferrer(ctx context.Context, referrerID primitive.ObjectID, asOf time.Time) (models.EarningSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var summary models.EarningSummary
	monthStart := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, asOf.Location())
	active := map[primitive.ObjectID]bool{}
	for _, e := range s.memStore.earnings {
		if e.ReferrerID != referrerID {
			continue
		}
		summary.TotalAmount += e.EarningAmount
		switch e.Status {
		case models.EarningStatusPending:
			summary.PendingAmount += e.EarningAmount
			if !e.EligibleAt.After(asOf) {
				summary.EligibleAmount += e.EarningAmount
			}
		case models.EarningStatusApproved:
			summary.ApprovedAmount += e.EarningAmount
		case models.EarningStatusPaid:
			summary.PaidAmount += e.EarningAmount
		}
		if !e.CreatedAt.Before(monthStart) {
			summary.ThisMonthAmount += e.EarningAmount
		}
		active[e.ReferredUserID] = true
	}
	summary.ActiveReferrals = int64(len(active))
	return summary, nil
}

func (s earningStore) GlobalSummary(ctx context.Context) (models.EarningSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var summary models.EarningSummary
	for _, e := range s.memStore.earnings {
		summary.TotalAmount += e.EarningAmount
		switch e.Status {
		case models.EarningStatusPending:
			summary.PendingAmount += e.EarningAmount
		case models.EarningStatusApproved:
			summary.ApprovedAmount += e.EarningAmount
		case models.EarningStatusPaid:
			summary.PaidAmount += e.EarningAmount
		}
	}
	return summary, nil
}

// --- PayoutStore ---

type payoutStore struct{ *memStore }

func (s payoutStore) Insert(ctx context.Context, p *models.PayoutRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.memStore.payouts = append(s.memStore.payouts, &cp)
	return nil
}

func (s payoutStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.PayoutRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.memStore.payouts {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s payoutStore) FindByReferrer(ctx context.Context, referrerID primitive.ObjectID, page, limit int64) ([]models.PayoutRequest, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.PayoutRequest
	for _, p := range s.memStore.payouts {
		if p.ReferrerID == referrerID {
			matched = append(matched, *p)
		}
	}
	return pagePayouts(matched, page, limit)
}

func (s payoutStore) FindByStatus(ctx context.Context, status string, page, limit int64) ([]models.PayoutRequest, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.PayoutRequest
	for _, p := range s.memStore.payouts {
		if status == "" || p.Status == status {
			matched = append(matched, *p)
		}
	}
	return pagePayouts(matched, page, limit)
}

func pagePayouts(matched []models.PayoutRequest, page, limit int64) ([]models.PayoutRequest, int64, error) {
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= total {
		return nil, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// Resolve applies the payout and earning updates under one lock, mirroring
// the transactional mongo implementation.
func (s payoutStore) Resolve(ctx context.Context, payoutID primitive.ObjectID, from, to string,
	earningIDs []primitive.ObjectID, earningTo string,
	adminID primitive.ObjectID, note string, at time.Time) error {

	s.mu.Lock()
	defer s.mu.Unlock()

	var payout *models.PayoutRequest
	for _, p := range s.memStore.payouts {
		if p.ID == payoutID {
			payout = p
			break
		}
	}
	if payout == nil || payout.Status != from {
		return ErrInvalidTransition
	}

	payout.Status = to
	payout.AdminNote = note
	payout.ProcessedAt = &at
	payout.ProcessedBy = &adminID
	payout.UpdatedAt = at

	if earningTo != "" {
		for _, id := range earningIDs {
			for _, e := range s.memStore.earnings {
				if e.ID == id && e.Status == models.EarningStatusApproved {
					e.Status = earningTo
					e.UpdatedAt = at
				}
			}
		}
	}
	return nil
}

func (s payoutStore) TotalsByStatus(ctx context.Context, status string) (models.PayoutTotals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var totals models.PayoutTotals
	for _, p := range s.memStore.payouts {
		if p.Status == status {
			totals.Count++
			totals.Amount += p.RequestedAmount
		}
	}
	return totals, nil
}
