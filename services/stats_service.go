package services

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillforge/referral_backend/models"
)

const (
	overviewCacheKey = "referral:overview"
	overviewCacheTTL = 60 * time.Second
)

// StatsService produces the read-only rollups for the referrer dashboard and
// the admin overview. The platform overview is cached in Redis for a short
// TTL; without Redis every call computes it directly.
type StatsService struct {
	links     LinkStore
	referrals ReferralStore
	settings  SettingsStore
	earnings  EarningStore
	payouts   PayoutStore
	redis     *redis.Client
	now       func() time.Time
}

func NewStatsService(links LinkStore, referrals ReferralStore, settings SettingsStore, earnings EarningStore, payouts PayoutStore, redisClient *redis.Client) *StatsService {
	return &StatsService{
		links:     links,
		referrals: referrals,
		settings:  settings,
		earnings:  earnings,
		payouts:   payouts,
		redis:     redisClient,
		now:       time.Now,
	}
}

// GetStats assembles the referrer-facing dashboard numbers. Active referrals
// are referred users with at least one recorded earning; the conversion rate
// is that count over total attributed signups.
func (s *StatsService) GetStats(ctx context.Context, referrerID primitive.ObjectID) (*models.ReferralStats, error) {
	now := s.now()

	var code string
	if link, err := s.links.FindByReferrer(ctx, referrerID); err == nil {
		code = link.Code
	}

	totalReferrals, err := s.referrals.CountByReferrer(ctx, referrerID, time.Time{})
	if err != nil {
		return nil, err
	}
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	thisMonthReferrals, err := s.referrals.CountByReferrer(ctx, referrerID, monthStart)
	if err != nil {
		return nil, err
	}

	summary, err := s.earnings.SummaryByReferrer(ctx, referrerID, now)
	if err != nil {
		return nil, err
	}

	var conversionRate float64
	if totalReferrals > 0 {
		conversionRate = math.Round(float64(summary.ActiveReferrals)/float64(totalReferrals)*10000) / 100
	}

	return &models.ReferralStats{
		ReferralCode:       code,
		TotalReferrals:     totalReferrals,
		ActiveReferrals:    summary.ActiveReferrals,
		TotalEarnings:      summary.TotalAmount,
		PendingEarnings:    summary.PendingAmount,
		PaidEarnings:       summary.PaidAmount,
		EligibleEarnings:   summary.EligibleAmount,
		ConversionRate:     conversionRate,
		ThisMonthReferrals: thisMonthReferrals,
		ThisMonthEarnings:  summary.ThisMonthAmount,
	}, nil
}

// GetOverview returns platform-wide totals for the admin dashboard, serving
// from the Redis cache when fresh.
func (s *StatsService) GetOverview(ctx context.Context) (*models.PlatformOverview, error) {
	if s.redis != nil {
		if raw, err := s.redis.Get(ctx, overviewCacheKey).Result(); err == nil {
			var cached models.PlatformOverview
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return &cached, nil
			}
		}
	}
	return s.RefreshOverview(ctx)
}

// RefreshOverview recomputes the platform overview and rewrites the cache.
// The periodic warmer in main calls this so admin dashboards rarely pay the
// aggregation cost.
func (s *StatsService) RefreshOverview(ctx context.Context) (*models.PlatformOverview, error) {
	totalReferrers, err := s.settings.Count(ctx)
	if err != nil {
		return nil, err
	}
	summary, err := s.earnings.GlobalSummary(ctx)
	if err != nil {
		return nil, err
	}
	pendingPayouts, err := s.payouts.TotalsByStatus(ctx, models.PayoutStatusPending)
	if err != nil {
		return nil, err
	}
	paidPayouts, err := s.payouts.TotalsByStatus(ctx, models.PayoutStatusPaid)
	if err != nil {
		return nil, err
	}

	overview := &models.PlatformOverview{
		TotalReferrers:  totalReferrers,
		TotalEarnings:   summary.TotalAmount,
		PendingEarnings: summary.PendingAmount,
		PaidEarnings:    summary.PaidAmount,
		PendingPayouts:  pendingPayouts,
		PaidPayouts:     paidPayouts,
	}

	if s.redis != nil {
		if raw, err := json.Marshal(overview); err == nil {
			if err := s.redis.Set(ctx, overviewCacheKey, raw, overviewCacheTTL).Err(); err != nil {
				log.Printf("Failed to cache referral overview: %v", err)
			}
		}
	}
	return overview, nil
}

// ListReferrers returns aggregated per-referrer performance rows for the
// admin listing, optionally filtered by referrer class and sorted by a
// settings field.
func (s *StatsService) ListReferrers(ctx context.Context, class, sortBy string, page, limit int64) ([]models.ReferrerPerformance, int64, error) {
	if class != "" && class != models.ReferrerClassNormal && class != models.ReferrerClassSubscribed {
		return nil, 0, validationf("unknown referrer class: %s", class)
	}
	switch sortBy {
	case "", "createdAt", "initialRate", "recurringRate", "class":
	default:
		return nil, 0, validationf("unknown sort field: %s", sortBy)
	}
	page, limit = normalizePage(page, limit)

	settingsList, total, err := s.settings.List(ctx, class, sortBy, page, limit)
	if err != nil {
		return nil, 0, err
	}

	now := s.now()
	rows := make([]models.ReferrerPerformance, 0, len(settingsList))
	for _, st := range settingsList {
		summary, err := s.earnings.SummaryByReferrer(ctx, st.ReferrerID, now)
		if err != nil {
			return nil, 0, err
		}
		referralCount, err := s.referrals.CountByReferrer(ctx, st.ReferrerID, time.Time{})
		if err != nil {
			return nil, 0, err
		}
		rows = append(rows, models.ReferrerPerformance{
			ReferrerID:      st.ReferrerID,
			ReferrerClass:   st.ReferrerClass,
			Active:          st.Active,
			CustomRates:     st.CustomRates,
			InitialRate:     st.InitialRate,
			RecurringRate:   st.RecurringRate,
			TotalReferrals:  referralCount,
			ActiveReferrals: summary.ActiveReferrals,
			TotalEarnings:   summary.TotalAmount,
			PendingEarnings: summary.PendingAmount,
			PaidEarnings:    summary.PaidAmount,
		})
	}
	return rows, total, nil
}
