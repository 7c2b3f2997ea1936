package services

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillforge/referral_backend/models"
)

// Default commission rates per referrer class, in percent.
const (
	normalInitialRate       = 20.0
	normalRecurringRate     = 10.0
	subscribedInitialRate   = 40.0
	subscribedRecurringRate = 20.0
)

// SettingsService manages per-referrer commission settings. Settings are
// created once with class defaults and only edited by administrators; edits
// never touch already-recorded earnings.
type SettingsService struct {
	settings SettingsStore
	now      func() time.Time
}

func NewSettingsService(settings SettingsStore) *SettingsService {
	return &SettingsService{settings: settings, now: time.Now}
}

// InitializeForReferrer creates commission settings with class-based default
// rates. It is idempotent: if settings already exist they are returned
// unchanged, whatever class is passed.
func (s *SettingsService) InitializeForReferrer(ctx context.Context, referrerID primitive.ObjectID, class string) (*models.CommissionSettings, error) {
	if existing, err := s.settings.FindByReferrer(ctx, referrerID); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	initialRate, recurringRate := normalInitialRate, normalRecurringRate
	if class == models.ReferrerClassSubscribed {
		initialRate, recurringRate = subscribedInitialRate, subscribedRecurringRate
	} else {
		class = models.ReferrerClassNormal
	}

	now := s.now()
	settings := &models.CommissionSettings{
		ID:            primitive.NewObjectID(),
		ReferrerID:    referrerID,
		ReferrerClass: class,
		InitialRate:   initialRate,
		RecurringRate: recurringRate,
		PaymentModel:  models.PaymentModelRecurring,
		Active:        true,
		CustomRates:   false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.settings.Insert(ctx, settings); err != nil {
		if errors.Is(err, ErrDuplicate) {
			// Lost the creation race; the winner's settings are the truth.
			return s.settings.FindByReferrer(ctx, referrerID)
		}
		return nil, err
	}

	log.Printf("Initialized commission settings for referrer %s (class %s)", referrerID.Hex(), class)
	return settings, nil
}

// UpdateRates applies an admin override. Any rate change marks the settings
// as custom so class-default adjustments no longer apply to this referrer.
func (s *SettingsService) UpdateRates(ctx context.Context, referrerID primitive.ObjectID, body *models.UpdateCommissionSettingsBody) (*models.CommissionSettings, error) {
	settings, err := s.settings.FindByReferrer(ctx, referrerID)
	if err != nil {
		return nil, err
	}

	if body.InitialRate != nil {
		if *body.InitialRate < 0 || *body.InitialRate > 100 {
			return nil, validationf("initialRate must be between 0 and 100")
		}
		settings.InitialRate = *body.InitialRate
		settings.CustomRates = true
	}
	if body.RecurringRate != nil {
		if *body.RecurringRate < 0 || *body.RecurringRate > 100 {
			return nil, validationf("recurringRate must be between 0 and 100")
		}
		settings.RecurringRate = *body.RecurringRate
		settings.CustomRates = true
	}
	if body.PaymentModel != nil {
		if *body.PaymentModel != models.PaymentModelRecurring && *body.PaymentModel != models.PaymentModelOneTime {
			return nil, validationf("unknown payment model: %s", *body.PaymentModel)
		}
		settings.PaymentModel = *body.PaymentModel
	}
	if body.Active != nil {
		settings.Active = *body.Active
	}

	settings.UpdatedAt = s.now()
	if err := s.settings.Update(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// GetByReferrer returns the referrer's commission settings.
func (s *SettingsService) GetByReferrer(ctx context.Context, referrerID primitive.ObjectID) (*models.CommissionSettings, error) {
	return s.settings.FindByReferrer(ctx, referrerID)
}
