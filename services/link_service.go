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

// How many prefix+timestamp codes to try before falling back to a pure
// random one.
const codeGenerationAttempts = 5

// LinkService issues referral codes and records clicks and signups against
// them. A signup creates the referral attribution and initializes the
// referrer's commission settings.
type LinkService struct {
	links     LinkStore
	referrals ReferralStore
	settings  *SettingsService
	now       func() time.Time
}

func NewLinkService(links LinkStore, referrals ReferralStore, settings *SettingsService) *LinkService {
	return &LinkService{links: links, referrals: referrals, settings: settings, now: time.Now}
}

// GetOrCreate returns the referrer's link, generating one lazily on first
// use. Code collisions are retried a bounded number of times before a pure
// random fallback code is used.
func (s *LinkService) GetOrCreate(ctx context.Context, referrerID primitive.ObjectID) (*models.ReferralLink, error) {
	link, err := s.links.FindByReferrer(ctx, referrerID)
	if err == nil {
		return link, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	for attempt := 0; attempt <= codeGenerationAttempts; attempt++ {
		var code string
		if attempt < codeGenerationAttempts {
			code, err = utils.GenerateReferralCode(referrerID.Hex())
			if err != nil {
				return nil, err
			}
		} else {
			code = utils.GenerateFallbackCode()
		}

		now := s.now()
		link = &models.ReferralLink{
			ID:         primitive.NewObjectID(),
			ReferrerID: referrerID,
			Code:       code,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		err = s.links.Insert(ctx, link)
		if err == nil {
			log.Printf("Issued referral code %s for referrer %s", code, referrerID.Hex())
			return link, nil
		}
		if !errors.Is(err, ErrDuplicate) {
			return nil, err
		}

		// Either the code collided or a concurrent request already created
		// this referrer's link. The latter wins outright.
		if existing, ferr := s.links.FindByReferrer(ctx, referrerID); ferr == nil {
			return existing, nil
		}
	}

	return nil, err
}

// TrackClick bumps the click counter for a code.
func (s *LinkService) TrackClick(ctx context.Context, code string) error {
	if code == "" {
		return validationf("referral code is required")
	}
	return s.links.IncrementClicks(ctx, code, s.now())
}

// RecordSignup attributes a newly signed-up user to the code's referrer,
// bumps the conversion counter and makes sure the referrer has commission
// settings. A user can only be attributed once.
func (s *LinkService) RecordSignup(ctx context.Context, referredUserID primitive.ObjectID, code, referrerClass string) (*models.Referral, error) {
	link, err := s.links.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if link.ReferrerID == referredUserID {
		return nil, validationf("cannot use your own referral code")
	}

	referral := &models.Referral{
		ID:             primitive.NewObjectID(),
		ReferrerID:     link.ReferrerID,
		ReferredUserID: referredUserID,
		Code:           code,
		CreatedAt:      s.now(),
	}
	if err := s.referrals.Insert(ctx, referral); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, validationf("user has already been referred")
		}
		return nil, err
	}

	if err := s.links.IncrementConversions(ctx, code, s.now()); err != nil {
		log.Printf("Failed to bump conversion counter for code %s: %v", code, err)
	}

	// Establishing the referral relationship is what creates the commission
	// settings; idempotent for referrers who already have them.
	if _, err := s.settings.InitializeForReferrer(ctx, link.ReferrerID, referrerClass); err != nil {
		return nil, err
	}

	return referral, nil
}

// GetByReferrer returns the referrer's link without creating one.
func (s *LinkService) GetByReferrer(ctx context.Context, referrerID primitive.ObjectID) (*models.ReferralLink, error) {
	return s.links.FindByReferrer(ctx, referrerID)
}
