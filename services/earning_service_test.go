package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillforge/referral_backend/models"
)

var testClock = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestEarningService(m *memStore) *EarningService {
	svc := NewEarningService(earningStore{m}, settingsStore{m}, referralStore{m}, 0)
	svc.now = func() time.Time { return testClock }
	return svc
}

func seedSettings(m *memStore, referrerID primitive.ObjectID, paymentModel string) {
	s := settingsStore{m}
	_ = s.Insert(context.Background(), &models.CommissionSettings{
		ID:            primitive.NewObjectID(),
		ReferrerID:    referrerID,
		ReferrerClass: models.ReferrerClassNormal,
		InitialRate:   20,
		RecurringRate: 10,
		PaymentModel:  paymentModel,
		Active:        true,
		CreatedAt:     testClock,
		UpdatedAt:     testClock,
	})
}

func TestCreditEarningInitial(t *testing.T) {
	m := newMemStore()
	svc := newTestEarningService(m)
	referrer := primitive.NewObjectID()
	referred := primitive.NewObjectID()
	seedSettings(m, referrer, models.PaymentModelRecurring)

	result, err := svc.CreditEarning(context.Background(), referrer, referred, "txn-1", models.TransactionTypeSubscription, 100, "USD")
	if err != nil {
		t.Fatalf("CreditEarning failed: %v", err)
	}
	if result.Outcome != OutcomeCredited {
		t.Fatalf("expected outcome %q, got %q", OutcomeCredited, result.Outcome)
	}

	e := result.Earning
	if e.EarningType != models.EarningTypeInitial {
		t.Errorf("expected initial earning, got %s", e.EarningType)
	}
	if e.CommissionRate != 20 {
		t.Errorf("expected rate 20, got %v", e.CommissionRate)
	}
	if e.EarningAmount != 20 {
		t.Errorf("expected earning amount 20, got %v", e.EarningAmount)
	}
	if e.Status != models.EarningStatusPending {
		t.Errorf("expected pending status, got %s", e.Status)
	}
	if want := testClock.Add(DefaultMaturationWindow); !e.EligibleAt.Equal(want) {
		t.Errorf("expected eligibleAt %v, got %v", want, e.EligibleAt)
	}
}

func TestCreditEarningIdempotent(t *testing.T) {
	m := newMemStore()
	svc := newTestEarningService(m)
	referrer := primitive.NewObjectID()
	referred := primitive.NewObjectID()
	seedSettings(m, referrer, models.PaymentModelRecurring)

	first, err := svc.CreditEarning(context.Background(), referrer, referred, "txn-1", models.TransactionTypeSubscription, 100, "USD")
	if err != nil {
		t.Fatalf("first credit failed: %v", err)
	}
	second, err := svc.CreditEarning(context.Background(), referrer, referred, "txn-1", models.TransactionTypeSubscription, 100, "USD")
	if err != nil {
		t.Fatalf("duplicate credit failed: %v", err)
	}
	if second.Outcome != OutcomeDuplicate {
		t.Fatalf("expected outcome %q, got %q", OutcomeDuplicate, second.Outcome)
	}
	if second.Earning.ID != first.Earning.ID {
		t.Errorf("duplicate credit returned a different earning")
	}
	if len(m.earnings) != 1 {
		t.Errorf("expected exactly one ledger row, got %d", len(m.earnings))
	}
}

func TestCreditEarningRecurringRate(t *testing.T) {
	m := newMemStore()
	svc := newTestEarningService(m)
	referrer := primitive.NewObjectID()
	referred := primitive.NewObjectID()
	seedSettings(m, referrer, models.PaymentModelRecurring)

	if _, err := svc.CreditEarning(context.Background(), referrer, referred, "txn-1", models.TransactionTypeSubscription, 100, "USD"); err != nil {
		t.Fatalf("first credit failed: %v", err)
	}
	result, err := svc.CreditEarning(context.Background(), referrer, referred, "txn-2", models.TransactionTypeSubscription, 100, "USD")
	if err != nil {
		t.Fatalf("second credit failed: %v", err)
	}
	if result.Earning.EarningType != models.EarningTypeRecurring {
		t.Errorf("expected recurring earning, got %s", result.Earning.EarningType)
	}
	if result.Earning.CommissionRate != 10 {
		t.Errorf("expected recurring rate 10, got %v", result.Earning.CommissionRate)
	}
	if result.Earning.EarningAmount != 10 {
		t.Errorf("expected earning amount 10, got %v", result.Earning.EarningAmount)
	}
}

func TestCreditEarningOneTimeModelSkipsRecurring(t *testing.T) {
	m := newMemStore()
	svc := newTestEarningService(m)
	referrer := primitive.NewObjectID()
	referred := primitive.NewObjectID()
	seedSettings(m, referrer, models.PaymentModelOneTime)

	if _, err := svc.CreditEarning(context.Background(), referrer, referred, "txn-1", models.TransactionTypeSubscription, 100, "USD"); err != nil {
		t.Fatalf("first credit failed: %v", err)
	}
	result, err := svc.CreditEarning(context.Background(), referrer, referred, "txn-2", models.TransactionTypeSubscription, 100, "USD")
	if err != nil {
		t.Fatalf("second credit failed: %v", err)
	}
	if result.Outcome != OutcomeSkipped {
		t.Fatalf("expected outcome %q, got %q", OutcomeSkipped, result.Outcome)
	}
	if len(m.earnings) != 1 {
		t.Errorf("expected one ledger row under the one-time model, got %d", len(m.earnings))
	}
}

func TestCreditEarningRateSnapshot(t *testing.T) {
	m := newMemStore()
	svc := newTestEarningService(m)
	referrer := primitive.NewObjectID()
	referred := primitive.NewObjectID()
	seedSettings(m, referrer, models.PaymentModelRecurring)

	first, err := svc.CreditEarning(context.Background(), referrer, referred, "txn-1", models.TransactionTypeSubscription, 100, "USD")
	if err != nil {
		t.Fatalf("first credit failed: %v", err)
	}

	settingsSvc := NewSettingsService(settingsStore{m})
	newRate := 50.0
	if _, err := settingsSvc.UpdateRates(context.Background(), referrer, &models.UpdateCommissionSettingsBody{InitialRate: &newRate}); err != nil {
		t.Fatalf("UpdateRates failed: %v", err)
	}

	stored, err := earningStore{m}.FindByTransactionID(context.Background(), "txn-1")
	if err != nil {
		t.Fatalf("FindByTransactionID failed: %v", err)
	}
	if stored.CommissionRate != first.Earning.CommissionRate || stored.EarningAmount != first.Earning.EarningAmount {
		t.Errorf("rate change mutated an existing earning: %+v", stored)
	}

	second, err := svc.CreditEarning(context.Background(), referrer, primitive.NewObjectID(), "txn-2", models.TransactionTypeSubscription, 100, "USD")
	if err != nil {
		t.Fatalf("second credit failed: %v", err)
	}
	if second.Earning.CommissionRate != 50 {
		t.Errorf("new earning should use the updated rate, got %v", second.Earning.CommissionRate)
	}
}

func TestCreditEarningInactiveSettings(t *testing.T) {
	m := newMemStore()
	svc := newTestEarningService(m)
	referrer := primitive.NewObjectID()
	seedSettings(m, referrer, models.PaymentModelRecurring)
	m.settings[0].Active = false

	result, err := svc.CreditEarning(context.Background(), referrer, primitive.NewObjectID(), "txn-1", models.TransactionTypeSubscription, 100, "USD")
	if err != nil {
		t.Fatalf("CreditEarning failed: %v", err)
	}
	if result.Outcome != OutcomeNoReferral {
		t.Fatalf("expected outcome %q for inactive referrer, got %q", OutcomeNoReferral, result.Outcome)
	}
	if len(m.earnings) != 0 {
		t.Errorf("inactive referrer must not accrue earnings")
	}
}

func TestCreditEarningValidation(t *testing.T) {
	m := newMemStore()
	svc := newTestEarningService(m)
	referrer := primitive.NewObjectID()
	seedSettings(m, referrer, models.PaymentModelRecurring)

	var ve *ValidationError
	if _, err := svc.CreditEarning(context.Background(), referrer, primitive.NewObjectID(), "", models.TransactionTypeSubscription, 100, "USD"); !errors.As(err, &ve) {
		t.Errorf("expected validation error for empty transaction id, got %v", err)
	}
	if _, err := svc.CreditEarning(context.Background(), referrer, primitive.NewObjectID(), "txn-1", models.TransactionTypeSubscription, -5, "USD"); !errors.As(err, &ve) {
		t.Errorf("expected validation error for negative amount, got %v", err)
	}
}

func TestCreditForPurchase(t *testing.T) {
	m := newMemStore()
	svc := newTestEarningService(m)
	referrer := primitive.NewObjectID()
	referred := primitive.NewObjectID()
	seedSettings(m, referrer, models.PaymentModelRecurring)
	_ = referralStore{m}.Insert(context.Background(), &models.Referral{
		ID:             primitive.NewObjectID(),
		ReferrerID:     referrer,
		ReferredUserID: referred,
		Code:           "ABCD-XYZ",
		CreatedAt:      testClock,
	})

	result, err := svc.CreditForPurchase(context.Background(), referred, "txn-1", models.TransactionTypeCoursePurchase, 49.99, "USD")
	if err != nil {
		t.Fatalf("CreditForPurchase failed: %v", err)
	}
	if result.Outcome != OutcomeCredited {
		t.Fatalf("expected outcome %q, got %q", OutcomeCredited, result.Outcome)
	}
	if result.Earning.ReferrerID != referrer {
		t.Errorf("earning attributed to the wrong referrer")
	}

	// Purchases by users nobody referred are quietly ignored.
	result, err = svc.CreditForPurchase(context.Background(), primitive.NewObjectID(), "txn-2", models.TransactionTypeCoursePurchase, 49.99, "USD")
	if err != nil {
		t.Fatalf("CreditForPurchase failed for unreferred user: %v", err)
	}
	if result.Outcome != OutcomeNoReferral {
		t.Fatalf("expected outcome %q, got %q", OutcomeNoReferral, result.Outcome)
	}
}

func TestListEarningsRejectsUnknownStatus(t *testing.T) {
	m := newMemStore()
	svc := newTestEarningService(m)

	var ve *ValidationError
	if _, _, err := svc.ListEarnings(context.Background(), primitive.NewObjectID(), "bogus", 1, 20); !errors.As(err, &ve) {
		t.Errorf("expected validation error for unknown status, got %v", err)
	}
}
