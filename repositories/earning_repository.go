package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/skillforge/referral_backend/models"
)

// EarningRepository is the persistent commission ledger. Rows are never
// deleted; the unique transactionId index is the idempotency guard.
type EarningRepository struct {
	collection *mongo.Collection
}

func NewEarningRepository(db *mongo.Database) *EarningRepository {
	return &EarningRepository{collection: db.Collection(CollEarnings)}
}

func (r *EarningRepository) Insert(ctx context.Context, e *models.Earning) error {
	_, err := r.collection.InsertOne(ctx, e)
	return insertErr(err)
}

func (r *EarningRepository) FindByTransactionID(ctx context.Context, transactionID string) (*models.Earning, error) {
	var earning models.Earning
	err := r.collection.FindOne(ctx, bson.M{"transactionId": transactionID}).Decode(&earning)
	if err != nil {
		return nil, findErr(err)
	}
	return &earning, nil
}

func (r *EarningRepository) CountByPair(ctx context.Context, referrerID, referredUserID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{
		"referrerId":     referrerID,
		"referredUserId": referredUserID,
	})
}

// FindEligible returns the matured pending earnings oldest first, the order
// the reservation walk consumes them in.
func (r *EarningRepository) FindEligible(ctx context.Context, referrerID primitive.ObjectID, asOf time.Time) ([]models.Earning, error) {
	filter := bson.M{
		"referrerId": referrerID,
		"status":     models.EarningStatusPending,
		"eligibleAt": bson.M{"$lte": asOf},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var earnings []models.Earning
	if err := cursor.All(ctx, &earnings); err != nil {
		return nil, err
	}
	return earnings, nil
}

// Reserve claims one earning for a payout request. The status guard in the
// filter is the sole serialization point between concurrent payout requests:
// only one of them can flip pending to approved.
func (r *EarningRepository) Reserve(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.EarningStatusPending},
		bson.M{"$set": bson.M{"status": models.EarningStatusApproved, "updatedAt": at}},
	)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount == 1, nil
}

func (r *EarningRepository) Release(ctx context.Context, ids []primitive.ObjectID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "status": models.EarningStatusApproved},
		bson.M{"$set": bson.M{"status": models.EarningStatusPending, "updatedAt": at}},
	)
	return err
}

func (r *EarningRepository) FindByReferrer(ctx context.Context, referrerID primitive.ObjectID, status string, page, limit int64) ([]models.Earning, int64, error) {
	filter := bson.M{"referrerId": referrerID}
	if status != "" {
		filter["status"] = status
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var earnings []models.Earning
	if err := cursor.All(ctx, &earnings); err != nil {
		return nil, 0, err
	}
	return earnings, total, nil
}

// SummaryByReferrer aggregates one referrer's ledger into the dashboard
// rollup.
func (r *EarningRepository) SummaryByReferrer(ctx context.Context, referrerID primitive.ObjectID, asOf time.Time) (models.EarningSummary, error) {
	summary, err := r.summarize(ctx, bson.M{"referrerId": referrerID})
	if err != nil {
		return models.EarningSummary{}, err
	}

	eligible, err := r.sumAmount(ctx, bson.M{
		"referrerId": referrerID,
		"status":     models.EarningStatusPending,
		"eligibleAt": bson.M{"$lte": asOf},
	})
	if err != nil {
		return models.EarningSummary{}, err
	}
	summary.EligibleAmount = eligible

	monthStart := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, asOf.Location())
	thisMonth, err := r.sumAmount(ctx, bson.M{
		"referrerId": referrerID,
		"createdAt":  bson.M{"$gte": monthStart},
	})
	if err != nil {
		return models.EarningSummary{}, err
	}
	summary.ThisMonthAmount = thisMonth

	active, err := r.collection.Distinct(ctx, "referredUserId", bson.M{"referrerId": referrerID})
	if err != nil {
		return models.EarningSummary{}, err
	}
	summary.ActiveReferrals = int64(len(active))

	return summary, nil
}

// GlobalSummary aggregates the whole ledger for the admin overview.
func (r *EarningRepository) GlobalSummary(ctx context.Context) (models.EarningSummary, error) {
	return r.summarize(ctx, bson.M{})
}

func (r *EarningRepository) summarize(ctx context.Context, match bson.M) (models.EarningSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":    "$status",
			"amount": bson.M{"$sum": "$earningAmount"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return models.EarningSummary{}, err
	}
	defer cursor.Close(ctx)

	var buckets []struct {
		Status string  `bson:"_id"`
		Amount float64 `bson:"amount"`
	}
	if err := cursor.All(ctx, &buckets); err != nil {
		return models.EarningSummary{}, err
	}

	var summary models.EarningSummary
	for _, b := range buckets {
		summary.TotalAmount += b.Amount
		switch b.Status {
		case models.EarningStatusPending:
			summary.PendingAmount = b.Amount
		case models.EarningStatusApproved:
			summary.ApprovedAmount = b.Amount
		case models.EarningStatusPaid:
			summary.PaidAmount = b.Amount
		}
	}
	return summary, nil
}

func (r *EarningRepository) sumAmount(ctx context.Context, match bson.M) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":    nil,
			"amount": bson.M{"$sum": "$earningAmount"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var result []struct {
		Amount float64 `bson:"amount"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return 0, err
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].Amount, nil
}
