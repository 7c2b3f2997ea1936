package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/skillforge/referral_backend/models"
	"github.com/skillforge/referral_backend/services"
)

// PayoutRepository persists payout requests and applies lifecycle transitions
// together with their earning-status propagation in one transaction.
type PayoutRepository struct {
	client   *mongo.Client
	payouts  *mongo.Collection
	earnings *mongo.Collection
}

func NewPayoutRepository(db *mongo.Database) *PayoutRepository {
	return &PayoutRepository{
		client:   db.Client(),
		payouts:  db.Collection(CollPayoutRequests),
		earnings: db.Collection(CollEarnings),
	}
}

func (r *PayoutRepository) Insert(ctx context.Context, p *models.PayoutRequest) error {
	_, err := r.payouts.InsertOne(ctx, p)
	return insertErr(err)
}

func (r *PayoutRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.PayoutRequest, error) {
	var payout models.PayoutRequest
	err := r.payouts.FindOne(ctx, bson.M{"_id": id}).Decode(&payout)
	if err != nil {
		return nil, findErr(err)
	}
	return &payout, nil
}

func (r *PayoutRepository) FindByReferrer(ctx context.Context, referrerID primitive.ObjectID, page, limit int64) ([]models.PayoutRequest, int64, error) {
	return r.find(ctx, bson.M{"referrerId": referrerID}, page, limit)
}

func (r *PayoutRepository) FindByStatus(ctx context.Context, status string, page, limit int64) ([]models.PayoutRequest, int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return r.find(ctx, filter, page, limit)
}

func (r *PayoutRepository) find(ctx context.Context, filter bson.M, page, limit int64) ([]models.PayoutRequest, int64, error) {
	total, err := r.payouts.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)
	cursor, err := r.payouts.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var payouts []models.PayoutRequest
	if err := cursor.All(ctx, &payouts); err != nil {
		return nil, 0, err
	}
	return payouts, total, nil
}

// Resolve runs the payout status change and the earning status propagation
// inside a multi-document transaction. The status guard on the payout update
// rejects a decision raced by another admin; the transaction guarantees the
// ledger never ends up with the request updated but its earnings not.
// Requires the MongoDB deployment to be a replica set.
func (r *PayoutRepository) Resolve(ctx context.Context, payoutID primitive.ObjectID, from, to string,
	earningIDs []primitive.ObjectID, earningTo string,
	adminID primitive.ObjectID, note string, at time.Time) error {

	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		update := bson.M{"$set": bson.M{
			"status":      to,
			"adminNote":   note,
			"processedAt": at,
			"processedBy": adminID,
			"updatedAt":   at,
		}}
		result, err := r.payouts.UpdateOne(sc, bson.M{"_id": payoutID, "status": from}, update)
		if err != nil {
			return nil, err
		}
		if result.MatchedCount == 0 {
			return nil, services.ErrInvalidTransition
		}

		if earningTo != "" && len(earningIDs) > 0 {
			_, err = r.earnings.UpdateMany(sc,
				bson.M{"_id": bson.M{"$in": earningIDs}, "status": models.EarningStatusApproved},
				bson.M{"$set": bson.M{"status": earningTo, "updatedAt": at}},
			)
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

func (r *PayoutRepository) TotalsByStatus(ctx context.Context, status string) (models.PayoutTotals, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": status}}},
		{{Key: "$group", Value: bson.M{
			"_id":    nil,
			"count":  bson.M{"$sum": 1},
			"amount": bson.M{"$sum": "$requestedAmount"},
		}}},
	}

	cursor, err := r.payouts.Aggregate(ctx, pipeline)
	if err != nil {
		return models.PayoutTotals{}, err
	}
	defer cursor.Close(ctx)

	var result []struct {
		Count  int64   `bson:"count"`
		Amount float64 `bson:"amount"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return models.PayoutTotals{}, err
	}
	if len(result) == 0 {
		return models.PayoutTotals{}, nil
	}
	return models.PayoutTotals{Count: result[0].Count, Amount: result[0].Amount}, nil
}
