package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/skillforge/referral_backend/models"
)

// ReferralRepository persists referral attributions. The unique index on
// referredUserId guarantees a user is attributed to at most one referrer.
type ReferralRepository struct {
	collection *mongo.Collection
}

func NewReferralRepository(db *mongo.Database) *ReferralRepository {
	return &ReferralRepository{collection: db.Collection(CollReferrals)}
}

func (r *ReferralRepository) Insert(ctx context.Context, ref *models.Referral) error {
	_, err := r.collection.InsertOne(ctx, ref)
	return insertErr(err)
}

func (r *ReferralRepository) FindByReferredUser(ctx context.Context, referredUserID primitive.ObjectID) (*models.Referral, error) {
	var ref models.Referral
	err := r.collection.FindOne(ctx, bson.M{"referredUserId": referredUserID}).Decode(&ref)
	if err != nil {
		return nil, findErr(err)
	}
	return &ref, nil
}

func (r *ReferralRepository) CountByReferrer(ctx context.Context, referrerID primitive.ObjectID, since time.Time) (int64, error) {
	filter := bson.M{"referrerId": referrerID}
	if !since.IsZero() {
		filter["createdAt"] = bson.M{"$gte": since}
	}
	return r.collection.CountDocuments(ctx, filter)
}
